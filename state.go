package pyriak

import (
	"reflect"

	"github.com/rotisserie/eris"

	"github.com/aatle/pyriak/events"
	"github.com/aatle/pyriak/types"
)

var (
	ErrStateAlreadyPresent = eris.New("state of this type already present")
	ErrStateNotPresent     = eris.New("state of this type not present")
)

// StateStore is the type-keyed single-value counterpart of the entity
// store: at most one value per exact type, no hierarchy expansion and no
// queries. Spaces use it for the global values that belong to no entity.
type StateStore struct {
	order  []reflect.Type
	states map[reflect.Type]any
	sink   EventSink
}

// NewStateStore creates an empty state store posting its notifications to
// sink, which may be nil.
func NewStateStore(sink EventSink) *StateStore {
	return &StateStore{
		states: map[reflect.Type]any{},
		sink:   sink,
	}
}

// Add adds state values, keyed by exact type. A duplicate type fails with
// ErrStateAlreadyPresent; values processed earlier in the batch stay added.
// Posts one StateAdded per value.
func (s *StateStore) Add(states ...any) error {
	for _, state := range states {
		t := reflect.TypeOf(state)
		if _, ok := s.states[t]; ok {
			return eris.Wrapf(ErrStateAlreadyPresent, "type %v", t)
		}
		s.states[t] = state
		s.order = append(s.order, t)
		if s.sink != nil {
			s.sink.Append(events.StateAdded{State: state})
		}
	}
	return nil
}

// RemoveType removes and returns the state stored under t. Posts one
// StateRemoved.
func (s *StateStore) RemoveType(t reflect.Type) (any, error) {
	state, ok := s.states[t]
	if !ok {
		return nil, eris.Wrapf(ErrStateNotPresent, "type %v", t)
	}
	delete(s.states, t)
	for i, ot := range s.order {
		if ot == t {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.sink != nil {
		s.sink.Append(events.StateRemoved{State: state})
	}
	return state, nil
}

// Get returns the state stored under the exact type t.
func (s *StateStore) Get(t reflect.Type) (any, bool) {
	state, ok := s.states[t]
	return state, ok
}

func (s *StateStore) Has(t reflect.Type) bool {
	_, ok := s.states[t]
	return ok
}

// Types returns the stored state types in insertion order.
func (s *StateStore) Types() []reflect.Type {
	return append([]reflect.Type{}, s.order...)
}

func (s *StateStore) Len() int {
	return len(s.states)
}

// Clear removes every state, posting StateRemoved for each in insertion
// order.
func (s *StateStore) Clear() {
	for len(s.order) > 0 {
		_, _ = s.RemoveType(s.order[0])
	}
}

// GetState returns the stored state of type T.
func GetState[T any](s *StateStore) (T, bool) {
	state, ok := s.Get(types.TypeOf[T]())
	if !ok {
		var zero T
		return zero, false
	}
	return state.(T), true
}
