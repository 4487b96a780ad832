// Package store implements the EntityStore: the owning collection of
// entities, a secondary index from component type to the entities holding
// (a subtype of) it, and the ad-hoc multi-type queries built on that index.
package store

import (
	"reflect"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/aatle/pyriak/entity"
	"github.com/aatle/pyriak/events"
	"github.com/aatle/pyriak/types"
)

var (
	ErrEntityAlreadyPresent = eris.New("entity already in store")
	ErrEntityNotFound       = eris.New("entity not found in store")
)

// EventSink is the append-only, caller-owned queue the store posts its
// notifications to. The store never pops from it.
type EventSink interface {
	Append(events ...any)
}

// EntityStore owns a collection of entities and keeps a secondary index
// mapping every type in a held component's ancestor chain to the ids of the
// entities holding it. The index is maintained eagerly on every add and
// remove, so queries are pure set merges.
//
// The store is single-threaded, like the rest of the core: mutations are
// synchronous and atomic from the caller's point of view.
type EntityStore struct {
	hierarchy *types.Hierarchy
	entities  map[types.EntityID]*entity.Entity
	order     []types.EntityID
	index     map[reflect.Type]map[types.EntityID]struct{}
	sink      EventSink
	logger    zerolog.Logger
}

// Option configures an EntityStore.
type Option func(*EntityStore)

// WithSink directs the store's notifications to sink.
func WithSink(sink EventSink) Option {
	return func(s *EntityStore) { s.sink = sink }
}

// WithLogger attaches a logger; the default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *EntityStore) { s.logger = logger }
}

// New creates an empty store resolving component supertypes through h.
func New(h *types.Hierarchy, opts ...Option) *EntityStore {
	s := &EntityStore{
		hierarchy: h,
		entities:  map[types.EntityID]*entity.Entity{},
		index:     map[reflect.Type]map[types.EntityID]struct{}{},
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add adds entities to the store. An entity already tracked fails with
// ErrEntityAlreadyPresent; one owned by another store fails with
// entity.ErrAlreadyOwned. Entities processed before a failure stay added.
//
// Each added entity posts one EntityAdded followed by one ComponentAdded
// per component, in the entity's component insertion order.
func (s *EntityStore) Add(ents ...*entity.Entity) error {
	for _, e := range ents {
		if _, ok := s.entities[e.ID()]; ok {
			return eris.Wrapf(ErrEntityAlreadyPresent, "entity %v", e.ID())
		}
		if err := e.Attach(s); err != nil {
			return err
		}
		s.entities[e.ID()] = e
		s.order = append(s.order, e.ID())
		if s.sink != nil {
			s.sink.Append(events.EntityAdded{Entity: e})
		}
		for _, component := range e.Components() {
			s.ComponentAttached(e, component)
		}
		s.logger.Debug().
			Stringer("entity_id", e.ID()).
			Int("components", e.Len()).
			Msg("entity added")
	}
	return nil
}

// Create builds a new entity from components, adds it, and returns it.
func (s *EntityStore) Create(components ...any) (*entity.Entity, error) {
	e, err := entity.New(components...)
	if err != nil {
		return nil, err
	}
	if err := s.Add(e); err != nil {
		return nil, err
	}
	return e, nil
}

// Remove removes entities from the store. An untracked entity fails with
// ErrEntityNotFound; entities processed before the failure stay removed and
// the remainder is not processed.
//
// Each removed entity posts one ComponentRemoved per component followed by
// one EntityRemoved.
func (s *EntityStore) Remove(ents ...*entity.Entity) error {
	for _, e := range ents {
		if _, ok := s.entities[e.ID()]; !ok {
			return eris.Wrapf(ErrEntityNotFound, "entity %v", e.ID())
		}
		delete(s.entities, e.ID())
		for i, id := range s.order {
			if id == e.ID() {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		e.Detach()
		s.dropFromIndex(e)
		if s.sink != nil {
			for _, component := range e.Components() {
				s.sink.Append(events.ComponentRemoved{Entity: e, Component: component})
			}
		}
		if s.sink != nil {
			s.sink.Append(events.EntityRemoved{Entity: e})
		}
		s.logger.Debug().Stringer("entity_id", e.ID()).Msg("entity removed")
	}
	return nil
}

// Pop removes and returns the entity with the given id.
func (s *EntityStore) Pop(id types.EntityID) (*entity.Entity, error) {
	e, ok := s.entities[id]
	if !ok {
		return nil, eris.Wrapf(ErrEntityNotFound, "entity %v", id)
	}
	if err := s.Remove(e); err != nil {
		return nil, err
	}
	return e, nil
}

// Get returns the tracked entity with the given id.
func (s *EntityStore) Get(id types.EntityID) (*entity.Entity, bool) {
	e, ok := s.entities[id]
	return e, ok
}

// Contains reports whether the entity is tracked by this store.
func (s *EntityStore) Contains(e *entity.Entity) bool {
	_, ok := s.entities[e.ID()]
	return ok
}

// Iterate returns a snapshot of all entities in insertion order.
func (s *EntityStore) Iterate() []*entity.Entity {
	ents := make([]*entity.Entity, 0, len(s.order))
	for _, id := range s.order {
		ents = append(ents, s.entities[id])
	}
	return ents
}

func (s *EntityStore) Len() int {
	return len(s.entities)
}

// Hierarchy returns the type hierarchy this store resolves supertypes
// through.
func (s *EntityStore) Hierarchy() *types.Hierarchy {
	return s.hierarchy
}

// Clear removes every entity, posting the same notifications as Remove.
func (s *EntityStore) Clear() error {
	return s.Remove(s.Iterate()...)
}

// IDs returns a copy of the id set indexed under t. Entities holding a
// component whose ancestor chain includes t are included.
func (s *EntityStore) IDs(t reflect.Type) []types.EntityID {
	set := s.index[t]
	ids := make([]types.EntityID, 0, len(set))
	for _, id := range s.order {
		if _, ok := set[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Components returns every component assignable to t across the store, one
// per entity holding one, in store insertion order. The exact component
// type on each entity is resolved through the hierarchy.
func (s *EntityStore) Components(t reflect.Type) []any {
	var comps []any
	for _, id := range s.order {
		if _, ok := s.index[t][id]; !ok {
			continue
		}
		e := s.entities[id]
		for _, component := range e.Components() {
			if s.hierarchy.IsSubtype(reflect.TypeOf(component), t) {
				comps = append(comps, component)
			}
		}
	}
	return comps
}

// IndexedTypes returns the types currently present in the secondary index.
func (s *EntityStore) IndexedTypes() []reflect.Type {
	indexed := make([]reflect.Type, 0, len(s.index))
	for t := range s.index {
		indexed = append(indexed, t)
	}
	return indexed
}

// ComponentAttached maintains the index and notifications for a component
// joining an owned entity. It is the entity.Owner callback; entities invoke
// it on their own mutations, and Add routes whole-entity indexing through
// it as well.
func (s *EntityStore) ComponentAttached(e *entity.Entity, component any) {
	id := e.ID()
	for _, t := range s.hierarchy.Ancestors(reflect.TypeOf(component)) {
		set, ok := s.index[t]
		if !ok {
			set = map[types.EntityID]struct{}{}
			s.index[t] = set
		}
		set[id] = struct{}{}
	}
	if s.sink != nil {
		s.sink.Append(events.ComponentAdded{Entity: e, Component: component})
	}
}

// ComponentDetached is the removal counterpart of ComponentAttached.
func (s *EntityStore) ComponentDetached(e *entity.Entity, component any) {
	s.unindex(e, component)
	if s.sink != nil {
		s.sink.Append(events.ComponentRemoved{Entity: e, Component: component})
	}
}

// unindex drops e's id from every index entry the removed component
// contributed, unless another component still on the entity contributes the
// same ancestor type. Empty id sets are pruned so the index holds a type
// key iff some live entity matches it.
func (s *EntityStore) unindex(e *entity.Entity, component any) {
	id := e.ID()
	for _, t := range s.hierarchy.Ancestors(reflect.TypeOf(component)) {
		if s.contributes(e, t) {
			continue
		}
		set, ok := s.index[t]
		if !ok {
			continue
		}
		delete(set, id)
		if len(set) == 0 {
			delete(s.index, t)
		}
	}
}

// dropFromIndex removes e's id from every index entry any of its components
// contributes to. Used on whole-entity removal, where the entity keeps its
// components and the per-component re-check does not apply.
func (s *EntityStore) dropFromIndex(e *entity.Entity) {
	id := e.ID()
	for _, ct := range e.Types() {
		for _, t := range s.hierarchy.Ancestors(ct) {
			set, ok := s.index[t]
			if !ok {
				continue
			}
			delete(set, id)
			if len(set) == 0 {
				delete(s.index, t)
			}
		}
	}
}

// contributes reports whether any component currently on e has t in its
// ancestor chain.
func (s *EntityStore) contributes(e *entity.Entity, t reflect.Type) bool {
	for _, ct := range e.Types() {
		if s.hierarchy.IsSubtype(ct, t) {
			return true
		}
	}
	return false
}
