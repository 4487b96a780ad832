// Package entity implements the mutable, type-keyed component bag at the
// heart of the entity store. An Entity has no behavior of its own: its
// components are its data, and systems registered on a dispatcher give it
// behavior.
package entity

import (
	"reflect"

	"github.com/rotisserie/eris"

	"github.com/aatle/pyriak/types"
)

var (
	ErrComponentAlreadyPresent = eris.New("entity already has component of this type")
	ErrComponentNotPresent     = eris.New("component not found on entity")
	ErrAlreadyOwned            = eris.New("entity already added to another store")
)

// Owner is the store-side half of the entity/store handshake. An owned
// entity calls back into its owner whenever a component is added or removed
// so the owner's secondary index and notifications stay synchronized with
// the entity's contents.
type Owner interface {
	ComponentAttached(e *Entity, component any)
	ComponentDetached(e *Entity, component any)
}

// Entity is an ordered mapping from exact runtime type to one component
// instance. Components are identified purely by their type; any value is a
// valid component, and components only need to be equality-comparable (via
// reflect.DeepEqual), not hashable.
//
// An entity belongs to at most one store at a time. The back-reference to
// the owning store is non-owning and cleared on removal, so a removed
// entity can be held and reused by the caller.
type Entity struct {
	id    types.EntityID
	order []reflect.Type
	comps map[reflect.Type]any
	owner Owner
}

// New creates a standalone entity holding the given components. It fails if
// two components share an exact runtime type; components added before the
// offending one are kept.
func New(components ...any) (*Entity, error) {
	e := &Entity{
		id:    types.NewEntityID(),
		comps: map[reflect.Type]any{},
	}
	if err := e.Add(components...); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Entity) ID() types.EntityID {
	return e.id
}

// Owner returns the store currently holding the entity, or nil.
func (e *Entity) Owner() Owner {
	return e.owner
}

// Attach records the store that now owns the entity. It is called by the
// store when the entity is added; user code has no reason to call it.
func (e *Entity) Attach(owner Owner) error {
	if e.owner != nil && e.owner != owner {
		return eris.Wrapf(ErrAlreadyOwned, "entity %v", e.id)
	}
	e.owner = owner
	return nil
}

// Detach clears the owner back-reference. Called by the store on removal.
func (e *Entity) Detach() {
	e.owner = nil
}

// Add stores each component under its exact runtime type. Adding a type the
// entity already holds fails with ErrComponentAlreadyPresent; components
// processed earlier in the batch stay added. While the entity is owned,
// every addition is reported to the owning store.
func (e *Entity) Add(components ...any) error {
	for _, component := range components {
		t := reflect.TypeOf(component)
		if _, ok := e.comps[t]; ok {
			return eris.Wrapf(ErrComponentAlreadyPresent, "type %v", t)
		}
		e.comps[t] = component
		e.order = append(e.order, t)
		if e.owner != nil {
			e.owner.ComponentAttached(e, component)
		}
	}
	return nil
}

// Set replaces any existing component of the same exact type with the one
// given, adding it if absent. Replacing a component that compares equal to
// the new one is a no-op, producing no notifications.
func (e *Entity) Set(components ...any) {
	for _, component := range components {
		t := reflect.TypeOf(component)
		if existing, ok := e.comps[t]; ok {
			if reflect.DeepEqual(existing, component) {
				continue
			}
			e.comps[t] = component
			if e.owner != nil {
				e.owner.ComponentDetached(e, existing)
				e.owner.ComponentAttached(e, component)
			}
			continue
		}
		e.comps[t] = component
		e.order = append(e.order, t)
		if e.owner != nil {
			e.owner.ComponentAttached(e, component)
		}
	}
}

// Remove removes each component, matching by exact type and equality. A
// component with no equal counterpart on the entity fails with
// ErrComponentNotPresent; components processed earlier stay removed.
func (e *Entity) Remove(components ...any) error {
	for _, component := range components {
		t := reflect.TypeOf(component)
		existing, ok := e.comps[t]
		if !ok || !reflect.DeepEqual(existing, component) {
			return eris.Wrapf(ErrComponentNotPresent, "type %v", t)
		}
		e.removeType(t, existing)
	}
	return nil
}

// RemoveType removes the component stored under t, returning it. It fails
// with ErrComponentNotPresent if the entity has no component of that exact
// type.
func (e *Entity) RemoveType(t reflect.Type) (any, error) {
	existing, ok := e.comps[t]
	if !ok {
		return nil, eris.Wrapf(ErrComponentNotPresent, "type %v", t)
	}
	e.removeType(t, existing)
	return existing, nil
}

func (e *Entity) removeType(t reflect.Type, component any) {
	delete(e.comps, t)
	for i, ot := range e.order {
		if ot == t {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	if e.owner != nil {
		e.owner.ComponentDetached(e, component)
	}
}

// Get returns the component stored under the exact type t.
func (e *Entity) Get(t reflect.Type) (any, bool) {
	c, ok := e.comps[t]
	return c, ok
}

func (e *Entity) Has(t reflect.Type) bool {
	_, ok := e.comps[t]
	return ok
}

// Types returns the exact component types on the entity in insertion order.
func (e *Entity) Types() []reflect.Type {
	return append([]reflect.Type(nil), e.order...)
}

// Components returns the components in insertion order.
func (e *Entity) Components() []any {
	comps := make([]any, 0, len(e.order))
	for _, t := range e.order {
		comps = append(comps, e.comps[t])
	}
	return comps
}

func (e *Entity) Len() int {
	return len(e.comps)
}

// Clear removes every component, notifying the owner for each.
func (e *Entity) Clear() {
	for _, component := range e.Components() {
		e.removeType(reflect.TypeOf(component), component)
	}
}

// Equal reports value equality: two entities are equal when they hold equal
// components under the same types, regardless of id or owner.
func (e *Entity) Equal(other *Entity) bool {
	if e == other {
		return true
	}
	if other == nil || len(e.comps) != len(other.comps) {
		return false
	}
	for t, c := range e.comps {
		oc, ok := other.comps[t]
		if !ok || !reflect.DeepEqual(c, oc) {
			return false
		}
	}
	return true
}

// Get returns the entity's component of exact type T.
func Get[T any](e *Entity) (T, bool) {
	c, ok := e.Get(types.TypeOf[T]())
	if !ok {
		var zero T
		return zero, false
	}
	return c.(T), true
}
