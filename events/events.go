// Package events contains the built-in notification events produced by the
// entity store and the state store. The producing call only appends them to
// the externally owned queue; they are ordinary events and may themselves be
// dispatched, which is what makes reacting to store changes possible.
//
// The component and state events carry key functions keyed on the exact
// runtime type of the payload, so handlers can narrow down the high-volume
// component traffic to the types they care about.
package events

import (
	"reflect"

	"github.com/aatle/pyriak/dispatch"
	"github.com/aatle/pyriak/entity"
	"github.com/aatle/pyriak/types"
)

// EntityAdded is posted when an entity is added to a store.
type EntityAdded struct {
	Entity *entity.Entity
}

// EntityRemoved is posted when an entity is removed from a store.
type EntityRemoved struct {
	Entity *entity.Entity
}

// ComponentAdded is posted when a component joins a stored entity: either
// the component was added to an entity already in the store, or an entity
// carrying it was added. The event key is the component's exact type.
type ComponentAdded struct {
	Entity    *entity.Entity
	Component any
}

// ComponentRemoved is posted when a component leaves a stored entity. For a
// whole-entity removal the component is still on the entity when the event
// is observed. The event key is the component's exact type.
type ComponentRemoved struct {
	Entity    *entity.Entity
	Component any
}

// StateAdded is posted when a state value is added to a state store. The
// event key is the state's exact type.
type StateAdded struct {
	State any
}

// StateRemoved is posted when a state value is removed from a state store.
// The event key is the state's exact type.
type StateRemoved struct {
	State any
}

// RegisterKeyFunctions installs the key functions for the store and state
// events on reg. The registry is insert-once, so this must run exactly once
// per registry, before any keyed bindings against these event types.
func RegisterKeyFunctions(reg *dispatch.KeyRegistry) error {
	for t, fn := range map[reflect.Type]dispatch.KeyFunc{
		types.TypeOf[ComponentAdded](): dispatch.SingleKey(func(event any) any {
			return reflect.TypeOf(event.(ComponentAdded).Component)
		}),
		types.TypeOf[ComponentRemoved](): dispatch.SingleKey(func(event any) any {
			return reflect.TypeOf(event.(ComponentRemoved).Component)
		}),
		types.TypeOf[StateAdded](): dispatch.SingleKey(func(event any) any {
			return reflect.TypeOf(event.(StateAdded).State)
		}),
		types.TypeOf[StateRemoved](): dispatch.SingleKey(func(event any) any {
			return reflect.TypeOf(event.(StateRemoved).State)
		}),
	} {
		if err := reg.Set(t, fn); err != nil {
			return err
		}
	}
	return nil
}
