package dispatch

import (
	"reflect"

	"github.com/aatle/pyriak/types"
)

// SystemAdded is posted when a system is registered. The event key is the
// system itself.
type SystemAdded struct {
	System *System
}

// SystemRemoved is posted when a system is unregistered. The event key is
// the system itself.
type SystemRemoved struct {
	System *System
}

// HandlerAdded is posted once per binding when its system is registered.
// The event key is the bound event type.
type HandlerAdded struct {
	EventType reflect.Type
	Keys      []any
	System    *System
	Callback  Callback
	Name      string
	Priority  any
}

// HandlerRemoved is posted once per binding when its system is
// unregistered, mirroring HandlerAdded. The event key is the bound event
// type.
type HandlerRemoved struct {
	EventType reflect.Type
	Keys      []any
	System    *System
	Callback  Callback
	Name      string
	Priority  any
}

// RegisterKeyFunctions installs the key functions for the dispatcher's own
// notification events on reg. Must run exactly once per registry, before
// any keyed bindings against these event types.
func RegisterKeyFunctions(reg *KeyRegistry) error {
	for t, fn := range map[reflect.Type]KeyFunc{
		types.TypeOf[SystemAdded](): SingleKey(func(event any) any {
			return event.(SystemAdded).System
		}),
		types.TypeOf[SystemRemoved](): SingleKey(func(event any) any {
			return event.(SystemRemoved).System
		}),
		types.TypeOf[HandlerAdded](): SingleKey(func(event any) any {
			return event.(HandlerAdded).EventType
		}),
		types.TypeOf[HandlerRemoved](): SingleKey(func(event any) any {
			return event.(HandlerRemoved).EventType
		}),
	} {
		if err := reg.Set(t, fn); err != nil {
			return err
		}
	}
	return nil
}
