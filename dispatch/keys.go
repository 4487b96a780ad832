package dispatch

import (
	"reflect"

	"github.com/rotisserie/eris"

	"github.com/aatle/pyriak/types"
)

var ErrKeyFunctionExists = eris.New("key function already set for type")

// KeyFunc extracts the routing keys from an event. Returning no keys routes
// the event to the unkeyed handlers.
type KeyFunc func(event any) []any

// SingleKey adapts the common one-key-per-event extractor into a KeyFunc.
func SingleKey(fn func(event any) any) KeyFunc {
	return func(event any) []any {
		return []any{fn(event)}
	}
}

// KeyRegistry maps event types to their key functions. Entries are
// insert-once: a key function can never be replaced or removed, so every
// keyed sub-list a dispatcher builds stays meaningful for the life of the
// registry.
//
// Lookups walk the type's ancestor chain, nearest first, so a key function
// set on a base event type covers all of its declared subtypes.
type KeyRegistry struct {
	hierarchy *types.Hierarchy
	funcs     map[reflect.Type]KeyFunc
}

func NewKeyRegistry(h *types.Hierarchy) *KeyRegistry {
	return &KeyRegistry{
		hierarchy: h,
		funcs:     map[reflect.Type]KeyFunc{},
	}
}

// Set installs the key function for exactly t. It fails with
// ErrKeyFunctionExists if t already has one directly set.
func (r *KeyRegistry) Set(t reflect.Type, fn KeyFunc) error {
	if _, ok := r.funcs[t]; ok {
		return eris.Wrapf(ErrKeyFunctionExists, "type %v", t)
	}
	r.funcs[t] = fn
	return nil
}

// Exists reports whether t or any of its ancestors has a key function.
func (r *KeyRegistry) Exists(t reflect.Type) bool {
	_, ok := r.Resolve(t)
	return ok
}

// Resolve returns the key function governing t: its own if directly set,
// otherwise the nearest ancestor's.
func (r *KeyRegistry) Resolve(t reflect.Type) (KeyFunc, bool) {
	for _, a := range r.hierarchy.Ancestors(t) {
		if fn, ok := r.funcs[a]; ok {
			return fn, true
		}
	}
	return nil, false
}
