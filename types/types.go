package types

import (
	"reflect"

	"github.com/google/uuid"
)

// EntityID is an opaque, globally unique 128-bit entity identifier. IDs are
// generated once at entity creation and never reused; they are only ever
// compared for equality or used as map keys.
type EntityID uuid.UUID

// NewEntityID returns a fresh random EntityID.
func NewEntityID() EntityID {
	return EntityID(uuid.New())
}

func (id EntityID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether the id is the zero value.
func (id EntityID) IsNil() bool {
	return id == EntityID(uuid.Nil)
}

// TypeOf returns the reflect.Type for T. It is a convenience for declaring
// hierarchy relations and building queries without a value at hand.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
