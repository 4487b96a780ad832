package types_test

import (
	"reflect"
	"testing"

	"github.com/aatle/pyriak/assert"
	"github.com/aatle/pyriak/types"
)

type Animal struct{}
type Mammal struct{}
type Dog struct{}
type Cat struct{}
type Robot struct{}
type RobotDog struct{}

var (
	animalType   = types.TypeOf[Animal]()
	mammalType   = types.TypeOf[Mammal]()
	dogType      = types.TypeOf[Dog]()
	catType      = types.TypeOf[Cat]()
	robotType    = types.TypeOf[Robot]()
	robotDogType = types.TypeOf[RobotDog]()
)

func newHierarchyForTest(t *testing.T) *types.Hierarchy {
	h := types.NewHierarchy()
	assert.NilError(t, h.Declare(mammalType, animalType))
	assert.NilError(t, h.Declare(dogType, mammalType))
	assert.NilError(t, h.Declare(catType, mammalType))
	return h
}

func TestAncestorsNearestFirst(t *testing.T) {
	h := newHierarchyForTest(t)
	assert.IsEqual(t,
		h.Ancestors(dogType),
		[]reflect.Type{dogType, mammalType, animalType},
	)
}

func TestAncestorsOfUndeclaredTypeIsItself(t *testing.T) {
	h := newHierarchyForTest(t)
	assert.IsEqual(t, h.Ancestors(robotType), []reflect.Type{robotType})
}

func TestAncestorsDedupDiamond(t *testing.T) {
	h := newHierarchyForTest(t)
	assert.NilError(t, h.Declare(robotType, animalType))
	assert.NilError(t, h.Declare(robotDogType, dogType, robotType))
	assert.IsEqual(t,
		h.Ancestors(robotDogType),
		[]reflect.Type{robotDogType, dogType, mammalType, animalType, robotType},
	)
}

func TestSubclassesSelfFirstDeclarationOrder(t *testing.T) {
	h := newHierarchyForTest(t)
	assert.IsEqual(t,
		h.Subclasses(mammalType),
		[]reflect.Type{mammalType, dogType, catType},
	)
}

func TestSubclassesTransitive(t *testing.T) {
	h := newHierarchyForTest(t)
	got := h.Subclasses(animalType)
	assert.Equal(t, got[0], animalType)
	assert.Len(t, got, 4)
	assert.Contains(t, got, dogType)
	assert.Contains(t, got, catType)
}

func TestIsSubtype(t *testing.T) {
	h := newHierarchyForTest(t)
	assert.True(t, h.IsSubtype(dogType, animalType))
	assert.True(t, h.IsSubtype(dogType, dogType))
	assert.False(t, h.IsSubtype(animalType, dogType))
	assert.False(t, h.IsSubtype(robotType, animalType))
}

func TestDeclareTwiceFails(t *testing.T) {
	h := newHierarchyForTest(t)
	err := h.Declare(dogType, animalType)
	assert.ErrorIs(t, err, types.ErrTypeAlreadyDeclared)
}

func TestDeclareSelfSupertypeFails(t *testing.T) {
	h := types.NewHierarchy()
	assert.IsError(t, h.Declare(dogType, dogType))
}

func TestMemosInvalidatedByDeclare(t *testing.T) {
	h := newHierarchyForTest(t)
	assert.Len(t, h.Subclasses(animalType), 4)
	assert.NilError(t, h.Declare(robotDogType, dogType))
	assert.Len(t, h.Subclasses(animalType), 5)
	assert.IsEqual(t,
		h.Ancestors(robotDogType),
		[]reflect.Type{robotDogType, dogType, mammalType, animalType},
	)
}

func TestEntityIDUniqueAndPrintable(t *testing.T) {
	a, b := types.NewEntityID(), types.NewEntityID()
	assert.Assert(t, a != b)
	assert.False(t, a.IsNil())
	assert.Assert(t, len(a.String()) > 0)
}
