package entity_test

import (
	"reflect"
	"testing"

	"github.com/aatle/pyriak/assert"
	"github.com/aatle/pyriak/entity"
	"github.com/aatle/pyriak/types"
)

type Position struct {
	X, Y float64
}

type Velocity struct {
	DX, DY float64
}

type Health struct {
	HP int
}

type recordingOwner struct {
	attached []any
	detached []any
}

func (o *recordingOwner) ComponentAttached(_ *entity.Entity, component any) {
	o.attached = append(o.attached, component)
}

func (o *recordingOwner) ComponentDetached(_ *entity.Entity, component any) {
	o.detached = append(o.detached, component)
}

func TestNewKeepsInsertionOrder(t *testing.T) {
	e, err := entity.New(Position{1, 2}, Velocity{3, 4}, Health{5})
	assert.NilError(t, err)
	assert.Equal(t, e.Len(), 3)
	assert.IsEqual(t, e.Types(), []reflect.Type{
		types.TypeOf[Position](), types.TypeOf[Velocity](), types.TypeOf[Health](),
	})
	assert.DeepEqual(t, e.Components(), []any{
		Position{1, 2}, Velocity{3, 4}, Health{5},
	})
}

func TestAddDuplicateTypeFails(t *testing.T) {
	e, err := entity.New(Position{1, 2})
	assert.NilError(t, err)
	err = e.Add(Velocity{}, Position{9, 9}, Health{1})
	assert.ErrorIs(t, err, entity.ErrComponentAlreadyPresent)
	// the batch stops at the duplicate but keeps what came before it
	assert.True(t, e.Has(types.TypeOf[Velocity]()))
	assert.False(t, e.Has(types.TypeOf[Health]()))
	got, ok := entity.Get[Position](e)
	assert.True(t, ok)
	assert.Equal(t, got, Position{1, 2})
}

func TestSetReplacesAndSkipsEqual(t *testing.T) {
	e, err := entity.New(Position{1, 2})
	assert.NilError(t, err)
	owner := &recordingOwner{}
	assert.NilError(t, e.Attach(owner))

	e.Set(Position{1, 2})
	assert.Len(t, owner.attached, 0)
	assert.Len(t, owner.detached, 0)

	e.Set(Position{3, 4})
	assert.DeepEqual(t, owner.detached, []any{Position{1, 2}})
	assert.DeepEqual(t, owner.attached, []any{Position{3, 4}})

	e.Set(Velocity{5, 6})
	assert.Len(t, owner.attached, 2)
	assert.Equal(t, e.Len(), 2)
}

func TestRemoveMatchesValue(t *testing.T) {
	e, err := entity.New(Position{1, 2}, Velocity{3, 4})
	assert.NilError(t, err)

	err = e.Remove(Position{9, 9})
	assert.ErrorIs(t, err, entity.ErrComponentNotPresent)
	assert.True(t, e.Has(types.TypeOf[Position]()))

	assert.NilError(t, e.Remove(Position{1, 2}))
	assert.False(t, e.Has(types.TypeOf[Position]()))
	assert.Equal(t, e.Len(), 1)
}

func TestRemoveTypeReturnsComponent(t *testing.T) {
	e, err := entity.New(Position{1, 2})
	assert.NilError(t, err)

	got, err := e.RemoveType(types.TypeOf[Position]())
	assert.NilError(t, err)
	assert.Equal(t, got, Position{1, 2})

	_, err = e.RemoveType(types.TypeOf[Position]())
	assert.ErrorIs(t, err, entity.ErrComponentNotPresent)
}

func TestAttachRejectsSecondOwner(t *testing.T) {
	e, err := entity.New()
	assert.NilError(t, err)
	first, second := &recordingOwner{}, &recordingOwner{}
	assert.NilError(t, e.Attach(first))
	assert.ErrorIs(t, e.Attach(second), entity.ErrAlreadyOwned)
	e.Detach()
	assert.NilError(t, e.Attach(second))
}

func TestOwnerNotifiedOnMutation(t *testing.T) {
	e, err := entity.New(Position{1, 1})
	assert.NilError(t, err)
	owner := &recordingOwner{}
	assert.NilError(t, e.Attach(owner))

	assert.NilError(t, e.Add(Velocity{2, 2}))
	assert.NilError(t, e.Remove(Velocity{2, 2}))
	assert.DeepEqual(t, owner.attached, []any{Velocity{2, 2}})
	assert.DeepEqual(t, owner.detached, []any{Velocity{2, 2}})
}

func TestClearDetachesEverything(t *testing.T) {
	e, err := entity.New(Position{1, 1}, Velocity{2, 2})
	assert.NilError(t, err)
	owner := &recordingOwner{}
	assert.NilError(t, e.Attach(owner))

	e.Clear()
	assert.Equal(t, e.Len(), 0)
	assert.Len(t, owner.detached, 2)
}

func TestEqualComparesValues(t *testing.T) {
	a, err := entity.New(Position{1, 2}, Velocity{3, 4})
	assert.NilError(t, err)
	b, err := entity.New(Velocity{3, 4}, Position{1, 2})
	assert.NilError(t, err)
	c, err := entity.New(Position{1, 2})
	assert.NilError(t, err)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestGenericGet(t *testing.T) {
	e, err := entity.New(Position{7, 8})
	assert.NilError(t, err)

	pos, ok := entity.Get[Position](e)
	assert.True(t, ok)
	assert.Equal(t, pos, Position{7, 8})

	_, ok = entity.Get[Velocity](e)
	assert.False(t, ok)
}
