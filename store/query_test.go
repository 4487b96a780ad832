package store_test

import (
	"reflect"
	"testing"

	"github.com/aatle/pyriak/assert"
	"github.com/aatle/pyriak/entity"
	"github.com/aatle/pyriak/store"
	"github.com/aatle/pyriak/types"
)

func newPopulatedStoreForTest(t *testing.T) (*store.EntityStore, []*entity.Entity) {
	s, _ := newStoreForTest(t)
	mover, err := s.Create(Position{}, Velocity{})
	assert.NilError(t, err)
	still, err := s.Create(Position{})
	assert.NilError(t, err)
	drifter, err := s.Create(Velocity{})
	assert.NilError(t, err)
	animated, err := s.Create(AnimatedSprite{Name: "slime"}, Position{})
	assert.NilError(t, err)
	return s, []*entity.Entity{mover, still, drifter, animated}
}

func TestQueryDefaultsToIntersection(t *testing.T) {
	s, ents := newPopulatedStoreForTest(t)
	res, err := s.Query(positionType, velocityType)
	assert.NilError(t, err)
	assert.Equal(t, res.Len(), 1)
	assert.IsEqual(t, res.Entities(), []*entity.Entity{ents[0]})
	assert.True(t, res.Contains(ents[0].ID()))
	assert.False(t, res.Contains(ents[1].ID()))
}

func TestQueryZeroTypesFails(t *testing.T) {
	s, _ := newPopulatedStoreForTest(t)
	_, err := s.Query()
	assert.ErrorIs(t, err, store.ErrNoQueryTypes)
}

func TestQueryUnion(t *testing.T) {
	s, ents := newPopulatedStoreForTest(t)
	res, err := s.QueryMerge(store.Union, velocityType, spriteType)
	assert.NilError(t, err)
	assert.IsEqual(t, res.Entities(), []*entity.Entity{ents[0], ents[2], ents[3]})
}

func TestQuerySymmetricDifference(t *testing.T) {
	s, ents := newPopulatedStoreForTest(t)
	res, err := s.QueryMerge(store.SymmetricDifference, positionType, velocityType)
	assert.NilError(t, err)
	// the mover holds both and drops out
	assert.IsEqual(t, res.Entities(), []*entity.Entity{ents[1], ents[2], ents[3]})
}

func TestQueryWalksHierarchy(t *testing.T) {
	s, ents := newPopulatedStoreForTest(t)
	res, err := s.Query(spriteType)
	assert.NilError(t, err)
	assert.IsEqual(t, res.Entities(), []*entity.Entity{ents[3]})
}

func TestQueryResultIsSnapshot(t *testing.T) {
	s, ents := newPopulatedStoreForTest(t)
	res, err := s.Query(positionType)
	assert.NilError(t, err)
	before := res.Len()

	assert.NilError(t, s.Remove(ents[0]))
	assert.Equal(t, res.Len(), before)
	assert.True(t, res.Contains(ents[0].ID()))
}

func TestQueryResultComponents(t *testing.T) {
	s, _ := newPopulatedStoreForTest(t)
	res, err := s.QueryMerge(store.Union, spriteType, velocityType)
	assert.NilError(t, err)
	// entities without a sprite are skipped
	assert.DeepEqual(t, res.Components(spriteType), []any{AnimatedSprite{Name: "slime"}})
}

func TestQueryResultEachStopsEarly(t *testing.T) {
	s, _ := newPopulatedStoreForTest(t)
	res, err := s.Query(positionType)
	assert.NilError(t, err)

	visited := 0
	res.Each(func(e *entity.Entity) bool {
		visited++
		return visited < 2
	})
	assert.Equal(t, visited, 2)
}

func TestQueryResultTypes(t *testing.T) {
	s, _ := newPopulatedStoreForTest(t)
	res, err := s.Query(positionType, velocityType)
	assert.NilError(t, err)
	assert.IsEqual(t, res.Types(), []reflect.Type{positionType, velocityType})
}

func TestQueryResultCarriesMerge(t *testing.T) {
	s, ents := newPopulatedStoreForTest(t)
	res, err := s.QueryMerge(store.Union, velocityType, spriteType)
	assert.NilError(t, err)

	// rerunning through the carried merge reproduces the result
	rerun, err := s.QueryMerge(res.Merge(), res.Types()...)
	assert.NilError(t, err)
	assert.IsEqual(t, rerun.Entities(), res.Entities())

	byDefault, err := s.Query(positionType)
	assert.NilError(t, err)
	a := map[types.EntityID]struct{}{ents[0].ID(): {}, ents[1].ID(): {}}
	b := map[types.EntityID]struct{}{ents[1].ID(): {}}
	assert.Len(t, byDefault.Merge()(a, b), 1)
}
