package store_test

import (
	"testing"

	"github.com/aatle/pyriak/assert"
	"github.com/aatle/pyriak/entity"
	"github.com/aatle/pyriak/events"
	"github.com/aatle/pyriak/store"
	"github.com/aatle/pyriak/types"
)

type Position struct {
	X, Y float64
}

type Velocity struct {
	DX, DY float64
}

type Sprite struct {
	Name string
}

// AnimatedSprite is declared a subtype of Sprite in the test hierarchy.
type AnimatedSprite struct {
	Name   string
	Frames int
}

var (
	positionType = types.TypeOf[Position]()
	velocityType = types.TypeOf[Velocity]()
	spriteType   = types.TypeOf[Sprite]()
	animatedType = types.TypeOf[AnimatedSprite]()
)

type recordingQueue struct {
	events []any
}

func (q *recordingQueue) Append(events ...any) {
	q.events = append(q.events, events...)
}

func newStoreForTest(t *testing.T) (*store.EntityStore, *recordingQueue) {
	h := types.NewHierarchy()
	assert.NilError(t, h.Declare(animatedType, spriteType))
	queue := &recordingQueue{}
	return store.New(h, store.WithSink(queue)), queue
}

func TestAddAndGet(t *testing.T) {
	s, _ := newStoreForTest(t)
	e, err := s.Create(Position{1, 2}, Velocity{3, 4})
	assert.NilError(t, err)
	assert.Equal(t, s.Len(), 1)
	assert.True(t, s.Contains(e))

	got, ok := s.Get(e.ID())
	assert.True(t, ok)
	assert.Same(t, got, e)
}

func TestAddTwiceFails(t *testing.T) {
	s, _ := newStoreForTest(t)
	e, err := s.Create(Position{})
	assert.NilError(t, err)
	assert.ErrorIs(t, s.Add(e), store.ErrEntityAlreadyPresent)
}

func TestAddToSecondStoreFails(t *testing.T) {
	s1, _ := newStoreForTest(t)
	s2, _ := newStoreForTest(t)
	e, err := s1.Create(Position{})
	assert.NilError(t, err)
	assert.ErrorIs(t, s2.Add(e), entity.ErrAlreadyOwned)
}

func TestRemoveUnknownFails(t *testing.T) {
	s, _ := newStoreForTest(t)
	e, err := entity.New(Position{})
	assert.NilError(t, err)
	assert.ErrorIs(t, s.Remove(e), store.ErrEntityNotFound)
}

func TestRemoveDetachesEntity(t *testing.T) {
	s, _ := newStoreForTest(t)
	e, err := s.Create(Position{1, 2})
	assert.NilError(t, err)
	assert.NilError(t, s.Remove(e))
	assert.Equal(t, s.Len(), 0)
	assert.Nil(t, e.Owner())
	// the removed entity keeps its components and can be re-added
	assert.NilError(t, s.Add(e))
	assert.Len(t, s.IDs(positionType), 1)
}

func TestBatchRemoveKeepsEarlierEffects(t *testing.T) {
	s, _ := newStoreForTest(t)
	a, err := s.Create(Position{})
	assert.NilError(t, err)
	outsider, err := entity.New(Velocity{})
	assert.NilError(t, err)
	b, err := s.Create(Sprite{})
	assert.NilError(t, err)

	err = s.Remove(a, outsider, b)
	assert.ErrorIs(t, err, store.ErrEntityNotFound)
	assert.False(t, s.Contains(a))
	assert.True(t, s.Contains(b))
}

func TestIndexExpandsAncestors(t *testing.T) {
	s, _ := newStoreForTest(t)
	e, err := s.Create(AnimatedSprite{Name: "slime", Frames: 4})
	assert.NilError(t, err)

	// the animated sprite is reachable through its supertype
	assert.DeepEqual(t, s.IDs(spriteType), []types.EntityID{e.ID()})
	assert.DeepEqual(t, s.IDs(animatedType), []types.EntityID{e.ID()})
	assert.Len(t, s.IDs(positionType), 0)
}

func TestIndexPrunedOnComponentRemoval(t *testing.T) {
	s, _ := newStoreForTest(t)
	e, err := s.Create(AnimatedSprite{Name: "slime"}, Position{})
	assert.NilError(t, err)

	_, err = e.RemoveType(animatedType)
	assert.NilError(t, err)
	assert.Len(t, s.IDs(spriteType), 0)
	assert.Len(t, s.IDs(animatedType), 0)
	assert.Len(t, s.IDs(positionType), 1)
	assert.ElementsMatch(t, s.IndexedTypes(), []any{positionType})
}

func TestIndexKeepsTypeStillContributed(t *testing.T) {
	s, _ := newStoreForTest(t)
	e, err := s.Create(AnimatedSprite{Name: "a"}, Sprite{Name: "b"})
	assert.NilError(t, err)

	// removing the subtype component must not unindex Sprite, which the
	// plain sprite component still contributes
	_, err = e.RemoveType(animatedType)
	assert.NilError(t, err)
	assert.DeepEqual(t, s.IDs(spriteType), []types.EntityID{e.ID()})
	assert.Len(t, s.IDs(animatedType), 0)
}

func TestIndexFollowsLiveMutation(t *testing.T) {
	s, _ := newStoreForTest(t)
	e, err := s.Create(Position{})
	assert.NilError(t, err)

	assert.NilError(t, e.Add(Velocity{}))
	assert.DeepEqual(t, s.IDs(velocityType), []types.EntityID{e.ID()})

	assert.NilError(t, e.Remove(Velocity{}))
	assert.Len(t, s.IDs(velocityType), 0)
}

func TestAddEventOrdering(t *testing.T) {
	s, queue := newStoreForTest(t)
	e, err := entity.New(Position{1, 1}, Velocity{2, 2})
	assert.NilError(t, err)
	assert.NilError(t, s.Add(e))

	assert.Len(t, queue.events, 3)
	added, ok := queue.events[0].(events.EntityAdded)
	assert.True(t, ok)
	assert.Same(t, added.Entity, e)
	compA, ok := queue.events[1].(events.ComponentAdded)
	assert.True(t, ok)
	assert.Equal(t, compA.Component, Position{1, 1})
	compB, ok := queue.events[2].(events.ComponentAdded)
	assert.True(t, ok)
	assert.Equal(t, compB.Component, Velocity{2, 2})
}

func TestRemoveEventOrdering(t *testing.T) {
	s, queue := newStoreForTest(t)
	e, err := s.Create(Position{1, 1})
	assert.NilError(t, err)
	queue.events = nil

	assert.NilError(t, s.Remove(e))
	assert.Len(t, queue.events, 2)
	removed, ok := queue.events[0].(events.ComponentRemoved)
	assert.True(t, ok)
	assert.Equal(t, removed.Component, Position{1, 1})
	_, ok = queue.events[1].(events.EntityRemoved)
	assert.True(t, ok)
}

func TestIterateInsertionOrder(t *testing.T) {
	s, _ := newStoreForTest(t)
	a, err := s.Create(Position{})
	assert.NilError(t, err)
	b, err := s.Create(Velocity{})
	assert.NilError(t, err)

	assert.IsEqual(t, s.Iterate(), []*entity.Entity{a, b})

	assert.NilError(t, s.Remove(a))
	assert.NilError(t, s.Add(a))
	assert.IsEqual(t, s.Iterate(), []*entity.Entity{b, a})
}

func TestPop(t *testing.T) {
	s, _ := newStoreForTest(t)
	e, err := s.Create(Position{})
	assert.NilError(t, err)

	got, err := s.Pop(e.ID())
	assert.NilError(t, err)
	assert.Same(t, got, e)

	_, err = s.Pop(e.ID())
	assert.ErrorIs(t, err, store.ErrEntityNotFound)
}

func TestClear(t *testing.T) {
	s, _ := newStoreForTest(t)
	_, err := s.Create(Position{})
	assert.NilError(t, err)
	_, err = s.Create(Velocity{})
	assert.NilError(t, err)

	assert.NilError(t, s.Clear())
	assert.Equal(t, s.Len(), 0)
	assert.Len(t, s.IndexedTypes(), 0)
}

func TestComponentsAcrossStore(t *testing.T) {
	s, _ := newStoreForTest(t)
	_, err := s.Create(Sprite{Name: "a"})
	assert.NilError(t, err)
	_, err = s.Create(AnimatedSprite{Name: "b"})
	assert.NilError(t, err)

	comps := s.Components(spriteType)
	assert.DeepEqual(t, comps, []any{Sprite{Name: "a"}, AnimatedSprite{Name: "b"}})
}

func TestDebugState(t *testing.T) {
	s, _ := newStoreForTest(t)
	_, err := s.Create(Position{1, 2})
	assert.NilError(t, err)

	bz, err := s.DebugState()
	assert.NilError(t, err)
	assert.Contains(t, string(bz), "store_test.Position")
}
