package store

import (
	"reflect"

	"github.com/rotisserie/eris"

	"github.com/aatle/pyriak/entity"
	"github.com/aatle/pyriak/types"
)

var ErrNoQueryTypes = eris.New("query requires at least one component type")

// Merge combines the per-type id sets of a query into the final id set.
// Sets arrive in the query's positional type order.
type Merge func(sets ...map[types.EntityID]struct{}) map[types.EntityID]struct{}

// Intersection keeps the ids present in every set. It is the default merge.
func Intersection(sets ...map[types.EntityID]struct{}) map[types.EntityID]struct{} {
	out := map[types.EntityID]struct{}{}
	if len(sets) == 0 {
		return out
	}
	smallest := sets[0]
	for _, set := range sets[1:] {
		if len(set) < len(smallest) {
			smallest = set
		}
	}
next:
	for id := range smallest {
		for _, set := range sets {
			if _, ok := set[id]; !ok {
				continue next
			}
		}
		out[id] = struct{}{}
	}
	return out
}

// Union keeps the ids present in any set.
func Union(sets ...map[types.EntityID]struct{}) map[types.EntityID]struct{} {
	out := map[types.EntityID]struct{}{}
	for _, set := range sets {
		for id := range set {
			out[id] = struct{}{}
		}
	}
	return out
}

// SymmetricDifference keeps the ids present in an odd number of sets.
func SymmetricDifference(sets ...map[types.EntityID]struct{}) map[types.EntityID]struct{} {
	counts := map[types.EntityID]int{}
	for _, set := range sets {
		for id := range set {
			counts[id]++
		}
	}
	out := map[types.EntityID]struct{}{}
	for id, n := range counts {
		if n%2 == 1 {
			out[id] = struct{}{}
		}
	}
	return out
}

// QueryResult is a snapshot of the entities matching a query at the moment
// it ran. Later store mutations do not change it, though the entities it
// holds are live objects.
type QueryResult struct {
	store    *EntityStore
	ids      []types.EntityID
	queried  []reflect.Type
	merge    Merge
	entities []*entity.Entity
}

// Query matches entities holding components of all the given types, walking
// the hierarchy-expanded index. It is QueryMerge with Intersection.
func (s *EntityStore) Query(componentTypes ...reflect.Type) (*QueryResult, error) {
	return s.QueryMerge(Intersection, componentTypes...)
}

// QueryMerge matches entities whose per-type index sets survive merge.
// Zero component types is an invalid query.
func (s *EntityStore) QueryMerge(
	merge Merge, componentTypes ...reflect.Type,
) (*QueryResult, error) {
	if len(componentTypes) == 0 {
		return nil, ErrNoQueryTypes
	}
	sets := make([]map[types.EntityID]struct{}, len(componentTypes))
	for i, t := range componentTypes {
		sets[i] = s.index[t]
	}
	matched := merge(sets...)

	res := &QueryResult{
		store:   s,
		queried: append([]reflect.Type{}, componentTypes...),
		merge:   merge,
	}
	for _, id := range s.order {
		if _, ok := matched[id]; ok {
			res.ids = append(res.ids, id)
			res.entities = append(res.entities, s.entities[id])
		}
	}
	s.logger.Debug().
		Int("types", len(componentTypes)).
		Int("matched", len(res.ids)).
		Msg("query")
	return res, nil
}

// IDs returns the matched entity ids in store insertion order.
func (r *QueryResult) IDs() []types.EntityID {
	return append([]types.EntityID{}, r.ids...)
}

// Entities returns the matched entities in store insertion order.
func (r *QueryResult) Entities() []*entity.Entity {
	return append([]*entity.Entity{}, r.entities...)
}

// Types returns the component types the query was built from, in query
// order.
func (r *QueryResult) Types() []reflect.Type {
	return append([]reflect.Type{}, r.queried...)
}

// Merge returns the merge function the query ran with, so a result can be
// rebuilt or refined with the same semantics.
func (r *QueryResult) Merge() Merge {
	return r.merge
}

func (r *QueryResult) Len() int {
	return len(r.ids)
}

func (r *QueryResult) Contains(id types.EntityID) bool {
	for _, have := range r.ids {
		if have == id {
			return true
		}
	}
	return false
}

// Each calls fn for every matched entity in order, stopping early when fn
// returns false.
func (r *QueryResult) Each(fn func(e *entity.Entity) bool) {
	for _, e := range r.entities {
		if !fn(e) {
			return
		}
	}
}

// Components returns, for each matched entity holding one, its component
// assignable to t, in result order. Entities without one are skipped, which
// matters for non-intersection merges.
func (r *QueryResult) Components(t reflect.Type) []any {
	var comps []any
	for _, e := range r.entities {
		for _, component := range e.Components() {
			if r.store.hierarchy.IsSubtype(reflect.TypeOf(component), t) {
				comps = append(comps, component)
				break
			}
		}
	}
	return comps
}
