package store

import (
	"sort"

	"github.com/aatle/pyriak/codec"
)

type debugEntity struct {
	ID         string   `json:"id"`
	Components []string `json:"components"`
}

type debugState struct {
	Entities     []debugEntity `json:"entities"`
	IndexedTypes []string      `json:"indexed_types"`
}

// DebugState renders the store's current contents as indented JSON: every
// entity with its component type names, plus the secondary index's type
// keys. Component values are not serialized, only their types, so the dump
// never fails on an unserializable component.
func (s *EntityStore) DebugState() ([]byte, error) {
	state := debugState{}
	for _, e := range s.Iterate() {
		de := debugEntity{ID: e.ID().String()}
		for _, t := range e.Types() {
			de.Components = append(de.Components, t.String())
		}
		state.Entities = append(state.Entities, de)
	}
	for _, t := range s.IndexedTypes() {
		state.IndexedTypes = append(state.IndexedTypes, t.String())
	}
	sort.Strings(state.IndexedTypes)
	return codec.EncodeIndent(state)
}
