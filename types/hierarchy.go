package types

import (
	"reflect"

	"github.com/rotisserie/eris"
)

var ErrTypeAlreadyDeclared = eris.New("type hierarchy relation already declared")

// Hierarchy is an explicit registry of declared supertype relations between
// runtime types. Go has no type inheritance the engines could reflect over,
// so the relations a program cares about are declared once, up front, and
// both the entity store and the dispatcher resolve polymorphic lookups
// through the same Hierarchy instance.
//
// A type that was never declared is its own, sole ancestor and subclass.
// Hierarchy is not safe for concurrent use, matching the rest of the core.
type Hierarchy struct {
	parents  map[reflect.Type][]reflect.Type
	children map[reflect.Type][]reflect.Type

	// Memoized walks. Rebuilt lazily after every Declare.
	ancestors  map[reflect.Type][]reflect.Type
	subclasses map[reflect.Type][]reflect.Type
}

func NewHierarchy() *Hierarchy {
	return &Hierarchy{
		parents:    map[reflect.Type][]reflect.Type{},
		children:   map[reflect.Type][]reflect.Type{},
		ancestors:  map[reflect.Type][]reflect.Type{},
		subclasses: map[reflect.Type][]reflect.Type{},
	}
}

// Declare records the direct supertypes of child, in order of precedence.
// A type's supertypes can be declared only once; re-declaring returns
// ErrTypeAlreadyDeclared and leaves the hierarchy unchanged.
func (h *Hierarchy) Declare(child reflect.Type, supertypes ...reflect.Type) error {
	if _, ok := h.parents[child]; ok {
		return eris.Wrapf(ErrTypeAlreadyDeclared, "type %v", child)
	}
	for _, parent := range supertypes {
		if parent == child {
			return eris.Errorf("type %v cannot be its own supertype", child)
		}
	}
	h.parents[child] = append([]reflect.Type(nil), supertypes...)
	for _, parent := range supertypes {
		h.children[parent] = append(h.children[parent], child)
	}
	// Declared relations change both walks anywhere above or below child,
	// so the memos are dropped wholesale rather than tracked per type.
	clear(h.ancestors)
	clear(h.subclasses)
	return nil
}

// Ancestors returns t followed by its declared supertypes, transitively,
// nearest first. The result is memoized; callers must not mutate it.
func (h *Hierarchy) Ancestors(t reflect.Type) []reflect.Type {
	if anc, ok := h.ancestors[t]; ok {
		return anc
	}
	seen := map[reflect.Type]bool{t: true}
	anc := []reflect.Type{t}
	var walk func(reflect.Type)
	walk = func(cur reflect.Type) {
		for _, parent := range h.parents[cur] {
			if seen[parent] {
				continue
			}
			seen[parent] = true
			anc = append(anc, parent)
			walk(parent)
		}
	}
	walk(t)
	h.ancestors[t] = anc
	return anc
}

// Subclasses returns t followed by every type transitively declared below
// it. t is always first; the rest follow declaration order, deterministic
// within one process run. The result is memoized; callers must not mutate
// it.
func (h *Hierarchy) Subclasses(t reflect.Type) []reflect.Type {
	if subs, ok := h.subclasses[t]; ok {
		return subs
	}
	seen := map[reflect.Type]bool{t: true}
	subs := []reflect.Type{t}
	stack := append([]reflect.Type(nil), h.children[t]...)
	for len(stack) > 0 {
		sub := stack[0]
		stack = stack[1:]
		if seen[sub] {
			continue
		}
		seen[sub] = true
		subs = append(subs, sub)
		stack = append(stack, h.children[sub]...)
	}
	h.subclasses[t] = subs
	return subs
}

// IsSubtype reports whether sub is t or has t among its ancestors.
func (h *Hierarchy) IsSubtype(sub, t reflect.Type) bool {
	for _, anc := range h.Ancestors(sub) {
		if anc == t {
			return true
		}
	}
	return false
}
