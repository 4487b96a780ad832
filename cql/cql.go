// Package cql implements the component query language: a small boolean
// expression syntax over component type names, compiled into entity filters
// that evaluate against a store.
//
//	Position & Velocity & !(Frozen | EXACT(Position, Velocity))
//
// CONTAINS(A, B) is the explicit form of the bare `A & B` conjunction, ALL()
// matches every entity, and EXACT(...) matches entities whose component set
// is exactly the named types. Component names are resolved to types by a
// caller-supplied Resolver.
package cql

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/rotisserie/eris"

	"github.com/aatle/pyriak/entity"
	"github.com/aatle/pyriak/store"
)

var ErrUnknownComponent = eris.New("unknown component name")

// Resolver maps a component name in a query to its component type.
type Resolver func(name string) (reflect.Type, bool)

// Filter is a compiled query predicate. has reports whether the entity
// under test holds a component assignable to the given type; exact returns
// the entity's exact component types.
type Filter interface {
	Matches(has func(reflect.Type) bool, exact func() []reflect.Type) bool
}

type allFilter struct{}

func (allFilter) Matches(func(reflect.Type) bool, func() []reflect.Type) bool {
	return true
}

type containsFilter struct{ components []reflect.Type }

func (f containsFilter) Matches(has func(reflect.Type) bool, _ func() []reflect.Type) bool {
	for _, t := range f.components {
		if !has(t) {
			return false
		}
	}
	return true
}

type exactFilter struct{ components []reflect.Type }

func (f exactFilter) Matches(_ func(reflect.Type) bool, exact func() []reflect.Type) bool {
	held := exact()
	if len(held) != len(f.components) {
		return false
	}
	for _, t := range f.components {
		found := false
		for _, ht := range held {
			if ht == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

type notFilter struct{ inner Filter }

func (f notFilter) Matches(has func(reflect.Type) bool, exact func() []reflect.Type) bool {
	return !f.inner.Matches(has, exact)
}

type andFilter struct{ left, right Filter }

func (f andFilter) Matches(has func(reflect.Type) bool, exact func() []reflect.Type) bool {
	return f.left.Matches(has, exact) && f.right.Matches(has, exact)
}

type orFilter struct{ left, right Filter }

func (f orFilter) Matches(has func(reflect.Type) bool, exact func() []reflect.Type) bool {
	return f.left.Matches(has, exact) || f.right.Matches(has, exact)
}

// All matches every entity.
func All() Filter { return allFilter{} }

// Contains matches entities holding components assignable to all the given
// types.
func Contains(components ...reflect.Type) Filter {
	return containsFilter{components: components}
}

// Exact matches entities whose exact component type set equals the given
// types.
func Exact(components ...reflect.Type) Filter {
	return exactFilter{components: components}
}

func Not(f Filter) Filter { return notFilter{inner: f} }

func And(left, right Filter) Filter { return andFilter{left: left, right: right} }

func Or(left, right Filter) Filter { return orFilter{left: left, right: right} }

type cqlOperator int

const (
	opAnd cqlOperator = iota
	opOr
)

var operatorMap = map[string]cqlOperator{"&": opAnd, "|": opOr}

// Capture tells the parser how to turn an operator token into a cqlOperator.
func (o *cqlOperator) Capture(s []string) error {
	if len(s) == 0 {
		return eris.New("invalid operator")
	}
	operator, ok := operatorMap[s[0]]
	if !ok {
		return eris.New("invalid operator")
	}
	*o = operator
	return nil
}

type cqlComponent struct {
	Name string `parser:"@Ident"`
}

type cqlAll struct{}

func (a *cqlAll) Capture(values []string) error {
	if values[0] == "ALL" && values[1] == "(" && values[2] == ")" {
		*a = cqlAll{}
	}
	return nil
}

type cqlNot struct {
	SubExpression *cqlValue `parser:"'!' @@"`
}

type cqlExact struct {
	Components []*cqlComponent `parser:"'EXACT' '(' (@@ ',')* @@ ')'"`
}

type cqlContains struct {
	Components []*cqlComponent `parser:"'CONTAINS' '(' (@@ ',')* @@ ')'"`
}

type cqlValue struct {
	All           *cqlAll       `parser:"@('ALL' '(' ')')"`
	Exact         *cqlExact     `parser:"| @@"`
	Contains      *cqlContains  `parser:"| @@"`
	Not           *cqlNot       `parser:"| @@"`
	Component     *cqlComponent `parser:"| @@"`
	Subexpression *cqlTerm      `parser:"| '(' @@ ')'"`
}

type cqlFactor struct {
	Base *cqlValue `parser:"@@"`
}

type cqlOpFactor struct {
	Operator cqlOperator `parser:"@('&' | '|')"`
	Factor   *cqlFactor  `parser:"@@"`
}

type cqlTerm struct {
	Left  *cqlFactor     `parser:"@@"`
	Right []*cqlOpFactor `parser:"@@*"`
}

// Display

func (o cqlOperator) String() string {
	switch o {
	case opAnd:
		return "&"
	case opOr:
		return "|"
	}
	panic("unsupported operator")
}

func joinComponents(components []*cqlComponent) string {
	names := make([]string, 0, len(components))
	for _, comp := range components {
		names = append(names, comp.Name)
	}
	return strings.Join(names, ", ")
}

func (a *cqlAll) String() string { return "ALL()" }

func (e *cqlExact) String() string { return "EXACT(" + joinComponents(e.Components) + ")" }

func (e *cqlContains) String() string { return "CONTAINS(" + joinComponents(e.Components) + ")" }

func (v *cqlValue) String() string {
	switch {
	case v.All != nil:
		return v.All.String()
	case v.Exact != nil:
		return v.Exact.String()
	case v.Contains != nil:
		return v.Contains.String()
	case v.Not != nil:
		return "!(" + v.Not.SubExpression.String() + ")"
	case v.Component != nil:
		return v.Component.Name
	case v.Subexpression != nil:
		return "(" + v.Subexpression.String() + ")"
	default:
		panic("cql ast node with no alternative set")
	}
}

func (f *cqlFactor) String() string { return f.Base.String() }

func (o *cqlOpFactor) String() string {
	return fmt.Sprintf("%s %s", o.Operator, o.Factor)
}

func (t *cqlTerm) String() string {
	out := []string{t.Left.String()}
	for _, r := range t.Right {
		out = append(out, r.String())
	}
	return strings.Join(out, " ")
}

var parser = participle.MustBuild[cqlTerm]()

func resolveComponents(components []*cqlComponent, resolve Resolver) ([]reflect.Type, error) {
	resolved := make([]reflect.Type, 0, len(components))
	for _, comp := range components {
		t, ok := resolve(comp.Name)
		if !ok {
			return nil, eris.Wrapf(ErrUnknownComponent, "%q", comp.Name)
		}
		resolved = append(resolved, t)
	}
	return resolved, nil
}

func valueToFilter(value *cqlValue, resolve Resolver) (Filter, error) {
	switch {
	case value.Not != nil:
		inner, err := valueToFilter(value.Not.SubExpression, resolve)
		if err != nil {
			return nil, err
		}
		return Not(inner), nil
	case value.Exact != nil:
		if len(value.Exact.Components) == 0 {
			return nil, eris.New("EXACT cannot have zero parameters")
		}
		components, err := resolveComponents(value.Exact.Components, resolve)
		if err != nil {
			return nil, err
		}
		return Exact(components...), nil
	case value.All != nil:
		return All(), nil
	case value.Contains != nil:
		if len(value.Contains.Components) == 0 {
			return nil, eris.New("CONTAINS cannot have zero parameters")
		}
		components, err := resolveComponents(value.Contains.Components, resolve)
		if err != nil {
			return nil, err
		}
		return Contains(components...), nil
	case value.Component != nil:
		components, err := resolveComponents([]*cqlComponent{value.Component}, resolve)
		if err != nil {
			return nil, err
		}
		return Contains(components...), nil
	case value.Subexpression != nil:
		return termToFilter(value.Subexpression, resolve)
	default:
		return nil, eris.New("unknown cql ast node")
	}
}

func termToFilter(term *cqlTerm, resolve Resolver) (Filter, error) {
	if term.Left == nil {
		return nil, eris.New("not enough values in expression")
	}
	acc, err := valueToFilter(term.Left.Base, resolve)
	if err != nil {
		return nil, err
	}
	for _, opFactor := range term.Right {
		next, err := valueToFilter(opFactor.Factor.Base, resolve)
		if err != nil {
			return nil, err
		}
		switch opFactor.Operator {
		case opAnd:
			acc = And(acc, next)
		case opOr:
			acc = Or(acc, next)
		default:
			return nil, eris.New("invalid operator")
		}
	}
	return acc, nil
}

// Parse compiles a query string into a Filter, resolving component names
// through resolve.
func Parse(cqlText string, resolve Resolver) (Filter, error) {
	term, err := parser.ParseString("", cqlText)
	if err != nil {
		return nil, eris.Wrap(err, "cql parse failed")
	}
	return termToFilter(term, resolve)
}

// Eval runs a compiled filter over every entity in s, in store insertion
// order. Contains matching is hierarchy-aware; Exact matching uses the
// entities' exact component types.
func Eval(s *store.EntityStore, f Filter) []*entity.Entity {
	h := s.Hierarchy()
	var matched []*entity.Entity
	for _, e := range s.Iterate() {
		has := func(t reflect.Type) bool {
			for _, ct := range e.Types() {
				if h.IsSubtype(ct, t) {
					return true
				}
			}
			return false
		}
		if f.Matches(has, e.Types) {
			matched = append(matched, e)
		}
	}
	return matched
}

// Query parses and evaluates cqlText against s in one call.
func Query(s *store.EntityStore, cqlText string, resolve Resolver) ([]*entity.Entity, error) {
	f, err := Parse(cqlText, resolve)
	if err != nil {
		return nil, err
	}
	return Eval(s, f), nil
}

// TypeResolver builds a Resolver from a fixed name to type mapping, the
// common case for applications that register their component types up
// front.
func TypeResolver(byName map[string]reflect.Type) Resolver {
	return func(name string) (reflect.Type, bool) {
		t, ok := byName[name]
		return t, ok
	}
}
