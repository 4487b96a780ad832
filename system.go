package pyriak

import (
	"reflect"

	"github.com/rotisserie/eris"

	"github.com/aatle/pyriak/dispatch"
)

// SystemBuilder collects bindings declared against a Space context into a
// registrable dispatch.System. It is the adapter between user callbacks,
// which want a typed event and the space, and the dispatcher's uniform
// callback shape.
//
// Errors during declaration are deferred to Build, so call chains stay
// fluent.
type SystemBuilder struct {
	name     string
	bindings []dispatch.Binding
	err      error
}

func NewSystem(name string) *SystemBuilder {
	return &SystemBuilder{name: name}
}

// Handle declares a binding on the builder from raw parts.
func (b *SystemBuilder) Handle(
	eventType reflect.Type, name string, callback dispatch.Callback,
	opts ...dispatch.BindingOption,
) *SystemBuilder {
	if b.err != nil {
		return b
	}
	binding, err := dispatch.NewBinding(eventType, name, callback, opts...)
	if err != nil {
		b.err = err
		return b
	}
	b.bindings = append(b.bindings, binding)
	return b
}

// Build returns the system, or the first error any declaration produced.
func (b *SystemBuilder) Build() (*dispatch.System, error) {
	if b.err != nil {
		return nil, b.err
	}
	return dispatch.NewSystem(b.name, b.bindings...), nil
}

// Handle declares a typed binding on b: the callback receives the space and
// the event already asserted to E.
func Handle[E any](
	b *SystemBuilder, name string, fn func(space *Space, event E) bool,
	opts ...dispatch.BindingOption,
) *SystemBuilder {
	if b.err != nil {
		return b
	}
	if fn == nil {
		b.err = eris.Wrapf(dispatch.ErrNilCallback, "binding %q", name)
		return b
	}
	binding, err := dispatch.Bind[E](name, func(ctx any, event E) bool {
		return fn(ctx.(*Space), event)
	}, opts...)
	if err != nil {
		b.err = err
		return b
	}
	b.bindings = append(b.bindings, binding)
	return b
}
