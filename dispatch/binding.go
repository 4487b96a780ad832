package dispatch

import (
	"reflect"

	"github.com/rotisserie/eris"

	"github.com/aatle/pyriak/types"
)

var (
	ErrNilCallback     = eris.New("binding has nil callback")
	ErrConflictingKeys = eris.New("single key and key set are mutually exclusive")
)

// Callback is the uniform shape every handler is stored as, regardless of
// where it came from. ctx is the opaque dispatch context, typically the
// owning space. Returning true stops the remaining handlers for the event.
type Callback func(ctx any, event any) bool

// Binding is the immutable registration metadata for one callback on one
// event type. Bindings are declared on a System; the dispatcher turns each
// one into a Handler at registration.
type Binding struct {
	eventType reflect.Type
	callback  Callback
	name      string
	priority  any
	keys      []any
}

// BindingOption configures a Binding at construction.
type BindingOption func(*Binding) error

// WithPriority sets the binding's priority. The default is 0.
func WithPriority(priority any) BindingOption {
	return func(b *Binding) error {
		b.priority = priority
		return nil
	}
}

// WithKey narrows the binding to events carrying exactly this key. Mutually
// exclusive with WithKeys.
func WithKey(key any) BindingOption {
	return func(b *Binding) error {
		if b.keys != nil {
			return ErrConflictingKeys
		}
		b.keys = []any{key}
		return nil
	}
}

// WithKeys narrows the binding to events carrying any of these keys.
// Mutually exclusive with WithKey.
func WithKeys(keys ...any) BindingOption {
	return func(b *Binding) error {
		if b.keys != nil {
			return ErrConflictingKeys
		}
		b.keys = append([]any{}, keys...)
		return nil
	}
}

// NewBinding builds a binding of callback to eventType under name. The name
// identifies the callback within its system and is the dedup basis for
// handlers inherited across the type hierarchy.
func NewBinding(
	eventType reflect.Type, name string, callback Callback, opts ...BindingOption,
) (Binding, error) {
	if callback == nil {
		return Binding{}, eris.Wrapf(ErrNilCallback, "binding %q", name)
	}
	b := Binding{
		eventType: eventType,
		callback:  callback,
		name:      name,
		priority:  0,
	}
	for _, opt := range opts {
		if err := opt(&b); err != nil {
			return Binding{}, eris.Wrapf(err, "binding %q", name)
		}
	}
	return b, nil
}

// Bind is the typed convenience over NewBinding: the callback receives the
// event as an E. Dispatch may hand the callback a declared subtype of E; the
// event is then viewed as E through an embedded E field, or by conversion
// when the subtype has the same field set. A subtype offering neither view
// skips the callback without stopping dispatch. Use BindAny when a handler
// must observe subtype events as-is.
func Bind[E any](name string, fn func(ctx any, event E) bool, opts ...BindingOption) (Binding, error) {
	if fn == nil {
		return Binding{}, eris.Wrapf(ErrNilCallback, "binding %q", name)
	}
	return NewBinding(types.TypeOf[E](), name, func(ctx any, event any) bool {
		ev, ok := eventAs[E](event)
		if !ok {
			return false
		}
		return fn(ctx, ev)
	}, opts...)
}

// BindAny binds an untyped callback to event type E, for handlers that need
// the concrete event value even when it is a declared subtype of E.
func BindAny[E any](name string, fn Callback, opts ...BindingOption) (Binding, error) {
	return NewBinding(types.TypeOf[E](), name, fn, opts...)
}

// eventAs views event as an E. Exact and interface matches assert directly;
// a subtype struct is searched for an embedded E field, then converted
// field-for-field when the layouts line up.
func eventAs[E any](event any) (E, bool) {
	if ev, ok := event.(E); ok {
		return ev, true
	}
	want := types.TypeOf[E]()
	v := reflect.ValueOf(event)
	for v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}
	if v.Kind() == reflect.Struct {
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.Anonymous && f.Type == want && f.IsExported() {
				return v.Field(i).Interface().(E), true
			}
		}
		if t.ConvertibleTo(want) {
			return v.Convert(want).Interface().(E), true
		}
	}
	var zero E
	return zero, false
}

func (b Binding) EventType() reflect.Type { return b.eventType }

func (b Binding) Name() string { return b.name }

func (b Binding) Priority() any { return b.priority }

func (b Binding) Callback() Callback { return b.callback }

// Keys returns a copy of the binding's key set, nil when unkeyed.
func (b Binding) Keys() []any {
	if b.keys == nil {
		return nil
	}
	return append([]any{}, b.keys...)
}
