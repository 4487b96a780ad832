package dispatch

// System is a named set of bindings registered and unregistered as a unit.
// Identity is the *System pointer: the same value cannot be registered
// twice, and two systems built from identical bindings are still distinct.
//
// Declaration order of the bindings matters: it is the final tiebreaker in
// handler ordering for equal priorities within one system.
type System struct {
	name     string
	bindings []Binding
}

func NewSystem(name string, bindings ...Binding) *System {
	return &System{
		name:     name,
		bindings: append([]Binding{}, bindings...),
	}
}

func (s *System) Name() string { return s.name }

// Bindings returns the system's bindings in declaration order.
func (s *System) Bindings() []Binding {
	return append([]Binding{}, s.bindings...)
}
