// Package dispatch implements the handler-dispatch engine: systems register
// sets of bindings, the dispatcher derives per-event-type handler caches
// from them lazily through the declared type hierarchy, and events are
// routed to handlers in deterministic priority order, optionally narrowed
// by key.
//
// The engine is single-threaded and lock-free. Dispatch is reentrant: a
// running handler may register or unregister systems or dispatch further
// events, because every dispatch iterates a snapshot of its handler list.
package dispatch

import (
	"reflect"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/aatle/pyriak/types"
)

var (
	ErrSystemAlreadyRegistered = eris.New("system already registered")
	ErrSystemNotRegistered     = eris.New("system not registered")
	ErrKeysWithoutKeyFunction  = eris.New("keyed binding on event type without key function")
	ErrNilContext              = eris.New("dispatch requires a non-nil context")
)

// EventSink is the append-only queue the dispatcher posts its registration
// notifications to.
type EventSink interface {
	Append(events ...any)
}

// typeEntry is the derived handler cache for one concrete event type. The
// keyed map is non-nil iff the type had a key function when it was bound;
// its sub-lists each contain the unkeyed handlers too, so a key hit never
// loses the broad handlers.
type typeEntry struct {
	unkeyed []*Handler
	keyed   map[any][]*Handler
}

// Dispatcher routes events to the handlers of its registered systems.
//
// Authoritative state is the set of registered systems and their bindings;
// the per-type caches are derived and built lazily: dispatching or binding
// an event type not seen before constructs its entry from the entries of
// its already-bound ancestor types.
type Dispatcher struct {
	hierarchy *types.Hierarchy
	keys      *KeyRegistry
	systems   map[*System]uint64
	order     []*System
	bound     map[reflect.Type]*typeEntry
	nextSeq   uint64
	sink      EventSink
	logger    zerolog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

func WithSink(sink EventSink) Option {
	return func(d *Dispatcher) { d.sink = sink }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// New creates a dispatcher resolving event supertypes through h and key
// functions through keys. Key functions for event types a dispatcher will
// see should be set before those types are first bound or dispatched.
func New(h *types.Hierarchy, keys *KeyRegistry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		hierarchy: h,
		keys:      keys,
		systems:   map[*System]uint64{},
		bound:     map[reflect.Type]*typeEntry{},
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register adds a system and binds all of its handlers. A system already
// registered fails with ErrSystemAlreadyRegistered; a keyed binding whose
// event type has no key function fails with ErrKeysWithoutKeyFunction. Both
// are checked before any state changes.
//
// Posts one SystemAdded followed by one HandlerAdded per binding, in
// declaration order.
func (d *Dispatcher) Register(system *System) error {
	if _, ok := d.systems[system]; ok {
		return eris.Wrapf(ErrSystemAlreadyRegistered, "system %q", system.name)
	}
	for _, b := range system.bindings {
		if len(b.keys) > 0 && !d.keys.Exists(b.eventType) {
			return eris.Wrapf(
				ErrKeysWithoutKeyFunction, "binding %q on %v", b.name, b.eventType,
			)
		}
	}
	seq := d.nextSeq
	d.nextSeq++
	d.systems[system] = seq
	d.order = append(d.order, system)

	handlers := make([]*Handler, len(system.bindings))
	for i, b := range system.bindings {
		// bindings of one callback to several similar event types usually
		// carry the same priority; those share one handler record
		var h *Handler
		for j := 0; j < i; j++ {
			prev := system.bindings[j]
			if prev.name == b.name && samePriority(prev.priority, b.priority) {
				h = handlers[j]
				break
			}
		}
		if h == nil {
			h = &Handler{
				system:    system,
				callback:  b.callback,
				name:      b.name,
				priority:  b.priority,
				systemSeq: seq,
				declSeq:   i,
			}
		}
		handlers[i] = h
		d.bindHandler(b, h)
	}

	if d.sink != nil {
		d.sink.Append(SystemAdded{System: system})
		for i, b := range system.bindings {
			d.sink.Append(HandlerAdded{
				EventType: b.eventType,
				Keys:      b.Keys(),
				System:    system,
				Callback:  handlers[i].callback,
				Name:      b.name,
				Priority:  handlers[i].priority,
			})
		}
	}
	d.logger.Debug().
		Str("system", system.name).
		Int("bindings", len(system.bindings)).
		Msg("system registered")
	return nil
}

// bindHandler inserts h into the cache entry of the binding's event type
// and of every already-bound subtype. The event type itself is bound on
// demand; subtypes never seen stay unbound and will inherit h when they
// are.
func (d *Dispatcher) bindHandler(b Binding, h *Handler) {
	for _, sub := range d.hierarchy.Subclasses(b.eventType) {
		entry, ok := d.bound[sub]
		if !ok {
			if sub != b.eventType {
				continue
			}
			entry = d.lazyBind(sub)
		}
		if entry.keyed == nil {
			entry.unkeyed = insertHandler(entry.unkeyed, h)
			continue
		}
		if len(b.keys) == 0 {
			entry.unkeyed = insertHandler(entry.unkeyed, h)
			for k, subs := range entry.keyed {
				entry.keyed[k] = insertHandler(subs, h)
			}
			continue
		}
		for _, k := range b.keys {
			if subs, ok := entry.keyed[k]; ok {
				entry.keyed[k] = insertHandler(subs, h)
			} else {
				// a new key view starts as the unkeyed handlers, which any key
				// must always reach
				seeded := append([]*Handler{}, entry.unkeyed...)
				entry.keyed[k] = insertHandler(seeded, h)
			}
		}
	}
}

// lazyBind builds the cache entry for a type never bound before from the
// entries of its already-bound ancestors: concatenate, de-duplicate by
// handler equality, re-sort. Keyed ancestor views merge per key, and every
// merged key view also receives the merged unkeyed handlers.
func (d *Dispatcher) lazyBind(t reflect.Type) *typeEntry {
	entry := &typeEntry{}
	if d.keys.Exists(t) {
		entry.keyed = map[any][]*Handler{}
	}
	d.bound[t] = entry

	var inherited []*typeEntry
	for _, a := range d.hierarchy.Ancestors(t)[1:] {
		if e, ok := d.bound[a]; ok {
			inherited = append(inherited, e)
		}
	}
	if len(inherited) == 0 {
		return entry
	}

	var unkeyed []*Handler
	keyed := map[any][]*Handler{}
	for _, e := range inherited {
		unkeyed = append(unkeyed, e.unkeyed...)
		for k, subs := range e.keyed {
			keyed[k] = append(keyed[k], subs...)
		}
	}
	unkeyed = dedupHandlers(unkeyed)
	sortHandlers(unkeyed)
	entry.unkeyed = unkeyed

	if entry.keyed != nil {
		for k, subs := range keyed {
			subs = append(subs, unkeyed...)
			subs = dedupHandlers(subs)
			sortHandlers(subs)
			entry.keyed[k] = subs
		}
	}
	return entry
}

// Unregister removes a system and all of its handlers, pruning key views
// and type entries left empty. An unknown system fails with
// ErrSystemNotRegistered.
//
// Posts one HandlerRemoved per binding followed by one SystemRemoved.
func (d *Dispatcher) Unregister(system *System) error {
	if _, ok := d.systems[system]; !ok {
		return eris.Wrapf(ErrSystemNotRegistered, "system %q", system.name)
	}
	delete(d.systems, system)
	for i, s := range d.order {
		if s == system {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	for _, b := range system.bindings {
		for _, sub := range d.hierarchy.Subclasses(b.eventType) {
			entry, ok := d.bound[sub]
			if !ok {
				continue
			}
			entry.unkeyed = removeSystemHandlers(entry.unkeyed, system)
			empty := len(entry.unkeyed) == 0
			for k, subs := range entry.keyed {
				subs = removeSystemHandlers(subs, system)
				if len(subs) == 0 {
					delete(entry.keyed, k)
				} else {
					entry.keyed[k] = subs
					empty = false
				}
			}
			if empty {
				delete(d.bound, sub)
			}
		}
		if d.sink != nil {
			d.sink.Append(HandlerRemoved{
				EventType: b.eventType,
				Keys:      b.Keys(),
				System:    system,
				Callback:  b.callback,
				Name:      b.name,
				Priority:  b.priority,
			})
		}
	}
	if d.sink != nil {
		d.sink.Append(SystemRemoved{System: system})
	}
	d.logger.Debug().Str("system", system.name).Msg("system unregistered")
	return nil
}

func removeSystemHandlers(list []*Handler, system *System) []*Handler {
	out := list[:0]
	for _, h := range list {
		if h.system != system {
			out = append(out, h)
		}
	}
	return out
}

// Dispatch routes event to the handlers bound for its runtime type, in
// order, stopping at the first callback to return true. It reports whether
// any handler did. A type without handlers is a no-op. ctx is handed to
// every callback and must be non-nil.
//
// When the event type has a key function, handlers are narrowed: one key
// selects its key view if present, several keys merge their present views
// (de-duplicated, re-sorted), and no key hit falls back to the unkeyed
// handlers.
func (d *Dispatcher) Dispatch(ctx any, event any) (bool, error) {
	if ctx == nil {
		return false, eris.Wrapf(ErrNilContext, "event %T", event)
	}
	t := reflect.TypeOf(event)
	entry, ok := d.bound[t]
	if !ok {
		entry = d.lazyBind(t)
	}
	list := entry.unkeyed
	if entry.keyed != nil {
		if kf, ok := d.keys.Resolve(t); ok {
			list = d.routeKeys(entry, kf(event))
		}
	}
	snapshot := append([]*Handler{}, list...)
	for _, h := range snapshot {
		if h.callback(ctx, event) {
			return true, nil
		}
	}
	return false, nil
}

func (d *Dispatcher) routeKeys(entry *typeEntry, keys []any) []*Handler {
	var present [][]*Handler
	for _, k := range keys {
		if subs, ok := entry.keyed[k]; ok {
			present = append(present, subs)
		}
	}
	switch len(present) {
	case 0:
		return entry.unkeyed
	case 1:
		return present[0]
	}
	var merged []*Handler
	for _, subs := range present {
		merged = append(merged, subs...)
	}
	merged = dedupHandlers(merged)
	sortHandlers(merged)
	return merged
}

// Contains reports whether system is registered.
func (d *Dispatcher) Contains(system *System) bool {
	_, ok := d.systems[system]
	return ok
}

// Systems returns the registered systems in registration order.
func (d *Dispatcher) Systems() []*System {
	return append([]*System{}, d.order...)
}

func (d *Dispatcher) Len() int {
	return len(d.systems)
}

// Clear drops every system and cache entry without posting notifications.
func (d *Dispatcher) Clear() {
	d.systems = map[*System]uint64{}
	d.order = nil
	d.bound = map[reflect.Type]*typeEntry{}
}
