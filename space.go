// Package pyriak ties the two engines together: a Space owns one entity
// store, one dispatcher, one state store, and the FIFO event queue their
// notifications land on, and drives queued events through the dispatcher.
package pyriak

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/aatle/pyriak/dispatch"
	"github.com/aatle/pyriak/events"
	"github.com/aatle/pyriak/log"
	"github.com/aatle/pyriak/statsd"
	"github.com/aatle/pyriak/store"
	"github.com/aatle/pyriak/types"
)

// EventSink is the append-only queue surface the space hands to the parts
// it owns.
type EventSink interface {
	Append(events ...any)
}

// Space owns the engines and the queue. It is itself the EventSink the
// store, dispatcher, and state store post to, and the context object their
// handlers receive.
type Space struct {
	hierarchy *types.Hierarchy
	keys      *dispatch.KeyRegistry
	entities  *store.EntityStore
	systems   *dispatch.Dispatcher
	states    *StateStore
	queue     []any
	logger    zerolog.Logger
}

// SpaceOption configures a Space.
type SpaceOption func(*spaceConfig)

type spaceConfig struct {
	hierarchy *types.Hierarchy
	logger    zerolog.Logger
}

// WithHierarchy supplies a pre-populated type hierarchy. The default is a
// fresh empty one.
func WithHierarchy(h *types.Hierarchy) SpaceOption {
	return func(c *spaceConfig) { c.hierarchy = h }
}

// WithLogger attaches a logger to the space and both engines.
func WithLogger(logger zerolog.Logger) SpaceOption {
	return func(c *spaceConfig) { c.logger = logger }
}

// NewSpace builds a space with its own key registry, carrying the key
// functions of the built-in notification events.
func NewSpace(opts ...SpaceOption) (*Space, error) {
	cfg := spaceConfig{
		hierarchy: types.NewHierarchy(),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Space{
		hierarchy: cfg.hierarchy,
		keys:      dispatch.NewKeyRegistry(cfg.hierarchy),
		logger:    cfg.logger,
	}
	if err := events.RegisterKeyFunctions(s.keys); err != nil {
		return nil, err
	}
	if err := dispatch.RegisterKeyFunctions(s.keys); err != nil {
		return nil, err
	}
	s.entities = store.New(
		cfg.hierarchy, store.WithSink(s), store.WithLogger(cfg.logger),
	)
	s.systems = dispatch.New(
		cfg.hierarchy, s.keys, dispatch.WithSink(s), dispatch.WithLogger(cfg.logger),
	)
	s.states = NewStateStore(s)
	return s, nil
}

func (s *Space) Hierarchy() *types.Hierarchy { return s.hierarchy }

func (s *Space) Keys() *dispatch.KeyRegistry { return s.keys }

func (s *Space) Entities() *store.EntityStore { return s.entities }

func (s *Space) Systems() *dispatch.Dispatcher { return s.systems }

func (s *Space) States() *StateStore { return s.states }

func (s *Space) Logger() *zerolog.Logger { return &s.logger }

// Append enqueues events onto the space's queue. It is the sink the owned
// engines post their notifications to; user code may call it too.
func (s *Space) Append(events ...any) {
	s.queue = append(s.queue, events...)
}

// Post enqueues events for a later Pump.
func (s *Space) Post(events ...any) {
	s.Append(events...)
}

// QueueLen returns the number of events waiting in the queue.
func (s *Space) QueueLen() int {
	return len(s.queue)
}

// Process dispatches event immediately, bypassing the queue, with the space
// as the handler context. It reports whether a handler consumed the event.
func (s *Space) Process(event any) (bool, error) {
	return s.systems.Dispatch(s, event)
}

// Pump drains up to limit events from the queue through the dispatcher, in
// FIFO order; limit 0 drains until the queue is empty, including events
// enqueued by the handlers themselves. Never stops mid-event. Nested pumps
// from inside a handler are safe and consume from the same queue.
//
// Returns the number of events processed. A dispatch error stops the pump
// with the failing event dropped and the rest preserved.
func (s *Space) Pump(limit int) (int, error) {
	start := time.Now()
	processed := 0
	for len(s.queue) > 0 && (limit == 0 || processed < limit) {
		event := s.queue[0]
		s.queue = s.queue[1:]
		processed++
		if _, err := s.systems.Dispatch(s, event); err != nil {
			return processed, err
		}
	}
	statsd.EmitPumpStat(start, "pump")
	statsd.EmitEventCount(processed, nil)
	return processed, nil
}

// LogSummary logs the store and dispatcher contents at info level.
func (s *Space) LogSummary() {
	log.Store(&s.logger, s.entities, zerolog.InfoLevel)
	log.Systems(&s.logger, s.systems, zerolog.InfoLevel)
}
