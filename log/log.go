// Package log holds zerolog helpers for the recurring structured shapes:
// entities with their component types, registered systems, and the handler
// notifications.
package log

import (
	"reflect"

	"github.com/rs/zerolog"

	"github.com/aatle/pyriak/dispatch"
	"github.com/aatle/pyriak/entity"
)

// StoreLoggable is the store surface the summary helpers need.
type StoreLoggable interface {
	Len() int
	IndexedTypes() []reflect.Type
}

// SystemsLoggable is the dispatcher surface the summary helpers need.
type SystemsLoggable interface {
	Systems() []*dispatch.System
}

func loadComponentsIntoArrayLogger(e *entity.Entity, arrayLogger *zerolog.Array) *zerolog.Array {
	for _, t := range e.Types() {
		arrayLogger = arrayLogger.Str(t.String())
	}
	return arrayLogger
}

// Entity logs an entity's id and component types.
func Entity(logger *zerolog.Logger, level zerolog.Level, e *entity.Entity) {
	event := logger.WithLevel(level)
	event.Stringer("entity_id", e.ID())
	event.Array("components", loadComponentsIntoArrayLogger(e, zerolog.Arr())).Send()
}

// Store logs a store summary: entity count and the indexed component types.
func Store(logger *zerolog.Logger, target StoreLoggable, level zerolog.Level) {
	event := logger.WithLevel(level)
	event.Int("total_entities", target.Len())
	arrayLogger := zerolog.Arr()
	for _, t := range target.IndexedTypes() {
		arrayLogger = arrayLogger.Str(t.String())
	}
	event.Array("indexed_types", arrayLogger).Send()
}

// Systems logs the registered systems in registration order.
func Systems(logger *zerolog.Logger, target SystemsLoggable, level zerolog.Level) {
	systems := target.Systems()
	event := logger.WithLevel(level)
	event.Int("total_systems", len(systems))
	arrayLogger := zerolog.Arr()
	for _, s := range systems {
		arrayLogger = arrayLogger.Str(s.Name())
	}
	event.Array("systems", arrayLogger).Send()
}

// Handler logs a handler registration notification.
func Handler(logger *zerolog.Logger, level zerolog.Level, added dispatch.HandlerAdded) {
	event := logger.WithLevel(level)
	event.Str("system", added.System.Name())
	event.Str("handler", added.Name)
	event.Str("event_type", added.EventType.String())
	event.Int("keys", len(added.Keys)).Send()
}

// CreateSystemLogger creates a sub logger with the entry {"system": name}.
func CreateSystemLogger(logger *zerolog.Logger, name string) *zerolog.Logger {
	newLogger := logger.With().Str("system", name).Logger()
	return &newLogger
}

// CreateTraceLogger creates a sub logger carrying a trace id, for following
// one event's path through the queue and dispatcher.
func CreateTraceLogger(logger *zerolog.Logger, traceID string) *zerolog.Logger {
	newLogger := logger.With().Str("trace_id", traceID).Logger()
	return &newLogger
}
