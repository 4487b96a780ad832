// Package statsd wraps the few statsd calls this library emits. It hides
// the datadog dependency so a future client swap touches only this file.
package statsd

import (
	"time"

	ddstatsd "github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
)

var client ddstatsd.ClientInterface = &ddstatsd.NoOpClient{}

func Client() ddstatsd.ClientInterface {
	return client
}

// EmitPumpStat reports the time one queue pump stage took. A no-op until
// Init succeeds.
func EmitPumpStat(start time.Time, stage string) {
	duration := time.Since(start)
	err := Client().Timing("pump", duration, []string{stage}, 1)
	if err != nil {
		log.Logger.Warn().Msgf("failed to emit pump stat: %v", err)
	}
}

// EmitEventCount reports how many events a pump processed.
func EmitEventCount(n int, tags []string) {
	err := Client().Count("events.processed", int64(n), tags, 1)
	if err != nil {
		log.Logger.Warn().Msgf("failed to emit event count: %v", err)
	}
}

func Init(address string, tags []string) error {
	if address == "" {
		return eris.New("address must not be empty")
	}
	opts := []ddstatsd.Option{
		// the statsd namespace is the prefix of all metrics
		ddstatsd.WithNamespace("pyriak"),
	}
	if len(tags) > 0 {
		opts = append(opts, ddstatsd.WithTags(tags))
	}

	newClient, err := ddstatsd.New(address, opts...)
	if err != nil {
		return err
	}
	client = newClient
	return nil
}
