package pyriak

import (
	"strings"

	"github.com/JeremyLoy/config"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/aatle/pyriak/statsd"
)

// Config is the ambient configuration read from the environment: log
// verbosity and the optional statsd endpoint. Core behavior never depends
// on it; it only tunes observability.
type Config struct {
	LogLevel      string `config:"PYRIAK_LOG_LEVEL"`
	StatsdAddress string `config:"PYRIAK_STATSD_ADDRESS"`
	StatsdTags    string `config:"PYRIAK_STATSD_TAGS"`
}

func defaultConfig() Config {
	return Config{
		LogLevel: "info",
	}
}

// LoadConfig reads Config from the environment over the defaults.
func LoadConfig() (Config, error) {
	cfg := defaultConfig()
	if err := config.FromEnv().To(&cfg); err != nil {
		return cfg, eris.Wrap(err, "load config failed")
	}
	return cfg, nil
}

// Apply sets the global log level and, when an address is configured,
// initializes the statsd client.
func (c Config) Apply() error {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return eris.Wrapf(err, "invalid log level %q", c.LogLevel)
	}
	zerolog.SetGlobalLevel(level)
	if c.StatsdAddress == "" {
		return nil
	}
	var tags []string
	for _, tag := range strings.Split(c.StatsdTags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return statsd.Init(c.StatsdAddress, tags)
}
