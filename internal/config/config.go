// Package config centralises configuration parsing for the activity registration service.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config captures runtime configuration values for the service and the roster consumer.
type Config struct {
	HTTPAddress     string        `env:"HTTP_ADDRESS" envDefault:":8000"`
	StaticDir       string        `env:"STATIC_DIR" envDefault:"static"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	CORSOrigin      string        `env:"CORS_ORIGIN" envDefault:"http://localhost:5173"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	KafkaBrokers    []string      `env:"KAFKA_BROKERS" envSeparator:","`
	RosterTopic     string        `env:"ROSTER_TOPIC" envDefault:"roster_events"`
	EventBuffer     int           `env:"EVENT_BUFFER" envDefault:"256"`
	PublishTimeout  time.Duration `env:"PUBLISH_TIMEOUT" envDefault:"5s"`
	ConsumerGroupID string        `env:"CONSUMER_GROUP_ID" envDefault:"roster-audit"`
	MetricsAddress  string        `env:"METRICS_ADDRESS" envDefault:":9196"`
}

// EventsEnabled reports whether roster events should be shipped to Kafka.
func (c Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads an optional .env file and then environment variables into Config.
// Variables already present in the environment win over .env entries.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.EventBuffer <= 0 {
		return Config{}, fmt.Errorf("EVENT_BUFFER must be > 0, got %d", cfg.EventBuffer)
	}
	return cfg, nil
}
