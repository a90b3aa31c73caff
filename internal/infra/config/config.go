package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config aggregates application configuration values loaded from environment
// variables. Storage defaults to the in-memory profile; setting MONGO_URI
// switches persistence to Mongo, and setting KAFKA_BROKERS enables the outbox
// relay.
type Config struct {
	Env                string          `envconfig:"APP_ENV" default:"dev"`
	HTTPAddr           string          `envconfig:"HTTP_ADDR" default:":8080"`
	MongoURI           string          `envconfig:"MONGO_URI"`
	MongoDB            string          `envconfig:"MONGO_DB" default:"rentcore"`
	KafkaBrokers       []string        `envconfig:"KAFKA_BROKERS"`
	KafkaTopicPrefix   string          `envconfig:"KAFKA_TOPIC_PREFIX"`
	IdempotencyTTL     time.Duration   `envconfig:"IDEMP_TTL" default:"168h"`
	OutboxPollInterval time.Duration   `envconfig:"OUTBOX_POLL_INTERVAL" default:"500ms"`
	RetryBackoff       []time.Duration `envconfig:"RETRY_BACKOFF" default:"1s,5s,30s"`
	PropertyFixtures   string          `envconfig:"PROPERTY_FIXTURES"`
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	if len(cfg.RetryBackoff) == 0 {
		return Config{}, fmt.Errorf("config: RETRY_BACKOFF must list at least one delay")
	}
	return cfg, nil
}

// UseMongo reports whether the Mongo persistence profile is configured.
func (c Config) UseMongo() bool { return c.MongoURI != "" }

// UseKafka reports whether the outbox relay should publish to Kafka.
func (c Config) UseKafka() bool { return len(c.KafkaBrokers) > 0 }
