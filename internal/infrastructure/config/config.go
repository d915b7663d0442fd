package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
type Config struct {
	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	// Output
	OutputFormat string `env:"OUTPUT_FORMAT" envDefault:"csv"`
	MetricsFile  string `env:"METRICS_FILE"  envDefault:""`

	// Input validation
	RejectNegativeAmounts bool `env:"REJECT_NEGATIVE_AMOUNTS" envDefault:"false"`
	RejectMissingAmount   bool `env:"REJECT_MISSING_AMOUNT"   envDefault:"false"`

	// Redis snapshot sink (optional - leave empty to disable)
	RedisURL       string        `env:"REDIS_URL"        envDefault:""`
	RedisKeyPrefix string        `env:"REDIS_KEY_PREFIX" envDefault:"txengine:"`
	SnapshotTTL    time.Duration `env:"SNAPSHOT_TTL"     envDefault:"24h"`

	// Kafka snapshot sink (optional - leave empty to disable)
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC"   envDefault:"account_snapshots"`

	// Sink delivery
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT"           envDefault:"10s"`
	RetryMaxAttempts     int           `env:"RETRY_MAX_ATTEMPTS"     envDefault:"3"`
	RetryInitialInterval time.Duration `env:"RETRY_INITIAL_INTERVAL" envDefault:"50ms"`
	RetryMaxInterval     time.Duration `env:"RETRY_MAX_INTERVAL"     envDefault:"1s"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
