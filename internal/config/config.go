package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/naveen554/jaggaer-storefront/pkg/config"
	"github.com/naveen554/jaggaer-storefront/pkg/database"
)

// Config holds all runtime configuration for the storefront service,
// loaded from environment variables.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"storefront"`
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	Catalog  CatalogConfig
	Cart     CartConfig
	Redis    RedisConfig
	Postgres database.PostgresConfig
	Kafka    KafkaConfig
	Tracing  TracingConfig
}

// CatalogConfig configures the downstream catalog service client.
type CatalogConfig struct {
	BaseURL string        `env:"CATALOG_SERVICE_URL" envDefault:"http://localhost:8081"`
	Timeout time.Duration `env:"CATALOG_TIMEOUT" envDefault:"5s"`
}

// CartConfig configures the downstream cart service client.
type CartConfig struct {
	BaseURL string        `env:"CART_SERVICE_URL" envDefault:"http://localhost:8082"`
	Timeout time.Duration `env:"CART_TIMEOUT" envDefault:"5s"`
}

// RedisConfig configures the cart snapshot cache.
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string        `env:"REDIS_PASSWORD" envDefault:""`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	TTL      time.Duration `env:"SNAPSHOT_TTL" envDefault:"5m"`
}

// KafkaConfig configures the event producer.
type KafkaConfig struct {
	Brokers                []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	CartRefreshedTopic     string   `env:"KAFKA_CART_REFRESHED_TOPIC" envDefault:"cart.refreshed"`
	PurchaseCompletedTopic string   `env:"KAFKA_PURCHASE_COMPLETED_TOPIC" envDefault:"purchase.completed"`
}

// TracingConfig configures the OTLP trace exporter.
type TracingConfig struct {
	Enabled     bool    `env:"TRACING_ENABLED" envDefault:"false"`
	Endpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	SampleRatio float64 `env:"TRACING_SAMPLE_RATIO" envDefault:"1.0"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	for name, rawURL := range map[string]string{
		"CATALOG_SERVICE_URL": c.Catalog.BaseURL,
		"CART_SERVICE_URL":    c.Cart.BaseURL,
	} {
		if rawURL == "" {
			return fmt.Errorf("%s is required", name)
		}
		if _, err := url.ParseRequestURI(rawURL); err != nil {
			return fmt.Errorf("%s is not a valid URL: %w", name, err)
		}
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1.0 {
		return fmt.Errorf("TRACING_SAMPLE_RATIO must be between 0.0 and 1.0, got %f", c.Tracing.SampleRatio)
	}
	return nil
}
