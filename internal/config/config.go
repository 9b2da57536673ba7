package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"
)

const (
	DeliveryModeLog     = "log"
	DeliveryModeWebhook = "webhook"
	DeliveryModeQueue   = "queue"
)

type Config struct {
	DatabaseDriver string `env:"DATABASE_DRIVER,default=sqlite"`
	DatabaseDSN    string `env:"DATABASE_DSN,default=leads.db"`
	RedisURL       string `env:"REDIS_URL"`
	RabbitMQURL    string `env:"RABBITMQ_URL"`

	DeliveryMode       string `env:"DELIVERY_MODE,default=log"`
	DeliveryWebhookURL string `env:"DELIVERY_WEBHOOK_URL"`
	DeliveryFrom       string `env:"DELIVERY_FROM,default=outreach@pipeline.local"`

	APIPort  int    `env:"API_PORT,default=5000"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	FollowUpScanInterval time.Duration `env:"FOLLOWUP_SCAN_INTERVAL,default=10s"`
	FollowUpDueAfter     time.Duration `env:"FOLLOWUP_DUE_AFTER,default=60s"`
	FollowUpBatchLimit   int           `env:"FOLLOWUP_BATCH_LIMIT,default=100"`
	SchedulerTickTimeout time.Duration `env:"SCHEDULER_TICK_TIMEOUT,default=30s"`
	StoreTimeout         time.Duration `env:"STORE_TIMEOUT,default=5s"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=15s"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.DatabaseDriver = strings.ToLower(strings.TrimSpace(cfg.DatabaseDriver))
	cfg.DeliveryMode = strings.ToLower(strings.TrimSpace(cfg.DeliveryMode))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects unknown backends and settings the runtime cannot honor.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if strings.TrimSpace(c.DatabaseDSN) == "" {
		return fmt.Errorf("DATABASE_DSN is required")
	}

	switch c.DeliveryMode {
	case DeliveryModeLog:
	case DeliveryModeWebhook:
		if strings.TrimSpace(c.DeliveryWebhookURL) == "" {
			return fmt.Errorf("DELIVERY_WEBHOOK_URL is required when DELIVERY_MODE=webhook")
		}
	case DeliveryModeQueue:
		if strings.TrimSpace(c.RabbitMQURL) == "" {
			return fmt.Errorf("RABBITMQ_URL is required when DELIVERY_MODE=queue")
		}
	default:
		return fmt.Errorf("unsupported DELIVERY_MODE %q", c.DeliveryMode)
	}

	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("API_PORT must be between 1 and 65535, got %d", c.APIPort)
	}
	if c.FollowUpBatchLimit <= 0 {
		return fmt.Errorf("FOLLOWUP_BATCH_LIMIT must be positive, got %d", c.FollowUpBatchLimit)
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"FOLLOWUP_SCAN_INTERVAL", c.FollowUpScanInterval},
		{"FOLLOWUP_DUE_AFTER", c.FollowUpDueAfter},
		{"SCHEDULER_TICK_TIMEOUT", c.SchedulerTickTimeout},
		{"STORE_TIMEOUT", c.StoreTimeout},
		{"SHUTDOWN_TIMEOUT", c.ShutdownTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.name, d.value)
		}
	}

	return nil
}
