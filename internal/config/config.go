package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Global singleton for packages that cannot take injected config
var globalConfig *Config

// Config holds all environment backed configuration for the message worker.
type Config struct {
	// HTTP Server
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"9091"`
	DatabaseURL string `env:"DATABASE_URL,notEmpty"`

	// Model Provider
	ModelBaseURL    string        `env:"MODEL_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	ModelAPIKey     string        `env:"MODEL_API_KEY,notEmpty"`
	ModelName       string        `env:"MODEL_NAME" envDefault:"llama-3.3-70b-versatile"`
	ModelTimeout    time.Duration `env:"MODEL_TIMEOUT" envDefault:"30s"`
	ModelMaxRetries int           `env:"MODEL_MAX_RETRIES" envDefault:"3"`
	ModelRetryDelay time.Duration `env:"MODEL_RETRY_DELAY" envDefault:"1s"`

	// Queue Worker
	QueueBatchSize        int  `env:"QUEUE_BATCH_SIZE" envDefault:"5"`
	QueueMaxAttempts      int  `env:"QUEUE_MAX_ATTEMPTS" envDefault:"5"`
	QueuePollIntervalMins int  `env:"QUEUE_POLL_INTERVAL_MINUTES" envDefault:"1"`
	QueuePollEnabled      bool `env:"QUEUE_POLL_ENABLED" envDefault:"true"`

	// Channel Provider (Twilio)
	TwilioBaseURL     string `env:"TWILIO_BASE_URL" envDefault:"https://api.twilio.com"`
	TwilioSandboxFrom string `env:"TWILIO_SANDBOX_FROM" envDefault:"whatsapp:+14155238886"`

	// Calendar Provider (Google)
	CalendarBaseURL string `env:"CALENDAR_BASE_URL" envDefault:"https://www.googleapis.com/calendar/v3"`

	// Observability / Logging
	HTTPTimeout      time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
	OTLPEndpoint     string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPHeaders      string        `env:"OTEL_EXPORTER_OTLP_HEADERS"`
	ServiceName      string        `env:"SERVICE_NAME" envDefault:"message-worker"`
	ServiceNamespace string        `env:"SERVICE_NAMESPACE" envDefault:"flowcore"`
	Environment      string        `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat        string        `env:"LOG_FORMAT" envDefault:"console"`

	// Features
	AutoMigrate bool `env:"AUTO_MIGRATE" envDefault:"true"`

	// Internal
	EnvReloadedAt time.Time
}

// Load parses environment variables into Config and performs minimal validation.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if _, err := url.ParseRequestURI(cfg.ModelBaseURL); err != nil {
		return nil, fmt.Errorf("invalid MODEL_BASE_URL: %w", err)
	}

	if _, err := url.ParseRequestURI(cfg.TwilioBaseURL); err != nil {
		return nil, fmt.Errorf("invalid TWILIO_BASE_URL: %w", err)
	}

	if cfg.QueueBatchSize <= 0 {
		cfg.QueueBatchSize = 5
	}
	if cfg.ModelMaxRetries <= 0 {
		cfg.ModelMaxRetries = 3
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.EnvReloadedAt = time.Now()

	globalConfig = cfg

	return cfg, nil
}

// GetGlobal returns the global config instance.
// Deprecated: Use dependency injection with Load() instead.
func GetGlobal() *Config {
	return globalConfig
}

var Version = "dev"

func IsDev() bool {
	return strings.HasPrefix(Version, "dev")
}
