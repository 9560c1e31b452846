package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config captures runtime configuration for the pendingpay CLI.
type Config struct {
	API       APIConfig
	Polling   PollingConfig
	Database  DatabaseConfig
	Telemetry TelemetryConfig
	Service   ServiceConfig
}

type APIConfig struct {
	BaseURL       string
	Timeout       time.Duration
	PaymentMethod string
	PreferSandbox bool
	PageBaseURL   string
}

type PollingConfig struct {
	Interval        time.Duration
	MaxBackoff      time.Duration
	Concurrency     int
	RefreshOnSettle bool
	SettledTTL      time.Duration
}

// DatabaseConfig selects the attempt ledger. An empty URL keeps it in memory.
type DatabaseConfig struct {
	URL            string
	AutoMigrate    bool
	MigrationsPath string
}

type TelemetryConfig struct {
	LogLevel      string
	OTelEndpoint  string
	EnableTracing bool
	EnableMetrics bool
	SampleRate    float64
}

type ServiceConfig struct {
	Name        string
	Version     string
	Environment string
}

const (
	defaultAPIBaseURL      = "http://localhost:3333/api"
	defaultAPITimeout      = 10 * time.Second
	defaultPaymentMethod   = "PIX_MP"
	defaultPageBaseURL     = "http://localhost:5173"
	defaultPollInterval    = 5 * time.Second
	defaultPollMaxBackoff  = time.Minute
	defaultPollConcurrency = 4
	defaultSettledTTL      = 10 * time.Minute
	defaultMigrationsPath  = "migrations"
	defaultServiceName     = "pendingpay"
	defaultServiceVersion  = "0.1.0"
	defaultEnvironment     = "development"
	defaultLogLevel        = "info"
	defaultOTelSampleRate  = 1.0
)

// Load reads configuration from environment variables, applying defaults when needed.
func Load() (*Config, error) {
	apiCfg, err := loadAPIConfig()
	if err != nil {
		return nil, fmt.Errorf("loading API config: %w", err)
	}

	pollCfg, err := loadPollingConfig()
	if err != nil {
		return nil, fmt.Errorf("loading polling config: %w", err)
	}

	dbCfg, err := loadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("loading database config: %w", err)
	}

	telCfg, err := loadTelemetryConfig()
	if err != nil {
		return nil, fmt.Errorf("loading telemetry config: %w", err)
	}

	return &Config{
		API:       apiCfg,
		Polling:   pollCfg,
		Database:  dbCfg,
		Telemetry: telCfg,
		Service:   loadServiceConfig(),
	}, nil
}

func loadAPIConfig() (APIConfig, error) {
	timeout, err := getDurationEnv("PENDINGPAY_API_TIMEOUT", defaultAPITimeout)
	if err != nil {
		return APIConfig{}, err
	}

	preferSandbox, err := getBoolEnv("PENDINGPAY_PREFER_SANDBOX", false)
	if err != nil {
		return APIConfig{}, err
	}

	return APIConfig{
		BaseURL:       getEnvOrDefault("PENDINGPAY_API_BASE_URL", defaultAPIBaseURL),
		Timeout:       timeout,
		PaymentMethod: getEnvOrDefault("PENDINGPAY_PAYMENT_METHOD", defaultPaymentMethod),
		PreferSandbox: preferSandbox,
		PageBaseURL:   getEnvOrDefault("PENDINGPAY_PAGE_BASE_URL", defaultPageBaseURL),
	}, nil
}

func loadPollingConfig() (PollingConfig, error) {
	interval, err := getDurationEnv("PENDINGPAY_POLL_INTERVAL", defaultPollInterval)
	if err != nil {
		return PollingConfig{}, err
	}
	if interval <= 0 {
		return PollingConfig{}, fmt.Errorf("invalid PENDINGPAY_POLL_INTERVAL: must be positive, got %s", interval)
	}

	maxBackoff, err := getDurationEnv("PENDINGPAY_POLL_MAX_BACKOFF", defaultPollMaxBackoff)
	if err != nil {
		return PollingConfig{}, err
	}

	concurrency := defaultPollConcurrency
	if value, ok := os.LookupEnv("PENDINGPAY_POLL_CONCURRENCY"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 1 {
			return PollingConfig{}, fmt.Errorf("invalid PENDINGPAY_POLL_CONCURRENCY: %q", value)
		}
		concurrency = parsed
	}

	refresh, err := getBoolEnv("PENDINGPAY_REFRESH_ON_SETTLE", true)
	if err != nil {
		return PollingConfig{}, err
	}

	settledTTL, err := getDurationEnv("PENDINGPAY_SETTLED_TTL", defaultSettledTTL)
	if err != nil {
		return PollingConfig{}, err
	}

	return PollingConfig{
		Interval:        interval,
		MaxBackoff:      maxBackoff,
		Concurrency:     concurrency,
		RefreshOnSettle: refresh,
		SettledTTL:      settledTTL,
	}, nil
}

func loadDatabaseConfig() (DatabaseConfig, error) {
	autoMigrate, err := getBoolEnv("AUTO_MIGRATE", true)
	if err != nil {
		return DatabaseConfig{}, err
	}

	return DatabaseConfig{
		URL:            os.Getenv("DATABASE_URL"),
		AutoMigrate:    autoMigrate,
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", defaultMigrationsPath),
	}, nil
}

func loadTelemetryConfig() (TelemetryConfig, error) {
	enableTracing, err := getBoolEnv("OTEL_ENABLE_TRACING", true)
	if err != nil {
		return TelemetryConfig{}, err
	}

	enableMetrics, err := getBoolEnv("OTEL_ENABLE_METRICS", true)
	if err != nil {
		return TelemetryConfig{}, err
	}

	sampleRate := defaultOTelSampleRate
	if value, ok := os.LookupEnv("OTEL_SAMPLE_RATE"); ok {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return TelemetryConfig{}, fmt.Errorf("invalid OTEL_SAMPLE_RATE: %w", err)
		}
		sampleRate = parsed
	}

	return TelemetryConfig{
		LogLevel:      getEnvOrDefault("LOG_LEVEL", defaultLogLevel),
		OTelEndpoint:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		EnableTracing: enableTracing,
		EnableMetrics: enableMetrics,
		SampleRate:    sampleRate,
	}, nil
}

func loadServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:        getEnvOrDefault("SERVICE_NAME", defaultServiceName),
		Version:     getEnvOrDefault("SERVICE_VERSION", defaultServiceVersion),
		Environment: getEnvOrDefault("ENVIRONMENT", defaultEnvironment),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) (bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
