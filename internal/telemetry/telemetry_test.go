package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func testConfig() Config {
	return Config{
		ServiceName:    "pendingpay",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		SampleRate:     1.0,
	}
}

func shutdown(t *testing.T, tel *Telemetry) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tel.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() failed: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{name: "missing service name", mutate: func(c *Config) { c.ServiceName = "" }, want: ErrMissingServiceName},
		{name: "missing service version", mutate: func(c *Config) { c.ServiceVersion = "" }, want: ErrMissingServiceVersion},
		{name: "negative sample rate", mutate: func(c *Config) { c.SampleRate = -0.1 }, want: ErrInvalidSampleRate},
		{name: "sample rate above one", mutate: func(c *Config) { c.SampleRate = 1.5 }, want: ErrInvalidSampleRate},
		{name: "valid", mutate: func(c *Config) {}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidConfig) || !errors.Is(err, tt.want) {
				t.Errorf("expected %v wrapped in ErrInvalidConfig, got %v", tt.want, err)
			}
		})
	}
}

func TestSetup(t *testing.T) {
	t.Run("rejects invalid config", func(t *testing.T) {
		cfg := testConfig()
		cfg.ServiceName = ""

		if _, err := Setup(context.Background(), cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("without endpoint nothing is exported", func(t *testing.T) {
		cfg := testConfig()
		cfg.EnableTracing = true
		cfg.EnableMetrics = true

		tel, err := Setup(context.Background(), cfg)
		if err != nil {
			t.Fatalf("Setup() failed: %v", err)
		}
		defer shutdown(t, tel)

		tracing, metrics := tel.Enabled()
		if tracing || metrics {
			t.Errorf("expected both signals disabled, got tracing=%v metrics=%v", tracing, metrics)
		}
		if tel.Meter("pendingpay") == nil {
			t.Error("expected a no-op meter")
		}
	})

	t.Run("injected exporters enable both signals", func(t *testing.T) {
		cfg := testConfig()
		cfg.EnableTracing = true
		cfg.EnableMetrics = true

		spans := tracetest.NewInMemoryExporter()
		tel, err := Setup(context.Background(), cfg,
			WithSpanExporter(spans),
			WithMetricReader(sdkmetric.NewManualReader()),
		)
		if err != nil {
			t.Fatalf("Setup() failed: %v", err)
		}
		defer shutdown(t, tel)

		tracing, metrics := tel.Enabled()
		if !tracing || !metrics {
			t.Errorf("expected both signals enabled, got tracing=%v metrics=%v", tracing, metrics)
		}
		if tel.TracerProvider() == nil || tel.MeterProvider() == nil {
			t.Fatal("expected SDK providers")
		}

		_, span := StartSpan(context.Background(), "Service.Lookup")
		span.End()
		if err := tel.TracerProvider().ForceFlush(context.Background()); err != nil {
			t.Fatalf("ForceFlush() failed: %v", err)
		}
		if got := len(spans.GetSpans()); got != 1 {
			t.Errorf("expected 1 exported span, got %d", got)
		}
	})

	t.Run("disabled flag wins over exporter", func(t *testing.T) {
		cfg := testConfig()

		tel, err := Setup(context.Background(), cfg, WithSpanExporter(tracetest.NewNoopExporter()))
		if err != nil {
			t.Fatalf("Setup() failed: %v", err)
		}
		defer shutdown(t, tel)

		if tel.TracerProvider() != nil {
			t.Error("expected no tracer provider")
		}
	})
}

func TestCreateSampler(t *testing.T) {
	for _, rate := range []float64{-1, 0, 0.25, 1, 2} {
		if createSampler(rate) == nil {
			t.Errorf("createSampler(%v) returned nil", rate)
		}
	}
	if got := createSampler(0).Description(); got != "AlwaysOffSampler" {
		t.Errorf("expected AlwaysOffSampler for 0, got %s", got)
	}
	if got := createSampler(1).Description(); got != "AlwaysOnSampler" {
		t.Errorf("expected AlwaysOnSampler for 1, got %s", got)
	}
}
