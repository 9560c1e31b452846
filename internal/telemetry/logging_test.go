package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		records = append(records, rec)
	}
	return records
}

func withTracerProvider(t *testing.T) {
	t.Helper()

	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(tracetest.NewInMemoryExporter()))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
		{in: "warning", want: slog.LevelWarn},
		{in: " error ", want: slog.LevelError},
		{in: "verbose", want: slog.LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("filters below the configured level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, slog.LevelWarn)

		logger.Info("poll tick")
		logger.Warn("status check failed")

		records := decodeLines(t, &buf)
		if len(records) != 1 || records[0]["msg"] != "status check failed" {
			t.Errorf("expected only the warning, got %v", records)
		}
	})

	t.Run("carries base attributes", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, slog.LevelInfo, slog.String("service", "pendingpay"))

		logger.With("cpf", "***.***.247-25").Info("lookup")

		rec := decodeLines(t, &buf)[0]
		if rec["service"] != "pendingpay" || rec["cpf"] != "***.***.247-25" {
			t.Errorf("missing attributes: %v", rec)
		}
	})

	t.Run("stamps trace and span ids from the context", func(t *testing.T) {
		withTracerProvider(t)

		var buf bytes.Buffer
		logger := NewLogger(&buf, slog.LevelInfo)

		ctx, span := StartSpan(context.Background(), "StatusPoller.Tick")
		logger.InfoContext(ctx, "pass reconciled")
		span.End()

		rec := decodeLines(t, &buf)[0]
		if rec["trace_id"] != TraceID(ctx) || rec["span_id"] != SpanID(ctx) {
			t.Errorf("expected trace %s span %s, got %v", TraceID(ctx), SpanID(ctx), rec)
		}
	})

	t.Run("omits ids without a span", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, slog.LevelInfo)

		logger.InfoContext(context.Background(), "no span")

		rec := decodeLines(t, &buf)[0]
		if _, ok := rec["trace_id"]; ok {
			t.Errorf("unexpected trace_id in %v", rec)
		}
	})

	t.Run("groups nest record attributes", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf, slog.LevelInfo).WithGroup("pass")

		logger.Info("applied", "removed", 2)

		rec := decodeLines(t, &buf)[0]
		group, ok := rec["pass"].(map[string]any)
		if !ok || group["removed"] != float64(2) {
			t.Errorf("expected pass.removed=2, got %v", rec)
		}
	})
}
