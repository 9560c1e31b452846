package database

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRecordQuery(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	metrics, err := NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}

	ctx := context.Background()
	metrics.RecordQuery(ctx, "save_payment_attempt", 0.1, nil)
	metrics.RecordQuery(ctx, "get_payment_attempt", 0.05, errors.New("connection reset"))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}

	var durations, failures int
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch m.Name {
			case "db_query_duration_seconds":
				histogram, ok := m.Data.(metricdata.Histogram[float64])
				if !ok {
					t.Fatal("Expected Histogram[float64] data type")
				}
				durations = len(histogram.DataPoints)
			case "db_query_errors_total":
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok {
					t.Fatal("Expected Sum[int64] data type")
				}
				for _, dp := range sum.DataPoints {
					op, _ := dp.Attributes.Value(attribute.Key("operation"))
					if op.AsString() != "get_payment_attempt" {
						t.Errorf("unexpected failing operation %q", op.AsString())
					}
					failures += int(dp.Value)
				}
			}
		}
	}

	if durations != 2 {
		t.Errorf("expected a duration point per operation, got %d", durations)
	}
	if failures != 1 {
		t.Errorf("expected 1 failed query, got %d", failures)
	}
}
