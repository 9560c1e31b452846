package metrics

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}
	return metrics, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}

	byName := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			byName[m.Name] = m
		}
	}
	return byName
}

func TestInitializeMetrics(t *testing.T) {
	t.Run("initializes all metric instruments successfully", func(t *testing.T) {
		metrics, _ := newTestMetrics(t)

		if metrics.pollTicksTotal == nil {
			t.Error("pollTicksTotal is nil")
		}
		if metrics.pollTickDuration == nil {
			t.Error("pollTickDuration is nil")
		}
		if metrics.statusChecksTotal == nil {
			t.Error("statusChecksTotal is nil")
		}
		if metrics.ordersSettledTotal == nil {
			t.Error("ordersSettledTotal is nil")
		}
		if metrics.paymentInitiationsTotal == nil {
			t.Error("paymentInitiationsTotal is nil")
		}
	})

	t.Run("noop metrics accept recordings", func(t *testing.T) {
		metrics := NewNoopMetrics()
		metrics.RecordPollTick(context.Background(), "reconciled", 0.1)
		metrics.RecordPaymentInitiation(context.Background(), "batch", true)
	})
}

func TestRecordPollTick(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	ctx := context.Background()

	metrics.RecordPollTick(ctx, "reconciled", 0.2)
	metrics.RecordPollTick(ctx, "reconciled", 0.4)
	metrics.RecordPollTick(ctx, "stale", 0.1)

	byName := collect(t, reader)

	ticks, ok := byName["pendingpay_poll_ticks_total"]
	if !ok {
		t.Fatal("pendingpay_poll_ticks_total metric not found")
	}
	sum, ok := ticks.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("Expected Sum[int64] data type")
	}
	if len(sum.DataPoints) != 2 {
		t.Errorf("Expected 2 data points (one per outcome), got %d", len(sum.DataPoints))
	}

	duration, ok := byName["pendingpay_poll_tick_duration_seconds"]
	if !ok {
		t.Fatal("pendingpay_poll_tick_duration_seconds metric not found")
	}
	histogram, ok := duration.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("Expected Histogram[float64] data type")
	}
	if len(histogram.DataPoints) != 1 {
		t.Fatalf("Expected 1 data point, got %d", len(histogram.DataPoints))
	}
	if histogram.DataPoints[0].Count != 3 {
		t.Errorf("Expected count=3, got %d", histogram.DataPoints[0].Count)
	}
}

func TestRecordStatusCheckAndSettlement(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	ctx := context.Background()

	metrics.RecordStatusCheck(ctx, true)
	metrics.RecordStatusCheck(ctx, false)
	metrics.RecordOrderSettled(ctx, "PAID")
	metrics.RecordOrderSettled(ctx, "PAID")
	metrics.RecordOrderSettled(ctx, "CANCELED")

	byName := collect(t, reader)

	checks, ok := byName["pendingpay_status_checks_total"]
	if !ok {
		t.Fatal("pendingpay_status_checks_total metric not found")
	}
	if sum := checks.Data.(metricdata.Sum[int64]); len(sum.DataPoints) != 2 {
		t.Errorf("Expected 2 data points, got %d", len(sum.DataPoints))
	}

	settled, ok := byName["pendingpay_orders_settled_total"]
	if !ok {
		t.Fatal("pendingpay_orders_settled_total metric not found")
	}
	var total int64
	for _, dp := range settled.Data.(metricdata.Sum[int64]).DataPoints {
		total += dp.Value
	}
	if total != 3 {
		t.Errorf("Expected 3 settled orders, got %d", total)
	}
}

func TestRecordPaymentInitiation(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	ctx := context.Background()

	metrics.RecordPaymentInitiation(ctx, "single", true)
	metrics.RecordPaymentInitiation(ctx, "batch", true)
	metrics.RecordPaymentInitiation(ctx, "batch", false)

	byName := collect(t, reader)

	initiations, ok := byName["pendingpay_payment_initiations_total"]
	if !ok {
		t.Fatal("pendingpay_payment_initiations_total metric not found")
	}
	sum, ok := initiations.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("Expected Sum[int64] data type")
	}
	if len(sum.DataPoints) != 3 {
		t.Errorf("Expected 3 data points, got %d", len(sum.DataPoints))
	}
}
