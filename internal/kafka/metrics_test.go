package kafka

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

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

func TestRecordPublish(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	metrics, err := NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}

	ctx := context.Background()
	metrics.RecordPublish(ctx, TopicOrdersSettled, 3, 0.2, nil)
	metrics.RecordPublish(ctx, TopicPaymentInitiated, 1, 0.3, errors.New("broker down"))

	got := collect(t, reader)

	latency, ok := got["event_publish_latency_seconds"].Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("event_publish_latency_seconds not recorded as Histogram[float64]")
	}
	statuses := map[string]bool{}
	for _, dp := range latency.DataPoints {
		status, _ := dp.Attributes.Value(attribute.Key("status"))
		statuses[status.AsString()] = true
	}
	if !statuses["success"] || !statuses["error"] {
		t.Errorf("expected success and error latency points, got %v", statuses)
	}

	published, ok := got["events_published_total"].Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("events_published_total not recorded as Sum[int64]")
	}
	if len(published.DataPoints) != 1 {
		t.Fatalf("expected only the successful topic counted, got %d points", len(published.DataPoints))
	}
	dp := published.DataPoints[0]
	topic, _ := dp.Attributes.Value(attribute.Key("topic"))
	if dp.Value != 3 || topic.AsString() != TopicOrdersSettled {
		t.Errorf("expected 3 events on %s, got %d on %s", TopicOrdersSettled, dp.Value, topic.AsString())
	}
}
