package kafka

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics instruments event publishing.
type Metrics struct {
	publishLatency  metric.Float64Histogram
	eventsPublished metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	latency, err := meter.Float64Histogram(
		"event_publish_latency_seconds",
		metric.WithDescription("Event publish latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create event_publish_latency histogram: %w", err)
	}

	published, err := meter.Int64Counter(
		"events_published_total",
		metric.WithDescription("Domain events handed to the bus"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create events_published_total counter: %w", err)
	}

	return &Metrics{publishLatency: latency, eventsPublished: published}, nil
}

// RecordPublish records one publish call carrying events entries on topic.
// Only successful calls count towards events_published_total.
func (m *Metrics) RecordPublish(ctx context.Context, topic string, events int, durationSeconds float64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.publishLatency.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("topic", topic),
		attribute.String("status", status),
	))
	if err == nil && events > 0 {
		m.eventsPublished.Add(ctx, int64(events), metric.WithAttributes(attribute.String("topic", topic)))
	}
}
