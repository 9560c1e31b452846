package http

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics instruments calls to the payments API.
type Metrics struct {
	requestDuration metric.Float64Histogram
	requestsTotal   metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	duration, err := meter.Float64Histogram(
		"http_client_request_duration_seconds",
		metric.WithDescription("Payments API request duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create http_client_request_duration histogram: %w", err)
	}

	total, err := meter.Int64Counter(
		"http_client_requests_total",
		metric.WithDescription("Payments API requests by outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create http_client_requests_total counter: %w", err)
	}

	return &Metrics{requestDuration: duration, requestsTotal: total}, nil
}

// RecordRequest records one gateway call. statusCode is 0 when no response arrived.
func (m *Metrics) RecordRequest(ctx context.Context, method, route string, statusCode int, durationSeconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status_code", statusCode),
		attribute.String("outcome", outcome(statusCode)),
	)
	m.requestsTotal.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, durationSeconds, attrs)
}

func outcome(statusCode int) string {
	switch {
	case statusCode == 0:
		return "transport_error"
	case statusCode >= 500:
		return "server_error"
	case statusCode >= 400:
		return "client_error"
	default:
		return "ok"
	}
}
