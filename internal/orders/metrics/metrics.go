package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type Metrics struct {
	pollTicksTotal          metric.Int64Counter
	pollTickDuration        metric.Float64Histogram
	statusChecksTotal       metric.Int64Counter
	ordersSettledTotal      metric.Int64Counter
	paymentInitiationsTotal metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.pollTicksTotal, err = meter.Int64Counter(
		"pendingpay_poll_ticks_total",
		metric.WithDescription("Total number of status polling ticks"),
		metric.WithUnit("{tick}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create pendingpay_poll_ticks_total counter: %w", err)
	}

	m.pollTickDuration, err = meter.Float64Histogram(
		"pendingpay_poll_tick_duration_seconds",
		metric.WithDescription("Duration of a status polling tick including reconciliation"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create pendingpay_poll_tick_duration histogram: %w", err)
	}

	m.statusChecksTotal, err = meter.Int64Counter(
		"pendingpay_status_checks_total",
		metric.WithDescription("Total number of per-order status checks"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create pendingpay_status_checks_total counter: %w", err)
	}

	m.ordersSettledTotal, err = meter.Int64Counter(
		"pendingpay_orders_settled_total",
		metric.WithDescription("Total number of orders removed after a terminal status"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create pendingpay_orders_settled_total counter: %w", err)
	}

	m.paymentInitiationsTotal, err = meter.Int64Counter(
		"pendingpay_payment_initiations_total",
		metric.WithDescription("Total number of payment initiations"),
		metric.WithUnit("{payment}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create pendingpay_payment_initiations_total counter: %w", err)
	}

	return m, nil
}

// NewNoopMetrics returns instruments that record nothing, for wiring without a meter provider.
func NewNoopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider().Meter("pendingpay"))
	return m
}

// RecordPollTick counts a tick by outcome: "reconciled", "stale", "failed" or "canceled".
func (m *Metrics) RecordPollTick(ctx context.Context, outcome string, durationSeconds float64) {
	m.pollTicksTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
	m.pollTickDuration.Record(ctx, durationSeconds)
}

func (m *Metrics) RecordStatusCheck(ctx context.Context, success bool) {
	result := "success"
	if !success {
		result = "error"
	}
	m.statusChecksTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("result", result),
	))
}

func (m *Metrics) RecordOrderSettled(ctx context.Context, status string) {
	m.ordersSettledTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
	))
}

func (m *Metrics) RecordPaymentInitiation(ctx context.Context, kind string, success bool) {
	result := "success"
	if !success {
		result = "error"
	}
	m.paymentInitiationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("result", result),
	))
}
