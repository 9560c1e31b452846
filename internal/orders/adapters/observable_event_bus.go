package adapters

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/pendingpay/internal/kafka"
	"github.com/dejobratic/pendingpay/internal/orders/domain"
	"github.com/dejobratic/pendingpay/internal/orders/ports"
	"github.com/dejobratic/pendingpay/internal/telemetry"
)

type ObservableEventBus struct {
	bus     ports.EventBus
	metrics *kafka.Metrics
}

func NewObservableEventBus(bus ports.EventBus, metrics *kafka.Metrics) *ObservableEventBus {
	return &ObservableEventBus{
		bus:     bus,
		metrics: metrics,
	}
}

func (e *ObservableEventBus) PublishOrdersSettled(ctx context.Context, cpf string, orders []ports.SettledOrder) error {
	ctx, span := telemetry.StartSpan(ctx, "EventBus.PublishOrdersSettled")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.Int("orders.count", len(orders)),
		attribute.String("event.type", kafka.TopicOrdersSettled),
		attribute.String("topic", kafka.TopicOrdersSettled),
	)

	start := time.Now()
	err := e.bus.PublishOrdersSettled(ctx, cpf, orders)
	duration := time.Since(start).Seconds()

	e.metrics.RecordPublish(ctx, kafka.TopicOrdersSettled, len(orders), duration, err)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

func (e *ObservableEventBus) PublishPaymentInitiated(ctx context.Context, attempt domain.PaymentAttempt) error {
	ctx, span := telemetry.StartSpan(ctx, "EventBus.PublishPaymentInitiated")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("attempt.id", attempt.ID),
		attribute.String("attempt.kind", string(attempt.Kind)),
		attribute.String("event.type", kafka.TopicPaymentInitiated),
		attribute.String("topic", kafka.TopicPaymentInitiated),
	)

	start := time.Now()
	err := e.bus.PublishPaymentInitiated(ctx, attempt)
	duration := time.Since(start).Seconds()

	e.metrics.RecordPublish(ctx, kafka.TopicPaymentInitiated, 1, duration, err)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}
