package adapters

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/pendingpay/internal/database"
	"github.com/dejobratic/pendingpay/internal/orders/domain"
	"github.com/dejobratic/pendingpay/internal/orders/ports"
	"github.com/dejobratic/pendingpay/internal/telemetry"
)

type ObservableLedger struct {
	ledger  ports.AttemptLedger
	metrics *database.Metrics
}

func NewObservableLedger(ledger ports.AttemptLedger, metrics *database.Metrics) *ObservableLedger {
	return &ObservableLedger{
		ledger:  ledger,
		metrics: metrics,
	}
}

func (l *ObservableLedger) Get(ctx context.Context, id string) (*domain.PaymentAttempt, error) {
	ctx, span := telemetry.StartSpan(ctx, "AttemptLedger.Get")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("attempt.id", id),
		attribute.String("operation", "get"),
	)

	start := time.Now()
	attempt, err := l.ledger.Get(ctx, id)
	duration := time.Since(start).Seconds()

	l.metrics.RecordQuery(ctx, "get_payment_attempt", duration, err)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.AddSpanAttributes(span, attribute.Bool("result.found", attempt != nil))
	telemetry.SetSpanSuccess(span)
	return attempt, nil
}

func (l *ObservableLedger) Save(ctx context.Context, attempt domain.PaymentAttempt) error {
	ctx, span := telemetry.StartSpan(ctx, "AttemptLedger.Save")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("attempt.id", attempt.ID),
		attribute.String("attempt.outcome", string(attempt.Outcome)),
		attribute.String("operation", "save"),
	)

	start := time.Now()
	err := l.ledger.Save(ctx, attempt)
	duration := time.Since(start).Seconds()

	l.metrics.RecordQuery(ctx, "save_payment_attempt", duration, err)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}
