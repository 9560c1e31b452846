package app

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dejobratic/pendingpay/internal/orders/domain"
	"github.com/dejobratic/pendingpay/internal/orders/metrics"
	"github.com/dejobratic/pendingpay/internal/telemetry"
)

type ObservablePayer struct {
	payer   Payer
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservablePayer(payer Payer, logger *slog.Logger, metrics *metrics.Metrics) *ObservablePayer {
	return &ObservablePayer{
		payer:   payer,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservablePayer) PayOne(ctx context.Context, orderID, eventSlug string) (*domain.PaymentAttempt, error) {
	ctx, span := telemetry.StartSpan(ctx, "PaymentInitiator.PayOne")
	defer span.End()

	o.logger.InfoContext(ctx, "paying single order",
		"order_id", orderID,
		"event_slug", eventSlug,
	)

	attempt, err := o.payer.PayOne(ctx, orderID, eventSlug)
	return o.observe(ctx, span, domain.AttemptSingle, []string{orderID}, attempt, err)
}

func (o *ObservablePayer) PayMany(ctx context.Context, orderIDs []string) (*domain.PaymentAttempt, error) {
	ctx, span := telemetry.StartSpan(ctx, "PaymentInitiator.PayMany")
	defer span.End()

	o.logger.InfoContext(ctx, "paying selected orders",
		"order_ids", orderIDs,
	)

	attempt, err := o.payer.PayMany(ctx, orderIDs)
	return o.observe(ctx, span, domain.AttemptBatch, orderIDs, attempt, err)
}

func (o *ObservablePayer) PaySelected(ctx context.Context) (*domain.PaymentAttempt, error) {
	ctx, span := telemetry.StartSpan(ctx, "PaymentInitiator.PaySelected")
	defer span.End()

	o.logger.InfoContext(ctx, "paying current selection")

	attempt, err := o.payer.PaySelected(ctx)
	return o.observe(ctx, span, domain.AttemptBatch, nil, attempt, err)
}

func (o *ObservablePayer) observe(
	ctx context.Context,
	span trace.Span,
	kind domain.AttemptKind,
	orderIDs []string,
	attempt *domain.PaymentAttempt,
	err error,
) (*domain.PaymentAttempt, error) {
	if attempt != nil {
		kind = attempt.Kind
		orderIDs = attempt.OrderIDs
		telemetry.AddSpanAttributes(span,
			attribute.String("attempt.id", attempt.ID),
			attribute.String("attempt.outcome", string(attempt.Outcome)),
		)
	}
	telemetry.AddSpanAttributes(span,
		attribute.String("attempt.kind", string(kind)),
		attribute.String("orders.ids", strings.Join(orderIDs, ",")),
	)
	o.metrics.RecordPaymentInitiation(ctx, string(kind), err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "failed to initiate payment",
			"error", err,
			"kind", kind,
			"order_ids", orderIDs,
		)
		return attempt, err
	}

	o.logger.InfoContext(ctx, "payment initiated",
		"attempt_id", attempt.ID,
		"kind", kind,
		"order_ids", orderIDs,
		"target", attempt.Detail,
	)
	telemetry.SetSpanSuccess(span)

	return attempt, nil
}
