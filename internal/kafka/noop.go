package kafka

import (
	"context"
	"log/slog"

	"github.com/dejobratic/pendingpay/internal/orders/domain"
	"github.com/dejobratic/pendingpay/internal/orders/ports"
)

const (
	TopicOrdersSettled    = "orders.settled"
	TopicPaymentInitiated = "payment.initiated"
)

// NoopEventBus logs events without sending them to a broker.
type NoopEventBus struct {
	logger *slog.Logger
}

// NewNoopEventBus returns a new no-op event publisher.
func NewNoopEventBus(logger *slog.Logger) *NoopEventBus {
	return &NoopEventBus{logger: logger}
}

func (n *NoopEventBus) PublishOrdersSettled(ctx context.Context, cpf string, orders []ports.SettledOrder) error {
	ids := make([]string, len(orders))
	statuses := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.OrderID
		statuses[i] = string(o.Status)
	}
	n.logger.DebugContext(ctx, "event::"+TopicOrdersSettled,
		"buyer_cpf", domain.FormatCPF(cpf),
		"order_ids", ids,
		"statuses", statuses,
	)
	return nil
}

func (n *NoopEventBus) PublishPaymentInitiated(ctx context.Context, attempt domain.PaymentAttempt) error {
	n.logger.DebugContext(ctx, "event::"+TopicPaymentInitiated,
		"attempt_id", attempt.ID,
		"kind", attempt.Kind,
		"order_ids", attempt.OrderIDs,
	)
	return nil
}
