package ports

import (
	"context"

	"github.com/dejobratic/pendingpay/internal/orders/domain"
)

// SettledOrder is an order removed from the working set after a terminal status.
type SettledOrder struct {
	OrderID string
	Status  domain.PaymentStatus
}

// EventBus defines the contract for publishing reconciliation and payment events.
type EventBus interface {
	PublishOrdersSettled(ctx context.Context, cpf string, orders []SettledOrder) error
	PublishPaymentInitiated(ctx context.Context, attempt domain.PaymentAttempt) error
}
