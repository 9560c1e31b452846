package ports

import (
	"context"
	"errors"

	"github.com/dejobratic/pendingpay/internal/orders/domain"
)

// PendingOrderLookup returns every pending order owned by a buyer CPF.
type PendingOrderLookup interface {
	LookupPendingOrders(ctx context.Context, cpf string) ([]domain.PendingOrder, error)
}

// StatusChecker asks the payment gateway for the current status of one order.
type StatusChecker interface {
	GetOrderStatus(ctx context.Context, orderID string) (domain.StatusReport, error)
}

// BatchPaymentCreator issues one payment request covering several orders.
type BatchPaymentCreator interface {
	CreateBatchPayment(ctx context.Context, req BatchPaymentRequest) (*domain.BatchPayment, error)
}

// Gateway is the transport collaborator the pending-order session talks to.
type Gateway interface {
	PendingOrderLookup
	StatusChecker
	BatchPaymentCreator
}

// BatchPaymentRequest carries the immutable id snapshot of a batch payment.
type BatchPaymentRequest struct {
	OrderIDs       []string
	PaymentMethod  string
	IdempotencyKey string
}

var (
	// ErrNotFound is returned when the gateway does not know the requested order.
	ErrNotFound = errors.New("order not found")
)
