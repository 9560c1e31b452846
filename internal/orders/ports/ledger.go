package ports

import (
	"context"

	"github.com/dejobratic/pendingpay/internal/orders/domain"
)

// AttemptLedger records issued payment attempts and how they ended.
type AttemptLedger interface {
	Get(ctx context.Context, id string) (*domain.PaymentAttempt, error)
	Save(ctx context.Context, attempt domain.PaymentAttempt) error
}
