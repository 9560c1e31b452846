package ports

import (
	"context"

	"github.com/dejobratic/pendingpay/internal/orders/domain"
)

// Navigator hands the payer off to wherever the payment continues.
type Navigator interface {
	OpenOrderPayment(ctx context.Context, eventSlug, orderID string) error
	OpenURL(ctx context.Context, url string) error
	ShowInstrument(ctx context.Context, instrument domain.PaymentInstrument) error
}
