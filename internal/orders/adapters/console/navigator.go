package console

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/dejobratic/pendingpay/internal/orders/domain"
	"github.com/dejobratic/pendingpay/internal/orders/ports"
)

// Navigator prints payment destinations for the payer to open.
type Navigator struct {
	mu          sync.Mutex
	out         io.Writer
	pageBaseURL string
}

func NewNavigator(out io.Writer, pageBaseURL string) *Navigator {
	return &Navigator{out: out, pageBaseURL: strings.TrimRight(pageBaseURL, "/")}
}

// PaymentPageURL builds the single-order payment page address.
func (n *Navigator) PaymentPageURL(eventSlug, orderID string) string {
	return fmt.Sprintf("%s/evento/%s/pagamento/%s", n.pageBaseURL, url.PathEscape(eventSlug), url.PathEscape(orderID))
}

func (n *Navigator) OpenOrderPayment(_ context.Context, eventSlug, orderID string) error {
	return n.printf("Pay order %s at: %s\n", orderID, n.PaymentPageURL(eventSlug, orderID))
}

func (n *Navigator) OpenURL(_ context.Context, target string) error {
	return n.printf("Continue the payment at: %s\n", target)
}

func (n *Navigator) ShowInstrument(_ context.Context, instrument domain.PaymentInstrument) error {
	var b strings.Builder
	b.WriteString("Pay with PIX\n")
	if instrument.QRCode != "" {
		fmt.Fprintf(&b, "  copy and paste code: %s\n", instrument.QRCode)
	}
	if instrument.TicketURL != "" {
		fmt.Fprintf(&b, "  ticket: %s\n", instrument.TicketURL)
	}
	return n.printf("%s", b.String())
}

func (n *Navigator) printf(format string, args ...any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := fmt.Fprintf(n.out, format, args...)
	return err
}

// FormatCents renders an amount in cents as Brazilian reais, e.g. R$ 1.234,50.
func FormatCents(cents int64) string {
	amount := decimal.New(cents, -2)
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}

	whole, frac, _ := strings.Cut(amount.StringFixed(2), ".")
	var grouped strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}
	return fmt.Sprintf("%sR$ %s,%s", sign, grouped.String(), frac)
}

var _ ports.Navigator = (*Navigator)(nil)
