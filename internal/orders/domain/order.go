package domain

import (
	"time"
)

// PaymentStatus is the gateway-reported state of an order's payment.
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "PENDING"
	StatusInProcess PaymentStatus = "IN_PROCESS"
	StatusPaid      PaymentStatus = "PAID"
	StatusCanceled  PaymentStatus = "CANCELED"
)

// IsTerminal indicates whether no further polling is needed for the status.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case StatusPaid, StatusCanceled:
		return true
	default:
		return false
	}
}

// EventRef points at the event an order was created for.
type EventRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug,omitempty"`
}

// Registration is a display-only line item of an order.
type Registration struct {
	ID           string `json:"id"`
	FullName     string `json:"fullName"`
	CPF          string `json:"cpf"`
	ChurchName   string `json:"churchName"`
	DistrictName string `json:"districtName"`
}

// PaymentSnapshot is the last known gateway status of an order.
type PaymentSnapshot struct {
	Status        PaymentStatus `json:"status"`
	PaymentMethod string        `json:"paymentMethod"`
	InitPoint     string        `json:"initPoint,omitempty"`
	PaidAt        *time.Time    `json:"paidAt,omitempty"`
}

// PendingOrder is an unpaid registration order owned by a buyer CPF.
type PendingOrder struct {
	OrderID       string           `json:"orderId"`
	Event         *EventRef        `json:"event,omitempty"`
	BuyerCPF      string           `json:"buyerCpf"`
	TotalCents    int64            `json:"totalCents"`
	Registrations []Registration   `json:"registrations"`
	Payment       *PaymentSnapshot `json:"payment,omitempty"`
}

// EventSlug returns the slug of the order's event, empty when the order has no payment destination.
func (o PendingOrder) EventSlug() string {
	if o.Event == nil {
		return ""
	}
	return o.Event.Slug
}

// CachedStatus returns the status held in the payment snapshot, if any.
func (o PendingOrder) CachedStatus() (PaymentStatus, bool) {
	if o.Payment == nil {
		return "", false
	}
	return o.Payment.Status, true
}

// Clone returns a deep copy so callers cannot mutate store-owned state.
func (o PendingOrder) Clone() PendingOrder {
	out := o
	if o.Event != nil {
		event := *o.Event
		out.Event = &event
	}
	if o.Registrations != nil {
		out.Registrations = make([]Registration, len(o.Registrations))
		copy(out.Registrations, o.Registrations)
	}
	if o.Payment != nil {
		payment := *o.Payment
		if o.Payment.PaidAt != nil {
			paidAt := *o.Payment.PaidAt
			payment.PaidAt = &paidAt
		}
		out.Payment = &payment
	}
	return out
}

// StatusReport is the answer of a single status check.
type StatusReport struct {
	Status        PaymentStatus `json:"status"`
	PaymentMethod string        `json:"paymentMethod"`
	PaidAt        *time.Time    `json:"paidAt,omitempty"`
}

// Snapshot converts the report into the cached form kept on an order.
func (r StatusReport) Snapshot(previous *PaymentSnapshot) *PaymentSnapshot {
	next := &PaymentSnapshot{
		Status:        r.Status,
		PaymentMethod: r.PaymentMethod,
		PaidAt:        r.PaidAt,
	}
	if previous != nil {
		next.InitPoint = previous.InitPoint
		if next.PaymentMethod == "" {
			next.PaymentMethod = previous.PaymentMethod
		}
	}
	return next
}

// PaymentInstrument carries data for paying without a redirect, e.g. a PIX QR code.
type PaymentInstrument struct {
	QRCode       string `json:"qr_code,omitempty"`
	QRCodeBase64 string `json:"qr_code_base64,omitempty"`
	TicketURL    string `json:"ticket_url,omitempty"`
}

// Usable reports whether the instrument carries anything a payer can act on.
func (i *PaymentInstrument) Usable() bool {
	return i != nil && (i.QRCode != "" || i.TicketURL != "")
}

// BatchPayment is the gateway's answer to a multi-order payment request.
type BatchPayment struct {
	PaymentID          string
	RedirectURL        string
	SandboxRedirectURL string
	Instrument         *PaymentInstrument
	OrderCount         int
	TotalCents         int64
}
