package domain

import "time"

// AttemptKind distinguishes single-order hand-offs from batch payment requests.
type AttemptKind string

const (
	AttemptSingle AttemptKind = "single"
	AttemptBatch  AttemptKind = "batch"
)

// AttemptOutcome records how a payment attempt ended on the client side.
type AttemptOutcome string

const (
	OutcomePending    AttemptOutcome = "pending"
	OutcomeRedirected AttemptOutcome = "redirected"
	OutcomeFailed     AttemptOutcome = "failed"
)

// PaymentAttempt is the immutable snapshot of order ids a payment was issued for.
// ID doubles as the idempotency key sent to the gateway.
type PaymentAttempt struct {
	ID        string         `json:"id"`
	Kind      AttemptKind    `json:"kind"`
	BuyerCPF  string         `json:"buyer_cpf"`
	OrderIDs  []string       `json:"order_ids"`
	Outcome   AttemptOutcome `json:"outcome"`
	Detail    string         `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// IsTerminal indicates whether the attempt outcome is final.
func (a PaymentAttempt) IsTerminal() bool {
	return a.Outcome == OutcomeRedirected || a.Outcome == OutcomeFailed
}
