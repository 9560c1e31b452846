package app

import "errors"

var (
	// ErrInvalidIdentifier is returned before any lookup when the CPF is malformed.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrLookupFailed wraps transport failures of the pending-order lookup. Retryable.
	ErrLookupFailed = errors.New("could not load pending orders")

	// ErrNothingToPoll is returned by StatusPoller.Start when the store is empty.
	ErrNothingToPoll = errors.New("no pending orders to poll")

	ErrPollerClosed = errors.New("status poller is closed")

	ErrEmptySelection = errors.New("no orders selected")
	ErrUnknownOrder   = errors.New("order is not pending")

	// ErrMissingEventSlug marks an order without a payment destination.
	ErrMissingEventSlug = errors.New("order has no event to pay through")

	ErrPaymentFailed = errors.New("could not create payment")

	ErrAttemptNotFound = errors.New("payment attempt not found")

	// ErrNoPaymentTarget is returned when a batch payment offers neither a redirect nor instrument data.
	ErrNoPaymentTarget = errors.New("payment response has no redirect target")
)
