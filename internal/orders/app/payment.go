package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dejobratic/pendingpay/internal/orders/domain"
	"github.com/dejobratic/pendingpay/internal/orders/ports"
)

const DefaultPaymentMethod = "PIX_MP"

// Payer starts payments for one order or a set of orders.
type Payer interface {
	PayOne(ctx context.Context, orderID, eventSlug string) (*domain.PaymentAttempt, error)
	PayMany(ctx context.Context, orderIDs []string) (*domain.PaymentAttempt, error)
	PaySelected(ctx context.Context) (*domain.PaymentAttempt, error)
}

type PaymentConfig struct {
	PaymentMethod string
	PreferSandbox bool
}

// PaymentInitiator fixes the ids to pay and clears the selection before any gateway call,
// so later selection changes can never reach a request already issued.
type PaymentInitiator struct {
	store     *OrderStore
	gateway   ports.BatchPaymentCreator
	navigator ports.Navigator
	ledger    ports.AttemptLedger
	events    ports.EventBus
	cfg       PaymentConfig
	logger    *slog.Logger

	now   func() time.Time
	newID func() string
}

func NewPaymentInitiator(
	store *OrderStore,
	gateway ports.BatchPaymentCreator,
	navigator ports.Navigator,
	ledger ports.AttemptLedger,
	events ports.EventBus,
	cfg PaymentConfig,
	logger *slog.Logger,
) *PaymentInitiator {
	if cfg.PaymentMethod == "" {
		cfg.PaymentMethod = DefaultPaymentMethod
	}
	return &PaymentInitiator{
		store:     store,
		gateway:   gateway,
		navigator: navigator,
		ledger:    ledger,
		events:    events,
		cfg:       cfg,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// PayOne hands off to the payment page of exactly (eventSlug, orderID). The selection is
// cleared whatever it held; an empty slug is rejected before anything changes.
func (p *PaymentInitiator) PayOne(ctx context.Context, orderID, eventSlug string) (*domain.PaymentAttempt, error) {
	if strings.TrimSpace(eventSlug) == "" {
		return nil, fmt.Errorf("%w: order %s", ErrMissingEventSlug, orderID)
	}

	p.store.Selection().Clear()
	return p.payOne(ctx, orderID, eventSlug)
}

// PayMany pays the given ids. Ids no longer held by the store are dropped from the snapshot
// and the selection is cleared before any call. A single remaining id takes the single-order path.
func (p *PaymentInitiator) PayMany(ctx context.Context, orderIDs []string) (*domain.PaymentAttempt, error) {
	return p.paySnapshot(ctx, p.store.Selection().Capture(orderIDs))
}

// PaySelected takes the current selection and clears it in one step, then pays it like PayMany.
func (p *PaymentInitiator) PaySelected(ctx context.Context) (*domain.PaymentAttempt, error) {
	return p.paySnapshot(ctx, p.store.Selection().Take())
}

func (p *PaymentInitiator) paySnapshot(ctx context.Context, snapshot []string) (*domain.PaymentAttempt, error) {
	switch len(snapshot) {
	case 0:
		return nil, ErrEmptySelection
	case 1:
		order, ok := p.store.Get(snapshot[0])
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownOrder, snapshot[0])
		}
		slug := order.EventSlug()
		if slug == "" {
			return nil, fmt.Errorf("%w: order %s", ErrMissingEventSlug, order.OrderID)
		}
		return p.payOne(ctx, order.OrderID, slug)
	default:
		return p.payBatch(ctx, snapshot)
	}
}

func (p *PaymentInitiator) payOne(ctx context.Context, orderID, eventSlug string) (*domain.PaymentAttempt, error) {
	attempt := p.begin(ctx, domain.AttemptSingle, []string{orderID})

	if err := p.navigator.OpenOrderPayment(ctx, eventSlug, orderID); err != nil {
		p.end(ctx, &attempt, domain.OutcomeFailed, err.Error())
		return &attempt, fmt.Errorf("%w: %w", ErrPaymentFailed, err)
	}

	p.end(ctx, &attempt, domain.OutcomeRedirected, eventSlug)
	return &attempt, nil
}

func (p *PaymentInitiator) payBatch(ctx context.Context, orderIDs []string) (*domain.PaymentAttempt, error) {
	attempt := p.begin(ctx, domain.AttemptBatch, orderIDs)

	payment, err := p.gateway.CreateBatchPayment(ctx, ports.BatchPaymentRequest{
		OrderIDs:       slices.Clone(orderIDs),
		PaymentMethod:  p.cfg.PaymentMethod,
		IdempotencyKey: attempt.ID,
	})
	if err != nil {
		p.end(ctx, &attempt, domain.OutcomeFailed, err.Error())
		return &attempt, fmt.Errorf("%w: %w", ErrPaymentFailed, err)
	}

	target, err := p.follow(ctx, payment)
	if err != nil {
		p.end(ctx, &attempt, domain.OutcomeFailed, err.Error())
		return &attempt, err
	}

	p.end(ctx, &attempt, domain.OutcomeRedirected, target)
	return &attempt, nil
}

// follow navigates to the most specific target the batch response offers.
func (p *PaymentInitiator) follow(ctx context.Context, payment *domain.BatchPayment) (string, error) {
	if payment == nil {
		return "", ErrNoPaymentTarget
	}

	urls := []string{payment.RedirectURL, payment.SandboxRedirectURL}
	if p.cfg.PreferSandbox {
		slices.Reverse(urls)
	}
	for _, url := range urls {
		if strings.TrimSpace(url) == "" {
			continue
		}
		if err := p.navigator.OpenURL(ctx, url); err != nil {
			return "", fmt.Errorf("%w: %w", ErrPaymentFailed, err)
		}
		return url, nil
	}

	if payment.Instrument.Usable() {
		if err := p.navigator.ShowInstrument(ctx, *payment.Instrument); err != nil {
			return "", fmt.Errorf("%w: %w", ErrPaymentFailed, err)
		}
		return "instrument:" + payment.PaymentID, nil
	}

	return "", ErrNoPaymentTarget
}

func (p *PaymentInitiator) begin(ctx context.Context, kind domain.AttemptKind, orderIDs []string) domain.PaymentAttempt {
	now := p.now()
	attempt := domain.PaymentAttempt{
		ID:        p.newID(),
		Kind:      kind,
		BuyerCPF:  p.store.Identifier(),
		OrderIDs:  slices.Clone(orderIDs),
		Outcome:   domain.OutcomePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.record(ctx, attempt)
	return attempt
}

func (p *PaymentInitiator) end(ctx context.Context, attempt *domain.PaymentAttempt, outcome domain.AttemptOutcome, detail string) {
	attempt.Outcome = outcome
	attempt.Detail = detail
	attempt.UpdatedAt = p.now()
	p.record(ctx, *attempt)

	if outcome != domain.OutcomeRedirected {
		return
	}
	if err := p.events.PublishPaymentInitiated(ctx, *attempt); err != nil {
		p.logger.WarnContext(ctx, "failed to publish payment initiated",
			"error", err,
			"attempt_id", attempt.ID,
		)
	}
}

// record writes the attempt to the ledger. Ledger failures never block a payment.
func (p *PaymentInitiator) record(ctx context.Context, attempt domain.PaymentAttempt) {
	if err := p.ledger.Save(ctx, attempt); err != nil {
		p.logger.WarnContext(ctx, "failed to record payment attempt",
			"error", err,
			"attempt_id", attempt.ID,
			"outcome", attempt.Outcome,
		)
	}
}
