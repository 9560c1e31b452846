package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dejobratic/pendingpay/internal/orders/domain"
	"github.com/dejobratic/pendingpay/internal/orders/metrics"
	"github.com/dejobratic/pendingpay/internal/orders/ports"
)

// Options tunes polling, reconciliation and payment behavior of a Service.
type Options struct {
	Poll            PollerConfig
	Payment         PaymentConfig
	RefreshOnSettle bool
	SettledTTL      time.Duration
}

// Service is the pending-order session exposed to presentation code. It owns the store,
// the selection, the status poller and the payment path.
type Service struct {
	lookup  ports.PendingOrderLookup
	ledger  ports.AttemptLedger
	store   *OrderStore
	settled *SettledTracker
	poller  *StatusPoller
	payer   Payer
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewService wires required dependencies.
func NewService(
	gateway ports.Gateway,
	navigator ports.Navigator,
	ledger ports.AttemptLedger,
	events ports.EventBus,
	opts Options,
	logger *slog.Logger,
	metrics *metrics.Metrics,
) *Service {
	store := NewOrderStore()
	settled := NewSettledTracker(opts.SettledTTL)

	reconciler := NewReconciler(store, gateway, events, settled, opts.RefreshOnSettle, logger, metrics)
	poller := NewStatusPoller(store, gateway, reconciler, opts.Poll, logger, metrics)

	corePayer := NewPaymentInitiator(store, gateway, navigator, ledger, events, opts.Payment, logger)
	payer := NewObservablePayer(corePayer, logger, metrics)

	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		lookup:  gateway,
		ledger:  ledger,
		store:   store,
		settled: settled,
		poller:  poller,
		payer:   payer,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Lookup loads the pending orders of cpf into the store and starts polling them.
// A failed lookup leaves the current orders in place.
func (s *Service) Lookup(ctx context.Context, cpf string) ([]domain.PendingOrder, error) {
	identifier := domain.SanitizeCPF(cpf)
	if err := domain.ValidateCPF(identifier); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidIdentifier, err)
	}

	orders, err := s.lookup.LookupPendingOrders(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}

	if s.store.Identifier() != identifier {
		s.settled.Forget()
	}
	s.store.ReplaceAll(identifier, orders)

	if s.store.IsEmpty() {
		s.poller.Stop()
	} else if err := s.poller.Start(s.ctx); err != nil && !errors.Is(err, ErrNothingToPoll) {
		return nil, err
	}
	return s.store.Orders(), nil
}

// Toggle flips the selection of orderID and reports whether it is selected afterwards.
func (s *Service) Toggle(orderID string) bool {
	return s.store.Selection().Toggle(orderID)
}

// SelectedTotal sums the selected orders in cents.
func (s *Service) SelectedTotal() int64 {
	return s.store.Selection().Total()
}

func (s *Service) Orders() []domain.PendingOrder {
	return s.store.Orders()
}

func (s *Service) Selected() []string {
	return s.store.Selection().IDs()
}

func (s *Service) View() View {
	return s.store.View()
}

// Subscribe registers fn for every store change. See OrderStore.Subscribe.
func (s *Service) Subscribe(fn func(View)) (unsubscribe func()) {
	return s.store.Subscribe(fn)
}

// Polling reports whether status polling is active.
func (s *Service) Polling() bool {
	return s.poller.Running()
}

func (s *Service) PayOne(ctx context.Context, orderID, eventSlug string) (*domain.PaymentAttempt, error) {
	return s.payer.PayOne(ctx, orderID, eventSlug)
}

func (s *Service) PayMany(ctx context.Context, orderIDs []string) (*domain.PaymentAttempt, error) {
	return s.payer.PayMany(ctx, orderIDs)
}

// PaySelected pays whatever is selected right now.
func (s *Service) PaySelected(ctx context.Context) (*domain.PaymentAttempt, error) {
	return s.payer.PaySelected(ctx)
}

// Attempt returns a recorded payment attempt by id.
func (s *Service) Attempt(ctx context.Context, id string) (*domain.PaymentAttempt, error) {
	attempt, err := s.ledger.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading payment attempt %s: %w", id, err)
	}
	if attempt == nil {
		return nil, fmt.Errorf("%w: %s", ErrAttemptNotFound, id)
	}
	return attempt, nil
}

// Close ends the session: polling is cancelled and Close returns once the poller exited.
// A Lookup after Close fails with ErrPollerClosed and starts no polling.
func (s *Service) Close() {
	s.cancel()
	s.poller.Close()
}
