package app_test

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/dejobratic/pendingpay/internal/orders/domain"
	"github.com/dejobratic/pendingpay/internal/orders/ports"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func order(id string, totalCents int64, slug string) domain.PendingOrder {
	o := domain.PendingOrder{
		OrderID:    id,
		BuyerCPF:   "52998224725",
		TotalCents: totalCents,
		Payment:    &domain.PaymentSnapshot{Status: domain.StatusPending, PaymentMethod: "PIX_MP"},
	}
	if slug != "" {
		o.Event = &domain.EventRef{ID: "evt-" + slug, Title: slug, Slug: slug}
	}
	return o
}

func orderIDs(orders []domain.PendingOrder) []string {
	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.OrderID
	}
	return ids
}

type mockGateway struct {
	lookupFn func(ctx context.Context, cpf string) ([]domain.PendingOrder, error)
	statusFn func(ctx context.Context, orderID string) (domain.StatusReport, error)
	batchFn  func(ctx context.Context, req ports.BatchPaymentRequest) (*domain.BatchPayment, error)

	mu       sync.Mutex
	lookups  []string
	requests []ports.BatchPaymentRequest
}

func (m *mockGateway) LookupPendingOrders(ctx context.Context, cpf string) ([]domain.PendingOrder, error) {
	m.mu.Lock()
	m.lookups = append(m.lookups, cpf)
	m.mu.Unlock()
	if m.lookupFn != nil {
		return m.lookupFn(ctx, cpf)
	}
	return nil, nil
}

func (m *mockGateway) GetOrderStatus(ctx context.Context, orderID string) (domain.StatusReport, error) {
	if m.statusFn != nil {
		return m.statusFn(ctx, orderID)
	}
	return domain.StatusReport{Status: domain.StatusPending}, nil
}

func (m *mockGateway) CreateBatchPayment(ctx context.Context, req ports.BatchPaymentRequest) (*domain.BatchPayment, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.batchFn != nil {
		return m.batchFn(ctx, req)
	}
	return &domain.BatchPayment{PaymentID: "pay-1", RedirectURL: "https://pay.example/checkout"}, nil
}

func (m *mockGateway) lookupCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lookups)
}

func (m *mockGateway) batchRequests() []ports.BatchPaymentRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.BatchPaymentRequest(nil), m.requests...)
}

type navigation struct {
	slug       string
	orderID    string
	url        string
	instrument *domain.PaymentInstrument
}

type mockNavigator struct {
	err error

	mu    sync.Mutex
	calls []navigation
}

func (m *mockNavigator) OpenOrderPayment(_ context.Context, eventSlug, orderID string) error {
	m.record(navigation{slug: eventSlug, orderID: orderID})
	return m.err
}

func (m *mockNavigator) OpenURL(_ context.Context, url string) error {
	m.record(navigation{url: url})
	return m.err
}

func (m *mockNavigator) ShowInstrument(_ context.Context, instrument domain.PaymentInstrument) error {
	m.record(navigation{instrument: &instrument})
	return m.err
}

func (m *mockNavigator) record(n navigation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, n)
}

func (m *mockNavigator) navigations() []navigation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]navigation(nil), m.calls...)
}

type mockLedger struct {
	saveFn func(ctx context.Context, attempt domain.PaymentAttempt) error

	mu       sync.Mutex
	attempts map[string]domain.PaymentAttempt
}

func (m *mockLedger) Get(_ context.Context, id string) (*domain.PaymentAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	attempt, ok := m.attempts[id]
	if !ok {
		return nil, nil
	}
	return &attempt, nil
}

func (m *mockLedger) Save(ctx context.Context, attempt domain.PaymentAttempt) error {
	if m.saveFn != nil {
		if err := m.saveFn(ctx, attempt); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attempts == nil {
		m.attempts = make(map[string]domain.PaymentAttempt)
	}
	m.attempts[attempt.ID] = attempt
	return nil
}

type mockEventBus struct {
	mu        sync.Mutex
	settled   [][]ports.SettledOrder
	initiated []domain.PaymentAttempt
}

func (m *mockEventBus) PublishOrdersSettled(_ context.Context, _ string, orders []ports.SettledOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settled = append(m.settled, orders)
	return nil
}

func (m *mockEventBus) PublishPaymentInitiated(_ context.Context, attempt domain.PaymentAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initiated = append(m.initiated, attempt)
	return nil
}

func (m *mockEventBus) settledBatches() [][]ports.SettledOrder {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]ports.SettledOrder(nil), m.settled...)
}

func (m *mockEventBus) initiatedAttempts() []domain.PaymentAttempt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.PaymentAttempt(nil), m.initiated...)
}
