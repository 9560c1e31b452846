package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dejobratic/pendingpay/internal/orders/domain"
	"github.com/dejobratic/pendingpay/internal/orders/ports"
)

// Gateway provides an in-memory payments backend useful for local development and tests.
type Gateway struct {
	mu       sync.RWMutex
	orders   map[string]domain.PendingOrder
	payments map[string]*domain.BatchPayment
	seq      int
}

// NewGateway constructs a gateway seeded with orders.
func NewGateway(orders ...domain.PendingOrder) *Gateway {
	g := &Gateway{
		orders:   make(map[string]domain.PendingOrder),
		payments: make(map[string]*domain.BatchPayment),
	}
	for _, order := range orders {
		g.orders[order.OrderID] = order.Clone()
	}
	return g
}

// LookupPendingOrders returns every non-terminal order of cpf, oldest id first.
func (g *Gateway) LookupPendingOrders(_ context.Context, cpf string) ([]domain.PendingOrder, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	result := []domain.PendingOrder{}
	for _, order := range g.orders {
		if order.BuyerCPF != cpf {
			continue
		}
		if status, ok := order.CachedStatus(); ok && status.IsTerminal() {
			continue
		}
		result = append(result, order.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].OrderID < result[j].OrderID
	})
	return result, nil
}

// GetOrderStatus reports the status held for orderID.
func (g *Gateway) GetOrderStatus(_ context.Context, orderID string) (domain.StatusReport, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	order, ok := g.orders[orderID]
	if !ok {
		return domain.StatusReport{}, ports.ErrNotFound
	}
	if order.Payment == nil {
		return domain.StatusReport{Status: domain.StatusPending}, nil
	}
	return domain.StatusReport{
		Status:        order.Payment.Status,
		PaymentMethod: order.Payment.PaymentMethod,
		PaidAt:        order.Payment.PaidAt,
	}, nil
}

// CreateBatchPayment issues a payment for the given orders. Repeating an idempotency key
// returns the payment created the first time.
func (g *Gateway) CreateBatchPayment(_ context.Context, req ports.BatchPaymentRequest) (*domain.BatchPayment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if req.IdempotencyKey != "" {
		if payment, ok := g.payments[req.IdempotencyKey]; ok {
			out := *payment
			return &out, nil
		}
	}

	var total int64
	for _, id := range req.OrderIDs {
		order, ok := g.orders[id]
		if !ok {
			return nil, fmt.Errorf("order %s: %w", id, ports.ErrNotFound)
		}
		total += order.TotalCents
	}

	g.seq++
	paymentID := fmt.Sprintf("mem-pay-%d", g.seq)
	payment := &domain.BatchPayment{
		PaymentID:   paymentID,
		RedirectURL: "memory://checkout/" + paymentID,
		OrderCount:  len(req.OrderIDs),
		TotalCents:  total,
	}
	if req.IdempotencyKey != "" {
		g.payments[req.IdempotencyKey] = payment
	}

	out := *payment
	return &out, nil
}

// SetStatus changes the status of an order, simulating the payment provider settling it.
func (g *Gateway) SetStatus(orderID string, status domain.PaymentStatus) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	order, ok := g.orders[orderID]
	if !ok {
		return ports.ErrNotFound
	}

	snapshot := domain.StatusReport{Status: status}.Snapshot(order.Payment)
	order.Payment = snapshot
	g.orders[orderID] = order
	return nil
}

var _ ports.Gateway = (*Gateway)(nil)
