package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dejobratic/pendingpay/internal/orders/adapters/memory"
	"github.com/dejobratic/pendingpay/internal/orders/domain"
	"github.com/dejobratic/pendingpay/internal/orders/ports"
)

func pending(id, cpf string, totalCents int64) domain.PendingOrder {
	return domain.PendingOrder{
		OrderID:    id,
		BuyerCPF:   cpf,
		TotalCents: totalCents,
		Event:      &domain.EventRef{ID: "e1", Title: "Retiro", Slug: "retiro"},
		Payment:    &domain.PaymentSnapshot{Status: domain.StatusPending, PaymentMethod: "PIX_MP"},
	}
}

func TestGatewayLookup(t *testing.T) {
	gateway := memory.NewGateway(
		pending("B", "52998224725", 2000),
		pending("A", "52998224725", 1000),
		pending("C", "11144477735", 500),
	)
	ctx := context.Background()

	orders, err := gateway.LookupPendingOrders(ctx, "52998224725")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(orders) != 2 || orders[0].OrderID != "A" || orders[1].OrderID != "B" {
		t.Fatalf("expected orders A, B, got %+v", orders)
	}

	if err := gateway.SetStatus("A", domain.StatusPaid); err != nil {
		t.Fatalf("SetStatus() failed: %v", err)
	}
	orders, _ = gateway.LookupPendingOrders(ctx, "52998224725")
	if len(orders) != 1 || orders[0].OrderID != "B" {
		t.Errorf("expected settled order to disappear, got %+v", orders)
	}
}

func TestGatewayGetOrderStatus(t *testing.T) {
	gateway := memory.NewGateway(pending("A", "52998224725", 1000))
	ctx := context.Background()

	report, err := gateway.GetOrderStatus(ctx, "A")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if report.Status != domain.StatusPending {
		t.Errorf("expected PENDING, got %s", report.Status)
	}

	_ = gateway.SetStatus("A", domain.StatusCanceled)
	report, _ = gateway.GetOrderStatus(ctx, "A")
	if report.Status != domain.StatusCanceled || report.PaymentMethod != "PIX_MP" {
		t.Errorf("unexpected report after cancel: %+v", report)
	}

	if _, err := gateway.GetOrderStatus(ctx, "missing"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := gateway.SetStatus("missing", domain.StatusPaid); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGatewayCreateBatchPayment(t *testing.T) {
	gateway := memory.NewGateway(pending("A", "52998224725", 1000), pending("B", "52998224725", 2500))
	ctx := context.Background()
	req := ports.BatchPaymentRequest{OrderIDs: []string{"A", "B"}, PaymentMethod: "PIX_MP", IdempotencyKey: "key-1"}

	first, err := gateway.CreateBatchPayment(ctx, req)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if first.TotalCents != 3500 || first.OrderCount != 2 || first.RedirectURL == "" {
		t.Errorf("unexpected payment: %+v", first)
	}

	again, err := gateway.CreateBatchPayment(ctx, req)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if again.PaymentID != first.PaymentID {
		t.Errorf("expected idempotent replay %s, got %s", first.PaymentID, again.PaymentID)
	}

	other, _ := gateway.CreateBatchPayment(ctx, ports.BatchPaymentRequest{OrderIDs: []string{"A", "B"}, IdempotencyKey: "key-2"})
	if other.PaymentID == first.PaymentID {
		t.Error("expected a new payment for a new key")
	}

	if _, err := gateway.CreateBatchPayment(ctx, ports.BatchPaymentRequest{OrderIDs: []string{"A", "nope"}}); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown order, got %v", err)
	}
}
