package adapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/pendingpay/internal/orders/domain"
	"github.com/dejobratic/pendingpay/internal/orders/ports"
	"github.com/dejobratic/pendingpay/internal/telemetry"
)

type ObservableGateway struct {
	gateway ports.Gateway
}

func NewObservableGateway(gateway ports.Gateway) *ObservableGateway {
	return &ObservableGateway{gateway: gateway}
}

func (g *ObservableGateway) LookupPendingOrders(ctx context.Context, cpf string) ([]domain.PendingOrder, error) {
	ctx, span := telemetry.StartSpan(ctx, "Gateway.LookupPendingOrders")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("operation", "lookup_pending_orders"),
	)

	orders, err := g.gateway.LookupPendingOrders(ctx, cpf)
	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.AddSpanAttributes(span, attribute.Int("result.count", len(orders)))
	telemetry.SetSpanSuccess(span)
	return orders, nil
}

func (g *ObservableGateway) GetOrderStatus(ctx context.Context, orderID string) (domain.StatusReport, error) {
	ctx, span := telemetry.StartSpan(ctx, "Gateway.GetOrderStatus")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", orderID),
		attribute.String("operation", "get_order_status"),
	)

	report, err := g.gateway.GetOrderStatus(ctx, orderID)
	if err != nil {
		telemetry.RecordSpanError(span, err)
		return domain.StatusReport{}, err
	}

	telemetry.AddSpanAttributes(span, attribute.String("payment.status", string(report.Status)))
	telemetry.SetSpanSuccess(span)
	return report, nil
}

func (g *ObservableGateway) CreateBatchPayment(ctx context.Context, req ports.BatchPaymentRequest) (*domain.BatchPayment, error) {
	ctx, span := telemetry.StartSpan(ctx, "Gateway.CreateBatchPayment")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.StringSlice("order.ids", req.OrderIDs),
		attribute.String("payment.method", req.PaymentMethod),
		attribute.String("idempotency_key", req.IdempotencyKey),
		attribute.String("operation", "create_batch_payment"),
	)

	payment, err := g.gateway.CreateBatchPayment(ctx, req)
	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.AddSpanAttributes(span,
		attribute.String("payment.id", payment.PaymentID),
		attribute.Int64("payment.total_cents", payment.TotalCents),
	)
	telemetry.SetSpanSuccess(span)
	return payment, nil
}
