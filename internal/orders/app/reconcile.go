package app

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/pendingpay/internal/orders/domain"
	"github.com/dejobratic/pendingpay/internal/orders/metrics"
	"github.com/dejobratic/pendingpay/internal/orders/ports"
	"github.com/dejobratic/pendingpay/internal/telemetry"
)

// ReconcileResult summarizes one reconciliation pass.
type ReconcileResult struct {
	Stale     bool
	Updated   int
	Removed   int
	Remaining int
	Refreshed bool
}

// Reconciler merges a completed status pass into the store. Terminal orders leave the store
// and the selection together; non-terminal ones only get their cached status refreshed.
type Reconciler struct {
	store   *OrderStore
	lookup  ports.PendingOrderLookup
	events  ports.EventBus
	settled *SettledTracker
	refresh bool
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewReconciler wires required dependencies. When refresh is set, a pass that removed orders
// but left others reloads the list from lookup.
func NewReconciler(
	store *OrderStore,
	lookup ports.PendingOrderLookup,
	events ports.EventBus,
	settled *SettledTracker,
	refresh bool,
	logger *slog.Logger,
	metrics *metrics.Metrics,
) *Reconciler {
	return &Reconciler{
		store:   store,
		lookup:  lookup,
		events:  events,
		settled: settled,
		refresh: refresh,
		logger:  logger,
		metrics: metrics,
	}
}

func (r *Reconciler) Apply(ctx context.Context, pass Pass) ReconcileResult {
	ctx, span := telemetry.StartSpan(ctx, "Reconciler.Apply")
	defer span.End()

	change := Change{
		Generation: pass.Generation,
		Updates:    make(map[string]domain.StatusReport),
	}
	terminal := make(map[string]domain.PaymentStatus)
	for _, res := range pass.Results {
		if res.Err != nil {
			continue
		}
		if res.Report.Status.IsTerminal() {
			terminal[res.OrderID] = res.Report.Status
			change.Remove = append(change.Remove, res.OrderID)
			continue
		}
		change.Updates[res.OrderID] = res.Report
	}

	applied := r.store.Apply(change)
	if !applied.Applied {
		r.logger.DebugContext(ctx, "discarding stale reconciliation pass",
			"pass_generation", pass.Generation,
		)
		telemetry.AddSpanAttributes(span, attribute.Bool("pass.stale", true))
		return ReconcileResult{Stale: true, Remaining: applied.Remaining}
	}

	result := ReconcileResult{
		Updated:   applied.Updated,
		Removed:   len(applied.Removed),
		Remaining: applied.Remaining,
	}

	if len(applied.Removed) > 0 {
		r.settle(ctx, applied.Removed, terminal)

		if r.refresh && applied.Remaining > 0 {
			result.Refreshed = r.reload(ctx, pass.Generation)
			if result.Refreshed {
				result.Remaining = r.store.Len()
				telemetry.AddSpanEvent(span, "orders.refreshed", attribute.Int("orders.remaining", result.Remaining))
			}
		}
	}

	telemetry.AddSpanAttributes(span,
		attribute.Int("orders.updated", result.Updated),
		attribute.Int("orders.removed", result.Removed),
		attribute.Int("orders.remaining", result.Remaining),
	)
	telemetry.SetSpanSuccess(span)

	return result
}

func (r *Reconciler) settle(ctx context.Context, removed []domain.PendingOrder, statuses map[string]domain.PaymentStatus) {
	ids := make([]string, 0, len(removed))
	orders := make([]ports.SettledOrder, 0, len(removed))
	for _, order := range removed {
		status := statuses[order.OrderID]
		ids = append(ids, order.OrderID)
		orders = append(orders, ports.SettledOrder{OrderID: order.OrderID, Status: status})
		r.metrics.RecordOrderSettled(ctx, string(status))
	}
	r.settled.Mark(ids...)

	r.logger.InfoContext(ctx, "orders settled",
		"order_ids", ids,
	)

	if err := r.events.PublishOrdersSettled(ctx, r.store.Identifier(), orders); err != nil {
		r.logger.WarnContext(ctx, "failed to publish settled orders",
			"error", err,
			"order_ids", ids,
		)
	}
}

// reload replaces the store with a fresh lookup unless the store moved to another generation
// meanwhile. Orders that recently settled are left out even when the lookup still lists them.
func (r *Reconciler) reload(ctx context.Context, generation uint64) bool {
	identifier := r.store.Identifier()
	orders, err := r.lookup.LookupPendingOrders(ctx, identifier)
	if err != nil {
		r.logger.WarnContext(ctx, "failed to refresh pending orders",
			"error", err,
		)
		return false
	}

	fresh := orders[:0:0]
	for _, order := range orders {
		if r.settled.Settled(order.OrderID) {
			continue
		}
		fresh = append(fresh, order)
	}

	if !r.store.ReplaceIfCurrent(generation, fresh) {
		r.logger.DebugContext(ctx, "discarding refresh for replaced order list")
		return false
	}
	return true
}
