package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dejobratic/pendingpay/internal/orders/adapters/console"
	"github.com/dejobratic/pendingpay/internal/orders/domain"
)

func printOrders(w io.Writer, cpf string, orders []domain.PendingOrder) {
	if len(orders) == 0 {
		fmt.Fprintf(w, "no pending orders for %s\n", domain.FormatCPF(domain.SanitizeCPF(cpf)))
		return
	}

	fmt.Fprintf(w, "%d pending order(s) for %s\n", len(orders), domain.FormatCPF(domain.SanitizeCPF(cpf)))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tEVENT\tREGISTRATIONS\tTOTAL\tSTATUS")

	var total int64
	for _, o := range orders {
		event := "-"
		if o.Event != nil {
			event = o.Event.Title
		}
		status := "-"
		if s, ok := o.CachedStatus(); ok {
			status = string(s)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", o.OrderID, event, registrants(o.Registrations), console.FormatCents(o.TotalCents), status)
		total += o.TotalCents
	}
	fmt.Fprintf(tw, "\t\t\t%s\t\n", console.FormatCents(total))
	_ = tw.Flush()
}

func printAttempt(w io.Writer, a *domain.PaymentAttempt) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ATTEMPT\t%s\n", a.ID)
	fmt.Fprintf(tw, "KIND\t%s\n", a.Kind)
	fmt.Fprintf(tw, "CPF\t%s\n", domain.FormatCPF(a.BuyerCPF))
	fmt.Fprintf(tw, "ORDERS\t%s\n", strings.Join(a.OrderIDs, ", "))
	fmt.Fprintf(tw, "OUTCOME\t%s\n", a.Outcome)
	if a.Detail != "" {
		fmt.Fprintf(tw, "DETAIL\t%s\n", a.Detail)
	}
	fmt.Fprintf(tw, "UPDATED\t%s\n", a.UpdatedAt.Format(time.RFC3339))
	_ = tw.Flush()
}

func registrants(regs []domain.Registration) string {
	if len(regs) == 0 {
		return "-"
	}
	names := make([]string, len(regs))
	for i, r := range regs {
		names[i] = r.FullName
	}
	return strings.Join(names, ", ")
}

// demoOrders seeds the in-memory backend for --demo runs.
func demoOrders() []domain.PendingOrder {
	const cpf = "52998224725"
	retiro := &domain.EventRef{ID: "evt-retiro", Title: "Retiro de Jovens", Slug: "retiro-jovens"}
	congresso := &domain.EventRef{ID: "evt-congresso", Title: "Congresso Regional", Slug: "congresso-regional"}

	return []domain.PendingOrder{
		{
			OrderID:    "ord-1001",
			Event:      retiro,
			BuyerCPF:   cpf,
			TotalCents: 15000,
			Registrations: []domain.Registration{
				{ID: "reg-1", FullName: "Maria Silva", CPF: "11144477735", ChurchName: "Central", DistrictName: "Norte"},
			},
			Payment: &domain.PaymentSnapshot{Status: domain.StatusPending, PaymentMethod: "PIX_MP"},
		},
		{
			OrderID:    "ord-1002",
			Event:      retiro,
			BuyerCPF:   cpf,
			TotalCents: 30000,
			Registrations: []domain.Registration{
				{ID: "reg-2", FullName: "João Souza", CPF: "39053344705", ChurchName: "Central", DistrictName: "Norte"},
				{ID: "reg-3", FullName: "Ana Souza", CPF: "71428793860", ChurchName: "Central", DistrictName: "Norte"},
			},
			Payment: &domain.PaymentSnapshot{Status: domain.StatusInProcess, PaymentMethod: "PIX_MP"},
		},
		{
			OrderID:       "ord-1003",
			Event:         congresso,
			BuyerCPF:      cpf,
			TotalCents:    8000,
			Registrations: []domain.Registration{{ID: "reg-4", FullName: "Pedro Lima", CPF: "52998224725", ChurchName: "Vila Nova", DistrictName: "Sul"}},
			Payment:       &domain.PaymentSnapshot{Status: domain.StatusPending, PaymentMethod: "PIX_MP"},
		},
	}
}
