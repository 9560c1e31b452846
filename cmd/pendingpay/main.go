package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"go.opentelemetry.io/otel/metric"

	attemptsmemory "github.com/dejobratic/pendingpay/internal/attempts/memory"
	attemptspostgres "github.com/dejobratic/pendingpay/internal/attempts/postgres"
	"github.com/dejobratic/pendingpay/internal/config"
	"github.com/dejobratic/pendingpay/internal/database"
	"github.com/dejobratic/pendingpay/internal/kafka"
	"github.com/dejobratic/pendingpay/internal/orders/adapters"
	"github.com/dejobratic/pendingpay/internal/orders/adapters/console"
	httpadapter "github.com/dejobratic/pendingpay/internal/orders/adapters/http"
	"github.com/dejobratic/pendingpay/internal/orders/adapters/memory"
	ordersapp "github.com/dejobratic/pendingpay/internal/orders/app"
	"github.com/dejobratic/pendingpay/internal/orders/domain"
	ordersmetrics "github.com/dejobratic/pendingpay/internal/orders/metrics"
	"github.com/dejobratic/pendingpay/internal/orders/ports"
	"github.com/dejobratic/pendingpay/internal/telemetry"
)

type options struct {
	CPF     string   `short:"c" long:"cpf" description:"Buyer CPF to look up"`
	Attempt string   `short:"a" long:"attempt" description:"Show a recorded payment attempt and exit"`
	Pay     []string `short:"p" long:"pay" description:"Order id to pay; repeat to pay several in one batch"`
	PayAll  bool     `long:"pay-all" description:"Pay every pending order"`
	Watch   bool     `short:"w" long:"watch" description:"Keep polling until every order settles"`
	Demo    bool     `long:"demo" description:"Use an in-memory payments backend with sample orders"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if httpadapter.IsRetryable(err) {
			fmt.Fprintln(os.Stderr, "the payments service may be temporarily unavailable; try again")
		}
		os.Exit(1)
	}
}

var errNoTarget = errors.New("either --cpf or --attempt is required")

func run(ctx context.Context, opts options, stdout, stderr io.Writer) error {
	if opts.CPF == "" && opts.Attempt == "" {
		return errNoTarget
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, err := telemetry.ParseLevel(cfg.Telemetry.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	logger := telemetry.NewLogger(stderr, level, slog.String("service", cfg.Service.Name))
	slog.SetDefault(logger)

	tel, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Environment:    cfg.Service.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTelEndpoint,
		EnableTracing:  cfg.Telemetry.EnableTracing,
		EnableMetrics:  cfg.Telemetry.EnableMetrics,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	meter := tel.Meter(cfg.Service.Name)
	appMetrics, err := ordersmetrics.NewMetrics(meter)
	if err != nil {
		return err
	}
	eventMetrics, err := kafka.NewMetrics(meter)
	if err != nil {
		return err
	}
	dbMetrics, err := database.NewMetrics(meter)
	if err != nil {
		return err
	}

	var (
		gateway ports.Gateway
		demo    *memory.Gateway
	)
	if opts.Demo {
		demo = memory.NewGateway(demoOrders()...)
		gateway = demo
	} else if gateway, err = newClient(cfg.API, meter); err != nil {
		return err
	}

	ledger, closeLedger, err := newLedger(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeLedger()

	navigator := console.NewNavigator(stdout, cfg.API.PageBaseURL)
	events := adapters.NewObservableEventBus(kafka.NewNoopEventBus(logger), eventMetrics)

	svc := ordersapp.NewService(
		adapters.NewObservableGateway(gateway),
		navigator,
		adapters.NewObservableLedger(ledger, dbMetrics),
		events,
		ordersapp.Options{
			Poll: ordersapp.PollerConfig{
				Interval:    cfg.Polling.Interval,
				MaxBackoff:  cfg.Polling.MaxBackoff,
				Concurrency: cfg.Polling.Concurrency,
			},
			Payment: ordersapp.PaymentConfig{
				PaymentMethod: cfg.API.PaymentMethod,
				PreferSandbox: cfg.API.PreferSandbox,
			},
			RefreshOnSettle: cfg.Polling.RefreshOnSettle,
			SettledTTL:      cfg.Polling.SettledTTL,
		},
		logger,
		appMetrics,
	)
	defer svc.Close()

	if opts.Attempt != "" {
		attempt, err := svc.Attempt(ctx, opts.Attempt)
		if err != nil {
			return err
		}
		printAttempt(stdout, attempt)
		return nil
	}

	orders, err := svc.Lookup(ctx, opts.CPF)
	if err != nil {
		return err
	}
	printOrders(stdout, opts.CPF, orders)
	if len(orders) == 0 {
		return nil
	}

	attempt, err := pay(ctx, svc, opts, stdout)
	if err != nil {
		return err
	}
	if demo != nil && attempt != nil {
		go settleLater(ctx, demo, attempt.OrderIDs, 2*cfg.Polling.Interval, logger)
	}

	if opts.Watch {
		watch(ctx, svc, stdout)
	}
	return nil
}

func newClient(cfg config.APIConfig, meter metric.Meter) (*httpadapter.Client, error) {
	clientMetrics, err := httpadapter.NewMetrics(meter)
	if err != nil {
		return nil, err
	}
	return httpadapter.NewClient(httpadapter.ClientConfig{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	}, clientMetrics), nil
}

// settleLater marks paid orders as PAID in the demo backend, standing in for the provider webhook.
func settleLater(ctx context.Context, gateway *memory.Gateway, orderIDs []string, delay time.Duration, logger *slog.Logger) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(delay):
	}
	for _, id := range orderIDs {
		if err := gateway.SetStatus(id, domain.StatusPaid); err != nil {
			logger.WarnContext(ctx, "demo settlement failed", "order_id", id, "error", err)
		}
	}
}

// newLedger keeps attempts in Postgres when DATABASE_URL is set and in memory otherwise.
func newLedger(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (ports.AttemptLedger, func(), error) {
	if cfg.URL == "" {
		return attemptsmemory.NewStore(), func() {}, nil
	}

	if cfg.AutoMigrate {
		version, err := database.RunMigrations(cfg.URL, cfg.MigrationsPath)
		if err != nil {
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		logger.Debug("migrations applied", "version", version)
	}

	pool, err := database.NewPool(ctx, cfg.URL)
	if err != nil {
		return nil, nil, err
	}
	return attemptspostgres.NewStore(pool), pool.Close, nil
}

func pay(ctx context.Context, svc *ordersapp.Service, opts options, out io.Writer) (*domain.PaymentAttempt, error) {
	ids := opts.Pay
	if opts.PayAll {
		ids = nil
		for _, o := range svc.Orders() {
			ids = append(ids, o.OrderID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	requested := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := requested[id]; dup {
			continue
		}
		requested[id] = struct{}{}
		svc.Toggle(id)
	}
	if len(svc.Selected()) < len(requested) {
		fmt.Fprintln(out, "ignoring order ids that are not pending for this CPF")
	}

	fmt.Fprintf(out, "paying %d order(s), %s\n", len(svc.Selected()), console.FormatCents(svc.SelectedTotal()))
	attempt, err := svc.PaySelected(ctx)
	if errors.Is(err, ordersapp.ErrEmptySelection) {
		fmt.Fprintln(out, "nothing to pay")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "payment attempt %s: %s\n", attempt.ID, attempt.Outcome)
	return attempt, nil
}

// watch prints every change until polling stops or ctx is cancelled.
func watch(ctx context.Context, svc *ordersapp.Service, out io.Writer) {
	unsubscribe := svc.Subscribe(func(v ordersapp.View) {
		fmt.Fprintf(out, "%d order(s) still pending, %s selected\n", len(v.Orders), console.FormatCents(v.SelectedTotal))
	})
	defer unsubscribe()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for svc.Polling() {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
	fmt.Fprintln(out, "all orders settled")
}
