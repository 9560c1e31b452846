package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/dejobratic/pendingpay/internal/orders/domain"
	"github.com/dejobratic/pendingpay/internal/orders/metrics"
	"github.com/dejobratic/pendingpay/internal/orders/ports"
	"github.com/dejobratic/pendingpay/internal/telemetry"
)

const (
	DefaultPollInterval    = 5 * time.Second
	DefaultPollMaxBackoff  = time.Minute
	DefaultPollConcurrency = 4
)

// StatusResult is the outcome of checking one order during a tick.
type StatusResult struct {
	OrderID string
	Report  domain.StatusReport
	Err     error
}

// Pass is every status result of one tick, collected before anything is applied.
type Pass struct {
	Generation uint64
	Results    []StatusResult
}

// Failed reports whether the pass checked something and every check failed.
func (p Pass) Failed() bool {
	if len(p.Results) == 0 {
		return false
	}
	for _, r := range p.Results {
		if r.Err == nil {
			return false
		}
	}
	return true
}

// PassHandler reacts to a completed pass.
type PassHandler interface {
	Apply(ctx context.Context, pass Pass) ReconcileResult
}

type PollerConfig struct {
	Interval    time.Duration
	MaxBackoff  time.Duration
	Concurrency int
}

func (c PollerConfig) withDefaults() PollerConfig {
	if c.Interval <= 0 {
		c.Interval = DefaultPollInterval
	}
	if c.MaxBackoff < c.Interval {
		c.MaxBackoff = max(DefaultPollMaxBackoff, c.Interval)
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultPollConcurrency
	}
	return c
}

// StatusPoller periodically checks the status of every order in the store while it is non-empty.
// Ticks run on a single goroutine and the next one is scheduled only after the previous pass was
// applied, so passes never overlap.
type StatusPoller struct {
	store   *OrderStore
	checker ports.StatusChecker
	handler PassHandler
	cfg     PollerConfig
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	run    *pollRun
	closed bool
	loops  sync.WaitGroup
}

type pollRun struct {
	cancel context.CancelFunc
}

func NewStatusPoller(
	store *OrderStore,
	checker ports.StatusChecker,
	handler PassHandler,
	cfg PollerConfig,
	logger *slog.Logger,
	metrics *metrics.Metrics,
) *StatusPoller {
	return &StatusPoller{
		store:   store,
		checker: checker,
		handler: handler,
		cfg:     cfg.withDefaults(),
		logger:  logger,
		metrics: metrics,
	}
}

// Start begins polling. It is a no-op while already polling and fails with ErrNothingToPoll
// when the store is empty. Polling ends when ctx is done, Stop is called or the store empties.
func (p *StatusPoller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPollerClosed
	}
	if p.run != nil {
		return nil
	}
	if p.store.IsEmpty() {
		return ErrNothingToPoll
	}

	runCtx, cancel := context.WithCancel(ctx)
	r := &pollRun{cancel: cancel}
	p.run = r
	p.loops.Add(1)
	go p.loop(runCtx, r)

	p.logger.DebugContext(ctx, "status polling started", "interval", p.cfg.Interval)
	return nil
}

// Stop cancels the active timer. Safe to call any number of times.
func (p *StatusPoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.run == nil {
		return
	}
	p.run.cancel()
	p.run = nil
}

// Running reports whether a polling loop is active.
func (p *StatusPoller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.run != nil
}

// Wait blocks until every polling goroutine started so far has exited.
func (p *StatusPoller) Wait() {
	p.loops.Wait()
}

// Close stops polling for good and waits for the loop to exit. Start fails afterwards.
func (p *StatusPoller) Close() {
	p.mu.Lock()
	p.closed = true
	if p.run != nil {
		p.run.cancel()
		p.run = nil
	}
	p.mu.Unlock()

	p.loops.Wait()
}

func (p *StatusPoller) finish(r *pollRun) {
	p.mu.Lock()
	if p.run == r {
		p.run = nil
	}
	p.mu.Unlock()
	r.cancel()
}

// releaseIfEmpty ends run r when the store is empty. The check happens under the poller lock
// so a Start racing with a fresh ReplaceAll either sees r gone or r keeps polling the new orders.
func (p *StatusPoller) releaseIfEmpty(r *pollRun) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.run != r || !p.store.IsEmpty() {
		return false
	}
	p.run = nil
	return true
}

func (p *StatusPoller) loop(ctx context.Context, r *pollRun) {
	defer p.loops.Done()
	defer p.finish(r)

	b := p.newBackoff()
	timer := time.NewTimer(p.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if p.releaseIfEmpty(r) {
			p.logger.DebugContext(ctx, "status polling stopped, no pending orders")
			return
		}

		remaining, failed, ok := p.tick(ctx)
		if !ok {
			return
		}
		if remaining == 0 && p.releaseIfEmpty(r) {
			p.logger.InfoContext(ctx, "status polling stopped, every order settled")
			return
		}

		timer.Reset(p.nextDelay(b, failed))
	}
}

// tick collects one pass and hands it to the handler. ok is false when polling was canceled mid-tick.
func (p *StatusPoller) tick(ctx context.Context) (remaining int, failed bool, ok bool) {
	ctx, span := telemetry.StartSpan(ctx, "StatusPoller.Tick")
	defer span.End()

	start := time.Now()
	pass := p.collect(ctx)
	if ctx.Err() != nil {
		p.metrics.RecordPollTick(context.WithoutCancel(ctx), "canceled", time.Since(start).Seconds())
		return 0, false, false
	}

	result := p.handler.Apply(ctx, pass)
	failed = pass.Failed()

	outcome := "reconciled"
	switch {
	case result.Stale:
		outcome = "stale"
	case failed:
		outcome = "failed"
	}
	p.metrics.RecordPollTick(ctx, outcome, time.Since(start).Seconds())

	telemetry.AddSpanAttributes(span,
		attribute.Int("orders.checked", len(pass.Results)),
		attribute.Int("orders.removed", result.Removed),
		attribute.Int("orders.remaining", result.Remaining),
		attribute.String("tick.outcome", outcome),
	)
	telemetry.SetSpanSuccess(span)

	return result.Remaining, failed, true
}

// collect checks every order independently; a failing check never aborts the others.
func (p *StatusPoller) collect(ctx context.Context) Pass {
	ids, generation := p.store.IDs()
	results := make([]StatusResult, len(ids))

	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)
	for i, id := range ids {
		g.Go(func() error {
			report, err := p.checker.GetOrderStatus(ctx, id)
			results[i] = StatusResult{OrderID: id, Report: report, Err: err}
			if ctx.Err() != nil {
				return nil
			}
			p.metrics.RecordStatusCheck(ctx, err == nil)
			if err != nil {
				p.logger.WarnContext(ctx, "order status check failed",
					"order_id", id,
					"error", err,
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	return Pass{Generation: generation, Results: results}
}

func (p *StatusPoller) newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.cfg.Interval
	b.MaxInterval = p.cfg.MaxBackoff
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// nextDelay keeps the fixed interval while checks succeed and backs off while every check fails.
// A backoff delay stays within [Interval, MaxBackoff] so jitter never polls faster than usual.
func (p *StatusPoller) nextDelay(b *backoff.ExponentialBackOff, failed bool) time.Duration {
	if !failed {
		b.Reset()
		return p.cfg.Interval
	}
	next := b.NextBackOff()
	if next == backoff.Stop || next > p.cfg.MaxBackoff {
		return p.cfg.MaxBackoff
	}
	return max(next, p.cfg.Interval)
}
