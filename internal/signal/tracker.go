// Package signal schedules delayed price-change checks for tokens that
// produced a primary alert. All checks run off one min-heap ordered by due
// time, drained by a single scheduler goroutine.
package signal

import (
	"container/heap"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tokenradar/internal/model"
	"tokenradar/internal/observability"
)

// PriceSource fetches the current USD price for a token.
type PriceSource interface {
	TokenPrice(ctx context.Context, id string) (float64, error)
}

// Result is one fired signal check whose price move met the threshold.
type Result struct {
	Token     model.TrackedToken
	Entry     model.SignalEntry
	PriceUSD  float64 // price at check time
	ChangePct float64 // signed percent change from baseline
}

// Handler receives fired signals.
type Handler interface {
	HandleSignal(Result)
}

// StatusReporter surfaces operator-facing notices about failed checks.
type StatusReporter interface {
	ReportStatus(msg string)
}

type nopReporter struct{}

func (nopReporter) ReportStatus(string) {}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(Result)

func (f HandlerFunc) HandleSignal(r Result) { f(r) }

// Config holds tracker settings.
type Config struct {
	Retention    time.Duration // Max lifetime of a tracked token (default: 24h)
	FetchTimeout time.Duration // Per-check price fetch timeout (default: 10s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Retention:    24 * time.Hour,
		FetchTimeout: 10 * time.Second,
	}
}

// check is one scheduled price comparison.
type check struct {
	fireAt  time.Time
	tokenID string
	entry   model.SignalEntry
}

// checkHeap is a min-heap ordered by fireAt.
type checkHeap []check

func (h checkHeap) Len() int           { return len(h) }
func (h checkHeap) Less(i, j int) bool { return h[i].fireAt.Before(h[j].fireAt) }
func (h checkHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *checkHeap) Push(x any)        { *h = append(*h, x.(check)) }
func (h *checkHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]
	return c
}

// Tracker owns the tracked-token table and the check schedule.
type Tracker struct {
	cfg     Config
	prices  PriceSource
	handler Handler
	report  StatusReporter
	logger  *slog.Logger

	mu     sync.Mutex
	tokens map[string]*model.TrackedToken
	checks checkHeap

	kick chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Tracker. The reporter receives a notice for every failed
// price check; nil disables reporting.
func New(cfg Config, prices PriceSource, handler Handler, reporter StatusReporter, logger *slog.Logger) *Tracker {
	def := DefaultConfig()
	if cfg.Retention <= 0 {
		cfg.Retention = def.Retention
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = def.FetchTimeout
	}
	if reporter == nil {
		reporter = nopReporter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		cfg:     cfg,
		prices:  prices,
		handler: handler,
		report:  reporter,
		logger:  logger,
		tokens:  make(map[string]*model.TrackedToken),
		kick:    make(chan struct{}, 1),
	}
}

// Start launches the scheduler.
func (t *Tracker) Start(ctx context.Context) error {
	t.ctx, t.cancel = context.WithCancel(ctx)

	t.wg.Add(1)
	go t.run()

	t.logger.Info("signal tracker started", "retention", t.cfg.Retention)
	return nil
}

// Stop shuts the scheduler down.
func (t *Tracker) Stop(ctx context.Context) error {
	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("signal tracker stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enroll registers a token for every entry in the signal config, with the
// event's price as baseline. A token with no usable baseline price or an
// empty config is not tracked. Re-enrolling a tracked token is a no-op.
func (t *Tracker) Enroll(ev model.TokenEvent, cfg model.SignalConfig) {
	if len(cfg.Entries) == 0 {
		return
	}
	if ev.PriceUSD <= 0 {
		t.logger.Warn("no baseline price, skipping signal tracking", "token", ev.ID)
		return
	}

	now := time.Now()

	t.mu.Lock()
	if _, exists := t.tokens[ev.ID]; exists {
		t.mu.Unlock()
		return
	}

	pending := make([]model.SignalEntry, len(cfg.Entries))
	copy(pending, cfg.Entries)

	t.tokens[ev.ID] = &model.TrackedToken{
		ID:          ev.ID,
		Symbol:      ev.Symbol,
		Network:     ev.Network,
		BaselineUSD: ev.PriceUSD,
		BaselineAt:  now,
		Pending:     pending,
	}

	for _, entry := range cfg.Entries {
		heap.Push(&t.checks, check{
			fireAt:  now.Add(entry.Delay),
			tokenID: ev.ID,
			entry:   entry,
		})
	}
	tracked := len(t.tokens)
	t.mu.Unlock()

	observability.SetTokensTracked(tracked)
	t.logger.Debug("token enrolled for signals",
		"token", ev.ID,
		"baseline_usd", ev.PriceUSD,
		"checks", len(cfg.Entries),
	)

	// Wake the scheduler; the new head may be earlier than its current wait
	select {
	case t.kick <- struct{}{}:
	default:
	}
}

// Tracked returns the number of tokens with pending checks.
func (t *Tracker) Tracked() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.tokens)
}

// run is the scheduler loop: sleep until the earliest check, fire it,
// repeat. Enroll kicks it awake when the schedule changes.
func (t *Tracker) run() {
	defer t.wg.Done()

	for {
		var timerC <-chan time.Time
		var timer *time.Timer

		t.mu.Lock()
		if t.checks.Len() > 0 {
			wait := time.Until(t.checks[0].fireAt)
			if wait < 0 {
				wait = 0
			}
			timer = time.NewTimer(wait)
			timerC = timer.C
		}
		t.mu.Unlock()

		select {
		case <-t.ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-t.kick:
			if timer != nil {
				timer.Stop()
			}
		case <-timerC:
			t.fireDue()
		}
	}
}

// fireDue pops and evaluates every check whose time has come.
func (t *Tracker) fireDue() {
	now := time.Now()

	for {
		t.mu.Lock()
		if t.checks.Len() == 0 || t.checks[0].fireAt.After(now) {
			t.mu.Unlock()
			return
		}
		c := heap.Pop(&t.checks).(check)
		token, tracked := t.tokens[c.tokenID]
		if tracked && now.Sub(token.BaselineAt) > t.cfg.Retention {
			// Past the retention horizon; evict instead of checking
			delete(t.tokens, c.tokenID)
			tracked = false
			observability.SetTokensTracked(len(t.tokens))
			t.logger.Debug("token evicted by retention", "token", c.tokenID)
		}
		var snapshot model.TrackedToken
		if tracked {
			snapshot = *token
		}
		t.mu.Unlock()

		if !tracked {
			continue
		}

		t.evaluate(snapshot, c.entry)
		t.removeEntry(c.tokenID, c.entry)
	}
}

// evaluate fetches the current price and hands a Result to the handler if
// the move meets the threshold. Each check is single shot: a fetch failure
// is logged and the check is spent without an alert.
func (t *Tracker) evaluate(token model.TrackedToken, entry model.SignalEntry) {
	ctx, cancel := context.WithTimeout(t.ctx, t.cfg.FetchTimeout)
	defer cancel()

	price, err := t.prices.TokenPrice(ctx, token.ID)
	if err != nil {
		t.logger.Warn("signal price fetch failed",
			"token", token.ID,
			"delay", entry.Delay,
			"err", err,
		)
		observability.RecordSignalCheck("fetch_failed")
		t.report.ReportStatus(fmt.Sprintf("signal check for %s failed: %v", token.ID, err))
		return
	}

	changePct := (price - token.BaselineUSD) / token.BaselineUSD * 100

	if changePct < entry.ThresholdPct {
		t.logger.Debug("signal below threshold",
			"token", token.ID,
			"change_pct", changePct,
			"threshold_pct", entry.ThresholdPct,
		)
		observability.RecordSignalCheck("below_threshold")
		return
	}

	observability.RecordSignalCheck("fired")
	if t.handler != nil {
		t.handler.HandleSignal(Result{
			Token:     token,
			Entry:     entry,
			PriceUSD:  price,
			ChangePct: changePct,
		})
	}
}

// removeEntry marks one pending entry spent and evicts the token once its
// last entry drains.
func (t *Tracker) removeEntry(tokenID string, entry model.SignalEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	token, ok := t.tokens[tokenID]
	if !ok {
		return
	}

	for i, pending := range token.Pending {
		if pending.Delay == entry.Delay {
			token.Pending = append(token.Pending[:i], token.Pending[i+1:]...)
			break
		}
	}

	if len(token.Pending) == 0 {
		delete(t.tokens, tokenID)
		t.logger.Debug("token drained all signal checks", "token", tokenID)
	}
	observability.SetTokensTracked(len(t.tokens))
}
