package poller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tokenradar/internal/api"
	"tokenradar/internal/observability"
)

// TokenSource fetches the current token listing.
type TokenSource interface {
	ListTokens(ctx context.Context) ([]api.TokenRecord, error)
}

// BatchHandler receives each fetched listing.
type BatchHandler interface {
	HandleBatch(records []api.TokenRecord, fetchedAt time.Time) error
}

// StatusReporter surfaces operator-facing notices about poll health.
type StatusReporter interface {
	ReportStatus(msg string)
}

type nopReporter struct{}

func (nopReporter) ReportStatus(string) {}

// BatchHandlerFunc is a function adapter for BatchHandler.
type BatchHandlerFunc func([]api.TokenRecord, time.Time) error

func (f BatchHandlerFunc) HandleBatch(records []api.TokenRecord, fetchedAt time.Time) error {
	return f(records, fetchedAt)
}

// Config holds poller configuration.
type Config struct {
	Interval time.Duration // Poll interval (default: 1m)
	Timeout  time.Duration // Per-request timeout (default: 10s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: time.Minute,
		Timeout:  10 * time.Second,
	}
}

// Poller periodically fetches the token listing via the scan API. A failed
// cycle is logged and skipped; the next tick runs on schedule.
type Poller struct {
	cfg     Config
	source  TokenSource
	handler BatchHandler
	report  StatusReporter
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller. The reporter receives a notice for every
// failed cycle; nil disables reporting.
func New(cfg Config, source TokenSource, handler BatchHandler, reporter StatusReporter, logger *slog.Logger) *Poller {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if reporter == nil {
		reporter = nopReporter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		cfg:     cfg,
		source:  source,
		handler: handler,
		report:  reporter,
		logger:  logger,
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("scan poller started", "interval", p.cfg.Interval)

	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("scan poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main polling loop.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	p.poll()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.poll()
		}
	}
}

// poll runs a single fetch cycle.
func (p *Poller) poll() {
	start := time.Now()

	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	defer cancel()

	records, err := p.source.ListTokens(ctx)
	if err != nil {
		p.logger.Warn("poll cycle failed", "err", err)
		observability.RecordPollFailure()
		p.report.ReportStatus(fmt.Sprintf("scan poll failed: %v", err))
		return
	}

	if p.handler != nil {
		if err := p.handler.HandleBatch(records, start); err != nil {
			p.logger.Warn("batch handler failed", "err", err)
			observability.RecordPollFailure()
			p.report.ReportStatus(fmt.Sprintf("scan batch handling failed: %v", err))
			return
		}
	}

	observability.RecordPollCycle()
	p.logger.Info("poll cycle complete",
		"tokens", len(records),
		"duration", time.Since(start),
	)
}
