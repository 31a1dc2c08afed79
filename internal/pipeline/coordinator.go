// Package pipeline wires both feeds through normalization, filtering,
// dedup, notification, and signal tracking.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"tokenradar/internal/api"
	"tokenradar/internal/config"
	"tokenradar/internal/connection"
	"tokenradar/internal/dedup"
	"tokenradar/internal/filter"
	"tokenradar/internal/model"
	"tokenradar/internal/normalize"
	"tokenradar/internal/notify"
	"tokenradar/internal/observability"
	"tokenradar/internal/poller"
	"tokenradar/internal/signal"
)

// ScanClient is the pull feed surface the pipeline needs: the periodic
// listing and the point price lookup used for delayed signal checks.
type ScanClient interface {
	ListTokens(ctx context.Context) ([]api.TokenRecord, error)
	TokenPrice(ctx context.Context, id string) (float64, error)
}

// Archiver persists emitted alerts. The writer satisfies this; a nil
// Archive dep disables archiving.
type Archiver interface {
	Enqueue(alert model.Alert)
}

// Config holds pipeline tuning knobs.
type Config struct {
	IntakeBufferSize   int
	PollInterval       time.Duration
	PollTimeout        time.Duration
	SignalRetention    time.Duration
	SignalFetchTimeout time.Duration
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		IntakeBufferSize:   1000,
		PollInterval:       time.Minute,
		PollTimeout:        10 * time.Second,
		SignalRetention:    24 * time.Hour,
		SignalFetchTimeout: 10 * time.Second,
	}
}

// Deps are the collaborators the coordinator drives. Feed, Scan,
// Notifier, Filter, Dedup, and Store are required.
type Deps struct {
	Store    *config.Store
	Feed     connection.Feed
	Scan     ScanClient
	Filter   *filter.Engine
	Dedup    *dedup.Store
	Notifier notify.Notifier
	Reporter notify.StatusReporter
	Archive  Archiver
	Logger   *slog.Logger
}

// Coordinator runs the event flow end to end: push frames and pull
// batches converge on one intake buffer, and a single consumer applies
// filter, dedup, notify, enroll, and archive in order.
type Coordinator struct {
	cfg     Config
	store   *config.Store
	feed    connection.Feed
	scan    ScanClient
	filter  *filter.Engine
	dedup   *dedup.Store
	notif   notify.Notifier
	report  notify.StatusReporter
	archive Archiver
	logger  *slog.Logger

	intake  *intakeBuffer[model.TokenEvent]
	poller  *poller.Poller
	tracker *signal.Tracker

	mu      sync.Mutex
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a Coordinator. The poller and signal tracker are built
// internally; the coordinator itself is their handler.
func New(cfg Config, deps Deps) *Coordinator {
	def := DefaultConfig()
	if cfg.IntakeBufferSize <= 0 {
		cfg.IntakeBufferSize = def.IntakeBufferSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = def.PollTimeout
	}
	if cfg.SignalRetention <= 0 {
		cfg.SignalRetention = def.SignalRetention
	}
	if cfg.SignalFetchTimeout <= 0 {
		cfg.SignalFetchTimeout = def.SignalFetchTimeout
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reporter := deps.Reporter
	if reporter == nil {
		reporter = notify.NopReporter{}
	}

	c := &Coordinator{
		cfg:     cfg,
		store:   deps.Store,
		feed:    deps.Feed,
		scan:    deps.Scan,
		filter:  deps.Filter,
		dedup:   deps.Dedup,
		notif:   deps.Notifier,
		report:  reporter,
		archive: deps.Archive,
		logger:  logger,
		intake:  newIntakeBuffer[model.TokenEvent](cfg.IntakeBufferSize),
	}

	c.poller = poller.New(poller.Config{
		Interval: cfg.PollInterval,
		Timeout:  cfg.PollTimeout,
	}, deps.Scan, poller.BatchHandlerFunc(c.handleBatch), reporter, logger)

	c.tracker = signal.New(signal.Config{
		Retention:    cfg.SignalRetention,
		FetchTimeout: cfg.SignalFetchTimeout,
	}, deps.Scan, signal.HandlerFunc(c.handleSignal), reporter, logger)

	return c
}

// Start brings up the tracker, both feeds, and the processing loops.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		c.logger.Warn("pipeline already started")
		return nil
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())

	if err := c.tracker.Start(ctx); err != nil {
		c.cancel()
		return fmt.Errorf("start signal tracker: %w", err)
	}
	if err := c.feed.Start(ctx); err != nil {
		c.cancel()
		return fmt.Errorf("start push feed: %w", err)
	}
	if err := c.poller.Start(ctx); err != nil {
		c.cancel()
		return fmt.Errorf("start poller: %w", err)
	}

	c.wg.Add(3)
	go c.frameLoop()
	go c.consumeLoop()
	go c.fatalLoop()

	c.started = true
	c.logger.Info("pipeline started")
	return nil
}

// Stop shuts the pipeline down in dependency order: first the producers,
// then the intake buffer, then the consumer and tracker drain.
func (c *Coordinator) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return nil
	}

	if err := c.poller.Stop(ctx); err != nil {
		c.logger.Warn("poller stop failed", "err", err)
	}
	if err := c.feed.Stop(ctx); err != nil {
		c.logger.Warn("push feed stop failed", "err", err)
	}

	c.cancel()
	c.intake.Close()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("pipeline stop: %w", ctx.Err())
	}

	if err := c.tracker.Stop(ctx); err != nil {
		c.logger.Warn("signal tracker stop failed", "err", err)
	}

	c.started = false
	c.logger.Info("pipeline stopped")
	return nil
}

// frameLoop normalizes raw push frames onto the intake buffer.
func (c *Coordinator) frameLoop() {
	defer c.wg.Done()

	for frame := range c.feed.Frames() {
		ev, err := normalize.FromPush(frame.Data, frame.ReceivedAt)
		if err != nil {
			observability.RecordParseError(string(model.SourceStream))
			c.logger.Warn("push frame discarded", "err", err)
			c.report.ReportStatus(fmt.Sprintf("push frame discarded: %v", err))
			continue
		}
		observability.RecordEventReceived(string(model.SourceStream))
		c.intake.Send(ev)
		observability.SetIntakeQueueSize(c.intake.Len())
	}
}

// handleBatch normalizes one pull cycle onto the intake buffer.
func (c *Coordinator) handleBatch(records []api.TokenRecord, fetchedAt time.Time) error {
	for _, rec := range records {
		ev, err := normalize.FromPull(rec, fetchedAt)
		if err != nil {
			observability.RecordParseError(string(model.SourceScan))
			c.logger.Warn("scan record discarded", "id", rec.ID, "err", err)
			continue
		}
		observability.RecordEventReceived(string(model.SourceScan))
		c.intake.Send(ev)
	}
	observability.SetIntakeQueueSize(c.intake.Len())
	return nil
}

// consumeLoop drains the intake buffer until it is closed and empty.
func (c *Coordinator) consumeLoop() {
	defer c.wg.Done()

	for {
		ev, ok := c.intake.Receive()
		if !ok {
			return
		}
		c.process(ev)
		observability.SetIntakeQueueSize(c.intake.Len())
	}
}

// fatalLoop reports an exhausted push feed. The pull feed keeps the
// pipeline alive, so this is a status report, not a shutdown.
func (c *Coordinator) fatalLoop() {
	defer c.wg.Done()

	select {
	case <-c.ctx.Done():
	case err, ok := <-c.feed.Fatal():
		if !ok {
			return
		}
		c.logger.Error("push feed gave up, continuing on scan only", "err", err)
		c.report.ReportStatus(fmt.Sprintf("push feed down: %v, running on scan feed only", err))
	}
}

// process applies the alert chain to one normalized event. The config
// snapshot is read once so filter and signal settings stay consistent
// for the whole event.
func (c *Coordinator) process(ev model.TokenEvent) {
	snap := c.store.Current()

	if !c.filter.Matches(ev, &snap.Filter) {
		return
	}
	observability.RecordEventMatched()

	if !c.dedup.ShouldAlert(ev.ID) {
		observability.RecordDedupSuppressed()
		c.logger.Debug("duplicate suppressed", "token", ev.ID, "source", ev.Source)
		return
	}

	alert := model.Alert{
		ID:        uuid.New(),
		Kind:      model.AlertPrimary,
		TokenID:   ev.ID,
		Network:   ev.Network,
		Symbol:    ev.Symbol,
		Source:    ev.Source,
		PriceUSD:  ev.PriceUSD,
		EmittedAt: time.Now(),
	}

	if err := c.notif.Notify(c.ctx, notify.FormatPrimaryAlert(ev)); err != nil {
		observability.RecordNotifyFailure()
		c.logger.Error("primary alert delivery failed", "token", ev.ID, "err", err)
	} else {
		observability.RecordAlertEmitted(string(model.AlertPrimary))
		c.logger.Info("primary alert emitted",
			"token", ev.ID,
			"symbol", ev.Symbol,
			"source", ev.Source,
		)
	}

	c.tracker.Enroll(ev, snap.Signals)

	if c.archive != nil {
		c.archive.Enqueue(alert)
	}
}

// handleSignal delivers a fired delayed price check.
func (c *Coordinator) handleSignal(res signal.Result) {
	text := notify.FormatSignalAlert(res.Token, res.Entry, res.PriceUSD, res.ChangePct)
	if err := c.notif.Notify(c.ctx, text); err != nil {
		observability.RecordNotifyFailure()
		c.logger.Error("signal alert delivery failed", "token", res.Token.ID, "err", err)
	} else {
		observability.RecordAlertEmitted(string(model.AlertSignal))
		c.logger.Info("signal alert emitted",
			"token", res.Token.ID,
			"change_pct", res.ChangePct,
			"delay", res.Entry.Delay,
		)
	}

	if c.archive != nil {
		c.archive.Enqueue(model.Alert{
			ID:        uuid.New(),
			Kind:      model.AlertSignal,
			TokenID:   res.Token.ID,
			Network:   res.Token.Network,
			Symbol:    res.Token.Symbol,
			Source:    model.SourceScan,
			PriceUSD:  res.PriceUSD,
			ChangePct: res.ChangePct,
			EmittedAt: time.Now(),
		})
	}
}

// Tracked reports the number of tokens with pending signal checks.
func (c *Coordinator) Tracked() int {
	return c.tracker.Tracked()
}
