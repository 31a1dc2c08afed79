// Package writer archives emitted alerts to PostgreSQL in batches.
package writer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"tokenradar/internal/model"
	"tokenradar/internal/observability"
)

// batchSender is the subset of pgxpool.Pool the writer uses.
type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// AlertWriter consumes alerts from its queue and writes to the alerts table.
type AlertWriter struct {
	cfg    Config
	logger *slog.Logger

	// Input from the pipeline
	input chan model.Alert

	// Database
	db batchSender

	// Batching
	batch       []alertRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Metrics
	metrics Metrics
}

// New creates an AlertWriter backed by the given pool.
func New(cfg Config, db batchSender, logger *slog.Logger) *AlertWriter {
	def := DefaultConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = def.FlushInterval
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertWriter{
		cfg:    cfg,
		db:     db,
		logger: logger,
		input:  make(chan model.Alert, cfg.QueueSize),
		batch:  make([]alertRow, 0, cfg.BatchSize),
	}
}

// Enqueue hands an alert to the writer without blocking. A full queue
// drops the alert; archiving is best effort and never stalls alerting.
func (w *AlertWriter) Enqueue(alert model.Alert) {
	select {
	case w.input <- alert:
	default:
		w.batchMu.Lock()
		w.metrics.Dropped++
		w.batchMu.Unlock()
		w.logger.Warn("alert archive queue full, dropping", "token", alert.TokenID)
	}
}

// Start begins consuming alerts and writing to the database.
func (w *AlertWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.consumeLoop()

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("alert writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the writer.
func (w *AlertWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping alert writer")

	if w.cancel != nil {
		w.cancel()
	}

	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("alert writer stopped")
	case <-ctx.Done():
		w.logger.Warn("alert writer stop timed out")
	}

	// Alerts still queued go out with the final flush, on the caller's
	// context rather than the cancelled run context.
	w.drain()
	w.flush(ctx)

	return nil
}

// drain moves everything left on the queue into the batch.
func (w *AlertWriter) drain() {
	for {
		select {
		case alert := <-w.input:
			row := w.transform(alert)
			w.batchMu.Lock()
			w.batch = append(w.batch, row)
			w.batchMu.Unlock()
		default:
			return
		}
	}
}

// Stats returns current metrics.
func (w *AlertWriter) Stats() Metrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

// consumeLoop reads from the queue and accumulates batches.
func (w *AlertWriter) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case alert := <-w.input:
			w.handleAlert(alert)
		}
	}
}

// flushLoop periodically flushes the batch.
func (w *AlertWriter) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush(w.ctx)
		}
	}
}

// handleAlert transforms and adds an alert to the batch.
func (w *AlertWriter) handleAlert(alert model.Alert) {
	row := w.transform(alert)

	w.batchMu.Lock()
	w.batch = append(w.batch, row)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush(w.ctx)
	}
}

// transform converts an Alert to an alertRow.
func (w *AlertWriter) transform(alert model.Alert) alertRow {
	return alertRow{
		ID:        alert.ID.String(),
		Kind:      string(alert.Kind),
		TokenID:   alert.TokenID,
		Network:   string(alert.Network),
		Symbol:    alert.Symbol,
		Source:    string(alert.Source),
		PriceUSD:  alert.PriceUSD,
		ChangePct: alert.ChangePct,
		EmittedAt: alert.EmittedAt.UnixMicro(),
	}
}

// flush writes the current batch to the database.
func (w *AlertWriter) flush(ctx context.Context) {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := w.batch
	w.batch = make([]alertRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.batchInsert(ctx, batch)
	if err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		observability.RecordArchiveError()
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return
	}

	for range batch[:len(batch)-conflicts] {
		observability.RecordAlertArchived()
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch) - conflicts)
	w.metrics.Conflicts += int64(conflicts)
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed alerts",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (w *AlertWriter) batchInsert(ctx context.Context, rows []alertRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO alerts (id, kind, token_id, network, symbol, source, price_usd, change_pct, emitted_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO NOTHING
		`, r.ID, r.Kind, r.TokenID, r.Network, r.Symbol, r.Source, r.PriceUSD, r.ChangePct, r.EmittedAt)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
