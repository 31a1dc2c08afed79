package notify

import (
	"context"
	"log/slog"
	"time"
)

// StatusReporter surfaces operational conditions (feed drops, reconnect
// exhaustion, poll failures) to the operator.
type StatusReporter interface {
	ReportStatus(msg string)
}

// Reporter delivers status notices through a Notifier, fire and forget. A
// failed delivery is logged and dropped; status traffic must never block
// or fail the pipeline.
type Reporter struct {
	notifier Notifier
	timeout  time.Duration
	logger   *slog.Logger
}

// NewReporter creates a Reporter.
func NewReporter(notifier Notifier, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		notifier: notifier,
		timeout:  10 * time.Second,
		logger:   logger,
	}
}

// ReportStatus sends the notice in the background.
func (r *Reporter) ReportStatus(msg string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := r.notifier.Notify(ctx, "⚠️ "+msg); err != nil {
			r.logger.Warn("status report delivery failed", "msg", msg, "err", err)
		}
	}()
}

// NopReporter discards every status notice. Useful in tests and when no
// notifier is configured.
type NopReporter struct{}

func (NopReporter) ReportStatus(string) {}
