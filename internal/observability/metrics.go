// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application. Construct it
// once per process; promauto registers every metric globally.
type Metrics struct {
	// Ingestion metrics
	EventsReceived  *prometheus.CounterVec
	ParseErrors     *prometheus.CounterVec
	IntakeQueueSize prometheus.Gauge

	// Stream metrics
	StreamReconnects prometheus.Counter
	StreamState      prometheus.Gauge

	// Scan metrics
	PollCycles   prometheus.Counter
	PollFailures prometheus.Counter

	// Alert metrics
	EventsMatched   prometheus.Counter
	DedupSuppressed prometheus.Counter
	AlertsEmitted   *prometheus.CounterVec
	NotifyFailures  prometheus.Counter

	// Signal metrics
	TokensTracked prometheus.Gauge
	SignalChecks  *prometheus.CounterVec

	// Archive metrics
	AlertsArchived prometheus.Counter
	ArchiveErrors  prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "tokenradar"
	}

	return &Metrics{
		EventsReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_received_total",
			Help:      "Total number of token events received by source",
		}, []string{"source"}),
		ParseErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "parse_errors_total",
			Help:      "Total number of payloads that failed normalization by source",
		}, []string{"source"}),
		IntakeQueueSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "intake_queue_size",
			Help:      "Current number of events waiting in the intake queue",
		}),

		StreamReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "reconnects_total",
			Help:      "Total number of websocket reconnect attempts",
		}),
		StreamState: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "state",
			Help:      "Current stream state (0 disconnected, 1 connecting, 2 subscribed, 3 streaming)",
		}),

		PollCycles: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "poll_cycles_total",
			Help:      "Total number of completed poll cycles",
		}),
		PollFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "poll_failures_total",
			Help:      "Total number of failed poll cycles",
		}),

		EventsMatched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "events_matched_total",
			Help:      "Total number of events that passed the filter",
		}),
		DedupSuppressed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "dedup_suppressed_total",
			Help:      "Total number of matching events suppressed as duplicates",
		}),
		AlertsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "emitted_total",
			Help:      "Total number of alerts emitted by kind",
		}, []string{"kind"}),
		NotifyFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "notify_failures_total",
			Help:      "Total number of failed notification deliveries",
		}),

		TokensTracked: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "signals",
			Name:      "tokens_tracked",
			Help:      "Current number of tokens with pending signal checks",
		}),
		SignalChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signals",
			Name:      "checks_total",
			Help:      "Total number of signal checks by outcome",
		}, []string{"outcome"}),

		AlertsArchived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "alerts_archived_total",
			Help:      "Total number of alerts written to the archive",
		}),
		ArchiveErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "errors_total",
			Help:      "Total number of archive write errors",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the process-wide metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordEventReceived increments the received-events counter for a source.
func RecordEventReceived(source string) {
	DefaultMetrics.EventsReceived.WithLabelValues(source).Inc()
}

// RecordParseError increments the parse-error counter for a source.
func RecordParseError(source string) {
	DefaultMetrics.ParseErrors.WithLabelValues(source).Inc()
}

// SetIntakeQueueSize updates the intake queue gauge.
func SetIntakeQueueSize(n int) {
	DefaultMetrics.IntakeQueueSize.Set(float64(n))
}

// RecordStreamReconnect increments the reconnect counter.
func RecordStreamReconnect() {
	DefaultMetrics.StreamReconnects.Inc()
}

// SetStreamState updates the stream state gauge.
func SetStreamState(state int) {
	DefaultMetrics.StreamState.Set(float64(state))
}

// RecordPollCycle increments the completed poll cycle counter.
func RecordPollCycle() {
	DefaultMetrics.PollCycles.Inc()
}

// RecordPollFailure increments the failed poll cycle counter.
func RecordPollFailure() {
	DefaultMetrics.PollFailures.Inc()
}

// RecordEventMatched increments the filter match counter.
func RecordEventMatched() {
	DefaultMetrics.EventsMatched.Inc()
}

// RecordDedupSuppressed increments the duplicate suppression counter.
func RecordDedupSuppressed() {
	DefaultMetrics.DedupSuppressed.Inc()
}

// RecordAlertEmitted increments the emitted alert counter for a kind.
func RecordAlertEmitted(kind string) {
	DefaultMetrics.AlertsEmitted.WithLabelValues(kind).Inc()
}

// RecordNotifyFailure increments the failed delivery counter.
func RecordNotifyFailure() {
	DefaultMetrics.NotifyFailures.Inc()
}

// SetTokensTracked updates the tracked tokens gauge.
func SetTokensTracked(n int) {
	DefaultMetrics.TokensTracked.Set(float64(n))
}

// RecordSignalCheck increments the signal check counter for an outcome.
func RecordSignalCheck(outcome string) {
	DefaultMetrics.SignalChecks.WithLabelValues(outcome).Inc()
}

// RecordAlertArchived increments the archived alert counter.
func RecordAlertArchived() {
	DefaultMetrics.AlertsArchived.Inc()
}

// RecordArchiveError increments the archive error counter.
func RecordArchiveError() {
	DefaultMetrics.ArchiveErrors.Inc()
}
