package writer

import (
	"time"
)

// Config contains configuration for the alert writer.
type Config struct {
	// BatchSize is the number of rows to accumulate before flushing.
	BatchSize int

	// FlushInterval is the maximum time between flushes.
	FlushInterval time.Duration

	// QueueSize bounds the enqueue channel; alerts past it are dropped.
	QueueSize int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     100,
		FlushInterval: 5 * time.Second,
		QueueSize:     1000,
	}
}

// alertRow represents a row to be inserted into the alerts table.
type alertRow struct {
	ID        string // UUID
	Kind      string
	TokenID   string
	Network   string
	Symbol    string
	Source    string
	PriceUSD  float64
	ChangePct float64
	EmittedAt int64 // Microseconds
}

// Metrics holds counters for the writer.
type Metrics struct {
	Inserts   int64
	Conflicts int64
	Flushes   int64
	Errors    int64
	Dropped   int64
}
