package config

import "time"

// Default values for optional configuration fields. Filter ceilings mirror
// the upstream feeds' documented maxima; an untouched range is still
// enforced as an inclusive range, it just never excludes anything.
const (
	DefaultStreamURL            = "wss://meme-api.openocean.finance/ws/public"
	DefaultStreamChannel        = "token"
	DefaultReconnectInterval    = 5 * time.Second
	DefaultMaxReconnectAttempts = 0 // unlimited
	DefaultPingInterval         = 30 * time.Second
	DefaultPingGrace            = 10 * time.Second
	DefaultSubscribeTimeout     = 10 * time.Second
	DefaultStreamBufferSize     = 1000

	DefaultScanURL      = "https://api.photon-sol.tinyastro.io/tokens"
	DefaultPollInterval = 60 * time.Second
	DefaultScanTimeout  = 10 * time.Second

	DefaultNotifierAPIURL = "https://api.telegram.org"
	DefaultNotifierRate   = 1.0 // messages per second
	DefaultNotifierBurst  = 5

	DefaultDBPort    = 5432
	DefaultDBSSLMode = "prefer"
	DefaultMaxConns  = 10
	DefaultMinConns  = 2

	DefaultBatchSize     = 100
	DefaultFlushInterval = 5 * time.Second

	DefaultIntakeBufferSize = 1000

	DefaultRetention = 24 * time.Hour

	DefaultLiquidityMax = 10_000_000
	DefaultMarketCapMax = 1_000_000_000
	DefaultPairAgeMax   = 1440 // minutes
	DefaultHolderPctMax = 100

	DefaultMetricsPort = 9090
	DefaultMetricsPath = "/metrics"

	DefaultLogLevel = "info"
)

func (c *Config) applyDefaults() {
	// Stream defaults
	if c.Stream.URL == "" {
		c.Stream.URL = DefaultStreamURL
	}
	if c.Stream.Channel == "" {
		c.Stream.Channel = DefaultStreamChannel
	}
	if c.Stream.ReconnectInterval == 0 {
		c.Stream.ReconnectInterval = DefaultReconnectInterval
	}
	if c.Stream.ReconnectMaxInterval == 0 {
		c.Stream.ReconnectMaxInterval = c.Stream.ReconnectInterval
	}
	if c.Stream.PingInterval == 0 {
		c.Stream.PingInterval = DefaultPingInterval
	}
	if c.Stream.PingGrace == 0 {
		c.Stream.PingGrace = DefaultPingGrace
	}
	if c.Stream.SubscribeTimeout == 0 {
		c.Stream.SubscribeTimeout = DefaultSubscribeTimeout
	}
	if c.Stream.BufferSize == 0 {
		c.Stream.BufferSize = DefaultStreamBufferSize
	}

	// Scan defaults
	if c.Scan.URL == "" {
		c.Scan.URL = DefaultScanURL
	}
	if c.Scan.PollInterval == 0 {
		c.Scan.PollInterval = DefaultPollInterval
	}
	if c.Scan.Timeout == 0 {
		c.Scan.Timeout = DefaultScanTimeout
	}

	// Notifier defaults
	if c.Notifier.APIURL == "" {
		c.Notifier.APIURL = DefaultNotifierAPIURL
	}
	if c.Notifier.RatePerSec == 0 {
		c.Notifier.RatePerSec = DefaultNotifierRate
	}
	if c.Notifier.Burst == 0 {
		c.Notifier.Burst = DefaultNotifierBurst
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Writer defaults
	if c.Writer.BatchSize == 0 {
		c.Writer.BatchSize = DefaultBatchSize
	}
	if c.Writer.FlushInterval == 0 {
		c.Writer.FlushInterval = DefaultFlushInterval
	}

	// Pipeline defaults
	if c.Pipeline.IntakeBufferSize == 0 {
		c.Pipeline.IntakeBufferSize = DefaultIntakeBufferSize
	}

	// Tracker defaults
	if c.Tracker.Retention == 0 {
		c.Tracker.Retention = DefaultRetention
	}

	// Filter ceilings
	if c.Filters.LiquidityMax == 0 {
		c.Filters.LiquidityMax = DefaultLiquidityMax
	}
	if c.Filters.MarketCapMax == 0 {
		c.Filters.MarketCapMax = DefaultMarketCapMax
	}
	if c.Filters.PairAgeMax == 0 {
		c.Filters.PairAgeMax = DefaultPairAgeMax
	}
	if c.Filters.Top10HolderMax == 0 {
		c.Filters.Top10HolderMax = DefaultHolderPctMax
	}
	if c.Filters.DevHoldMax == 0 {
		c.Filters.DevHoldMax = DefaultHolderPctMax
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
}
