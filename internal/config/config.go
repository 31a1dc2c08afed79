package config

import "time"

// Config is the root configuration for a tokenradar instance.
type Config struct {
	Instance InstanceConfig `yaml:"instance"`
	Stream   StreamConfig   `yaml:"stream"`
	Scan     ScanConfig     `yaml:"scan"`
	Notifier NotifierConfig `yaml:"notifier"`
	Database DBConfig       `yaml:"database"`
	Writer   WriterConfig   `yaml:"writer"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Tracker  TrackerConfig  `yaml:"tracker"`
	Filters  FiltersConfig  `yaml:"filters"`
	Signals  []SignalConfig `yaml:"signals"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// InstanceConfig identifies this instance.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// StreamConfig holds push feed (websocket) settings.
type StreamConfig struct {
	URL                  string        `yaml:"url"`
	APIKey               string        `yaml:"api_key"` // optional Bearer token
	Channel              string        `yaml:"channel"`
	ReconnectInterval    time.Duration `yaml:"reconnect_interval"`
	ReconnectMaxInterval time.Duration `yaml:"reconnect_max_interval"` // 0 or == interval: fixed wait
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"` // 0 = unlimited
	PingInterval         time.Duration `yaml:"ping_interval"`
	PingGrace            time.Duration `yaml:"ping_grace"` // max silence after a ping before the conn is stale
	SubscribeTimeout     time.Duration `yaml:"subscribe_timeout"`
	BufferSize           int           `yaml:"buffer_size"`
}

// ScanConfig holds pull feed (HTTP polling) settings.
type ScanConfig struct {
	URL          string        `yaml:"url"`
	APIKey       string        `yaml:"api_key"` // optional Bearer token
	PollInterval time.Duration `yaml:"poll_interval"`
	Timeout      time.Duration `yaml:"timeout"`
}

// NotifierConfig holds Telegram delivery settings.
type NotifierConfig struct {
	BotToken   string  `yaml:"bot_token"`
	ChatID     string  `yaml:"chat_id"`
	APIURL     string  `yaml:"api_url"` // override for tests; default api.telegram.org
	RatePerSec float64 `yaml:"rate_per_sec"`
	Burst      int     `yaml:"burst"`
}

// DBConfig holds the optional alert archive database connection.
type DBConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// WriterConfig holds alert archive batching settings.
type WriterConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// PipelineConfig holds intake queue settings.
type PipelineConfig struct {
	IntakeBufferSize int `yaml:"intake_buffer_size"`
}

// TrackerConfig holds signal tracker settings.
type TrackerConfig struct {
	Retention time.Duration `yaml:"retention"` // max TrackedToken lifetime
}

// FiltersConfig mirrors model.FilterConfig in yaml form.
type FiltersConfig struct {
	Networks []string `yaml:"networks"`
	Status   string   `yaml:"status"`

	LiquidityMin float64 `yaml:"liquidity_min"`
	LiquidityMax float64 `yaml:"liquidity_max"`
	MarketCapMin float64 `yaml:"market_cap_min"`
	MarketCapMax float64 `yaml:"market_cap_max"`
	PairAgeMin   float64 `yaml:"pair_age_min"`
	PairAgeMax   float64 `yaml:"pair_age_max"`
	BuyCountMin  int64   `yaml:"buy_count_min"`

	RequireTelegram bool `yaml:"require_telegram"`
	RequireTwitter  bool `yaml:"require_twitter"`
	RequireWebsite  bool `yaml:"require_website"`

	RequireMintRevoked   bool `yaml:"require_mint_revoked"`
	RequireFreezeRevoked bool `yaml:"require_freeze_revoked"`
	RequireLPBurned      bool `yaml:"require_lp_burned"`
	RequireAudited       bool `yaml:"require_audited"`
	RequireDEXPaid       bool `yaml:"require_dex_paid"`
	RequireBondingCurve  bool `yaml:"require_bonding_curve"`

	Top10HolderMin float64 `yaml:"top10_holder_min"`
	Top10HolderMax float64 `yaml:"top10_holder_max"`
	DevHoldMin     float64 `yaml:"dev_hold_min"`
	DevHoldMax     float64 `yaml:"dev_hold_max"`
}

// SignalConfig is one delayed price-change check in yaml form.
type SignalConfig struct {
	Delay        time.Duration `yaml:"delay"`
	ThresholdPct float64       `yaml:"threshold_pct"`
}

// MetricsConfig holds the health/metrics HTTP server settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}
