package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"tokenradar/internal/model"
)

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: test-radar
stream:
  url: wss://example.com/ws
  api_key: ws-secret
  channel: token
scan:
  url: https://example.com/tokens
notifier:
  bot_token: tok
  chat_id: "42"
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "test-radar" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "test-radar")
	}
	if cfg.Stream.URL != "wss://example.com/ws" {
		t.Errorf("Stream.URL = %q, want %q", cfg.Stream.URL, "wss://example.com/ws")
	}
	if cfg.Stream.APIKey != "ws-secret" {
		t.Errorf("Stream.APIKey = %q, want %q", cfg.Stream.APIKey, "ws-secret")
	}
	if cfg.Notifier.ChatID != "42" {
		t.Errorf("Notifier.ChatID = %q, want %q", cfg.Notifier.ChatID, "42")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_BOT_TOKEN", "secret123")

	yaml := `
instance:
  id: test-radar
notifier:
  bot_token: ${TEST_BOT_TOKEN}
  chat_id: "42"
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Notifier.BotToken != "secret123" {
		t.Errorf("Notifier.BotToken = %q, want %q", cfg.Notifier.BotToken, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
instance:
  id: test-radar
notifier:
  bot_token: tok
  chat_id: "42"
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	// Check defaults were applied
	if cfg.Stream.URL != DefaultStreamURL {
		t.Errorf("Stream.URL = %q, want default %q", cfg.Stream.URL, DefaultStreamURL)
	}
	if cfg.Stream.ReconnectInterval != DefaultReconnectInterval {
		t.Errorf("Stream.ReconnectInterval = %v, want default %v", cfg.Stream.ReconnectInterval, DefaultReconnectInterval)
	}
	if cfg.Stream.ReconnectMaxInterval != DefaultReconnectInterval {
		t.Errorf("Stream.ReconnectMaxInterval = %v, want reconnect interval %v", cfg.Stream.ReconnectMaxInterval, DefaultReconnectInterval)
	}
	if cfg.Scan.PollInterval != DefaultPollInterval {
		t.Errorf("Scan.PollInterval = %v, want default %v", cfg.Scan.PollInterval, DefaultPollInterval)
	}
	if cfg.Filters.PairAgeMax != DefaultPairAgeMax {
		t.Errorf("Filters.PairAgeMax = %g, want default %d", cfg.Filters.PairAgeMax, DefaultPairAgeMax)
	}
	if cfg.Metrics.Port != DefaultMetricsPort {
		t.Errorf("Metrics.Port = %d, want default %d", cfg.Metrics.Port, DefaultMetricsPort)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Instance: InstanceConfig{ID: "test"},
			Stream: StreamConfig{
				URL:               "wss://example.com/ws",
				Channel:           "token",
				ReconnectInterval: 5 * time.Second,
				PingInterval:      30 * time.Second,
			},
			Scan: ScanConfig{
				URL:          "https://example.com/tokens",
				PollInterval: time.Minute,
			},
			Notifier: NotifierConfig{BotToken: "tok", ChatID: "42"},
			Pipeline: PipelineConfig{IntakeBufferSize: 100},
			Filters: FiltersConfig{
				LiquidityMax:   1000,
				MarketCapMax:   1000,
				PairAgeMax:     60,
				Top10HolderMax: 100,
				DevHoldMax:     100,
			},
			Metrics: MetricsConfig{Port: 9090},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "missing instance id",
			mutate:  func(c *Config) { c.Instance.ID = "" },
			wantErr: "instance.id is required",
		},
		{
			name:    "missing stream url",
			mutate:  func(c *Config) { c.Stream.URL = "" },
			wantErr: "stream.url is required",
		},
		{
			name:    "missing bot token",
			mutate:  func(c *Config) { c.Notifier.BotToken = "" },
			wantErr: "notifier.bot_token is required",
		},
		{
			name: "inverted liquidity range",
			mutate: func(c *Config) {
				c.Filters.LiquidityMin = 2000
			},
			wantErr: "filters.liquidity_min (2000) cannot exceed liquidity_max (1000)",
		},
		{
			name: "holder pct above 100",
			mutate: func(c *Config) {
				c.Filters.Top10HolderMax = 120
			},
			wantErr: "filters: holder percentages must be within 0-100",
		},
		{
			name: "duplicate signal delay",
			mutate: func(c *Config) {
				c.Signals = []SignalConfig{
					{Delay: time.Minute, ThresholdPct: 5},
					{Delay: time.Minute, ThresholdPct: 10},
				}
			},
			wantErr: "signals[1]: duplicate delay 1m0s",
		},
		{
			name: "database enabled but incomplete",
			mutate: func(c *Config) {
				c.Database.Enabled = true
				c.Database.MaxConns = 10
			},
			wantErr: "database.host is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func TestStoreReplaceRejectsInvalid(t *testing.T) {
	store, err := NewStore(FiltersConfig{
		LiquidityMax:   1000,
		MarketCapMax:   1000,
		PairAgeMax:     60,
		Top10HolderMax: 100,
		DevHoldMax:     100,
	}, []SignalConfig{{Delay: time.Minute, ThresholdPct: 5}})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	before := store.Current()
	if got := len(before.Signals.Entries); got != 1 {
		t.Fatalf("initial snapshot has %d signal entries, want 1", got)
	}

	bad := FiltersConfig{LiquidityMin: 500, LiquidityMax: 100}
	if err := store.Replace(bad, nil); err == nil {
		t.Fatal("Replace accepted an inverted range")
	}

	if store.Current() != before {
		t.Error("rejected Replace changed the active snapshot")
	}
}

func TestStoreReplaceSwapsSnapshot(t *testing.T) {
	store, err := NewStore(FiltersConfig{
		LiquidityMax:   1000,
		MarketCapMax:   1000,
		PairAgeMax:     60,
		Top10HolderMax: 100,
		DevHoldMax:     100,
	}, nil)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	next := FiltersConfig{
		Networks:       []string{"solana"},
		LiquidityMin:   100,
		LiquidityMax:   5000,
		MarketCapMax:   1000,
		PairAgeMax:     60,
		Top10HolderMax: 100,
		DevHoldMax:     100,
	}
	if err := store.Replace(next, []SignalConfig{{Delay: 30 * time.Second, ThresholdPct: 10}}); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	snap := store.Current()
	if snap.Filter.LiquidityMinUSD != 100 {
		t.Errorf("Filter.LiquidityMinUSD = %g, want 100", snap.Filter.LiquidityMinUSD)
	}
	if len(snap.Filter.Networks) != 1 || snap.Filter.Networks[0] != model.NetworkSolana {
		t.Errorf("Filter.Networks = %v, want [solana]", snap.Filter.Networks)
	}
	if len(snap.Signals.Entries) != 1 || snap.Signals.Entries[0].ThresholdPct != 10 {
		t.Errorf("Signals.Entries = %v, want one entry with threshold 10", snap.Signals.Entries)
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
