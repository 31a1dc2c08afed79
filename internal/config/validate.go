package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Stream.URL == "" {
		return errors.New("stream.url is required")
	}
	if c.Stream.Channel == "" {
		return errors.New("stream.channel is required")
	}
	if c.Stream.ReconnectInterval <= 0 {
		return errors.New("stream.reconnect_interval must be positive")
	}
	if c.Stream.MaxReconnectAttempts < 0 {
		return errors.New("stream.max_reconnect_attempts must be >= 0")
	}
	if c.Stream.PingInterval <= 0 {
		return errors.New("stream.ping_interval must be positive")
	}

	if c.Scan.URL == "" {
		return errors.New("scan.url is required")
	}
	if c.Scan.PollInterval <= 0 {
		return errors.New("scan.poll_interval must be positive")
	}

	if c.Notifier.BotToken == "" {
		return errors.New("notifier.bot_token is required")
	}
	if c.Notifier.ChatID == "" {
		return errors.New("notifier.chat_id is required")
	}

	if c.Database.Enabled {
		if err := c.Database.validate("database"); err != nil {
			return err
		}
		if c.Writer.BatchSize < 1 {
			return errors.New("writer.batch_size must be >= 1")
		}
	}

	if c.Pipeline.IntakeBufferSize < 1 {
		return errors.New("pipeline.intake_buffer_size must be >= 1")
	}

	if err := c.Filters.validate(); err != nil {
		return err
	}
	if err := validateSignals(c.Signals); err != nil {
		return err
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}

func (f *FiltersConfig) validate() error {
	type rng struct {
		name     string
		min, max float64
	}
	ranges := []rng{
		{"liquidity", f.LiquidityMin, f.LiquidityMax},
		{"market_cap", f.MarketCapMin, f.MarketCapMax},
		{"pair_age", f.PairAgeMin, f.PairAgeMax},
		{"top10_holder", f.Top10HolderMin, f.Top10HolderMax},
		{"dev_hold", f.DevHoldMin, f.DevHoldMax},
	}
	for _, r := range ranges {
		if r.min < 0 {
			return fmt.Errorf("filters.%s_min must be >= 0, got %g", r.name, r.min)
		}
		if r.max > 0 && r.min > r.max {
			return fmt.Errorf("filters.%s_min (%g) cannot exceed %s_max (%g)", r.name, r.min, r.name, r.max)
		}
	}
	if f.BuyCountMin < 0 {
		return errors.New("filters.buy_count_min must be >= 0")
	}
	if f.Top10HolderMax > 100 || f.DevHoldMax > 100 {
		return errors.New("filters: holder percentages must be within 0-100")
	}
	switch f.Status {
	case "", "active", "inactive":
	default:
		return fmt.Errorf("filters.status must be active, inactive or empty, got %q", f.Status)
	}
	return nil
}

func validateSignals(signals []SignalConfig) error {
	seen := make(map[int64]struct{}, len(signals))
	for i, s := range signals {
		if s.Delay <= 0 {
			return fmt.Errorf("signals[%d].delay must be positive", i)
		}
		if s.ThresholdPct <= 0 {
			return fmt.Errorf("signals[%d].threshold_pct must be positive", i)
		}
		key := int64(s.Delay)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("signals[%d]: duplicate delay %s", i, s.Delay)
		}
		seen[key] = struct{}{}
	}
	return nil
}
