package config

import (
	"fmt"
	"sync/atomic"

	"tokenradar/internal/model"
)

// Snapshot bundles the filter and signal configuration active at one
// moment. Snapshots are immutable; readers never observe a partial update.
type Snapshot struct {
	Filter  model.FilterConfig
	Signals model.SignalConfig
}

// Store holds the active configuration snapshot and swaps it wholesale on
// edit. A rejected update leaves the previous snapshot in force.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore creates a Store seeded from the loaded file config.
func NewStore(filters FiltersConfig, signals []SignalConfig) (*Store, error) {
	snap, err := buildSnapshot(filters, signals)
	if err != nil {
		return nil, err
	}
	s := &Store{}
	s.current.Store(snap)
	return s, nil
}

// Current returns the active snapshot. The returned pointer must be
// treated as read-only.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Replace validates the candidate configuration and, on success, makes it
// the active snapshot. On failure the previous snapshot stays active and
// the validation error is returned.
func (s *Store) Replace(filters FiltersConfig, signals []SignalConfig) error {
	snap, err := buildSnapshot(filters, signals)
	if err != nil {
		return fmt.Errorf("reject config update: %w", err)
	}
	s.current.Store(snap)
	return nil
}

func buildSnapshot(filters FiltersConfig, signals []SignalConfig) (*Snapshot, error) {
	if err := filters.validate(); err != nil {
		return nil, err
	}
	if err := validateSignals(signals); err != nil {
		return nil, err
	}

	networks := make([]model.Network, 0, len(filters.Networks))
	for _, raw := range filters.Networks {
		if raw == "" || raw == "all" {
			// "all" clears the restriction entirely
			networks = networks[:0]
			break
		}
		networks = append(networks, model.ParseNetwork(raw))
	}

	entries := make([]model.SignalEntry, 0, len(signals))
	for _, sig := range signals {
		entries = append(entries, model.SignalEntry{
			Delay:        sig.Delay,
			ThresholdPct: sig.ThresholdPct,
		})
	}

	return &Snapshot{
		Filter: model.FilterConfig{
			Networks:        networks,
			Status:          model.TokenStatus(filters.Status),
			LiquidityMinUSD: filters.LiquidityMin,
			LiquidityMaxUSD: filters.LiquidityMax,
			MarketCapMinUSD: filters.MarketCapMin,
			MarketCapMaxUSD: filters.MarketCapMax,
			PairAgeMin:      filters.PairAgeMin,
			PairAgeMax:      filters.PairAgeMax,
			BuyCountMin:     filters.BuyCountMin,

			RequireTelegram: filters.RequireTelegram,
			RequireTwitter:  filters.RequireTwitter,
			RequireWebsite:  filters.RequireWebsite,

			RequireMintRevoked:   filters.RequireMintRevoked,
			RequireFreezeRevoked: filters.RequireFreezeRevoked,
			RequireLPBurned:      filters.RequireLPBurned,
			RequireAudited:       filters.RequireAudited,
			RequireDEXPaid:       filters.RequireDEXPaid,
			RequireBondingCurve:  filters.RequireBondingCurve,

			Top10HolderMinPct: filters.Top10HolderMin,
			Top10HolderMaxPct: filters.Top10HolderMax,
			DevHoldMinPct:     filters.DevHoldMin,
			DevHoldMaxPct:     filters.DevHoldMax,
		},
		Signals: model.SignalConfig{Entries: entries},
	}, nil
}
