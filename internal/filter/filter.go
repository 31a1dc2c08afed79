// Package filter evaluates token events against the active filter
// configuration. Evaluation is pure: same event and same config always
// produce the same verdict.
package filter

import (
	"log/slog"
	"sync/atomic"

	"tokenradar/internal/model"
)

// Engine applies filter configs to events and keeps running counters.
type Engine struct {
	logger *slog.Logger

	evaluated atomic.Int64
	matched   atomic.Int64
}

// Stats is a snapshot of the engine's counters.
type Stats struct {
	Evaluated int64
	Matched   int64
}

// New creates a filter engine.
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Matches reports whether the event passes every enabled criterion.
// Cheap checks run first; the first failing criterion ends evaluation.
func (e *Engine) Matches(ev model.TokenEvent, cfg *model.FilterConfig) bool {
	e.evaluated.Add(1)

	ok, reason := match(ev, cfg)
	if !ok {
		e.logger.Debug("event rejected",
			"token", ev.ID,
			"source", ev.Source,
			"reason", reason,
		)
		return false
	}

	e.matched.Add(1)
	return true
}

// Stats returns current counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Evaluated: e.evaluated.Load(),
		Matched:   e.matched.Load(),
	}
}

func match(ev model.TokenEvent, cfg *model.FilterConfig) (bool, string) {
	if !cfg.AllowsNetwork(ev.Network) {
		return false, "network"
	}

	if cfg.Status != "" && ev.Status != cfg.Status {
		return false, "status"
	}

	if !inRange(ev.LiquidityUSD, cfg.LiquidityMinUSD, cfg.LiquidityMaxUSD) {
		return false, "liquidity"
	}
	if !inRange(ev.MarketCapUSD, cfg.MarketCapMinUSD, cfg.MarketCapMaxUSD) {
		return false, "market_cap"
	}
	if !inRange(ev.PairAgeMinutes, cfg.PairAgeMin, cfg.PairAgeMax) {
		return false, "pair_age"
	}
	if ev.BuyCount24h < cfg.BuyCountMin {
		return false, "buy_count"
	}

	if cfg.RequireTelegram && !ev.Socials.Telegram {
		return false, "telegram"
	}
	if cfg.RequireTwitter && !ev.Socials.Twitter {
		return false, "twitter"
	}
	if cfg.RequireWebsite && !ev.Socials.Website {
		return false, "website"
	}

	// Security criteria need security data. Stream events never carry it,
	// so enabling any of these silently restricts matches to scan events.
	if securityRestricted(cfg) {
		sec := ev.Security
		if sec == nil {
			return false, "security_unavailable"
		}
		if cfg.RequireMintRevoked && !sec.MintAuthorityRevoked {
			return false, "mint_authority"
		}
		if cfg.RequireFreezeRevoked && !sec.FreezeAuthorityRevoked {
			return false, "freeze_authority"
		}
		if cfg.RequireLPBurned && !sec.LPBurned {
			return false, "lp_burned"
		}
		if cfg.RequireAudited && !sec.Audited {
			return false, "audit"
		}
		if cfg.RequireDEXPaid && !sec.DEXPaid {
			return false, "dex_paid"
		}
		if cfg.RequireBondingCurve && !sec.BondingCurve {
			return false, "bonding_curve"
		}
		if !inRange(sec.Top10HolderPct, cfg.Top10HolderMinPct, cfg.Top10HolderMaxPct) {
			return false, "top10_holders"
		}
		if !inRange(sec.DevHoldPct, cfg.DevHoldMinPct, cfg.DevHoldMaxPct) {
			return false, "dev_hold"
		}
	}

	return true, ""
}

// securityRestricted reports whether any security criterion is narrower
// than "accept everything".
func securityRestricted(cfg *model.FilterConfig) bool {
	if cfg.RequireMintRevoked || cfg.RequireFreezeRevoked || cfg.RequireLPBurned ||
		cfg.RequireAudited || cfg.RequireDEXPaid || cfg.RequireBondingCurve {
		return true
	}
	if cfg.Top10HolderMinPct > 0 || narrowedMax(cfg.Top10HolderMaxPct) {
		return true
	}
	if cfg.DevHoldMinPct > 0 || narrowedMax(cfg.DevHoldMaxPct) {
		return true
	}
	return false
}

// narrowedMax reports whether a percentage ceiling excludes anything.
// Zero means unset, 100 admits every value.
func narrowedMax(max float64) bool {
	return max > 0 && max < 100
}

// inRange checks min <= v <= max, both ends inclusive. A zero max leaves
// the range unbounded above.
func inRange(v, min, max float64) bool {
	if v < min {
		return false
	}
	if max > 0 && v > max {
		return false
	}
	return true
}
