// Package normalize maps raw feed payloads onto the shared token event
// shape. Both feeds are tolerant of missing fields; only a missing token
// identity is fatal for an event.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tokenradar/internal/api"
	"tokenradar/internal/model"
)

// ErrMissingID marks a payload with no usable token identity.
var ErrMissingID = errors.New("payload has no token id or address")

// pushPayload is the data frame shape the websocket feed sends. Security
// attributes are never part of it.
type pushPayload struct {
	ID             string  `json:"id"`
	Address        string  `json:"address"`
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	Network        string  `json:"network"`
	Status         string  `json:"status"`
	PriceUSD       float64 `json:"price_usd"`
	LiquidityUSD   float64 `json:"liquidity_usd"`
	MarketCapUSD   float64 `json:"market_cap_usd"`
	BuyCount24h    int64   `json:"buy_count_24h"`
	PairAgeMinutes float64 `json:"pair_age_minutes"`
	Telegram       string  `json:"telegram"`
	Twitter        string  `json:"twitter"`
	Website        string  `json:"website"`
}

// FromPush parses one websocket data frame into a token event.
func FromPush(data []byte, receivedAt time.Time) (model.TokenEvent, error) {
	var p pushPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return model.TokenEvent{}, fmt.Errorf("parse push frame: %w", err)
	}

	id := firstNonEmpty(p.ID, p.Address)
	if id == "" {
		return model.TokenEvent{}, ErrMissingID
	}

	network := model.ParseNetwork(p.Network)

	return model.TokenEvent{
		ID:             qualifyID(network, id),
		Network:        network,
		Symbol:         p.Symbol,
		Name:           p.Name,
		Status:         parseStatus(p.Status),
		LiquidityUSD:   p.LiquidityUSD,
		MarketCapUSD:   p.MarketCapUSD,
		BuyCount24h:    p.BuyCount24h,
		PriceUSD:       p.PriceUSD,
		PairAgeMinutes: p.PairAgeMinutes,
		Socials: model.Socials{
			Telegram: p.Telegram != "",
			Twitter:  p.Twitter != "",
			Website:  p.Website != "",
		},
		Security:   nil, // stream frames carry no security data
		Source:     model.SourceStream,
		ObservedAt: receivedAt,
	}, nil
}

// FromPull converts one scan API record into a token event.
func FromPull(rec api.TokenRecord, fetchedAt time.Time) (model.TokenEvent, error) {
	id := firstNonEmpty(rec.ID, rec.Address)
	if id == "" {
		return model.TokenEvent{}, ErrMissingID
	}

	network := model.ParseNetwork(rec.Network)

	ev := model.TokenEvent{
		ID:             qualifyID(network, id),
		Network:        network,
		Symbol:         rec.Symbol,
		Name:           rec.Name,
		Status:         parseStatus(rec.Status),
		LiquidityUSD:   rec.LiquidityUSD,
		MarketCapUSD:   rec.MarketCapUSD,
		BuyCount24h:    rec.BuyCount24h,
		PriceUSD:       rec.PriceUSD,
		PairAgeMinutes: rec.PairAgeMinutes,
		Socials: model.Socials{
			Telegram: rec.Telegram != "",
			Twitter:  rec.Twitter != "",
			Website:  rec.Website != "",
		},
		Source:     model.SourceScan,
		ObservedAt: fetchedAt,
	}

	if rec.Security != nil {
		ev.Security = &model.Security{
			MintAuthorityRevoked:   rec.Security.MintAuthRevoked,
			FreezeAuthorityRevoked: rec.Security.FreezeAuthRevoked,
			LPBurned:               rec.Security.LPBurned,
			Audited:                rec.Security.Audited,
			DEXPaid:                rec.Security.DEXPaid,
			BondingCurve:           rec.Security.BondingCurve,
			Top10HolderPct:         rec.Security.Top10HolderPct,
			DevHoldPct:             rec.Security.DevHoldPct,
		}
	}

	return ev, nil
}

// qualifyID prefixes a bare address with its chain so identities collide
// across feeds but not across networks.
func qualifyID(network model.Network, raw string) string {
	if strings.Contains(raw, ":") {
		return raw
	}
	return string(network) + ":" + raw
}

func parseStatus(s string) model.TokenStatus {
	switch strings.ToLower(s) {
	case "inactive", "paused", "closed":
		return model.StatusInactive
	default:
		// Feeds list tradable tokens; absence of a status means active.
		return model.StatusActive
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
