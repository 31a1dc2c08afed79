package api

// TokenRecord is a token entry as the scan API serves it. Any field the
// upstream omits is left at its zero value; normalization decides what to
// do with the gaps.
type TokenRecord struct {
	ID             string  `json:"id"`
	Address        string  `json:"address"` // fallback identifier when id is absent
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	Network        string  `json:"network"`
	Status         string  `json:"status"`
	PriceUSD       float64 `json:"price_usd"`
	LiquidityUSD   float64 `json:"liquidity_usd"`
	MarketCapUSD   float64 `json:"market_cap_usd"`
	BuyCount24h    int64   `json:"buy_count_24h"`
	PairAgeMinutes float64 `json:"pair_age_minutes"`

	Telegram string `json:"telegram"`
	Twitter  string `json:"twitter"`
	Website  string `json:"website"`

	Security *SecurityRecord `json:"security"`
}

// SecurityRecord carries on-chain audit attributes. Only the pull feed
// serves these.
type SecurityRecord struct {
	MintAuthRevoked   bool    `json:"mint_auth_revoked"`
	FreezeAuthRevoked bool    `json:"freeze_auth_revoked"`
	LPBurned          bool    `json:"lp_burned"`
	Audited           bool    `json:"audited"`
	DEXPaid           bool    `json:"dex_paid"`
	BondingCurve      bool    `json:"bonding_curve"`
	Top10HolderPct    float64 `json:"top10_holder_pct"`
	DevHoldPct        float64 `json:"dev_hold_pct"`
}

// PriceResponse is the body of a single-token price lookup.
type PriceResponse struct {
	ID       string  `json:"id"`
	PriceUSD float64 `json:"price_usd"`
}
