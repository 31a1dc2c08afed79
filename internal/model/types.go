package model

import (
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Networks
// -----------------------------------------------------------------------------

// Network identifies the chain a token lives on.
type Network string

const (
	NetworkEthereum Network = "ethereum"
	NetworkBSC      Network = "bsc"
	NetworkPolygon  Network = "polygon"
	NetworkSolana   Network = "solana"
	NetworkBase     Network = "base"
	NetworkArbitrum Network = "arbitrum"

	// NetworkUnknown is the sentinel for network strings no feed variant
	// documents. Events carrying it are still evaluated; they only match
	// configs with an empty network set.
	NetworkUnknown Network = "unknown"
)

// knownNetworks is the set of networks either feed can report.
var knownNetworks = map[Network]struct{}{
	NetworkEthereum: {},
	NetworkBSC:      {},
	NetworkPolygon:  {},
	NetworkSolana:   {},
	NetworkBase:     {},
	NetworkArbitrum: {},
}

// ParseNetwork maps a raw network string to a Network, falling back to
// NetworkUnknown rather than failing.
func ParseNetwork(s string) Network {
	n := Network(s)
	if _, ok := knownNetworks[n]; ok {
		return n
	}
	return NetworkUnknown
}

// -----------------------------------------------------------------------------
// Token Events
// -----------------------------------------------------------------------------

// EventSource identifies which feed produced an event.
type EventSource string

const (
	SourceStream EventSource = "stream" // push feed (websocket)
	SourceScan   EventSource = "scan"   // pull feed (HTTP polling)
)

// TokenStatus is the trading status reported by the feeds.
type TokenStatus string

const (
	StatusActive   TokenStatus = "active"
	StatusInactive TokenStatus = "inactive"
)

// Socials records which social links a token lists.
type Socials struct {
	Telegram bool
	Twitter  bool
	Website  bool
}

// Security holds the on-chain safety attributes the scan feed reports.
// Stream events never carry it (the websocket payload has no security data),
// so a nil Security on a TokenEvent means "unknown", not "unsafe".
type Security struct {
	MintAuthorityRevoked   bool
	FreezeAuthorityRevoked bool
	LPBurned               bool
	Audited                bool
	DEXPaid                bool
	BondingCurve           bool
	Top10HolderPct         float64 // share held by the top 10 holders (0-100)
	DevHoldPct             float64 // share held by the deployer (0-100)
}

// TokenEvent is one normalized token observation from either feed.
type TokenEvent struct {
	ID             string      // chain-qualified address, e.g. "solana:9xQe..."
	Network        Network     // chain
	Symbol         string      // ticker symbol
	Name           string      // display name
	Status         TokenStatus // trading status
	LiquidityUSD   float64     // pool liquidity in USD
	MarketCapUSD   float64     // market cap in USD
	BuyCount24h    int64       // buy transactions in the last 24h
	PriceUSD       float64     // last price in USD
	PairAgeMinutes float64     // minutes since the pair was created
	Socials        Socials     // social link presence
	Security       *Security   // scan feed only, nil otherwise
	Source         EventSource // which feed produced this event
	ObservedAt     time.Time   // when the event was received locally
}

// -----------------------------------------------------------------------------
// Filter configuration
// -----------------------------------------------------------------------------

// FilterConfig is an immutable snapshot of the user's filter thresholds.
// It is replaced wholesale on edit, never mutated mid-evaluation.
// All ranges are inclusive on both ends.
type FilterConfig struct {
	// Networks restricts matches to the listed chains. Empty means all,
	// including NetworkUnknown.
	Networks []Network

	// Status restricts matches to one trading status. Empty means any.
	Status TokenStatus

	LiquidityMinUSD float64
	LiquidityMaxUSD float64
	MarketCapMinUSD float64
	MarketCapMaxUSD float64
	PairAgeMin      float64 // minutes
	PairAgeMax      float64 // minutes
	BuyCountMin     int64

	// Required social links. A required link absent on the event fails.
	RequireTelegram bool
	RequireTwitter  bool
	RequireWebsite  bool

	// Required security attributes. Stream events carry no security data,
	// so any required flag implicitly restricts matches to scan events.
	RequireMintRevoked   bool
	RequireFreezeRevoked bool
	RequireLPBurned      bool
	RequireAudited       bool
	RequireDEXPaid       bool
	RequireBondingCurve  bool

	// Holder-distribution ranges (0-100). Like the required flags above,
	// a range narrower than [0,100] only ever matches scan events.
	Top10HolderMinPct float64
	Top10HolderMaxPct float64
	DevHoldMinPct     float64
	DevHoldMaxPct     float64
}

// AllowsNetwork reports whether the config's network set admits n.
func (c *FilterConfig) AllowsNetwork(n Network) bool {
	if len(c.Networks) == 0 {
		return true
	}
	for _, allowed := range c.Networks {
		if allowed == n {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// Signal configuration and tracking
// -----------------------------------------------------------------------------

// SignalEntry is one delayed price-change check: at Delay after the primary
// alert, fire if the price moved at least ThresholdPct from baseline.
type SignalEntry struct {
	Delay        time.Duration
	ThresholdPct float64
}

// SignalConfig is the ordered set of signal entries active for new alerts.
// Entries must have distinct delays.
type SignalConfig struct {
	Entries []SignalEntry
}

// TrackedToken is a token that produced a primary alert and still has
// signal checks pending. It is destroyed once Pending drains or the
// retention horizon evicts it.
type TrackedToken struct {
	ID          string
	Symbol      string
	Network     Network
	BaselineUSD float64   // price at primary alert time
	BaselineAt  time.Time // primary alert time
	Pending     []SignalEntry
}

// -----------------------------------------------------------------------------
// Alerts
// -----------------------------------------------------------------------------

// AlertKind distinguishes the first alert for a token from delayed
// price-change follow-ups.
type AlertKind string

const (
	AlertPrimary AlertKind = "primary"
	AlertSignal  AlertKind = "signal"
)

// Alert is one emitted notification, as archived by the alert writer.
type Alert struct {
	ID        uuid.UUID   // archive row ID
	Kind      AlertKind   // primary or signal
	TokenID   string      // chain-qualified address
	Network   Network     // chain
	Symbol    string      // ticker symbol
	Source    EventSource // feed that triggered the alert
	PriceUSD  float64     // price at emission time
	ChangePct float64     // signal alerts only, 0 for primary
	EmittedAt time.Time   // local emission time
}
