package notify

import (
	"fmt"
	"strings"
	"time"

	"tokenradar/internal/model"
)

// FormatPrimaryAlert renders the first alert for a token.
func FormatPrimaryAlert(ev model.TokenEvent) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🚨 %s", ev.Symbol)
	if ev.Name != "" && ev.Name != ev.Symbol {
		fmt.Fprintf(&b, " (%s)", ev.Name)
	}
	fmt.Fprintf(&b, " on %s\n", ev.Network)

	fmt.Fprintf(&b, "Price: $%s\n", formatUSD(ev.PriceUSD))
	fmt.Fprintf(&b, "Liquidity: $%s | MCap: $%s\n", formatUSD(ev.LiquidityUSD), formatUSD(ev.MarketCapUSD))
	fmt.Fprintf(&b, "Buys 24h: %d | Pair age: %s\n", ev.BuyCount24h, formatAge(ev.PairAgeMinutes))

	if links := socialLine(ev.Socials); links != "" {
		fmt.Fprintf(&b, "Links: %s\n", links)
	}

	if sec := ev.Security; sec != nil {
		var attrs []string
		if sec.MintAuthorityRevoked {
			attrs = append(attrs, "mint revoked")
		}
		if sec.FreezeAuthorityRevoked {
			attrs = append(attrs, "freeze revoked")
		}
		if sec.LPBurned {
			attrs = append(attrs, "LP burned")
		}
		if sec.Audited {
			attrs = append(attrs, "audited")
		}
		if len(attrs) > 0 {
			fmt.Fprintf(&b, "Safety: %s\n", strings.Join(attrs, ", "))
		}
		fmt.Fprintf(&b, "Top10: %.1f%% | Dev: %.1f%%\n", sec.Top10HolderPct, sec.DevHoldPct)
	}

	fmt.Fprintf(&b, "ID: %s [%s]", ev.ID, ev.Source)
	return b.String()
}

// FormatSignalAlert renders a delayed price-change follow-up.
func FormatSignalAlert(token model.TrackedToken, entry model.SignalEntry, priceUSD, changePct float64) string {
	arrow := "📈"
	if changePct < 0 {
		arrow = "📉"
	}
	return fmt.Sprintf("%s %s %+.1f%% in %s\nPrice: $%s (from $%s)\nID: %s",
		arrow,
		token.Symbol,
		changePct,
		formatDelay(entry.Delay),
		formatUSD(priceUSD),
		formatUSD(token.BaselineUSD),
		token.ID,
	)
}

func socialLine(s model.Socials) string {
	var links []string
	if s.Telegram {
		links = append(links, "TG")
	}
	if s.Twitter {
		links = append(links, "X")
	}
	if s.Website {
		links = append(links, "web")
	}
	return strings.Join(links, " ")
}

// formatUSD trims needless precision: sub-cent prices keep their leading
// significant digits, everything else reads like money.
func formatUSD(v float64) string {
	switch {
	case v == 0:
		return "0"
	case v < 0.01:
		return fmt.Sprintf("%.8f", v)
	case v < 1000:
		return fmt.Sprintf("%.2f", v)
	case v < 1_000_000:
		return fmt.Sprintf("%.1fK", v/1000)
	default:
		return fmt.Sprintf("%.2fM", v/1_000_000)
	}
}

func formatAge(minutes float64) string {
	if minutes < 60 {
		return fmt.Sprintf("%.0fm", minutes)
	}
	return fmt.Sprintf("%.1fh", minutes/60)
}

func formatDelay(d time.Duration) string {
	return d.Truncate(time.Second).String()
}
