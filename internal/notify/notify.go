// Package notify delivers alerts and operational notices to Telegram.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// maxMessageLen is Telegram's sendMessage text limit.
const maxMessageLen = 4096

// truncationMarker replaces the tail of an over-long message so the cut is
// visible to the reader.
const truncationMarker = "\n[truncated]"

// Notifier delivers one message.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Config holds Telegram delivery settings.
type Config struct {
	BotToken   string
	ChatID     string
	APIURL     string  // default https://api.telegram.org
	RatePerSec float64 // outbound message rate (default: 1/s)
	Burst      int     // rate limiter burst (default: 5)
	Timeout    time.Duration
}

// Telegram sends messages through the Bot API, rate limited so bursts of
// alerts do not trip Telegram's flood control.
type Telegram struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewTelegram creates a Telegram notifier.
func NewTelegram(cfg Config, logger *slog.Logger) *Telegram {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.APIURL == "" {
		cfg.APIURL = "https://api.telegram.org"
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Telegram{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		logger:     logger,
	}
}

// Notify sends one message, waiting for the rate limiter first. Over-long
// text is truncated with a visible marker.
func (t *Telegram) Notify(ctx context.Context, text string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	form := url.Values{}
	form.Set("chat_id", t.cfg.ChatID)
	form.Set("text", Truncate(text))

	endpoint := t.cfg.APIURL + "/bot" + t.cfg.BotToken + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var apiResp struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	if !apiResp.OK {
		return fmt.Errorf("telegram api: %s", apiResp.Description)
	}

	return nil
}

// Truncate caps text at Telegram's message limit, ending an over-long
// message with a visible marker.
func Truncate(text string) string {
	if len(text) <= maxMessageLen {
		return text
	}
	return text[:maxMessageLen-len(truncationMarker)] + truncationMarker
}
