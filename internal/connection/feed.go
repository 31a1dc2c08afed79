package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"tokenradar/internal/observability"
)

// Feed maintains a single subscribed WebSocket connection to the push
// feed, reconnecting on failure. Data frames come out of Frames(); an
// unrecoverable condition (reconnect budget exhausted) comes out of Fatal().
type Feed interface {
	// Start begins the connect/subscribe/stream loop.
	Start(ctx context.Context) error

	// Stop gracefully shuts the feed down.
	Stop(ctx context.Context) error

	// Frames returns the channel of raw data frames.
	Frames() <-chan RawFrame

	// Fatal returns a channel that yields at most one unrecoverable error.
	Fatal() <-chan error

	// State returns the current lifecycle state.
	State() State
}

// StatusReporter surfaces operator-facing notices about feed health.
type StatusReporter interface {
	ReportStatus(msg string)
}

type nopReporter struct{}

func (nopReporter) ReportStatus(string) {}

// feed implements the Feed interface.
type feed struct {
	cfg    FeedConfig
	report StatusReporter
	logger *slog.Logger

	frames chan RawFrame
	fatal  chan error

	state atomic.Int32
	cmdID int64 // Atomic counter

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
}

// NewFeed creates a new push feed. The reporter receives a notice on
// every disconnect and every successful reconnection; nil disables
// reporting.
func NewFeed(cfg FeedConfig, reporter StatusReporter, logger *slog.Logger) Feed {
	if reporter == nil {
		reporter = nopReporter{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &feed{
		cfg:    cfg,
		report: reporter,
		logger: logger,
		frames: make(chan RawFrame, cfg.BufferSize),
		fatal:  make(chan error, 1),
	}
}

// Start begins the feed loop.
func (f *feed) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return ErrAlreadyStarted
	}
	f.started = true
	f.mu.Unlock()

	f.ctx, f.cancel = context.WithCancel(ctx)

	f.wg.Add(1)
	go f.run()

	f.logger.Info("push feed started", "url", f.cfg.URL, "channel", f.cfg.Channel)
	return nil
}

// Stop gracefully shuts down.
func (f *feed) Stop(ctx context.Context) error {
	f.logger.Info("stopping push feed")

	if f.cancel != nil {
		f.cancel()
	}

	// Wait for the run loop with timeout
	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()

	// The run goroutine owns the frames channel and closes it on exit.
	select {
	case <-done:
	case <-ctx.Done():
		f.logger.Warn("shutdown timeout")
		return ctx.Err()
	}

	f.logger.Info("push feed stopped")
	return nil
}

// Frames returns the output channel.
func (f *feed) Frames() <-chan RawFrame {
	return f.frames
}

// Fatal returns the unrecoverable error channel.
func (f *feed) Fatal() <-chan error {
	return f.fatal
}

// State returns the current lifecycle state.
func (f *feed) State() State {
	return State(f.state.Load())
}

func (f *feed) setState(s State) {
	f.state.Store(int32(s))
	observability.SetStreamState(int(s))
}

// run drives the connect/subscribe/stream cycle until the context is
// cancelled or the reconnect budget runs out. A session that reached
// streaming resets the failure count and the wait.
func (f *feed) run() {
	defer f.wg.Done()
	defer close(f.frames)

	wait := f.cfg.ReconnectInterval
	failures := 0

	for {
		streamed := false
		err := f.session(&streamed, failures > 0)

		if f.ctx.Err() != nil {
			return
		}

		if streamed {
			failures = 0
			wait = f.cfg.ReconnectInterval
		}
		failures++

		f.logger.Warn("push feed session ended",
			"error", err,
			"consecutive_failures", failures,
		)

		if f.cfg.MaxReconnectAttempts > 0 && failures >= f.cfg.MaxReconnectAttempts {
			f.logger.Error("reconnect attempts exhausted", "attempts", failures)
			select {
			case f.fatal <- ErrReconnectExhausted:
			default:
			}
			return
		}

		f.report.ReportStatus(fmt.Sprintf("push feed disconnected: %v, reconnecting in %s", err, wait))

		select {
		case <-f.ctx.Done():
			return
		case <-time.After(wait):
		}
		observability.RecordStreamReconnect()

		// Escalate only when a cap above the base interval is configured
		if f.cfg.ReconnectMaxInterval > f.cfg.ReconnectInterval {
			wait *= 2
			if wait > f.cfg.ReconnectMaxInterval {
				wait = f.cfg.ReconnectMaxInterval
			}
		}
	}
}

// session runs one connection from dial to failure. streamed is set once
// the first data frame arrives; reconnect marks a retry session so the
// recovery gets reported.
func (f *feed) session(streamed *bool, reconnect bool) error {
	f.setState(StateConnecting)
	defer f.setState(StateDisconnected)

	client := NewClient(ClientConfig{
		URL:          f.cfg.URL,
		APIKey:       f.cfg.APIKey,
		PingInterval: f.cfg.PingInterval,
		PingGrace:    f.cfg.PingGrace,
		WriteTimeout: 5 * time.Second,
		BufferSize:   f.cfg.BufferSize,
	}, f.logger)
	defer client.Close()

	if err := client.Connect(f.ctx); err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	id := atomic.AddInt64(&f.cmdID, 1)
	cmd := Command{
		ID:     id,
		Cmd:    "subscribe",
		Params: SubscribeParams{Channel: f.cfg.Channel},
	}
	data, _ := json.Marshal(cmd)
	if err := client.Send(data); err != nil {
		return fmt.Errorf("send subscribe: %w", err)
	}

	subTimer := time.NewTimer(f.cfg.SubscribeTimeout)
	defer subTimer.Stop()
	subscribed := false

	for {
		select {
		case <-f.ctx.Done():
			return nil

		case err := <-client.Errors():
			return err

		case <-subTimer.C:
			if !subscribed {
				return fmt.Errorf("subscribe %q: %w", f.cfg.Channel, ErrTimeout)
			}

		case msg, ok := <-client.Messages():
			if !ok {
				return ErrNotConnected
			}

			if resp, isResp := tryParseResponse(msg.Data); isResp {
				if resp.ID != id {
					continue
				}
				if resp.Type == "error" {
					var errMsg ErrorMsg
					json.Unmarshal(resp.Msg, &errMsg)
					return fmt.Errorf("subscribe rejected: %s: %s", errMsg.Code, errMsg.Message)
				}
				subscribed = true
				f.setState(StateSubscribed)
				f.logger.Info("subscribed", "channel", f.cfg.Channel)
				continue
			}

			if !subscribed {
				f.logger.Debug("data frame before subscribe ack, ignoring")
				continue
			}

			if f.State() != StateStreaming {
				f.setState(StateStreaming)
				*streamed = true
				f.logger.Info("streaming", "channel", f.cfg.Channel)
				if reconnect {
					f.report.ReportStatus(fmt.Sprintf("push feed reconnected, channel %q streaming", f.cfg.Channel))
				}
			}

			select {
			case f.frames <- RawFrame{Data: msg.Data, ReceivedAt: msg.ReceivedAt}:
			default:
				f.logger.Warn("frame buffer full, dropping frame")
			}
		}
	}
}

// tryParseResponse attempts to parse a message as a command response.
func tryParseResponse(data []byte) (Response, bool) {
	// Quick check for response markers
	if !bytes.Contains(data, []byte(`"id":`)) {
		return Response{}, false
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return Response{}, false
	}

	switch resp.Type {
	case "subscribed", "error", "ok":
		return resp, true
	}

	return Response{}, false
}
