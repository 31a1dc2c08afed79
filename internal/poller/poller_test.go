package poller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tokenradar/internal/api"
)

// mockTokenSource returns a fixed listing or a fixed error.
type mockTokenSource struct {
	records []api.TokenRecord
	err     error
	calls   atomic.Int32
}

func (m *mockTokenSource) ListTokens(ctx context.Context) ([]api.TokenRecord, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

func TestPoller_Poll(t *testing.T) {
	source := &mockTokenSource{
		records: []api.TokenRecord{
			{ID: "a", Symbol: "PEPE"},
			{ID: "b", Symbol: "WIF"},
		},
	}

	var batchCount atomic.Int32
	var lastSize atomic.Int32
	handler := BatchHandlerFunc(func(records []api.TokenRecord, fetchedAt time.Time) error {
		batchCount.Add(1)
		lastSize.Store(int32(len(records)))
		if fetchedAt.IsZero() {
			t.Error("fetchedAt should not be zero")
		}
		return nil
	})

	cfg := Config{
		Interval: time.Hour, // Long interval, we'll trigger manually.
		Timeout:  5 * time.Second,
	}

	p := New(cfg, source, handler, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p.ctx = ctx

	p.poll()

	if got := batchCount.Load(); got != 1 {
		t.Errorf("batchCount = %d, want 1", got)
	}
	if got := lastSize.Load(); got != 2 {
		t.Errorf("batch size = %d, want 2", got)
	}
}

func TestPoller_StartStop(t *testing.T) {
	source := &mockTokenSource{
		records: []api.TokenRecord{{ID: "a", Symbol: "PEPE"}},
	}

	var called atomic.Bool
	handler := BatchHandlerFunc(func(records []api.TokenRecord, fetchedAt time.Time) error {
		called.Store(true)
		return nil
	})

	cfg := Config{
		Interval: 100 * time.Millisecond,
		Timeout:  5 * time.Second,
	}

	p := New(cfg, source, handler, nil, nil)

	ctx := context.Background()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Wait for at least one poll.
	time.Sleep(150 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if !called.Load() {
		t.Error("handler was never called")
	}
}

func TestPoller_FailedCycleSkipped(t *testing.T) {
	source := &mockTokenSource{err: errors.New("upstream down")}

	var batchCount atomic.Int32
	handler := BatchHandlerFunc(func(records []api.TokenRecord, fetchedAt time.Time) error {
		batchCount.Add(1)
		return nil
	})

	cfg := Config{
		Interval: 50 * time.Millisecond,
		Timeout:  5 * time.Second,
	}

	p := New(cfg, source, handler, nil, nil)

	ctx := context.Background()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Let several cycles fail.
	time.Sleep(180 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if batchCount.Load() != 0 {
		t.Errorf("handler called %d times on failed cycles, want 0", batchCount.Load())
	}
	if source.calls.Load() < 2 {
		t.Errorf("source polled %d times, want at least 2 (loop keeps running)", source.calls.Load())
	}
}

// recordingReporter captures status notices for assertions.
type recordingReporter struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recordingReporter) ReportStatus(msg string) {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
}

func (r *recordingReporter) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

func TestPoller_FailedCycleReported(t *testing.T) {
	source := &mockTokenSource{err: errors.New("upstream down")}
	reporter := &recordingReporter{}

	cfg := Config{
		Interval: time.Hour, // single immediate poll
		Timeout:  5 * time.Second,
	}

	p := New(cfg, source, nil, reporter, nil)

	ctx := context.Background()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	deadline := time.After(time.Second)
	for len(reporter.messages()) == 0 {
		select {
		case <-deadline:
			t.Fatal("timeout waiting for failure notice")
		case <-time.After(10 * time.Millisecond):
		}
	}

	msg := reporter.messages()[0]
	if !strings.Contains(msg, "poll failed") || !strings.Contains(msg, "upstream down") {
		t.Errorf("notice = %q, want poll failure mentioning the cause", msg)
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}
