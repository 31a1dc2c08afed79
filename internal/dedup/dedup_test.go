package dedup

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestShouldAlert_FirstWins(t *testing.T) {
	s := New(0, nil)

	if !s.ShouldAlert("solana:abc") {
		t.Error("first appearance should alert")
	}
	if s.ShouldAlert("solana:abc") {
		t.Error("second appearance should be suppressed")
	}
	if !s.ShouldAlert("solana:def") {
		t.Error("different token should alert")
	}

	if !s.Seen("solana:abc") {
		t.Error("Seen should report alerted token")
	}
	if s.Seen("solana:zzz") {
		t.Error("Seen should not report unknown token")
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func TestShouldAlert_ConcurrentSingleWinner(t *testing.T) {
	s := New(0, nil)

	const goroutines = 50
	var wins atomic.Int32
	var wg sync.WaitGroup

	start := make(chan struct{})
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if s.ShouldAlert("solana:contested") {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := wins.Load(); got != 1 {
		t.Errorf("winners = %d, want exactly 1", got)
	}
}

func TestShouldAlert_ConcurrentManyTokens(t *testing.T) {
	s := New(0, nil)

	const tokens = 100
	var wins atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < tokens; i++ {
		id := fmt.Sprintf("solana:tok-%d", i)
		for j := 0; j < 4; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if s.ShouldAlert(id) {
					wins.Add(1)
				}
			}()
		}
	}
	wg.Wait()

	if got := wins.Load(); got != tokens {
		t.Errorf("winners = %d, want %d (one per token)", got, tokens)
	}
}

func TestShouldAlert_TTLExpiry(t *testing.T) {
	s := New(30*time.Millisecond, nil)

	if !s.ShouldAlert("solana:abc") {
		t.Error("first appearance should alert")
	}
	if s.ShouldAlert("solana:abc") {
		t.Error("within ttl the token stays suppressed")
	}

	time.Sleep(50 * time.Millisecond)

	if !s.ShouldAlert("solana:abc") {
		t.Error("after ttl the token may alert again")
	}
}
