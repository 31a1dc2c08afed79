// Package dedup remembers which tokens already produced a primary alert so
// each token alerts at most once, no matter how many times or from which
// feed it reappears.
package dedup

import (
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
)

// Store is a concurrency-safe first-wins registry of alerted token IDs.
type Store struct {
	seen   *cache.Cache
	logger *slog.Logger
}

// New creates a Store. ttl bounds how long an ID is remembered; zero or
// negative means forever.
func New(ttl time.Duration, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &Store{
		seen:   cache.New(ttl, 10*time.Minute),
		logger: logger,
	}
}

// ShouldAlert records the ID and reports whether this is its first
// appearance. Add is atomic, so under concurrent calls exactly one caller
// gets true.
func (s *Store) ShouldAlert(id string) bool {
	if err := s.seen.Add(id, struct{}{}, cache.DefaultExpiration); err != nil {
		s.logger.Debug("duplicate token suppressed", "token", id)
		return false
	}
	return true
}

// Seen reports whether the ID has alerted before, without recording it.
func (s *Store) Seen(id string) bool {
	_, found := s.seen.Get(id)
	return found
}

// Len returns the number of remembered IDs.
func (s *Store) Len() int {
	return s.seen.ItemCount()
}
