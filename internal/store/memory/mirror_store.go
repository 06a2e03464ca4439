package memory

import (
	"context"
	"sync"

	"github.com/Djennat/web-scraping/internal/scraping"
)

// MirrorStore is an in-memory stand-in for the analytics mirror. Tests
// can force failures to exercise the coordinator's degradation paths.
type MirrorStore struct {
	mu      sync.RWMutex
	results map[string][]scraping.Result

	// FailWrites and FailReads make the corresponding operations return
	// ErrUpstreamUnavailable.
	FailWrites bool
	FailReads  bool

	failNextWrites int
}

// FailNextWrites makes the next n writes fail, then recover.
func (s *MirrorStore) FailNextWrites(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNextWrites = n
}

// NewMirrorStore constructs a MirrorStore.
func NewMirrorStore() *MirrorStore {
	return &MirrorStore{results: make(map[string][]scraping.Result)}
}

// WriteResult prepends the result to the owner's mirrored list.
func (s *MirrorStore) WriteResult(_ context.Context, result scraping.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return scraping.ErrUpstreamUnavailable
	}
	if s.failNextWrites > 0 {
		s.failNextWrites--
		return scraping.ErrUpstreamUnavailable
	}
	s.results[result.UserID] = append([]scraping.Result{result}, s.results[result.UserID]...)
	return nil
}

// ListResultsByUser returns the mirrored results, newest first.
func (s *MirrorStore) ListResultsByUser(_ context.Context, userID string) ([]scraping.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads {
		return nil, scraping.ErrUpstreamUnavailable
	}
	out := make([]scraping.Result, len(s.results[userID]))
	copy(out, s.results[userID])
	return out, nil
}
