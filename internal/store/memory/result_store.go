package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Djennat/web-scraping/internal/scraping"
)

// ResultStore keeps authoritative results in memory.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string]scraping.Result
	idGen   scraping.IDGenerator
}

// NewResultStore constructs a ResultStore.
func NewResultStore(idGen scraping.IDGenerator) *ResultStore {
	return &ResultStore{
		results: make(map[string]scraping.Result),
		idGen:   idGen,
	}
}

// InsertResult stores a result and returns the assigned id.
func (s *ResultStore) InsertResult(_ context.Context, result scraping.Result) (string, error) {
	id, err := s.idGen.NewID()
	if err != nil {
		return "", err
	}
	result.ID = id
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[id] = result
	return id, nil
}

// ListResultsByUser returns the user's results, newest first.
func (s *ResultStore) ListResultsByUser(_ context.Context, userID string) ([]scraping.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var results []scraping.Result
	for _, r := range s.results {
		if r.UserID == userID {
			results = append(results, r)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].ScrapedAt.After(results[j].ScrapedAt)
	})
	return results, nil
}
