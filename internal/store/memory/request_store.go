package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Djennat/web-scraping/internal/scraping"
)

// RequestStore keeps pending access requests in memory.
type RequestStore struct {
	mu       sync.RWMutex
	requests map[string]scraping.AccessRequest
	idGen    scraping.IDGenerator
}

// NewRequestStore constructs a RequestStore.
func NewRequestStore(idGen scraping.IDGenerator) *RequestStore {
	return &RequestStore{
		requests: make(map[string]scraping.AccessRequest),
		idGen:    idGen,
	}
}

// CreateRequest stores a new request and returns the assigned id.
func (s *RequestStore) CreateRequest(_ context.Context, req scraping.AccessRequest) (string, error) {
	id, err := s.idGen.NewID()
	if err != nil {
		return "", err
	}
	req.ID = id
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[id] = req
	return id, nil
}

// GetRequest fetches a request by id.
func (s *RequestStore) GetRequest(_ context.Context, requestID string) (scraping.AccessRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[requestID]
	if !ok {
		return scraping.AccessRequest{}, scraping.ErrNotFound
	}
	return req, nil
}

// DeleteRequest removes a request.
func (s *RequestStore) DeleteRequest(_ context.Context, requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[requestID]; !ok {
		return scraping.ErrNotFound
	}
	delete(s.requests, requestID)
	return nil
}

// ListPending returns all pending requests ordered by submission time.
func (s *RequestStore) ListPending(_ context.Context) ([]scraping.AccessRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reqs := make([]scraping.AccessRequest, 0, len(s.requests))
	for _, req := range s.requests {
		if req.Status == scraping.RequestStatusPending {
			reqs = append(reqs, req)
		}
	}
	sort.Slice(reqs, func(i, j int) bool {
		return reqs[i].RequestedAt.Before(reqs[j].RequestedAt)
	})
	return reqs, nil
}
