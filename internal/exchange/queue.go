// Package exchange implements the transient job handoff between the
// backend and the external scraping agent.
//
// The queue is a single-delivery, single-consumer mailbox per job, not a
// general queue: one descriptor per generated request id, consumed by
// exactly one retrieval, no redelivery, no ordering across jobs. State
// lives only in process memory; undelivered jobs are regenerated by the
// requester after a restart, never recovered.
package exchange

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Djennat/web-scraping/internal/metrics"
	"github.com/Djennat/web-scraping/internal/scraping"
)

// Config bounds queue growth. Abandoned jobs would otherwise accumulate
// forever.
type Config struct {
	MaxEntries int
	MaxAge     time.Duration
}

// Queue is a mutex-guarded table of job descriptors keyed by request id.
type Queue struct {
	mu      sync.Mutex
	entries map[string]scraping.JobDescriptor

	idGen  scraping.IDGenerator
	clock  scraping.Clock
	logger *zap.Logger
	cfg    Config
}

// NewQueue constructs a Queue with the provided bounds.
func NewQueue(idGen scraping.IDGenerator, clock scraping.Clock, cfg Config, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 1024
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = time.Hour
	}
	return &Queue{
		entries: make(map[string]scraping.JobDescriptor),
		idGen:   idGen,
		clock:   clock,
		logger:  logger,
		cfg:     cfg,
	}
}

// Enqueue generates a fresh request id, stores the descriptor under it,
// and returns the id.
func (q *Queue) Enqueue(userID string, websiteURLs, keywords []string, payload []byte) (string, error) {
	requestID, err := q.idGen.NewID()
	if err != nil {
		return "", fmt.Errorf("generate request id: %w", err)
	}
	now := q.clock.Now()

	q.mu.Lock()
	defer q.mu.Unlock()

	q.evictLocked(now)

	q.entries[requestID] = scraping.JobDescriptor{
		RequestID:   requestID,
		UserID:      userID,
		WebsiteURLs: append([]string(nil), websiteURLs...),
		Keywords:    append([]string(nil), keywords...),
		Payload:     append([]byte(nil), payload...),
		CreatedAt:   now,
	}
	metrics.ObserveExchange("enqueue", "ok")
	metrics.SetExchangeDepth(len(q.entries))
	q.logger.Info("job descriptor queued",
		zap.String("request_id", requestID),
		zap.String("user_id", userID),
		zap.Int("sites", len(websiteURLs)))
	return requestID, nil
}

// Dequeue returns the payload for requestID and deletes the entry, but
// only when the stored owner matches userID. An absent id and an
// ownership mismatch are both reported as ErrNotFound so callers cannot
// probe for ids they do not own. The check-then-delete runs under the
// queue lock, so of two concurrent dequeues for the same id exactly one
// wins.
func (q *Queue) Dequeue(userID, requestID string) ([]byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, ok := q.entries[requestID]
	if !ok || entry.UserID != userID {
		metrics.ObserveExchange("dequeue", "miss")
		q.logger.Warn("no job descriptor for request",
			zap.String("request_id", requestID),
			zap.String("user_id", userID))
		return nil, scraping.ErrNotFound
	}
	delete(q.entries, requestID)
	metrics.ObserveExchange("dequeue", "ok")
	metrics.SetExchangeDepth(len(q.entries))
	q.logger.Info("job descriptor retrieved", zap.String("request_id", requestID))
	return entry.Payload, nil
}

// Len returns the number of descriptors awaiting retrieval.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// evictLocked drops expired entries, then the oldest entries until the
// table is under its size bound. Callers must hold q.mu.
func (q *Queue) evictLocked(now time.Time) {
	for id, entry := range q.entries {
		if now.Sub(entry.CreatedAt) > q.cfg.MaxAge {
			delete(q.entries, id)
			metrics.ObserveEviction()
			q.logger.Warn("evicted expired job descriptor", zap.String("request_id", id))
		}
	}
	for len(q.entries) >= q.cfg.MaxEntries {
		oldestID := ""
		var oldestAt time.Time
		for id, entry := range q.entries {
			if oldestID == "" || entry.CreatedAt.Before(oldestAt) {
				oldestID = id
				oldestAt = entry.CreatedAt
			}
		}
		delete(q.entries, oldestID)
		metrics.ObserveEviction()
		q.logger.Warn("evicted job descriptor over capacity", zap.String("request_id", oldestID))
	}
}
