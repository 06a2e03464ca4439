// Package redis implements the analytics mirror store on Redis. The
// mirror is a cache-grade copy of canonical results, read-preferred but
// never required for correctness.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Djennat/web-scraping/internal/scraping"
)

const resultKeyPrefix = "scraper:results:"

// MirrorStore writes canonical results to per-user Redis lists.
type MirrorStore struct {
	client *redis.Client
}

// NewMirrorStore creates a MirrorStore on the provided client.
func NewMirrorStore(client *redis.Client) (*MirrorStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &MirrorStore{client: client}, nil
}

// Options builds a redis client config from address and credentials.
func Options(addr, password string, db int) *redis.Options {
	return &redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}
}

func userKey(userID string) string {
	return resultKeyPrefix + userID
}

// WriteResult pushes the canonical result onto the owner's list. Newest
// results sit at the head, matching the newest-first read contract.
func (s *MirrorStore) WriteResult(ctx context.Context, result scraping.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := s.client.LPush(ctx, userKey(result.UserID), data).Err(); err != nil {
		return fmt.Errorf("%w: lpush result: %w", scraping.ErrUpstreamUnavailable, err)
	}
	return nil
}

// ListResultsByUser returns the mirrored results for a user, newest
// first. Unreachable Redis is reported as ErrUpstreamUnavailable so the
// coordinator can fall back to the authoritative store.
func (s *MirrorStore) ListResultsByUser(ctx context.Context, userID string) ([]scraping.Result, error) {
	raw, err := s.client.LRange(ctx, userKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: lrange results: %w", scraping.ErrUpstreamUnavailable, err)
	}
	results := make([]scraping.Result, 0, len(raw))
	for _, item := range raw {
		var r scraping.Result
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			return nil, fmt.Errorf("unmarshal mirrored result: %w", err)
		}
		results = append(results, r)
	}
	return results, nil
}
