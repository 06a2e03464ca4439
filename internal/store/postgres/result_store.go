package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Djennat/web-scraping/internal/scraping"
)

// ResultStore is the authoritative store for scrape results. Once an
// insert is acknowledged the result exists, whatever happens to the
// mirror afterwards.
type ResultStore struct {
	pool querier
}

// NewResultStore constructs a ResultStore on the provided pool.
func NewResultStore(pool querier) (*ResultStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &ResultStore{pool: pool}, nil
}

// InsertResult writes a result row and returns the id Postgres assigned.
func (s *ResultStore) InsertResult(ctx context.Context, result scraping.Result) (string, error) {
	fieldsJSON, err := json.Marshal(result.Fields)
	if err != nil {
		return "", fmt.Errorf("marshal result fields: %w", err)
	}

	query := `
INSERT INTO scraping_results (user_id, request_id, website_urls, keywords, fields, scraped_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id::text`

	var id string
	err = s.pool.QueryRow(ctx, query,
		result.UserID,
		result.RequestID,
		result.WebsiteURLs,
		result.Keywords,
		fieldsJSON,
		result.ScrapedAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert scraping result: %w", err)
	}
	return id, nil
}

// ListResultsByUser returns the user's results, newest first.
func (s *ResultStore) ListResultsByUser(ctx context.Context, userID string) ([]scraping.Result, error) {
	query := `
SELECT id::text, user_id::text, request_id, website_urls, keywords, fields, scraped_at
FROM scraping_results
WHERE user_id = $1
ORDER BY scraped_at DESC`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("select scraping results: %w", err)
	}
	defer rows.Close()

	var results []scraping.Result
	for rows.Next() {
		var r scraping.Result
		var fieldsJSON []byte
		if err := rows.Scan(
			&r.ID,
			&r.UserID,
			&r.RequestID,
			&r.WebsiteURLs,
			&r.Keywords,
			&fieldsJSON,
			&r.ScrapedAt,
		); err != nil {
			return nil, fmt.Errorf("scan scraping result: %w", err)
		}
		if err := json.Unmarshal(fieldsJSON, &r.Fields); err != nil {
			return nil, fmt.Errorf("unmarshal result fields: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scraping results: %w", err)
	}
	return results, nil
}
