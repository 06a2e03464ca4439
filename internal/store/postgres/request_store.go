package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Djennat/web-scraping/internal/scraping"
)

// RequestStore persists pending access requests in Postgres. Decided
// requests are deleted, so the table only ever holds the pending set.
type RequestStore struct {
	pool querier
}

// NewRequestStore constructs a RequestStore on the provided pool.
func NewRequestStore(pool querier) (*RequestStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &RequestStore{pool: pool}, nil
}

// CreateRequest inserts a pending request row and returns the assigned id.
func (s *RequestStore) CreateRequest(ctx context.Context, req scraping.AccessRequest) (string, error) {
	query := `
INSERT INTO scraping_requests (user_id, website_url, status, requested_at)
VALUES ($1, $2, $3, $4)
RETURNING id::text`

	var id string
	err := s.pool.QueryRow(ctx, query,
		req.UserID,
		req.WebsiteURL,
		string(req.Status),
		req.RequestedAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert scraping request: %w", err)
	}
	return id, nil
}

// GetRequest fetches a request by id.
func (s *RequestStore) GetRequest(ctx context.Context, requestID string) (scraping.AccessRequest, error) {
	query := `
SELECT id::text, user_id::text, website_url, status, requested_at
FROM scraping_requests
WHERE id = $1`

	var req scraping.AccessRequest
	var status string
	err := s.pool.QueryRow(ctx, query, requestID).Scan(
		&req.ID,
		&req.UserID,
		&req.WebsiteURL,
		&status,
		&req.RequestedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return scraping.AccessRequest{}, scraping.ErrNotFound
		}
		return scraping.AccessRequest{}, fmt.Errorf("select scraping request: %w", err)
	}
	req.Status = scraping.RequestStatus(status)
	return req, nil
}

// DeleteRequest removes a request row.
func (s *RequestStore) DeleteRequest(ctx context.Context, requestID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM scraping_requests WHERE id = $1`, requestID)
	if err != nil {
		return fmt.Errorf("delete scraping request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return scraping.ErrNotFound
	}
	return nil
}

// ListPending returns all not-yet-decided requests ordered by submission
// time.
func (s *RequestStore) ListPending(ctx context.Context) ([]scraping.AccessRequest, error) {
	query := `
SELECT id::text, user_id::text, website_url, status, requested_at
FROM scraping_requests
WHERE status = $1
ORDER BY requested_at`

	rows, err := s.pool.Query(ctx, query, string(scraping.RequestStatusPending))
	if err != nil {
		return nil, fmt.Errorf("select pending requests: %w", err)
	}
	defer rows.Close()

	var reqs []scraping.AccessRequest
	for rows.Next() {
		var req scraping.AccessRequest
		var status string
		if err := rows.Scan(&req.ID, &req.UserID, &req.WebsiteURL, &status, &req.RequestedAt); err != nil {
			return nil, fmt.Errorf("scan scraping request: %w", err)
		}
		req.Status = scraping.RequestStatus(status)
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending requests: %w", err)
	}
	return reqs, nil
}
