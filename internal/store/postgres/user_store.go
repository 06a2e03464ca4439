package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Djennat/web-scraping/internal/scraping"
)

// UserStore persists user directory records in Postgres.
type UserStore struct {
	pool querier
}

// NewUserStore constructs a UserStore on the provided pool.
func NewUserStore(pool querier) (*UserStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &UserStore{pool: pool}, nil
}

// CreateUser inserts a user row and returns the assigned id.
func (s *UserStore) CreateUser(ctx context.Context, user scraping.User) (string, error) {
	query := `
INSERT INTO users (username, email, role, interests, allowed_websites, active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id::text`

	interests := user.Interests
	if interests == nil {
		interests = []string{}
	}
	allowed := user.AllowedWebsites
	if allowed == nil {
		allowed = []string{}
	}

	var id string
	err := s.pool.QueryRow(ctx, query,
		user.Username,
		user.Email,
		string(user.Role),
		interests,
		allowed,
		user.Active,
		user.CreatedAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

// GetUser fetches a user by id.
func (s *UserStore) GetUser(ctx context.Context, userID string) (scraping.User, error) {
	query := `
SELECT id::text, username, email, role, interests, allowed_websites, active, created_at
FROM users
WHERE id = $1`

	var u scraping.User
	var role string
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&role,
		&u.Interests,
		&u.AllowedWebsites,
		&u.Active,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return scraping.User{}, scraping.ErrNotFound
		}
		return scraping.User{}, fmt.Errorf("select user: %w", err)
	}
	u.Role = scraping.Role(role)
	return u, nil
}

// ListUsers returns all users ordered by creation time.
func (s *UserStore) ListUsers(ctx context.Context) ([]scraping.User, error) {
	query := `
SELECT id::text, username, email, role, interests, allowed_websites, active, created_at
FROM users
ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	var users []scraping.User
	for rows.Next() {
		var u scraping.User
		var role string
		if err := rows.Scan(
			&u.ID,
			&u.Username,
			&u.Email,
			&role,
			&u.Interests,
			&u.AllowedWebsites,
			&u.Active,
			&u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Role = scraping.Role(role)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// GrantWebsite appends url to the user's allow-list unless it is already
// present. The append and the membership check run in one statement, so
// concurrent grants of the same url leave exactly one entry.
func (s *UserStore) GrantWebsite(ctx context.Context, userID, url string) error {
	query := `
UPDATE users
SET allowed_websites = array_append(allowed_websites, $2)
WHERE id = $1 AND NOT ($2 = ANY(allowed_websites))`

	tag, err := s.pool.Exec(ctx, query, userID, url)
	if err != nil {
		return fmt.Errorf("grant website: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// No row updated: either the url is already granted or the user does
	// not exist.
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check user exists: %w", err)
	}
	if !exists {
		return scraping.ErrNotFound
	}
	return nil
}
