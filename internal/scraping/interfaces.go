package scraping

import (
	"context"
	"time"
)

// UserStore persists user directory records in the authoritative store.
type UserStore interface {
	CreateUser(ctx context.Context, user User) (string, error)
	GetUser(ctx context.Context, userID string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	// GrantWebsite adds url to the user's allow-list with set semantics:
	// granting an already-present url is a no-op. Returns ErrNotFound if
	// the user does not exist.
	GrantWebsite(ctx context.Context, userID, url string) error
}

// RequestStore persists pending access requests. Decided requests are
// deleted, so the store only ever holds the pending set.
type RequestStore interface {
	CreateRequest(ctx context.Context, req AccessRequest) (string, error)
	GetRequest(ctx context.Context, requestID string) (AccessRequest, error)
	DeleteRequest(ctx context.Context, requestID string) error
	ListPending(ctx context.Context) ([]AccessRequest, error)
}

// ResultStore is the authoritative record of truth for scrape results.
type ResultStore interface {
	// InsertResult writes the record and returns the id the store
	// assigned to it.
	InsertResult(ctx context.Context, result Result) (string, error)
	ListResultsByUser(ctx context.Context, userID string) ([]Result, error)
}

// MirrorStore is the analytics-oriented secondary store. Writes are best
// effort and failures must never propagate past the coordinator.
type MirrorStore interface {
	WriteResult(ctx context.Context, result Result) error
	ListResultsByUser(ctx context.Context, userID string) ([]Result, error)
}

// Clock returns the current time (injected for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces opaque ids for requests, jobs and results.
type IDGenerator interface {
	NewID() (string, error)
}
