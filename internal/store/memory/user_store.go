// Package memory provides in-memory store implementations for local
// development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/Djennat/web-scraping/internal/scraping"
)

// UserStore keeps user records in a map guarded by a RWMutex.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]scraping.User
	idGen scraping.IDGenerator
}

// NewUserStore constructs a UserStore.
func NewUserStore(idGen scraping.IDGenerator) *UserStore {
	return &UserStore{
		users: make(map[string]scraping.User),
		idGen: idGen,
	}
}

// CreateUser stores a new user and returns the assigned id.
func (s *UserStore) CreateUser(_ context.Context, user scraping.User) (string, error) {
	id, err := s.idGen.NewID()
	if err != nil {
		return "", err
	}
	user.ID = id
	if user.Interests == nil {
		user.Interests = []string{}
	}
	if user.AllowedWebsites == nil {
		user.AllowedWebsites = []string{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = user
	return id, nil
}

// GetUser fetches a user by id.
func (s *UserStore) GetUser(_ context.Context, userID string) (scraping.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return scraping.User{}, scraping.ErrNotFound
	}
	return cloneUser(user), nil
}

// ListUsers returns all users.
func (s *UserStore) ListUsers(_ context.Context) ([]scraping.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]scraping.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, cloneUser(u))
	}
	return users, nil
}

// GrantWebsite adds url to the user's allow-list with set semantics.
func (s *UserStore) GrantWebsite(_ context.Context, userID, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return scraping.ErrNotFound
	}
	for _, w := range user.AllowedWebsites {
		if w == url {
			return nil
		}
	}
	user.AllowedWebsites = append(user.AllowedWebsites, url)
	s.users[userID] = user
	return nil
}

func cloneUser(u scraping.User) scraping.User {
	cp := u
	cp.Interests = append([]string(nil), u.Interests...)
	cp.AllowedWebsites = append([]string(nil), u.AllowedWebsites...)
	return cp
}
