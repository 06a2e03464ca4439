// Package users implements the user directory consumed by the pipeline.
// Credential handling lives in the external identity collaborator; this
// service only manages directory records.
package users

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Djennat/web-scraping/internal/notify"
	"github.com/Djennat/web-scraping/internal/scraping"
)

// Service manages user directory records.
type Service struct {
	users    scraping.UserStore
	notifier notify.Notifier
	clock    scraping.Clock
	logger   *zap.Logger
}

// NewService constructs a Service.
func NewService(users scraping.UserStore, notifier notify.Notifier, clock scraping.Clock, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{users: users, notifier: notifier, clock: clock, logger: logger}
}

// Create registers a new user with an empty allow-list and emits a
// welcome notification. Notification failures are logged and swallowed.
func (s *Service) Create(ctx context.Context, in scraping.UserCreate) (scraping.User, error) {
	if in.Role != scraping.RoleUser && in.Role != scraping.RoleAdmin {
		return scraping.User{}, &scraping.ValidationError{Reason: "role must be 'user' or 'admin'"}
	}
	user := scraping.User{
		Username:        in.Username,
		Email:           in.Email,
		Role:            in.Role,
		Interests:       []string{},
		AllowedWebsites: []string{},
		Active:          true,
		CreatedAt:       s.clock.Now(),
	}
	id, err := s.users.CreateUser(ctx, user)
	if err != nil {
		return scraping.User{}, fmt.Errorf("create user: %w", err)
	}
	user.ID = id
	s.logger.Info("user created",
		zap.String("user_id", id),
		zap.String("username", in.Username),
		zap.String("role", string(in.Role)))

	err = s.notifier.NotifyWelcome(ctx, notify.WelcomeNotification{
		Email:    user.Email,
		Username: user.Username,
		Role:     string(user.Role),
	})
	if err != nil {
		s.logger.Warn("welcome notification failed",
			zap.String("user_id", id), zap.Error(err))
	}
	return user, nil
}

// Get fetches a user by id.
func (s *Service) Get(ctx context.Context, userID string) (scraping.User, error) {
	return s.users.GetUser(ctx, userID)
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]scraping.User, error) {
	return s.users.ListUsers(ctx)
}
