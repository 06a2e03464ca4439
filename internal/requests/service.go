// Package requests implements the website-access request lifecycle:
// pending requests, admin decisions, and the resulting allow-list grant.
package requests

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Djennat/web-scraping/internal/metrics"
	"github.com/Djennat/web-scraping/internal/notify"
	"github.com/Djennat/web-scraping/internal/scraping"
)

// Service owns the pending/approved/rejected state machine. A decision
// applies its effect (allow-list grant on approval) and then deletes the
// request record; decided requests are not retained as history.
type Service struct {
	requests scraping.RequestStore
	users    scraping.UserStore
	notifier notify.Notifier
	clock    scraping.Clock
	logger   *zap.Logger
}

// NewService constructs a Service.
func NewService(
	requests scraping.RequestStore,
	users scraping.UserStore,
	notifier notify.Notifier,
	clock scraping.Clock,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		requests: requests,
		users:    users,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
	}
}

// Submit creates a pending access request for the user. Duplicate
// pending requests for the same URL are allowed; the admin resolves the
// ambiguity when deciding.
func (s *Service) Submit(ctx context.Context, userID, websiteURL string) (scraping.AccessRequest, error) {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return scraping.AccessRequest{}, fmt.Errorf("look up requester: %w", err)
	}
	req := scraping.AccessRequest{
		UserID:      userID,
		WebsiteURL:  websiteURL,
		Status:      scraping.RequestStatusPending,
		RequestedAt: s.clock.Now(),
	}
	id, err := s.requests.CreateRequest(ctx, req)
	if err != nil {
		return scraping.AccessRequest{}, fmt.Errorf("create request: %w", err)
	}
	req.ID = id
	s.logger.Info("access request submitted",
		zap.String("request_id", id),
		zap.String("user_id", userID),
		zap.String("website_url", websiteURL))
	return req, nil
}

// Approve grants the requested website to the requesting user's
// allow-list and deletes the request. A second decision on the same id
// finds the record gone and returns ErrNotFound, so the grant can never
// double-apply.
func (s *Service) Approve(ctx context.Context, requestID, adminID, message string) error {
	req, err := s.decidable(ctx, requestID)
	if err != nil {
		return err
	}

	// The grant is a single-document update with set semantics; applying
	// it before the delete means a crash in between leaves a re-decidable
	// request, never a lost grant.
	if err := s.users.GrantWebsite(ctx, req.UserID, req.WebsiteURL); err != nil {
		return fmt.Errorf("grant website: %w", err)
	}
	if err := s.requests.DeleteRequest(ctx, requestID); err != nil {
		return fmt.Errorf("delete decided request: %w", err)
	}

	metrics.ObserveDecision("approved")
	s.logger.Info("access request approved",
		zap.String("request_id", requestID),
		zap.String("admin_id", adminID),
		zap.String("user_id", req.UserID),
		zap.String("website_url", req.WebsiteURL))

	s.sendStatus(ctx, req, string(scraping.RequestStatusApproved), message)
	return nil
}

// Reject deletes the request without touching the allow-list.
func (s *Service) Reject(ctx context.Context, requestID, adminID, message string) error {
	req, err := s.decidable(ctx, requestID)
	if err != nil {
		return err
	}
	if err := s.requests.DeleteRequest(ctx, requestID); err != nil {
		return fmt.Errorf("delete decided request: %w", err)
	}

	metrics.ObserveDecision("rejected")
	s.logger.Info("access request rejected",
		zap.String("request_id", requestID),
		zap.String("admin_id", adminID),
		zap.String("user_id", req.UserID))

	s.sendStatus(ctx, req, string(scraping.RequestStatusRejected), message)
	return nil
}

// ListPending returns all not-yet-decided requests.
func (s *Service) ListPending(ctx context.Context) ([]scraping.AccessRequest, error) {
	reqs, err := s.requests.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	return reqs, nil
}

func (s *Service) decidable(ctx context.Context, requestID string) (scraping.AccessRequest, error) {
	req, err := s.requests.GetRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, scraping.ErrNotFound) {
			return scraping.AccessRequest{}, scraping.ErrNotFound
		}
		return scraping.AccessRequest{}, fmt.Errorf("look up request: %w", err)
	}
	if req.Status != scraping.RequestStatusPending {
		return scraping.AccessRequest{}, scraping.ErrInvalidState
	}
	return req, nil
}

// sendStatus emits the decision notification. Delivery is best effort;
// failures are logged and swallowed.
func (s *Service) sendStatus(ctx context.Context, req scraping.AccessRequest, status, message string) {
	user, err := s.users.GetUser(ctx, req.UserID)
	if err != nil {
		s.logger.Warn("skipping status notification, user lookup failed",
			zap.String("user_id", req.UserID), zap.Error(err))
		return
	}
	err = s.notifier.NotifyStatus(ctx, notify.StatusNotification{
		Email:      user.Email,
		Username:   user.Username,
		WebsiteURL: req.WebsiteURL,
		Status:     status,
		Message:    message,
	})
	if err != nil {
		s.logger.Warn("status notification failed",
			zap.String("request_id", req.ID), zap.Error(err))
	}
}
