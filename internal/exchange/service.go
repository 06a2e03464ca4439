package exchange

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Djennat/web-scraping/internal/agentxml"
	"github.com/Djennat/web-scraping/internal/scraping"
)

// Service fronts the queue with allow-list enforcement and payload
// generation. Every site in a job must already be granted to the caller.
type Service struct {
	queue  *Queue
	users  scraping.UserStore
	clock  scraping.Clock
	logger *zap.Logger
}

// NewService constructs a Service.
func NewService(queue *Queue, users scraping.UserStore, clock scraping.Clock, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{queue: queue, users: users, clock: clock, logger: logger}
}

// CreateJob builds a scraping_request payload for the given URLs and
// keywords and queues it for the agent. Returns the generated request id
// together with the payload.
func (s *Service) CreateJob(ctx context.Context, userID string, urls, keywords []string) (string, []byte, error) {
	if err := s.checkAllowed(ctx, userID, urls); err != nil {
		return "", nil, err
	}
	payload, err := agentxml.Generate(urls, keywords, s.clock.Now())
	if err != nil {
		return "", nil, fmt.Errorf("generate job payload: %w", err)
	}
	requestID, err := s.queue.Enqueue(userID, urls, keywords, payload)
	if err != nil {
		return "", nil, fmt.Errorf("enqueue job: %w", err)
	}
	return requestID, payload, nil
}

// SubmitPayload accepts an externally generated scraping_request
// document, re-parses it, verifies every site against the caller's
// allow-list, and queues it.
func (s *Service) SubmitPayload(ctx context.Context, userID string, payload []byte) (string, error) {
	req, err := agentxml.Parse(payload)
	if err != nil {
		return "", &scraping.ValidationError{Reason: err.Error()}
	}
	urls := req.URLs()
	if err := s.checkAllowed(ctx, userID, urls); err != nil {
		return "", err
	}
	requestID, err := s.queue.Enqueue(userID, urls, req.Keywords(), payload)
	if err != nil {
		return "", fmt.Errorf("enqueue job: %w", err)
	}
	return requestID, nil
}

// FetchJob hands the payload for requestID to the agent, consuming the
// descriptor. The queue reports absence and ownership mismatch
// identically as ErrNotFound.
func (s *Service) FetchJob(userID, requestID string) ([]byte, error) {
	return s.queue.Dequeue(userID, requestID)
}

func (s *Service) checkAllowed(ctx context.Context, userID string, urls []string) error {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("look up user: %w", err)
	}
	for _, u := range urls {
		if !user.AllowsWebsite(u) {
			s.logger.Warn("website not allowed for user",
				zap.String("user_id", userID),
				zap.String("website_url", u))
			return scraping.ErrNotAllowed
		}
	}
	return nil
}
