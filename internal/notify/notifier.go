// Package notify defines the notification port consumed by the
// pipeline. Delivery (email rendering, SMTP) is an external
// collaborator; the pipeline only emits events, and emission failures
// never propagate to callers.
package notify

import "context"

// StatusNotification reports an approve/reject decision to the
// requesting user.
type StatusNotification struct {
	Email      string `json:"email"`
	Username   string `json:"username"`
	WebsiteURL string `json:"website_url"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
}

// ResultsReadyNotification reports that a mirrored result is available.
type ResultsReadyNotification struct {
	Email      string `json:"email"`
	Username   string `json:"username"`
	WebsiteURL string `json:"website_url"`
	ResultID   string `json:"result_id"`
}

// WelcomeNotification greets a newly created user.
type WelcomeNotification struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Notifier emits user-facing notifications. Implementations are
// asynchronous and best effort.
type Notifier interface {
	NotifyStatus(ctx context.Context, n StatusNotification) error
	NotifyResultsReady(ctx context.Context, n ResultsReadyNotification) error
	NotifyWelcome(ctx context.Context, n WelcomeNotification) error
}

// NoOpNotifier discards all notifications. Useful for tests and for
// running without a configured notification backend.
type NoOpNotifier struct{}

// NotifyStatus for NoOpNotifier does nothing and returns nil.
func (NoOpNotifier) NotifyStatus(_ context.Context, _ StatusNotification) error { return nil }

// NotifyResultsReady for NoOpNotifier does nothing and returns nil.
func (NoOpNotifier) NotifyResultsReady(_ context.Context, _ ResultsReadyNotification) error {
	return nil
}

// NotifyWelcome for NoOpNotifier does nothing and returns nil.
func (NoOpNotifier) NotifyWelcome(_ context.Context, _ WelcomeNotification) error { return nil }
