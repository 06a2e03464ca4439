// Package memory contains an in-memory notifier for tests.
package memory

import (
	"context"
	"sync"

	"github.com/Djennat/web-scraping/internal/notify"
)

// Notifier records emitted notifications for inspection.
type Notifier struct {
	mu           sync.RWMutex
	statuses     []notify.StatusNotification
	resultsReady []notify.ResultsReadyNotification
	welcomes     []notify.WelcomeNotification
}

// New returns a memory Notifier.
func New() *Notifier {
	return &Notifier{}
}

// NotifyStatus records the event.
func (n *Notifier) NotifyStatus(_ context.Context, ev notify.StatusNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses = append(n.statuses, ev)
	return nil
}

// NotifyResultsReady records the event.
func (n *Notifier) NotifyResultsReady(_ context.Context, ev notify.ResultsReadyNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resultsReady = append(n.resultsReady, ev)
	return nil
}

// NotifyWelcome records the event.
func (n *Notifier) NotifyWelcome(_ context.Context, ev notify.WelcomeNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.welcomes = append(n.welcomes, ev)
	return nil
}

// Statuses returns the recorded status notifications.
func (n *Notifier) Statuses() []notify.StatusNotification {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]notify.StatusNotification, len(n.statuses))
	copy(out, n.statuses)
	return out
}

// ResultsReady returns the recorded results-ready notifications.
func (n *Notifier) ResultsReady() []notify.ResultsReadyNotification {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]notify.ResultsReadyNotification, len(n.resultsReady))
	copy(out, n.resultsReady)
	return out
}

// Welcomes returns the recorded welcome notifications.
func (n *Notifier) Welcomes() []notify.WelcomeNotification {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]notify.WelcomeNotification, len(n.welcomes))
	copy(out, n.welcomes)
	return out
}
