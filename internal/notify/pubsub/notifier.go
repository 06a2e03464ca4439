// Package pubsub implements the notifier on Google Cloud Pub/Sub. A
// downstream delivery service subscribes to the topic and renders the
// actual emails.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"go.opentelemetry.io/otel"

	"github.com/Djennat/web-scraping/internal/notify"
)

// Event kinds carried in the "kind" message attribute.
const (
	KindStatus       = "request_status"
	KindResultsReady = "results_ready"
	KindWelcome      = "welcome"
)

// Notifier publishes notification events to a Pub/Sub topic.
type Notifier struct {
	publisher *pubsub.Publisher
}

// New creates a Notifier for the provided topic publisher.
func New(publisher *pubsub.Publisher) *Notifier {
	return &Notifier{publisher: publisher}
}

// NotifyStatus publishes a request decision event.
func (n *Notifier) NotifyStatus(ctx context.Context, ev notify.StatusNotification) error {
	return n.publish(ctx, KindStatus, ev)
}

// NotifyResultsReady publishes a results-ready event.
func (n *Notifier) NotifyResultsReady(ctx context.Context, ev notify.ResultsReadyNotification) error {
	return n.publish(ctx, KindResultsReady, ev)
}

// NotifyWelcome publishes a welcome event for a newly created user.
func (n *Notifier) NotifyWelcome(ctx context.Context, ev notify.WelcomeNotification) error {
	return n.publish(ctx, KindWelcome, ev)
}

func (n *Notifier) publish(ctx context.Context, kind string, payload any) error {
	if n.publisher == nil {
		return fmt.Errorf("pubsub publisher is not configured")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	msg := &pubsub.Message{Data: data}
	msg.Attributes = map[string]string{"kind": kind}
	otel.GetTextMapPropagator().Inject(ctx, &pubsubCarrier{attrs: msg.Attributes})

	result := n.publisher.Publish(ctx, msg)
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish %s notification: %w", kind, err)
	}
	return nil
}

// pubsubCarrier implements propagation.TextMapCarrier for Pub/Sub attributes.
type pubsubCarrier struct {
	attrs map[string]string
}

func (c *pubsubCarrier) Get(key string) string {
	return c.attrs[key]
}

func (c *pubsubCarrier) Set(key, value string) {
	c.attrs[key] = value
}

func (c *pubsubCarrier) Keys() []string {
	keys := make([]string, 0, len(c.attrs))
	for k := range c.attrs {
		keys = append(keys, k)
	}
	return keys
}
