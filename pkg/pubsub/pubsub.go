package pubsub

import (
	"context"
	"encoding/json"
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // Subscription topic (e.g., "run_status", "result")
	Type    string          `json:"type"`    // Event type (e.g., "building", "enumerating", "complete")
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Version number for ordering
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic
	// Context cancellation will close the subscription
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data interface{}) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// RunStatus describes the progress of one analysis run
type RunStatus struct {
	RunID   string `json:"runId"`
	State   string `json:"state"`   // building, detecting, enumerating, selecting, planning, complete, error
	Message string `json:"message"` // Human-readable status message
	Step    int    `json:"step"`    // Current step number (1-based)
	Total   int    `json:"total"`   // Total number of steps
}

// PlanSummary is the lightweight result payload pushed to subscribers once a
// run finishes; the full result is fetched over the REST API.
type PlanSummary struct {
	RunID        string `json:"runId"`
	SCCs         int    `json:"sccs"`
	Cycles       int    `json:"cycles"`
	Cuts         int    `json:"cuts"`
	ManualReview int    `json:"manualReview"`
	Partial      bool   `json:"partial"`
}
