package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter    EventType = "node_enter"
	EventNodeLeave    EventType = "node_leave"
	EventMaterialize  EventType = "materialize"
	EventUnrecognized EventType = "unrecognized"
	EventSubmit       EventType = "submit"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
}

// NodeEvent represents entry into or exit from a node.
type NodeEvent struct {
	EventBase
	Node string `json:"node"`
	Kind string `json:"kind"`
}

// LoadEvent represents a holder materialization.
type LoadEvent struct {
	EventBase
	Path     string        `json:"path"`
	Source   int           `json:"source"`
	CacheHit bool          `json:"cache_hit"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// SubmitEvent is emitted once per finished flow.
type SubmitEvent struct {
	EventBase
	Node    string  `json:"node"`
	Entries []Entry `json:"entries"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnNodeEnter    func(context.Context, *NodeEvent)
	OnNodeLeave    func(context.Context, *NodeEvent)
	OnMaterialize  func(context.Context, *LoadEvent)
	OnUnrecognized func(context.Context, *NodeEvent)
	OnSubmit       func(context.Context, *SubmitEvent)
}

type sessionKey struct{}

// WithSessionID tags ctx so hooks can report which session triggered an event.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionIDFrom returns the session id stored by WithSessionID.
func SessionIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
