package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeCreated    EventType = "node_created"
	EventParameterError EventType = "parameter_error"
	EventConnectError   EventType = "connect_error"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// NodeEvent is emitted once a definition has produced a concrete node.
type NodeEvent struct {
	EventBase
	Path     string        `json:"path"`
	NodeType string        `json:"node_type"`
	Duration time.Duration `json:"duration"`
}

// FailureEvent reports a non-fatal host failure during materialization.
// Slot is -1 for parameter failures.
type FailureEvent struct {
	EventBase
	Path     string `json:"path"`
	NodeType string `json:"node_type"`
	Slot     int    `json:"slot"`
	Err      error  `json:"-"`
}

// LifecycleHooks defines callbacks for materialization observability.
type LifecycleHooks struct {
	OnNodeCreated    func(context.Context, *NodeEvent)
	OnParameterError func(context.Context, *FailureEvent)
	OnConnectError   func(context.Context, *FailureEvent)
}

// NewNodeEvent stamps a NodeEvent for the given handle.
func NewNodeEvent(h Handle, took time.Duration) *NodeEvent {
	return &NodeEvent{
		EventBase: EventBase{Timestamp: time.Now(), Type: EventNodeCreated},
		Path:      h.Path(),
		NodeType:  h.TypeName(),
		Duration:  took,
	}
}

// NewFailureEvent stamps a FailureEvent for the given handle.
func NewFailureEvent(kind EventType, h Handle, slot int, err error) *FailureEvent {
	return &FailureEvent{
		EventBase: EventBase{Timestamp: time.Now(), Type: kind},
		Path:      h.Path(),
		NodeType:  h.TypeName(),
		Slot:      slot,
		Err:       err,
	}
}
