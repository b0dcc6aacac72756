// Package event publishes task lifecycle events from a blend run to
// interested subscribers (progress displays, recorders, tests).
package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the scheduler.
const (
	TypeTaskPrepared      = "task.prepared"
	TypeTaskCompleted     = "task.completed"
	TypeTaskSkipped       = "task.skipped"
	TypeTopologyCommitted = "topology.committed"
)

// Event is an immutable notification about a blend run.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	RunID      string    `json:"run_id"`
	GlobalTime int       `json:"global_time"`
	Timestamp  time.Time `json:"timestamp"`
	Payload    any       `json:"payload"`
}

// TaskPayload describes the task an event is about.
type TaskPayload struct {
	TaskID  string `json:"task_id"`
	NodeID  string `json:"node_id"`
	Kind    string `json:"kind"`
	Variant string `json:"variant,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// TopologyPayload lists the edges a finished task added, removed or rewired.
type TopologyPayload struct {
	TaskID  string   `json:"task_id"`
	NodeID  string   `json:"node_id"`
	Kind    string   `json:"kind"`
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
	Rewired []string `json:"rewired,omitempty"`
}

// New creates an event with a fresh ID and the current time.
func New(eventType, runID string, globalTime int, payload any) Event {
	return Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		RunID:      runID,
		GlobalTime: globalTime,
		Timestamp:  time.Now().UTC(),
		Payload:    payload,
	}
}

// Marshal serializes the event to JSON.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Handler processes one event.
type Handler interface {
	Handle(ctx context.Context, evt Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, evt Event) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}
