package checkpoint

import (
	"encoding/json"
	"time"

	"github.com/randalmurphal/topoblend/pkg/topoblend/structure"
)

// Version is the current checkpoint format version.
// Increment when making breaking changes to checkpoint structure.
const Version = 1

// Checkpoint is the persisted state of a blend run after a task completed.
type Checkpoint struct {
	Version    int       `json:"version"`
	RunID      string    `json:"run_id"`
	GlobalTime int       `json:"global_time"`
	Timestamp  time.Time `json:"timestamp"`

	// Graph is the active graph with all geometry and topology applied so far.
	Graph structure.Snapshot `json:"graph"`

	// Tasks records the window and completion of every scheduled task.
	Tasks []TaskProgress `json:"tasks"`

	// Trigger is the task whose completion produced this checkpoint.
	Trigger string `json:"trigger,omitempty"`
}

// TaskProgress is the persisted view of one task.
type TaskProgress struct {
	ID     string `json:"id"`
	NodeID string `json:"node_id"`
	Kind   string `json:"kind"`
	Start  int    `json:"start"`
	Length int    `json:"length"`
	Ready  bool   `json:"ready"`
	Done   bool   `json:"done"`

	// Artifacts is the task's prepared state, opaque to this package.
	// Empty when the task is unprepared.
	Artifacts json.RawMessage `json:"artifacts,omitempty"`
}

// New creates a checkpoint for the given run and tick.
func New(runID string, globalTime int, graph structure.Snapshot, tasks []TaskProgress) *Checkpoint {
	return &Checkpoint{
		Version:    Version,
		RunID:      runID,
		GlobalTime: globalTime,
		Timestamp:  time.Now().UTC(),
		Graph:      graph,
		Tasks:      tasks,
	}
}

// WithTrigger records the task that caused the checkpoint.
func (c *Checkpoint) WithTrigger(taskID string) *Checkpoint {
	c.Trigger = taskID
	return c
}

// Completed returns the number of finished tasks.
func (c *Checkpoint) Completed() int {
	n := 0
	for _, t := range c.Tasks {
		if t.Done {
			n++
		}
	}
	return n
}

// Marshal serializes a checkpoint to JSON.
func (c *Checkpoint) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

// Unmarshal deserializes a checkpoint from JSON.
func Unmarshal(data []byte) (*Checkpoint, error) {
	var c Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
