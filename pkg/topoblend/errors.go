package topoblend

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/topoblend/pkg/topoblend/structure"
)

// Sentinel errors for task preparation and execution.
var (
	// ErrNodeNotFound indicates a task or link references a node missing from its graph.
	ErrNodeNotFound = structure.ErrNodeNotFound

	// ErrNoCorrespondence indicates a node or link has no counterpart in the
	// target graph, so the branch that needs it is inapplicable.
	ErrNoCorrespondence = errors.New("no correspondence in target graph")

	// ErrNilGraph indicates a task or scheduler was built without a graph.
	ErrNilGraph = errors.New("graph cannot be nil")

	// ErrUnknownKind indicates an operation name that is not GROW, SHRINK, MORPH, SPLIT or MERGE.
	ErrUnknownKind = errors.New("unknown operation kind")
)

// Sentinel errors for scheduling.
var (
	// ErrInvalidWindow indicates a task window with a negative start or non-positive length.
	ErrInvalidWindow = errors.New("invalid task window")

	// ErrOverlappingTasks indicates two tasks on the same node overlap in time.
	ErrOverlappingTasks = errors.New("overlapping tasks on node")

	// ErrNilContext indicates Run() was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrNoCheckpoints indicates no checkpoints exist for the run.
	ErrNoCheckpoints = errors.New("no checkpoints found for run")

	// ErrCheckpointVersionMismatch indicates the checkpoint version is incompatible.
	ErrCheckpointVersionMismatch = errors.New("checkpoint version mismatch")
)

// TaskError wraps an error with task context.
type TaskError struct {
	// TaskID is the identifier of the task that failed.
	TaskID string
	// NodeID is the node the task operates on.
	NodeID string
	// Op is the operation that failed ("prepare", "execute", "finalize").
	Op string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s (node %s): %s: %v", e.TaskID, e.NodeID, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *TaskError) Unwrap() error {
	return e.Err
}

// PanicError captures a panic raised while a task ran.
type PanicError struct {
	// TaskID is the identifier of the task that panicked.
	TaskID string
	// Value is the value passed to panic().
	Value any
	// Stack is the full stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("task %s panicked: %v", e.TaskID, e.Value)
}

// CheckpointError wraps errors from checkpoint operations.
type CheckpointError struct {
	// TaskID is the task whose completion triggered the checkpoint.
	TaskID string
	// Op is the operation that failed ("marshal", "save", "load").
	Op string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *CheckpointError) Error() string {
	return fmt.Sprintf("checkpoint %s after task %s: %v", e.Op, e.TaskID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *CheckpointError) Unwrap() error {
	return e.Err
}
