package topoblend

import (
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/randalmurphal/topoblend/pkg/topoblend/config"
	"github.com/randalmurphal/topoblend/pkg/topoblend/geodesic"
	"github.com/randalmurphal/topoblend/pkg/topoblend/observability"
	"github.com/randalmurphal/topoblend/pkg/topoblend/structure"
)

// Task is one planned operation on one node of the active graph.
//
// A Task moves through UNPREPARED -> READY -> RUNNING -> DONE. Prepare
// computes its Artifacts; each Execute call rewrites the node geometry for
// progress t; Execute(1) commits the topology change and marks the task
// done. A Task is not safe for concurrent use; the Scheduler drives each
// task from one goroutine at a time.
type Task struct {
	id     string
	kind   Kind
	nodeID string

	active *structure.Graph
	target *structure.Graph

	geodesics   geodesic.Provider
	smoothing   int
	weldTol     float64
	logger      *slog.Logger
	runID       string
	lastCommit  Commit
	start       int
	length      int
	currentTime int
	state       State
	isReady     bool
	isDone      bool
	artifacts   Artifacts
}

// TaskOption configures a Task.
type TaskOption func(*Task)

// WithTaskID sets the task identifier. If not set, a UUID is generated.
func WithTaskID(id string) TaskOption {
	return func(t *Task) {
		if id != "" {
			t.id = id
		}
	}
}

// WithWindow places the task on the global timeline.
// Default: start 0, length config.DefaultTaskLength.
func WithWindow(start, length int) TaskOption {
	return func(t *Task) {
		t.start = start
		t.currentTime = start
		t.length = max(1, length)
	}
}

// WithGeodesics sets the geodesic path provider used by two-link and
// single-link MORPH preparation.
// Default: geodesic.NewSampleProvider(config.DefaultGeodesicResolution).
func WithGeodesics(p geodesic.Provider) TaskOption {
	return func(t *Task) {
		if p != nil {
			t.geodesics = p
		}
	}
}

// WithSmoothing sets the number of fixed-endpoint smoothing iterations
// applied to a path before the frame sequence is built. Zero disables it.
func WithSmoothing(iters int) TaskOption {
	return func(t *Task) {
		if iters >= 0 {
			t.smoothing = iters
		}
	}
}

// WithWeldTolerance sets the distance under which path samples are merged.
func WithWeldTolerance(tol float64) TaskOption {
	return func(t *Task) {
		if tol > 0 {
			t.weldTol = tol
		}
	}
}

// WithTaskLogger sets the logger for the task.
func WithTaskLogger(logger *slog.Logger) TaskOption {
	return func(t *Task) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTask creates an unprepared task of the given kind on node nodeID of
// the active graph. The target graph is read only.
//
// Panics if active or target is nil.
func NewTask(active, target *structure.Graph, kind Kind, nodeID string, opts ...TaskOption) *Task {
	if active == nil || target == nil {
		panic("topoblend: " + ErrNilGraph.Error())
	}

	t := &Task{
		id:        uuid.New().String(),
		kind:      kind,
		nodeID:    nodeID,
		active:    active,
		target:    target,
		geodesics: geodesic.NewSampleProvider(config.DefaultGeodesicResolution),
		smoothing: config.DefaultSmoothingIterations,
		weldTol:   config.DefaultWeldTolerance,
		logger:    slog.Default(),
		length:    config.DefaultTaskLength,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ID returns the task identifier.
func (t *Task) ID() string { return t.id }

// Kind returns the operation kind.
func (t *Task) Kind() Kind { return t.kind }

// NodeID returns the active-graph node the task operates on.
func (t *Task) NodeID() string { return t.nodeID }

// State returns the lifecycle state.
func (t *Task) State() State { return t.state }

// IsDone reports whether Execute(1) has been processed.
func (t *Task) IsDone() bool { return t.isDone }

// IsReady reports whether the task holds prepared artifacts.
func (t *Task) IsReady() bool { return t.isReady }

// Artifacts returns the prepared artifacts. The zero value is returned
// before preparation.
func (t *Task) Artifacts() Artifacts { return t.artifacts }

// LastCommit returns the topology change made by the last finalization.
func (t *Task) LastCommit() Commit { return t.lastCommit }

// Start returns the first global tick of the task window.
func (t *Task) Start() int { return t.start }

// Length returns the number of global ticks the task spans.
func (t *Task) Length() int { return t.length }

// EndTime returns Start() + Length().
func (t *Task) EndTime() int { return t.start + t.length }

// CurrentTime returns the global tick of the last execution.
func (t *Task) CurrentTime() int { return t.currentTime }

// SetStart moves the task window and rewinds its current time to the
// new start.
func (t *Task) SetStart(start int) {
	t.start = start
	t.currentTime = start
}

// SetLength resizes the task window. Lengths below 1 are raised to 1.
func (t *Task) SetLength(length int) {
	t.length = max(1, length)
}

// StillWorking reports whether the last execution is before the window end.
func (t *Task) StillWorking() bool {
	return t.currentTime < t.start+t.length
}

// IsActive reports whether Execute(lt) would do any work: lt is not the
// inactive sentinel and the task has not finished.
func (t *Task) IsActive(lt float64) bool {
	return lt >= 0 && !t.isDone
}

// LocalT maps a global tick to local progress: -1 before the window, then
// (globalTime-start)/length clamped to 1.
func (t *Task) LocalT(globalTime int) float64 {
	if globalTime < t.start {
		return -1
	}
	return math.Min(1, float64(globalTime-t.start)/float64(t.length))
}

// Reset rewinds the task to its unprepared state without moving its window.
// Geometry already written to the active graph is left as is.
func (t *Task) Reset() {
	t.artifacts = Artifacts{}
	t.lastCommit = Commit{}
	t.isReady = false
	t.isDone = false
	t.currentTime = t.start
	t.state = StateUnprepared
}

func (t *Task) log() *slog.Logger {
	return observability.EnrichLogger(t.logger, t.runID, t.id, t.nodeID, t.kind.String())
}

// restore reinstates progress captured in a checkpoint.
func (t *Task) restore(ready, done bool, a Artifacts) {
	t.artifacts = a
	t.isReady = ready
	t.isDone = done
	switch {
	case done:
		t.state = StateDone
		t.currentTime = t.EndTime()
	case ready:
		t.state = StateReady
	default:
		t.state = StateUnprepared
	}
}
