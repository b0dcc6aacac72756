package topoblend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"time"

	"github.com/randalmurphal/topoblend/pkg/topoblend/checkpoint"
	"github.com/randalmurphal/topoblend/pkg/topoblend/config"
	"github.com/randalmurphal/topoblend/pkg/topoblend/event"
	"github.com/randalmurphal/topoblend/pkg/topoblend/geodesic"
	"github.com/randalmurphal/topoblend/pkg/topoblend/observability"
	"github.com/randalmurphal/topoblend/pkg/topoblend/structure"
)

// Scheduler drives a set of tasks along the global timeline.
//
// Each frame it computes the running set (nodes of tasks whose window has
// opened and that are not done), prepares newly due tasks, then executes
// every due task in timeline order. The running set is passed to every
// geodesic query so paths avoid geometry that is about to move.
//
// Example:
//
//	s := topoblend.NewScheduler(active, target, topoblend.WithMetrics(true))
//	s.AddTask(topoblend.Shrink, "arm", topoblend.WithWindow(0, 60))
//	if err := s.Run(topoblend.NewContext(context.Background())); err != nil {
//	    log.Fatal(err)
//	}
type Scheduler struct {
	active *structure.Graph
	target *structure.Graph
	tasks  []*Task

	settings               config.Settings
	geodesics              geodesic.Provider
	store                  checkpoint.Store
	checkpointFailureFatal bool
	bus                    event.Bus
	metrics                observability.MetricsRecorder
	spans                  observability.SpanManager
	runID                  string
	sceneName              string
	logger                 *slog.Logger
	globalTime             int
}

// NewScheduler creates a scheduler blending active toward target.
//
// Panics if either graph is nil.
func NewScheduler(active, target *structure.Graph, opts ...Option) *Scheduler {
	if active == nil || target == nil {
		panic("topoblend: " + ErrNilGraph.Error())
	}

	s := &Scheduler{
		active:    active,
		target:    target,
		settings:  config.DefaultSettings(),
		metrics:   observability.NoopMetrics{},
		spans:     observability.NoopSpanManager{},
		sceneName: active.Name,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.geodesics == nil {
		s.geodesics = geodesic.NewSampleProvider(s.settings.GeodesicResolution)
	}
	return s
}

// AddTask plans an operation on nodeID. The task inherits the scheduler's
// geodesic provider, smoothing, weld tolerance and default length; opts
// override them.
func (s *Scheduler) AddTask(kind Kind, nodeID string, opts ...TaskOption) *Task {
	base := []TaskOption{
		WithWindow(0, s.settings.TaskLength),
		WithGeodesics(s.geodesics),
		WithSmoothing(s.settings.SmoothingIterations),
		WithWeldTolerance(s.settings.WeldTolerance),
		WithTaskLogger(s.logger),
	}
	t := NewTask(s.active, s.target, kind, nodeID, append(base, opts...)...)
	t.runID = s.runID
	s.tasks = append(s.tasks, t)
	return t
}

// Tasks returns the planned tasks in insertion order.
func (s *Scheduler) Tasks() []*Task {
	return append([]*Task(nil), s.tasks...)
}

// Task returns the task with the given ID.
func (s *Scheduler) Task(id string) (*Task, bool) {
	for _, t := range s.tasks {
		if t.id == id {
			return t, true
		}
	}
	return nil, false
}

// Active returns the graph being blended.
func (s *Scheduler) Active() *structure.Graph { return s.active }

// Target returns the graph being blended toward.
func (s *Scheduler) Target() *structure.Graph { return s.target }

// GlobalTime returns the tick of the last executed frame.
func (s *Scheduler) GlobalTime() int { return s.globalTime }

// RunID returns the run identifier, empty before Run or Resume.
func (s *Scheduler) RunID() string { return s.runID }

// TotalTime returns the latest task end time.
func (s *Scheduler) TotalTime() int {
	end := 0
	for _, t := range s.tasks {
		end = max(end, t.EndTime())
	}
	return end
}

// Done reports whether every task has finished.
func (s *Scheduler) Done() bool {
	for _, t := range s.tasks {
		if !t.isDone {
			return false
		}
	}
	return true
}

// Running returns the nodes under transformation at globalTime.
func (s *Scheduler) Running(globalTime int) structure.IDSet {
	set := structure.NewIDSet()
	for _, t := range s.tasks {
		if !t.isDone && t.LocalT(globalTime) >= 0 {
			set.Add(t.nodeID)
		}
	}
	return set
}

// due returns the unfinished tasks whose window has opened, ordered by
// start then insertion.
func (s *Scheduler) due(globalTime int) []*Task {
	var out []*Task
	for _, t := range s.tasks {
		if t.IsActive(t.LocalT(globalTime)) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].start < out[j].start })
	return out
}

// Run drives every task from tick 0 until all are done.
func (s *Scheduler) Run(ctx Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	s.bind(ctx)
	return s.run(ctx, 0)
}

// bind adopts the run ID and logger of ctx.
func (s *Scheduler) bind(ctx Context) {
	if s.runID == "" {
		s.runID = ctx.RunID()
	}
	s.logger = ctx.Logger().With("run_id", s.runID)
	for _, t := range s.tasks {
		t.logger = ctx.Logger()
		t.runID = s.runID
	}
}

func (s *Scheduler) run(ctx Context, from int) (runErr error) {
	startTime := time.Now()
	elapsed := observability.TimedOperation()
	observability.LogRunStart(s.logger, s.runID, len(s.tasks))

	execCtx, runSpan := s.spans.StartRunSpan(ctx, s.sceneName, s.runID)
	defer func() {
		s.spans.EndSpanWithError(runSpan, runErr)
	}()

	frames := 0
	for gt := from; !s.Done(); gt += s.settings.FrameStep {
		select {
		case <-ctx.Done():
			runErr = fmt.Errorf("run cancelled at tick %d: %w", gt, ctx.Err())
		default:
			runErr = s.step(execCtx, gt)
		}
		if runErr != nil {
			break
		}
		frames++
	}

	duration := time.Since(startTime)
	s.metrics.RecordRun(ctx, runErr == nil, duration)
	durationMs := elapsed()
	if runErr != nil {
		observability.LogRunError(s.logger, s.runID, runErr, durationMs, s.globalTime)
	} else {
		observability.LogRunComplete(s.logger, s.runID, durationMs, frames)
	}
	return runErr
}

// Step executes a single frame at globalTime.
func (s *Scheduler) Step(ctx context.Context, globalTime int) error {
	if ctx == nil {
		return ErrNilContext
	}
	return s.step(ctx, globalTime)
}

func (s *Scheduler) step(ctx context.Context, globalTime int) error {
	s.globalTime = globalTime
	running := s.Running(globalTime)

	// Tasks skipped while preparing still count as finished this frame.
	finished, err := s.prepareDue(ctx, globalTime, running)
	if err != nil {
		return err
	}

	due := s.due(globalTime)
	for _, t := range due {
		lt := t.LocalT(globalTime)
		err := s.executeTask(ctx, t, lt, running)
		switch {
		case err == nil:
		case errors.Is(err, ErrNoCorrespondence):
			if !t.isDone {
				s.skip(ctx, t, err)
				finished = append(finished, t)
				continue
			}
			s.logger.Warn("topology commit incomplete", "task_id", t.id, "node_id", t.nodeID, "error", err)
		default:
			return err
		}
		if t.isDone {
			finished = append(finished, t)
			s.completed(ctx, t)
		}
	}
	s.metrics.RecordFrame(ctx, len(due))

	if len(finished) > 0 {
		return s.saveCheckpoint(ctx, finished[len(finished)-1].id)
	}
	return nil
}

// executeTask runs one task for one frame with panic recovery.
func (s *Scheduler) executeTask(ctx context.Context, t *Task, lt float64, running structure.IDSet) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{TaskID: t.id, Value: r, Stack: string(debug.Stack())}
		}
	}()

	if lt < 1 {
		return t.Execute(lt, running)
	}

	spanCtx, span := s.spans.StartTaskSpan(ctx, t.id, t.nodeID, "finalize")
	defer func() {
		s.spans.EndSpanWithError(span, err)
	}()
	err = t.Execute(lt, running)
	commit := t.lastCommit
	s.metrics.RecordTopologyCommit(spanCtx, t.kind.String(), len(commit.Added)+len(commit.Rewired), len(commit.Removed))
	return err
}

// completed reports a finished task.
func (s *Scheduler) completed(ctx context.Context, t *Task) {
	commit := t.lastCommit
	observability.LogTaskComplete(s.logger, t.id, t.nodeID)
	observability.LogTopologyCommit(s.logger, t.nodeID, t.kind.String(), len(commit.Added)+len(commit.Rewired), len(commit.Removed))
	s.publish(ctx, event.TypeTaskCompleted, s.taskPayload(t, nil))
	if !commit.Empty() {
		s.publish(ctx, event.TypeTopologyCommitted, event.TopologyPayload{
			TaskID:  t.id,
			NodeID:  t.nodeID,
			Kind:    t.kind.String(),
			Added:   commit.Added,
			Removed: commit.Removed,
			Rewired: commit.Rewired,
		})
	}
}

// skip marks a task whose branch is inapplicable as finished without
// touching its geometry.
func (s *Scheduler) skip(ctx context.Context, t *Task, reason error) {
	t.isDone = true
	t.state = StateDone
	t.currentTime = t.EndTime()
	observability.LogTaskSkipped(s.logger, t.id, t.nodeID, reason)
	s.publish(ctx, event.TypeTaskSkipped, s.taskPayload(t, reason))
}

func (s *Scheduler) taskPayload(t *Task, reason error) event.TaskPayload {
	p := event.TaskPayload{
		TaskID:  t.id,
		NodeID:  t.nodeID,
		Kind:    t.kind.String(),
		Variant: t.artifacts.Variant.String(),
	}
	if reason != nil {
		p.Reason = reason.Error()
	}
	return p
}

func (s *Scheduler) publish(ctx context.Context, eventType string, payload any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event.New(eventType, s.runID, s.globalTime, payload)); err != nil {
		s.logger.Warn("event publish failed", "type", eventType, "error", err)
	}
}
