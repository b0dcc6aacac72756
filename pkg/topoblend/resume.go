package topoblend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/randalmurphal/topoblend/pkg/topoblend/checkpoint"
	"github.com/randalmurphal/topoblend/pkg/topoblend/observability"
)

// ErrNoCheckpointStore indicates Resume was called on a scheduler built
// without WithCheckpointStore.
var ErrNoCheckpointStore = errors.New("checkpoint store not configured")

// saveCheckpoint persists the active graph and task progress at the
// current tick. Failures are logged unless checkpoint failures are fatal.
func (s *Scheduler) saveCheckpoint(ctx context.Context, trigger string) error {
	if s.store == nil {
		return nil
	}

	progress, err := s.progress()
	if err != nil {
		return s.checkpointFailure(trigger, "marshal", err)
	}

	cp := checkpoint.New(s.runID, s.globalTime, s.active.Snapshot(), progress).WithTrigger(trigger)
	data, err := cp.Marshal()
	if err != nil {
		return s.checkpointFailure(trigger, "marshal", err)
	}

	if err := s.store.Save(s.runID, s.globalTime, data); err != nil {
		return s.checkpointFailure(trigger, "save", err)
	}

	observability.LogCheckpoint(s.logger, trigger, len(data))
	s.metrics.RecordCheckpoint(ctx, trigger, int64(len(data)))
	return nil
}

func (s *Scheduler) checkpointFailure(trigger, op string, err error) error {
	if s.checkpointFailureFatal {
		return &CheckpointError{TaskID: trigger, Op: op, Err: err}
	}
	observability.LogCheckpointError(s.logger, trigger, op, err)
	return nil
}

func (s *Scheduler) progress() ([]checkpoint.TaskProgress, error) {
	out := make([]checkpoint.TaskProgress, 0, len(s.tasks))
	for _, t := range s.tasks {
		p := checkpoint.TaskProgress{
			ID:     t.id,
			NodeID: t.nodeID,
			Kind:   t.kind.String(),
			Start:  t.start,
			Length: t.length,
			Ready:  t.isReady,
			Done:   t.isDone,
		}
		if t.isReady && !t.isDone {
			raw, err := json.Marshal(t.artifacts)
			if err != nil {
				return nil, fmt.Errorf("task %s artifacts: %w", t.id, err)
			}
			p.Artifacts = raw
		}
		out = append(out, p)
	}
	return out, nil
}

// Resume continues a run from its latest checkpoint. The active graph is
// restored in place from the checkpoint snapshot, finished tasks stay
// finished, prepared tasks keep their artifacts, and execution continues
// at the tick after the checkpoint.
//
// Tasks are matched to checkpointed progress by ID, falling back to node,
// kind and start so a re-loaded plan with generated IDs still resumes.
//
// Example:
//
//	// Previous run stopped after tick 120
//	err := s.Resume(ctx, "run-123")
func (s *Scheduler) Resume(ctx Context, runID string) error {
	if ctx == nil {
		return ErrNilContext
	}
	if s.store == nil {
		return ErrNoCheckpointStore
	}

	data, _, err := s.store.Latest(runID)
	if err != nil {
		if errors.Is(err, checkpoint.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNoCheckpoints, runID)
		}
		return &CheckpointError{Op: "load", Err: err}
	}

	cp, err := checkpoint.Unmarshal(data)
	if err != nil {
		return &CheckpointError{Op: "unmarshal", Err: err}
	}
	if cp.Version != checkpoint.Version {
		return fmt.Errorf("%w: got %d, expected %d",
			ErrCheckpointVersionMismatch, cp.Version, checkpoint.Version)
	}

	if err := s.active.Restore(cp.Graph); err != nil {
		return &CheckpointError{TaskID: cp.Trigger, Op: "restore", Err: err}
	}
	if err := s.restoreProgress(cp.Tasks); err != nil {
		return &CheckpointError{TaskID: cp.Trigger, Op: "restore", Err: err}
	}

	s.runID = runID
	s.bind(ctx)
	s.globalTime = cp.GlobalTime
	s.logger.Info("resuming run", "global_time", cp.GlobalTime, "completed", cp.Completed())
	return s.run(ctx, cp.GlobalTime+s.settings.FrameStep)
}

func (s *Scheduler) restoreProgress(progress []checkpoint.TaskProgress) error {
	for _, p := range progress {
		t := s.matchTask(p)
		if t == nil {
			s.logger.Warn("checkpointed task not in plan", "task_id", p.ID, "node_id", p.NodeID)
			continue
		}

		var a Artifacts
		if len(p.Artifacts) > 0 {
			if err := json.Unmarshal(p.Artifacts, &a); err != nil {
				return fmt.Errorf("task %s artifacts: %w", p.ID, err)
			}
		}
		t.restore(p.Ready && len(p.Artifacts) > 0, p.Done, a)
	}
	return nil
}

func (s *Scheduler) matchTask(p checkpoint.TaskProgress) *Task {
	if t, ok := s.Task(p.ID); ok {
		return t
	}
	for _, t := range s.tasks {
		if t.nodeID == p.NodeID && t.kind.String() == p.Kind && t.start == p.Start {
			return t
		}
	}
	return nil
}
