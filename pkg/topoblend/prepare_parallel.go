package topoblend

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/topoblend/pkg/topoblend/event"
	"github.com/randalmurphal/topoblend/pkg/topoblend/observability"
	"github.com/randalmurphal/topoblend/pkg/topoblend/structure"
)

// PrepareAll prepares every task that is due at globalTime and not yet
// prepared. Tasks whose footprints (node, active neighbours and future
// neighbours) are disjoint are prepared concurrently, up to the configured
// max concurrency; overlapping tasks are placed in later waves.
//
// Tasks that need a missing correspondence are skipped and marked done.
// Any other preparation error is returned.
func (s *Scheduler) PrepareAll(ctx context.Context, globalTime int) error {
	if ctx == nil {
		return ErrNilContext
	}
	_, err := s.prepareDue(ctx, globalTime, s.Running(globalTime))
	return err
}

type prepareResult struct {
	err      error
	duration time.Duration
}

// prepareDue prepares the due tasks and returns the ones it skipped.
func (s *Scheduler) prepareDue(ctx context.Context, globalTime int, running structure.IDSet) ([]*Task, error) {
	var pending []*Task
	for _, t := range s.due(globalTime) {
		if !t.isReady {
			pending = append(pending, t)
		}
	}

	var skipped []*Task
	for _, wave := range s.waves(pending) {
		results, err := s.prepareWave(ctx, wave, running)
		if err != nil {
			return skipped, err
		}
		for i, t := range wave {
			if err := s.reportPrepared(ctx, t, results[i]); err != nil {
				return skipped, err
			}
			if t.isDone {
				skipped = append(skipped, t)
			}
		}
	}
	return skipped, nil
}

// waves partitions tasks so no two tasks in one wave share a footprint node.
func (s *Scheduler) waves(tasks []*Task) [][]*Task {
	var (
		waves      [][]*Task
		footprints []structure.IDSet
	)
	for _, t := range tasks {
		fp := s.footprint(t)
		placed := false
		for i := range waves {
			if !footprints[i].Intersects(fp) {
				waves[i] = append(waves[i], t)
				for id := range fp {
					footprints[i].Add(id)
				}
				placed = true
				break
			}
		}
		if !placed {
			waves = append(waves, []*Task{t})
			footprints = append(footprints, fp)
		}
	}
	return waves
}

// footprint is the set of active nodes a task's preparation may touch.
func (s *Scheduler) footprint(t *Task) structure.IDSet {
	fp := structure.NewIDSet(t.nodeID)
	for _, l := range s.active.Edges(t.nodeID) {
		fp.Add(l.Other(t.nodeID))
	}
	if tn, err := t.targetNode(); err == nil {
		for _, tl := range s.target.Edges(tn.ID) {
			if id, err := t.correspondent(tl.Other(tn.ID)); err == nil {
				fp.Add(id)
			}
		}
	}
	return fp
}

func (s *Scheduler) prepareWave(ctx context.Context, wave []*Task, running structure.IDSet) ([]prepareResult, error) {
	results := make([]prepareResult, len(wave))
	g, gctx := errgroup.WithContext(ctx)
	if s.settings.MaxConcurrency > 0 {
		g.SetLimit(s.settings.MaxConcurrency)
	}

	for i, t := range wave {
		g.Go(func() error {
			res := s.prepareTask(gctx, t, running)
			results[i] = res
			var pe *PanicError
			if errors.As(res.err, &pe) {
				return pe
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (s *Scheduler) prepareTask(ctx context.Context, t *Task, running structure.IDSet) (res prepareResult) {
	spanCtx, span := s.spans.StartTaskSpan(ctx, t.id, t.nodeID, "prepare")
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res.err = &PanicError{TaskID: t.id, Value: r, Stack: string(debug.Stack())}
		}
		res.duration = time.Since(started)
		s.metrics.RecordTaskPrepared(spanCtx, t.kind.String(), res.duration, res.err)
		s.spans.EndSpanWithError(span, res.err)
	}()

	res.err = t.Prepare(running)
	return res
}

// reportPrepared logs and publishes one preparation outcome.
func (s *Scheduler) reportPrepared(ctx context.Context, t *Task, res prepareResult) error {
	switch {
	case res.err == nil:
		observability.LogTaskPrepared(s.logger, t.id, t.nodeID, t.artifacts.Variant.String(), float64(res.duration.Microseconds())/1000)
		s.publish(ctx, event.TypeTaskPrepared, s.taskPayload(t, nil))
		return nil
	case errors.Is(res.err, ErrNoCorrespondence):
		s.skip(ctx, t, res.err)
		return nil
	default:
		return fmt.Errorf("prepare tick %d: %w", s.globalTime, res.err)
	}
}
