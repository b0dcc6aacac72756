package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/topoblend/pkg/topoblend"
	"github.com/randalmurphal/topoblend/pkg/topoblend/checkpoint"
	"github.com/randalmurphal/topoblend/pkg/topoblend/config"
	"github.com/randalmurphal/topoblend/pkg/topoblend/event"
	"github.com/randalmurphal/topoblend/pkg/topoblend/scene"
)

// session holds what run and resume share: the loaded scene, the logger,
// the optional checkpoint store, the event bus and telemetry.
type session struct {
	flags     *GlobalFlags
	out       io.Writer
	logger    *slog.Logger
	scene     *scene.Scene
	store     checkpoint.Store
	bus       *event.LocalBus
	telemetry *telemetry
}

func openSession(cmd *cobra.Command, flags *GlobalFlags, scenePath string) (*session, error) {
	sc, err := loadScene(flags, scenePath)
	if err != nil {
		return nil, err
	}

	s := &session{
		flags:  flags,
		out:    cmd.OutOrStdout(),
		logger: newLogger(cmd.ErrOrStderr(), flags),
		scene:  sc,
	}

	dbPath := flags.CheckpointDB
	if dbPath == "" {
		dbPath = sc.Settings.CheckpointPath
	}
	if dbPath != "" {
		store, err := checkpoint.NewSQLiteStore(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open checkpoint store: %w", err)
		}
		s.store = store
	}

	if flags.Telemetry {
		s.telemetry = setupTelemetry()
	}

	s.bus = event.NewBus(event.BusConfig{Synchronous: true})
	if !flags.Quiet {
		s.bus.Subscribe(&progressPrinter{w: s.out, json: flags.Output == OutputJSON})
	}
	return s, nil
}

// loadScene loads the scene with the --settings file, if any, merged over
// its own settings block.
func loadScene(flags *GlobalFlags, path string) (*scene.Scene, error) {
	if flags.Settings == "" {
		return scene.Load(path)
	}
	overlay, err := config.FromFile(flags.Settings)
	if err != nil {
		return nil, err
	}
	return scene.Load(path, overlay)
}

// scheduler builds the scene's scheduler wired to the session.
func (s *session) scheduler(runID string) *topoblend.Scheduler {
	opts := []topoblend.Option{topoblend.WithEventBus(s.bus)}
	if runID != "" {
		opts = append(opts, topoblend.WithRunID(runID))
	}
	if s.store != nil {
		opts = append(opts, topoblend.WithCheckpointStore(s.store))
	}
	if s.telemetry != nil {
		opts = append(opts, topoblend.WithMetrics(true), topoblend.WithTracing(true))
	}
	return s.scene.Scheduler(opts...)
}

func (s *session) context(ctx context.Context) topoblend.Context {
	return topoblend.NewContext(ctx, topoblend.WithLogger(s.logger))
}

// finish prints the run result and releases the session.
func (s *session) finish(ctx context.Context, sched *topoblend.Scheduler, runErr error) error {
	var errs []error
	if runErr == nil {
		errs = append(errs, writeResult(s.out, s.flags.Output, sched))
	}
	if s.telemetry != nil {
		if runErr == nil && s.flags.Output == OutputText {
			errs = append(errs, s.telemetry.Print(ctx, s.out))
		}
		errs = append(errs, s.telemetry.Shutdown(ctx))
	}
	errs = append(errs, s.close())
	return errors.Join(append([]error{runErr}, errs...)...)
}

func (s *session) close() error {
	var errs []error
	if s.bus != nil {
		errs = append(errs, s.bus.Close())
	}
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	return errors.Join(errs...)
}

// progressPrinter writes one line per lifecycle event, or the raw event
// as a JSON line.
type progressPrinter struct {
	mu   sync.Mutex
	w    io.Writer
	json bool
}

func (p *progressPrinter) Handle(_ context.Context, evt event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.json {
		data, err := evt.Marshal()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(p.w, "%s\n", data)
		return err
	}

	switch pl := evt.Payload.(type) {
	case event.TaskPayload:
		line := fmt.Sprintf("t=%-5d %-18s %s %s (%s)", evt.GlobalTime, evt.Type, pl.Kind, pl.NodeID, pl.TaskID)
		if pl.Variant != "" && evt.Type == event.TypeTaskPrepared {
			line += " " + pl.Variant
		}
		if pl.Reason != "" {
			line += ": " + pl.Reason
		}
		_, err := fmt.Fprintln(p.w, line)
		return err
	case event.TopologyPayload:
		_, err := fmt.Fprintf(p.w, "t=%-5d %-18s %s +%v -%v ~%v\n",
			evt.GlobalTime, evt.Type, pl.NodeID, pl.Added, pl.Removed, pl.Rewired)
		return err
	}
	return nil
}

// runResult is the JSON form of a finished run.
type runResult struct {
	RunID      string       `json:"run_id"`
	GlobalTime int          `json:"global_time"`
	Tasks      []taskResult `json:"tasks"`
}

type taskResult struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Node   string `json:"node"`
	Start  int    `json:"start"`
	Length int    `json:"length"`
	State  string `json:"state"`
}

func tasksOf(sched *topoblend.Scheduler) []taskResult {
	tasks := sched.Tasks()
	out := make([]taskResult, len(tasks))
	for i, t := range tasks {
		out[i] = taskResult{
			ID:     t.ID(),
			Kind:   t.Kind().String(),
			Node:   t.NodeID(),
			Start:  t.Start(),
			Length: t.Length(),
			State:  t.State().String(),
		}
	}
	return out
}

func writeResult(w io.Writer, format string, sched *topoblend.Scheduler) error {
	res := runResult{RunID: sched.RunID(), GlobalTime: sched.GlobalTime(), Tasks: tasksOf(sched)}
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	_, err := fmt.Fprintf(w, "run %s finished at t=%d (%d tasks)\n", res.RunID, res.GlobalTime, len(res.Tasks))
	return err
}
