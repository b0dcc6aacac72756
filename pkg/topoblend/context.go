package topoblend

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Context is what Scheduler.Run and Scheduler.Resume receive: a
// cancellable context that also carries the run's logger and identity.
type Context interface {
	context.Context

	// Logger is never nil; slog.Default() stands in when none was given.
	Logger() *slog.Logger

	// RunID names the run in checkpoints, events and spans.
	RunID() string
}

type runContext struct {
	context.Context
	logger *slog.Logger
	runID  string
}

func (c *runContext) Logger() *slog.Logger { return c.logger }
func (c *runContext) RunID() string        { return c.runID }

// ContextOption customises NewContext.
type ContextOption func(*runContext)

// WithLogger replaces the default logger. The scheduler adds run_id to
// it, and every task further adds task_id, node_id and kind. Nil is ignored.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *runContext) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithContextRunID fixes the run ID instead of drawing a random UUID.
// WithRunID on the Scheduler wins over this.
func WithContextRunID(id string) ContextOption {
	return func(c *runContext) {
		c.runID = id
	}
}

// NewContext wraps ctx for a blend run:
//
//	ctx := topoblend.NewContext(context.Background(),
//	    topoblend.WithLogger(logger),
//	    topoblend.WithContextRunID("chair-to-stool"))
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	rc := &runContext{Context: ctx, logger: slog.Default(), runID: uuid.NewString()}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}
