// Package observability holds the slog helpers, OpenTelemetry instruments
// and span management used by the scheduler. Metrics and tracing are off
// unless enabled on the scheduler; the Noop types stand in otherwise.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds task context to a logger.
// Returns a new logger with run_id, task_id, node_id, and kind fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "run-123", taskID, "leg", "GROW")
//	enriched.Info("folding") // includes run_id, task_id, node_id, kind
func EnrichLogger(logger *slog.Logger, runID, taskID, nodeID, kind string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.String("task_id", taskID),
		slog.String("node_id", nodeID),
		slog.String("kind", kind),
	)
}

// LogRunStart logs the start of a blend run.
func LogRunStart(logger *slog.Logger, runID string, tasks int) {
	if logger == nil {
		return
	}
	logger.Info("blend run starting",
		slog.String("run_id", runID),
		slog.Int("tasks", tasks),
	)
}

// LogRunComplete logs successful blend run completion.
func LogRunComplete(logger *slog.Logger, runID string, durationMs float64, frames int) {
	if logger == nil {
		return
	}
	logger.Info("blend run completed",
		slog.String("run_id", runID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("frames", frames),
	)
}

// LogRunError logs blend run failure.
func LogRunError(logger *slog.Logger, runID string, err error, durationMs float64, globalTime int) {
	if logger == nil {
		return
	}
	logger.Error("blend run failed",
		slog.String("run_id", runID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
		slog.Int("global_time", globalTime),
	)
}

// LogTaskPrepared logs a task leaving the unprepared state.
func LogTaskPrepared(logger *slog.Logger, taskID, nodeID, variant string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("task prepared",
		slog.String("task_id", taskID),
		slog.String("node_id", nodeID),
		slog.String("variant", variant),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogTaskComplete logs a task reaching t == 1.
func LogTaskComplete(logger *slog.Logger, taskID, nodeID string) {
	if logger == nil {
		return
	}
	logger.Info("task completed",
		slog.String("task_id", taskID),
		slog.String("node_id", nodeID),
	)
}

// LogTaskSkipped logs a task whose branch was inapplicable.
func LogTaskSkipped(logger *slog.Logger, taskID, nodeID string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("task skipped",
		slog.String("task_id", taskID),
		slog.String("node_id", nodeID),
		slog.String("reason", err.Error()),
	)
}

// LogTopologyCommit logs edge changes applied at the end of a task.
func LogTopologyCommit(logger *slog.Logger, nodeID, kind string, added, removed int) {
	if logger == nil {
		return
	}
	logger.Debug("topology committed",
		slog.String("node_id", nodeID),
		slog.String("kind", kind),
		slog.Int("edges_added", added),
		slog.Int("edges_removed", removed),
	)
}

// LogCheckpoint logs checkpoint creation.
func LogCheckpoint(logger *slog.Logger, taskID string, sizeBytes int) {
	if logger == nil {
		return
	}
	logger.Debug("checkpoint saved",
		slog.String("task_id", taskID),
		slog.Int("size_bytes", sizeBytes),
	)
}

// LogCheckpointError logs checkpoint failure (non-fatal).
func LogCheckpointError(logger *slog.Logger, taskID string, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("checkpoint failed",
		slog.String("task_id", taskID),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
