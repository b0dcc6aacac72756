package topoblend

import (
	"github.com/randalmurphal/topoblend/pkg/topoblend/checkpoint"
	"github.com/randalmurphal/topoblend/pkg/topoblend/config"
	"github.com/randalmurphal/topoblend/pkg/topoblend/event"
	"github.com/randalmurphal/topoblend/pkg/topoblend/geodesic"
	"github.com/randalmurphal/topoblend/pkg/topoblend/observability"
)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithSettings sets the engine tunables. Invalid settings are ignored.
// Default: config.DefaultSettings().
func WithSettings(s config.Settings) Option {
	return func(sc *Scheduler) {
		if s.Validate() == nil {
			sc.settings = s
		}
	}
}

// WithGeodesicProvider sets the path provider shared by every task.
// Default: a geodesic.SampleProvider at the configured resolution.
func WithGeodesicProvider(p geodesic.Provider) Option {
	return func(sc *Scheduler) {
		sc.geodesics = p
	}
}

// WithCheckpointStore enables checkpointing after every frame in which a
// task finished. Checkpoints are keyed by run ID and global tick.
//
// Example:
//
//	store := checkpoint.NewMemoryStore()
//	s := topoblend.NewScheduler(active, target, topoblend.WithCheckpointStore(store))
func WithCheckpointStore(store checkpoint.Store) Option {
	return func(sc *Scheduler) {
		sc.store = store
	}
}

// WithCheckpointFailureFatal makes checkpoint errors stop the run.
// Default: false (errors are logged and the run continues).
func WithCheckpointFailureFatal(fatal bool) Option {
	return func(sc *Scheduler) {
		sc.checkpointFailureFatal = fatal
	}
}

// WithRunID sets the run identifier used for checkpoints and events.
// Default: the Context's RunID().
func WithRunID(id string) Option {
	return func(sc *Scheduler) {
		sc.runID = id
	}
}

// WithSceneName labels the run span.
func WithSceneName(name string) Option {
	return func(sc *Scheduler) {
		sc.sceneName = name
	}
}

// WithEventBus publishes task lifecycle events to bus.
func WithEventBus(bus event.Bus) Option {
	return func(sc *Scheduler) {
		sc.bus = bus
	}
}

// WithMetrics enables OpenTelemetry metrics for the run.
//
// Metrics recorded:
//   - topoblend.task.prepared: counter of prepared tasks
//   - topoblend.task.prepare_latency_ms: histogram of preparation time
//   - topoblend.frames: counter of executed frames
//   - topoblend.topology.edges_added / edges_removed: topology commit counters
//   - topoblend.runs: counter of runs with success attribute
//   - topoblend.checkpoint.size_bytes: histogram of checkpoint sizes
func WithMetrics(enabled bool) Option {
	return func(sc *Scheduler) {
		if enabled {
			sc.metrics = observability.NewMetricsRecorder()
		} else {
			sc.metrics = observability.NoopMetrics{}
		}
	}
}

// WithTracing enables OpenTelemetry tracing: one span for the run and one
// per task preparation and topology commit.
func WithTracing(enabled bool) Option {
	return func(sc *Scheduler) {
		if enabled {
			sc.spans = observability.NewSpanManager()
		} else {
			sc.spans = observability.NoopSpanManager{}
		}
	}
}

// WithMetricsRecorder sets a custom metrics recorder.
func WithMetricsRecorder(m observability.MetricsRecorder) Option {
	return func(sc *Scheduler) {
		if m != nil {
			sc.metrics = m
		}
	}
}

// WithSpanManager sets a custom span manager.
func WithSpanManager(m observability.SpanManager) Option {
	return func(sc *Scheduler) {
		if m != nil {
			sc.spans = m
		}
	}
}
