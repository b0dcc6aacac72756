package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records blend metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordTaskPrepared records a task preparation with its duration and error status.
	RecordTaskPrepared(ctx context.Context, kind string, duration time.Duration, err error)

	// RecordFrame records one timeline step and the number of tasks it drove.
	RecordFrame(ctx context.Context, activeTasks int)

	// RecordTopologyCommit records the edge changes made when a task finishes.
	RecordTopologyCommit(ctx context.Context, kind string, added, removed int)

	// RecordRun records a blend run completion.
	RecordRun(ctx context.Context, success bool, duration time.Duration)

	// RecordCheckpoint records a checkpoint save operation.
	RecordCheckpoint(ctx context.Context, taskID string, sizeBytes int64)
}

type otelMetrics struct {
	tasksPrepared  metric.Int64Counter
	prepareLatency metric.Float64Histogram
	prepareErrors  metric.Int64Counter
	frames         metric.Int64Counter
	activeTasks    metric.Int64Histogram
	edgesAdded     metric.Int64Counter
	edgesRemoved   metric.Int64Counter
	runs           metric.Int64Counter
	runLatency     metric.Float64Histogram
	checkpointSize metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("topoblend")
	m := &otelMetrics{}
	var err error

	if m.tasksPrepared, err = meter.Int64Counter("topoblend.task.prepared",
		metric.WithDescription("Number of task preparations"),
	); err != nil {
		return nil, err
	}
	if m.prepareLatency, err = meter.Float64Histogram("topoblend.task.prepare_latency_ms",
		metric.WithDescription("Task preparation latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.prepareErrors, err = meter.Int64Counter("topoblend.task.prepare_errors",
		metric.WithDescription("Number of failed or skipped task preparations"),
	); err != nil {
		return nil, err
	}
	if m.frames, err = meter.Int64Counter("topoblend.frames",
		metric.WithDescription("Number of timeline steps executed"),
	); err != nil {
		return nil, err
	}
	if m.activeTasks, err = meter.Int64Histogram("topoblend.frame.active_tasks",
		metric.WithDescription("Tasks driven per timeline step"),
	); err != nil {
		return nil, err
	}
	if m.edgesAdded, err = meter.Int64Counter("topoblend.topology.edges_added",
		metric.WithDescription("Edges added at task finalization"),
	); err != nil {
		return nil, err
	}
	if m.edgesRemoved, err = meter.Int64Counter("topoblend.topology.edges_removed",
		metric.WithDescription("Edges removed at task finalization"),
	); err != nil {
		return nil, err
	}
	if m.runs, err = meter.Int64Counter("topoblend.runs",
		metric.WithDescription("Number of blend runs"),
	); err != nil {
		return nil, err
	}
	if m.runLatency, err = meter.Float64Histogram("topoblend.run.latency_ms",
		metric.WithDescription("Blend run latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.checkpointSize, err = meter.Int64Histogram("topoblend.checkpoint.size_bytes",
		metric.WithDescription("Checkpoint size in bytes"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func (m *otelMetrics) RecordTaskPrepared(ctx context.Context, kind string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	m.tasksPrepared.Add(ctx, 1, attrs)
	m.prepareLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if err != nil {
		m.prepareErrors.Add(ctx, 1, attrs)
	}
}

func (m *otelMetrics) RecordFrame(ctx context.Context, activeTasks int) {
	m.frames.Add(ctx, 1)
	m.activeTasks.Record(ctx, int64(activeTasks))
}

func (m *otelMetrics) RecordTopologyCommit(ctx context.Context, kind string, added, removed int) {
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	m.edgesAdded.Add(ctx, int64(added), attrs)
	m.edgesRemoved.Add(ctx, int64(removed), attrs)
}

func (m *otelMetrics) RecordRun(ctx context.Context, success bool, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.Bool("success", success))
	m.runs.Add(ctx, 1, attrs)
	m.runLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

func (m *otelMetrics) RecordCheckpoint(ctx context.Context, taskID string, sizeBytes int64) {
	m.checkpointSize.Record(ctx, sizeBytes, metric.WithAttributes(attribute.String("task_id", taskID)))
}
