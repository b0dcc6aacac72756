package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics discards every measurement. It is the scheduler default.
type NoopMetrics struct{}

var _ MetricsRecorder = NoopMetrics{}

func (NoopMetrics) RecordTaskPrepared(context.Context, string, time.Duration, error) {}
func (NoopMetrics) RecordFrame(context.Context, int)                                 {}
func (NoopMetrics) RecordTopologyCommit(context.Context, string, int, int)           {}
func (NoopMetrics) RecordRun(context.Context, bool, time.Duration)                   {}
func (NoopMetrics) RecordCheckpoint(context.Context, string, int64)                  {}

// NoopSpanManager hands out non-recording spans and leaves ctx as it was.
type NoopSpanManager struct{}

var _ SpanManager = NoopSpanManager{}

func (NoopSpanManager) StartRunSpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return ctx, noop.Span{}
}

func (NoopSpanManager) StartTaskSpan(ctx context.Context, _, _, _ string) (context.Context, trace.Span) {
	return ctx, noop.Span{}
}

func (NoopSpanManager) EndSpanWithError(trace.Span, error)                          {}
func (NoopSpanManager) AddSpanEvent(context.Context, string, ...attribute.KeyValue) {}
