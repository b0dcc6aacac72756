package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of every span the engine starts.
const TracerName = "topoblend"

// SpanManager opens and closes the spans of a blend run. A run span is the
// parent of one span per task preparation and per topology commit.
type SpanManager interface {
	StartRunSpan(ctx context.Context, scene, runID string) (context.Context, trace.Span)

	// StartTaskSpan opens "topoblend.task.<op>" where op is "prepare" or
	// "finalize".
	StartTaskSpan(ctx context.Context, taskID, nodeID, op string) (context.Context, trace.Span)

	// EndSpanWithError sets the span status from err and ends it. A nil
	// span is ignored.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent annotates the span carried by ctx, if it is recording.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type spanManager struct {
	provider trace.TracerProvider
}

// NewSpanManager traces through the global tracer provider, resolved on
// every span so a provider installed after construction still applies.
func NewSpanManager() SpanManager {
	return &spanManager{}
}

// NewSpanManagerFrom traces through tp instead of the global provider.
func NewSpanManagerFrom(tp trace.TracerProvider) SpanManager {
	return &spanManager{provider: tp}
}

func (m *spanManager) tracer() trace.Tracer {
	if m.provider != nil {
		return m.provider.Tracer(TracerName)
	}
	return otel.Tracer(TracerName)
}

func (m *spanManager) StartRunSpan(ctx context.Context, scene, runID string) (context.Context, trace.Span) {
	return m.tracer().Start(ctx, "topoblend.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("scene.name", scene),
			attribute.String("run.id", runID),
		))
}

func (m *spanManager) StartTaskSpan(ctx context.Context, taskID, nodeID, op string) (context.Context, trace.Span) {
	return m.tracer().Start(ctx, "topoblend.task."+op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("task.id", taskID),
			attribute.String("node.id", nodeID),
			attribute.String("task.op", op),
		))
}

func (m *spanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err == nil {
		span.SetStatus(codes.Ok, "")
	} else {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (m *spanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}
