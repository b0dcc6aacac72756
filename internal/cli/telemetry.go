package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// telemetry owns the SDK providers installed for one command. Metrics are
// pulled through a manual reader and spans are tallied by name, so the
// summary needs no exporter.
type telemetry struct {
	reader *sdkmetric.ManualReader
	meters *sdkmetric.MeterProvider
	traces *sdktrace.TracerProvider
	spans  *spanTally
}

func setupTelemetry() *telemetry {
	t := &telemetry{
		reader: sdkmetric.NewManualReader(),
		spans:  &spanTally{counts: make(map[string]int)},
	}
	t.meters = sdkmetric.NewMeterProvider(sdkmetric.WithReader(t.reader))
	t.traces = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(t.spans))
	otel.SetMeterProvider(t.meters)
	otel.SetTracerProvider(t.traces)
	return t
}

// Summary collects the recorded counters and span counts.
func (t *telemetry) Summary(ctx context.Context) (map[string]int64, map[string]int, error) {
	var rm metricdata.ResourceMetrics
	if err := t.reader.Collect(ctx, &rm); err != nil {
		return nil, nil, fmt.Errorf("collect metrics: %w", err)
	}

	counters := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					counters[m.Name] += dp.Value
				}
			}
		}
	}
	return counters, t.spans.snapshot(), nil
}

// Print writes the summary as sorted "name value" lines.
func (t *telemetry) Print(ctx context.Context, w io.Writer) error {
	counters, spans, err := t.Summary(ctx)
	if err != nil {
		return err
	}
	for _, name := range sortedKeys(counters) {
		fmt.Fprintf(w, "metric %-40s %d\n", name, counters[name])
	}
	for _, name := range sortedKeys(spans) {
		fmt.Fprintf(w, "span   %-40s %d\n", name, spans[name])
	}
	return nil
}

func (t *telemetry) Shutdown(ctx context.Context) error {
	return errors.Join(t.traces.Shutdown(ctx), t.meters.Shutdown(ctx))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// spanTally counts ended spans by name.
type spanTally struct {
	mu     sync.Mutex
	counts map[string]int
}

func (s *spanTally) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (s *spanTally) OnEnd(span sdktrace.ReadOnlySpan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[span.Name()]++
}

func (s *spanTally) Shutdown(context.Context) error   { return nil }
func (s *spanTally) ForceFlush(context.Context) error { return nil }

func (s *spanTally) snapshot() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}
