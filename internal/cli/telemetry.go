package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/xinjiayu/rxcore/internal/config"
	"github.com/xinjiayu/rxcore/rxotel"
)

const instrumentationName = "github.com/xinjiayu/rxcore/rxplay"

// telemetry owns the tracer and meter providers for a single run.
type telemetry struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	reader         *sdkmetric.ManualReader
	inst           *rxotel.Instrumentation
}

// newTelemetry builds the providers described by cfg. Spans are exported
// over OTLP/HTTP only when an endpoint is configured; metrics are kept in
// a manual reader so they can be summarised after the run.
func newTelemetry(ctx context.Context, cfg config.TelemetryConfig) (*telemetry, error) {
	res := resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if cfg.OTLPEndpoint != "" {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exp, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("creating OTLP exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exp))
	}

	reader := sdkmetric.NewManualReader()
	t := &telemetry{
		tracerProvider: sdktrace.NewTracerProvider(tpOpts...),
		meterProvider:  sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader), sdkmetric.WithResource(res)),
		reader:         reader,
	}

	inst, err := rxotel.NewInstrumentation(
		t.tracerProvider.Tracer(instrumentationName),
		t.meterProvider.Meter(instrumentationName),
	)
	if err != nil {
		_ = t.shutdown(ctx)
		return nil, err
	}
	t.inst = inst
	return t, nil
}

// shutdown flushes pending spans and releases both providers.
func (t *telemetry) shutdown(ctx context.Context) error {
	tpErr := t.tracerProvider.Shutdown(ctx)
	mpErr := t.meterProvider.Shutdown(ctx)
	if tpErr != nil {
		return tpErr
	}
	return mpErr
}

// writeSummary prints every collected data point, one per line, sorted.
func (t *telemetry) writeSummary(ctx context.Context, w io.Writer) error {
	var rm metricdata.ResourceMetrics
	if err := t.reader.Collect(ctx, &rm); err != nil {
		return fmt.Errorf("collecting metrics: %w", err)
	}

	var lines []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					lines = append(lines, fmt.Sprintf("%s%s %d", m.Name, formatAttrs(dp.Attributes), dp.Value))
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					lines = append(lines, fmt.Sprintf("%s%s count=%d", m.Name, formatAttrs(dp.Attributes), dp.Count))
				}
			}
		}
	}
	sort.Strings(lines)

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func formatAttrs(set attribute.Set) string {
	if set.Len() == 0 {
		return ""
	}
	parts := make([]string, 0, set.Len())
	for _, kv := range set.ToSlice() {
		parts = append(parts, string(kv.Key)+"="+kv.Value.Emit())
	}
	return "{" + strings.Join(parts, ",") + "}"
}
