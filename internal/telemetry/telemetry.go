// Package telemetry wires OpenTelemetry tracing and Prometheus metrics
// around the engine's Complete/Cleanup operations, grounded on
// coreengine/observability/{tracing,metrics}.go in the teacher repo.
package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("entityengine/engine")

var (
	completeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entityengine_complete_total",
			Help: "Total number of Engine.Complete calls.",
		},
		[]string{"subject_type", "status"}, // status: ok, error
	)

	completeDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "entityengine_complete_duration_seconds",
			Help:    "Engine.Complete wall-clock duration in seconds.",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"subject_type"},
	)

	cleanupPrunedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entityengine_cleanup_pruned_total",
			Help: "Total number of context messages pruned by Engine.Cleanup.",
		},
		[]string{"subject_type"},
	)
)

// Telemetry bundles the tracer/metrics handles an Engine records against.
// A nil *Telemetry is valid and makes every method a no-op. NewEngine
// installs New(subjectType) when no non-nil Telemetry is supplied.
type Telemetry struct {
	SubjectType string
}

// New returns a Telemetry instrumented for the given subject type name.
func New(subjectType string) *Telemetry {
	return &Telemetry{SubjectType: subjectType}
}

// StartComplete begins a trace span for a Complete call.
func (t *Telemetry) StartComplete(ctx context.Context, inputCount int) (context.Context, oteltrace.Span) {
	if t == nil {
		return ctx, oteltrace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, "engine.complete",
		oteltrace.WithAttributes(
			attribute.String("entityengine.subject_type", t.SubjectType),
			attribute.Int("entityengine.input_count", inputCount),
		),
	)
}

// RecordComplete finalizes the span started by StartComplete and records
// metrics for the call.
func (t *Telemetry) RecordComplete(span oteltrace.Span, durationSeconds float64, err error) {
	if t == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	completeTotal.WithLabelValues(t.SubjectType, status).Inc()
	completeDurationSeconds.WithLabelValues(t.SubjectType).Observe(durationSeconds)
	span.End()
}

// RecordCleanup records the number of messages a Cleanup call pruned.
func (t *Telemetry) RecordCleanup(pruned int) {
	if t == nil {
		return
	}
	cleanupPrunedTotal.WithLabelValues(t.SubjectType).Add(float64(pruned))
}

// InitTracer initializes a process-wide OTLP-over-gRPC trace exporter.
// Returns a shutdown function that must be called on service termination.
// This is optional wiring for hosts that want exported traces; Engine
// itself only ever calls the package-level tracer, which defaults to a
// no-op provider until a host calls InitTracer (or sets its own provider).
func InitTracer(serviceName, otlpEndpoint string) (func(context.Context) error, error) {
	ctx := context.Background()

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(otlpEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}
