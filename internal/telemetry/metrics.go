// Package telemetry exports decision metrics to an OpenTelemetry collector.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/ppiankov/hookwatch/internal/model"
)

const serviceName = "hookwatch"

// Metric names.
const (
	MetricDecisions = "hookwatch_decisions_total"
	MetricLatency   = "hookwatch_classify_duration_seconds"
	MetricReloads   = "hookwatch_rule_reloads_total"
)

// Metrics records classifier activity. Implementations must be safe for
// concurrent use.
type Metrics interface {
	RecordDecision(ctx context.Context, surface, tool string, d model.Decision, elapsed time.Duration)
	RecordReload(ctx context.Context, err error)
	Close(ctx context.Context) error
}

// Exporter records metrics through an OpenTelemetry meter provider.
type Exporter struct {
	provider  *sdkmetric.MeterProvider
	decisions metric.Int64Counter
	latency   metric.Float64Histogram
	reloads   metric.Int64Counter
}

// NewExporter creates an exporter that pushes to an OTLP/gRPC collector.
func NewExporter(ctx context.Context, cfg Config, version string) (*Exporter, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil, fmt.Errorf("OTEL exporter is disabled or endpoint not configured")
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	e, err := NewWithReader(ctx, sdkmetric.NewPeriodicReader(exp), version)
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(e.provider)
	return e, nil
}

// NewWithReader creates an exporter backed by the given reader.
func NewWithReader(ctx context.Context, reader sdkmetric.Reader, version string) (*Exporter, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)
	meter := provider.Meter(serviceName)

	decisions, err := meter.Int64Counter(
		MetricDecisions,
		metric.WithDescription("Classifier decisions by verdict"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating decisions counter: %w", err)
	}

	latency, err := meter.Float64Histogram(
		MetricLatency,
		metric.WithDescription("Time spent classifying one request"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating latency histogram: %w", err)
	}

	reloads, err := meter.Int64Counter(
		MetricReloads,
		metric.WithDescription("Rule file reload attempts"),
		metric.WithUnit("{reload}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating reloads counter: %w", err)
	}

	return &Exporter{
		provider:  provider,
		decisions: decisions,
		latency:   latency,
		reloads:   reloads,
	}, nil
}

// RecordDecision counts one decision and its classification latency.
func (e *Exporter) RecordDecision(ctx context.Context, surface, tool string, d model.Decision, elapsed time.Duration) {
	severity := string(d.Severity)
	if severity == "" {
		severity = "none"
	}
	opt := metric.WithAttributes(
		attribute.String("surface", surface),
		attribute.String("tool", tool),
		attribute.String("decision", string(d.Verdict)),
		attribute.String("severity", severity),
	)

	e.decisions.Add(ctx, 1, opt)
	e.latency.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("surface", surface)))
}

// RecordReload counts one reload attempt.
func (e *Exporter) RecordReload(ctx context.Context, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	e.reloads.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// Close shuts down the provider and flushes pending metrics.
func (e *Exporter) Close(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}

// NoOp discards all metrics.
type NoOp struct{}

func (NoOp) RecordDecision(context.Context, string, string, model.Decision, time.Duration) {}

func (NoOp) RecordReload(context.Context, error) {}

func (NoOp) Close(context.Context) error { return nil }

// Open returns an OTLP exporter when cfg enables one, otherwise NoOp.
// An exporter that cannot be created degrades to NoOp with the error.
func Open(ctx context.Context, cfg Config, version string) (Metrics, error) {
	if !cfg.Enabled {
		return NoOp{}, nil
	}
	e, err := NewExporter(ctx, cfg, version)
	if err != nil {
		return NoOp{}, err
	}
	return e, nil
}
