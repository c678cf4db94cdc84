package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/flowkit/logger"
)

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config Config) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metric instrument names.
const (
	MetricStepTotal    = "flowkit.step.total"
	MetricStepDuration = "flowkit.step.duration"
	MetricStepErrors   = "flowkit.step.errors"
	MetricDatumPushed  = "flowkit.datum.pushed"
	MetricRunsActive   = "flowkit.run.active"
)

// StepMetrics holds the instruments a scheduler records while stepping
// processes.
type StepMetrics struct {
	stepTotal    metric.Int64Counter
	stepDuration metric.Float64Histogram
	stepErrors   metric.Int64Counter
	datumPushed  metric.Int64Counter
	runsActive   metric.Int64UpDownCounter
}

// NewStepMetrics creates metric instruments on the given meter.
func NewStepMetrics(meter metric.Meter) (*StepMetrics, error) {
	stepTotal, err := meter.Int64Counter(MetricStepTotal,
		metric.WithDescription("Total number of process steps"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricStepTotal, err)
	}

	stepDuration, err := meter.Float64Histogram(MetricStepDuration,
		metric.WithDescription("Duration of process steps in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricStepDuration, err)
	}

	stepErrors, err := meter.Int64Counter(MetricStepErrors,
		metric.WithDescription("Failed process steps by error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricStepErrors, err)
	}

	datumPushed, err := meter.Int64Counter(MetricDatumPushed,
		metric.WithDescription("Datums accepted by edges"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricDatumPushed, err)
	}

	runsActive, err := meter.Int64UpDownCounter(MetricRunsActive,
		metric.WithDescription("Number of scheduler runs in progress"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s gauge: %w", MetricRunsActive, err)
	}

	return &StepMetrics{
		stepTotal:    stepTotal,
		stepDuration: stepDuration,
		stepErrors:   stepErrors,
		datumPushed:  datumPushed,
		runsActive:   runsActive,
	}, nil
}

// RecordRunStart increments the active run count.
func (m *StepMetrics) RecordRunStart(ctx context.Context, scheduler string) {
	m.runsActive.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrScheduler, scheduler)))
}

// RecordRunEnd decrements the active run count.
func (m *StepMetrics) RecordRunEnd(ctx context.Context, scheduler string) {
	m.runsActive.Add(ctx, -1, metric.WithAttributes(attribute.String(AttrScheduler, scheduler)))
}

// RecordStep records one step of a process.
func (m *StepMetrics) RecordStep(ctx context.Context, process, typ, status string, duration time.Duration) {
	m.stepTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrProcessName, process),
		attribute.String(AttrProcessType, typ),
		attribute.String(AttrStatus, status),
	))
	m.stepDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrProcessName, process),
		attribute.String(AttrProcessType, typ),
	))
}

// RecordError records a failed step by error code.
func (m *StepMetrics) RecordError(ctx context.Context, process, code string) {
	m.stepErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrProcessName, process),
		attribute.String(AttrErrorCode, code),
	))
}

// RecordPushed adds n datums accepted by the named edge.
func (m *StepMetrics) RecordPushed(ctx context.Context, edge string, n int64) {
	if n <= 0 {
		return
	}
	m.datumPushed.Add(ctx, n, metric.WithAttributes(attribute.String("edge", edge)))
}
