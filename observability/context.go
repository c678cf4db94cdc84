package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RunContext holds observability context for one scheduler run.
type RunContext struct {
	RunID     string
	Scheduler string
	StartTime time.Time
	Metrics   *StepMetrics
}

// NewRunContext creates a new run context.
// If metrics is nil, metric recording is silently skipped.
func NewRunContext(runID, scheduler string, metrics *StepMetrics) *RunContext {
	return &RunContext{
		RunID:     runID,
		Scheduler: scheduler,
		StartTime: time.Now(),
		Metrics:   metrics,
	}
}

type runContextKey struct{}

// WithRunContext stores a RunContext in the context.
func WithRunContext(ctx context.Context, rc *RunContext) context.Context {
	return context.WithValue(ctx, runContextKey{}, rc)
}

// RunContextFromContext retrieves the RunContext from context, or nil.
func RunContextFromContext(ctx context.Context) *RunContext {
	if rc, ok := ctx.Value(runContextKey{}).(*RunContext); ok {
		return rc
	}
	return nil
}

// StartRun starts the run span and records the run start metric.
func (rc *RunContext) StartRun(ctx context.Context) (context.Context, trace.Span) {
	ctx, span := StartSpan(ctx, SpanSchedulerRun)
	span.SetAttributes(
		attribute.String(AttrRunID, rc.RunID),
		attribute.String(AttrScheduler, rc.Scheduler),
	)
	if rc.Metrics != nil {
		rc.Metrics.RecordRunStart(ctx, rc.Scheduler)
	}
	return WithRunContext(ctx, rc), span
}

// EndRun ends the span and records the run end metric.
func (rc *RunContext) EndRun(ctx context.Context, span trace.Span, status string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}
	span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, rc.Duration().Milliseconds()),
	)
	span.End()

	if rc.Metrics != nil {
		rc.Metrics.RecordRunEnd(ctx, rc.Scheduler)
	}
}

// Duration returns the elapsed time since the run started.
func (rc *RunContext) Duration() time.Duration {
	return time.Since(rc.StartTime)
}
