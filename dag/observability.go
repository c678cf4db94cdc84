package dag

import (
	"context"
	"time"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
	"go.opentelemetry.io/otel/trace"
)

// WithTracing wraps a NodeFunc with OpenTelemetry span creation.
// Each execution creates a span named spanName carrying the node name.
func WithTracing(fn NodeFunc, spanName string) NodeFunc {
	return func(ctx context.Context, name string) error {
		ctx, span := observability.StartSpan(ctx, spanName,
			trace.WithAttributes(observability.ProcessAttributes(name, "")...))
		defer span.End()

		err := fn(ctx, name)
		if err != nil {
			observability.SetSpanError(ctx, err)
		}
		return err
	}
}

// WithMetrics wraps a NodeFunc with metric recording. typeOf maps a node
// name to the type label recorded with it.
func WithMetrics(fn NodeFunc, metrics *observability.StepMetrics, typeOf func(name string) string) NodeFunc {
	if metrics == nil {
		return fn
	}
	return func(ctx context.Context, name string) error {
		start := time.Now()
		err := fn(ctx, name)
		duration := time.Since(start)

		status := "ok"
		switch {
		case err != nil && ctx.Err() != nil:
			status = "cancelled"
		case err != nil:
			status = "error"
			metrics.RecordError(ctx, name, string(errors.CodeOf(err)))
		}
		metrics.RecordStep(ctx, name, typeOf(name), status, duration)
		return err
	}
}

// WithLogging wraps a NodeFunc with execution logging: failures at error,
// successes and interruptions at debug.
func WithLogging(fn NodeFunc, log *logger.Logger) NodeFunc {
	return func(ctx context.Context, name string) error {
		start := time.Now()
		err := fn(ctx, name)
		duration := time.Since(start)

		fields := logger.MergeWithDuration(logger.Fields(logger.FieldProcess, name), duration)
		switch {
		case err != nil && ctx.Err() != nil:
			log.Debug("node interrupted", fields)
		case err != nil:
			log.Error("node failed", logger.MergeWithError(fields, err))
		default:
			log.Debug("node completed", fields)
		}
		return err
	}
}
