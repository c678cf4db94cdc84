// Package observability provides OpenTelemetry tracing and metrics for
// pipeline runs.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultConfig("flowkit"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanSchedulerStep)
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultConfig("flowkit"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewStepMetrics(observability.Meter("flowkit"))
//	metrics.RecordStep(ctx, "decode", "video_decoder", "ok", duration)
//
// Health:
//
//	health := observability.NewRunHealth(runID, "sync")
//	health.AddComponent(observability.Health{Name: "decode", Status: observability.HealthStatusUp})
package observability
