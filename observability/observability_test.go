package observability

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/flowkit/errors"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("test-service")

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected Endpoint 'localhost:4318', got %s", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
	if !cfg.Insecure {
		t.Error("expected Insecure to be true")
	}
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected Interval 15s, got %v", cfg.Interval)
	}
	if cfg.Enabled {
		t.Error("expected exporters disabled by default")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig("svc")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	cfg.SampleRate = 1.5
	if err := cfg.Validate(); !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG for sample rate, got %v", err)
	}
	cfg = DefaultConfig("svc")
	cfg.Endpoint = "no-port"
	if err := cfg.Validate(); !errors.HasCode(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG for endpoint, got %v", err)
	}
}

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("expected no-op shutdown, got %v", err)
	}
}

func TestNewStepMetricsNoop(t *testing.T) {
	metrics, err := NewStepMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}

	ctx := context.Background()
	metrics.RecordRunStart(ctx, "sync")
	metrics.RecordStep(ctx, "src", "numbers", "ok", 10*time.Millisecond)
	metrics.RecordError(ctx, "src", "STEP_FAILED")
	metrics.RecordPushed(ctx, "src.out -> sink.in", 3)
	metrics.RecordRunEnd(ctx, "sync")
}

func TestStepMetricsRecorded(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := NewStepMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	metrics.RecordStep(ctx, "src", "numbers", "ok", time.Millisecond)
	metrics.RecordStep(ctx, "src", "numbers", "ok", time.Millisecond)
	metrics.RecordPushed(ctx, "e", 5)
	metrics.RecordPushed(ctx, "e", 0)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatal(err)
	}
	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	if sums[MetricStepTotal] != 2 {
		t.Errorf("expected 2 steps, got %d", sums[MetricStepTotal])
	}
	if sums[MetricDatumPushed] != 5 {
		t.Errorf("expected 5 pushed datums, got %d", sums[MetricDatumPushed])
	}
}

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func TestRunContext(t *testing.T) {
	rec := withRecorder(t)

	rc := NewRunContext("run-1", "sync", nil)
	ctx, span := rc.StartRun(context.Background())
	if got := RunContextFromContext(ctx); got != rc {
		t.Fatal("expected run context in ctx")
	}
	rc.EndRun(ctx, span, "failed", fmt.Errorf("boom"))

	spans := rec.Ended()
	if len(spans) != 1 || spans[0].Name() != SpanSchedulerRun {
		t.Fatalf("expected one %s span, got %d", SpanSchedulerRun, len(spans))
	}
	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs[AttrRunID] != "run-1" || attrs[AttrStatus] != "failed" || attrs[AttrErrorMessage] != "boom" {
		t.Errorf("unexpected attributes %v", attrs)
	}
}

func TestRunContextFromContext_NotSet(t *testing.T) {
	if RunContextFromContext(context.Background()) != nil {
		t.Error("expected nil")
	}
}

func TestSetSpanAttributeAndError(t *testing.T) {
	rec := withRecorder(t)

	ctx, span := StartSpan(context.Background(), SpanSchedulerStep)
	SetSpanAttribute(ctx, AttrProcessName, "src")
	SetSpanAttribute(ctx, AttrProcessStep, uint64(3))
	SetSpanAttribute(ctx, "ignored", struct{}{})
	SetSpanError(ctx, fmt.Errorf("bad"))
	span.End()

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", spans[0].Status())
	}
	if len(spans[0].Attributes()) != 2 {
		t.Errorf("expected two attributes, got %v", spans[0].Attributes())
	}
}

func TestSpanHelpersWithoutSpan(t *testing.T) {
	ctx := context.Background()
	SetSpanAttribute(ctx, "key", "value")
	SetSpanError(ctx, fmt.Errorf("no span"))
	if SpanFromContext(ctx) == nil {
		t.Error("expected a non-nil noop span")
	}
}

func TestRunHealth_AddComponent(t *testing.T) {
	rh := NewRunHealth("run-1", "pool")
	rh.AddComponent(Health{Name: "a", Status: HealthStatusUp})
	if rh.Status != HealthStatusUp {
		t.Errorf("expected up, got %s", rh.Status)
	}
	rh.AddComponent(Health{Name: "b", Status: HealthStatusDegraded})
	if rh.Status != HealthStatusDegraded {
		t.Errorf("expected degraded, got %s", rh.Status)
	}
	rh.AddComponent(Health{Name: "c", Status: HealthStatusDown})
	rh.AddComponent(Health{Name: "d", Status: HealthStatusDegraded})
	if rh.Status != HealthStatusDown {
		t.Errorf("expected down not overridden by degraded, got %s", rh.Status)
	}
	if len(rh.Components) != 4 {
		t.Errorf("expected 4 components, got %d", len(rh.Components))
	}
}

func TestInitTracer(t *testing.T) {
	prev := otel.GetTracerProvider()
	defer otel.SetTracerProvider(prev)

	tp, err := InitTracer(context.Background(), DefaultConfig("test"))
	if err != nil {
		t.Skipf("InitTracer failed: %v", err)
	}
	defer tp.Shutdown(context.Background())
}

func TestNewSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1, "root:AlwaysOnSampler"},
		{2, "root:AlwaysOnSampler"},
		{0, "root:AlwaysOffSampler"},
		{-1, "root:AlwaysOffSampler"},
		{0.5, "root:TraceIDRatioBased{0.5}"},
	}
	for _, tt := range tests {
		desc := newSampler(tt.rate).Description()
		if !strings.Contains(desc, tt.want) {
			t.Errorf("rate %v: expected %q in %q", tt.rate, tt.want, desc)
		}
	}
}

func TestProcessAttributes(t *testing.T) {
	if got := ProcessAttributes("src", ""); len(got) != 1 || got[0].Value.AsString() != "src" {
		t.Errorf("unexpected attributes %v", got)
	}
	got := ProcessAttributes("src", "numbers")
	if len(got) != 2 || string(got[1].Key) != AttrProcessType || got[1].Value.AsString() != "numbers" {
		t.Errorf("unexpected attributes %v", got)
	}
}
