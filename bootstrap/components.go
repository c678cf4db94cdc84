package bootstrap

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/flowkit/component"
	"github.com/kbukum/flowkit/edge"
	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/loader"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/pipeline"
	"github.com/kbukum/flowkit/process"
)

// Component names registered by NewApp.
const (
	ComponentTelemetry = "telemetry"
	ComponentPipeline  = "pipeline"
)

// telemetry owns the OTLP providers and the step metrics recorded by the
// scheduler.
type telemetry struct {
	cfg observability.Config

	mu       sync.Mutex
	shutdown observability.ShutdownFunc
	metrics  *observability.StepMetrics
}

func (t *telemetry) Name() string { return ComponentTelemetry }

func (t *telemetry) Start(ctx context.Context) error {
	shutdown, err := observability.Setup(ctx, t.cfg)
	if err != nil {
		return err
	}
	var metrics *observability.StepMetrics
	if t.cfg.Enabled {
		metrics, err = observability.NewStepMetrics(observability.Meter("flowkit"))
		if err != nil {
			_ = shutdown(ctx)
			return err
		}
	}

	t.mu.Lock()
	t.shutdown, t.metrics = shutdown, metrics
	t.mu.Unlock()
	return nil
}

func (t *telemetry) Stop(ctx context.Context) error {
	t.mu.Lock()
	shutdown := t.shutdown
	t.shutdown, t.metrics = nil, nil
	t.mu.Unlock()
	if shutdown == nil {
		return nil
	}
	return shutdown(ctx)
}

func (t *telemetry) Health(context.Context) observability.Health {
	h := observability.Health{Name: ComponentTelemetry, Status: observability.HealthStatusUp}
	if !t.cfg.Enabled {
		h.Message = "disabled"
	}
	return h
}

func (t *telemetry) Describe() component.Description {
	details := "disabled"
	if t.cfg.Enabled {
		details = "otlp " + t.cfg.Endpoint
	}
	return component.Description{Name: "Telemetry", Type: "telemetry", Details: details}
}

// Metrics returns the step metrics, or nil while stopped or disabled.
func (t *telemetry) Metrics() *observability.StepMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.metrics
}

// pipelineComponent loads the blueprint, builds the pipeline and sets it
// up on Start; Stop resets it.
type pipelineComponent struct {
	path      string
	dirs      []string
	blueprint *loader.Blueprint
	registry  *process.Registry
	edge      edge.Config
	log       *logger.Logger

	mu   sync.Mutex
	pipe *pipeline.Pipeline
	bp   *loader.Blueprint
}

func (c *pipelineComponent) Name() string { return ComponentPipeline }

func (c *pipelineComponent) load() (*loader.Blueprint, error) {
	if c.blueprint != nil {
		return loader.Resolve(c.blueprint, loader.NewFileLoader(c.dirs...))
	}
	if c.path == "" {
		return nil, errors.InvalidConfig("pipeline: no blueprint configured")
	}
	return loader.LoadFile(c.path, c.dirs...)
}

func (c *pipelineComponent) Start(ctx context.Context) error {
	bp, err := c.load()
	if err != nil {
		return err
	}
	pipe, err := loader.Build(bp, c.registry, pipeline.WithLogger(c.log), pipeline.WithEdgeConfig(c.edge))
	if err != nil {
		return err
	}
	if err := pipe.Setup(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	c.pipe, c.bp = pipe, bp
	c.mu.Unlock()
	return nil
}

func (c *pipelineComponent) Stop(context.Context) error {
	c.mu.Lock()
	pipe := c.pipe
	c.mu.Unlock()
	if pipe != nil {
		pipe.Reset()
	}
	return nil
}

func (c *pipelineComponent) Health(context.Context) observability.Health {
	h := observability.Health{Name: ComponentPipeline, Status: observability.HealthStatusUp}
	pipe := c.Pipeline()
	if pipe == nil || !pipe.IsSetup() {
		h.Status = observability.HealthStatusDown
		h.Message = "not set up"
	}
	return h
}

func (c *pipelineComponent) Describe() component.Description {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := component.Description{Name: "Pipeline", Type: "pipeline"}
	if c.bp == nil {
		d.Details = "not loaded"
		return d
	}
	source := c.bp.Source
	if source == "" {
		source = c.bp.Name
	}
	d.Details = fmt.Sprintf("%d processes, %d connections", len(c.bp.Processes), len(c.bp.Connections))
	if source != "" {
		d.Details = source + ": " + d.Details
	}
	return d
}

// Pipeline returns the set-up pipeline, or nil before Start.
func (c *pipelineComponent) Pipeline() *pipeline.Pipeline {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pipe
}
