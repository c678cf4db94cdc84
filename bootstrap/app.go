package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/flowkit/component"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/pipeline"
	"github.com/kbukum/flowkit/process"
	"github.com/kbukum/flowkit/processes"
	"github.com/kbukum/flowkit/scheduler"
)

// App runs one pipeline with uniform lifecycle management. The type
// parameter C is the config type; any struct embedding config.Config
// satisfies Config.
type App[C Config] struct {
	Name       string
	Cfg        C
	Components *component.Registry
	Registry   *process.Registry
	Logger     *logger.Logger
	Summary    *Summary

	summaryOut      io.Writer
	telemetry       *telemetry
	pipeline        *pipelineComponent
	schedOpts       []scheduler.Option
	gracefulTimeout time.Duration

	onStart  []Hook
	onResult []ResultHook
	onStop   []Hook
}

// NewApp applies defaults to and validates cfg, initializes the logger and
// registers the telemetry and pipeline components.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	base := cfg.GetConfig()
	o := resolveOptions(opts)

	app := &App[C]{
		Name:            base.Name,
		Cfg:             cfg,
		Registry:        o.registry,
		summaryOut:      o.summary,
		gracefulTimeout: 15 * time.Second,
	}
	if app.summaryOut == nil {
		app.summaryOut = os.Stdout
	}
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}
	if o.logger != nil {
		app.Logger = o.logger
	} else {
		logger.Init(base.Logging)
		app.Logger = logger.GetGlobalLogger()
	}
	if app.Registry == nil {
		reg, err := processes.NewRegistry()
		if err != nil {
			return nil, err
		}
		app.Registry = reg
	}

	app.Components = component.NewRegistry(app.Logger.WithComponent("component"))
	app.telemetry = &telemetry{cfg: base.Observability}
	app.pipeline = &pipelineComponent{
		path:      base.Pipeline,
		dirs:      base.BlueprintDirs,
		blueprint: o.blueprint,
		registry:  app.Registry,
		edge:      base.Edge,
		log:       app.Logger.WithComponent("pipeline"),
	}
	for _, c := range []component.Component{app.telemetry, app.pipeline} {
		if err := app.Components.Register(c); err != nil {
			return nil, err
		}
	}

	app.schedOpts = []scheduler.Option{scheduler.WithLogger(app.Logger.WithComponent("scheduler"))}
	if o.runID != uuid.Nil {
		app.schedOpts = append(app.schedOpts, scheduler.WithRunID(o.runID))
	}
	app.Summary = NewSummary(base.Name, base.Environment, base.Scheduler.Type)
	return app, nil
}

// RegisterComponent adds a component started after the built-in ones.
func (a *App[C]) RegisterComponent(c component.Component) error {
	return a.Components.Register(c)
}

// Pipeline returns the set-up pipeline once Run has started the
// components, nil otherwise.
func (a *App[C]) Pipeline() *pipeline.Pipeline {
	return a.pipeline.Pipeline()
}

// Run starts the components, runs the pipeline to completion and stops
// the components. SIGINT and SIGTERM stop the run at the next step
// boundary, which yields a stopped result and no error.
func (a *App[C]) Run(ctx context.Context) (*scheduler.Result, error) {
	if err := a.startup(ctx); err != nil {
		if stopErr := a.stop(); stopErr != nil {
			a.Logger.Error("shutdown after failed startup", logger.Fields(logger.FieldError, stopErr.Error()))
		}
		return nil, err
	}

	base := a.Cfg.GetConfig()
	opts := a.schedOpts
	if m := a.telemetry.Metrics(); m != nil {
		opts = append(opts, scheduler.WithMetrics(m))
	}
	s, err := scheduler.New(base.Scheduler, a.Pipeline(), opts...)
	if err != nil {
		return nil, a.finish(err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case sig := <-sigCh:
			a.Logger.Info("received signal, stopping run", logger.Fields("signal", sig.String()))
			s.Stop()
		case <-done:
		}
	}()

	result, runErr := s.Run(ctx)
	a.Summary.SetResult(result, runErr)
	a.DisplaySummary()

	for _, h := range a.onResult {
		if err := h(ctx, result); err != nil && runErr == nil {
			runErr = fmt.Errorf("result hook failed: %w", err)
		}
	}
	return result, a.finish(runErr)
}

// finish stops the components and returns runErr, or the shutdown error
// when the run itself succeeded.
func (a *App[C]) finish(runErr error) error {
	if stopErr := a.stop(); stopErr != nil && runErr == nil {
		return stopErr
	}
	return runErr
}

func (a *App[C]) startup(ctx context.Context) error {
	start := time.Now()
	a.Logger.Info("starting application", logger.Fields("name", a.Name))

	if err := a.Components.StartAll(ctx); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	if err := runHooks(ctx, a.onStart); err != nil {
		return fmt.Errorf("onStart hook failed: %w", err)
	}
	a.Summary.SetStartupDuration(time.Since(start))
	return nil
}

// DisplaySummary prints the run summary with the live component health.
func (a *App[C]) DisplaySummary() {
	a.Summary.Display(a.summaryOut, a.Components)
}

func (a *App[C]) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var shutdownErr error
	if err := runHooks(ctx, a.onStop); err != nil {
		a.Logger.Error("onStop hook error", logger.Fields(logger.FieldError, err.Error()))
		shutdownErr = err
	}
	if err := a.Components.StopAll(ctx); err != nil {
		a.Logger.Error("shutdown completed with errors", logger.Fields(logger.FieldError, err.Error()))
		if shutdownErr == nil {
			shutdownErr = err
		}
	}
	a.Logger.Info("application stopped")
	return shutdownErr
}
