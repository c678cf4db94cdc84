package scheduler

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/flowkit/dag"
	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/pipeline"
	"github.com/kbukum/flowkit/process"
)

// Status is the outcome of a run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusStopped   Status = "stopped"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// ProcessResult summarises one process after a run.
type ProcessResult struct {
	Name  string
	Type  string
	State process.State
	Steps uint64
}

// Result describes a finished run.
type Result struct {
	RunID     uuid.UUID
	Scheduler string
	Status    Status
	// Processes is ordered like the pipeline's initialization order.
	Processes []ProcessResult
	Duration  time.Duration
}

// Process returns the result of one process.
func (r *Result) Process(name string) (ProcessResult, bool) {
	for _, pr := range r.Processes {
		if pr.Name == name {
			return pr, true
		}
	}
	return ProcessResult{}, false
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the scheduler logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// WithMetrics records step and run metrics.
func WithMetrics(m *observability.StepMetrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithRunID fixes the ID of every run instead of generating one.
func WithRunID(id uuid.UUID) Option {
	return func(s *Scheduler) { s.runID = id }
}

// Scheduler drives a set-up pipeline until every process completes, one
// fails, or the run is stopped.
type Scheduler struct {
	cfg     Config
	pipe    *pipeline.Pipeline
	log     *logger.Logger
	metrics *observability.StepMetrics
	runID   uuid.UUID

	mu      sync.Mutex
	running bool
	stopped bool
	cancel  context.CancelFunc
	gate    chan struct{}
	current uuid.UUID
}

// New creates a scheduler for pipe. The configuration is defaulted and
// validated.
func New(cfg Config, pipe *pipeline.Pipeline, opts ...Option) (*Scheduler, error) {
	if pipe == nil {
		return nil, errors.InvalidConfig("scheduler needs a pipeline")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Scheduler{cfg: cfg, pipe: pipe}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get("scheduler")
	}
	s.log = s.log.WithFields(logger.Fields(logger.FieldScheduler, cfg.Type))
	return s, nil
}

// Type returns the scheduling strategy.
func (s *Scheduler) Type() string { return s.cfg.Type }

// run is the state of one Run call.
type run struct {
	order []string
	procs map[string]*process.Process
	rates map[string]uint64
}

func (s *Scheduler) prepare() (*run, error) {
	order, err := s.pipe.InitOrder()
	if err != nil {
		return nil, err
	}
	r := &run{
		order: order,
		procs: make(map[string]*process.Process, len(order)),
		rates: make(map[string]uint64, len(order)),
	}
	for _, name := range order {
		proc, err := s.pipe.Process(name)
		if err != nil {
			return nil, err
		}
		rate, err := s.pipe.Rate(name)
		if err != nil {
			return nil, err
		}
		if s.cfg.Type == TypeThreadPerProcess && proc.Properties().Has(process.PropertyNoThreads) {
			return nil, errors.IncompatiblePipeline(s.cfg.Type, "process "+name+" must not run on its own goroutine")
		}
		r.procs[name] = proc
		r.rates[name] = rate
	}
	return r, nil
}

// Run executes the pipeline. It returns nil when every process completed or
// Stop was called; the error of the first failing process; or ctx.Err() when
// ctx ended the run. Steps already running are never interrupted by Stop,
// only blocking edge operations are.
func (s *Scheduler) Run(ctx context.Context) (*Result, error) {
	r, err := s.prepare()
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, errors.SchedulerRunning()
	}
	id := s.runID
	if id == uuid.Nil {
		id = uuid.New()
	}
	s.running, s.stopped, s.cancel, s.current = true, false, cancel, id
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running, s.cancel = false, nil
		s.mu.Unlock()
	}()

	rc := observability.NewRunContext(id.String(), s.cfg.Type, s.metrics)
	runCtx, span := rc.StartRun(runCtx)
	runCtx = logger.ContextWithRunID(runCtx, id.String())
	log := s.log.WithContext(runCtx)
	log.Info("run started", logger.Fields("processes", len(r.order)))

	switch s.cfg.Type {
	case TypeThreadPerProcess:
		err = s.runThreaded(runCtx, r)
	case TypePool:
		err = s.runRounds(runCtx, r, s.cfg.MaxParallel)
	default:
		err = s.runRounds(runCtx, r, 1)
	}

	status := StatusCompleted
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	switch {
	case err == nil:
	case ctx.Err() != nil:
		status, err = StatusCancelled, ctx.Err()
	case stopped && isInterrupt(err):
		status, err = StatusStopped, nil
	default:
		status = StatusFailed
	}

	s.recordPushed(runCtx)
	rc.EndRun(runCtx, span, string(status), err)

	result := &Result{
		RunID:     id,
		Scheduler: s.cfg.Type,
		Status:    status,
		Duration:  rc.Duration(),
	}
	for _, name := range r.order {
		proc := r.procs[name]
		result.Processes = append(result.Processes, ProcessResult{
			Name:  name,
			Type:  proc.Type(),
			State: proc.State(),
			Steps: proc.Steps(),
		})
	}

	fields := logger.MergeWithDuration(logger.Fields(logger.FieldStatus, string(status)), result.Duration)
	if err != nil {
		log.Error("run failed", logger.MergeWithError(fields, err))
		return result, err
	}
	log.Info("run finished", fields)
	return result, nil
}

func isInterrupt(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}

func (s *Scheduler) recordPushed(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	for _, e := range s.pipe.Edges() {
		s.metrics.RecordPushed(ctx, e.Name(), int64(e.Pushed()))
	}
}

// Stop asks a running Run to return. Processes observe it at their next
// step boundary.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.stopped = true
	s.cancel()
	s.log.Info("stop requested")
}

// Pause holds every step that has not started yet until Resume.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gate == nil {
		s.gate = make(chan struct{})
		s.log.Info("paused")
	}
}

// Resume releases steps held by Pause.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gate != nil {
		close(s.gate)
		s.gate = nil
		s.log.Info("resumed")
	}
}

// Paused reports whether the scheduler is paused.
func (s *Scheduler) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gate != nil
}

// wait blocks while the scheduler is paused.
func (s *Scheduler) wait(ctx context.Context) error {
	s.mu.Lock()
	gate := s.gate
	s.mu.Unlock()
	if gate == nil {
		return ctx.Err()
	}
	select {
	case <-gate:
		return ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stepFunc returns the traced, measured and logged step of one process.
func (s *Scheduler) stepFunc(r *run) dag.NodeFunc {
	fn := func(ctx context.Context, name string) error {
		proc := r.procs[name]
		observability.SetSpanAttribute(ctx, observability.AttrProcessType, proc.Type())
		observability.SetSpanAttribute(ctx, observability.AttrProcessStep, proc.Steps())
		return proc.Step(ctx)
	}
	typeOf := func(name string) string { return r.procs[name].Type() }
	fn = dag.WithLogging(fn, s.log)
	fn = dag.WithMetrics(fn, s.metrics, typeOf)
	return dag.WithTracing(fn, observability.SpanSchedulerStep)
}

// CheckHealth reports the state of every process of the pipeline: failed
// processes are down, the others up.
func (s *Scheduler) CheckHealth(context.Context) observability.RunHealth {
	s.mu.Lock()
	id := s.current
	s.mu.Unlock()

	rh := observability.NewRunHealth(id.String(), s.cfg.Type)
	for _, proc := range s.pipe.Processes() {
		h := observability.Health{
			Name:    proc.Name(),
			Status:  observability.HealthStatusUp,
			Message: proc.State().String(),
		}
		if proc.State() == process.StateFailed {
			h.Status = observability.HealthStatusDown
		}
		rh.AddComponent(h)
	}
	return *rh
}
