package scheduler

import (
	"context"
	"testing"

	"go.uber.org/goleak"

	"github.com/kbukum/flowkit/datum"
	"github.com/kbukum/flowkit/pipeline"
	"github.com/kbukum/flowkit/process"
	"github.com/kbukum/flowkit/processes"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var allTypes = []string{TypeSync, TypePool, TypeThreadPerProcess}

type graph struct {
	t    *testing.T
	pipe *pipeline.Pipeline
	reg  *process.Registry
}

func newGraph(t *testing.T, opts ...pipeline.Option) *graph {
	t.Helper()
	reg, err := processes.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return &graph{t: t, pipe: pipeline.New(opts...), reg: reg}
}

func (g *graph) add(typ, name string, cfg process.Config) *process.Process {
	g.t.Helper()
	proc, err := g.reg.Create(typ, name, cfg)
	if err != nil {
		g.t.Fatalf("Create(%s): %v", name, err)
	}
	g.addProcess(proc)
	return proc
}

func (g *graph) addProcess(proc *process.Process) {
	g.t.Helper()
	if err := g.pipe.AddProcess(proc); err != nil {
		g.t.Fatalf("AddProcess(%s): %v", proc.Name(), err)
	}
}

func (g *graph) connect(up, down string, opts ...pipeline.ConnectOption) {
	g.t.Helper()
	u, err := pipeline.ParseAddr(up)
	if err != nil {
		g.t.Fatal(err)
	}
	d, err := pipeline.ParseAddr(down)
	if err != nil {
		g.t.Fatal(err)
	}
	if err := g.pipe.Connect(u, d, opts...); err != nil {
		g.t.Fatalf("Connect(%s, %s): %v", up, down, err)
	}
}

func (g *graph) setup() *pipeline.Pipeline {
	g.t.Helper()
	if err := g.pipe.Setup(context.Background()); err != nil {
		g.t.Fatalf("Setup: %v", err)
	}
	return g.pipe
}

func (g *graph) scheduler(typ string, opts ...Option) *Scheduler {
	g.t.Helper()
	s, err := New(Config{Type: typ, MaxParallel: 4}, g.pipe, opts...)
	if err != nil {
		g.t.Fatalf("New(%s): %v", typ, err)
	}
	return s
}

func collected(t *testing.T, p *pipeline.Pipeline, name string) *processes.Collector {
	t.Helper()
	proc, err := p.Process(name)
	if err != nil {
		t.Fatal(err)
	}
	c, ok := processes.CollectorOf(proc)
	if !ok {
		t.Fatalf("%s is not a collector", name)
	}
	return c
}

// stepper is a process whose step behaviour is supplied by the test.
type stepper struct {
	props process.Property
	step  func(ctx context.Context, p *process.Process) error
}

func (s *stepper) Declare(p *process.Process) error {
	return p.DeclareOutputPort("number", process.PortInfo{Type: process.Concrete(processes.TypeInteger)})
}

func (s *stepper) Properties() process.Property { return s.props }

func (s *stepper) Step(ctx context.Context, p *process.Process) error { return s.step(ctx, p) }

func newStepper(t *testing.T, name string, s *stepper) *process.Process {
	t.Helper()
	proc, err := process.New(name, "stepper", nil, s)
	if err != nil {
		t.Fatalf("process.New(%s): %v", name, err)
	}
	return proc
}

// counting emits 0, 1, 2, ... forever.
func counting() *stepper {
	return &stepper{step: func(ctx context.Context, p *process.Process) error {
		return process.Push(ctx, p, "number", int(p.Steps()))
	}}
}

func ints(values []any) []int {
	out := make([]int, 0, len(values))
	for _, v := range values {
		out = append(out, v.(int))
	}
	return out
}

func types(ds []datum.Datum) []datum.Type {
	out := make([]datum.Type, len(ds))
	for i, d := range ds {
		out[i] = d.Type()
	}
	return out
}

// accumulator adds each value of "in" to its previous output, which comes
// back on the optional feedback input "prev".
type accumulator struct {
	prevFlags process.PortFlag
}

func (a *accumulator) Declare(p *process.Process) error {
	if err := p.DeclareInputPort("in", process.PortInfo{Type: process.Concrete(processes.TypeInteger), Flags: process.FlagRequired}); err != nil {
		return err
	}
	if err := p.DeclareInputPort("prev", process.PortInfo{Type: process.Concrete(processes.TypeInteger), Flags: a.prevFlags}); err != nil {
		return err
	}
	return p.DeclareOutputPort("total", process.PortInfo{Type: process.Concrete(processes.TypeInteger)})
}

func (a *accumulator) Step(ctx context.Context, p *process.Process) error {
	v, err := process.Grab[int](ctx, p, "in")
	if err != nil {
		return err
	}
	if p.Steps() > 0 {
		prev, err := process.Grab[int](ctx, p, "prev")
		if err != nil {
			return err
		}
		v += prev
	}
	return process.Push(ctx, p, "total", v)
}

func newAccumulator(t *testing.T, name string, prevFlags process.PortFlag) *process.Process {
	t.Helper()
	proc, err := process.New(name, "accumulator", nil, &accumulator{prevFlags: prevFlags})
	if err != nil {
		t.Fatalf("process.New(%s): %v", name, err)
	}
	return proc
}
