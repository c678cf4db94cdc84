package testutil

import (
	"testing"

	"github.com/kbukum/flowkit/pipeline"
	"github.com/kbukum/flowkit/process"
	"github.com/kbukum/flowkit/processes"
)

// Graph builds a pipeline from registered process types, failing the test
// on any construction error.
type Graph struct {
	t        *testing.T
	pipe     *pipeline.Pipeline
	registry *process.Registry
}

// NewGraph creates a Graph over the processes package registry.
func NewGraph(t *testing.T, opts ...pipeline.Option) *Graph {
	t.Helper()
	reg, err := processes.NewRegistry()
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}
	return &Graph{t: t, pipe: pipeline.New(opts...), registry: reg}
}

// Registry returns the registry used by Add, so tests can register more
// types.
func (g *Graph) Registry() *process.Registry { return g.registry }

// Pipeline returns the pipeline being built.
func (g *Graph) Pipeline() *pipeline.Pipeline { return g.pipe }

// Add creates a process of a registered type and adds it.
func (g *Graph) Add(typ, name string, cfg process.Config) *process.Process {
	g.t.Helper()
	proc, err := g.registry.Create(typ, name, cfg)
	if err != nil {
		g.t.Fatalf("failed to create %s %s: %v", typ, name, err)
	}
	g.AddProcess(proc)
	return proc
}

// AddProcess adds an already built process.
func (g *Graph) AddProcess(proc *process.Process) {
	g.t.Helper()
	if err := g.pipe.AddProcess(proc); err != nil {
		g.t.Fatalf("failed to add %s: %v", proc.Name(), err)
	}
}

// Connect links two "process.port" addresses.
func (g *Graph) Connect(up, down string, opts ...pipeline.ConnectOption) {
	g.t.Helper()
	u, err := pipeline.ParseAddr(up)
	if err != nil {
		g.t.Fatalf("bad address: %v", err)
	}
	d, err := pipeline.ParseAddr(down)
	if err != nil {
		g.t.Fatalf("bad address: %v", err)
	}
	if err := g.pipe.Connect(u, d, opts...); err != nil {
		g.t.Fatalf("failed to connect %s -> %s: %v", up, down, err)
	}
}

// Setup sets the pipeline up and resets it when the test ends.
func (g *Graph) Setup() *pipeline.Pipeline {
	g.t.Helper()
	return MustSetup(g.t, g.pipe)
}
