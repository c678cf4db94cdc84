package process

import (
	"context"
	"testing"

	"github.com/kbukum/flowkit/datum"
	"github.com/kbukum/flowkit/edge"
)

type fake struct {
	declare func(p *Process) error
	step    func(ctx context.Context, p *Process) error
}

func (f *fake) Declare(p *Process) error {
	if f.declare == nil {
		return nil
	}
	return f.declare(p)
}

func (f *fake) Step(ctx context.Context, p *Process) error {
	if f.step == nil {
		return nil
	}
	return f.step(ctx, p)
}

func intIn(flags PortFlag) PortInfo {
	return PortInfo{Type: Concrete("int"), Flags: flags}
}

func intOut() PortInfo {
	return PortInfo{Type: Concrete("int")}
}

func mustNew(t *testing.T, name string, f *fake) *Process {
	t.Helper()
	p, err := New(name, "fake", nil, f)
	if err != nil {
		t.Fatalf("New(%s): %v", name, err)
	}
	return p
}

func mustInit(t *testing.T, p *Process) {
	t.Helper()
	if err := p.Configure(); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if err := p.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
}

// feed attaches a fresh edge to an input port and returns it for pushing.
func feed(t *testing.T, p *Process, port string) *edge.Edge {
	t.Helper()
	e := edge.New(edge.Config{})
	if err := p.ConnectInputPort(port, e.AddReader()); err != nil {
		t.Fatalf("ConnectInputPort(%s): %v", port, err)
	}
	return e
}

// tap attaches a fresh edge to an output port and returns its reader.
func tap(t *testing.T, p *Process, port string) *edge.Reader {
	t.Helper()
	e := edge.New(edge.Config{})
	r := e.AddReader()
	if err := p.ConnectOutputPort(port, e); err != nil {
		t.Fatalf("ConnectOutputPort(%s): %v", port, err)
	}
	return r
}

func pushAt(t *testing.T, e *edge.Edge, d datum.Datum, stamp uint64) {
	t.Helper()
	if err := e.Push(context.Background(), edge.Stamped(d, stamp)); err != nil {
		t.Fatalf("push: %v", err)
	}
}

func drainAll(r *edge.Reader) []datum.Datum {
	var out []datum.Datum
	for {
		if r.Len() == 0 {
			return out
		}
		p, _ := r.TryPop()
		out = append(out, p.Datum)
	}
}

func step(t *testing.T, p *Process) {
	t.Helper()
	if err := p.Step(context.Background()); err != nil {
		t.Fatalf("Step: %v", err)
	}
}
