package pipeline

import (
	"context"
	"testing"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/process"
)

type node struct {
	ins    map[string]process.PortInfo
	outs   map[string]process.PortInfo
	inOrd  []string
	outOrd []string
	accept func(port string, t process.PortType) bool
	init   func(p *process.Process) error
	inits  *[]string
}

func newNode() *node {
	return &node{ins: map[string]process.PortInfo{}, outs: map[string]process.PortInfo{}}
}

func (n *node) in(name string, info process.PortInfo) *node {
	n.ins[name] = info
	n.inOrd = append(n.inOrd, name)
	return n
}

func (n *node) out(name string, info process.PortInfo) *node {
	n.outs[name] = info
	n.outOrd = append(n.outOrd, name)
	return n
}

func (n *node) Declare(p *process.Process) error {
	for _, name := range n.inOrd {
		if err := p.DeclareInputPort(name, n.ins[name]); err != nil {
			return err
		}
	}
	for _, name := range n.outOrd {
		if err := p.DeclareOutputPort(name, n.outs[name]); err != nil {
			return err
		}
	}
	return nil
}

func (n *node) AcceptType(_ *process.Process, port string, _ process.Direction, t process.PortType) bool {
	if n.accept == nil {
		return true
	}
	return n.accept(port, t)
}

func (n *node) Init(p *process.Process) error {
	if n.inits != nil {
		*n.inits = append(*n.inits, p.Name())
	}
	if n.init != nil {
		return n.init(p)
	}
	return nil
}

func (n *node) Step(context.Context, *process.Process) error { return nil }

func typed(name string, flags ...process.PortFlag) process.PortInfo {
	info := process.PortInfo{Type: process.Concrete(name)}
	for _, f := range flags {
		info.Flags |= f
	}
	return info
}

func anyOf(t process.PortType, flags ...process.PortFlag) process.PortInfo {
	info := process.PortInfo{Type: t}
	for _, f := range flags {
		info.Flags |= f
	}
	return info
}

func add(t *testing.T, p *Pipeline, name string, n *node) *process.Process {
	t.Helper()
	proc, err := process.New(name, "node", nil, n)
	if err != nil {
		t.Fatalf("process.New(%s): %v", name, err)
	}
	if err := p.AddProcess(proc); err != nil {
		t.Fatalf("AddProcess(%s): %v", name, err)
	}
	return proc
}

func connect(t *testing.T, p *Pipeline, up, down string, opts ...ConnectOption) {
	t.Helper()
	u, err := ParseAddr(up)
	if err != nil {
		t.Fatal(err)
	}
	d, err := ParseAddr(down)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Connect(u, d, opts...); err != nil {
		t.Fatalf("Connect(%s, %s): %v", up, down, err)
	}
}

func expectCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", code)
	}
	if !errors.HasCode(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func portType(t *testing.T, proc *process.Process, dir process.Direction, port string) process.PortType {
	t.Helper()
	desc, err := proc.PortInfo(dir, port)
	if err != nil {
		t.Fatalf("PortInfo(%s): %v", port, err)
	}
	return desc.Type
}
