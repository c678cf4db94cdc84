package processes

import (
	"context"
	"fmt"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/process"
)

func declareFlow(p *process.Process, tag string) error {
	if err := p.DeclareInputPort("in", process.PortInfo{
		Type:  process.FlowDependent(tag),
		Flags: process.FlagRequired,
	}); err != nil {
		return err
	}
	return p.DeclareOutputPort("out", process.PortInfo{Type: process.FlowDependent(tag)})
}

// Pass forwards its input unchanged. Both ports take the type of whatever
// they are connected to.
type Pass struct{}

// NewPass creates a pass process.
func NewPass(name string, cfg process.Config) (*process.Process, error) {
	return process.New(name, TypePass, cfg, Pass{})
}

func (Pass) Declare(p *process.Process) error { return declareFlow(p, "pass") }

func (Pass) Step(ctx context.Context, p *process.Process) error {
	d, err := p.GrabDatum(ctx, "in")
	if err != nil {
		return err
	}
	return p.PushDatum(ctx, "out", d)
}

// Duplicate emits every input datum "copies" times. Its output frequency
// is copies/1, so its consumers step that much more often.
type Duplicate struct {
	copies int
}

// NewDuplicate creates a duplicate process.
func NewDuplicate(name string, cfg process.Config) (*process.Process, error) {
	return process.New(name, TypeDuplicate, cfg, &Duplicate{})
}

func (d *Duplicate) Declare(p *process.Process) error {
	if err := declareFlow(p, "dup"); err != nil {
		return err
	}
	return p.DeclareConfigKey(process.ConfigKey{Key: "copies", Default: "2", Description: "copies per input datum"})
}

func (d *Duplicate) CheckConfig(p *process.Process) error {
	copies, err := process.ConfigValue[int](p, "copies")
	if err != nil {
		return err
	}
	if copies < 1 {
		return errors.InvalidConfig(fmt.Sprintf("%s: copies must be at least 1 (got %d)", p.Name(), copies))
	}
	return nil
}

func (d *Duplicate) Configure(p *process.Process) error {
	copies, err := process.ConfigValue[int](p, "copies")
	if err != nil {
		return err
	}
	d.copies = copies
	return p.SetOutputPortFrequency("out", process.Integer(uint64(copies)))
}

func (d *Duplicate) Step(ctx context.Context, p *process.Process) error {
	v, err := p.GrabDatum(ctx, "in")
	if err != nil {
		return err
	}
	for range d.copies {
		if err := p.PushDatum(ctx, "out", v); err != nil {
			return err
		}
	}
	return nil
}

// Take forwards the first "count" datums and then completes, marking its
// input complete so that upstream stops being waited on.
type Take struct {
	count, taken int
}

// NewTake creates a take process.
func NewTake(name string, cfg process.Config) (*process.Process, error) {
	return process.New(name, TypeTake, cfg, &Take{})
}

func (t *Take) Declare(p *process.Process) error {
	if err := declareFlow(p, "take"); err != nil {
		return err
	}
	return p.DeclareConfigKey(process.ConfigKey{Key: "count", Default: "1", Description: "datums to forward"})
}

func (t *Take) Configure(p *process.Process) error {
	count, err := process.ConfigValue[int](p, "count")
	if err != nil {
		return err
	}
	t.count, t.taken = count, 0
	return nil
}

func (t *Take) Step(ctx context.Context, p *process.Process) error {
	if t.taken >= t.count {
		p.MarkComplete()
		return nil
	}
	v, err := p.GrabDatum(ctx, "in")
	if err != nil {
		return err
	}
	if err := p.PushDatum(ctx, "out", v); err != nil {
		return err
	}
	t.taken++
	if t.taken >= t.count {
		p.MarkComplete()
	}
	return nil
}
