package processes

import (
	"context"

	"github.com/kbukum/flowkit/process"
)

// Sum adds two synchronized integer streams.
type Sum struct{}

// NewSum creates a sum process.
func NewSum(name string, cfg process.Config) (*process.Process, error) {
	return process.New(name, TypeSum, cfg, Sum{})
}

func (Sum) Declare(p *process.Process) error {
	if err := p.DeclareInputPort("a", integer(process.FlagRequired, "first addend")); err != nil {
		return err
	}
	if err := p.DeclareInputPort("b", integer(process.FlagRequired, "second addend")); err != nil {
		return err
	}
	return p.DeclareOutputPort("sum", integer(0, "a + b"))
}

func (Sum) Step(ctx context.Context, p *process.Process) error {
	a, err := process.Grab[int](ctx, p, "a")
	if err != nil {
		return err
	}
	b, err := process.Grab[int](ctx, p, "b")
	if err != nil {
		return err
	}
	return process.Push(ctx, p, "sum", a+b)
}

// Scale computes number*factor + offset. The factor is read from its port
// when connected and from "static/factor" otherwise; the offset is tunable
// while running.
type Scale struct {
	offset int
}

// NewScale creates a scale process.
func NewScale(name string, cfg process.Config) (*process.Process, error) {
	return process.New(name, TypeScale, cfg, &Scale{})
}

func (s *Scale) Declare(p *process.Process) error {
	if err := p.DeclareInputPort("number", integer(process.FlagRequired, "value to scale")); err != nil {
		return err
	}
	if err := p.DeclareInputPort("factor", integer(process.FlagInputStatic, "multiplier")); err != nil {
		return err
	}
	if err := p.DeclareOutputPort("number", integer(0, "scaled value")); err != nil {
		return err
	}
	return p.DeclareConfigKey(process.ConfigKey{Key: "offset", Default: "0", Description: "added after scaling", Tunable: true})
}

func (s *Scale) Configure(p *process.Process) error {
	offset, err := process.ConfigValue[int](p, "offset")
	if err != nil {
		return err
	}
	s.offset = offset
	return nil
}

func (s *Scale) Reconfigure(p *process.Process, _ process.Config) error {
	return s.Configure(p)
}

func (s *Scale) Step(ctx context.Context, p *process.Process) error {
	n, err := process.Grab[int](ctx, p, "number")
	if err != nil {
		return err
	}
	factor, err := process.GrabInput[int](ctx, p, "factor")
	if err != nil {
		return err
	}
	return process.Push(ctx, p, "number", n*factor+s.offset)
}
