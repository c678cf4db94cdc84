package processes

import (
	"context"
	"fmt"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/process"
)

// Numbers emits the integers in [start, end), one per step, then completes.
type Numbers struct {
	next, end int
}

// NewNumbers creates a numbers process.
func NewNumbers(name string, cfg process.Config) (*process.Process, error) {
	return process.New(name, TypeNumbers, cfg, &Numbers{})
}

func (n *Numbers) Declare(p *process.Process) error {
	if err := p.DeclareOutputPort("number", integer(0, "the next number")); err != nil {
		return err
	}
	if err := p.DeclareConfigKey(process.ConfigKey{Key: "start", Default: "0", Description: "first number"}); err != nil {
		return err
	}
	return p.DeclareConfigKey(process.ConfigKey{Key: "end", Default: "10", Description: "number to stop before"})
}

func (n *Numbers) bounds(p *process.Process) (int, int, error) {
	start, err := process.ConfigValue[int](p, "start")
	if err != nil {
		return 0, 0, err
	}
	end, err := process.ConfigValue[int](p, "end")
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func (n *Numbers) CheckConfig(p *process.Process) error {
	start, end, err := n.bounds(p)
	if err != nil {
		return err
	}
	if end < start {
		return errors.InvalidConfig(fmt.Sprintf("%s: end (%d) is before start (%d)", p.Name(), end, start))
	}
	return nil
}

func (n *Numbers) Configure(p *process.Process) error {
	start, end, err := n.bounds(p)
	if err != nil {
		return err
	}
	n.next, n.end = start, end
	return nil
}

func (n *Numbers) Step(ctx context.Context, p *process.Process) error {
	if n.next >= n.end {
		p.MarkComplete()
		return nil
	}
	if err := process.Push(ctx, p, "number", n.next); err != nil {
		return err
	}
	n.next++
	return nil
}
