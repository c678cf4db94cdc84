package process

import (
	"context"

	"github.com/kbukum/flowkit/datum"
	"github.com/kbukum/flowkit/errors"
)

func (p *Process) checkPortType(dir Direction, port string, check func(name string) error) error {
	desc, err := p.PortInfo(dir, port)
	if err != nil {
		return err
	}
	if !desc.Type.IsConcrete() {
		return nil
	}
	if err := check(desc.Type.Name()); err != nil {
		if e, ok := errors.As(err); ok {
			return e.WithDetail("process", p.name).WithDetail("port", port)
		}
		return err
	}
	return nil
}

// Grab removes the next datum from an input port and returns its payload as
// a T. A T that disagrees with the registered port type fails with
// TYPE_MISMATCH before anything is consumed; control datums fail with
// NO_DATA after being consumed.
func Grab[T any](ctx context.Context, p *Process, port string) (T, error) {
	var zero T
	if err := p.checkPortType(Input, port, datum.CheckType[T]); err != nil {
		return zero, err
	}
	d, err := p.GrabDatum(ctx, port)
	if err != nil {
		return zero, err
	}
	return datum.As[T](d)
}

// Peek returns the payload of the datum at index i of an input port without
// consuming it.
func Peek[T any](p *Process, port string, i int) (T, error) {
	var zero T
	if err := p.checkPortType(Input, port, datum.CheckType[T]); err != nil {
		return zero, err
	}
	d, err := p.PeekDatum(port, i)
	if err != nil {
		return zero, err
	}
	return datum.As[T](d)
}

// Push wraps v in a data datum and writes it to an output port.
func Push[T any](ctx context.Context, p *Process, port string, v T) error {
	if err := p.checkPortType(Output, port, datum.CheckType[T]); err != nil {
		return err
	}
	return p.PushDatum(ctx, port, datum.New(v))
}

// GrabInput reads a static-capable input: from its edge when connected,
// otherwise from the "static/<port>" configuration key.
func GrabInput[T any](ctx context.Context, p *Process, port string) (T, error) {
	desc, err := p.InputPortInfo(port)
	if err != nil {
		var zero T
		return zero, err
	}
	if desc.Connected || !desc.Flags.Has(FlagInputStatic) {
		return Grab[T](ctx, p, port)
	}
	return ConfigValue[T](p, StaticKey(port))
}
