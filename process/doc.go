// Package process defines the nodes of a pipeline.
//
// A Process wraps a Stepper that holds the domain logic and adds everything
// the engine needs around it: declared input and output ports with types,
// flags and frequencies, declared configuration keys, and the lifecycle
// configure, init, step and reset. Optional hook interfaces let an
// implementation take part in each phase.
//
// Declarations are only allowed before Init. Port types are a closed set:
// concrete names, any, none, data-dependent and flow-dependent with a tag.
// Ports sharing a flow tag resolve together.
//
// Before each step the engine applies the data checking level to the
// required inputs that are due. Under CheckValid, control datums such as
// complete or error are handled by the engine and forwarded downstream
// without running the step.
//
// # Writing a process
//
//	type doubler struct{}
//
//	func (doubler) Declare(p *process.Process) error {
//		if err := p.DeclareInputPort("in", process.PortInfo{Type: process.Concrete("int"), Flags: process.FlagRequired}); err != nil {
//			return err
//		}
//		return p.DeclareOutputPort("out", process.PortInfo{Type: process.Concrete("int")})
//	}
//
//	func (doubler) Step(ctx context.Context, p *process.Process) error {
//		v, err := process.Grab[int](ctx, p, "in")
//		if err != nil {
//			return err
//		}
//		return process.Push(ctx, p, "out", v*2)
//	}
package process
