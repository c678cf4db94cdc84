package process

import "context"

// Stepper is the domain logic of a process. Step reads from input ports,
// computes and writes to output ports through p.
type Stepper interface {
	Step(ctx context.Context, p *Process) error
}

// StepFunc adapts a function to Stepper.
type StepFunc func(ctx context.Context, p *Process) error

// Step calls f.
func (f StepFunc) Step(ctx context.Context, p *Process) error { return f(ctx, p) }

// Declarer declares ports and configuration keys. It is called once by New.
type Declarer interface {
	Declare(p *Process) error
}

// ConfigChecker validates the configuration before Configure.
type ConfigChecker interface {
	CheckConfig(p *Process) error
}

// Configurer runs during Configure, before any edge is attached. It may
// resolve data-dependent port types.
type Configurer interface {
	Configure(p *Process) error
}

// Initializer runs during Init, after all edges are attached.
type Initializer interface {
	Init(p *Process) error
}

// Resetter runs during Reset.
type Resetter interface {
	Reset(p *Process)
}

// Flusher runs when a flush datum reaches the process under the valid
// checking level.
type Flusher interface {
	Flush(ctx context.Context, p *Process) error
}

// Reconfigurer is notified of tunable keys changed by Reconfigure. It runs
// between steps.
type Reconfigurer interface {
	Reconfigure(p *Process, changed Config) error
}

// TypeSetter decides whether a dependent port accepts a type requested by a
// connected peer. Returning false declines the connection.
type TypeSetter interface {
	AcceptType(p *Process, port string, dir Direction, t PortType) bool
}

// PropertyProvider reports concurrency properties to the scheduler.
type PropertyProvider interface {
	Properties() Property
}
