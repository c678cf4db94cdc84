package component

import (
	"context"

	"github.com/kbukum/flowkit/observability"
)

// Component is a lifecycle-managed part of a run, started before the
// scheduler and stopped after it.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	// Health reports the component in the same shape as a process, so it
	// can join the run health.
	Health(ctx context.Context) observability.Health
}

// Description is the startup summary line of a component.
type Description struct {
	// Name defaults to the component's Name().
	Name string
	// Type is "telemetry", "pipeline", or a caller-defined kind.
	Type string
	// Details such as "demo.yaml: 3 processes, 2 connections".
	Details string
}

// Describable is implemented by components listed in the startup summary.
type Describable interface {
	Describe() Description
}

// Describe returns the summary line of c, filling the name from c.Name().
func Describe(c Component) Description {
	var d Description
	if dc, ok := c.(Describable); ok {
		d = dc.Describe()
	}
	if d.Name == "" {
		d.Name = c.Name()
	}
	return d
}
