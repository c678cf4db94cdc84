package processes

import (
	"github.com/kbukum/flowkit/datum"
	"github.com/kbukum/flowkit/process"
)

// Process type names.
const (
	TypeNumbers   = "numbers"
	TypeCollector = "collector"
	TypePass      = "pass"
	TypeDuplicate = "duplicate"
	TypeTake      = "take"
	TypeSum       = "sum"
	TypeScale     = "scale"
	TypeThrottle  = "throttle"
)

// TypeInteger is the port type carrying Go ints.
const TypeInteger = "integer"

var factories = []struct {
	typ     string
	factory process.Factory
}{
	{TypeNumbers, NewNumbers},
	{TypeCollector, NewCollector},
	{TypePass, NewPass},
	{TypeDuplicate, NewDuplicate},
	{TypeTake, NewTake},
	{TypeSum, NewSum},
	{TypeScale, NewScale},
	{TypeThrottle, NewThrottle},
}

// Register adds every process of this package to r and binds the integer
// port type.
func Register(r *process.Registry) error {
	datum.RegisterType[int](TypeInteger)
	for _, f := range factories {
		if err := r.Register(f.typ, f.factory); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding the processes of this package.
func NewRegistry() (*process.Registry, error) {
	r := process.NewRegistry()
	if err := Register(r); err != nil {
		return nil, err
	}
	return r, nil
}

func integer(flags process.PortFlag, description string) process.PortInfo {
	return process.PortInfo{Type: process.Concrete(TypeInteger), Flags: flags, Description: description}
}
