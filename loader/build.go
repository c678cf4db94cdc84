package loader

import (
	"maps"

	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/pipeline"
	"github.com/kbukum/flowkit/process"
)

// Build validates bp and creates a pipeline holding its processes and
// connections. Processes are created through registry; the pipeline is
// not set up.
func Build(bp *Blueprint, registry *process.Registry, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	if err := bp.Validate(); err != nil {
		return nil, err
	}

	log := logger.Get("loader")
	p := pipeline.New(opts...)
	for _, def := range bp.Processes {
		proc, err := registry.Create(def.Type, def.Name, process.Config(maps.Clone(def.Config)))
		if err != nil {
			return nil, err
		}
		if err := p.AddProcess(proc); err != nil {
			return nil, err
		}
	}

	for _, c := range bp.Connections {
		up, err := pipeline.ParseAddr(c.From)
		if err != nil {
			return nil, err
		}
		down, err := pipeline.ParseAddr(c.To)
		if err != nil {
			return nil, err
		}
		var connOpts []pipeline.ConnectOption
		if c.NoDep {
			connOpts = append(connOpts, pipeline.WithNoDep())
		}
		if c.Capacity > 0 {
			connOpts = append(connOpts, pipeline.WithCapacity(c.Capacity))
		}
		if err := p.Connect(up, down, connOpts...); err != nil {
			return nil, err
		}
	}

	log.Debug("blueprint built", logger.Fields(
		"blueprint", bp.source(),
		"processes", len(bp.Processes),
		"connections", len(bp.Connections),
	))
	return p, nil
}
