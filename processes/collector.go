package processes

import (
	"context"
	"sync"

	"github.com/kbukum/flowkit/datum"
	"github.com/kbukum/flowkit/process"
)

// Collector records every datum reaching its input and completes with it.
// Its "check" key sets the data checking level, so that with "none" control
// datums are recorded too.
type Collector struct {
	mu     sync.Mutex
	datums []datum.Datum
}

// NewCollector creates a collector process.
func NewCollector(name string, cfg process.Config) (*process.Process, error) {
	return process.New(name, TypeCollector, cfg, &Collector{})
}

// CollectorOf returns the collector behind p.
func CollectorOf(p *process.Process) (*Collector, bool) {
	c, ok := p.Impl().(*Collector)
	return c, ok
}

func (c *Collector) Declare(p *process.Process) error {
	if err := p.DeclareInputPort("value", process.PortInfo{
		Type:        process.AnyType,
		Flags:       process.FlagRequired,
		Description: "values to record",
	}); err != nil {
		return err
	}
	return p.DeclareConfigKey(process.ConfigKey{Key: "check", Default: "valid", Description: "data checking level"})
}

func (c *Collector) CheckConfig(p *process.Process) error {
	raw, err := process.ConfigValue[string](p, "check")
	if err != nil {
		return err
	}
	_, err = process.ParseCheckLevel(raw)
	return err
}

func (c *Collector) Configure(p *process.Process) error {
	raw, err := process.ConfigValue[string](p, "check")
	if err != nil {
		return err
	}
	level, err := process.ParseCheckLevel(raw)
	if err != nil {
		return err
	}
	return p.SetDataCheckingLevel(level)
}

func (c *Collector) Reset(*process.Process) {
	c.mu.Lock()
	c.datums = nil
	c.mu.Unlock()
}

func (c *Collector) Step(ctx context.Context, p *process.Process) error {
	d, err := p.GrabDatum(ctx, "value")
	if err != nil {
		return err
	}
	if d.IsComplete() {
		p.MarkComplete()
		return nil
	}
	c.mu.Lock()
	c.datums = append(c.datums, d)
	c.mu.Unlock()
	return nil
}

// Datums returns every recorded datum.
func (c *Collector) Datums() []datum.Datum {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]datum.Datum, len(c.datums))
	copy(out, c.datums)
	return out
}

// Values returns the payloads of the recorded data datums.
func (c *Collector) Values() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []any
	for _, d := range c.datums {
		if !d.IsControl() {
			out = append(out, d.Value())
		}
	}
	return out
}
