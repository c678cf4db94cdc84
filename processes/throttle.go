package processes

import (
	"context"
	"fmt"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/process"
)

// Throttle forwards its input at no more than "rate" datums per second,
// letting bursts of up to "burst" through immediately.
type Throttle struct {
	bucket *tokenBucket
}

// NewThrottle creates a throttle process.
func NewThrottle(name string, cfg process.Config) (*process.Process, error) {
	return process.New(name, TypeThrottle, cfg, &Throttle{})
}

func (t *Throttle) Declare(p *process.Process) error {
	if err := declareFlow(p, "throttle"); err != nil {
		return err
	}
	if err := p.DeclareConfigKey(process.ConfigKey{Key: "rate", Default: "10", Description: "datums per second"}); err != nil {
		return err
	}
	return p.DeclareConfigKey(process.ConfigKey{Key: "burst", Default: "1", Description: "datums let through without waiting"})
}

func (t *Throttle) limits(p *process.Process) (float64, int, error) {
	rate, err := process.ConfigValue[float64](p, "rate")
	if err != nil {
		return 0, 0, err
	}
	burst, err := process.ConfigValue[int](p, "burst")
	if err != nil {
		return 0, 0, err
	}
	return rate, burst, nil
}

func (t *Throttle) CheckConfig(p *process.Process) error {
	rate, burst, err := t.limits(p)
	if err != nil {
		return err
	}
	if rate <= 0 || burst < 1 {
		return errors.InvalidConfig(fmt.Sprintf("%s: rate must be positive and burst at least 1 (got %g, %d)", p.Name(), rate, burst))
	}
	return nil
}

func (t *Throttle) Configure(p *process.Process) error {
	rate, burst, err := t.limits(p)
	if err != nil {
		return err
	}
	t.bucket = newTokenBucket(rate, burst)
	return nil
}

// Reset drops the bucket so a re-setup starts with a full one.
func (t *Throttle) Reset(*process.Process) {
	t.bucket = nil
}

func (t *Throttle) Step(ctx context.Context, p *process.Process) error {
	d, err := p.GrabDatum(ctx, "in")
	if err != nil {
		return err
	}
	if !d.IsControl() {
		if err := t.bucket.wait(ctx); err != nil {
			return err
		}
	}
	return p.PushDatum(ctx, "out", d)
}
