package scheduler

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kbukum/flowkit/dag"
	"github.com/kbukum/flowkit/edge"
	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/process"
)

// runRounds drives the pipeline in rounds from a single dispatcher. In each
// round every unfinished process is stepped up to its rate, as long as its
// due inputs hold data and its outputs have room. With parallel > 1 the
// processes of a round are stepped by at most parallel workers, except
// no-threads processes which the dispatcher steps itself once the workers
// are done.
//
// Steps never block on a full edge: a round in which no process could step
// is retried ignoring output room, and only if nothing is ready then either
// the run has stalled.
func (s *Scheduler) runRounds(ctx context.Context, r *run, parallel int) error {
	ctx = edge.WithOverflow(ctx)
	engine := &dag.Engine{MaxParallel: parallel}
	step := s.stepFunc(r)

	for round := 0; ; round++ {
		if err := s.wait(ctx); err != nil {
			return err
		}

		var pending []string
		for _, name := range r.order {
			if !r.procs[name].IsComplete() {
				pending = append(pending, name)
			}
		}
		if len(pending) == 0 {
			return nil
		}

		progressed, err := s.round(ctx, r, engine, pending, step, false)
		if err != nil {
			return err
		}
		if progressed {
			continue
		}
		s.log.Debug("no process has output room, overflowing edges", logger.Fields("round", round))
		progressed, err = s.round(ctx, r, engine, pending, step, true)
		if err != nil {
			return err
		}
		if !progressed {
			return errors.SchedulerStalled(pending)
		}
	}
}

func (s *Scheduler) round(ctx context.Context, r *run, engine *dag.Engine, names []string, step dag.NodeFunc, overflow bool) (bool, error) {
	// The first failing step cancels the steps still running in the round.
	rctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var (
		steps    atomic.Int64
		failOnce sync.Once
		failure  error
	)
	batch := func(bctx context.Context, name string) error {
		proc := r.procs[name]
		for i := uint64(0); i < r.rates[name]; i++ {
			if bctx.Err() != nil || proc.IsComplete() || !proc.Ready() {
				return nil
			}
			if !overflow && !proc.HasOutputRoom() {
				return nil
			}
			if err := step(bctx, name); err != nil {
				if bctx.Err() != nil && ctx.Err() == nil {
					return nil
				}
				failOnce.Do(func() {
					failure = err
					cancel()
				})
				return err
			}
			steps.Add(1)
			if overflow {
				return nil
			}
		}
		return nil
	}

	pooled, inline := names, []string(nil)
	if engine.MaxParallel != 1 {
		pooled = nil
		for _, name := range names {
			if r.procs[name].Properties().Has(process.PropertyNoThreads) {
				inline = append(inline, name)
			} else {
				pooled = append(pooled, name)
			}
		}
	}

	engine.Execute(rctx, pooled, batch)
	if failure != nil {
		return false, failure
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	for _, name := range inline {
		if err := batch(rctx, name); err != nil {
			return false, err
		}
	}
	return steps.Load() > 0, nil
}
