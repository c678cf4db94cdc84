package scheduler

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// runThreaded gives every process its own goroutine, which steps it until it
// completes. Steps block on empty inputs and full outputs, so the edges
// alone pace the graph. The first failure cancels every other goroutine.
func (s *Scheduler) runThreaded(ctx context.Context, r *run) error {
	step := s.stepFunc(r)
	g, gctx := errgroup.WithContext(ctx)
	for _, name := range r.order {
		proc := r.procs[name]
		g.Go(func() error {
			for !proc.IsComplete() {
				if err := s.wait(gctx); err != nil {
					return err
				}
				if err := step(gctx, name); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}
