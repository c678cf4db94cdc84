package bootstrap

import (
	"context"
	"fmt"

	"github.com/kbukum/flowkit/scheduler"
)

// Hook is a lifecycle callback that runs during startup or shutdown.
type Hook func(ctx context.Context) error

// ResultHook receives the result of a run before components stop.
type ResultHook func(ctx context.Context, result *scheduler.Result) error

// OnStart registers hooks that run after all components started, when the
// pipeline is set up but not yet running.
func (a *App[C]) OnStart(hooks ...Hook) {
	a.onStart = append(a.onStart, hooks...)
}

// OnResult registers hooks that run after the scheduler returns.
func (a *App[C]) OnResult(hooks ...ResultHook) {
	a.onResult = append(a.onResult, hooks...)
}

// OnStop registers hooks that run before components are stopped.
func (a *App[C]) OnStop(hooks ...Hook) {
	a.onStop = append(a.onStop, hooks...)
}

func runHooks(ctx context.Context, hooks []Hook) error {
	for i, h := range hooks {
		if err := h(ctx); err != nil {
			return fmt.Errorf("hook %d failed: %w", i, err)
		}
	}
	return nil
}
