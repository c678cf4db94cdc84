package bootstrap

import (
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/flowkit/loader"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/process"
)

// Option configures the App during creation.
// Options are non-generic so they can be used with any config type.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	registry        *process.Registry
	blueprint       *loader.Blueprint
	runID           uuid.UUID
	summary         io.Writer
	gracefulTimeout *time.Duration
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger for the application.
// If not set, the logger is initialized from the config's Logging section.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) { o.logger = l }
}

// WithRegistry sets the process types available to blueprints. The
// default holds the processes package.
func WithRegistry(r *process.Registry) Option {
	return func(o *appOptions) { o.registry = r }
}

// WithBlueprint runs bp instead of loading Config.Pipeline. Includes of bp
// are resolved against Config.BlueprintDirs.
func WithBlueprint(bp *loader.Blueprint) Option {
	return func(o *appOptions) { o.blueprint = bp }
}

// WithRunID fixes the run ID reported by the scheduler.
func WithRunID(id uuid.UUID) Option {
	return func(o *appOptions) { o.runID = id }
}

// WithGracefulTimeout sets the maximum duration for stopping components.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) { o.gracefulTimeout = &d }
}

// WithSummaryWriter sets where the run summary is written. The default is
// os.Stdout; io.Discard silences it.
func WithSummaryWriter(w io.Writer) Option {
	return func(o *appOptions) { o.summary = w }
}
