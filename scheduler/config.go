package scheduler

import (
	"runtime"

	"github.com/kbukum/flowkit/validation"
)

// Scheduler types.
const (
	TypeSync             = "sync"
	TypePool             = "pool"
	TypeThreadPerProcess = "thread_per_process"
)

// Config selects and tunes a scheduling strategy.
type Config struct {
	// Type is one of sync, pool or thread_per_process.
	Type string `yaml:"type" mapstructure:"type" validate:"oneof=sync pool thread_per_process"`
	// MaxParallel bounds the workers of the pool scheduler.
	MaxParallel int `yaml:"max_parallel" mapstructure:"max_parallel" validate:"gte=0"`
}

// ApplyDefaults applies default values.
func (c *Config) ApplyDefaults() {
	if c.Type == "" {
		c.Type = TypeSync
	}
	if c.MaxParallel == 0 {
		c.MaxParallel = runtime.GOMAXPROCS(0)
	}
}

// Validate validates the scheduler configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
