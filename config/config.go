package config

import (
	"github.com/kbukum/flowkit/edge"
	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/scheduler"
	"github.com/kbukum/flowkit/validation"
)

// Environments accepted in Config.Environment.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Config is the configuration of one engine run.
//
// Projects can extend it by embedding:
//
//	type MyConfig struct {
//	    config.Config `yaml:",inline" mapstructure:",squash"`
//	    Camera string `yaml:"camera" mapstructure:"camera"`
//	}
type Config struct {
	Name        string `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`

	// Pipeline is the path of the blueprint to run.
	Pipeline string `yaml:"pipeline" mapstructure:"pipeline"`
	// BlueprintDirs are searched for includes after the blueprint's own
	// directory.
	BlueprintDirs []string `yaml:"blueprint_dirs" mapstructure:"blueprint_dirs"`

	Logging       logger.Config        `yaml:"logging" mapstructure:"logging"`
	Scheduler     scheduler.Config     `yaml:"scheduler" mapstructure:"scheduler"`
	Edge          edge.Config          `yaml:"edge" mapstructure:"edge"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// GetConfig returns the base Config. When Config is embedded, the method
// is promoted so the embedding struct satisfies bootstrap's Config
// interface.
func (c *Config) GetConfig() *Config { return c }

// ApplyDefaults fills zero values of every section.
func (c *Config) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = EnvDevelopment
	}
	c.Logging.ApplyDefaults()
	c.Scheduler.ApplyDefaults()
	c.Edge.ApplyDefaults()

	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = c.Name
	}
	if c.Observability.Environment == "" {
		c.Observability.Environment = c.Environment
	}
	c.Observability.ApplyDefaults()
}

// Validate checks every section. Struct tags are checked first, then the
// logging section's own rules.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return errors.InvalidConfig(err.Error()).WithCause(err)
	}
	return nil
}

// IsProduction reports whether the configuration targets production.
func (c *Config) IsProduction() bool { return c.Environment == EnvProduction }
