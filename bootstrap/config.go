package bootstrap

import (
	"github.com/kbukum/flowkit/config"
)

// Config is the constraint for application configuration types. Any struct
// embedding config.Config satisfies it through promoted methods.
//
//	type MyConfig struct {
//	    config.Config `yaml:",inline" mapstructure:",squash"`
//	    Camera string `yaml:"camera" mapstructure:"camera"`
//	}
//
//	app, err := bootstrap.NewApp[*MyConfig](&cfg)
type Config interface {
	GetConfig() *config.Config
	ApplyDefaults()
	Validate() error
}
