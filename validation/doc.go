// Package validation checks engine configuration and graph descriptions.
//
// It supports struct tag validation (using the validator library) for
// configuration structs and programmatic validation with error collection
// for descriptions assembled by hand. Both report *errors.Error values with
// code INVALID_CONFIG and a "fields" detail listing every violation.
//
// # Struct Tag Validation
//
//	type Config struct {
//	    Type        string `mapstructure:"type" validate:"oneof=sync pool thread_per_process"`
//	    MaxParallel int    `mapstructure:"max_parallel" validate:"gte=0"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("processes[0].name", name).Name("processes[0].name", name)
//	v.Address("connections[0].from", from)
//	if err := v.Validate(); err != nil { ... }
package validation
