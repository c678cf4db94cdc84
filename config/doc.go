// Package config loads engine configuration.
//
// Configuration comes from a YAML file and the environment, in that order
// of precedence from lowest to highest. A .env file is read into the
// environment before binding. Environment variables carry a prefix
// (FLOWKIT by default) followed by the section and key:
//
//	FLOWKIT_SCHEDULER_TYPE=pool
//	FLOWKIT_SCHEDULER_MAX_PARALLEL=8
//	FLOWKIT_EDGE_CAPACITY=16
//	FLOWKIT_PIPELINE=pipelines/demo.yaml
//
// # Usage
//
//	var cfg config.Config
//	if err := config.Load("demo", &cfg); err != nil { ... }
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil { ... }
package config
