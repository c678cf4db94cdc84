// Package bootstrap runs one pipeline from configuration to result.
//
// An App applies defaults to and validates the configuration, initializes
// logging, and registers two components: telemetry (OTLP exporters when
// enabled) and the pipeline (blueprint load, build and setup). Run starts
// the components, runs the configured scheduler until the pipeline
// completes or a SIGINT/SIGTERM stops it, prints a summary and stops the
// components in reverse order.
//
// # Quick Start
//
//	var cfg config.Config
//	if err := config.Load("demo", &cfg); err != nil {
//	    log.Fatal(err)
//	}
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := app.Run(context.Background())
//
// Custom process types are added with WithRegistry; a blueprint built in
// code is passed with WithBlueprint instead of Config.Pipeline.
package bootstrap
