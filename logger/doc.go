// Package logger provides structured logging for the engine using zerolog.
//
// Pipelines, schedulers and loaders log through component-scoped loggers
// obtained with Get. Field keys such as process, port and run_id are shared
// constants so log lines from different components can be correlated.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//	  components:
//	    scheduler: "debug"
//
// # Usage
//
//	log := logger.Get("scheduler")
//	log.Info("run started", logger.Fields(logger.FieldRunID, id))
package logger
