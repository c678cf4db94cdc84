// Package version reports which build of flowkit is running. The run
// summary and the telemetry resource carry it.
//
//	go build -ldflags "-X github.com/kbukum/flowkit/version.Version=v1.2.0"
package version
