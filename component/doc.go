// Package component manages the lifecycle of the parts an engine run
// depends on, such as telemetry exporters and the pipeline itself.
//
// Components start in registration order and stop in reverse order. Only
// components that started are stopped. Component health uses the
// observability health model, so Registry.RunHealth rolls it up the same
// way the scheduler rolls up process health.
package component
