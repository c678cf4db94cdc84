// Package processes provides small general-purpose processes: a number
// source, a collecting sink, and processes that pass, duplicate, truncate,
// throttle, add and scale streams. Register adds them under their type
// names; blueprints and tests are usually built from them.
package processes
