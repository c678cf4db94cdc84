// Package errors provides the coded error taxonomy of the engine.
// Every failure carries a machine-readable code, a category (construction,
// negotiation, lifecycle, runtime, step, scheduler, config) and details
// naming the ports, processes or cycle members involved.
package errors
