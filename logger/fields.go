package logger

import (
	"time"
)

// Field keys shared by the engine's structured log lines.
const (
	FieldComponent   = "component"
	FieldProcess     = "process"
	FieldProcessType = "process_type"
	FieldPort        = "port"
	FieldEdge        = "edge"
	FieldScheduler   = "scheduler"
	FieldRunID       = "run_id"
	FieldStep        = "step"
	FieldStatus      = "status"
	FieldPhase       = "phase"
	FieldError       = "error"
	FieldDuration    = "duration_ms"
)

// Fields builds a map from alternating key-value pairs. Non-string keys and
// a trailing key without a value are skipped.
//
//	logger.Info("stepped", logger.Fields("process", "decode", "step", 3))
func Fields(kvs ...any) map[string]any {
	m := make(map[string]any, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ProcessFields identifies a process in a log line.
func ProcessFields(name, typ string) map[string]any {
	return map[string]any{
		FieldProcess:     name,
		FieldProcessType: typ,
	}
}

// ErrorFields creates fields for a phase that failed.
func ErrorFields(phase string, err error) map[string]any {
	return map[string]any{
		FieldPhase: phase,
		FieldError: err.Error(),
	}
}

// DurationFields creates fields for a timed phase.
func DurationFields(phase string, d time.Duration) map[string]any {
	return map[string]any{
		FieldPhase:    phase,
		FieldDuration: d.Milliseconds(),
	}
}

// MergeWithError adds an error field to an existing map.
func MergeWithError(fields map[string]any, err error) map[string]any {
	if fields == nil {
		fields = make(map[string]any)
	}
	fields[FieldError] = err.Error()
	return fields
}

// MergeWithDuration adds a duration field to an existing map.
func MergeWithDuration(fields map[string]any, d time.Duration) map[string]any {
	if fields == nil {
		fields = make(map[string]any)
	}
	fields[FieldDuration] = d.Milliseconds()
	return fields
}
