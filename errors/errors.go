package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Error is the unified engine error type.
type Error struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Category is the phase the error belongs to.
	Category Category `json:"category"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains the ports, processes or cycle members involved.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *Error) WithDetails(details map[string]any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new Error, deriving the category from the code.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:     code,
		Category: CategoryOfCode(code),
		Message:  message,
	}
}

// Sentinel returns a detail-free error usable as an errors.Is target.
func Sentinel(code ErrorCode) *Error {
	return &Error{Code: code, Category: CategoryOfCode(code)}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HasCode reports whether any error in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	return stderrors.Is(err, Sentinel(code))
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.Code
	}
	return ""
}

// CategoryOf returns the category of the first *Error in err's chain, or "".
func CategoryOf(err error) Category {
	if e, ok := As(err); ok {
		return e.Category
	}
	return ""
}

func addr(process, port string) string {
	return process + "." + port
}

// --- Construction ---

// InvalidDeclaration creates an error for a malformed port or config declaration.
func InvalidDeclaration(process, what, reason string) *Error {
	return New(ErrCodeInvalidDeclaration, fmt.Sprintf("process %q: invalid declaration of %s: %s", process, what, reason)).
		WithDetails(map[string]any{"process": process, "declaration": what})
}

// InvalidFrequency creates an error for a frequency not of the form n/1 or 1/n.
func InvalidFrequency(num, den uint64) *Error {
	return New(ErrCodeInvalidFrequency, fmt.Sprintf("frequency %d/%d must be written as n/1 or 1/n with n > 0", num, den)).
		WithDetails(map[string]any{"numerator": num, "denominator": den})
}

// DuplicateProcess creates an error for a process name already in the pipeline.
func DuplicateProcess(name string) *Error {
	return New(ErrCodeDuplicateProcess, fmt.Sprintf("a process named %q already exists", name)).
		WithDetail("process", name)
}

// NoSuchProcess creates an error for an unknown process name.
func NoSuchProcess(name string) *Error {
	return New(ErrCodeNoSuchProcess, fmt.Sprintf("no process named %q", name)).
		WithDetail("process", name)
}

// NoSuchConfigKey creates an error for a configuration key the process never declared.
func NoSuchConfigKey(process, key string) *Error {
	return New(ErrCodeNoSuchConfigKey, fmt.Sprintf("process %q has no configuration key %q", process, key)).
		WithDetails(map[string]any{"process": process, "key": key})
}

// UnknownProcessType creates an error for a type with no registered factory.
func UnknownProcessType(typ string) *Error {
	return New(ErrCodeUnknownProcessType, fmt.Sprintf("no factory registered for process type %q", typ)).
		WithDetail("type", typ)
}

// --- Negotiation ---

// NoSuchPort creates an error for an undeclared port.
func NoSuchPort(process, port string) *Error {
	return New(ErrCodeNoSuchPort, fmt.Sprintf("port %s does not exist", addr(process, port))).
		WithDetails(map[string]any{"process": process, "port": port})
}

// PortReconnect creates an error for an input port that already has a connection.
func PortReconnect(process, port string) *Error {
	return New(ErrCodePortReconnect, fmt.Sprintf("input port %s is already connected", addr(process, port))).
		WithDetails(map[string]any{"process": process, "port": port})
}

// UnresolvedType creates an error naming the ports whose type could not be resolved.
func UnresolvedType(ports []string) *Error {
	return New(ErrCodeUnresolvedType, fmt.Sprintf("unable to resolve a concrete type for ports [%s]", strings.Join(ports, ", "))).
		WithDetail("ports", ports)
}

// FrequencyMismatch creates an error for two connected ports whose rates cannot be reconciled.
func FrequencyMismatch(upstream, downstream, reason string) *Error {
	return New(ErrCodeFrequencyMismatch, fmt.Sprintf("frequencies of %s -> %s cannot be reconciled: %s", upstream, downstream, reason)).
		WithDetails(map[string]any{"upstream": upstream, "downstream": downstream})
}

// PipelineCycle creates an error naming every process that takes part in a cycle.
func PipelineCycle(members []string) *Error {
	return New(ErrCodePipelineCycle, fmt.Sprintf("the pipeline contains a cycle through [%s]", strings.Join(members, ", "))).
		WithDetail("cycle", members)
}

// MissingConnection creates an error for a required port left unconnected.
func MissingConnection(process, port string) *Error {
	return New(ErrCodeMissingConnection, fmt.Sprintf("required port %s is not connected", addr(process, port))).
		WithDetails(map[string]any{"process": process, "port": port})
}

// ConnectionTypeMismatch creates an error for two ports with incompatible concrete types.
func ConnectionTypeMismatch(upstream, upType, downstream, downType string) *Error {
	return New(ErrCodeConnectionTypeMismatch, fmt.Sprintf("cannot connect %s (%s) to %s (%s)", upstream, upType, downstream, downType)).
		WithDetails(map[string]any{"upstream": upstream, "upstream_type": upType, "downstream": downstream, "downstream_type": downType})
}

// ConnectionFlagMismatch creates an error for incompatible port flags on a connection.
func ConnectionFlagMismatch(upstream, downstream, reason string) *Error {
	return New(ErrCodeConnectionFlagMismatch, fmt.Sprintf("cannot connect %s to %s: %s", upstream, downstream, reason)).
		WithDetails(map[string]any{"upstream": upstream, "downstream": downstream})
}

// ConnectionDeclined creates an error for a process refusing a negotiated port type.
func ConnectionDeclined(process, port, typ string) *Error {
	return New(ErrCodeConnectionDeclined, fmt.Sprintf("process %q declined type %q on port %q", process, typ, port)).
		WithDetails(map[string]any{"process": process, "port": port, "type": typ})
}

// PipelineSetup creates an error for a generic setup failure wrapping a cause.
func PipelineSetup(phase string, cause error) *Error {
	return New(ErrCodePipelineSetup, fmt.Sprintf("pipeline setup failed during %s", phase)).
		WithDetail("phase", phase).WithCause(cause)
}

// --- Lifecycle ---

// Unconfigured creates an error for an operation that needs Configure first.
func Unconfigured(process string) *Error {
	return New(ErrCodeUnconfigured, fmt.Sprintf("process %q has not been configured", process)).
		WithDetail("process", process)
}

// Uninitialized creates an error for an operation that needs Init first.
func Uninitialized(process string) *Error {
	return New(ErrCodeUninitialized, fmt.Sprintf("process %q has not been initialized", process)).
		WithDetail("process", process)
}

// Reinitialized creates an error for a second Init call.
func Reinitialized(process string) *Error {
	return New(ErrCodeReinitialized, fmt.Sprintf("process %q was initialized twice", process)).
		WithDetail("process", process)
}

// Reconfigured creates an error for a second Configure call.
func Reconfigured(process string) *Error {
	return New(ErrCodeReconfigured, fmt.Sprintf("process %q was configured twice", process)).
		WithDetail("process", process)
}

// ConnectToInitializedProcess creates an error for attaching an edge after Init.
func ConnectToInitializedProcess(process, port string) *Error {
	return New(ErrCodeConnectToInitializedProcess, fmt.Sprintf("cannot connect port %s after initialization", addr(process, port))).
		WithDetails(map[string]any{"process": process, "port": port})
}

// SetTypeOnInitializedProcess creates an error for a type change after Init.
func SetTypeOnInitializedProcess(process, port string) *Error {
	return New(ErrCodeSetTypeOnInitializedProcess, fmt.Sprintf("cannot set the type of %s after initialization", addr(process, port))).
		WithDetails(map[string]any{"process": process, "port": port})
}

// SetFrequencyOnInitializedProcess creates an error for a frequency change after Init.
func SetFrequencyOnInitializedProcess(process, port string) *Error {
	return New(ErrCodeSetFrequencyOnInitialized, fmt.Sprintf("cannot set the frequency of %s after initialization", addr(process, port))).
		WithDetails(map[string]any{"process": process, "port": port})
}

// StaticTypeReset creates an error for re-typing a port whose type is already fixed.
func StaticTypeReset(process, port, current, requested string) *Error {
	return New(ErrCodeStaticTypeReset, fmt.Sprintf("port %s already has type %q, cannot set %q", addr(process, port), current, requested)).
		WithDetails(map[string]any{"process": process, "port": port, "type": current, "requested": requested})
}

// NotSetup creates an error for running a pipeline that was not set up.
func NotSetup() *Error {
	return New(ErrCodeNotSetup, "the pipeline has not been set up")
}

// ModifiedAfterSetup creates an error for changing the graph of a pipeline
// that is already set up.
func ModifiedAfterSetup(op string) *Error {
	return New(ErrCodeModifiedAfterSetup, fmt.Sprintf("cannot %s: the pipeline is already set up", op)).
		WithDetail("operation", op)
}

// NonTunableReconfigure creates an error for changing a non-tunable key at runtime.
func NonTunableReconfigure(process, key string) *Error {
	return New(ErrCodeNonTunableReconfigure, fmt.Sprintf("configuration key %q of process %q is not tunable", key, process)).
		WithDetails(map[string]any{"process": process, "key": key})
}

// --- Runtime ---

// NoData creates an error for reading past the data available on an edge.
func NoData(index int, available int) *Error {
	return New(ErrCodeNoData, fmt.Sprintf("no datum at index %d (%d available)", index, available)).
		WithDetails(map[string]any{"index": index, "available": available})
}

// TypeMismatch creates an error for reading a datum as the wrong Go type.
func TypeMismatch(expected, actual string) *Error {
	return New(ErrCodeTypeMismatch, fmt.Sprintf("expected %s, got %s", expected, actual)).
		WithDetails(map[string]any{"expected": expected, "actual": actual})
}

// PortComplete creates an error for pushing on an output port that already carried complete.
func PortComplete(process, port string) *Error {
	return New(ErrCodePortComplete, fmt.Sprintf("output port %s already emitted complete", addr(process, port))).
		WithDetails(map[string]any{"process": process, "port": port})
}

// --- Step / scheduler ---

// StepFailed wraps a failure signaled by a process during step.
func StepFailed(process, typ string, cause error) *Error {
	return New(ErrCodeStepFailed, fmt.Sprintf("process %q (type %q) failed during step", process, typ)).
		WithDetails(map[string]any{"process": process, "type": typ}).WithCause(cause)
}

// IncompatiblePipeline creates an error for a pipeline a scheduler cannot run.
func IncompatiblePipeline(scheduler, reason string) *Error {
	return New(ErrCodeIncompatiblePipeline, fmt.Sprintf("scheduler %q cannot run this pipeline: %s", scheduler, reason)).
		WithDetail("scheduler", scheduler)
}

// SchedulerStalled creates an error for a run in which no process can make progress.
func SchedulerStalled(waiting []string) *Error {
	return New(ErrCodeSchedulerStalled, fmt.Sprintf("no process can make progress; waiting: [%s]", strings.Join(waiting, ", "))).
		WithDetail("waiting", waiting)
}

// SchedulerRunning creates an error for starting a scheduler twice.
func SchedulerRunning() *Error {
	return New(ErrCodeSchedulerRunning, "the scheduler is already running")
}

// --- Config ---

// InvalidConfig creates an error for configuration that failed validation.
func InvalidConfig(message string) *Error {
	return New(ErrCodeInvalidConfig, message)
}

// InvalidDescription creates an error for a malformed pipeline description.
func InvalidDescription(source, reason string) *Error {
	return New(ErrCodeInvalidDescription, fmt.Sprintf("%s: %s", source, reason)).
		WithDetail("source", source)
}
