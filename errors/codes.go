package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Category groups error codes by the phase in which they occur.
type Category string

const (
	// CategoryConstruction covers bad declarations while a graph is built.
	CategoryConstruction Category = "construction"
	// CategoryNegotiation covers type, frequency and ordering failures during setup.
	CategoryNegotiation Category = "negotiation"
	// CategoryLifecycle covers calls made out of lifecycle order.
	CategoryLifecycle Category = "lifecycle"
	// CategoryRuntime covers data access failures while stepping.
	CategoryRuntime Category = "runtime"
	// CategoryStep covers failures signaled by a process from its step.
	CategoryStep Category = "step"
	// CategoryScheduler covers scheduler misuse and stalls.
	CategoryScheduler Category = "scheduler"
	// CategoryConfig covers invalid engine configuration or descriptions.
	CategoryConfig Category = "config"
)

// Construction errors
const (
	ErrCodeInvalidDeclaration ErrorCode = "INVALID_DECLARATION"
	ErrCodeInvalidFrequency   ErrorCode = "INVALID_FREQUENCY"
	ErrCodeDuplicateProcess   ErrorCode = "DUPLICATE_PROCESS"
	ErrCodeNoSuchProcess      ErrorCode = "NO_SUCH_PROCESS"
	ErrCodeNoSuchConfigKey    ErrorCode = "NO_SUCH_CONFIG_KEY"
	ErrCodeUnknownProcessType ErrorCode = "UNKNOWN_PROCESS_TYPE"
)

// Negotiation errors
const (
	ErrCodeNoSuchPort             ErrorCode = "NO_SUCH_PORT"
	ErrCodePortReconnect          ErrorCode = "PORT_RECONNECT"
	ErrCodeUnresolvedType         ErrorCode = "UNRESOLVED_TYPE"
	ErrCodeFrequencyMismatch      ErrorCode = "FREQUENCY_MISMATCH"
	ErrCodePipelineCycle          ErrorCode = "PIPELINE_CYCLE"
	ErrCodeMissingConnection      ErrorCode = "MISSING_CONNECTION"
	ErrCodeConnectionTypeMismatch ErrorCode = "CONNECTION_TYPE_MISMATCH"
	ErrCodeConnectionFlagMismatch ErrorCode = "CONNECTION_FLAG_MISMATCH"
	ErrCodeConnectionDeclined     ErrorCode = "CONNECTION_DECLINED"
	ErrCodePipelineSetup          ErrorCode = "PIPELINE_SETUP"
)

// Lifecycle errors
const (
	ErrCodeUnconfigured                ErrorCode = "UNCONFIGURED"
	ErrCodeUninitialized               ErrorCode = "UNINITIALIZED"
	ErrCodeReinitialized               ErrorCode = "REINITIALIZED"
	ErrCodeReconfigured                ErrorCode = "RECONFIGURED"
	ErrCodeConnectToInitializedProcess ErrorCode = "CONNECT_TO_INITIALIZED_PROCESS"
	ErrCodeSetTypeOnInitializedProcess ErrorCode = "SET_TYPE_ON_INITIALIZED_PROCESS"
	ErrCodeSetFrequencyOnInitialized   ErrorCode = "SET_FREQUENCY_ON_INITIALIZED_PROCESS"
	ErrCodeStaticTypeReset             ErrorCode = "STATIC_TYPE_RESET"
	ErrCodeNotSetup                    ErrorCode = "NOT_SETUP"
	ErrCodeNonTunableReconfigure       ErrorCode = "NON_TUNABLE_RECONFIGURE"
	ErrCodeModifiedAfterSetup          ErrorCode = "MODIFIED_AFTER_SETUP"
)

// Runtime errors
const (
	ErrCodeNoData       ErrorCode = "NO_DATA"
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"
	ErrCodePortComplete ErrorCode = "PORT_COMPLETE"
)

// Step and scheduler errors
const (
	ErrCodeStepFailed           ErrorCode = "STEP_FAILED"
	ErrCodeIncompatiblePipeline ErrorCode = "INCOMPATIBLE_PIPELINE"
	ErrCodeSchedulerStalled     ErrorCode = "SCHEDULER_STALLED"
	ErrCodeSchedulerRunning     ErrorCode = "SCHEDULER_RUNNING"
)

// Configuration errors
const (
	ErrCodeInvalidConfig      ErrorCode = "INVALID_CONFIG"
	ErrCodeInvalidDescription ErrorCode = "INVALID_DESCRIPTION"
)

var categories = map[ErrorCode]Category{
	ErrCodeInvalidDeclaration: CategoryConstruction,
	ErrCodeInvalidFrequency:   CategoryConstruction,
	ErrCodeDuplicateProcess:   CategoryConstruction,
	ErrCodeNoSuchProcess:      CategoryConstruction,
	ErrCodeNoSuchConfigKey:    CategoryConstruction,
	ErrCodeUnknownProcessType: CategoryConstruction,

	ErrCodeNoSuchPort:             CategoryNegotiation,
	ErrCodePortReconnect:          CategoryNegotiation,
	ErrCodeUnresolvedType:         CategoryNegotiation,
	ErrCodeFrequencyMismatch:      CategoryNegotiation,
	ErrCodePipelineCycle:          CategoryNegotiation,
	ErrCodeMissingConnection:      CategoryNegotiation,
	ErrCodeConnectionTypeMismatch: CategoryNegotiation,
	ErrCodeConnectionFlagMismatch: CategoryNegotiation,
	ErrCodeConnectionDeclined:     CategoryNegotiation,
	ErrCodePipelineSetup:          CategoryNegotiation,

	ErrCodeUnconfigured:                CategoryLifecycle,
	ErrCodeUninitialized:               CategoryLifecycle,
	ErrCodeReinitialized:               CategoryLifecycle,
	ErrCodeReconfigured:                CategoryLifecycle,
	ErrCodeConnectToInitializedProcess: CategoryLifecycle,
	ErrCodeSetTypeOnInitializedProcess: CategoryLifecycle,
	ErrCodeSetFrequencyOnInitialized:   CategoryLifecycle,
	ErrCodeStaticTypeReset:             CategoryLifecycle,
	ErrCodeNotSetup:                    CategoryLifecycle,
	ErrCodeNonTunableReconfigure:       CategoryLifecycle,
	ErrCodeModifiedAfterSetup:          CategoryLifecycle,

	ErrCodeNoData:       CategoryRuntime,
	ErrCodeTypeMismatch: CategoryRuntime,
	ErrCodePortComplete: CategoryRuntime,

	ErrCodeStepFailed:           CategoryStep,
	ErrCodeIncompatiblePipeline: CategoryScheduler,
	ErrCodeSchedulerStalled:     CategoryScheduler,
	ErrCodeSchedulerRunning:     CategoryScheduler,

	ErrCodeInvalidConfig:      CategoryConfig,
	ErrCodeInvalidDescription: CategoryConfig,
}

// CategoryOfCode returns the category an error code belongs to.
func CategoryOfCode(code ErrorCode) Category {
	if c, ok := categories[code]; ok {
		return c
	}
	return CategoryRuntime
}
