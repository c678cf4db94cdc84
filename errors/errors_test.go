package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_New_DerivesCategory(t *testing.T) {
	err := New(ErrCodePipelineCycle, "cycle")
	if err.Category != CategoryNegotiation {
		t.Errorf("expected category %s, got %s", CategoryNegotiation, err.Category)
	}
	if err.Message != "cycle" {
		t.Errorf("expected message 'cycle', got %q", err.Message)
	}
}

func TestError_UnknownCodeDefaultsToRuntime(t *testing.T) {
	if got := CategoryOfCode("SOMETHING_ELSE"); got != CategoryRuntime {
		t.Errorf("expected runtime, got %s", got)
	}
}

func TestError_NoSuchPort_Details(t *testing.T) {
	err := NoSuchPort("reader", "image")
	if err.Code != ErrCodeNoSuchPort {
		t.Errorf("expected NO_SUCH_PORT, got %s", err.Code)
	}
	if err.Details["process"] != "reader" {
		t.Errorf("expected process=reader, got %v", err.Details["process"])
	}
	if err.Details["port"] != "image" {
		t.Errorf("expected port=image, got %v", err.Details["port"])
	}
	if !strings.Contains(err.Error(), "reader.image") {
		t.Errorf("expected message to name the port address, got %q", err.Error())
	}
}

func TestError_PipelineCycle_NamesMembers(t *testing.T) {
	err := PipelineCycle([]string{"a", "b", "c"})
	members, ok := err.Details["cycle"].([]string)
	if !ok || len(members) != 3 {
		t.Fatalf("expected 3 cycle members, got %v", err.Details["cycle"])
	}
	if !strings.Contains(err.Message, "a, b, c") {
		t.Errorf("expected members in message, got %q", err.Message)
	}
}

func TestError_StepFailed_WrapsCause(t *testing.T) {
	cause := fmt.Errorf("decoder exploded")
	err := StepFailed("decode", "video_input", cause)
	if err.Category != CategoryStep {
		t.Errorf("expected step category, got %s", err.Category)
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if !strings.Contains(err.Error(), "decoder exploded") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
}

func TestError_Is_ComparesCodes(t *testing.T) {
	wrapped := fmt.Errorf("setup: %w", Reinitialized("p"))

	if !HasCode(wrapped, ErrCodeReinitialized) {
		t.Error("expected HasCode to find REINITIALIZED")
	}
	if HasCode(wrapped, ErrCodeReconfigured) {
		t.Error("did not expect RECONFIGURED")
	}
	if !stderrors.Is(wrapped, Sentinel(ErrCodeReinitialized)) {
		t.Error("expected errors.Is against a sentinel to match")
	}
}

func TestError_CodeOfAndCategoryOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Unconfigured("p"))
	if CodeOf(wrapped) != ErrCodeUnconfigured {
		t.Errorf("expected UNCONFIGURED, got %q", CodeOf(wrapped))
	}
	if CategoryOf(wrapped) != CategoryLifecycle {
		t.Errorf("expected lifecycle, got %q", CategoryOf(wrapped))
	}
	if CodeOf(fmt.Errorf("plain")) != "" {
		t.Error("expected empty code for a plain error")
	}
}

func TestError_WithDetails(t *testing.T) {
	err := New(ErrCodeNoData, "empty").
		WithDetail("edge", "a.out -> b.in").
		WithDetails(map[string]any{"index": 3})
	if err.Details["edge"] != "a.out -> b.in" {
		t.Errorf("unexpected edge detail %v", err.Details["edge"])
	}
	if err.Details["index"] != 3 {
		t.Errorf("unexpected index detail %v", err.Details["index"])
	}
}

func TestError_Constructors_Codes(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		code ErrorCode
		cat  Category
	}{
		{"invalid frequency", InvalidFrequency(2, 4), ErrCodeInvalidFrequency, CategoryConstruction},
		{"duplicate process", DuplicateProcess("p"), ErrCodeDuplicateProcess, CategoryConstruction},
		{"port reconnect", PortReconnect("p", "in"), ErrCodePortReconnect, CategoryNegotiation},
		{"unresolved type", UnresolvedType([]string{"p.in"}), ErrCodeUnresolvedType, CategoryNegotiation},
		{"frequency mismatch", FrequencyMismatch("a.out", "b.in", "ratio 2/3"), ErrCodeFrequencyMismatch, CategoryNegotiation},
		{"static type reset", StaticTypeReset("p", "in", "int", "string"), ErrCodeStaticTypeReset, CategoryLifecycle},
		{"connect to initialized", ConnectToInitializedProcess("p", "in"), ErrCodeConnectToInitializedProcess, CategoryLifecycle},
		{"type mismatch", TypeMismatch("int", "string"), ErrCodeTypeMismatch, CategoryRuntime},
		{"stalled", SchedulerStalled([]string{"sink"}), ErrCodeSchedulerStalled, CategoryScheduler},
		{"invalid description", InvalidDescription("p.yaml", "bad"), ErrCodeInvalidDescription, CategoryConfig},
		{"modified after setup", ModifiedAfterSetup("connect"), ErrCodeModifiedAfterSetup, CategoryLifecycle},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.Category != tc.cat {
				t.Errorf("expected category %s, got %s", tc.cat, tc.err.Category)
			}
		})
	}
}
