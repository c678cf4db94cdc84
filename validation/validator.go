package validation

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/kbukum/flowkit/errors"
)

// Validator collects validation errors.
type Validator struct {
	errors []FieldError
}

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f FieldError) String() string { return f.Field + ": " + f.Message }

// New creates a new Validator.
func New() *Validator {
	return &Validator{
		errors: make([]FieldError, 0),
	}
}

// AddError adds a field error.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors.
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Message joins all field errors into one line, or returns "".
func (v *Validator) Message() string {
	messages := make([]string, len(v.errors))
	for i, e := range v.errors {
		messages[i] = e.String()
	}
	return strings.Join(messages, "; ")
}

// Validate returns an INVALID_CONFIG error if there are validation errors,
// nil otherwise.
func (v *Validator) Validate() *errors.Error {
	if !v.HasErrors() {
		return nil
	}
	return errors.InvalidConfig(v.Message()).WithDetail("fields", v.errors)
}

// Required checks if a string is non-empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
	return v
}

// Name checks that a non-empty process or port name carries no dot or
// whitespace, so it can appear in a "process.port" address.
func (v *Validator) Name(field, value string) *Validator {
	if value != "" && strings.ContainsFunc(value, isAddrSeparator) {
		v.AddError(field, "must not contain dots or whitespace")
	}
	return v
}

// Address checks that a non-empty value has the form "process.port".
func (v *Validator) Address(field, value string) *Validator {
	if value == "" {
		return v
	}
	proc, port, ok := strings.Cut(value, ".")
	if !ok || proc == "" || port == "" ||
		strings.ContainsFunc(proc, isAddrSeparator) || strings.ContainsFunc(port, isAddrSeparator) {
		v.AddError(field, "must have the form process.port")
	}
	return v
}

func isAddrSeparator(r rune) bool {
	return r == '.' || unicode.IsSpace(r)
}

// Min checks if a number meets minimum value.
func (v *Validator) Min(field string, value, minVal int) *Validator {
	if value < minVal {
		v.AddError(field, fmt.Sprintf("must be at least %d", minVal))
	}
	return v
}

// Pattern checks if a string matches a regex pattern.
func (v *Validator) Pattern(field, value, pattern string) *Validator {
	if value == "" {
		return v
	}
	matched, err := regexp.MatchString(pattern, value)
	if err != nil || !matched {
		v.AddError(field, "does not match required format")
	}
	return v
}

// OneOf checks if a value is one of the allowed values.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value == "" || slices.Contains(allowed, value) {
		return v
	}
	v.AddError(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
	return v
}

// Unique flags value when seen already holds it, then adds it to seen.
func (v *Validator) Unique(field, value string, seen map[string]bool) *Validator {
	if value == "" {
		return v
	}
	if seen[value] {
		v.AddError(field, fmt.Sprintf("duplicate value %q", value))
	}
	seen[value] = true
	return v
}

// Custom applies a custom validation condition.
func (v *Validator) Custom(condition bool, field, message string) *Validator {
	if !condition {
		v.AddError(field, message)
	}
	return v
}
