package datum

import (
	"fmt"

	"github.com/kbukum/flowkit/errors"
)

// Type is the status tag of a datum. Higher values take priority when the
// statuses of several inputs are combined.
type Type uint8

const (
	// TypeData carries a valid payload.
	TypeData Type = iota
	// TypeEmpty marks a step that produced nothing.
	TypeEmpty
	// TypeError marks a step whose result is unusable.
	TypeError
	// TypeFlush asks downstream processes to flush buffered state.
	TypeFlush
	// TypeComplete marks the end of the stream.
	TypeComplete
)

var typeNames = [...]string{
	TypeData:     "data",
	TypeEmpty:    "empty",
	TypeError:    "error",
	TypeFlush:    "flush",
	TypeComplete: "complete",
}

// String returns the lower-case name of the status.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// Max returns the higher priority status.
func Max(a, b Type) Type {
	if a > b {
		return a
	}
	return b
}

// Datum is one status-tagged value. The zero value is a data datum with a
// nil payload.
type Datum struct {
	typ   Type
	value any
	msg   string
}

// New wraps v as a data datum.
func New(v any) Datum {
	return Datum{typ: TypeData, value: v}
}

// Empty returns an empty control datum.
func Empty() Datum {
	return Datum{typ: TypeEmpty}
}

// Error returns an error control datum carrying msg.
func Error(msg string) Datum {
	return Datum{typ: TypeError, msg: msg}
}

// Flush returns a flush control datum.
func Flush() Datum {
	return Datum{typ: TypeFlush}
}

// Complete returns a complete control datum.
func Complete() Datum {
	return Datum{typ: TypeComplete}
}

// OfType returns a payload-less datum of the given status. For TypeData the
// payload is nil.
func OfType(t Type) Datum {
	return Datum{typ: t}
}

// Type returns the status tag.
func (d Datum) Type() Type { return d.typ }

// Value returns the payload. Control datums return nil.
func (d Datum) Value() any { return d.value }

// ErrorMessage returns the message of an error datum.
func (d Datum) ErrorMessage() string { return d.msg }

// IsControl reports whether the datum carries a status other than data.
func (d Datum) IsControl() bool { return d.typ != TypeData }

// IsComplete reports whether the datum marks the end of the stream.
func (d Datum) IsComplete() bool { return d.typ == TypeComplete }

func (d Datum) String() string {
	switch d.typ {
	case TypeData:
		return fmt.Sprintf("data(%v)", d.value)
	case TypeError:
		if d.msg != "" {
			return fmt.Sprintf("error(%s)", d.msg)
		}
	}
	return d.typ.String()
}

// As extracts the payload of d as a T.
// Control datums fail with NO_DATA and a payload of another type fails with
// TYPE_MISMATCH.
func As[T any](d Datum) (T, error) {
	var zero T
	if d.IsControl() {
		return zero, errors.New(errors.ErrCodeNoData, fmt.Sprintf("datum is %s, not data", d.typ)).
			WithDetail("status", d.typ.String())
	}
	v, ok := d.value.(T)
	if !ok {
		return zero, errors.TypeMismatch(fmt.Sprintf("%T", zero), fmt.Sprintf("%T", d.value))
	}
	return v, nil
}
