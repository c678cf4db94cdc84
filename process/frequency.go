package process

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/kbukum/flowkit/errors"
)

// Frequency is the rate at which a port exchanges datums per step: either k
// datums every step (k/1) or one datum every k steps (1/k). The zero value
// means 1/1.
type Frequency struct {
	num, den uint64
}

// Integer returns the frequency k/1. It panics if k is 0.
func Integer(k uint64) Frequency {
	if k == 0 {
		panic("process: frequency must be positive")
	}
	return Frequency{num: k, den: 1}
}

// Fraction returns the frequency 1/k. It panics if k is 0.
func Fraction(k uint64) Frequency {
	if k == 0 {
		panic("process: frequency must be positive")
	}
	return Frequency{num: 1, den: k}
}

// NewFrequency validates num/den. Only n/1 and 1/n are accepted; a fraction
// that would reduce to one of those forms, such as 2/4, is rejected too.
func NewFrequency(num, den uint64) (Frequency, error) {
	if num == 0 || den == 0 || (num != 1 && den != 1) {
		return Frequency{}, errors.InvalidFrequency(num, den)
	}
	return Frequency{num: num, den: den}, nil
}

// ParseFrequency reads "k", "k/1" or "1/k".
func ParseFrequency(s string) (Frequency, error) {
	s = strings.TrimSpace(s)
	numStr, denStr, found := strings.Cut(s, "/")
	if !found {
		denStr = "1"
	}
	num, err := strconv.ParseUint(strings.TrimSpace(numStr), 10, 64)
	if err != nil {
		return Frequency{}, errors.New(errors.ErrCodeInvalidFrequency, fmt.Sprintf("invalid frequency %q", s)).WithCause(err)
	}
	den, err := strconv.ParseUint(strings.TrimSpace(denStr), 10, 64)
	if err != nil {
		return Frequency{}, errors.New(errors.ErrCodeInvalidFrequency, fmt.Sprintf("invalid frequency %q", s)).WithCause(err)
	}
	return NewFrequency(num, den)
}

func (f Frequency) norm() Frequency {
	if f.den == 0 {
		return Frequency{num: 1, den: 1}
	}
	return f
}

// Num returns the numerator.
func (f Frequency) Num() uint64 { return f.norm().num }

// Den returns the denominator.
func (f Frequency) Den() uint64 { return f.norm().den }

// IsInteger reports whether the frequency is k/1.
func (f Frequency) IsInteger() bool { return f.norm().den == 1 }

// Rat returns the frequency as a rational number.
func (f Frequency) Rat() *big.Rat {
	n := f.norm()
	return new(big.Rat).SetFrac(new(big.Int).SetUint64(n.num), new(big.Int).SetUint64(n.den))
}

// PerStep returns how many datums are exchanged on a step where the port is
// due: k for k/1 and 1 for 1/k.
func (f Frequency) PerStep() int {
	n := f.norm()
	if n.den == 1 {
		return int(n.num)
	}
	return 1
}

// Due reports whether a port with this frequency exchanges datums on the
// given zero-based step. A 1/k port is due on the last step of every group
// of k.
func (f Frequency) Due(step uint64) bool {
	n := f.norm()
	return n.den == 1 || step%n.den == n.den-1
}

// Stamp returns the stamp of the j-th datum pushed on the given step.
func (f Frequency) Stamp(step uint64, j int) uint64 {
	n := f.norm()
	if n.den == 1 {
		return step*n.num + uint64(j)
	}
	return step / n.den
}

// StepOf maps a stamp back to the consumer step that is due to read it.
func (f Frequency) StepOf(stamp uint64) uint64 {
	n := f.norm()
	if n.den == 1 {
		return stamp / n.num
	}
	return stamp*n.den + n.den - 1
}

func (f Frequency) String() string {
	n := f.norm()
	return fmt.Sprintf("%d/%d", n.num, n.den)
}
