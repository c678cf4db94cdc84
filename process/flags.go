package process

import "strings"

// PortFlag is a set of port flags.
type PortFlag uint16

const (
	// FlagRequired ports must be connected and take part in data checks.
	FlagRequired PortFlag = 1 << iota
	// FlagOutputConst promises downstream readers never mutate the data.
	FlagOutputConst
	// FlagOutputShared delivers every datum to all readers of one edge.
	FlagOutputShared
	// FlagInputStatic allows the input to be fed from the "static/<port>"
	// configuration key when it is not connected.
	FlagInputStatic
	// FlagInputMutable declares that the process modifies the data it reads.
	FlagInputMutable
	// FlagInputNoDep excludes the connection from ordering and cycle checks.
	FlagInputNoDep
)

var flagNames = []struct {
	flag PortFlag
	name string
}{
	{FlagRequired, "required"},
	{FlagOutputConst, "const"},
	{FlagOutputShared, "shared"},
	{FlagInputStatic, "static"},
	{FlagInputMutable, "mutable"},
	{FlagInputNoDep, "nodep"},
}

const (
	inputOnlyFlags  = FlagInputStatic | FlagInputMutable | FlagInputNoDep
	outputOnlyFlags = FlagOutputConst | FlagOutputShared
)

// Has reports whether all bits of x are set.
func (f PortFlag) Has(x PortFlag) bool { return f&x == x }

func (f PortFlag) String() string {
	var parts []string
	for _, n := range flagNames {
		if f.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseFlags reads flag names such as "required" or "nodep".
func ParseFlags(names ...string) (PortFlag, bool) {
	var f PortFlag
	for _, name := range names {
		found := false
		for _, n := range flagNames {
			if n.name == name {
				f |= n.flag
				found = true
				break
			}
		}
		if !found {
			return 0, false
		}
	}
	return f, true
}

// Property is a set of concurrency properties a process declares to the
// scheduler.
type Property uint8

const (
	// PropertyNoThreads requires the process to be stepped from the
	// scheduler's own goroutine.
	PropertyNoThreads Property = 1 << iota
	// PropertyNoReentrancy forbids overlapping steps of the process.
	PropertyNoReentrancy
	// PropertyUnsyncInput disables synchronisation checks on inputs.
	PropertyUnsyncInput
	// PropertyUnsyncOutput makes the process emit unstamped packets.
	PropertyUnsyncOutput
)

// Has reports whether all bits of x are set.
func (p Property) Has(x Property) bool { return p&x == x }

func (p Property) String() string {
	names := []struct {
		prop Property
		name string
	}{
		{PropertyNoThreads, "no-threads"},
		{PropertyNoReentrancy, "no-reentrancy"},
		{PropertyUnsyncInput, "unsync-input"},
		{PropertyUnsyncOutput, "unsync-output"},
	}
	var parts []string
	for _, n := range names {
		if p.Has(n.prop) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}
