package loader

import (
	"fmt"
	"strings"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/validation"
)

// Blueprint is a parsed pipeline description.
type Blueprint struct {
	Name        string          `yaml:"name"`
	Includes    []string        `yaml:"includes"`
	Processes   []ProcessDef    `yaml:"processes"`
	Connections []ConnectionDef `yaml:"connections"`

	// Source is the file or label the blueprint was read from.
	Source string `yaml:"-"`
}

// ProcessDef declares one process instance.
type ProcessDef struct {
	Name   string            `yaml:"name"`
	Type   string            `yaml:"type"`
	Config map[string]string `yaml:"config"`
}

// ConnectionDef links an output port to an input port, both written as
// "process.port".
type ConnectionDef struct {
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	NoDep    bool   `yaml:"nodep"`
	Capacity int    `yaml:"capacity"`
}

func (c ConnectionDef) String() string { return c.From + " -> " + c.To }

// parseArrow splits "up.port -> down.port".
func parseArrow(s string) (ConnectionDef, error) {
	from, to, ok := strings.Cut(s, "->")
	if !ok {
		return ConnectionDef{}, fmt.Errorf("connection %q is not of the form \"a.out -> b.in\"", s)
	}
	return ConnectionDef{From: strings.TrimSpace(from), To: strings.TrimSpace(to)}, nil
}

func (b *Blueprint) source() string {
	switch {
	case b.Source != "":
		return b.Source
	case b.Name != "":
		return b.Name
	}
	return "blueprint"
}

// Validate checks names, addresses and capacities, reporting every problem
// in one INVALID_DESCRIPTION error.
func (b *Blueprint) Validate() error {
	v := validation.New()
	seen := make(map[string]bool, len(b.Processes))
	for i, p := range b.Processes {
		field := fmt.Sprintf("processes[%d]", i)
		v.Required(field+".name", p.Name).
			Name(field+".name", p.Name).
			Unique(field+".name", p.Name, seen).
			Required(field+".type", p.Type)
	}
	pairs := make(map[string]bool, len(b.Connections))
	for i, c := range b.Connections {
		field := fmt.Sprintf("connections[%d]", i)
		v.Required(field+".from", c.From).
			Address(field+".from", c.From).
			Required(field+".to", c.To).
			Address(field+".to", c.To).
			Min(field+".capacity", c.Capacity, 0).
			Unique(field, c.String(), pairs)
	}
	if !v.HasErrors() {
		return nil
	}
	return errors.InvalidDescription(b.source(), v.Message()).WithDetail("fields", v.Errors())
}

// merge folds an included blueprint into b. Processes already present keep
// their first definition; redefining one with another type fails.
func (b *Blueprint) merge(inc *Blueprint) error {
	types := make(map[string]string, len(b.Processes))
	for _, p := range b.Processes {
		types[p.Name] = p.Type
	}
	for _, p := range inc.Processes {
		typ, ok := types[p.Name]
		if !ok {
			b.Processes = append(b.Processes, p)
			types[p.Name] = p.Type
			continue
		}
		if typ != p.Type {
			return errors.InvalidDescription(inc.source(),
				fmt.Sprintf("process %q is %s here but %s in %s", p.Name, p.Type, typ, b.source()))
		}
	}

	conns := make(map[string]bool, len(b.Connections))
	for _, c := range b.Connections {
		conns[c.String()] = true
	}
	for _, c := range inc.Connections {
		if !conns[c.String()] {
			b.Connections = append(b.Connections, c)
			conns[c.String()] = true
		}
	}
	return nil
}
