package loader

import (
	"fmt"

	"github.com/spf13/cast"
	"go.yaml.in/yaml/v3"

	"github.com/kbukum/flowkit/errors"
)

// ParseYAML parses a YAML blueprint. source labels errors.
func ParseYAML(data []byte, source string) (*Blueprint, error) {
	var raw struct {
		Name        string          `yaml:"name"`
		Includes    []string        `yaml:"includes"`
		Processes   []yamlProcess   `yaml:"processes"`
		Connections []ConnectionDef `yaml:"connections"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.InvalidDescription(source, "parsing YAML").WithCause(err)
	}

	bp := &Blueprint{
		Name:        raw.Name,
		Includes:    raw.Includes,
		Connections: raw.Connections,
		Source:      source,
	}
	for _, p := range raw.Processes {
		cfg, err := stringConfig(p.Config)
		if err != nil {
			return nil, errors.InvalidDescription(source, fmt.Sprintf("config of process %q", p.Name)).WithCause(err)
		}
		bp.Processes = append(bp.Processes, ProcessDef{Name: p.Name, Type: p.Type, Config: cfg})
	}
	return bp, nil
}

type yamlProcess struct {
	Name   string         `yaml:"name"`
	Type   string         `yaml:"type"`
	Config map[string]any `yaml:"config"`
}

// stringConfig flattens YAML scalars into process config strings.
func stringConfig(in map[string]any) (map[string]string, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		out[k] = s
	}
	return out, nil
}

// UnmarshalYAML accepts either the "a.out -> b.in" shorthand or a mapping.
func (c *ConnectionDef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		def, err := parseArrow(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*c = def
		return nil
	}
	type plain ConnectionDef
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*c = ConnectionDef(p)
	return nil
}
