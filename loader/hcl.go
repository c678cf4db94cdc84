package loader

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/kbukum/flowkit/errors"
)

type hclFile struct {
	Name      string        `hcl:"name,optional"`
	Includes  []string      `hcl:"includes,optional"`
	Processes []*hclProcess `hcl:"process,block"`
	Connects  []*hclConnect `hcl:"connect,block"`
}

type hclProcess struct {
	Type   string     `hcl:"type,label"`
	Name   string     `hcl:"name,label"`
	Config *cty.Value `hcl:"config,optional"`
}

type hclConnect struct {
	From     string `hcl:"from,label"`
	To       string `hcl:"to,label"`
	NoDep    bool   `hcl:"nodep,optional"`
	Capacity int    `hcl:"capacity,optional"`
}

// ParseHCL parses an HCL blueprint. filename labels errors and diagnostics.
func ParseHCL(data []byte, filename string) (*Blueprint, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.InvalidDescription(filename, "parsing HCL").WithCause(diags)
	}

	var raw hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return nil, errors.InvalidDescription(filename, "decoding HCL").WithCause(diags)
	}

	bp := &Blueprint{Name: raw.Name, Includes: raw.Includes, Source: filename}
	for _, p := range raw.Processes {
		cfg, err := ctyConfig(p.Config)
		if err != nil {
			return nil, errors.InvalidDescription(filename, fmt.Sprintf("config of process %q", p.Name)).WithCause(err)
		}
		bp.Processes = append(bp.Processes, ProcessDef{Name: p.Name, Type: p.Type, Config: cfg})
	}
	for _, c := range raw.Connects {
		bp.Connections = append(bp.Connections, ConnectionDef{
			From:     c.From,
			To:       c.To,
			NoDep:    c.NoDep,
			Capacity: c.Capacity,
		})
	}
	return bp, nil
}

// ctyConfig converts an object or map of primitives into config strings.
func ctyConfig(v *cty.Value) (map[string]string, error) {
	if v == nil || v.IsNull() {
		return nil, nil
	}
	ty := v.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("config must be an object, got %s", ty.FriendlyName())
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("config must be known")
	}

	values := v.AsValueMap()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]string, len(values))
	for _, k := range keys {
		s, err := convert.Convert(values[k], cty.String)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		if s.IsNull() {
			return nil, fmt.Errorf("key %q: null value", k)
		}
		out[k] = s.AsString()
	}
	return out, nil
}
