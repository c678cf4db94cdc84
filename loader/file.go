package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kbukum/flowkit/errors"
)

var extensions = []string{".yaml", ".yml", ".hcl"}

// Source loads blueprints by include name.
type Source interface {
	Load(name string) (*Blueprint, error)
}

// FileLoader loads blueprints from files in a list of directories.
type FileLoader struct {
	dirs []string
}

// NewFileLoader creates a loader searching dirs in order.
func NewFileLoader(dirs ...string) *FileLoader {
	return &FileLoader{dirs: dirs}
}

// Load finds {name}.yaml, {name}.yml or {name}.hcl in the first directory
// holding one. A name that already carries an extension is used as is.
func (l *FileLoader) Load(name string) (*Blueprint, error) {
	candidates := []string{name}
	if !hasKnownExt(name) {
		candidates = candidates[:0]
		for _, ext := range extensions {
			candidates = append(candidates, name+ext)
		}
	}
	for _, dir := range l.dirs {
		for _, c := range candidates {
			path := filepath.Join(dir, c)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			bp, err := ParseFile(path)
			if err != nil {
				return nil, err
			}
			if bp.Name == "" {
				bp.Name = name
			}
			return bp, nil
		}
	}
	return nil, errors.InvalidDescription(name, fmt.Sprintf("blueprint not found in %v", l.dirs))
}

func hasKnownExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ParseFile reads and parses one blueprint file, choosing the format by
// extension. Includes are left unresolved.
func ParseFile(path string) (*Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.InvalidDescription(path, "reading file").WithCause(err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data, path)
	case ".hcl":
		return ParseHCL(data, path)
	}
	return nil, errors.InvalidDescription(path, "unsupported extension, want .yaml, .yml or .hcl")
}

// LoadFile parses a blueprint file and resolves its includes against the
// file's directory followed by dirs.
func LoadFile(path string, dirs ...string) (*Blueprint, error) {
	bp, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	if bp.Name == "" {
		bp.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	search := append([]string{filepath.Dir(path)}, dirs...)
	return Resolve(bp, NewFileLoader(search...))
}

// Resolve returns a copy of bp with every include merged in. Definitions
// in bp win over included ones of the same name. Circular includes fail;
// an include reached twice is merged once.
func Resolve(bp *Blueprint, src Source) (*Blueprint, error) {
	stack := make(map[string]bool)
	resolved := make(map[string]bool)
	return resolve(bp, src, stack, resolved)
}

func resolve(bp *Blueprint, src Source, stack, resolved map[string]bool) (*Blueprint, error) {
	if stack[bp.Name] {
		return nil, errors.InvalidDescription(bp.source(), fmt.Sprintf("circular include of %q", bp.Name))
	}
	stack[bp.Name] = true
	defer delete(stack, bp.Name)

	out := &Blueprint{
		Name:        bp.Name,
		Source:      bp.Source,
		Processes:   append([]ProcessDef(nil), bp.Processes...),
		Connections: append([]ConnectionDef(nil), bp.Connections...),
	}
	for _, name := range bp.Includes {
		if resolved[name] {
			continue
		}
		if src == nil {
			return nil, errors.InvalidDescription(bp.source(), fmt.Sprintf("include %q with no source", name))
		}
		sub, err := src.Load(name)
		if err != nil {
			return nil, err
		}
		sub.Name = name
		merged, err := resolve(sub, src, stack, resolved)
		if err != nil {
			return nil, err
		}
		if err := out.merge(merged); err != nil {
			return nil, err
		}
	}
	if bp.Name != "" {
		resolved[bp.Name] = true
	}
	return out, nil
}
