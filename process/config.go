package process

import (
	"fmt"
	"maps"
	"time"

	"github.com/spf13/cast"

	"github.com/kbukum/flowkit/errors"
)

// Reserved configuration keys filled in by the engine.
const (
	ConfigName = "_name"
	ConfigType = "_type"

	staticPrefix = "static/"
)

// Config maps configuration keys to string values.
type Config map[string]string

// Get returns the value of key.
func (c Config) Get(key string) (string, bool) {
	v, ok := c[key]
	return v, ok
}

// Clone returns a copy of c. Cloning nil yields an empty config.
func (c Config) Clone() Config {
	out := make(Config, len(c))
	maps.Copy(out, c)
	return out
}

// Merge returns a copy of c overlaid with other.
func (c Config) Merge(other Config) Config {
	out := c.Clone()
	maps.Copy(out, other)
	return out
}

// ConfigKey describes a declared configuration key.
type ConfigKey struct {
	Key         string
	Default     string
	Description string
	Tunable     bool
}

// StaticKey returns the configuration key backing a static input port.
func StaticKey(port string) string { return staticPrefix + port }

// ConfigValue reads key as a T. Strings are converted with spf13/cast;
// supported targets are string, bool, the integer and float kinds and
// time.Duration.
func ConfigValue[T any](p *Process, key string) (T, error) {
	var zero T
	raw, err := p.ConfigString(key)
	if err != nil {
		return zero, err
	}
	v, err := castTo[T](raw)
	if err != nil {
		return zero, errors.New(errors.ErrCodeTypeMismatch,
			fmt.Sprintf("config key %q of process %q: %v", key, p.name, err)).
			WithDetail("process", p.name).
			WithDetail("key", key).
			WithCause(err)
	}
	return v, nil
}

func castTo[T any](raw string) (T, error) {
	var zero T
	var out any
	var err error
	switch any(zero).(type) {
	case string:
		out = raw
	case bool:
		out, err = cast.ToBoolE(raw)
	case int:
		out, err = cast.ToIntE(raw)
	case int32:
		out, err = cast.ToInt32E(raw)
	case int64:
		out, err = cast.ToInt64E(raw)
	case uint:
		out, err = cast.ToUintE(raw)
	case uint32:
		out, err = cast.ToUint32E(raw)
	case uint64:
		out, err = cast.ToUint64E(raw)
	case float32:
		out, err = cast.ToFloat32E(raw)
	case float64:
		out, err = cast.ToFloat64E(raw)
	case time.Duration:
		out, err = cast.ToDurationE(raw)
	default:
		return zero, fmt.Errorf("unsupported config type %T", zero)
	}
	if err != nil {
		return zero, err
	}
	return out.(T), nil
}
