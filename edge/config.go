package edge

import "fmt"

// Config configures an edge.
type Config struct {
	// Capacity is the maximum number of packets buffered for the slowest
	// reader. 0 means unbounded.
	Capacity int `yaml:"capacity" mapstructure:"capacity" validate:"gte=0"`
}

// ApplyDefaults applies default values. The zero capacity already means
// unbounded, so there is nothing to fill in.
func (c *Config) ApplyDefaults() {}

// Validate validates the edge configuration.
func (c *Config) Validate() error {
	if c.Capacity < 0 {
		return fmt.Errorf("edge.capacity must be >= 0 (got: %d)", c.Capacity)
	}
	return nil
}
