package scenario

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jacdac-sim/jdbus-sim/sim"
	"github.com/jacdac-sim/jdbus-sim/sim/trace"
)

// Config describes one simulation run: BusCount independent buses of
// DevicesPerBus devices each, optionally merged into one bus afterwards.
// Loaded from YAML via LoadConfig(path) or assembled from CLI flags.
type Config struct {
	BusCount      int    `yaml:"bus_count"`
	DevicesPerBus int    `yaml:"devices_per_bus"`
	Seed          int64  `yaml:"seed"`
	MaxRounds     int    `yaml:"max_rounds,omitempty"` // 0 = unbounded
	Merge         bool   `yaml:"merge"`
	TraceLevel    string `yaml:"trace_level,omitempty"` // "none" (default), "rounds", "collisions"
}

// DefaultConfig mirrors the reference run: two buses of 120 devices, merged.
func DefaultConfig() Config {
	return Config{
		BusCount:      2,
		DevicesPerBus: 120,
		Seed:          42,
		Merge:         true,
	}
}

// LoadConfig reads and parses a YAML scenario file.
// Fields absent from the file keep their DefaultConfig values.
func LoadConfig(path string) (*Config, error) {
	return LoadConfigOnto(path, DefaultConfig())
}

// LoadConfigOnto parses a YAML scenario file over base, so fields absent
// from the file keep base's values.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadConfigOnto(path string, base Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	cfg := base
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return &cfg, nil
}

// Validate checks that all fields in the config are usable.
// Merge capacity is deliberately not checked here: an oversized merge is
// reported by the run, after the independent buses have been resolved.
func (c *Config) Validate() error {
	if c.BusCount < 1 {
		return &sim.ConfigError{Field: "bus_count", Reason: fmt.Sprintf("must be >= 1, got %d", c.BusCount)}
	}
	if c.DevicesPerBus < 1 {
		return &sim.ConfigError{Field: "devices_per_bus", Reason: fmt.Sprintf("must be >= 1, got %d", c.DevicesPerBus)}
	}
	if c.DevicesPerBus > sim.MaxBusDevices {
		return &sim.ConfigError{
			Field:  "devices_per_bus",
			Reason: fmt.Sprintf("must be <= %d, got %d", sim.MaxBusDevices, c.DevicesPerBus),
		}
	}
	if c.MaxRounds < 0 {
		return &sim.ConfigError{Field: "max_rounds", Reason: fmt.Sprintf("must be >= 0, got %d", c.MaxRounds)}
	}
	if !trace.IsValidTraceLevel(c.TraceLevel) {
		return &sim.ConfigError{
			Field:  "trace_level",
			Reason: fmt.Sprintf("unknown level %q; valid: none, rounds, collisions", c.TraceLevel),
		}
	}
	return nil
}

// TotalDevices returns the device count a merge of all buses would hold.
func (c *Config) TotalDevices() int {
	return c.BusCount * c.DevicesPerBus
}
