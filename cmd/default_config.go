package cmd

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/jacdac-sim/jdbus-sim/sim/scenario"
)

// Defaults represents the full defaults.yaml structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Defaults struct {
	Version string                     `yaml:"version"`
	Presets map[string]scenario.Config `yaml:"presets"`
}

// loadDefaults parses defaults.yaml into a Defaults struct.
// Uses strict field checking: typos must cause errors.
func loadDefaults(path string) (*Defaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading defaults file %s: %w", path, err)
	}
	var d Defaults
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&d); err != nil {
		return nil, fmt.Errorf("parsing defaults YAML: %w", err)
	}
	return &d, nil
}

// GetPreset returns the named scenario from the defaults file.
func GetPreset(name string, defaultsFilePath string) (scenario.Config, error) {
	d, err := loadDefaults(defaultsFilePath)
	if err != nil {
		return scenario.Config{}, err
	}
	cfg, ok := d.Presets[name]
	if !ok {
		return scenario.Config{}, fmt.Errorf("unknown preset %q; available: %v", name, d.presetNames())
	}
	return cfg, nil
}

func (d *Defaults) presetNames() []string {
	names := make([]string, 0, len(d.Presets))
	for name := range d.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
