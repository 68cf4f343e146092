// Package config loads the optional workspace file (aligner.yaml) that
// pins the document paths and the default actor name. Flags override the
// file; the file overrides defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the workspace file looked up in the working directory.
const DefaultFile = "aligner.yaml"

// Config holds workspace settings.
type Config struct {
	// Master is the canonical store document path.
	Master string `yaml:"master"`

	// Equivalences is the equivalence index document path.
	Equivalences string `yaml:"equivalences"`

	// Export is the default flat JSON export path.
	Export string `yaml:"export"`

	// Actor is the default added_by/removed_by stamp.
	Actor string `yaml:"actor,omitempty"`
}

// Default returns the configuration used when no workspace file exists.
func Default() *Config {
	return &Config{
		Master:       "data/master.json",
		Equivalences: "data/equivalences.json",
		Export:       "docs/recipes_long.json",
	}
}

// Load reads a workspace file, filling unset fields from Default. A
// missing file at the default location yields plain defaults; a missing
// file at an explicitly requested path is an error.
func Load(path string, explicit bool) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	fillDefaults(cfg)
	return cfg, nil
}

func fillDefaults(cfg *Config) {
	def := Default()
	if cfg.Master == "" {
		cfg.Master = def.Master
	}
	if cfg.Equivalences == "" {
		cfg.Equivalences = def.Equivalences
	}
	if cfg.Export == "" {
		cfg.Export = def.Export
	}
}
