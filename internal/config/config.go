// Package config loads simulation settings from YAML with sane
// defaults for every field.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full simulation configuration.
type Config struct {
	Seed   int64 `yaml:"seed"`
	Cycles int   `yaml:"cycles"`

	World       World       `yaml:"world"`
	Agent       Agent       `yaml:"agent"`
	Learning    Learning    `yaml:"learning"`
	Persistence Persistence `yaml:"persistence"`
	Logging     Logging     `yaml:"logging"`
}

// World configures grid generation.
type World struct {
	Width          int     `yaml:"width"`
	Height         int     `yaml:"height"`
	ResourceChance float64 `yaml:"resource_chance"`
}

// Agent configures the cognitive layer.
type Agent struct {
	Name          string `yaml:"name"`
	PatternWindow int    `yaml:"pattern_window"`
}

// Learning configures the value store's starting hyperparameters.
type Learning struct {
	Alpha   float64 `yaml:"alpha"`
	Epsilon float64 `yaml:"epsilon"`
	Gamma   float64 `yaml:"gamma"`
}

// Persistence configures memory storage.
type Persistence struct {
	Path         string `yaml:"path"`
	SaveInterval int    `yaml:"save_interval"`
}

// Logging configures the slog handler.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Seed:   42,
		Cycles: 100,
		World: World{
			Width:          5,
			Height:         5,
			ResourceChance: 0.3,
		},
		Agent: Agent{
			Name:          "wanderer",
			PatternWindow: 5,
		},
		Learning: Learning{
			Alpha:   0.1,
			Epsilon: 0.15,
			Gamma:   0.9,
		},
		Persistence: Persistence{
			Path:         "driftmind.db",
			SaveInterval: 5,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML config file over the defaults. A missing path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.World.Width < 2 || c.World.Height < 2 {
		return fmt.Errorf("world must be at least 2x2, got %dx%d", c.World.Width, c.World.Height)
	}
	if c.World.ResourceChance < 0 || c.World.ResourceChance > 1 {
		return fmt.Errorf("resource_chance must be in [0,1], got %v", c.World.ResourceChance)
	}
	if c.Cycles < 1 {
		return fmt.Errorf("cycles must be positive, got %d", c.Cycles)
	}
	if c.Agent.PatternWindow < 1 {
		return fmt.Errorf("pattern_window must be positive, got %d", c.Agent.PatternWindow)
	}
	if c.Persistence.SaveInterval < 1 {
		return fmt.Errorf("save_interval must be positive, got %d", c.Persistence.SaveInterval)
	}
	for _, v := range []float64{c.Learning.Alpha, c.Learning.Epsilon} {
		if v <= 0 || v >= 1 {
			return fmt.Errorf("learning rates must be in (0,1)")
		}
	}
	return nil
}
