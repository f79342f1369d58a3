package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Runtime   RuntimeConfig   `toml:"runtime"`
	Logging   LoggingConfig   `toml:"logging"`
	Scene     SceneConfig     `toml:"scene"`
	Scripting ScriptingConfig `toml:"scripting"`
	Profile   ProfileConfig   `toml:"profile"`
}

type RuntimeConfig struct {
	Workers        int           `toml:"workers"`         // 0 = one less than the CPU count
	InitiallyValid bool          `toml:"initially_valid"` // start systems Valid instead of Invalid
	MaxPasses      int           `toml:"max_passes"`
	TickRate       time.Duration `toml:"tick_rate"` // 0 = run a fixed number of passes
	Ticks          int           `toml:"ticks"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type SceneConfig struct {
	Path string `toml:"path"`
}

type ScriptingConfig struct {
	Dir string `toml:"dir"` // empty disables Lua systems
}

type ProfileConfig struct {
	Mode string `toml:"mode"` // "", "cpu" or "mem"
	Path string `toml:"path"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes TOML over the defaults. name is only used in errors.
func Parse(data []byte, name string) (*Config, error) {
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", name, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", name, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Runtime.Workers < 0:
		return fmt.Errorf("runtime.workers must not be negative, got %d", c.Runtime.Workers)
	case c.Runtime.MaxPasses <= 0:
		return fmt.Errorf("runtime.max_passes must be positive, got %d", c.Runtime.MaxPasses)
	case c.Runtime.TickRate < 0:
		return fmt.Errorf("runtime.tick_rate must not be negative, got %s", c.Runtime.TickRate)
	}
	switch c.Profile.Mode {
	case "", "cpu", "mem":
	default:
		return fmt.Errorf("profile.mode %q: want cpu or mem", c.Profile.Mode)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			MaxPasses: 64,
			Ticks:     3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Scene: SceneConfig{
			Path: "data/scene.yaml",
		},
		Profile: ProfileConfig{
			Path: ".",
		},
	}
}
