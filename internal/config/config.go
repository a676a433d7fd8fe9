// Package config loads the CLI's default settings from a YAML file.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Compression string `yaml:"compression"`
	Level       int    `yaml:"level"`
	BufferSize  int    `yaml:"buffer_size"`
	Verbose     bool   `yaml:"verbose"`
}

func DefaultConfig() *Config {
	return &Config{
		Compression: "deflate",
		BufferSize:  32 * 1024,
	}
}

func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".zipkit", "config.yaml")
}

// Load reads the config file, falling back to defaults when it is absent.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
