package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds optional defaults loaded from ~/.config/policy-dl/config.yaml.
type Config struct {
	DefaultProfile   string `yaml:"default_profile"`
	DefaultOutputDir string `yaml:"default_output_dir"`
}

// DefaultOutputDirName is used when neither the command line nor the
// config file names an output directory.
const DefaultOutputDirName = "policies"

// Load reads the config file. Returns zero-value Config if the file doesn't exist.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return &Config{}, nil
	}

	path := filepath.Join(home, ".config", "policy-dl", "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Merge applies CLI overrides. Flags and positional arguments take
// precedence over config defaults.
func (c *Config) Merge(profile, outputDir string) (string, string) {
	p := c.DefaultProfile
	if profile != "" {
		p = profile
	}
	d := c.DefaultOutputDir
	if outputDir != "" {
		d = outputDir
	}
	if d == "" {
		d = DefaultOutputDirName
	}
	return p, d
}
