// Package config loads and persists the tool configuration from
// ~/.monopack/config.yaml.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// OutputDir is where produced archives and the manifest live.
	OutputDir string `yaml:"output_dir"`
	// WorkDir hosts scoped temporary working areas. Empty means the
	// system temp directory.
	WorkDir string `yaml:"work_dir"`
	// SevenZip is the path to the extraction tool. Overridden by the
	// SEVEN_ZIP environment variable and the --seven-zip flag.
	SevenZip string `yaml:"seven_zip"`
	// TimeoutSeconds bounds a single download request. Zero disables it.
	TimeoutSeconds int `yaml:"timeout_seconds"`
	// Retries is how many times a failed download is retried.
	Retries int `yaml:"retries"`
	// Overwrite allows replacing an existing output archive.
	Overwrite bool `yaml:"overwrite"`
}

func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "." // Fallback to current directory
	}
	return &Config{
		OutputDir:      filepath.Join(home, "monopack"),
		WorkDir:        "",
		SevenZip:       "",
		TimeoutSeconds: 300,
		Retries:        2,
		Overwrite:      false,
	}
}

func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".monopack", "config.yaml")
}

func Load() (*Config, error) {
	cfg := DefaultConfig()

	path := ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// A negative retry count would wrap when handed to the downloader.
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}

	return cfg, nil
}

func (c *Config) Save() error {
	path := ConfigPath()

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ExpandPath expands ~ to home directory
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path // Return unexpanded if home unavailable
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
