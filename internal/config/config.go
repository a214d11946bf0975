// Package config loads the symbolication service's YAML configuration:
// where to search for binaries and debug files, how the server listens,
// and logging verbosity. Kept intentionally small and flat, the way a
// single-binary CLI/service wants its config — no nested environment
// profiles or secret management, that's out of scope here.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level symbolication service configuration.
type Config struct {
	// Server controls the connect-RPC listener.
	Server ServerConfig `yaml:"server"`

	// SearchDirs are additional directories fileprovider.Local searches
	// for a bare module filename, beyond the module's own path.
	SearchDirs []string `yaml:"search_dirs"`

	// Log controls the structured logger.
	Log LogConfig `yaml:"log"`
}

// ServerConfig controls the RPC listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Debug bool `yaml:"debug"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8089"},
	}
}

// Load reads and parses the YAML configuration file at path. A missing
// file is not an error: Default() is returned unchanged so the CLI can
// run unconfigured.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	// Relative search dirs are resolved against the config file's own
	// directory.
	for i, dir := range cfg.SearchDirs {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(filepath.Dir(path), dir)
		}
		if abs, err := filepath.Abs(dir); err == nil {
			cfg.SearchDirs[i] = abs
		}
	}

	return cfg, nil
}
