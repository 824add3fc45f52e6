// Package config loads project configuration from a .cppdep.toml file.
//
// The config file is optional; command-line flags override any value set
// here. Example:
//
//	[scan]
//	source_dirs = ["src", "lib"]
//	include_dirs = ["include"]
//
//	[render]
//	format = "svg"
//	output = "deps.svg"
//	display_paths = true
//
//	[cache]
//	backend = "file" # file | redis | none
//	redis_addr = "localhost:6379"
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultFileName is the config file looked up in the working directory.
const DefaultFileName = ".cppdep.toml"

// Config is the full project configuration.
type Config struct {
	Scan   ScanConfig   `toml:"scan"`
	Render RenderConfig `toml:"render"`
	Cache  CacheConfig  `toml:"cache"`
}

// ScanConfig configures file discovery.
type ScanConfig struct {
	SourceDirs       []string `toml:"source_dirs"`
	IncludeDirs      []string `toml:"include_dirs"`
	SourceExtensions []string `toml:"source_extensions"`
	HeaderExtensions []string `toml:"header_extensions"`
}

// RenderConfig configures graph output.
type RenderConfig struct {
	Format       string `toml:"format"`
	Output       string `toml:"output"`
	DisplayPaths bool   `toml:"display_paths"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend   string `toml:"backend"`
	RedisAddr string `toml:"redis_addr"`
}

// Load reads the config file at path. A missing file is not an error: the
// zero Config is returned so flags and defaults apply.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
