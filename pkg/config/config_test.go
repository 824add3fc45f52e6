package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".cppdep.toml")
	content := `
[scan]
source_dirs = ["src", "lib"]
include_dirs = ["include"]
header_extensions = [".tpp"]

[render]
format = "svg"
output = "deps.svg"
display_paths = true

[cache]
backend = "redis"
redis_addr = "cache.internal:6379"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(cfg.Scan.SourceDirs) != 2 || cfg.Scan.SourceDirs[0] != "src" {
		t.Errorf("SourceDirs = %v", cfg.Scan.SourceDirs)
	}
	if len(cfg.Scan.IncludeDirs) != 1 || cfg.Scan.IncludeDirs[0] != "include" {
		t.Errorf("IncludeDirs = %v", cfg.Scan.IncludeDirs)
	}
	if len(cfg.Scan.HeaderExtensions) != 1 || cfg.Scan.HeaderExtensions[0] != ".tpp" {
		t.Errorf("HeaderExtensions = %v", cfg.Scan.HeaderExtensions)
	}
	if cfg.Render.Format != "svg" || cfg.Render.Output != "deps.svg" || !cfg.Render.DisplayPaths {
		t.Errorf("Render = %+v", cfg.Render)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.RedisAddr != "cache.internal:6379" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
}

func TestLoadMissingFileIsZeroConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing config file should not error: %v", err)
	}
	if len(cfg.Scan.SourceDirs) != 0 || cfg.Render.Format != "" || cfg.Cache.Backend != "" {
		t.Errorf("want zero config, got %+v", cfg)
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[scan\nsource_dirs ="), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed TOML should error")
	}
}
