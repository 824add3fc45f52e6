// Package cli implements the cppdep command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cppdep/pkg/buildinfo"
	"github.com/matzehuels/cppdep/pkg/cache"
	"github.com/matzehuels/cppdep/pkg/config"
	"github.com/matzehuels/cppdep/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "cppdep"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "cppdep analyzes C/C++ include dependencies",
		Long:         `cppdep groups C/C++ files into components, builds the component-level include dependency graph, applies cycle-tolerant transitive reduction, and renders the result as DOT, SVG, PNG, or JSON.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.scanCommand())
	root.AddCommand(c.reduceCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, cfg config.CacheConfig, noCache bool) (*pipeline.Runner, error) {
	cache, err := newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

// newCache selects the cache backend: the config file picks file, redis, or
// none; --no-cache overrides everything. A file cache that cannot be created
// degrades to no caching rather than failing the command.
func newCache(ctx context.Context, cfg config.CacheConfig, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Backend == "none" {
		return cache.NewNullCache(), nil
	}
	if cfg.Backend == "redis" {
		addr := cfg.RedisAddr
		if addr == "" {
			addr = "localhost:6379"
		}
		return cache.NewRedisCache(ctx, addr)
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/cppdep/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Config & Options Helpers
// =============================================================================

// loadConfig reads the config file. An empty path means the default file in
// the working directory, which is optional.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		path = config.DefaultFileName
	}
	return config.Load(path)
}

// applyConfig fills pipeline options from the config file. Flag values take
// precedence, so only unset options are filled in.
func applyConfig(opts *pipeline.Options, cfg config.Config) {
	if len(opts.SourceDirs) == 0 {
		opts.SourceDirs = cfg.Scan.SourceDirs
	}
	if len(opts.IncludeDirs) == 0 {
		opts.IncludeDirs = cfg.Scan.IncludeDirs
	}
	if len(opts.SourceExtensions) == 0 {
		opts.SourceExtensions = cfg.Scan.SourceExtensions
	}
	if len(opts.HeaderExtensions) == 0 {
		opts.HeaderExtensions = cfg.Scan.HeaderExtensions
	}
	if len(opts.Formats) == 0 && cfg.Render.Format != "" {
		opts.Formats = parseFormats(cfg.Render.Format)
	}
	if !opts.DisplayPaths {
		opts.DisplayPaths = cfg.Render.DisplayPaths
	}
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatDOT}
	}
	return strings.Split(s, ",")
}
