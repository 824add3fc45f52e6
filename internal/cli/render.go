package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cppdep/pkg/config"
	"github.com/matzehuels/cppdep/pkg/graph"
	"github.com/matzehuels/cppdep/pkg/pipeline"
)

// renderCommand creates the render command, which renders a previously
// exported graph without rescanning the sources.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		configPath string
		noCache    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [graph.json]",
		Short: "Render an exported dependency graph",
		Long: `Render an exported dependency graph.

Takes a graph.json file (produced by 'graph -f json' or 'reduce') and
renders it to DOT, SVG, or PNG. Rendered artifacts are cached locally for
faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts, cfg.Cache, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): dot (default), svg, png (comma-separated)")
	cmd.Flags().BoolVar(&opts.DisplayPaths, "paths", false, "label nodes with relative file paths")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "list owned files in node labels")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&configPath, "config", "", "config file (default .cppdep.toml)")

	return cmd
}

// runRender loads the graph and renders the requested formats.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, cacheCfg config.CacheConfig, output string, noCache bool) error {
	g, err := graph.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, cacheCfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, "Rendering graph...")
	spinner.Start()

	artifacts, cacheHit, err := runner.RenderWithCacheInfo(ctx, g, opts)
	if err != nil {
		spinner.StopWithError("Rendering failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	if output == "" {
		output = artifactBase(input)
	}
	return writeArtifacts(artifactWriteParams{
		artifacts: artifacts,
		formats:   opts.Formats,
		output:    output,
		cacheHit:  cacheHit,
	})
}
