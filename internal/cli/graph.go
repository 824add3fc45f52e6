package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cppdep/pkg/config"
	"github.com/matzehuels/cppdep/pkg/pipeline"
)

// graphCommand creates the graph command, the main entry point: scan, build,
// reduce, and render in one run.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		configPath string
		noReduce   bool
		noCache    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Build and render the component dependency graph",
		Long: `Build and render the component dependency graph.

Scans the source and include directories for C/C++ files, groups them into
components by base name, resolves #include directives to component edges,
applies cycle-tolerant transitive reduction, and writes the result.

Recoverable conditions (ambiguous components, unresolved includes) are
reported as warnings on stderr after the output; they never fail the run.`,
		Example: `  cppdep graph -s src -i include
  cppdep graph -s src -o deps.svg -f svg --paths
  cppdep graph -s src --no-reduce -f json -o full.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if formatsStr != "" {
				opts.Formats = parseFormats(formatsStr)
			}
			applyConfig(&opts, cfg)
			opts.Reduce = !noReduce
			if output == "" {
				output = cfg.Render.Output
			}
			if output == "" && len(opts.Formats) <= 1 {
				output = pipeline.DefaultOutput
			}
			return c.runGraph(cmd.Context(), opts, cfg, output, noCache)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.SourceDirs, "source", "s", nil, "source directory to scan (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.IncludeDirs, "include", "i", nil, "include directory to scan (repeatable)")
	cmd.Flags().StringSliceVar(&opts.SourceExtensions, "src-ext", nil, "extra source file extensions")
	cmd.Flags().StringSliceVar(&opts.HeaderExtensions, "hdr-ext", nil, "extra header file extensions")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format), base path (multiple), or - for stdout")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): dot (default), svg, png, json (comma-separated)")
	cmd.Flags().BoolVar(&noReduce, "no-reduce", false, "skip transitive reduction")
	cmd.Flags().BoolVar(&opts.DisplayPaths, "paths", false, "label nodes with relative file paths")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "list owned files in node labels")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "parallel include extraction workers (0 = auto)")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "bypass the graph cache")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&configPath, "config", "", "config file (default .cppdep.toml)")

	return cmd
}

// runGraph executes the full pipeline and writes the artifacts.
func (c *CLI) runGraph(ctx context.Context, opts pipeline.Options, cfg config.Config, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, cfg.Cache, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, "Analyzing include dependencies...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Analysis failed")
		return err
	}
	spinner.Stop()

	final := result.Final()
	printSuccess("Analyzed %d files", result.Stats.FileCount)
	printStats(final.NodeCount(), final.EdgeCount(), result.CacheInfo.BuildHit)
	if result.Reduced != nil && result.Stats.EdgesPruned > 0 {
		printDetail("pruned %d redundant edges", result.Stats.EdgesPruned)
	}
	if n := final.CyclicEdgeCount(); n > 0 {
		printDetail("%d edges participate in cycles", n)
	}

	if err := writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		output:    output,
		cacheHit:  result.CacheInfo.RenderHit,
		stdout:    output == "-",
	}); err != nil {
		return err
	}

	if output != "-" {
		printNextStep("Live preview", "cppdep serve "+strings.Join(sourceFlags(opts), " "))
	}
	printWarnings(result.Warnings)
	return nil
}

// sourceFlags reconstructs the -s/-i flags for suggested follow-up commands.
func sourceFlags(opts pipeline.Options) []string {
	var flags []string
	for _, d := range opts.SourceDirs {
		flags = append(flags, "-s", d)
	}
	for _, d := range opts.IncludeDirs {
		flags = append(flags, "-i", d)
	}
	return flags
}
