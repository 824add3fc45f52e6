package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cppdep/pkg/component"
	"github.com/matzehuels/cppdep/pkg/pipeline"
)

// scanCommand creates the scan command, which lists discovered components
// without building the graph.
func (c *CLI) scanCommand() *cobra.Command {
	var configPath string
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List discovered components",
		Long: `List discovered components.

Scans the configured directories and prints every component with its owned
files, flagging ambiguous ones (more files than a header/source pair).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			applyConfig(&opts, cfg)

			runner := pipeline.NewRunner(nil, nil, c.Logger)
			cat, err := runner.Scan(cmd.Context(), opts)
			if err != nil {
				return err
			}

			res := component.Resolve(cat)
			prog := newProgress(c.Logger)
			for _, comp := range res.Components {
				name := comp.Name
				if comp.Ambiguous() {
					name = StyleWarning.Render(name + " (ambiguous)")
				} else {
					name = StyleValue.Render(name)
				}
				fmt.Println(name)
				for _, f := range comp.Files {
					printDetail("%s [%s]", f.Path, f.Class)
				}
			}
			prog.done(fmt.Sprintf("Found %d components in %d files", len(res.Components), cat.Len()))

			printWarnings(res.Warnings)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&opts.SourceDirs, "source", "s", nil, "source directory to scan (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.IncludeDirs, "include", "i", nil, "include directory to scan (repeatable)")
	cmd.Flags().StringSliceVar(&opts.SourceExtensions, "src-ext", nil, "extra source file extensions")
	cmd.Flags().StringSliceVar(&opts.HeaderExtensions, "hdr-ext", nil, "extra header file extensions")
	cmd.Flags().StringVar(&configPath, "config", "", "config file (default .cppdep.toml)")

	return cmd
}
