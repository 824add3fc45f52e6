package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cppdep/pkg/graph"
	"github.com/matzehuels/cppdep/pkg/graph/transform"
)

// reduceCommand creates the reduce command, which applies transitive
// reduction to a previously exported graph.
func (c *CLI) reduceCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "reduce [graph.json]",
		Short: "Transitively reduce an exported dependency graph",
		Long: `Transitively reduce an exported dependency graph.

Removes every edge implied by a longer path, preserving reachability.
Edges inside strongly connected components are kept verbatim and tagged
cyclic; they are never pruned. The output is deterministic: the same input
graph always yields byte-identical output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			g, err := graph.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("load graph %s: %w", args[0], err)
			}

			prog := newProgress(logger)
			reduced, err := transform.Reduce(g)
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Reduced %d → %d edges (%d cyclic)",
				g.EdgeCount(), reduced.EdgeCount(), reduced.CyclicEdgeCount()))

			out, err := openOutput(output)
			if err != nil {
				return err
			}
			defer out.Close()

			if err := graph.Write(reduced, out); err != nil {
				return err
			}
			if output != "" {
				printFile(output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	return cmd
}
