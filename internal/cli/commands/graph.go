package commands

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewGraphCommand creates the 'graph' command.
func NewGraphCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph <archive>",
		Short: "Show inferred relationships between an archive's tables",
		Long: `Show inferred relationships between an archive's tables.

Tables whose index label appears among another table's column labels are
related, the way a primary key relates to a foreign key. The relationships
are heuristic and descriptive only; nothing enforces them.`,
		Example: `  # Show the relationship graph
  carton graph results.db

  # JSON output for tooling
  carton graph results.db --format json`,
		Args: cobra.ExactArgs(1),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
		RunE: runGraphCommand,
	}
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "table", "Output format: json or table")
	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log archive operations")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	return cmd
}

func runGraphCommand(cmd *cobra.Command, args []string) error {
	c, err := readArchive(args[0])
	if err != nil {
		return err
	}

	g := c.Network()
	if outputFormat == "json" {
		enc, err := json.MarshalIndent(g, "", "  ")
		if err != nil {
			return fmt.Errorf("encode graph: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(enc))
		return nil
	}

	header := color.New(color.Bold)
	fmt.Fprintln(cmd.OutOrStdout(), header.Sprintf("tables (%d)", len(g.Nodes)))
	for _, node := range g.Nodes {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", node)
	}
	fmt.Fprintln(cmd.OutOrStdout(), header.Sprintf("relationships (%d)", len(g.Edges)))
	for _, edge := range g.Edges {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s <-> %s\n", edge[0], edge[1])
	}
	return nil
}
