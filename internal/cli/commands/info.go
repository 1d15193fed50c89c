package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cartonlabs/carton/archive"
	"github.com/cartonlabs/carton/container"
	"github.com/cartonlabs/carton/internal/cli/config"
)

var (
	outputFormat string
	verbose      bool
	noColor      bool
)

// NewInfoCommand creates the 'info' command.
func NewInfoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <archive>",
		Short: "Summarize the items of an archive",
		Long: `Summarize the items of an archive.

Reads the archive back into a container and prints one row per item with
its type, estimated in-memory size, and shape, sorted by name.`,
		Example: `  # Summarize an archive
  carton info results.db

  # JSON output for tooling
  carton info results.db --format json`,
		Args: cobra.ExactArgs(1),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
		RunE: runInfoCommand,
	}
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "table", "Output format: json or table")
	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log archive operations")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	return cmd
}

func runInfoCommand(cmd *cobra.Command, args []string) error {
	c, err := readArchive(args[0])
	if err != nil {
		return err
	}

	rows := c.Info()
	if outputFormat == "json" {
		out := struct {
			Items    []containerInfoRow `json:"items"`
			TotalMiB float64            `json:"total_mib"`
		}{TotalMiB: c.MemoryUsage()}
		for _, row := range rows {
			out.Items = append(out.Items, containerInfoRow{
				Name: row.Name, Type: row.Type, SizeMiB: row.SizeMiB, Shape: row.Shape,
			})
		}
		enc, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("encode info: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(enc))
		return nil
	}

	header := color.New(color.Bold)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, header.Sprint("NAME\tTYPE\tSIZE\tSHAPE"))
	for _, row := range rows {
		size := humanize.IBytes(uint64(row.SizeMiB * 1024 * 1024))
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", row.Name, row.Type, size, row.Shape)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\ntotal: %s in %d items\n",
		humanize.IBytes(uint64(c.Sizeof())), len(rows))
	return nil
}

type containerInfoRow struct {
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	SizeMiB float64 `json:"size_mib"`
	Shape   string  `json:"shape"`
}

// readArchive loads a container from an archive path using the configured
// defaults.
func readArchive(path string) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	opts := archive.DefaultOptions()
	opts.CompLevel = cfg.Archive.CompLevel
	opts.CompLib = cfg.Archive.CompLib
	opts.Checksum = cfg.Archive.Checksum
	if verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			opts.Logger = logger
		}
	}
	c, err := archive.Read(path, opts)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return c, nil
}
