package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/TFMV/salesreport/internal/compare"
	"github.com/TFMV/salesreport/pkg/core"
	"github.com/TFMV/salesreport/pkg/readers"
)

// errReportsDiffer makes the diff command exit non-zero.
var errReportsDiffer = errors.New("reports differ")

// DiffOptions represents the options for the diff command.
type DiffOptions struct {
	SourcePath string
	TargetPath string
	SourceType string
	TargetType string
	JSON       bool
}

// newDiffCommand creates a new diff command.
func newDiffCommand() *cobra.Command {
	options := &DiffOptions{}

	cmd := &cobra.Command{
		Use:   "diff [flags] SOURCE TARGET",
		Short: "Compare two report files",
		Long: `The diff command reads two report files (csv, parquet or arrow) and checks
that they hold the same rows in the same order, e.g.

  salesreport diff sales_report_sql.csv sales_report_transform.csv`,
		Args: cobra.ExactArgs(2),
		// Report files need no store configuration.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			options.SourcePath = args[0]
			options.TargetPath = args[1]
			return runDiff(cmd, options)
		},
	}

	cmd.Flags().StringVar(&options.SourceType, "source-type", "", "Source file type (csv, parquet, arrow); detected from the extension by default")
	cmd.Flags().StringVar(&options.TargetType, "target-type", "", "Target file type (csv, parquet, arrow); detected from the extension by default")
	cmd.Flags().BoolVar(&options.JSON, "json", false, "Print the comparison as JSON")

	return cmd
}

// runDiff executes the diff command with the given options.
func runDiff(cmd *cobra.Command, options *DiffOptions) error {
	ctx := cmd.Context()

	source, err := readers.ReadReport(ctx, core.ReaderConfig{Type: options.SourceType, Path: options.SourcePath})
	if err != nil {
		return fmt.Errorf("failed to read source: %w", err)
	}
	target, err := readers.ReadReport(ctx, core.ReaderConfig{Type: options.TargetType, Path: options.TargetPath})
	if err != nil {
		return fmt.Errorf("failed to read target: %w", err)
	}

	result := compare.NewComparer().Compare(options.SourcePath, source, options.TargetPath, target)

	out := cmd.OutOrStdout()
	if options.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printDiffSummary(out, result)
	}

	if !result.Identical {
		return errReportsDiffer
	}
	return nil
}

// printDiffSummary prints a summary of the comparison.
func printDiffSummary(w io.Writer, r compare.Result) {
	fmt.Fprintln(w, "Diff Summary:")
	fmt.Fprintf(w, "  %s: %d rows\n", r.Left, r.LeftCount)
	fmt.Fprintf(w, "  %s: %d rows\n", r.Right, r.RightCount)
	if r.Identical {
		color.New(color.FgGreen).Fprintln(w, "  IDENTICAL")
		return
	}
	color.New(color.FgRed).Fprintf(w, "  DIFFERENT: %s\n", r.Mismatch)
}
