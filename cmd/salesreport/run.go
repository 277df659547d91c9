package main

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/TFMV/salesreport/metrics"
	"github.com/TFMV/salesreport/pkg/store"
	"github.com/TFMV/salesreport/report"
)

// runOptions holds the flags of the run command that are not configuration keys.
type runOptions struct {
	Parallel    bool
	Engines     []string
	SummaryPath string
	HTMLPath    string
	Preview     int
	NoSpinner   bool
}

func addRunFlags(fs *pflag.FlagSet, opts *runOptions) {
	fs.Int64("age-min", 0, "Lower age bound, inclusive (default 18)")
	fs.Int64("age-max", 0, "Upper age bound, inclusive (default 35)")
	fs.String("out-dir", "", "Directory for report files, or - for stdout (default .)")
	fs.StringP("format", "f", "", "Output format (csv, json, parquet, arrow)")
	fs.BoolVar(&opts.Parallel, "parallel", false, "Run both realizations concurrently")
	fs.StringSliceVar(&opts.Engines, "engine", nil, "Realizations to run (query, transform); default both")
	fs.StringVar(&opts.SummaryPath, "summary", "", "Write a JSON run summary to this path")
	fs.StringVar(&opts.HTMLPath, "html", "", "Write an HTML run summary to this path")
	fs.IntVar(&opts.Preview, "preview", 10, "Rows of each report to print; 0 disables the preview")
	fs.BoolVar(&opts.NoSpinner, "no-spinner", false, "Disable the progress spinner")
}

func newRunCommand(a *app) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compute the report with both realizations (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runReport(cmd, opts)
		},
	}
	addRunFlags(cmd.Flags(), opts)
	return cmd
}

func (a *app) runReport(cmd *cobra.Command, opts *runOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	s, err := store.Open(ctx, a.cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	var spin *spinner.Spinner
	if !opts.NoSpinner && a.cfg.Output.Dir != "-" {
		spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
		spin.Suffix = " computing sales report"
		spin.Start()
	}

	runner := report.NewRunner(s, metrics.NewCollector())
	summary, outcomes, runErr := runner.Run(ctx, report.Options{
		Ages:     a.cfg.Report,
		OutDir:   a.cfg.Output.Dir,
		Format:   a.cfg.Output.Format,
		Parallel: opts.Parallel,
		Engines:  opts.Engines,
		Stdout:   out,
	})
	if spin != nil {
		spin.Stop()
	}
	if summary == nil {
		return runErr
	}
	summary.Store = a.cfg.Store.Path

	// Previews would corrupt reports streamed to stdout.
	if a.cfg.Output.Dir != "-" {
		for _, o := range outcomes {
			printOutcome(out, o, opts.Preview)
		}
		printVerdict(out, summary)
	}

	if opts.SummaryPath != "" {
		if err := (&metrics.JSONSummaryStore{FilePath: opts.SummaryPath}).SaveWithContext(ctx, *summary); err != nil {
			return fmt.Errorf("saving run summary: %w", err)
		}
	}
	if opts.HTMLPath != "" {
		if err := report.SaveHTML(*summary, opts.HTMLPath); err != nil {
			return fmt.Errorf("saving HTML summary: %w", err)
		}
	}
	return runErr
}

func printOutcome(w io.Writer, o report.Outcome, limit int) {
	if o.Err != nil {
		color.New(color.FgRed).Fprintf(w, "%s failed: %v\n", o.Engine, o.Err)
		return
	}
	fmt.Fprintf(w, "%s: %d rows -> %s (%s)\n", o.Engine, len(o.Rows), o.Path, o.Duration.Round(time.Microsecond))
	if limit <= 0 || len(o.Rows) == 0 {
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Customer", "Age", "Item", "Quantity"})
	for i, r := range o.Rows {
		if i == limit {
			tw.AppendFooter(table.Row{"", "", "...", fmt.Sprintf("%d more", len(o.Rows)-limit)})
			break
		}
		tw.AppendRow(table.Row{r.CustomerID, r.Age, r.ItemName, r.TotalQuantity})
	}
	tw.Render()
}

func printVerdict(w io.Writer, summary *metrics.RunSummary) {
	c := summary.Comparison
	switch {
	case c == nil:
		return
	case c.Identical:
		color.New(color.FgGreen, color.Bold).Fprintf(w, "IDENTICAL: %s and %s agree on %d rows\n", c.Left, c.Right, c.LeftCount)
	default:
		color.New(color.FgRed, color.Bold).Fprintf(w, "DIFFERENT: %s\n", c.Mismatch)
	}
}

