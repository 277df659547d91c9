// Package report runs the sales report realizations, writes their output and
// checks that they agree.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TFMV/salesreport/internal/compare"
	"github.com/TFMV/salesreport/logger"
	"github.com/TFMV/salesreport/metrics"
	"github.com/TFMV/salesreport/pkg/core"
	"github.com/TFMV/salesreport/pkg/engine"
	"github.com/TFMV/salesreport/pkg/store"
	"github.com/TFMV/salesreport/pkg/writers"
)

// ErrMismatch is returned when both realizations succeed but disagree.
var ErrMismatch = errors.New("realizations produced different reports")

// Options controls a run.
type Options struct {
	Ages     core.AgeRange
	OutDir   string
	Format   string
	Parallel bool
	// Engines defaults to engine.Kinds.
	Engines []string
	// Stdout receives reports when OutDir is "-"; nil means os.Stdout.
	Stdout io.Writer
}

// Outcome is the result of one realization.
type Outcome struct {
	Engine   string
	Rows     []core.ReportRow
	Path     string
	Duration time.Duration
	Err      error
}

// Runner executes realizations against a single store.
type Runner struct {
	store    store.Store
	metrics  *metrics.Collector
	comparer *compare.Comparer
	factory  *writers.Factory
}

// NewRunner creates a Runner. collector may be nil.
func NewRunner(s store.Store, collector *metrics.Collector) *Runner {
	return &Runner{
		store:    s,
		metrics:  collector,
		comparer: compare.NewComparer(),
		factory:  writers.DefaultFactory,
	}
}

// FileName returns the output file name for a realization.
func FileName(kind, format string) string {
	suffix := kind
	if kind == engine.KindQuery {
		suffix = "sql"
	}
	return "sales_report_" + suffix + writers.Extension(format)
}

// Run executes every requested realization. Realizations are independent: a
// failure in one never prevents the other from producing its output. The
// returned error joins every realization failure, or is ErrMismatch.
func (r *Runner) Run(ctx context.Context, opts Options) (*metrics.RunSummary, []Outcome, error) {
	if err := opts.Ages.Validate(); err != nil {
		return nil, nil, err
	}
	if opts.Format == "" {
		opts.Format = writers.TypeCSV
	}
	if !r.factory.Supports(opts.Format) {
		return nil, nil, fmt.Errorf("unsupported output format: %s", opts.Format)
	}
	if opts.OutDir == writers.StdoutPath {
		// Reports sharing stdout must not interleave.
		opts.Parallel = false
	}
	kinds := opts.Engines
	if len(kinds) == 0 {
		kinds = engine.Kinds
	}

	summary := &metrics.RunSummary{
		StartTime: time.Now().UTC(),
		Backend:   r.store.Backend(),
		AgeRange:  opts.Ages.String(),
	}

	outcomes := make([]Outcome, len(kinds))
	if opts.Parallel {
		var g errgroup.Group
		for i, kind := range kinds {
			g.Go(func() error {
				outcomes[i] = r.runOne(ctx, kind, opts)
				return outcomes[i].Err
			})
		}
		// Individual failures are collected from outcomes below.
		_ = g.Wait()
	} else {
		for i, kind := range kinds {
			outcomes[i] = r.runOne(ctx, kind, opts)
		}
	}

	var errs []error
	for _, o := range outcomes {
		res := metrics.EngineResult{
			Engine:   o.Engine,
			Rows:     len(o.Rows),
			Output:   o.Path,
			Duration: o.Duration,
		}
		if o.Err != nil {
			res.Error = o.Err.Error()
			errs = append(errs, fmt.Errorf("%s: %w", o.Engine, o.Err))
		}
		summary.Engines = append(summary.Engines, res)
	}

	if len(errs) == 0 && len(outcomes) == 2 {
		res := r.comparer.Compare(outcomes[0].Engine, outcomes[0].Rows, outcomes[1].Engine, outcomes[1].Rows)
		summary.Comparison = &res
		if !res.Identical {
			if r.metrics != nil {
				r.metrics.RecordMismatch()
			}
			logger.GetLogger().Warn("Realizations disagree", zap.String("mismatch", res.Mismatch))
			errs = append(errs, fmt.Errorf("%w: %s", ErrMismatch, res.Mismatch))
		}
	}

	summary.EndTime = time.Now().UTC()
	return summary, outcomes, errors.Join(errs...)
}

func (r *Runner) runOne(ctx context.Context, kind string, opts Options) Outcome {
	log := logger.GetLogger().With(zap.String("engine", kind))
	out := Outcome{Engine: kind}
	start := time.Now()
	defer func() {
		out.Duration = time.Since(start)
		if r.metrics != nil {
			r.metrics.RecordRun(kind, out.Err, len(out.Rows), out.Duration)
		}
	}()

	computer, err := engine.New(kind, r.store)
	if err != nil {
		out.Err = err
		return out
	}

	rows, err := computer.Compute(ctx, opts.Ages)
	if err != nil {
		log.Error("Report computation failed", zap.Error(err))
		out.Err = err
		return out
	}
	out.Rows = rows

	wc := core.WriterConfig{Type: opts.Format, Path: writers.StdoutPath, Output: opts.Stdout}
	if opts.OutDir != writers.StdoutPath {
		wc = core.WriterConfig{Type: opts.Format, Path: filepath.Join(opts.OutDir, FileName(kind, opts.Format))}
	}
	path := wc.Path
	if err := writers.WriteReport(ctx, wc, rows); err != nil {
		log.Error("Writing report failed", zap.String("path", path), zap.Error(err))
		out.Err = err
		return out
	}
	out.Path = path
	log.Info("Report written", zap.String("path", path), zap.Int("rows", len(rows)))
	return out
}
