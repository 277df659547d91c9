package report

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/salesreport/metrics"
	"github.com/TFMV/salesreport/pkg/core"
	"github.com/TFMV/salesreport/pkg/store"
)

const referenceCSV = "Customer;Age;Item;Quantity\n" +
	"1;21;x;10\n" +
	"2;23;x;1\n" +
	"2;23;y;1\n" +
	"2;23;z;1\n" +
	"3;35;z;2\n"

func openReference(t *testing.T) store.Store {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sales_data.db")
	require.NoError(t, store.SeedFile(ctx, store.BackendSQLite, path, store.ReferenceDataset()))
	s, err := store.Open(ctx, store.Config{Driver: store.BackendSQLite, Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "sales_report_sql.csv", FileName("query", "csv"))
	assert.Equal(t, "sales_report_transform.csv", FileName("transform", "csv"))
	assert.Equal(t, "sales_report_transform.parquet", FileName("transform", "parquet"))
}

func TestRunWritesBothReports(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		name := "sequential"
		if parallel {
			name = "parallel"
		}
		t.Run(name, func(t *testing.T) {
			out := t.TempDir()
			collector := metrics.NewCollector()
			r := NewRunner(openReference(t), collector)

			summary, outcomes, err := r.Run(context.Background(), Options{
				Ages:     core.DefaultAgeRange,
				OutDir:   out,
				Parallel: parallel,
			})
			require.NoError(t, err)
			require.Len(t, outcomes, 2)
			assert.True(t, summary.Passed())
			require.NotNil(t, summary.Comparison)
			assert.True(t, summary.Comparison.Identical)
			assert.Equal(t, "18-35", summary.AgeRange)
			assert.Equal(t, store.BackendSQLite, summary.Backend)

			for _, file := range []string{"sales_report_sql.csv", "sales_report_transform.csv"} {
				data, err := os.ReadFile(filepath.Join(out, file))
				require.NoError(t, err)
				assert.Equal(t, referenceCSV, string(data))
			}

			series, err := testutil.GatherAndCount(collector.Registry(), "salesreport_runs_total")
			require.NoError(t, err)
			assert.Equal(t, 2, series)
		})
	}
}

func TestRunIsIdempotent(t *testing.T) {
	out := t.TempDir()
	r := NewRunner(openReference(t), nil)
	opts := Options{Ages: core.DefaultAgeRange, OutDir: out}

	_, _, err := r.Run(context.Background(), opts)
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(out, "sales_report_sql.csv"))
	require.NoError(t, err)

	_, _, err = r.Run(context.Background(), opts)
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(out, "sales_report_sql.csv"))
	require.NoError(t, err)

	assert.True(t, bytes.Equal(first, second))
}

func TestRunSingleEngineSkipsComparison(t *testing.T) {
	r := NewRunner(openReference(t), nil)
	summary, outcomes, err := r.Run(context.Background(), Options{
		Ages:    core.DefaultAgeRange,
		OutDir:  t.TempDir(),
		Format:  "json",
		Engines: []string{"transform"},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Nil(t, summary.Comparison)
	assert.FileExists(t, outcomes[0].Path)
	assert.Equal(t, "sales_report_transform.json", filepath.Base(outcomes[0].Path))
}

func TestRunRejectsBadOptions(t *testing.T) {
	r := NewRunner(openReference(t), nil)

	_, _, err := r.Run(context.Background(), Options{Ages: core.AgeRange{Min: 40, Max: 20}, OutDir: t.TempDir()})
	assert.Error(t, err)

	_, _, err = r.Run(context.Background(), Options{Ages: core.DefaultAgeRange, OutDir: t.TempDir(), Format: "xlsx"})
	assert.Error(t, err)
}

func TestRunMissingRelationFailsBothIndependently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.db")
	db, err := sql.Open(store.BackendSQLite, path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE Customer (customer_id INTEGER, age INTEGER)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := store.Open(context.Background(), store.Config{Driver: store.BackendSQLite, Path: path})
	require.NoError(t, err)
	defer s.Close()

	out := t.TempDir()
	collector := metrics.NewCollector()
	summary, outcomes, err := NewRunner(s, collector).Run(context.Background(), Options{
		Ages:   core.DefaultAgeRange,
		OutDir: out,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrSchema))
	assert.False(t, summary.Passed())
	assert.Nil(t, summary.Comparison)
	for _, o := range outcomes {
		assert.Error(t, o.Err, o.Engine)
		assert.Empty(t, o.Path)
	}

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries, "no partial output is written")
}

func TestRunUnwritableOutput(t *testing.T) {
	r := NewRunner(openReference(t), nil)
	_, outcomes, err := r.Run(context.Background(), Options{
		Ages:   core.DefaultAgeRange,
		OutDir: filepath.Join(t.TempDir(), "missing", "dir"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrIOWrite))
	for _, o := range outcomes {
		assert.Len(t, o.Rows, 5, "computation succeeds before the write fails")
	}
}

func TestRenderHTML(t *testing.T) {
	var buf bytes.Buffer
	run := metrics.RunSummary{
		Backend:  "sqlite3",
		AgeRange: "18-35",
		Engines: []metrics.EngineResult{
			{Engine: "query", Rows: 5},
			{Engine: "transform", Error: "relation Orders is missing"},
		},
	}
	require.NoError(t, RenderHTML(&buf, run))

	html := buf.String()
	assert.Contains(t, html, "18-35")
	assert.Contains(t, html, "relation Orders is missing")
	assert.Contains(t, html, "Not compared.")

	path := filepath.Join(t.TempDir(), "run.html")
	require.NoError(t, SaveHTML(run, path))
	assert.FileExists(t, path)
}
