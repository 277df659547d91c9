package readers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/salesreport/pkg/core"
	"github.com/TFMV/salesreport/pkg/writers"
)

var sample = []core.ReportRow{
	{CustomerID: 1, Age: 21, ItemName: "x", TotalQuantity: 10},
	{CustomerID: 2, Age: 23, ItemName: "x", TotalQuantity: 1},
	{CustomerID: 2, Age: 23, ItemName: "a;b", TotalQuantity: 1},
	{CustomerID: 3, Age: 35, ItemName: "z", TotalQuantity: 2},
}

func TestReadReportRoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, typ := range []string{writers.TypeCSV, writers.TypeParquet, writers.TypeArrow} {
		t.Run(typ, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "report"+writers.Extension(typ))
			require.NoError(t, writers.WriteReport(ctx, core.WriterConfig{Type: typ, Path: path}, sample))

			rows, err := ReadReport(ctx, core.ReaderConfig{Path: path})
			require.NoError(t, err)
			assert.Equal(t, sample, rows)
		})
	}
}

func TestReadReportSmallBatches(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, writers.WriteReport(ctx, core.WriterConfig{Type: writers.TypeCSV, Path: path}, sample))

	rows, err := ReadReport(ctx, core.ReaderConfig{Path: path, BatchSize: 1})
	require.NoError(t, err)
	assert.Equal(t, sample, rows)
}

func TestReadEmptyReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, []byte("Customer;Age;Item;Quantity\n"), 0o644))

	rows, err := ReadReport(context.Background(), core.ReaderConfig{Path: path})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadReportRejectsForeignSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "other.arrow")
	rec := core.RowsToRecord(nil, sample)
	defer rec.Release()

	// Columns named after the result fields rather than the report header.
	f, err := os.Create(path)
	require.NoError(t, err)
	w, err := writers.NewArrowWriter(core.WriterConfig{Type: writers.TypeArrow, Output: f})
	require.NoError(t, err)
	require.NoError(t, w.Write(ctx, arrayRecord(t, core.ResultSchema, rec)))
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	_, err = ReadReport(ctx, core.ReaderConfig{Path: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Customer")
}

func TestReadReportErrors(t *testing.T) {
	ctx := context.Background()

	_, err := ReadReport(ctx, core.ReaderConfig{Path: filepath.Join(t.TempDir(), "missing.csv")})
	assert.Error(t, err)

	_, err = ReadReport(ctx, core.ReaderConfig{Type: "xlsx", Path: "report.xlsx"})
	assert.ErrorContains(t, err, "unsupported reader type")
}

func TestDetectType(t *testing.T) {
	assert.Equal(t, "parquet", DetectType("a/b/report.parquet"))
	assert.Equal(t, "arrow", DetectType("report.ARROW"))
	assert.Equal(t, "csv", DetectType("sales_report_sql.csv"))
	assert.Equal(t, "csv", DetectType("noext"))
}

func arrayRecord(t *testing.T, schema *arrow.Schema, rec arrow.Record) arrow.Record {
	t.Helper()
	out := array.NewRecord(schema, rec.Columns(), rec.NumRows())
	t.Cleanup(out.Release)
	return out
}
