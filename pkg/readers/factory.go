// Package readers reads report files written by the writers package back into rows.
package readers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/TFMV/salesreport/pkg/core"
	"github.com/TFMV/salesreport/pkg/table"
)

const defaultBatchSize = 10000

// Factory creates a reader based on the given configuration.
type Factory struct {
	// registered readers by type
	readers map[string]Creator
}

// Creator is a function that creates a reader from a configuration.
type Creator func(config core.ReaderConfig) (core.DatasetReader, error)

// NewFactory creates a new reader factory.
func NewFactory() *Factory {
	return &Factory{
		readers: make(map[string]Creator),
	}
}

// Register registers a creator for a reader type.
func (f *Factory) Register(typ string, creator Creator) {
	f.readers[typ] = creator
}

// Create creates a reader based on the given configuration.
func (f *Factory) Create(config core.ReaderConfig) (core.DatasetReader, error) {
	creator, ok := f.readers[config.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported reader type: %s", config.Type)
	}
	return creator(config)
}

// DefaultFactory is the default reader factory with built-in reader types.
var DefaultFactory = NewFactory()

// init registers built-in reader types.
func init() {
	DefaultFactory.Register("csv", NewCSVReader)
	DefaultFactory.Register("parquet", NewParquetReader)
	DefaultFactory.Register("arrow", NewArrowReader)
}

// DetectType infers the reader type from a file extension.
func DetectType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet", ".pq":
		return "parquet"
	case ".arrow", ".ipc", ".feather":
		return "arrow"
	default:
		return "csv"
	}
}

// ReadReport reads every record of the configured file into report rows.
// An empty Type is detected from the path.
func ReadReport(ctx context.Context, config core.ReaderConfig) ([]core.ReportRow, error) {
	if config.Type == "" {
		config.Type = DetectType(config.Path)
	}
	r, err := DefaultFactory.Create(config)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if err := checkReportSchema(r.Schema()); err != nil {
		return nil, fmt.Errorf("%s: %w", config.Path, err)
	}

	rows := []core.ReportRow{}
	for {
		rec, err := r.Read(ctx)
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		// Report files use display headers; decode through the result column names.
		renamed := array.NewRecord(core.ResultSchema, rec.Columns(), rec.NumRows())
		t, err := table.FromRecords[core.ReportRow](renamed)
		renamed.Release()
		if err != nil {
			return nil, err
		}
		rows = append(rows, t.Rows()...)
	}
}

func checkReportSchema(schema *arrow.Schema) error {
	want := core.ReportSchema
	if schema.NumFields() != want.NumFields() {
		return fmt.Errorf("expected %d report columns, found %d", want.NumFields(), schema.NumFields())
	}
	for i, f := range want.Fields() {
		got := schema.Field(i)
		if got.Name != f.Name {
			return fmt.Errorf("column %d: expected %q, found %q", i, f.Name, got.Name)
		}
		if !arrow.TypeEqual(got.Type, f.Type) {
			return fmt.Errorf("column %q: expected type %s, found %s", f.Name, f.Type, got.Type)
		}
	}
	return nil
}
