// Package writers provides report sinks for the supported output formats.
package writers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/TFMV/salesreport/pkg/core"
)

// Output formats.
const (
	TypeCSV     = "csv"
	TypeJSON    = "json"
	TypeParquet = "parquet"
	TypeArrow   = "arrow"
)

// Factory creates a writer based on the given configuration.
type Factory struct {
	// registered writers by type
	writers map[string]Creator
}

// Creator is a function that creates a writer from a configuration.
type Creator func(config core.WriterConfig) (core.DatasetWriter, error)

// NewFactory creates a new writer factory.
func NewFactory() *Factory {
	return &Factory{
		writers: make(map[string]Creator),
	}
}

// Register registers a creator for a writer type.
func (f *Factory) Register(typ string, creator Creator) {
	f.writers[typ] = creator
}

// Supports reports whether typ has a registered writer.
func (f *Factory) Supports(typ string) bool {
	_, ok := f.writers[typ]
	return ok
}

// Create creates a writer based on the given configuration.
func (f *Factory) Create(config core.WriterConfig) (core.DatasetWriter, error) {
	creator, ok := f.writers[config.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported writer type: %s", config.Type)
	}
	return creator(config)
}

// DefaultFactory is the default writer factory with built-in writer types.
var DefaultFactory = NewFactory()

// StdoutPath selects standard output as the destination.
const StdoutPath = "-"

// init registers built-in writer types.
func init() {
	DefaultFactory.Register(TypeCSV, NewCSVWriter)
	DefaultFactory.Register(TypeJSON, NewJSONWriter)
	DefaultFactory.Register(TypeParquet, NewParquetWriter)
	DefaultFactory.Register(TypeArrow, NewArrowWriter)
}

// Extension returns the file extension for an output format.
func Extension(typ string) string {
	if typ == TypeArrow {
		return ".arrow"
	}
	return "." + typ
}

// WriteReport renders rows with the writer selected by config.
// Any failure is reported as a *core.IOWriteError.
func WriteReport(ctx context.Context, config core.WriterConfig, rows []core.ReportRow) error {
	return writeReport(ctx, DefaultFactory, config, rows)
}

func writeReport(ctx context.Context, f *Factory, config core.WriterConfig, rows []core.ReportRow) error {
	w, err := f.Create(config)
	if err != nil {
		return asWriteError(config, err)
	}

	record := core.RowsToRecord(nil, rows)
	defer record.Release()

	if err := w.Write(ctx, record); err != nil {
		w.Close()
		return asWriteError(config, err)
	}
	if err := w.Close(); err != nil {
		return asWriteError(config, err)
	}
	return nil
}

func asWriteError(config core.WriterConfig, err error) error {
	if _, ok := err.(*core.IOWriteError); ok {
		return err
	}
	return &core.IOWriteError{Path: config.Destination(), Err: err}
}

// destination resolves where a writer sends its bytes. The returned closer
// is nil for caller-owned streams.
func destination(config core.WriterConfig) (io.Writer, io.Closer, error) {
	if config.Output != nil {
		return config.Output, nil, nil
	}
	if config.Path == "" {
		return nil, nil, fmt.Errorf("path is required for %s writer", config.Type)
	}
	if config.Path == StdoutPath {
		return os.Stdout, nil, nil
	}
	file, err := os.Create(config.Path)
	if err != nil {
		return nil, nil, &core.IOWriteError{Path: config.Path, Err: err}
	}
	return file, file, nil
}
