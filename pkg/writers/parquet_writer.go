package writers

import (
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/TFMV/salesreport/pkg/core"
)

// ParquetWriter implements a writer for Parquet files.
type ParquetWriter struct {
	out        io.Writer
	closer     io.Closer
	writer     *pqarrow.FileWriter
	properties pqarrow.ArrowWriterProperties
}

// NewParquetWriter creates a new Parquet writer.
func NewParquetWriter(config core.WriterConfig) (core.DatasetWriter, error) {
	out, closer, err := destination(config)
	if err != nil {
		return nil, err
	}
	if closer == nil {
		// pqarrow closes its sink; keep caller-owned streams open.
		out = struct{ io.Writer }{out}
	}

	// The file writer is created with the first record, which carries the schema.
	return &ParquetWriter{
		out:        out,
		closer:     closer,
		properties: pqarrow.NewArrowWriterProperties(),
	}, nil
}

// Write writes a record to the file.
func (w *ParquetWriter) Write(ctx context.Context, record arrow.Record) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if w.writer == nil {
		writeProps := parquet.NewWriterProperties(
			parquet.WithCompression(compress.Codecs.Snappy),
			parquet.WithDictionaryDefault(false),
		)

		writer, err := pqarrow.NewFileWriter(record.Schema(), w.out, writeProps, w.properties)
		if err != nil {
			return fmt.Errorf("failed to create Parquet writer: %w", err)
		}
		w.writer = writer
	}

	if err := w.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Close closes the writer and flushes any pending data.
func (w *ParquetWriter) Close() error {
	var err error

	// pqarrow closes the sink when it is an io.Closer, so an owned file is
	// only closed here when no record was ever written.
	if w.writer != nil {
		err = w.writer.Close()
	} else if w.closer != nil {
		err = w.closer.Close()
	}

	return err
}
