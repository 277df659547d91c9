package writers

import (
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/csv"

	"github.com/TFMV/salesreport/pkg/core"
)

// Delimiter separates report columns.
const Delimiter = ';'

// CSVWriter renders records as delimited text with a header line.
type CSVWriter struct {
	out    io.Writer
	closer io.Closer
	writer *csv.Writer
}

// NewCSVWriter creates a new delimited-text writer.
func NewCSVWriter(config core.WriterConfig) (core.DatasetWriter, error) {
	out, closer, err := destination(config)
	if err != nil {
		return nil, err
	}
	return &CSVWriter{out: out, closer: closer}, nil
}

// Write writes a record; the header is emitted with the first record.
func (w *CSVWriter) Write(ctx context.Context, record arrow.Record) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if w.writer == nil {
		w.writer = csv.NewWriter(w.out, record.Schema(),
			csv.WithComma(Delimiter),
			csv.WithHeader(true),
		)
	}
	if err := w.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write csv record: %w", err)
	}
	return nil
}

// Close flushes buffered rows and closes an owned file.
func (w *CSVWriter) Close() error {
	var err error
	if w.writer != nil {
		err = w.writer.Flush()
	}
	if w.closer != nil {
		if closeErr := w.closer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}
