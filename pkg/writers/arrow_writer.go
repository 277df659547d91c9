package writers

import (
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"

	"github.com/TFMV/salesreport/pkg/core"
)

// ArrowWriter implements a writer for Arrow IPC streams.
type ArrowWriter struct {
	out    io.Writer
	closer io.Closer
	writer *ipc.Writer
}

// NewArrowWriter creates a new Arrow IPC writer.
func NewArrowWriter(config core.WriterConfig) (core.DatasetWriter, error) {
	out, closer, err := destination(config)
	if err != nil {
		return nil, err
	}
	return &ArrowWriter{out: out, closer: closer}, nil
}

// Write writes a record to the stream.
func (w *ArrowWriter) Write(ctx context.Context, record arrow.Record) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if w.writer == nil {
		w.writer = ipc.NewWriter(w.out, ipc.WithSchema(record.Schema()))
	}

	if err := w.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Close ends the stream and closes an owned file.
func (w *ArrowWriter) Close() error {
	var err error

	if w.writer != nil {
		if closeErr := w.writer.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if w.closer != nil {
		if closeErr := w.closer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}

	return err
}
