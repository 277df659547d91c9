package readers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/TFMV/salesreport/pkg/core"
)

// ArrowReader reads Arrow IPC stream files.
type ArrowReader struct {
	reader *ipc.Reader
	file   *os.File
}

// NewArrowReader creates a new Arrow IPC reader.
func NewArrowReader(config core.ReaderConfig) (core.DatasetReader, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for Arrow reader")
	}

	file, err := os.Open(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Arrow file: %w", err)
	}

	reader, err := ipc.NewReader(file, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create Arrow stream reader: %w", err)
	}

	return &ArrowReader{reader: reader, file: file}, nil
}

// Read returns the next batch of records.
func (r *ArrowReader) Read(ctx context.Context) (arrow.Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if !r.reader.Next() {
		if err := r.reader.Err(); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read Arrow stream: %w", err)
		}
		return nil, io.EOF
	}
	return r.reader.Record(), nil
}

// Schema returns the schema of the Arrow data.
func (r *ArrowReader) Schema() *arrow.Schema {
	return r.reader.Schema()
}

// Close releases resources associated with the reader.
func (r *ArrowReader) Close() error {
	r.reader.Release()
	return r.file.Close()
}
