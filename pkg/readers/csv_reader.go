package readers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/TFMV/salesreport/pkg/core"
)

// CSVReader reads semicolon-delimited report files.
type CSVReader struct {
	file   *os.File
	reader *csv.Reader
}

// NewCSVReader creates a new CSV reader.
func NewCSVReader(config core.ReaderConfig) (core.DatasetReader, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for CSV reader")
	}

	file, err := os.Open(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}

	chunkSize := config.BatchSize
	if chunkSize <= 0 {
		chunkSize = defaultBatchSize
	}

	reader := csv.NewReader(
		file,
		core.ReportSchema,
		csv.WithComma(';'),
		csv.WithChunk(int(chunkSize)),
		csv.WithHeader(true),
		csv.WithAllocator(memory.NewGoAllocator()),
	)

	return &CSVReader{file: file, reader: reader}, nil
}

// Read returns the next batch of records.
func (r *CSVReader) Read(ctx context.Context) (arrow.Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if !r.reader.Next() {
		if err := r.reader.Err(); err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		return nil, io.EOF
	}
	return r.reader.Record(), nil
}

// Schema returns the schema of the CSV data.
func (r *CSVReader) Schema() *arrow.Schema {
	return r.reader.Schema()
}

// Close releases resources associated with the reader.
func (r *CSVReader) Close() error {
	r.reader.Release()
	return r.file.Close()
}
