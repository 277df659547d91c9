package writers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/TFMV/salesreport/pkg/core"
)

// JSONWriter renders records as a JSON array of objects keyed by column name.
type JSONWriter struct {
	out      io.Writer
	closer   io.Closer
	encoder  *json.Encoder
	started  bool
	firstRow bool
}

// NewJSONWriter creates a new JSON writer.
func NewJSONWriter(config core.WriterConfig) (core.DatasetWriter, error) {
	out, closer, err := destination(config)
	if err != nil {
		return nil, err
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("  ", "  ")

	return &JSONWriter{
		out:      out,
		closer:   closer,
		encoder:  encoder,
		firstRow: true,
	}, nil
}

func (w *JSONWriter) start() error {
	if w.started {
		return nil
	}
	w.started = true
	if _, err := io.WriteString(w.out, "[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}
	return nil
}

// Write writes a record to the output.
func (w *JSONWriter) Write(ctx context.Context, record arrow.Record) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := w.start(); err != nil {
		return err
	}

	numRows := int(record.NumRows())
	numCols := int(record.NumCols())

	for i := 0; i < numRows; i++ {
		row := make(map[string]interface{}, numCols)

		for j := 0; j < numCols; j++ {
			col := record.Column(j)
			field := record.Schema().Field(j)

			var value interface{}
			if !col.IsNull(i) {
				switch col := col.(type) {
				case *array.Int64:
					value = col.Value(i)
				case *array.Float64:
					value = col.Value(i)
				case *array.String:
					value = col.Value(i)
				case *array.Boolean:
					value = col.Value(i)
				default:
					value = col.ValueStr(i)
				}
			}
			row[field.Name] = value
		}

		if !w.firstRow {
			if _, err := io.WriteString(w.out, ",\n"); err != nil {
				return fmt.Errorf("failed to write comma: %w", err)
			}
		} else {
			w.firstRow = false
		}

		if err := w.encoder.Encode(row); err != nil {
			return fmt.Errorf("failed to encode row: %w", err)
		}
	}

	return nil
}

// Close terminates the array and closes an owned file.
func (w *JSONWriter) Close() error {
	err := w.start()
	if err == nil {
		if _, closeErr := io.WriteString(w.out, "]\n"); closeErr != nil {
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
