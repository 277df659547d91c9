package store

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// scanRecord drains rows into a record with the given schema.
func scanRecord(rows *sql.Rows, schema *arrow.Schema, alloc memory.Allocator) (arrow.Record, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	positions, err := columnPositions(schema, names)
	if err != nil {
		return nil, err
	}

	b := array.NewRecordBuilder(alloc, schema)
	defer b.Release()

	values := make([]any, len(names))
	scanValues := make([]any, len(names))
	for i := range values {
		scanValues[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanValues...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, pos := range positions {
			if err := appendValue(b.Field(i), values[pos]); err != nil {
				return nil, fmt.Errorf("column %s: %w", schema.Field(i).Name, err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return b.NewRecord(), nil
}

// columnPositions maps every schema field to the index of the result column
// with the same name.
func columnPositions(schema *arrow.Schema, names []string) ([]int, error) {
	positions := make([]int, schema.NumFields())
	for i, f := range schema.Fields() {
		positions[i] = -1
		for j, n := range names {
			if strings.EqualFold(n, f.Name) {
				positions[i] = j
				break
			}
		}
		if positions[i] < 0 {
			return nil, fmt.Errorf("result has no column %q (got %v)", f.Name, names)
		}
	}
	return positions, nil
}

// appendValue appends a driver value to an Arrow builder, converting between
// the numeric and textual representations drivers commonly return.
func appendValue(builder array.Builder, val any) error {
	if val == nil {
		builder.AppendNull()
		return nil
	}

	switch b := builder.(type) {
	case *array.Int64Builder:
		v, err := toInt64(val)
		if err != nil {
			return err
		}
		b.Append(v)
	case *array.Float64Builder:
		v, err := toFloat64(val)
		if err != nil {
			return err
		}
		b.Append(v)
	case *array.StringBuilder:
		switch v := val.(type) {
		case string:
			b.Append(v)
		case []byte:
			b.Append(string(v))
		default:
			b.Append(fmt.Sprint(v))
		}
	case *array.BooleanBuilder:
		switch v := val.(type) {
		case bool:
			b.Append(v)
		case int64:
			b.Append(v != 0)
		default:
			return fmt.Errorf("cannot convert %T to boolean", val)
		}
	default:
		return fmt.Errorf("unsupported builder %T", builder)
	}
	return nil
}

func toInt64(val any) (int64, error) {
	switch v := val.(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", v)
		}
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("value %v is not a whole number", v)
		}
		return int64(v), nil
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to int64", val)
	}
}

func toFloat64(val any) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case []byte:
		return strconv.ParseFloat(string(v), 64)
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		i, err := toInt64(val)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %T to float64", val)
		}
		return float64(i), nil
	}
}
