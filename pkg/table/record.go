package table

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// ErrMissingColumn is returned when a struct field has no matching column.
var ErrMissingColumn = errors.New("column not found")

// FromRecords decodes Arrow records into a typed table.
//
// Each exported field of T is read from the column named by its `arrow` tag,
// or by the field name when the tag is absent. Pointer fields stay nil for
// null values; other fields keep their zero value.
func FromRecords[T any](records ...arrow.Record) (*Table[T], error) {
	var zero T
	rowType := reflect.TypeOf(zero)
	if rowType == nil || rowType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("table: %v is not a struct type", rowType)
	}

	var total int64
	for _, rec := range records {
		total += rec.NumRows()
	}
	rows := make([]T, 0, total)

	for _, rec := range records {
		cols, err := fieldColumns(rowType, rec)
		if err != nil {
			return nil, err
		}
		for i := 0; i < int(rec.NumRows()); i++ {
			var row T
			rowVal := reflect.ValueOf(&row).Elem()
			for j, col := range cols {
				if col == nil {
					continue
				}
				if err := setValue(rowVal.Field(j), col, i); err != nil {
					return nil, fmt.Errorf("table: field %s row %d: %w", rowType.Field(j).Name, i, err)
				}
			}
			rows = append(rows, row)
		}
	}
	return &Table[T]{rows: rows}, nil
}

// fieldColumns resolves the column backing each struct field of rowType.
// Unexported fields map to nil.
func fieldColumns(rowType reflect.Type, rec arrow.Record) ([]arrow.Array, error) {
	cols := make([]arrow.Array, rowType.NumField())
	for j := 0; j < rowType.NumField(); j++ {
		field := rowType.Field(j)
		if !field.IsExported() {
			continue
		}
		name := field.Tag.Get("arrow")
		if name == "" {
			name = field.Name
		}
		indices := rec.Schema().FieldIndices(name)
		if len(indices) != 1 {
			return nil, fmt.Errorf("table: %w: %s", ErrMissingColumn, name)
		}
		cols[j] = rec.Column(indices[0])
	}
	return cols, nil
}

func setValue(field reflect.Value, col arrow.Array, idx int) error {
	if col.IsNull(idx) {
		return nil
	}
	if field.Kind() == reflect.Ptr {
		elem := reflect.New(field.Type().Elem())
		if err := setValue(elem.Elem(), col, idx); err != nil {
			return err
		}
		field.Set(elem)
		return nil
	}

	switch arr := col.(type) {
	case *array.Boolean:
		if field.Kind() != reflect.Bool {
			return fmt.Errorf("cannot store bool in %s", field.Kind())
		}
		field.SetBool(arr.Value(idx))
	case *array.Float32:
		return setFloat(field, float64(arr.Value(idx)))
	case *array.Float64:
		return setFloat(field, arr.Value(idx))
	case *array.Int8:
		return setInt(field, int64(arr.Value(idx)))
	case *array.Int16:
		return setInt(field, int64(arr.Value(idx)))
	case *array.Int32:
		return setInt(field, int64(arr.Value(idx)))
	case *array.Int64:
		return setInt(field, arr.Value(idx))
	case *array.Uint8:
		return setInt(field, int64(arr.Value(idx)))
	case *array.Uint16:
		return setInt(field, int64(arr.Value(idx)))
	case *array.Uint32:
		return setInt(field, int64(arr.Value(idx)))
	case *array.Uint64:
		return setInt(field, int64(arr.Value(idx)))
	case *array.String:
		return setString(field, arr.Value(idx))
	case *array.LargeString:
		return setString(field, arr.Value(idx))
	default:
		return errors.New("unsupported type " + col.DataType().String())
	}
	return nil
}

// setInt stores an integer column value into an integer or float field.
func setInt(field reflect.Value, v int64) error {
	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		field.SetInt(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		field.SetUint(uint64(v))
	case reflect.Float32, reflect.Float64:
		field.SetFloat(float64(v))
	default:
		return fmt.Errorf("cannot store integer in %s", field.Kind())
	}
	return nil
}

// setFloat stores a float column value. Integer fields only accept whole numbers.
func setFloat(field reflect.Value, v float64) error {
	switch field.Kind() {
	case reflect.Float32, reflect.Float64:
		field.SetFloat(v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v != float64(int64(v)) {
			return fmt.Errorf("value %v has a fractional part", v)
		}
		field.SetInt(int64(v))
	default:
		return fmt.Errorf("cannot store float in %s", field.Kind())
	}
	return nil
}

func setString(field reflect.Value, v string) error {
	if field.Kind() != reflect.String {
		return fmt.Errorf("cannot store string in %s", field.Kind())
	}
	field.SetString(v)
	return nil
}
