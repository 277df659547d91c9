package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// conformRecord selects the schema's columns from rec by name and casts each
// to the schema's type. The result is a new record owned by the caller.
func conformRecord(ctx context.Context, alloc memory.Allocator, rec arrow.Record, schema *arrow.Schema) (arrow.Record, error) {
	names := make([]string, rec.NumCols())
	for i := range names {
		names[i] = rec.ColumnName(i)
	}
	positions, err := columnPositions(schema, names)
	if err != nil {
		return nil, err
	}

	ctx = compute.WithAllocator(ctx, alloc)
	cols := make([]arrow.Array, len(positions))
	defer func() {
		for _, c := range cols {
			if c != nil {
				c.Release()
			}
		}
	}()

	for i, pos := range positions {
		col := rec.Column(pos)
		want := schema.Field(i).Type
		if arrow.TypeEqual(col.DataType(), want) {
			col.Retain()
			cols[i] = col
			continue
		}
		cast, err := compute.CastArray(ctx, col, compute.SafeCastOptions(want))
		if err != nil {
			return nil, fmt.Errorf("cast column %s from %s to %s: %w",
				schema.Field(i).Name, col.DataType(), want, err)
		}
		cols[i] = cast
	}

	return array.NewRecord(schema, cols, rec.NumRows()), nil
}

// concatRecords joins batches sharing schema into a single record.
func concatRecords(alloc memory.Allocator, schema *arrow.Schema, batches []arrow.Record) (arrow.Record, error) {
	if len(batches) == 0 {
		b := array.NewRecordBuilder(alloc, schema)
		defer b.Release()
		return b.NewRecord(), nil
	}
	if len(batches) == 1 {
		batches[0].Retain()
		return batches[0], nil
	}

	var rows int64
	cols := make([]arrow.Array, schema.NumFields())
	defer func() {
		for _, c := range cols {
			if c != nil {
				c.Release()
			}
		}
	}()
	for i := range cols {
		parts := make([]arrow.Array, len(batches))
		for j, b := range batches {
			parts[j] = b.Column(i)
		}
		col, err := array.Concatenate(parts, alloc)
		if err != nil {
			return nil, fmt.Errorf("concatenate column %s: %w", schema.Field(i).Name, err)
		}
		cols[i] = col
	}
	for _, b := range batches {
		rows += b.NumRows()
	}
	return array.NewRecord(schema, cols, rows), nil
}

// hasColumn reports whether name appears in cols, ignoring case.
func hasColumn(cols []string, name string) bool {
	for _, c := range cols {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}
