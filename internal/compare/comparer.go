// Package compare checks that two realizations produced the same report.
package compare

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/TFMV/salesreport/pkg/core"
)

// Result summarises the comparison of two reports.
type Result struct {
	Left        string `json:"left"`
	Right       string `json:"right"`
	LeftCount   int    `json:"left_count"`
	RightCount  int    `json:"right_count"`
	CountsMatch bool   `json:"counts_match"`
	Identical   bool   `json:"identical"`
	// Mismatch describes the first difference; empty when Identical.
	Mismatch string `json:"mismatch,omitempty"`
}

// Comparer compares report rows through their Arrow representation.
type Comparer struct {
	alloc memory.Allocator
}

// NewComparer creates a new Comparer.
func NewComparer() *Comparer {
	return &Comparer{alloc: memory.NewGoAllocator()}
}

// Compare reports whether left and right hold the same rows in the same order.
func (c *Comparer) Compare(leftName string, left []core.ReportRow, rightName string, right []core.ReportRow) Result {
	res := Result{
		Left:       leftName,
		Right:      rightName,
		LeftCount:  len(left),
		RightCount: len(right),
	}
	res.CountsMatch = res.LeftCount == res.RightCount

	rec1 := core.RowsToRecord(c.alloc, left)
	defer rec1.Release()
	rec2 := core.RowsToRecord(c.alloc, right)
	defer rec2.Release()

	if err := c.compareRecords(rec1, rec2); err != nil {
		res.Mismatch = err.Error()
		return res
	}
	res.Identical = true
	return res
}

// compareRecords compares two Arrow records column by column.
func (c *Comparer) compareRecords(record1, record2 arrow.Record) error {
	if record1.NumRows() != record2.NumRows() {
		return fmt.Errorf("row count mismatch: %d vs %d", record1.NumRows(), record2.NumRows())
	}
	for i, field := range record1.Schema().Fields() {
		idx := record2.Schema().FieldIndices(field.Name)
		if len(idx) != 1 {
			return fmt.Errorf("column '%s' not found or ambiguous", field.Name)
		}
		if err := c.compareArrays(record1.Column(i), record2.Column(idx[0]), field.Name); err != nil {
			return err
		}
	}
	return nil
}

// compareArrays compares two Arrow arrays value by value.
func (c *Comparer) compareArrays(arr1, arr2 arrow.Array, colName string) error {
	if arr1.Len() != arr2.Len() {
		return fmt.Errorf("column '%s' length mismatch: %d vs %d", colName, arr1.Len(), arr2.Len())
	}

	for i := 0; i < arr1.Len(); i++ {
		if arr1.IsNull(i) && arr2.IsNull(i) {
			continue
		}
		if arr1.IsNull(i) || arr2.IsNull(i) {
			return fmt.Errorf("null mismatch at row %d, column '%s'", i, colName)
		}

		if !valuesEqual(arr1, arr2, i) {
			return fmt.Errorf("value mismatch at row %d, column '%s': %s vs %s",
				i, colName, arr1.ValueStr(i), arr2.ValueStr(i))
		}
	}

	return nil
}

// valuesEqual checks if values at a specific index in two Arrow arrays are equal.
func valuesEqual(arr1, arr2 arrow.Array, idx int) bool {
	switch a1 := arr1.(type) {
	case *array.Int64:
		a2, ok := arr2.(*array.Int64)
		return ok && a1.Value(idx) == a2.Value(idx)
	case *array.Float64:
		a2, ok := arr2.(*array.Float64)
		return ok && a1.Value(idx) == a2.Value(idx)
	case *array.String:
		a2, ok := arr2.(*array.String)
		return ok && a1.Value(idx) == a2.Value(idx)
	case *array.Boolean:
		a2, ok := arr2.(*array.Boolean)
		return ok && a1.Value(idx) == a2.Value(idx)
	default:
		return false
	}
}
