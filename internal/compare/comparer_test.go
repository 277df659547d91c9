package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TFMV/salesreport/pkg/core"
)

var rows = []core.ReportRow{
	{CustomerID: 1, Age: 21, ItemName: "x", TotalQuantity: 10},
	{CustomerID: 2, Age: 23, ItemName: "y", TotalQuantity: 1},
}

func TestCompareIdentical(t *testing.T) {
	res := NewComparer().Compare("query", rows, "transform", append([]core.ReportRow(nil), rows...))

	assert.True(t, res.Identical)
	assert.True(t, res.CountsMatch)
	assert.Empty(t, res.Mismatch)
	assert.Equal(t, 2, res.LeftCount)
}

func TestCompareValueMismatch(t *testing.T) {
	other := append([]core.ReportRow(nil), rows...)
	other[1].TotalQuantity = 4

	res := NewComparer().Compare("query", rows, "transform", other)

	assert.True(t, res.CountsMatch)
	assert.False(t, res.Identical)
	assert.Contains(t, res.Mismatch, "row 1")
	assert.Contains(t, res.Mismatch, "Quantity")
}

func TestCompareOrderMatters(t *testing.T) {
	swapped := []core.ReportRow{rows[1], rows[0]}

	res := NewComparer().Compare("query", rows, "transform", swapped)

	assert.True(t, res.CountsMatch)
	assert.False(t, res.Identical)
}

func TestCompareCountMismatch(t *testing.T) {
	res := NewComparer().Compare("query", rows, "transform", rows[:1])

	assert.False(t, res.CountsMatch)
	assert.False(t, res.Identical)
	assert.Contains(t, res.Mismatch, "row count mismatch")
}

func TestCompareEmpty(t *testing.T) {
	res := NewComparer().Compare("query", nil, "transform", []core.ReportRow{})
	assert.True(t, res.Identical)
}
