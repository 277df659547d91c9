package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/TFMV/salesreport/logger"
	"github.com/TFMV/salesreport/pkg/core"
	"github.com/TFMV/salesreport/pkg/store"
	"github.com/TFMV/salesreport/pkg/table"
)

// Ensure QueryComputer implements ReportComputer.
var _ core.ReportComputer = (*QueryComputer)(nil)

// ReportQuery computes the whole report inside the store. The two
// placeholders are the inclusive age bounds. The sum is cast to BIGINT so
// every backend returns a plain integer.
const ReportQuery = `
SELECT
    c.customer_id,
    c.age,
    i.item_name,
    CAST(SUM(o.quantity) AS BIGINT) AS total_quantity
FROM Customer c
INNER JOIN Sales s ON c.customer_id = s.customer_id
INNER JOIN Orders o ON s.sales_id = o.sales_id
INNER JOIN Items i ON o.item_id = i.item_id
WHERE c.age BETWEEN ? AND ?
  AND o.quantity IS NOT NULL
GROUP BY c.customer_id, c.age, i.item_name
HAVING SUM(o.quantity) > 0
ORDER BY c.customer_id, i.item_name`

// QueryComputer delegates the aggregation to the store's query engine.
type QueryComputer struct {
	store store.Store
}

// NewQueryComputer creates a query-based computer running against s.
func NewQueryComputer(s store.Store) *QueryComputer {
	return &QueryComputer{store: s}
}

// Name returns KindQuery.
func (c *QueryComputer) Name() string {
	return KindQuery
}

// Compute runs ReportQuery and decodes its result.
func (c *QueryComputer) Compute(ctx context.Context, ages core.AgeRange) ([]core.ReportRow, error) {
	if err := ages.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	if err := store.CheckSchema(ctx, c.store); err != nil {
		return nil, err
	}

	rec, err := c.store.Query(ctx, core.ResultSchema, ReportQuery, ages.Min, ages.Max)
	if err != nil {
		return nil, err
	}
	defer rec.Release()

	tbl, err := table.FromRecords[core.ReportRow](rec)
	if err != nil {
		return nil, core.NewDataAccessError("decode report", err)
	}
	rows := tbl.Rows()

	logger.GetLogger().Info("query report computed",
		zap.String("engine", KindQuery),
		zap.String("backend", c.store.Backend()),
		zap.Stringer("ages", ages),
		zap.Int("rows", len(rows)),
		zap.Duration("elapsed", time.Since(start)))
	return rows, nil
}
