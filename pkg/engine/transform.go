package engine

import (
	"cmp"
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/TFMV/salesreport/logger"
	"github.com/TFMV/salesreport/pkg/core"
	"github.com/TFMV/salesreport/pkg/store"
	"github.com/TFMV/salesreport/pkg/table"
)

// Ensure TransformComputer implements ReportComputer.
var _ core.ReportComputer = (*TransformComputer)(nil)

// TransformComputer loads the relations into typed tables and aggregates
// them in memory.
type TransformComputer struct {
	store store.Store
}

// NewTransformComputer creates a transform-based computer reading from s.
func NewTransformComputer(s store.Store) *TransformComputer {
	return &TransformComputer{store: s}
}

// Name returns KindTransform.
func (c *TransformComputer) Name() string {
	return KindTransform
}

// Compute loads a snapshot of the relations and runs the transform pipeline.
func (c *TransformComputer) Compute(ctx context.Context, ages core.AgeRange) ([]core.ReportRow, error) {
	if err := ages.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	rel, err := store.Load(ctx, c.store)
	if err != nil {
		return nil, err
	}
	rows := Compute(rel, ages)

	logger.GetLogger().Info("transform report computed",
		zap.String("engine", KindTransform),
		zap.Stringer("ages", ages),
		zap.Int("rows", len(rows)),
		zap.Duration("elapsed", time.Since(start)))
	return rows, nil
}

// saleOwner is a sale joined to its in-range customer.
type saleOwner struct {
	SalesID    int64
	CustomerID int64
	Age        int64
}

// purchaseLine is a purchased order line joined to its sale's owner.
type purchaseLine struct {
	CustomerID int64
	Age        int64
	ItemID     int64
	Quantity   int64
}

// groupKey identifies one report row.
type groupKey struct {
	CustomerID int64
	Age        int64
	ItemName   string
}

// Compute aggregates a snapshot of the relations into report rows:
// select in-range customers, join their sales, drop unpurchased order lines,
// join the remaining lines to sales and items, sum quantities per
// (customer, age, item), keep positive sums and sort by customer then item.
func Compute(rel *core.Relations, ages core.AgeRange) []core.ReportRow {
	customers := table.New(rel.Customers...).
		Filter(func(c core.Customer) bool { return ages.Contains(c.Age) })

	owners := table.Join(table.New(rel.Sales...), customers,
		func(s core.Sale) int64 { return s.CustomerID },
		func(c core.Customer) int64 { return c.CustomerID },
		func(s core.Sale, c core.Customer) saleOwner {
			return saleOwner{SalesID: s.SalesID, CustomerID: c.CustomerID, Age: c.Age}
		})

	purchased := table.New(rel.Orders...).Filter(core.OrderLine.Purchased)

	lines := table.Join(purchased, owners,
		func(o core.OrderLine) int64 { return o.SalesID },
		func(s saleOwner) int64 { return s.SalesID },
		func(o core.OrderLine, s saleOwner) purchaseLine {
			return purchaseLine{CustomerID: s.CustomerID, Age: s.Age, ItemID: o.ItemID, Quantity: *o.Quantity}
		})

	named := table.Join(lines, table.New(rel.Items...),
		func(l purchaseLine) int64 { return l.ItemID },
		func(i core.Item) int64 { return i.ItemID },
		func(l purchaseLine, i core.Item) core.ReportRow {
			return core.ReportRow{CustomerID: l.CustomerID, Age: l.Age, ItemName: i.ItemName, TotalQuantity: l.Quantity}
		})

	totals := table.GroupBy(named,
		func(r core.ReportRow) groupKey { return groupKey{r.CustomerID, r.Age, r.ItemName} },
		int64(0),
		func(sum int64, r core.ReportRow) int64 { return sum + r.TotalQuantity })

	positive := totals.Filter(func(g table.Group[groupKey, int64]) bool { return g.Value > 0 })

	report := table.Map(positive, func(g table.Group[groupKey, int64]) core.ReportRow {
		return core.ReportRow{
			CustomerID:    g.Key.CustomerID,
			Age:           g.Key.Age,
			ItemName:      g.Key.ItemName,
			TotalQuantity: g.Value,
		}
	})

	return report.SortBy(CompareRows).Rows()
}

// CompareRows orders report rows by customer id, then item name.
func CompareRows(a, b core.ReportRow) int {
	if c := cmp.Compare(a.CustomerID, b.CustomerID); c != 0 {
		return c
	}
	return strings.Compare(a.ItemName, b.ItemName)
}
