package store

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/TFMV/salesreport/logger"
	"github.com/TFMV/salesreport/pkg/core"
	"github.com/TFMV/salesreport/pkg/table"
)

// CheckSchema verifies that every input relation exists and exposes its
// expected columns. It returns a *core.SchemaError naming the first gap.
func CheckSchema(ctx context.Context, s Store) error {
	for _, rel := range core.InputSchemas {
		cols, err := s.Columns(ctx, rel.Name)
		if err != nil {
			return err
		}
		for _, want := range rel.Columns() {
			if !hasColumn(cols, want) {
				return &core.SchemaError{Relation: rel.Name, Column: want}
			}
		}
	}
	return nil
}

// Load reads all four relations into memory. A failure on any relation
// aborts the whole load.
func Load(ctx context.Context, s Store) (*core.Relations, error) {
	if err := CheckSchema(ctx, s); err != nil {
		return nil, err
	}

	customers, err := loadRelation[core.Customer](ctx, s, core.CustomerSchema)
	if err != nil {
		return nil, err
	}
	items, err := loadRelation[core.Item](ctx, s, core.ItemsSchema)
	if err != nil {
		return nil, err
	}
	sales, err := loadRelation[core.Sale](ctx, s, core.SalesSchema)
	if err != nil {
		return nil, err
	}
	orders, err := loadRelation[core.OrderLine](ctx, s, core.OrdersSchema)
	if err != nil {
		return nil, err
	}

	logger.GetLogger().Info("relations loaded",
		zap.String("backend", s.Backend()),
		zap.Int("customers", len(customers)),
		zap.Int("items", len(items)),
		zap.Int("sales", len(sales)),
		zap.Int("orders", len(orders)))

	return &core.Relations{
		Customers: customers,
		Items:     items,
		Sales:     sales,
		Orders:    orders,
	}, nil
}

// loadRelation reads one relation in full and decodes it into typed rows.
func loadRelation[T any](ctx context.Context, s Store, rel core.RelationSchema) ([]T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(rel.Columns(), ", "), quoteIdent(rel.Name))
	rec, err := s.Query(ctx, rel.Schema, query)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", rel.Name, err)
	}
	defer rec.Release()

	tbl, err := table.FromRecords[T](rec)
	if err != nil {
		return nil, &core.SchemaError{Relation: rel.Name, Err: err}
	}
	return tbl.Rows(), nil
}
