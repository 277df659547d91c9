package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/TFMV/salesreport/logger"
	"github.com/TFMV/salesreport/pkg/core"
)

var schemaDDL = []string{
	`CREATE TABLE Customer (
		customer_id INTEGER PRIMARY KEY,
		age INTEGER NOT NULL
	)`,
	`CREATE TABLE Items (
		item_id INTEGER PRIMARY KEY,
		item_name TEXT NOT NULL
	)`,
	`CREATE TABLE Sales (
		sales_id INTEGER PRIMARY KEY,
		customer_id INTEGER NOT NULL REFERENCES Customer(customer_id)
	)`,
	`CREATE TABLE Orders (
		order_id INTEGER PRIMARY KEY,
		sales_id INTEGER NOT NULL REFERENCES Sales(sales_id),
		item_id INTEGER NOT NULL REFERENCES Items(item_id),
		quantity INTEGER
	)`,
}

func qty(n int64) *int64 { return &n }

// ReferenceDataset returns the sample data the report is specified against:
// five customers aged 21, 23, 35, 45 and 17, items x, y and z, and every item
// listed on every sale with a nil quantity when it was not bought.
func ReferenceDataset() *core.Relations {
	return &core.Relations{
		Customers: []core.Customer{
			{CustomerID: 1, Age: 21},
			{CustomerID: 2, Age: 23},
			{CustomerID: 3, Age: 35},
			{CustomerID: 4, Age: 45},
			{CustomerID: 5, Age: 17},
		},
		Items: []core.Item{
			{ItemID: 1, ItemName: "x"},
			{ItemID: 2, ItemName: "y"},
			{ItemID: 3, ItemName: "z"},
		},
		Sales: []core.Sale{
			{SalesID: 1, CustomerID: 1},
			{SalesID: 2, CustomerID: 1},
			{SalesID: 3, CustomerID: 2},
			{SalesID: 4, CustomerID: 3},
			{SalesID: 5, CustomerID: 3},
			{SalesID: 6, CustomerID: 4},
			{SalesID: 7, CustomerID: 5},
		},
		Orders: []core.OrderLine{
			{OrderID: 1, SalesID: 1, ItemID: 1, Quantity: qty(6)},
			{OrderID: 2, SalesID: 1, ItemID: 2},
			{OrderID: 3, SalesID: 1, ItemID: 3},
			{OrderID: 4, SalesID: 2, ItemID: 1, Quantity: qty(4)},
			{OrderID: 5, SalesID: 2, ItemID: 2},
			{OrderID: 6, SalesID: 2, ItemID: 3},
			{OrderID: 7, SalesID: 3, ItemID: 1, Quantity: qty(1)},
			{OrderID: 8, SalesID: 3, ItemID: 2, Quantity: qty(1)},
			{OrderID: 9, SalesID: 3, ItemID: 3, Quantity: qty(1)},
			{OrderID: 10, SalesID: 4, ItemID: 1},
			{OrderID: 11, SalesID: 4, ItemID: 2},
			{OrderID: 12, SalesID: 4, ItemID: 3, Quantity: qty(1)},
			{OrderID: 13, SalesID: 5, ItemID: 1},
			{OrderID: 14, SalesID: 5, ItemID: 2},
			{OrderID: 15, SalesID: 5, ItemID: 3, Quantity: qty(1)},
			{OrderID: 16, SalesID: 6, ItemID: 1, Quantity: qty(5)},
			{OrderID: 17, SalesID: 6, ItemID: 2, Quantity: qty(2)},
			{OrderID: 18, SalesID: 6, ItemID: 3},
			{OrderID: 19, SalesID: 7, ItemID: 1, Quantity: qty(3)},
			{OrderID: 20, SalesID: 7, ItemID: 2},
			{OrderID: 21, SalesID: 7, ItemID: 3, Quantity: qty(2)},
		},
	}
}

// Seed creates the four tables in db and inserts rel in one transaction.
func Seed(ctx context.Context, db *sql.DB, rel *core.Relations) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	for _, ddl := range schemaDDL {
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	for _, c := range rel.Customers {
		if _, err := tx.ExecContext(ctx, "INSERT INTO Customer (customer_id, age) VALUES (?, ?)", c.CustomerID, c.Age); err != nil {
			return fmt.Errorf("insert customer %d: %w", c.CustomerID, err)
		}
	}
	for _, i := range rel.Items {
		if _, err := tx.ExecContext(ctx, "INSERT INTO Items (item_id, item_name) VALUES (?, ?)", i.ItemID, i.ItemName); err != nil {
			return fmt.Errorf("insert item %d: %w", i.ItemID, err)
		}
	}
	for _, s := range rel.Sales {
		if _, err := tx.ExecContext(ctx, "INSERT INTO Sales (sales_id, customer_id) VALUES (?, ?)", s.SalesID, s.CustomerID); err != nil {
			return fmt.Errorf("insert sale %d: %w", s.SalesID, err)
		}
	}
	for _, o := range rel.Orders {
		var q any
		if o.Quantity != nil {
			q = *o.Quantity
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO Orders (order_id, sales_id, item_id, quantity) VALUES (?, ?, ?, ?)",
			o.OrderID, o.SalesID, o.ItemID, q); err != nil {
			return fmt.Errorf("insert order %d: %w", o.OrderID, err)
		}
	}

	return tx.Commit()
}

// SeedFile recreates the database file at path with driver and fills it with rel.
// An existing file is replaced.
func SeedFile(ctx context.Context, driver, path string, rel *core.Relations) error {
	if driver != BackendSQLite && driver != BackendDuckDB {
		return fmt.Errorf("cannot seed with driver %q", driver)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove existing database: %w", err)
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer db.Close()

	if err := Seed(ctx, db, rel); err != nil {
		return err
	}

	logger.GetLogger().Info("database seeded",
		zap.String("backend", driver),
		zap.String("path", path),
		zap.Int("customers", len(rel.Customers)),
		zap.Int("orders", len(rel.Orders)))
	return nil
}
