// Package core provides the core types and interfaces for the sales report engine.
package core

import (
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
)

// Customer is one row of the Customer relation.
type Customer struct {
	CustomerID int64 `arrow:"customer_id"`
	Age        int64 `arrow:"age"`
}

// Item is one row of the Items relation.
type Item struct {
	ItemID   int64  `arrow:"item_id"`
	ItemName string `arrow:"item_name"`
}

// Sale is one transaction of a customer.
type Sale struct {
	SalesID    int64 `arrow:"sales_id"`
	CustomerID int64 `arrow:"customer_id"`
}

// OrderLine links a sale to an item.
// A nil Quantity means the item was offered in the transaction but not bought.
type OrderLine struct {
	OrderID  int64  `arrow:"order_id"`
	SalesID  int64  `arrow:"sales_id"`
	ItemID   int64  `arrow:"item_id"`
	Quantity *int64 `arrow:"quantity"`
}

// Purchased reports whether the line carries a quantity.
func (o OrderLine) Purchased() bool {
	return o.Quantity != nil
}

// ReportRow is one customer/item pair with its summed purchased quantity.
type ReportRow struct {
	CustomerID    int64  `arrow:"customer_id" json:"customer_id"`
	Age           int64  `arrow:"age" json:"age"`
	ItemName      string `arrow:"item_name" json:"item_name"`
	TotalQuantity int64  `arrow:"total_quantity" json:"total_quantity"`
}

// Relations is a read-only snapshot of the four input relations.
type Relations struct {
	Customers []Customer
	Items     []Item
	Sales     []Sale
	Orders    []OrderLine
}

// AgeRange is an inclusive age interval.
type AgeRange struct {
	Min int64 `mapstructure:"age_min" json:"age_min"`
	Max int64 `mapstructure:"age_max" json:"age_max"`
}

// DefaultAgeRange is the range the marketing report targets.
var DefaultAgeRange = AgeRange{Min: 18, Max: 35}

// Contains reports whether age lies within the range, both bounds included.
func (r AgeRange) Contains(age int64) bool {
	return age >= r.Min && age <= r.Max
}

// Validate checks that the range is well formed.
func (r AgeRange) Validate() error {
	if r.Min < 0 {
		return fmt.Errorf("age lower bound must be non-negative, got %d", r.Min)
	}
	if r.Min > r.Max {
		return fmt.Errorf("age lower bound %d exceeds upper bound %d", r.Min, r.Max)
	}
	return nil
}

func (r AgeRange) String() string {
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// ReportComputer defines an interface for computing the sales report.
// Implementations must return rows sorted by customer id, then item name.
type ReportComputer interface {
	// Name identifies the realization in logs and output file names.
	Name() string

	// Compute returns the report rows for customers within the age range.
	Compute(ctx context.Context, ages AgeRange) ([]ReportRow, error)
}

// DatasetReader defines an interface for reading report records back from a file.
type DatasetReader interface {
	// Read returns the next record, or io.EOF when exhausted.
	// The record is valid until the next call to Read or Close.
	Read(ctx context.Context) (arrow.Record, error)

	// Schema returns the schema of the dataset.
	Schema() *arrow.Schema

	// Close releases resources associated with the reader.
	Close() error
}

// ReaderConfig provides configuration for creating a reader.
type ReaderConfig struct {
	// Type is the file format: csv, parquet or arrow.
	Type string

	// Path is the file to read.
	Path string

	// BatchSize is the number of rows per record; zero selects a default.
	BatchSize int64
}

// DatasetWriter defines an interface for writing report records to a destination.
type DatasetWriter interface {
	// Write writes a record to the destination.
	Write(ctx context.Context, record arrow.Record) error

	// Close flushes pending data and releases the destination.
	Close() error
}

// WriterConfig provides configuration for creating a writer.
type WriterConfig struct {
	// Type is the output format: csv, json, parquet or arrow.
	Type string

	// Path is the output file. Ignored when Output is set.
	Path string

	// Output is an already open stream. The writer does not close it.
	Output io.Writer
}

// Destination names where the writer sends its data.
func (c WriterConfig) Destination() string {
	if c.Output != nil {
		return "stream"
	}
	return c.Path
}
