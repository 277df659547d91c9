package core

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Relation names as they appear in the data store.
const (
	CustomerRelation = "Customer"
	ItemsRelation    = "Items"
	SalesRelation    = "Sales"
	OrdersRelation   = "Orders"
)

// RelationSchema names a relation and the columns it must expose.
type RelationSchema struct {
	Name   string
	Schema *arrow.Schema
}

// Columns returns the column names in schema order.
func (r RelationSchema) Columns() []string {
	cols := make([]string, 0, r.Schema.NumFields())
	for _, f := range r.Schema.Fields() {
		cols = append(cols, f.Name)
	}
	return cols
}

var (
	CustomerSchema = RelationSchema{
		Name: CustomerRelation,
		Schema: arrow.NewSchema([]arrow.Field{
			{Name: "customer_id", Type: arrow.PrimitiveTypes.Int64},
			{Name: "age", Type: arrow.PrimitiveTypes.Int64},
		}, nil),
	}

	ItemsSchema = RelationSchema{
		Name: ItemsRelation,
		Schema: arrow.NewSchema([]arrow.Field{
			{Name: "item_id", Type: arrow.PrimitiveTypes.Int64},
			{Name: "item_name", Type: arrow.BinaryTypes.String},
		}, nil),
	}

	SalesSchema = RelationSchema{
		Name: SalesRelation,
		Schema: arrow.NewSchema([]arrow.Field{
			{Name: "sales_id", Type: arrow.PrimitiveTypes.Int64},
			{Name: "customer_id", Type: arrow.PrimitiveTypes.Int64},
		}, nil),
	}

	OrdersSchema = RelationSchema{
		Name: OrdersRelation,
		Schema: arrow.NewSchema([]arrow.Field{
			{Name: "order_id", Type: arrow.PrimitiveTypes.Int64},
			{Name: "sales_id", Type: arrow.PrimitiveTypes.Int64},
			{Name: "item_id", Type: arrow.PrimitiveTypes.Int64},
			{Name: "quantity", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		}, nil),
	}
)

// InputSchemas lists every relation the report reads.
var InputSchemas = []RelationSchema{CustomerSchema, ItemsSchema, SalesSchema, OrdersSchema}

// ResultSchema is the shape of the aggregation result as produced by a store query.
var ResultSchema = arrow.NewSchema([]arrow.Field{
	{Name: "customer_id", Type: arrow.PrimitiveTypes.Int64},
	{Name: "age", Type: arrow.PrimitiveTypes.Int64},
	{Name: "item_name", Type: arrow.BinaryTypes.String},
	{Name: "total_quantity", Type: arrow.PrimitiveTypes.Int64},
}, nil)

// ReportHeader is the header line of the delimited report, column by column.
var ReportHeader = []string{"Customer", "Age", "Item", "Quantity"}

// ReportSchema is the output schema; its field names form the report header.
var ReportSchema = arrow.NewSchema([]arrow.Field{
	{Name: ReportHeader[0], Type: arrow.PrimitiveTypes.Int64},
	{Name: ReportHeader[1], Type: arrow.PrimitiveTypes.Int64},
	{Name: ReportHeader[2], Type: arrow.BinaryTypes.String},
	{Name: ReportHeader[3], Type: arrow.PrimitiveTypes.Int64},
}, nil)

// RowsToRecord builds an Arrow record with ReportSchema from report rows.
// The caller owns the returned record and must Release it.
func RowsToRecord(alloc memory.Allocator, rows []ReportRow) arrow.Record {
	if alloc == nil {
		alloc = memory.NewGoAllocator()
	}
	b := array.NewRecordBuilder(alloc, ReportSchema)
	defer b.Release()

	customers := b.Field(0).(*array.Int64Builder)
	ages := b.Field(1).(*array.Int64Builder)
	names := b.Field(2).(*array.StringBuilder)
	quantities := b.Field(3).(*array.Int64Builder)
	for _, r := range rows {
		customers.Append(r.CustomerID)
		ages.Append(r.Age)
		names.Append(r.ItemName)
		quantities.Append(r.TotalQuantity)
	}
	return b.NewRecord()
}
