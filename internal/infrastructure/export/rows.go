package export

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stockmgmt/dashboard/internal/domain/report"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
)

// Entity identifies one exported collection
type Entity string

const (
	EntityProducts     Entity = "products"
	EntityTransactions Entity = "transactions"
	EntitySuppliers    Entity = "suppliers"
	EntityStatistics   Entity = "statistics"
)

// Title returns the sheet / section title of the entity
func (e Entity) Title() string {
	switch e {
	case EntityProducts:
		return "Products"
	case EntityTransactions:
		return "Transactions"
	case EntitySuppliers:
		return "Suppliers"
	case EntityStatistics:
		return "Statistics"
	}
	return report.Titleize(string(e))
}

// Canonical column sets. Every format writes exactly these headers.
var (
	ProductColumns = []string{
		"Product ID", "Name", "SKU", "Category", "Description", "Quantity", "Min Stock Level",
		"Unit Price", "Total Value", "Status", "Supplier", "Created At", "Updated At",
	}
	TransactionColumns = []string{
		"Transaction ID", "Product", "SKU", "Type", "Quantity", "Unit Price", "Total Amount",
		"Reference", "Notes", "Created By", "Transaction Date", "Created At",
	}
	SupplierColumns = []string{
		"Supplier ID", "Name", "Contact Person", "Email", "Phone", "Address", "Status",
		"Product Count", "Total Transactions", "Total Value", "Created At",
	}
	StatisticsColumns = []string{"Metric", "Value"}
)

// Cell is one typed value. Value is an int64, float64 or string.
type Cell struct {
	Value any
}

// String renders the cell for text formats
func (c Cell) String() string {
	switch v := c.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	return ""
}

// IsNumeric reports whether the cell holds a number
func (c Cell) IsNumeric() bool {
	switch c.Value.(type) {
	case int64, float64:
		return true
	}
	return false
}

func text(s string) Cell            { return Cell{Value: s} }
func integer(n int64) Cell          { return Cell{Value: n} }
func number(d decimal.Decimal) Cell { return Cell{Value: d.InexactFloat64()} }
func fixed2(d decimal.Decimal) Cell { return Cell{Value: d.StringFixed(2)} }
func stamp(t time.Time, loc *time.Location) Cell {
	if t.IsZero() {
		return text("")
	}
	return text(report.FormatDateTime(t.In(loc)))
}

// Section is one titled table of an export
type Section struct {
	Entity  Entity
	Title   string
	Columns []string
	Rows    [][]Cell
}

// Dataset is the already-fetched input of an export
type Dataset struct {
	Title        string
	GeneratedAt  time.Time
	Location     *time.Location
	Products     []stock.Product
	Transactions []stock.Transaction
	Suppliers    []stock.Supplier
	Statistics   *report.InventoryStatistics
}

// IsEmpty reports whether there is nothing to export
func (d *Dataset) IsEmpty() bool {
	return len(d.Products) == 0 && len(d.Transactions) == 0 && len(d.Suppliers) == 0 && d.Statistics == nil
}

func (d *Dataset) location() *time.Location {
	if d.Location == nil {
		return time.UTC
	}
	return d.Location
}

// Sections maps the dataset onto its canonical tables: one per non-empty
// collection, then statistics when present. An empty dataset yields a single
// products section with no rows so every format still carries a header.
func (d *Dataset) Sections() []Section {
	loc := d.location()
	var sections []Section

	if len(d.Products) > 0 {
		sections = append(sections, ProductSection(d.Products, loc))
	}
	if len(d.Transactions) > 0 {
		sections = append(sections, TransactionSection(d.Transactions, loc))
	}
	if len(d.Suppliers) > 0 {
		sections = append(sections, SupplierSection(d.Suppliers, loc))
	}
	if d.Statistics != nil {
		sections = append(sections, StatisticsSection(*d.Statistics))
	}

	if len(sections) == 0 {
		sections = append(sections, ProductSection(nil, loc))
	}
	return sections
}

// ProductSection builds the products table
func ProductSection(products []stock.Product, loc *time.Location) Section {
	rows := make([][]Cell, 0, len(products))
	for i := range products {
		p := &products[i]
		rows = append(rows, []Cell{
			text(p.ID.String()),
			text(p.Name),
			text(p.SKU),
			text(p.Category),
			text(p.Description),
			integer(p.CurrentStock),
			integer(p.MinStockLevel),
			number(p.UnitPrice),
			fixed2(p.InventoryValue()),
			text(report.Titleize(string(p.Status))),
			text(p.SupplierName()),
			stamp(p.CreatedAt, loc),
			stamp(p.UpdatedAt, loc),
		})
	}
	return Section{Entity: EntityProducts, Title: EntityProducts.Title(), Columns: ProductColumns, Rows: rows}
}

// TransactionSection builds the transactions table. Totals are recomputed
// from quantity and unit price.
func TransactionSection(transactions []stock.Transaction, loc *time.Location) Section {
	rows := make([][]Cell, 0, len(transactions))
	for i := range transactions {
		t := &transactions[i]
		rows = append(rows, []Cell{
			text(t.ID.String()),
			text(t.ProductName),
			text(t.ProductSKU),
			text(t.TransactionType.DisplayName()),
			integer(t.Quantity),
			number(t.UnitPrice),
			number(t.Value()),
			text(t.ReferenceNumber),
			text(t.Notes),
			text(t.CreatedBy),
			stamp(t.TransactionDate, loc),
			stamp(t.CreatedAt, loc),
		})
	}
	return Section{Entity: EntityTransactions, Title: EntityTransactions.Title(), Columns: TransactionColumns, Rows: rows}
}

// SupplierSection builds the suppliers table
func SupplierSection(suppliers []stock.Supplier, loc *time.Location) Section {
	rows := make([][]Cell, 0, len(suppliers))
	for i := range suppliers {
		s := &suppliers[i]
		rows = append(rows, []Cell{
			text(s.ID.String()),
			text(s.Name),
			text(s.ContactPerson),
			text(s.Email),
			text(s.Phone),
			text(s.Address),
			text(report.Titleize(string(s.Status))),
			integer(s.ProductCount),
			integer(s.TotalTransactions),
			fixed2(s.TotalValue),
			stamp(s.CreatedAt, loc),
		})
	}
	return Section{Entity: EntitySuppliers, Title: EntitySuppliers.Title(), Columns: SupplierColumns, Rows: rows}
}

// StatisticsSection renders the statistics as metric / value pairs
func StatisticsSection(s report.InventoryStatistics) Section {
	rows := [][]Cell{
		{text("Total Products"), integer(s.TotalProducts)},
		{text("Active Products"), integer(s.ActiveProducts)},
		{text("Total Stock"), integer(s.TotalStock)},
		{text("Total Inventory Value"), text(report.FormatCurrency(s.TotalInventoryValue))},
		{text("Low Stock Items"), integer(s.LowStockCount)},
		{text("Out of Stock Items"), integer(s.OutOfStockCount)},
		{text("Total Transactions"), integer(s.TotalTransactions)},
		{text("Total Transaction Value"), text(report.FormatCurrency(s.TotalTransactionValue))},
		{text("Average Order Value"), text(report.FormatCurrency(s.AverageOrderValue))},
	}
	if s.TotalSuppliers > 0 {
		rows = append(rows, []Cell{text("Total Suppliers"), integer(s.TotalSuppliers)})
	}
	return Section{Entity: EntityStatistics, Title: EntityStatistics.Title(), Columns: StatisticsColumns, Rows: rows}
}

// tint is the header fill of each entity, shared by the workbook and the PDF
func tint(e Entity) string {
	switch e {
	case EntityProducts:
		return "DBEAFE"
	case EntityTransactions:
		return "DCFCE7"
	case EntitySuppliers:
		return "FEF3C7"
	case EntityStatistics:
		return "EDE9FE"
	}
	return "E5E7EB"
}
