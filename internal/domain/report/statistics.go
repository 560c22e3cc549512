package report

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
)

// Labels for groups without a name
const (
	UncategorizedLabel = "Uncategorized"
	NoSupplierLabel    = "No Supplier"
)

var hundred = decimal.NewFromInt(100)

// InventoryStatistics aggregates a fetched product set and transaction list
type InventoryStatistics struct {
	TotalProducts         int64           `json:"total_products"`
	ActiveProducts        int64           `json:"active_products"`
	TotalStock            int64           `json:"total_stock"`
	TotalInventoryValue   decimal.Decimal `json:"total_inventory_value"`
	LowStockCount         int64           `json:"low_stock_count"`
	OutOfStockCount       int64           `json:"out_of_stock_count"`
	TotalTransactions     int64           `json:"total_transactions"`
	TotalTransactionValue decimal.Decimal `json:"total_transaction_value"`
	AverageOrderValue     decimal.Decimal `json:"average_order_value"`
	TotalSuppliers        int64           `json:"total_suppliers,omitempty"`
}

// Statistics computes totals and averages. AverageOrderValue is zero when
// there are no transactions.
func Statistics(products []stock.Product, transactions []stock.Transaction) InventoryStatistics {
	s := InventoryStatistics{
		TotalProducts:         int64(len(products)),
		TotalInventoryValue:   decimal.Zero,
		TotalTransactionValue: decimal.Zero,
		AverageOrderValue:     decimal.Zero,
	}

	for i := range products {
		p := &products[i]
		if p.IsActive() {
			s.ActiveProducts++
		}
		s.TotalStock += p.CurrentStock
		s.TotalInventoryValue = s.TotalInventoryValue.Add(p.InventoryValue())
	}
	out, low := stock.CountStockAlerts(products)
	s.OutOfStockCount, s.LowStockCount = int64(out), int64(low)

	for i := range transactions {
		s.TotalTransactionValue = s.TotalTransactionValue.Add(transactions[i].Value())
	}
	s.TotalTransactions = int64(len(transactions))
	s.AverageOrderValue = AverageOrderValue(s.TotalTransactionValue, s.TotalTransactions)
	return s
}

// AverageOrderValue returns total / count rounded to cents, or zero when count is zero
func AverageOrderValue(total decimal.Decimal, count int64) decimal.Decimal {
	if count <= 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(count)).Round(2)
}

// TransactionSummary totals a transaction list by movement type
type TransactionSummary struct {
	TotalTransactions int64           `json:"total_transactions"`
	TotalStockIn      int64           `json:"total_stock_in"`
	TotalStockOut     int64           `json:"total_stock_out"`
	TotalAdjustments  int64           `json:"total_adjustments"`
	TotalValueIn      decimal.Decimal `json:"total_value_in"`
	TotalValueOut     decimal.Decimal `json:"total_value_out"`
	NetStockChange    int64           `json:"net_stock_change"`
	NetValueChange    decimal.Decimal `json:"net_value_change"`
}

// SummarizeTransactions builds a TransactionSummary
func SummarizeTransactions(transactions []stock.Transaction) TransactionSummary {
	s := TransactionSummary{
		TotalTransactions: int64(len(transactions)),
		TotalValueIn:      decimal.Zero,
		TotalValueOut:     decimal.Zero,
	}
	for i := range transactions {
		t := &transactions[i]
		switch t.TransactionType {
		case stock.TransactionTypeStockIn:
			s.TotalStockIn += t.Quantity
			s.TotalValueIn = s.TotalValueIn.Add(t.Value())
		case stock.TransactionTypeStockOut:
			s.TotalStockOut += t.Quantity
			s.TotalValueOut = s.TotalValueOut.Add(t.Value())
		case stock.TransactionTypeAdjustment:
			s.TotalAdjustments++
		}
	}
	s.NetStockChange = s.TotalStockIn - s.TotalStockOut
	s.NetValueChange = s.TotalValueIn.Sub(s.TotalValueOut)
	return s
}

// BreakdownByCategory groups active products by category, sorted by value descending
func BreakdownByCategory(products []stock.Product) []CategoryBreakdown {
	order := make([]string, 0)
	groups := make(map[string]*CategoryBreakdown)
	total := decimal.Zero

	for i := range products {
		p := &products[i]
		if !p.IsActive() {
			continue
		}
		name := strings.TrimSpace(p.Category)
		if name == "" {
			name = UncategorizedLabel
		}
		g, ok := groups[name]
		if !ok {
			g = &CategoryBreakdown{Category: name, TotalValue: decimal.Zero}
			groups[name] = g
			order = append(order, name)
		}
		v := p.InventoryValue()
		g.ProductCount++
		g.TotalStock += p.CurrentStock
		g.TotalValue = g.TotalValue.Add(v)
		total = total.Add(v)
	}

	out := make([]CategoryBreakdown, len(order))
	for i, name := range order {
		out[i] = *groups[name]
		out[i].Percentage = share(out[i].TotalValue, total)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalValue.GreaterThan(out[j].TotalValue)
	})
	return out
}

// BreakdownBySupplier groups active products by supplier, sorted by value descending.
// supplierNames resolves supplier ids not embedded in the product.
func BreakdownBySupplier(products []stock.Product, supplierNames map[uuid.UUID]string) []SupplierBreakdown {
	type key struct {
		id   uuid.UUID
		none bool
	}
	order := make([]key, 0)
	groups := make(map[key]*SupplierBreakdown)
	total := decimal.Zero

	for i := range products {
		p := &products[i]
		if !p.IsActive() {
			continue
		}
		k := key{none: true}
		if p.SupplierID != nil {
			k = key{id: *p.SupplierID}
		}
		g, ok := groups[k]
		if !ok {
			g = &SupplierBreakdown{Supplier: NoSupplierLabel, TotalValue: decimal.Zero}
			if !k.none {
				id := k.id
				g.SupplierID = &id
				g.Supplier = supplierLabel(p, supplierNames)
			}
			groups[k] = g
			order = append(order, k)
		}
		v := p.InventoryValue()
		g.ProductCount++
		g.TotalStock += p.CurrentStock
		g.TotalValue = g.TotalValue.Add(v)
		total = total.Add(v)
	}

	out := make([]SupplierBreakdown, len(order))
	for i, k := range order {
		out[i] = *groups[k]
		out[i].Percentage = share(out[i].TotalValue, total)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalValue.GreaterThan(out[j].TotalValue)
	})
	return out
}

func supplierLabel(p *stock.Product, names map[uuid.UUID]string) string {
	if n := p.SupplierName(); n != "" {
		return n
	}
	if n, ok := names[*p.SupplierID]; ok && n != "" {
		return n
	}
	return p.SupplierID.String()
}

func share(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(total).Round(2)
}

// MonthlyTrend is one calendar month of movement
type MonthlyTrend struct {
	Month             string `json:"month"` // YYYY-MM
	StockIn           int64  `json:"stock_in"`
	StockOut          int64  `json:"stock_out"`
	NetChange         int64  `json:"net_change"`
	TransactionsCount int64  `json:"transactions_count"`
}

// MonthlyTrends groups transactions by transaction_date month, ascending.
// Only months that contain transactions are returned.
func MonthlyTrends(transactions []stock.Transaction, loc *time.Location) []MonthlyTrend {
	if loc == nil {
		loc = time.Local
	}
	groups := make(map[string]*MonthlyTrend)
	for i := range transactions {
		t := &transactions[i]
		month := t.TransactionDate.In(loc).Format("2006-01")
		g, ok := groups[month]
		if !ok {
			g = &MonthlyTrend{Month: month}
			groups[month] = g
		}
		g.TransactionsCount++
		switch t.TransactionType {
		case stock.TransactionTypeStockIn:
			g.StockIn += t.Quantity
		case stock.TransactionTypeStockOut:
			g.StockOut += t.Quantity
		}
	}

	out := make([]MonthlyTrend, 0, len(groups))
	for _, g := range groups {
		g.NetChange = g.StockIn - g.StockOut
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// StockAlerts lists out-of-stock products first, then low-stock products by
// ascending stock/min ratio. limit <= 0 means no limit.
func StockAlerts(products []stock.Product, limit int) []StockAlert {
	alerts := make([]StockAlert, 0)
	for i := range products {
		p := &products[i]
		status := p.StockStatus()
		if status == stock.StockStatusGood {
			continue
		}
		alerts = append(alerts, StockAlert{
			ProductID:     p.ID,
			Name:          p.Name,
			SKU:           p.SKU,
			CurrentStock:  p.CurrentStock,
			MinStockLevel: p.MinStockLevel,
			SupplierName:  p.SupplierName(),
			UnitPrice:     p.UnitPrice,
			StockStatus:   status,
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		if a.StockStatus != b.StockStatus {
			return a.StockStatus == stock.StockStatusOutOfStock
		}
		// a.cur/a.min < b.cur/b.min without division; min > 0 for low-stock items
		return a.CurrentStock*b.MinStockLevel < b.CurrentStock*a.MinStockLevel
	})

	if limit > 0 && len(alerts) > limit {
		alerts = alerts[:limit]
	}
	return alerts
}

// StockLevels maps products onto chart points
func StockLevels(products []stock.Product) []StockLevelPoint {
	out := make([]StockLevelPoint, len(products))
	for i := range products {
		p := &products[i]
		out[i] = StockLevelPoint{
			ProductID:     p.ID,
			Name:          p.Name,
			CurrentStock:  p.CurrentStock,
			MinStockLevel: p.MinStockLevel,
			StockStatus:   p.StockStatus(),
		}
	}
	return out
}
