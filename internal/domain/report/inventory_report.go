package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
)

// DashboardStats is the server-computed dashboard snapshot. The client only displays it.
type DashboardStats struct {
	TotalProducts              int64           `json:"total_products"`
	TotalSuppliers             int64           `json:"total_suppliers"`
	TotalStockValue            decimal.Decimal `json:"total_stock_value"`
	LowStockProducts           int64           `json:"low_stock_products"`
	OutOfStockProducts         int64           `json:"out_of_stock_products"`
	TotalTransactionsToday     int64           `json:"total_transactions_today"`
	TotalTransactionsThisMonth int64           `json:"total_transactions_this_month"`
	StockInToday               int64           `json:"stock_in_today"`
	StockOutToday              int64           `json:"stock_out_today"`
	StockInThisMonth           int64           `json:"stock_in_this_month"`
	StockOutThisMonth          int64           `json:"stock_out_this_month"`
}

// StockLevelPoint is one bar of the stock-levels chart
type StockLevelPoint struct {
	ProductID     uuid.UUID         `json:"product_id"`
	Name          string            `json:"name"`
	CurrentStock  int64             `json:"current_stock"`
	MinStockLevel int64             `json:"min_stock_level"`
	StockStatus   stock.StockStatus `json:"stock_status"`
}

// TrendPoint is one day of the transaction-trends chart
type TrendPoint struct {
	Date     string `json:"date"`
	StockIn  int64  `json:"stock_in"`
	StockOut int64  `json:"stock_out"`
}

// RecentActivity is an entry of the recent-activity feed
type RecentActivity struct {
	ID              uuid.UUID             `json:"id"`
	ProductName     string                `json:"product_name"`
	ProductSKU      string                `json:"product_sku,omitempty"`
	TransactionType stock.TransactionType `json:"transaction_type"`
	Quantity        int64                 `json:"quantity"`
	TotalAmount     decimal.Decimal       `json:"total_amount"`
	TransactionDate time.Time             `json:"transaction_date"`
	ReferenceNumber string                `json:"reference_number,omitempty"`
}

// StockAlert is a product that needs attention on the dashboard
type StockAlert struct {
	ProductID     uuid.UUID         `json:"id"`
	Name          string            `json:"name"`
	SKU           string            `json:"sku,omitempty"`
	CurrentStock  int64             `json:"current_stock"`
	MinStockLevel int64             `json:"min_stock_level"`
	SupplierName  string            `json:"supplier_name,omitempty"`
	UnitPrice     decimal.Decimal   `json:"unit_price"`
	StockStatus   stock.StockStatus `json:"stock_status"`
}

// CategoryBreakdown is inventory value grouped by category
type CategoryBreakdown struct {
	Category     string          `json:"category"`
	ProductCount int64           `json:"product_count"`
	TotalStock   int64           `json:"total_stock"`
	TotalValue   decimal.Decimal `json:"total_value"`
	Percentage   decimal.Decimal `json:"percentage"` // Share of total value
}

// SupplierBreakdown is inventory value grouped by supplier
type SupplierBreakdown struct {
	SupplierID   *uuid.UUID      `json:"supplier_id,omitempty"`
	Supplier     string          `json:"supplier"`
	ProductCount int64           `json:"product_count"`
	TotalStock   int64           `json:"total_stock"`
	TotalValue   decimal.Decimal `json:"total_value"`
	Percentage   decimal.Decimal `json:"percentage"`
}

// InventoryValueReport is the inventory value split by category and by supplier
type InventoryValueReport struct {
	ByCategory []CategoryBreakdown `json:"by_category"`
	BySupplier []SupplierBreakdown `json:"by_supplier"`
}

// DashboardGateway is the backend's dashboard resource
type DashboardGateway interface {
	// Stats returns the server-computed dashboard snapshot
	Stats(ctx context.Context) (*DashboardStats, error)

	// StockLevels returns the data for the stock-levels chart
	StockLevels(ctx context.Context) ([]StockLevelPoint, error)

	// TransactionTrends returns the per-day movement series for the last days
	TransactionTrends(ctx context.Context, days int) ([]TrendPoint, error)

	// LowStockProducts returns products at or below their minimum level
	LowStockProducts(ctx context.Context) ([]StockAlert, error)

	// RecentActivities returns the latest limit transactions
	RecentActivities(ctx context.Context, limit int) ([]RecentActivity, error)

	// InventoryValue returns the backend's category/supplier value breakdown
	InventoryValue(ctx context.Context) (*InventoryValueReport, error)
}
