package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stockmgmt/dashboard/internal/application/appstate"
	"github.com/stockmgmt/dashboard/internal/application/inventory"
	"github.com/stockmgmt/dashboard/internal/application/session"
	"github.com/stockmgmt/dashboard/internal/domain/report"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
)

// The interfaces below are the slices of the application services each
// handler uses. The inventory and session services satisfy them.

// DashboardService is what DashboardHandler needs
type DashboardService interface {
	Load(ctx context.Context) (*inventory.Dashboard, error)
	Last() *inventory.Dashboard
	DailySummary(ctx context.Context, days int) ([]report.DailyEntry, error)
	TopProducts(ctx context.Context, filter stock.Filter, n int, metric report.RankMetric) ([]report.RankedProduct, error)
	InventoryValue(ctx context.Context) (*report.InventoryValueReport, error)
	StockAlerts(ctx context.Context, limit int) ([]report.StockAlert, error)
}

// ProductService is what ProductHandler needs
type ProductService interface {
	List(ctx context.Context, filter stock.Filter) (*stock.Page[stock.Product], error)
	Get(ctx context.Context, id uuid.UUID) (*stock.Product, error)
	Create(ctx context.Context, in stock.ProductInput) (*stock.Product, error)
	Update(ctx context.Context, id uuid.UUID, in stock.ProductInput) (*stock.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Categories(ctx context.Context) ([]string, error)
	LowStock(ctx context.Context) ([]stock.Product, error)
	OutOfStock(ctx context.Context) ([]stock.Product, error)
	Reorder(ctx context.Context, threshold *int64) (*report.ReorderReport, error)
}

// SupplierService is what SupplierHandler needs
type SupplierService interface {
	List(ctx context.Context, filter stock.Filter) (*stock.Page[stock.Supplier], error)
	Get(ctx context.Context, id uuid.UUID) (*stock.Supplier, error)
	Active(ctx context.Context) ([]stock.Supplier, error)
	Products(ctx context.Context, id uuid.UUID) ([]stock.Product, error)
	Create(ctx context.Context, in stock.SupplierInput) (*stock.Supplier, error)
	Update(ctx context.Context, id uuid.UUID, in stock.SupplierInput) (*stock.Supplier, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TransactionService is what TransactionHandler needs
type TransactionService interface {
	List(ctx context.Context, filter stock.Filter) (*stock.Page[stock.Transaction], error)
	Create(ctx context.Context, draft stock.TransactionDraft) (*stock.Transaction, error)
	StockIn(ctx context.Context, draft stock.TransactionDraft) (*stock.Transaction, error)
	StockOut(ctx context.Context, draft stock.TransactionDraft) (*stock.Transaction, error)
}

// ReportService is what ReportHandler needs
type ReportService interface {
	Statistics(ctx context.Context) (*report.InventoryStatistics, error)
	CategoryBreakdown(ctx context.Context) ([]report.CategoryBreakdown, error)
	SupplierBreakdown(ctx context.Context) ([]report.SupplierBreakdown, error)
	Summary(ctx context.Context, filter stock.Filter) (*report.TransactionSummary, error)
	MonthlyTrends(ctx context.Context, filter stock.Filter) ([]report.MonthlyTrend, error)
}

// ExportService is what ExportHandler needs
type ExportService interface {
	Export(ctx context.Context, req inventory.ExportRequest) (*inventory.ExportResult, error)
}

// SessionGate is what AuthHandler needs
type SessionGate interface {
	Login(ctx context.Context, username, password string) (*stock.User, error)
	Logout(ctx context.Context) error
	State() session.State
	User() *stock.User
	AccessState() session.AccessState
}

// Notifier queues user-facing notifications
type Notifier interface {
	Push(level appstate.Level, message string, ttl time.Duration) appstate.Notification
}

// NotificationQueue is what NotificationHandler needs
type NotificationQueue interface {
	List() []appstate.Notification
	Dismiss(id uuid.UUID) bool
}

// Reports bundles the three services behind ReportService
type Reports struct {
	Products     *inventory.ProductService
	Suppliers    *inventory.SupplierService
	Transactions *inventory.TransactionService
}

// Statistics implements ReportService
func (r Reports) Statistics(ctx context.Context) (*report.InventoryStatistics, error) {
	return r.Products.Statistics(ctx)
}

// CategoryBreakdown implements ReportService
func (r Reports) CategoryBreakdown(ctx context.Context) ([]report.CategoryBreakdown, error) {
	return r.Products.CategoryBreakdown(ctx)
}

// SupplierBreakdown implements ReportService
func (r Reports) SupplierBreakdown(ctx context.Context) ([]report.SupplierBreakdown, error) {
	return r.Suppliers.Breakdown(ctx)
}

// Summary implements ReportService
func (r Reports) Summary(ctx context.Context, filter stock.Filter) (*report.TransactionSummary, error) {
	return r.Transactions.Summary(ctx, filter)
}

// MonthlyTrends implements ReportService
func (r Reports) MonthlyTrends(ctx context.Context, filter stock.Filter) ([]report.MonthlyTrend, error) {
	return r.Transactions.MonthlyTrends(ctx, filter)
}

var (
	_ DashboardService   = (*inventory.DashboardService)(nil)
	_ ProductService     = (*inventory.ProductService)(nil)
	_ SupplierService    = (*inventory.SupplierService)(nil)
	_ TransactionService = (*inventory.TransactionService)(nil)
	_ ExportService      = (*inventory.ExportService)(nil)
	_ ReportService      = Reports{}
	_ SessionGate        = (*session.Gate)(nil)
	_ Notifier           = (*appstate.NotificationQueue)(nil)
	_ NotificationQueue  = (*appstate.NotificationQueue)(nil)
)
