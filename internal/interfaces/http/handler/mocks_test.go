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
	"github.com/stretchr/testify/mock"
)

type mockDashboardService struct{ mock.Mock }

func (m *mockDashboardService) Load(ctx context.Context) (*inventory.Dashboard, error) {
	args := m.Called(ctx)
	d, _ := args.Get(0).(*inventory.Dashboard)
	return d, args.Error(1)
}

func (m *mockDashboardService) Last() *inventory.Dashboard {
	d, _ := m.Called().Get(0).(*inventory.Dashboard)
	return d
}

func (m *mockDashboardService) DailySummary(ctx context.Context, days int) ([]report.DailyEntry, error) {
	args := m.Called(ctx, days)
	e, _ := args.Get(0).([]report.DailyEntry)
	return e, args.Error(1)
}

func (m *mockDashboardService) TopProducts(ctx context.Context, filter stock.Filter, n int, metric report.RankMetric) ([]report.RankedProduct, error) {
	args := m.Called(ctx, filter, n, metric)
	r, _ := args.Get(0).([]report.RankedProduct)
	return r, args.Error(1)
}

func (m *mockDashboardService) InventoryValue(ctx context.Context) (*report.InventoryValueReport, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).(*report.InventoryValueReport)
	return r, args.Error(1)
}

func (m *mockDashboardService) StockAlerts(ctx context.Context, limit int) ([]report.StockAlert, error) {
	args := m.Called(ctx, limit)
	a, _ := args.Get(0).([]report.StockAlert)
	return a, args.Error(1)
}

type mockProductService struct{ mock.Mock }

func (m *mockProductService) List(ctx context.Context, filter stock.Filter) (*stock.Page[stock.Product], error) {
	args := m.Called(ctx, filter)
	p, _ := args.Get(0).(*stock.Page[stock.Product])
	return p, args.Error(1)
}

func (m *mockProductService) Get(ctx context.Context, id uuid.UUID) (*stock.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*stock.Product)
	return p, args.Error(1)
}

func (m *mockProductService) Create(ctx context.Context, in stock.ProductInput) (*stock.Product, error) {
	args := m.Called(ctx, in)
	p, _ := args.Get(0).(*stock.Product)
	return p, args.Error(1)
}

func (m *mockProductService) Update(ctx context.Context, id uuid.UUID, in stock.ProductInput) (*stock.Product, error) {
	args := m.Called(ctx, id, in)
	p, _ := args.Get(0).(*stock.Product)
	return p, args.Error(1)
}

func (m *mockProductService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockProductService) Categories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	c, _ := args.Get(0).([]string)
	return c, args.Error(1)
}

func (m *mockProductService) LowStock(ctx context.Context) ([]stock.Product, error) {
	args := m.Called(ctx)
	p, _ := args.Get(0).([]stock.Product)
	return p, args.Error(1)
}

func (m *mockProductService) OutOfStock(ctx context.Context) ([]stock.Product, error) {
	args := m.Called(ctx)
	p, _ := args.Get(0).([]stock.Product)
	return p, args.Error(1)
}

func (m *mockProductService) Reorder(ctx context.Context, threshold *int64) (*report.ReorderReport, error) {
	args := m.Called(ctx, threshold)
	r, _ := args.Get(0).(*report.ReorderReport)
	return r, args.Error(1)
}

type mockSupplierService struct{ mock.Mock }

func (m *mockSupplierService) List(ctx context.Context, filter stock.Filter) (*stock.Page[stock.Supplier], error) {
	args := m.Called(ctx, filter)
	p, _ := args.Get(0).(*stock.Page[stock.Supplier])
	return p, args.Error(1)
}

func (m *mockSupplierService) Get(ctx context.Context, id uuid.UUID) (*stock.Supplier, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*stock.Supplier)
	return s, args.Error(1)
}

func (m *mockSupplierService) Active(ctx context.Context) ([]stock.Supplier, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).([]stock.Supplier)
	return s, args.Error(1)
}

func (m *mockSupplierService) Products(ctx context.Context, id uuid.UUID) ([]stock.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).([]stock.Product)
	return p, args.Error(1)
}

func (m *mockSupplierService) Create(ctx context.Context, in stock.SupplierInput) (*stock.Supplier, error) {
	args := m.Called(ctx, in)
	s, _ := args.Get(0).(*stock.Supplier)
	return s, args.Error(1)
}

func (m *mockSupplierService) Update(ctx context.Context, id uuid.UUID, in stock.SupplierInput) (*stock.Supplier, error) {
	args := m.Called(ctx, id, in)
	s, _ := args.Get(0).(*stock.Supplier)
	return s, args.Error(1)
}

func (m *mockSupplierService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockTransactionService struct{ mock.Mock }

func (m *mockTransactionService) List(ctx context.Context, filter stock.Filter) (*stock.Page[stock.Transaction], error) {
	args := m.Called(ctx, filter)
	p, _ := args.Get(0).(*stock.Page[stock.Transaction])
	return p, args.Error(1)
}

func (m *mockTransactionService) Create(ctx context.Context, draft stock.TransactionDraft) (*stock.Transaction, error) {
	args := m.Called(ctx, draft)
	t, _ := args.Get(0).(*stock.Transaction)
	return t, args.Error(1)
}

func (m *mockTransactionService) StockIn(ctx context.Context, draft stock.TransactionDraft) (*stock.Transaction, error) {
	args := m.Called(ctx, draft)
	t, _ := args.Get(0).(*stock.Transaction)
	return t, args.Error(1)
}

func (m *mockTransactionService) StockOut(ctx context.Context, draft stock.TransactionDraft) (*stock.Transaction, error) {
	args := m.Called(ctx, draft)
	t, _ := args.Get(0).(*stock.Transaction)
	return t, args.Error(1)
}

type mockExportService struct{ mock.Mock }

func (m *mockExportService) Export(ctx context.Context, req inventory.ExportRequest) (*inventory.ExportResult, error) {
	args := m.Called(ctx, req)
	r, _ := args.Get(0).(*inventory.ExportResult)
	return r, args.Error(1)
}

type mockGate struct{ mock.Mock }

func (m *mockGate) Login(ctx context.Context, username, password string) (*stock.User, error) {
	args := m.Called(ctx, username, password)
	u, _ := args.Get(0).(*stock.User)
	return u, args.Error(1)
}

func (m *mockGate) Logout(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockGate) State() session.State {
	return m.Called().Get(0).(session.State)
}

func (m *mockGate) User() *stock.User {
	u, _ := m.Called().Get(0).(*stock.User)
	return u
}

func (m *mockGate) AccessState() session.AccessState {
	return m.Called().Get(0).(session.AccessState)
}

// recordingNotifier keeps every pushed notification
type recordingNotifier struct {
	pushed []appstate.Notification
}

func (r *recordingNotifier) Push(level appstate.Level, message string, ttl time.Duration) appstate.Notification {
	n := appstate.Notification{ID: uuid.New(), Level: level, Message: message}
	r.pushed = append(r.pushed, n)
	return n
}
