package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockmgmt/dashboard/internal/domain/report"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
	"github.com/stretchr/testify/mock"
)

// MockProductGateway is a mock implementation of stock.ProductGateway
type MockProductGateway struct {
	mock.Mock
}

func (m *MockProductGateway) List(ctx context.Context, filter stock.Filter) (*stock.Page[stock.Product], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.Page[stock.Product]), args.Error(1)
}

func (m *MockProductGateway) ListAll(ctx context.Context, filter stock.Filter) ([]stock.Product, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]stock.Product), args.Error(1)
}

func (m *MockProductGateway) Get(ctx context.Context, id uuid.UUID) (*stock.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.Product), args.Error(1)
}

func (m *MockProductGateway) Create(ctx context.Context, in stock.ProductInput) (*stock.Product, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.Product), args.Error(1)
}

func (m *MockProductGateway) Update(ctx context.Context, id uuid.UUID, in stock.ProductInput) (*stock.Product, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.Product), args.Error(1)
}

func (m *MockProductGateway) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockProductGateway) Categories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockSupplierGateway is a mock implementation of stock.SupplierGateway
type MockSupplierGateway struct {
	mock.Mock
}

func (m *MockSupplierGateway) List(ctx context.Context, filter stock.Filter) (*stock.Page[stock.Supplier], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.Page[stock.Supplier]), args.Error(1)
}

func (m *MockSupplierGateway) ListAll(ctx context.Context, filter stock.Filter) ([]stock.Supplier, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]stock.Supplier), args.Error(1)
}

func (m *MockSupplierGateway) Get(ctx context.Context, id uuid.UUID) (*stock.Supplier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.Supplier), args.Error(1)
}

func (m *MockSupplierGateway) Create(ctx context.Context, in stock.SupplierInput) (*stock.Supplier, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.Supplier), args.Error(1)
}

func (m *MockSupplierGateway) Update(ctx context.Context, id uuid.UUID, in stock.SupplierInput) (*stock.Supplier, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.Supplier), args.Error(1)
}

func (m *MockSupplierGateway) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockTransactionGateway is a mock implementation of stock.TransactionGateway
type MockTransactionGateway struct {
	mock.Mock
}

func (m *MockTransactionGateway) List(ctx context.Context, filter stock.Filter) (*stock.Page[stock.Transaction], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.Page[stock.Transaction]), args.Error(1)
}

func (m *MockTransactionGateway) ListAll(ctx context.Context, filter stock.Filter) ([]stock.Transaction, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]stock.Transaction), args.Error(1)
}

func (m *MockTransactionGateway) Create(ctx context.Context, draft stock.TransactionDraft) (*stock.Transaction, error) {
	return m.txn(m.Called(ctx, draft))
}

func (m *MockTransactionGateway) StockIn(ctx context.Context, draft stock.TransactionDraft) (*stock.Transaction, error) {
	return m.txn(m.Called(ctx, draft))
}

func (m *MockTransactionGateway) StockOut(ctx context.Context, draft stock.TransactionDraft) (*stock.Transaction, error) {
	return m.txn(m.Called(ctx, draft))
}

func (m *MockTransactionGateway) txn(args mock.Arguments) (*stock.Transaction, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.Transaction), args.Error(1)
}

// MockAggregatingTransactionGateway also serves the backend summary
type MockAggregatingTransactionGateway struct {
	MockTransactionGateway
}

func (m *MockAggregatingTransactionGateway) Summary(ctx context.Context) (*report.TransactionSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.TransactionSummary), args.Error(1)
}

// MockDashboardGateway is a mock implementation of report.DashboardGateway
type MockDashboardGateway struct {
	mock.Mock
}

func (m *MockDashboardGateway) Stats(ctx context.Context) (*report.DashboardStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.DashboardStats), args.Error(1)
}

func (m *MockDashboardGateway) StockLevels(ctx context.Context) ([]report.StockLevelPoint, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]report.StockLevelPoint), args.Error(1)
}

func (m *MockDashboardGateway) TransactionTrends(ctx context.Context, days int) ([]report.TrendPoint, error) {
	args := m.Called(ctx, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]report.TrendPoint), args.Error(1)
}

func (m *MockDashboardGateway) LowStockProducts(ctx context.Context) ([]report.StockAlert, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]report.StockAlert), args.Error(1)
}

func (m *MockDashboardGateway) RecentActivities(ctx context.Context, limit int) ([]report.RecentActivity, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]report.RecentActivity), args.Error(1)
}

func (m *MockDashboardGateway) InventoryValue(ctx context.Context) (*report.InventoryValueReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.InventoryValueReport), args.Error(1)
}
