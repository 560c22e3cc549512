package inventory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockmgmt/dashboard/internal/domain/report"
	"github.com/stockmgmt/dashboard/internal/domain/shared"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
	"github.com/stockmgmt/dashboard/internal/infrastructure/export"
	"github.com/stockmgmt/dashboard/internal/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var anyCtx = mock.Anything

func product(name string, current, min int64, price string) stock.Product {
	return stock.Product{
		ID:            uuid.New(),
		Name:          name,
		CurrentStock:  current,
		MinStockLevel: min,
		UnitPrice:     decimal.RequireFromString(price),
		Status:        stock.ProductStatusActive,
	}
}

func txn(productID uuid.UUID, typ stock.TransactionType, qty int64, price string, at time.Time) stock.Transaction {
	return stock.Transaction{
		ID:              uuid.New(),
		ProductID:       productID,
		TransactionType: typ,
		Quantity:        qty,
		UnitPrice:       decimal.RequireFromString(price),
		TransactionDate: at,
		CreatedAt:       at,
	}
}

func TestProductService_StockPredicates(t *testing.T) {
	products := []stock.Product{
		product("empty", 0, 2, "1"),
		product("low", 4, 5, "1"),
		product("good", 10, 5, "1"),
	}
	gw := new(MockProductGateway)
	gw.On("ListAll", anyCtx, stock.Filter{}).Return(products, nil)

	svc := NewProductService(gw, nil, nil)
	low, err := svc.LowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "low", low[0].Name)

	out, err := svc.OutOfStock(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "empty", out[0].Name)
}

func TestProductService_LogsAndReturnsOriginalError(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	backendErr := errors.New("connection refused")
	id := uuid.New()

	gw := new(MockProductGateway)
	gw.On("Get", anyCtx, id).Return(nil, backendErr)

	svc := NewProductService(gw, nil, zap.New(core))
	_, err := svc.Get(context.Background(), id)
	assert.Same(t, backendErr, err)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "get product", entries[0].ContextMap()["operation"])
	assert.Equal(t, id.String(), entries[0].ContextMap()["product_id"])
}

func TestProductService_CreateRejectsInvalidInput(t *testing.T) {
	gw := new(MockProductGateway)
	svc := NewProductService(gw, nil, nil)

	_, err := svc.Create(context.Background(), stock.ProductInput{UnitPrice: decimal.NewFromInt(-1)})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Errors)
	gw.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProductService_Statistics(t *testing.T) {
	p1 := product("a", 10, 1, "2.50")
	p2 := product("b", 0, 1, "100")
	pg := new(MockProductGateway)
	pg.On("ListAll", anyCtx, stock.Filter{}).Return([]stock.Product{p1, p2}, nil)
	tg := new(MockTransactionGateway)
	tg.On("ListAll", anyCtx, stock.Filter{}).Return([]stock.Transaction{}, nil)

	stats, err := NewProductService(pg, tg, nil).Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalProducts)
	assert.True(t, decimal.RequireFromString("25").Equal(stats.TotalInventoryValue))
	assert.True(t, stats.AverageOrderValue.IsZero())
	assert.Equal(t, int64(1), stats.OutOfStockCount)
}

func TestProductService_Reorder(t *testing.T) {
	pg := new(MockProductGateway)
	pg.On("ListAll", anyCtx, stock.Filter{}).Return([]stock.Product{
		product("good", 20, 5, "1"),
		product("low", 3, 10, "2"),
		product("empty", 0, 2, "5"),
	}, nil)

	rep, err := NewProductService(pg, nil, nil).Reorder(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 2, rep.TotalItems)
	assert.Equal(t, "empty", rep.Items[0].Name)
	assert.Equal(t, report.ReorderCritical, rep.Items[0].Priority)
	assert.True(t, decimal.RequireFromString("24").Equal(rep.TotalShortageValue))
}

func supplier(name string, status stock.SupplierStatus) stock.Supplier {
	return stock.Supplier{ID: uuid.New(), Name: name, Status: status}
}

func TestSupplierService_CreateRejectsInvalidInput(t *testing.T) {
	gw := new(MockSupplierGateway)
	svc := NewSupplierService(gw, nil, nil)

	_, err := svc.Create(context.Background(), stock.SupplierInput{Name: "Acme", Email: "not-an-email"})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.Update(context.Background(), uuid.New(), stock.SupplierInput{})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	gw.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	gw.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestSupplierService_CreateUpdateDelete(t *testing.T) {
	gw := new(MockSupplierGateway)
	id := uuid.New()
	in := stock.SupplierInput{Name: "Acme", Email: "sales@acme.test"}
	gw.On("Create", anyCtx, in).Return(&stock.Supplier{ID: id, Name: "Acme"}, nil)
	gw.On("Update", anyCtx, id, in).Return(&stock.Supplier{ID: id, Name: "Acme"}, nil)
	gw.On("Delete", anyCtx, id).Return(nil)

	svc := NewSupplierService(gw, nil, nil)
	created, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, id, created.ID)

	_, err = svc.Update(context.Background(), id, in)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(context.Background(), id))
	gw.AssertExpectations(t)
}

func TestSupplierService_LogsAndReturnsOriginalError(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	backendErr := errors.New("connection refused")
	id := uuid.New()

	gw := new(MockSupplierGateway)
	gw.On("Delete", anyCtx, id).Return(backendErr)

	err := NewSupplierService(gw, nil, zap.New(core)).Delete(context.Background(), id)
	assert.Same(t, backendErr, err)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "delete supplier", entries[0].ContextMap()["operation"])
	assert.Equal(t, id.String(), entries[0].ContextMap()["supplier_id"])
}

func TestSupplierService_Active(t *testing.T) {
	gw := new(MockSupplierGateway)
	gw.On("ListAll", anyCtx, stock.Filter{Status: "active"}).Return([]stock.Supplier{
		supplier("a", stock.SupplierStatusActive),
		supplier("b", stock.SupplierStatusInactive),
	}, nil)

	active, err := NewSupplierService(gw, nil, nil).Active(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "a", active[0].Name)
}

func TestSupplierService_Breakdown(t *testing.T) {
	acme := supplier("Acme", stock.SupplierStatusActive)
	sg := new(MockSupplierGateway)
	sg.On("ListAll", anyCtx, stock.Filter{}).Return([]stock.Supplier{acme}, nil)

	supplied := product("bolt", 10, 1, "2")
	supplied.SupplierID = &acme.ID
	pg := new(MockProductGateway)
	pg.On("ListAll", anyCtx, stock.Filter{}).Return([]stock.Product{supplied, product("loose", 1, 1, "5")}, nil)

	rows, err := NewSupplierService(sg, pg, nil).Breakdown(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Acme", rows[0].Supplier)
	assert.True(t, decimal.RequireFromString("20").Equal(rows[0].TotalValue))
	assert.Equal(t, report.NoSupplierLabel, rows[1].Supplier)
}

func TestSupplierService_BreakdownFailsWhole(t *testing.T) {
	sg := new(MockSupplierGateway)
	sg.On("ListAll", anyCtx, stock.Filter{}).Return(nil, errors.New("boom"))
	pg := new(MockProductGateway)
	pg.On("ListAll", anyCtx, stock.Filter{}).Return([]stock.Product{}, nil).Maybe()

	rows, err := NewSupplierService(sg, pg, nil).Breakdown(context.Background())
	assert.Error(t, err)
	assert.Nil(t, rows)
}

func TestSupplierService_Products(t *testing.T) {
	id := uuid.New()
	sg := new(MockSupplierGateway)
	sg.On("Get", anyCtx, id).Return(&stock.Supplier{ID: id, Name: "Acme"}, nil)
	pg := new(MockProductGateway)
	pg.On("ListAll", anyCtx, mock.MatchedBy(func(f stock.Filter) bool {
		return f.SupplierID != nil && *f.SupplierID == id
	})).Return([]stock.Product{product("bolt", 1, 1, "1")}, nil)

	items, err := NewSupplierService(sg, pg, nil).Products(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	missing := uuid.New()
	sg.On("Get", anyCtx, missing).Return(nil, shared.ErrNotFound)
	_, err = NewSupplierService(sg, pg, nil).Products(context.Background(), missing)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	pg.AssertNumberOfCalls(t, "ListAll", 1)
}

func TestTransactionService_CreateRecomputesTotal(t *testing.T) {
	pid := uuid.New()
	tg := new(MockTransactionGateway)
	tg.On("Create", anyCtx, mock.MatchedBy(func(d stock.TransactionDraft) bool {
		return d.TotalAmount.Equal(decimal.RequireFromString("37.5"))
	})).Return(&stock.Transaction{ID: uuid.New(), ProductID: pid, Quantity: 3}, nil)

	svc := NewTransactionService(tg, nil, nil)
	draft := stock.TransactionDraft{
		ProductID:       pid,
		TransactionType: stock.TransactionTypeStockIn,
		Quantity:        3,
		UnitPrice:       decimal.RequireFromString("12.5"),
		TotalAmount:     decimal.NewFromInt(999),
	}
	_, err := svc.Create(context.Background(), draft)
	require.NoError(t, err)
	tg.AssertExpectations(t)
}

func TestTransactionService_StockOutPrecheck(t *testing.T) {
	p := product("widget", 2, 1, "5")
	pg := new(MockProductGateway)
	pg.On("Get", anyCtx, p.ID).Return(&p, nil)
	tg := new(MockTransactionGateway)

	svc := NewTransactionService(tg, pg, nil, WithStockOutPrecheck(true))
	_, err := svc.StockOut(context.Background(), stock.NewTransactionDraft(p.ID, "", 5, p.UnitPrice))
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	tg.AssertNotCalled(t, "StockOut", mock.Anything, mock.Anything)

	tg.On("StockOut", anyCtx, mock.Anything).Return(&stock.Transaction{ID: uuid.New()}, nil)
	_, err = svc.StockOut(context.Background(), stock.NewTransactionDraft(p.ID, "", 2, p.UnitPrice))
	assert.NoError(t, err)
}

func TestTransactionService_NoPrecheckByDefault(t *testing.T) {
	tg := new(MockTransactionGateway)
	tg.On("StockOut", anyCtx, mock.MatchedBy(func(d stock.TransactionDraft) bool {
		return d.TransactionType == stock.TransactionTypeStockOut
	})).Return(nil, shared.ErrInsufficientStock)

	svc := NewTransactionService(tg, nil, nil)
	_, err := svc.StockOut(context.Background(), stock.NewTransactionDraft(uuid.New(), "", 500, decimal.NewFromInt(1)))
	assert.ErrorIs(t, err, shared.ErrInsufficientStock, "the backend decides")
}

func newDashboardMocks() (*MockDashboardGateway, *MockProductGateway, *MockTransactionGateway) {
	return new(MockDashboardGateway), new(MockProductGateway), new(MockTransactionGateway)
}

func TestTransactionService_SummaryPrefersBackendAggregate(t *testing.T) {
	pid := uuid.New()
	now := time.Now()
	gw := new(MockAggregatingTransactionGateway)
	gw.On("Summary", anyCtx).Return(&report.TransactionSummary{TotalTransactions: 99}, nil)
	gw.On("ListAll", anyCtx, mock.MatchedBy(func(f stock.Filter) bool { return f.ProductID != nil })).
		Return([]stock.Transaction{
			txn(pid, stock.TransactionTypeStockIn, 5, "2", now),
			txn(pid, stock.TransactionTypeStockOut, 2, "3", now),
		}, nil)

	svc := NewTransactionService(gw, nil, nil)
	all, err := svc.Summary(context.Background(), stock.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(99), all.TotalTransactions)

	filtered, err := svc.Summary(context.Background(), stock.Filter{ProductID: &pid})
	require.NoError(t, err)
	assert.Equal(t, int64(2), filtered.TotalTransactions)
	assert.Equal(t, int64(3), filtered.NetStockChange)
	gw.AssertNumberOfCalls(t, "Summary", 1)
}

func TestTransactionService_SummaryWithoutAggregate(t *testing.T) {
	gw := new(MockTransactionGateway)
	gw.On("ListAll", anyCtx, stock.Filter{}).Return([]stock.Transaction{
		txn(uuid.New(), stock.TransactionTypeStockIn, 4, "1", time.Now()),
	}, nil)

	summary, err := NewTransactionService(gw, nil, nil).Summary(context.Background(), stock.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), summary.TotalStockIn)
}

func TestDashboardService_Load(t *testing.T) {
	dg, pg, tg := newDashboardMocks()
	dg.On("Stats", anyCtx).Return(&report.DashboardStats{TotalProducts: 3}, nil)
	dg.On("StockLevels", anyCtx).Return([]report.StockLevelPoint{{Name: "a"}}, nil)
	dg.On("TransactionTrends", anyCtx, 14).Return([]report.TrendPoint{{Date: "2024-06-01"}}, nil)
	dg.On("LowStockProducts", anyCtx).Return(nil, nil)
	dg.On("RecentActivities", anyCtx, 5).Return([]report.RecentActivity{}, nil)

	svc := NewDashboardService(dg, pg, tg, DashboardOptions{TrendDays: 14, RecentLimit: 5}, nil)
	d, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), d.Stats.TotalProducts)
	assert.Len(t, d.StockLevels, 1)
	assert.NotNil(t, d.LowStock, "absent legs become empty lists")
	assert.Same(t, d, svc.Last())
}

func TestDashboardService_LoadFailsAtomically(t *testing.T) {
	dg, pg, tg := newDashboardMocks()
	legErr := &struct{ error }{errors.New("recent activities unavailable")}

	block := func(args mock.Arguments) { <-args.Get(0).(context.Context).Done() }
	dg.On("Stats", anyCtx).Run(block).Return(nil, context.Canceled).Maybe()
	dg.On("StockLevels", anyCtx).Run(block).Return(nil, context.Canceled).Maybe()
	dg.On("TransactionTrends", anyCtx, mock.Anything).Run(block).Return(nil, context.Canceled).Maybe()
	dg.On("LowStockProducts", anyCtx).Run(block).Return(nil, context.Canceled).Maybe()
	dg.On("RecentActivities", anyCtx, mock.Anything).Return(nil, legErr)

	svc := NewDashboardService(dg, pg, tg, DashboardOptions{}, nil)
	d, err := svc.Load(context.Background())
	assert.Nil(t, d)
	assert.Same(t, legErr, err, "the first failing leg is reported")
	assert.Nil(t, svc.Last())
}

func TestDashboardService_TopProducts(t *testing.T) {
	dg, pg, tg := newDashboardMocks()
	a, b, c := product("a", 1, 0, "1"), product("b", 1, 0, "1"), product("c", 1, 0, "1")
	gone := uuid.New()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	var txns []stock.Transaction
	add := func(id uuid.UUID, n int) {
		for range n {
			txns = append(txns, txn(id, stock.TransactionTypeStockIn, 1, "1", now))
		}
	}
	add(a.ID, 5)
	add(b.ID, 2)
	add(c.ID, 8)
	add(gone, 20)

	tg.On("ListAll", anyCtx, stock.Filter{}).Return(txns, nil)
	pg.On("Get", anyCtx, a.ID).Return(&a, nil)
	pg.On("Get", anyCtx, b.ID).Return(&b, nil)
	pg.On("Get", anyCtx, c.ID).Return(&c, nil)
	pg.On("Get", anyCtx, gone).Return(nil, shared.ErrNotFound)

	svc := NewDashboardService(dg, pg, tg, DashboardOptions{LookupWorkers: 2}, nil)
	ranked, err := svc.TopProducts(context.Background(), stock.Filter{}, 2, report.RankByTransactions)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "c", ranked[0].Name)
	assert.Equal(t, int64(8), ranked[0].TransactionCount)
	assert.Equal(t, "a", ranked[1].Name)
}

func TestDashboardService_TopProductsCancelled(t *testing.T) {
	dg, pg, tg := newDashboardMocks()
	id := uuid.New()
	ctx, cancel := context.WithCancel(context.Background())

	tg.On("ListAll", anyCtx, stock.Filter{}).Return([]stock.Transaction{txn(id, stock.TransactionTypeStockIn, 1, "1", time.Now())}, nil)
	pg.On("Get", anyCtx, id).Run(func(mock.Arguments) { cancel() }).Return(nil, context.Canceled)

	svc := NewDashboardService(dg, pg, tg, DashboardOptions{}, nil)
	_, err := svc.TopProducts(ctx, stock.Filter{}, 5, report.RankByValue)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDashboardService_DailySummary(t *testing.T) {
	dg, pg, tg := newDashboardMocks()
	now := time.Date(2024, 6, 3, 15, 0, 0, 0, time.UTC)
	pid := uuid.New()
	tg.On("ListAll", anyCtx, mock.MatchedBy(func(f stock.Filter) bool {
		return f.DateFrom != nil && f.DateFrom.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) && f.DateTo != nil
	})).Return([]stock.Transaction{
		txn(pid, stock.TransactionTypeStockIn, 10, "5", now),
		txn(pid, stock.TransactionTypeStockOut, 3, "5", now),
	}, nil)

	svc := NewDashboardService(dg, pg, tg, DashboardOptions{}, nil)
	svc.SetClock(func() time.Time { return now })

	days, err := svc.DailySummary(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, "2024-06-01", days[0].Date)
	assert.Equal(t, "2024-06-03", days[2].Date)
	assert.Equal(t, int64(10), days[2].StockIn.Quantity)
	assert.True(t, decimal.NewFromInt(15).Equal(days[2].StockOut.Value))
	assert.Equal(t, int64(7), days[2].NetMovement)

	empty, err := svc.DailySummary(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func newExportService(t *testing.T, store storage.ArtifactStore) (*ExportService, *MockProductGateway, *MockSupplierGateway, *MockTransactionGateway) {
	t.Helper()
	pg, sg, tg := new(MockProductGateway), new(MockSupplierGateway), new(MockTransactionGateway)
	engine := export.NewEngine(export.WithClock(func() time.Time {
		return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	}))
	opts := []ExportServiceOption{WithExportTitle("Stock")}
	if store != nil {
		opts = append(opts, WithArtifactStore(store))
	}
	return NewExportService(pg, sg, tg, engine, nil, opts...), pg, sg, tg
}

func TestExportService_CSV(t *testing.T) {
	svc, pg, sg, tg := newExportService(t, nil)
	p := product("Widget, large", 4, 5, "2.5")
	pg.On("ListAll", anyCtx, stock.Filter{}).Return([]stock.Product{p}, nil)
	tg.On("ListAll", anyCtx, stock.Filter{}).Return([]stock.Transaction{}, nil)

	res, err := svc.Export(context.Background(), ExportRequest{
		Format:    export.FormatCSV,
		Entities:  []export.Entity{export.EntityProducts, export.EntityStatistics},
		Timestamp: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "inventory_report_2024-06-01.csv", res.Artifact.Filename)
	body := string(res.Artifact.Data)
	assert.True(t, strings.HasPrefix(body, "Stock\n"))
	assert.Contains(t, body, `"Widget, large"`)
	assert.Contains(t, body, "Statistics")
	assert.Nil(t, res.Stored)
	sg.AssertNotCalled(t, "ListAll", mock.Anything, mock.Anything)
}

func TestExportService_FailsWhole(t *testing.T) {
	svc, pg, sg, tg := newExportService(t, nil)
	pg.On("ListAll", anyCtx, stock.Filter{}).Return([]stock.Product{}, nil).Maybe()
	tg.On("ListAll", anyCtx, stock.Filter{}).Return([]stock.Transaction{}, nil).Maybe()
	sg.On("ListAll", anyCtx, stock.Filter{}).Return(nil, shared.ErrUnauthorized)

	dir := t.TempDir()
	res, err := svc.Export(context.Background(), ExportRequest{Format: export.FormatExcel, Directory: dir})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestExportService_Store(t *testing.T) {
	fs, err := storage.NewFileSystemStore(t.TempDir(), "/files", nil)
	require.NoError(t, err)
	svc, pg, _, _ := newExportService(t, fs)
	pg.On("ListAll", anyCtx, stock.Filter{}).Return([]stock.Product{}, nil)

	res, err := svc.Export(context.Background(), ExportRequest{
		Format:   export.FormatExcel,
		Entities: []export.Entity{export.EntityProducts},
		Store:    true,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Stored)
	assert.True(t, strings.HasSuffix(res.Stored.Key, "/inventory_report.xlsx"))
	assert.Equal(t, int64(len(res.Artifact.Data)), res.Stored.Size)

	noStore, _, _, _ := newExportService(t, nil)
	_, err = noStore.Export(context.Background(), ExportRequest{Format: export.FormatCSV, Store: true})
	assert.ErrorIs(t, err, ErrNoArtifactStore)
}

func TestParseEntities(t *testing.T) {
	got, err := ParseEntities([]string{"suppliers", "products", "suppliers"})
	require.NoError(t, err)
	assert.Equal(t, []export.Entity{export.EntitySuppliers, export.EntityProducts}, got)

	_, err = ParseEntities([]string{"orders"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
