package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockmgmt/dashboard/internal/application/appstate"
	"github.com/stockmgmt/dashboard/internal/application/inventory"
	"github.com/stockmgmt/dashboard/internal/application/session"
	"github.com/stockmgmt/dashboard/internal/domain/report"
	"github.com/stockmgmt/dashboard/internal/domain/shared"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
	"github.com/stockmgmt/dashboard/internal/infrastructure/apiclient"
	"github.com/stockmgmt/dashboard/internal/infrastructure/export"
	"github.com/stockmgmt/dashboard/internal/infrastructure/storage"
	"github.com/stockmgmt/dashboard/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &inventory.ValidationError{Errors: []string{"name is required"}}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"backend 404", &apiclient.HTTPError{StatusCode: 404, Body: `{"detail":"Product not found"}`}, http.StatusNotFound, dto.ErrCodeNotFound},
		{"backend 401", fmt.Errorf("get: %w", &apiclient.HTTPError{StatusCode: 401}), http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"backend 422", &apiclient.HTTPError{StatusCode: 422}, http.StatusUnprocessableEntity, dto.ErrCodeInvalidInput},
		{"backend 500", &apiclient.HTTPError{StatusCode: 500}, http.StatusBadGateway, dto.ErrCodeUpstream},
		{"timeout", fmt.Errorf("load: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, dto.ErrCodeTimeout},
		{"transport", fmt.Errorf("%w: connection refused", apiclient.ErrRequestFailed), http.StatusBadGateway, dto.ErrCodeUpstream},
		{"format", fmt.Errorf("%w: %q", export.ErrUnsupportedFormat, "doc"), http.StatusBadRequest, dto.ErrCodeUnsupportedFormat},
		{"renderer", export.ErrRendererUnavailable, http.StatusServiceUnavailable, dto.ErrCodeRenderFailed},
		{"insufficient stock", shared.NewDomainError("INSUFFICIENT_STOCK", "only 2 left"), http.StatusUnprocessableEntity, dto.ErrCodeInsufficientStock},
		{"session expired", shared.ErrSessionExpired, http.StatusUnauthorized, dto.ErrCodeSessionExpired},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := errorResponse(tt.err)
			assert.Equal(t, tt.status, status)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.code, body.Error.Code)
			assert.False(t, body.Success)
		})
	}

	_, body := errorResponse(&apiclient.HTTPError{StatusCode: 404, Body: `{"detail":"Product not found"}`})
	assert.Equal(t, "Product not found", body.Error.Message)
}

func TestHandleError_RecordsOnContext(t *testing.T) {
	var recorded []error
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Next()
		for _, e := range c.Errors {
			recorded = append(recorded, e.Err)
		}
	})
	h := &BaseHandler{}
	herr := &apiclient.HTTPError{StatusCode: http.StatusUnauthorized}
	r.GET("/x", func(c *gin.Context) { h.HandleError(c, herr) })

	w := serve(r, http.MethodGet, "/x", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.Len(t, recorded, 1)
	assert.ErrorIs(t, recorded[0], herr)
}

func TestDashboardHandler(t *testing.T) {
	newRouter := func(svc *mockDashboardService, state *appstate.State) *gin.Engine {
		h := NewDashboardHandler(svc, state)
		h.now = func() time.Time { return time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC) }
		r := gin.New()
		r.GET("/dashboard", h.Get)
		r.GET("/dashboard/summary", h.Summary)
		r.GET("/dashboard/top-products", h.TopProducts)
		r.GET("/dashboard/alerts", h.Alerts)
		return r
	}

	t.Run("load stores the dashboard", func(t *testing.T) {
		svc := new(mockDashboardService)
		state := appstate.New()
		d := &inventory.Dashboard{Stats: &report.DashboardStats{TotalProducts: 3}}
		svc.On("Load", mock.Anything).Return(d, nil)

		w := serve(newRouter(svc, state), http.MethodGet, "/dashboard", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		snap := state.Snapshot()
		assert.Same(t, d, snap.Dashboard)
		assert.False(t, snap.Loading)
		assert.Empty(t, snap.Error)
	})

	t.Run("load failure records the error", func(t *testing.T) {
		svc := new(mockDashboardService)
		state := appstate.New()
		svc.On("Load", mock.Anything).Return(nil, fmt.Errorf("%w: refused", apiclient.ErrRequestFailed))

		w := serve(newRouter(svc, state), http.MethodGet, "/dashboard", nil)
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.NotEmpty(t, state.Snapshot().Error)
		assert.Nil(t, state.Snapshot().Dashboard)
	})

	t.Run("cached serves the last load", func(t *testing.T) {
		svc := new(mockDashboardService)
		svc.On("Last").Return(&inventory.Dashboard{})

		w := serve(newRouter(svc, nil), http.MethodGet, "/dashboard?cached=true", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertNotCalled(t, "Load", mock.Anything)
	})

	t.Run("summary defaults to a week", func(t *testing.T) {
		svc := new(mockDashboardService)
		svc.On("DailySummary", mock.Anything, DefaultSummaryDays).Return([]report.DailyEntry{}, nil)

		w := serve(newRouter(svc, nil), http.MethodGet, "/dashboard/summary", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("summary rejects out of range days", func(t *testing.T) {
		w := serve(newRouter(new(mockDashboardService), nil), http.MethodGet, "/dashboard/summary?days=0x", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("top products window and metric", func(t *testing.T) {
		svc := new(mockDashboardService)
		wantFrom := time.Date(2024, 4, 20, 12, 0, 0, 0, time.UTC)
		svc.On("TopProducts", mock.Anything, mock.MatchedBy(func(f stock.Filter) bool {
			return f.DateFrom != nil && f.DateFrom.Equal(wantFrom)
		}), 5, report.RankByValue).Return([]report.RankedProduct{}, nil)

		w := serve(newRouter(svc, nil), http.MethodGet, "/dashboard/top-products?limit=5&metric=value&days=30", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("alerts default limit", func(t *testing.T) {
		svc := new(mockDashboardService)
		svc.On("StockAlerts", mock.Anything, DefaultAlertLimit).Return([]report.StockAlert{}, nil)

		w := serve(newRouter(svc, nil), http.MethodGet, "/dashboard/alerts", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})
}

func TestProductHandler(t *testing.T) {
	newRouter := func(svc *mockProductService, state *appstate.State, n Notifier) *gin.Engine {
		h := NewProductHandler(svc, state, n)
		r := gin.New()
		r.GET("/products", h.List)
		r.GET("/products/reorder", h.Reorder)
		r.GET("/products/:id", h.Get)
		r.POST("/products", h.Create)
		r.DELETE("/products/:id", h.Delete)
		return r
	}

	t.Run("list passes the filter and meta", func(t *testing.T) {
		svc := new(mockProductService)
		svc.On("List", mock.Anything, mock.MatchedBy(func(f stock.Filter) bool {
			return f.Page == 2 && f.Search == "bolt" && f.Category == "Hardware"
		})).Return(&stock.Page[stock.Product]{
			Items: []stock.Product{{Name: "Bolt"}}, Total: 21, Page: 2, PerPage: 20, Pages: 2, HasPrev: true,
		}, nil)

		w := serve(newRouter(svc, nil, nil), http.MethodGet, "/products?page=2&search=%20bolt&category=Hardware", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode(t, w)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(21), resp.Meta.Total)
		assert.Equal(t, 2, resp.Meta.Page)
		assert.False(t, resp.Meta.HasNext)
		assert.True(t, resp.Meta.HasPrev)
	})

	t.Run("get rejects a malformed id", func(t *testing.T) {
		svc := new(mockProductService)
		w := serve(newRouter(svc, nil, nil), http.MethodGet, "/products/42", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})

	t.Run("get maps backend 404", func(t *testing.T) {
		svc := new(mockProductService)
		id := uuid.New()
		svc.On("Get", mock.Anything, id).Return(nil, &apiclient.HTTPError{StatusCode: 404})

		w := serve(newRouter(svc, nil, nil), http.MethodGet, "/products/"+id.String(), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, decode(t, w).Error.Code)
	})

	t.Run("create updates state and notifies", func(t *testing.T) {
		svc := new(mockProductService)
		state := appstate.New()
		n := &recordingNotifier{}
		created := &stock.Product{ID: uuid.New(), Name: "Widget", UnitPrice: decimal.RequireFromString("2.50")}
		svc.On("Create", mock.Anything, mock.MatchedBy(func(in stock.ProductInput) bool {
			return in.Name == "Widget"
		})).Return(created, nil)

		w := serve(newRouter(svc, state, n), http.MethodPost, "/products", map[string]any{"name": "Widget", "unit_price": "2.50"})
		assert.Equal(t, http.StatusCreated, w.Code)
		require.Len(t, state.Snapshot().Products, 1)
		require.Len(t, n.pushed, 1)
		assert.Equal(t, appstate.LevelSuccess, n.pushed[0].Level)
		assert.Contains(t, n.pushed[0].Message, "Widget")
	})

	t.Run("create validation failure", func(t *testing.T) {
		svc := new(mockProductService)
		svc.On("Create", mock.Anything, mock.Anything).
			Return(nil, &inventory.ValidationError{Errors: []string{"name is required"}})

		w := serve(newRouter(svc, nil, nil), http.MethodPost, "/products", map[string]any{"sku": "X"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode(t, w)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "name is required", resp.Error.Details[0].Message)
	})

	t.Run("delete removes from state", func(t *testing.T) {
		svc := new(mockProductService)
		state := appstate.New()
		id := uuid.New()
		state.SetProducts([]stock.Product{{ID: id, Name: "Gone"}})
		svc.On("Delete", mock.Anything, id).Return(nil)

		w := serve(newRouter(svc, state, nil), http.MethodDelete, "/products/"+id.String(), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, state.Snapshot().Products)
	})
}

func TestProductHandler_Reorder(t *testing.T) {
	newRouter := func(svc *mockProductService) *gin.Engine {
		r := gin.New()
		r.GET("/products/reorder", NewProductHandler(svc, nil, nil).Reorder)
		return r
	}

	t.Run("threshold is passed through", func(t *testing.T) {
		svc := new(mockProductService)
		svc.On("Reorder", mock.Anything, mock.MatchedBy(func(th *int64) bool {
			return th != nil && *th == 5
		})).Return(&report.ReorderReport{TotalItems: 1, Items: []report.ReorderItem{{Name: "Bolt", Priority: report.ReorderCritical}}}, nil)

		w := serve(newRouter(svc), http.MethodGet, "/products/reorder?threshold=5", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"priority":"critical"`)
	})

	t.Run("no threshold", func(t *testing.T) {
		svc := new(mockProductService)
		svc.On("Reorder", mock.Anything, (*int64)(nil)).Return(&report.ReorderReport{}, nil)

		w := serve(newRouter(svc), http.MethodGet, "/products/reorder", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("negative threshold is rejected", func(t *testing.T) {
		svc := new(mockProductService)
		w := serve(newRouter(svc), http.MethodGet, "/products/reorder?threshold=-1", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Reorder", mock.Anything, mock.Anything)
	})
}

func TestSupplierHandler(t *testing.T) {
	newRouter := func(svc *mockSupplierService, state *appstate.State, n Notifier) *gin.Engine {
		h := NewSupplierHandler(svc, state, n)
		r := gin.New()
		r.GET("/suppliers", h.List)
		r.GET("/suppliers/:id", h.Get)
		r.GET("/suppliers/:id/products", h.Products)
		r.POST("/suppliers", h.Create)
		r.PUT("/suppliers/:id", h.Update)
		r.DELETE("/suppliers/:id", h.Delete)
		return r
	}

	t.Run("active lists every active supplier", func(t *testing.T) {
		svc := new(mockSupplierService)
		svc.On("Active", mock.Anything).Return([]stock.Supplier{{Name: "Acme"}}, nil)

		w := serve(newRouter(svc, nil, nil), http.MethodGet, "/suppliers?active=true", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})

	t.Run("create updates state and notifies", func(t *testing.T) {
		svc := new(mockSupplierService)
		state := appstate.New()
		n := &recordingNotifier{}
		created := &stock.Supplier{ID: uuid.New(), Name: "Acme"}
		svc.On("Create", mock.Anything, mock.MatchedBy(func(in stock.SupplierInput) bool {
			return in.Name == "Acme" && in.Email == "sales@acme.test"
		})).Return(created, nil)

		w := serve(newRouter(svc, state, n), http.MethodPost, "/suppliers", map[string]any{"name": "Acme", "email": "sales@acme.test"})
		assert.Equal(t, http.StatusCreated, w.Code)
		require.Len(t, state.Snapshot().Suppliers, 1)
		require.Len(t, n.pushed, 1)
		assert.Contains(t, n.pushed[0].Message, "Acme")
	})

	t.Run("create validation failure", func(t *testing.T) {
		svc := new(mockSupplierService)
		svc.On("Create", mock.Anything, mock.Anything).
			Return(nil, &inventory.ValidationError{Errors: []string{"name is required"}})

		w := serve(newRouter(svc, nil, nil), http.MethodPost, "/suppliers", map[string]any{"phone": "123"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decode(t, w).Error.Code)
	})

	t.Run("update replaces the cached supplier", func(t *testing.T) {
		svc := new(mockSupplierService)
		state := appstate.New()
		id := uuid.New()
		state.SetSuppliers([]stock.Supplier{{ID: id, Name: "Old"}})
		svc.On("Update", mock.Anything, id, mock.Anything).Return(&stock.Supplier{ID: id, Name: "New"}, nil)

		w := serve(newRouter(svc, state, nil), http.MethodPut, "/suppliers/"+id.String(), map[string]any{"name": "New"})
		assert.Equal(t, http.StatusOK, w.Code)
		snap := state.Snapshot()
		require.Len(t, snap.Suppliers, 1)
		assert.Equal(t, "New", snap.Suppliers[0].Name)
	})

	t.Run("delete removes from state", func(t *testing.T) {
		svc := new(mockSupplierService)
		state := appstate.New()
		id := uuid.New()
		state.SetSuppliers([]stock.Supplier{{ID: id, Name: "Gone"}})
		svc.On("Delete", mock.Anything, id).Return(nil)

		w := serve(newRouter(svc, state, nil), http.MethodDelete, "/suppliers/"+id.String(), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, state.Snapshot().Suppliers)
	})

	t.Run("products maps a missing supplier", func(t *testing.T) {
		svc := new(mockSupplierService)
		id := uuid.New()
		svc.On("Products", mock.Anything, id).Return(nil, &apiclient.HTTPError{StatusCode: 404})

		w := serve(newRouter(svc, nil, nil), http.MethodGet, "/suppliers/"+id.String()+"/products", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("products rejects a malformed id", func(t *testing.T) {
		svc := new(mockSupplierService)
		w := serve(newRouter(svc, nil, nil), http.MethodGet, "/suppliers/x/products", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Products", mock.Anything, mock.Anything)
	})
}

func TestTransactionHandler(t *testing.T) {
	productID := uuid.New()
	newRouter := func(svc *mockTransactionService, state *appstate.State, n Notifier) *gin.Engine {
		h := NewTransactionHandler(svc, state, n)
		r := gin.New()
		r.POST("/transactions", h.Create)
		r.POST("/transactions/stock-in", h.StockIn)
		r.POST("/transactions/stock-out", h.StockOut)
		return r
	}

	t.Run("stock out computes the total and records the movement", func(t *testing.T) {
		svc := new(mockTransactionService)
		state := appstate.New()
		state.SetProducts([]stock.Product{{ID: productID, Name: "Bolt", CurrentStock: 10}})
		n := &recordingNotifier{}
		svc.On("StockOut", mock.Anything, mock.MatchedBy(func(d stock.TransactionDraft) bool {
			return d.TransactionType == stock.TransactionTypeStockOut &&
				d.Quantity == 3 &&
				d.TotalAmount.Equal(decimal.RequireFromString("7.50"))
		})).Return(&stock.Transaction{
			ID: uuid.New(), ProductID: productID, ProductName: "Bolt",
			TransactionType: stock.TransactionTypeStockOut, Quantity: 3,
			PreviousStock: 10, NewStock: 7,
		}, nil)

		w := serve(newRouter(svc, state, n), http.MethodPost, "/transactions/stock-out", map[string]any{
			"product_id": productID, "quantity": 3, "unit_price": "2.50", "total_amount": "999",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		snap := state.Snapshot()
		require.Len(t, snap.Transactions, 1)
		assert.Equal(t, int64(7), snap.Products[0].CurrentStock)
		require.Len(t, n.pushed, 1)
		assert.Contains(t, n.pushed[0].Message, "Bolt")
	})

	t.Run("create requires a type", func(t *testing.T) {
		svc := new(mockTransactionService)
		w := serve(newRouter(svc, nil, nil), http.MethodPost, "/transactions", map[string]any{
			"product_id": productID, "quantity": 1,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		svc := new(mockTransactionService)
		w := serve(newRouter(svc, nil, nil), http.MethodPost, "/transactions/stock-in", map[string]any{
			"product_id": productID, "quantity": 0,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("insufficient stock notifies an error", func(t *testing.T) {
		svc := new(mockTransactionService)
		n := &recordingNotifier{}
		svc.On("StockOut", mock.Anything, mock.Anything).
			Return(nil, shared.NewDomainError("INSUFFICIENT_STOCK", "only 2 left"))

		w := serve(newRouter(svc, nil, n), http.MethodPost, "/transactions/stock-out", map[string]any{
			"product_id": productID, "quantity": 5,
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		require.Len(t, n.pushed, 1)
		assert.Equal(t, appstate.LevelError, n.pushed[0].Level)
	})
}

type memArtifacts map[string]string

func (m memArtifacts) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if strings.Contains(key, "..") {
		return nil, storage.ErrInvalidKey
	}
	s, ok := m[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(s)), nil
}

func TestExportHandler(t *testing.T) {
	newRouter := func(svc *mockExportService, artifacts ArtifactReader) *gin.Engine {
		h := NewExportHandler(svc, artifacts, nil)
		r := gin.New()
		r.GET("/export", h.Export)
		r.GET("/exports/*key", h.Download)
		return r
	}

	t.Run("attachment", func(t *testing.T) {
		svc := new(mockExportService)
		svc.On("Export", mock.Anything, mock.MatchedBy(func(req inventory.ExportRequest) bool {
			return req.Format == export.FormatCSV &&
				len(req.Entities) == 1 && req.Entities[0] == export.EntityProducts &&
				req.Timestamp && !req.Store
		})).Return(&inventory.ExportResult{Artifact: &export.Artifact{
			Filename: "stock_2024-05-20.csv", ContentType: export.FormatCSV.ContentType(), Data: []byte("Name\nBolt\n"),
		}}, nil)

		w := serve(newRouter(svc, nil), http.MethodGet, "/export?format=CSV&entities=products&prefix=stock", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, `attachment; filename="stock_2024-05-20.csv"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, "Name\nBolt\n", w.Body.String())
	})

	t.Run("stored", func(t *testing.T) {
		svc := new(mockExportService)
		svc.On("Export", mock.Anything, mock.MatchedBy(func(req inventory.ExportRequest) bool {
			return req.Store && !req.Timestamp
		})).Return(&inventory.ExportResult{
			Artifact: &export.Artifact{Filename: "inventory_report.xlsx", ContentType: export.FormatExcel.ContentType()},
			Stored:   &storage.StoredArtifact{Key: "2024/05/id/inventory_report.xlsx", URL: "/exports/2024/05/id/inventory_report.xlsx", Size: 10},
		}, nil)

		w := serve(newRouter(svc, nil), http.MethodGet, "/export?format=xlsx&store=true&timestamp=false", nil)
		require.Equal(t, http.StatusCreated, w.Code)
		data := decode(t, w).Data.(map[string]any)
		assert.Equal(t, "2024/05/id/inventory_report.xlsx", data["key"])
	})

	t.Run("unsupported format", func(t *testing.T) {
		svc := new(mockExportService)
		w := serve(newRouter(svc, nil), http.MethodGet, "/export?format=docx", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeUnsupportedFormat, decode(t, w).Error.Code)
		svc.AssertNotCalled(t, "Export", mock.Anything, mock.Anything)
	})

	t.Run("unknown entity", func(t *testing.T) {
		w := serve(newRouter(new(mockExportService), nil), http.MethodGet, "/export?format=pdf&entities=orders", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("download", func(t *testing.T) {
		store := memArtifacts{"2024/05/a/report.csv": "a,b\n"}
		r := newRouter(new(mockExportService), store)

		w := serve(r, http.MethodGet, "/exports/2024/05/a/report.csv", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "a,b\n", w.Body.String())
		assert.Equal(t, `attachment; filename="report.csv"`, w.Header().Get("Content-Disposition"))

		assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/exports/missing.csv", nil).Code)
	})

	t.Run("download without storage", func(t *testing.T) {
		w := serve(newRouter(new(mockExportService), nil), http.MethodGet, "/exports/x.csv", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestContentDisposition(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"ascii", "stock_2024-05-20.csv", `attachment; filename="stock_2024-05-20.csv"`},
		{"quotes dropped", `a"b\c.csv`, `attachment; filename="abc.csv"`},
		{"non-ascii", "inventaire_été.pdf", `attachment; filename="inventaire__t_.pdf"; filename*=UTF-8''inventaire_%C3%A9t%C3%A9.pdf`},
		{"spaces encoded", "库存 报告.xlsx", `attachment; filename="__ __.xlsx"; filename*=UTF-8''%E5%BA%93%E5%AD%98%20%E6%8A%A5%E5%91%8A.xlsx`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, contentDisposition(tt.filename))
		})
	}
}

func TestAuthHandler(t *testing.T) {
	user := &stock.User{Username: "alice", Role: stock.RoleAdmin, Active: true}

	t.Run("login", func(t *testing.T) {
		gate := new(mockGate)
		n := &recordingNotifier{}
		gate.On("Login", mock.Anything, "alice", "secret").Return(user, nil)
		gate.On("State").Return(session.StateAuthenticated)
		gate.On("User").Return(user)
		gate.On("AccessState").Return(session.AccessState{IsAuthenticated: true, Role: stock.RoleAdmin, Permissions: []string{"export:data"}})

		h := NewAuthHandler(gate, n)
		r := gin.New()
		r.POST("/auth/login", h.Login)

		w := serve(r, http.MethodPost, "/auth/login", dto.LoginRequest{Username: "alice", Password: "secret"})
		require.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w).Data.(map[string]any)
		assert.Equal(t, true, data["authenticated"])
		assert.Equal(t, "authenticated", data["state"])
		assert.Len(t, n.pushed, 1)
	})

	t.Run("login rejected", func(t *testing.T) {
		gate := new(mockGate)
		gate.On("Login", mock.Anything, "alice", "wrong").Return(nil, &apiclient.HTTPError{StatusCode: 401, Body: `{"detail":"Incorrect username or password"}`})

		h := NewAuthHandler(gate, nil)
		r := gin.New()
		r.POST("/auth/login", h.Login)

		w := serve(r, http.MethodPost, "/auth/login", dto.LoginRequest{Username: "alice", Password: "wrong"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Incorrect username or password", decode(t, w).Error.Message)
	})

	t.Run("login requires both fields", func(t *testing.T) {
		gate := new(mockGate)
		h := NewAuthHandler(gate, nil)
		r := gin.New()
		r.POST("/auth/login", h.Login)

		w := serve(r, http.MethodPost, "/auth/login", map[string]string{"username": "alice"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		gate.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("logout", func(t *testing.T) {
		gate := new(mockGate)
		gate.On("Logout", mock.Anything).Return(nil)
		h := NewAuthHandler(gate, nil)
		r := gin.New()
		r.POST("/auth/logout", h.Logout)

		assert.Equal(t, http.StatusNoContent, serve(r, http.MethodPost, "/auth/logout", nil).Code)
		gate.AssertExpectations(t)
	})
}

func TestNotificationHandler(t *testing.T) {
	q := appstate.NewNotificationQueue()
	defer q.Close()
	n := q.Info("Saved")

	h := NewNotificationHandler(q)
	r := gin.New()
	r.GET("/notifications", h.List)
	r.DELETE("/notifications/:id", h.Dismiss)

	w := serve(r, http.MethodGet, "/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w).Data, 1)

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodDelete, "/notifications/"+n.ID.String(), nil).Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodDelete, "/notifications/"+n.ID.String(), nil).Code)
	assert.Equal(t, 0, q.Len())
}

type fixedState session.State

func (s fixedState) State() session.State { return session.State(s) }

func TestSystemHandler(t *testing.T) {
	h := NewSystemHandler("stock-dashboard", "1.2.3", fixedState(session.StateAuthenticated))
	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/ping", h.Ping)

	w := serve(r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]any)
	assert.Equal(t, "healthy", data["status"])
	assert.Equal(t, "1.2.3", data["version"])
	assert.Equal(t, "authenticated", data["session"])
	assert.NotEmpty(t, data["go_version"])

	w = serve(r, http.MethodGet, "/ping", nil)
	require.Equal(t, http.StatusOK, w.Code)
	ts := decode(t, w).Data.(map[string]any)["timestamp"].(string)
	_, err := time.Parse(time.RFC3339, ts)
	assert.NoError(t, err)
}
