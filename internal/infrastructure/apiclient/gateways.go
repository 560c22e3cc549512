package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/stockmgmt/dashboard/internal/domain/report"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
)

// Backend resource paths, relative to the configured base URL
const (
	productsPath      = "/products"
	suppliersPath     = "/suppliers"
	transactionsPath  = "/transactions"
	dashboardPath     = "/dashboard"
	authPath          = "/auth"
	categoriesPath    = productsPath + "/categories/list"
	stockInPath       = transactionsPath + "/stock-in"
	stockOutPath      = transactionsPath + "/stock-out"
	transactionsStats = transactionsPath + "/summary/stats"
)

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// ProductAPI implements stock.ProductGateway over REST
type ProductAPI struct{ c *Client }

// NewProductAPI creates a ProductAPI
func NewProductAPI(c *Client) *ProductAPI { return &ProductAPI{c: c} }

var _ stock.ProductGateway = (*ProductAPI)(nil)

func (a *ProductAPI) List(ctx context.Context, filter stock.Filter) (*stock.Page[stock.Product], error) {
	return FetchPage[stock.Product](ctx, a.c, productsPath, filter)
}

func (a *ProductAPI) ListAll(ctx context.Context, filter stock.Filter) ([]stock.Product, error) {
	return FetchAll[stock.Product](ctx, a.c, productsPath, filter)
}

func (a *ProductAPI) Get(ctx context.Context, id uuid.UUID) (*stock.Product, error) {
	var p stock.Product
	if _, err := a.c.Get(ctx, productsPath+"/"+id.String(), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *ProductAPI) Create(ctx context.Context, in stock.ProductInput) (*stock.Product, error) {
	var p stock.Product
	if _, err := a.c.Post(ctx, productsPath, in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *ProductAPI) Update(ctx context.Context, id uuid.UUID, in stock.ProductInput) (*stock.Product, error) {
	var p stock.Product
	if _, err := a.c.Put(ctx, productsPath+"/"+id.String(), in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *ProductAPI) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := a.c.Delete(ctx, productsPath+"/"+id.String())
	return err
}

// Categories returns the distinct category names. The backend answers either
// a bare list or {"categories": [...]}.
func (a *ProductAPI) Categories(ctx context.Context) ([]string, error) {
	resp, err := a.c.Get(ctx, categoriesPath, nil, nil)
	if err != nil {
		return nil, err
	}
	categories := make([]string, 0)
	if resp.NoContent {
		return categories, nil
	}
	if err := json.Unmarshal(resp.Body, &categories); err == nil {
		return categories, nil
	}
	var wrapped struct {
		Categories []string `json:"categories"`
	}
	if err := resp.Decode(&wrapped); err != nil {
		return nil, err
	}
	if wrapped.Categories != nil {
		categories = wrapped.Categories
	}
	return categories, nil
}

// ---------------------------------------------------------------------------
// Suppliers
// ---------------------------------------------------------------------------

// SupplierAPI implements stock.SupplierGateway over REST
type SupplierAPI struct{ c *Client }

// NewSupplierAPI creates a SupplierAPI
func NewSupplierAPI(c *Client) *SupplierAPI { return &SupplierAPI{c: c} }

var _ stock.SupplierGateway = (*SupplierAPI)(nil)

func (a *SupplierAPI) List(ctx context.Context, filter stock.Filter) (*stock.Page[stock.Supplier], error) {
	return FetchPage[stock.Supplier](ctx, a.c, suppliersPath, filter)
}

func (a *SupplierAPI) ListAll(ctx context.Context, filter stock.Filter) ([]stock.Supplier, error) {
	return FetchAll[stock.Supplier](ctx, a.c, suppliersPath, filter)
}

func (a *SupplierAPI) Get(ctx context.Context, id uuid.UUID) (*stock.Supplier, error) {
	var s stock.Supplier
	if _, err := a.c.Get(ctx, suppliersPath+"/"+id.String(), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (a *SupplierAPI) Create(ctx context.Context, in stock.SupplierInput) (*stock.Supplier, error) {
	var s stock.Supplier
	if _, err := a.c.Post(ctx, suppliersPath, in, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (a *SupplierAPI) Update(ctx context.Context, id uuid.UUID, in stock.SupplierInput) (*stock.Supplier, error) {
	var s stock.Supplier
	if _, err := a.c.Put(ctx, suppliersPath+"/"+id.String(), in, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (a *SupplierAPI) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := a.c.Delete(ctx, suppliersPath+"/"+id.String())
	return err
}

// ---------------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------------

// TransactionAPI implements stock.TransactionGateway over REST
type TransactionAPI struct{ c *Client }

// NewTransactionAPI creates a TransactionAPI
func NewTransactionAPI(c *Client) *TransactionAPI { return &TransactionAPI{c: c} }

var _ stock.TransactionGateway = (*TransactionAPI)(nil)

func (a *TransactionAPI) List(ctx context.Context, filter stock.Filter) (*stock.Page[stock.Transaction], error) {
	return FetchPage[stock.Transaction](ctx, a.c, transactionsPath, filter)
}

func (a *TransactionAPI) ListAll(ctx context.Context, filter stock.Filter) ([]stock.Transaction, error) {
	return FetchAll[stock.Transaction](ctx, a.c, transactionsPath, filter)
}

func (a *TransactionAPI) Create(ctx context.Context, draft stock.TransactionDraft) (*stock.Transaction, error) {
	return a.post(ctx, transactionsPath, draft)
}

func (a *TransactionAPI) StockIn(ctx context.Context, draft stock.TransactionDraft) (*stock.Transaction, error) {
	draft.TransactionType = stock.TransactionTypeStockIn
	return a.post(ctx, stockInPath, draft)
}

func (a *TransactionAPI) StockOut(ctx context.Context, draft stock.TransactionDraft) (*stock.Transaction, error) {
	draft.TransactionType = stock.TransactionTypeStockOut
	return a.post(ctx, stockOutPath, draft)
}

// Summary returns the backend's aggregate over all transactions
func (a *TransactionAPI) Summary(ctx context.Context) (*report.TransactionSummary, error) {
	var s report.TransactionSummary
	if _, err := a.c.Get(ctx, transactionsStats, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (a *TransactionAPI) post(ctx context.Context, path string, draft stock.TransactionDraft) (*stock.Transaction, error) {
	draft.Normalize()
	var t stock.Transaction
	if _, err := a.c.Post(ctx, path, draft, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ---------------------------------------------------------------------------
// Dashboard
// ---------------------------------------------------------------------------

// DashboardAPI implements report.DashboardGateway over REST
type DashboardAPI struct{ c *Client }

// NewDashboardAPI creates a DashboardAPI
func NewDashboardAPI(c *Client) *DashboardAPI { return &DashboardAPI{c: c} }

var _ report.DashboardGateway = (*DashboardAPI)(nil)

func (a *DashboardAPI) Stats(ctx context.Context) (*report.DashboardStats, error) {
	var s report.DashboardStats
	if _, err := a.c.Get(ctx, dashboardPath+"/stats", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (a *DashboardAPI) StockLevels(ctx context.Context) ([]report.StockLevelPoint, error) {
	return getList[report.StockLevelPoint](ctx, a.c, dashboardPath+"/chart-data/stock-levels", nil)
}

func (a *DashboardAPI) TransactionTrends(ctx context.Context, days int) ([]report.TrendPoint, error) {
	q := url.Values{}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}
	return getList[report.TrendPoint](ctx, a.c, dashboardPath+"/chart-data/transaction-trends", q)
}

func (a *DashboardAPI) LowStockProducts(ctx context.Context) ([]report.StockAlert, error) {
	return getList[report.StockAlert](ctx, a.c, dashboardPath+"/low-stock-products", nil)
}

func (a *DashboardAPI) RecentActivities(ctx context.Context, limit int) ([]report.RecentActivity, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return getList[report.RecentActivity](ctx, a.c, dashboardPath+"/recent-activities", q)
}

func (a *DashboardAPI) InventoryValue(ctx context.Context) (*report.InventoryValueReport, error) {
	var r report.InventoryValueReport
	if _, err := a.c.Get(ctx, dashboardPath+"/stats/inventory-value", nil, &r); err != nil {
		return nil, err
	}
	if r.ByCategory == nil {
		r.ByCategory = []report.CategoryBreakdown{}
	}
	if r.BySupplier == nil {
		r.BySupplier = []report.SupplierBreakdown{}
	}
	return &r, nil
}

// getList decodes a JSON array, treating 204 and null as empty
func getList[T any](ctx context.Context, c *Client, path string, q url.Values) ([]T, error) {
	var items []T
	if _, err := c.Get(ctx, path, q, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

// AuthAPI implements stock.AuthGateway over REST
type AuthAPI struct{ c *Client }

// NewAuthAPI creates an AuthAPI
func NewAuthAPI(c *Client) *AuthAPI { return &AuthAPI{c: c} }

var _ stock.AuthGateway = (*AuthAPI)(nil)

func (a *AuthAPI) Login(ctx context.Context, creds stock.Credentials) (*stock.Token, error) {
	var tok stock.Token
	if _, err := a.c.Post(ctx, authPath+"/login", creds, &tok); err != nil {
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: login response carries no access token", ErrInvalidResponse)
	}
	return &tok, nil
}

func (a *AuthAPI) Logout(ctx context.Context) error {
	_, err := a.c.Post(ctx, authPath+"/logout", nil, nil)
	return err
}

func (a *AuthAPI) Refresh(ctx context.Context) (*stock.Token, error) {
	var tok stock.Token
	if _, err := a.c.Post(ctx, authPath+"/refresh", nil, &tok); err != nil {
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: refresh response carries no access token", ErrInvalidResponse)
	}
	return &tok, nil
}

// Validate checks the bearer token. The backend answers either the user
// itself or {"valid": true, "user": {...}}.
func (a *AuthAPI) Validate(ctx context.Context) (*stock.User, error) {
	resp, err := a.c.Get(ctx, authPath+"/validate", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeUser(resp)
}

func decodeUser(resp *Response) (*stock.User, error) {
	var wrapped struct {
		Valid *bool       `json:"valid"`
		User  *stock.User `json:"user"`
	}
	if err := resp.Decode(&wrapped); err != nil {
		return nil, err
	}
	if wrapped.Valid != nil && !*wrapped.Valid {
		return nil, ErrUnauthorized
	}
	if wrapped.User != nil {
		return wrapped.User, nil
	}

	var u stock.User
	if err := resp.Decode(&u); err != nil {
		return nil, err
	}
	if u.Username == "" {
		return nil, fmt.Errorf("%w: validate response carries no user", ErrInvalidResponse)
	}
	return &u, nil
}
