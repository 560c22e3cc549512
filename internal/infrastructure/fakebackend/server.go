// Package fakebackend is an in-memory stand-in for the inventory REST backend.
// It serves the same paths and payload shapes the API client consumes, so the
// dashboard can run and be tested end to end without the real service.
package fakebackend

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stockmgmt/dashboard/internal/domain/report"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
	"github.com/stockmgmt/dashboard/internal/infrastructure/auth"
	"github.com/stockmgmt/dashboard/internal/infrastructure/logger"
	"go.uber.org/zap"
)

const (
	claimsKey    = "claims"
	dateLayout   = "2006-01-02"
	defaultTrend = 7
	defaultFeed  = 10
)

// Config configures a Server
type Config struct {
	Secret   string
	TokenTTL time.Duration
	Location *time.Location
	Logger   *zap.Logger
	Now      func() time.Time
	// Blacklist holds revoked token ids; nil keeps them in memory
	Blacklist auth.TokenBlacklist
}

// Server serves a Store over the backend's REST API
type Server struct {
	store     *Store
	users     *Users
	tokens    *auth.TokenIssuer
	blacklist auth.TokenBlacklist
	loc       *time.Location
	log       *zap.Logger
	now       func() time.Time
}

// New creates a Server
func New(store *Store, users *Users, cfg Config) *Server {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Blacklist == nil {
		cfg.Blacklist = auth.NewInMemoryTokenBlacklist()
	}
	return &Server{
		store:     store,
		users:     users,
		tokens:    auth.NewTokenIssuer(cfg.Secret, cfg.TokenTTL, "stockdash-fakebackend"),
		blacklist: cfg.Blacklist,
		loc:       cfg.Location,
		log:       logger.OrNop(cfg.Logger),
		now:       cfg.Now,
	}
}

// Handler returns the gin engine with every route mounted under prefix
func (s *Server) Handler(prefix string) http.Handler {
	r := gin.New()
	r.Use(logger.GinMiddleware(s.log), logger.Recovery(s.log))

	api := r.Group(prefix)
	api.POST("/auth/login", s.login)

	secured := api.Group("", s.authenticate)
	secured.POST("/auth/logout", s.logout)
	secured.POST("/auth/refresh", s.refresh)
	secured.GET("/auth/validate", s.validate)
	secured.GET("/auth/me", s.me)

	products := secured.Group("/products")
	products.GET("", s.listProducts)
	products.GET("/categories/list", s.categories)
	products.GET("/:id", s.getProduct)
	products.POST("", s.createProduct)
	products.PUT("/:id", s.updateProduct)
	products.DELETE("/:id", s.deleteProduct)

	suppliers := secured.Group("/suppliers")
	suppliers.GET("", s.listSuppliers)
	suppliers.GET("/:id", s.getSupplier)
	suppliers.POST("", s.createSupplier)
	suppliers.PUT("/:id", s.updateSupplier)
	suppliers.DELETE("/:id", s.deleteSupplier)

	transactions := secured.Group("/transactions")
	transactions.GET("", s.listTransactions)
	transactions.GET("/summary/stats", s.transactionStats)
	transactions.POST("", s.recordTransaction(""))
	transactions.POST("/stock-in", s.recordTransaction(stock.TransactionTypeStockIn))
	transactions.POST("/stock-out", s.recordTransaction(stock.TransactionTypeStockOut))

	dashboard := secured.Group("/dashboard")
	dashboard.GET("/stats", s.dashboardStats)
	dashboard.GET("/stats/inventory-value", s.inventoryValue)
	dashboard.GET("/chart-data/stock-levels", s.stockLevels)
	dashboard.GET("/chart-data/transaction-trends", s.transactionTrends)
	dashboard.GET("/low-stock-products", s.lowStockProducts)
	dashboard.GET("/recent-activities", s.recentActivities)
	return r
}

func detail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": msg})
}

func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		detail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInsufficientStock):
		detail(c, http.StatusBadRequest, err.Error())
	default:
		logger.GetGinLogger(c).Error("Request failed", zap.Error(err))
		detail(c, http.StatusInternalServerError, "Internal server error")
	}
}

// invalid answers 422 with one {"msg": ...} entry per validation error
func invalid(c *gin.Context, msgs []string) {
	items := make([]gin.H, 0, len(msgs))
	for _, m := range msgs {
		items = append(items, gin.H{"msg": m})
	}
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": items})
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

func (s *Server) authenticate(c *gin.Context) {
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok || token == "" {
		detail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	claims, err := s.tokens.Validate(token)
	if err != nil {
		detail(c, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	revoked, err := s.blacklist.IsBlacklisted(c.Request.Context(), claims.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if revoked {
		detail(c, http.StatusUnauthorized, auth.ErrTokenBlacklisted.Error())
		return
	}
	if _, ok := s.users.Lookup(claims.Username); !ok {
		detail(c, http.StatusUnauthorized, "User not found")
		return
	}
	c.Set(claimsKey, claims)
	c.Next()
}

func claimsOf(c *gin.Context) *auth.Claims {
	return c.MustGet(claimsKey).(*auth.Claims)
}

func (s *Server) login(c *gin.Context) {
	var creds stock.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		detail(c, http.StatusBadRequest, "Invalid login request")
		return
	}
	user, err := s.users.Authenticate(creds.Username, creds.Password)
	if err != nil {
		logger.GetGinLogger(c).Info("Login rejected", zap.String("username", creds.Username))
		detail(c, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	tok, err := s.tokens.Issue(user)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tok)
}

func (s *Server) revoke(c *gin.Context, claims *auth.Claims) error {
	return s.blacklist.AddToBlacklist(c.Request.Context(), claims.ID, claims.GetRemainingTTL(s.now()))
}

func (s *Server) logout(c *gin.Context) {
	if err := s.revoke(c, claimsOf(c)); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

func (s *Server) refresh(c *gin.Context) {
	claims := claimsOf(c)
	user, _ := s.users.Lookup(claims.Username)
	tok, err := s.tokens.Issue(user)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.revoke(c, claims); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tok)
}

func (s *Server) validate(c *gin.Context) {
	user, _ := s.users.Lookup(claimsOf(c).Username)
	c.JSON(http.StatusOK, gin.H{"valid": true, "user": user})
}

func (s *Server) me(c *gin.Context) {
	user, _ := s.users.Lookup(claimsOf(c).Username)
	c.JSON(http.StatusOK, user)
}

// ---------------------------------------------------------------------------
// Products and suppliers
// ---------------------------------------------------------------------------

func (s *Server) listProducts(c *gin.Context) {
	f, ok := s.filter(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.store.ListProducts(f))
}

func (s *Server) categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": s.store.Categories()})
}

func (s *Server) getProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := s.store.Product(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) createProduct(c *gin.Context) { s.saveProduct(c, uuid.Nil) }

func (s *Server) updateProduct(c *gin.Context) {
	if id, ok := pathID(c); ok {
		s.saveProduct(c, id)
	}
}

func (s *Server) saveProduct(c *gin.Context, id uuid.UUID) {
	var in stock.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}
	if res := stock.ValidateProduct(&in); !res.IsValid {
		invalid(c, res.Errors)
		return
	}
	p, err := s.store.SaveProduct(id, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	status := http.StatusOK
	if id == uuid.Nil {
		status = http.StatusCreated
	}
	c.JSON(status, p)
}

func (s *Server) deleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.store.DeleteProduct(id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listSuppliers(c *gin.Context) {
	f, ok := s.filter(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.store.ListSuppliers(f))
}

func (s *Server) getSupplier(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	sup, err := s.store.Supplier(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sup)
}

func (s *Server) createSupplier(c *gin.Context) { s.saveSupplier(c, uuid.Nil) }

func (s *Server) updateSupplier(c *gin.Context) {
	if id, ok := pathID(c); ok {
		s.saveSupplier(c, id)
	}
}

func (s *Server) saveSupplier(c *gin.Context, id uuid.UUID) {
	var in stock.SupplierInput
	if err := c.ShouldBindJSON(&in); err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}
	if res := stock.ValidateSupplier(&in); !res.IsValid {
		invalid(c, res.Errors)
		return
	}
	sup, err := s.store.SaveSupplier(id, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	status := http.StatusOK
	if id == uuid.Nil {
		status = http.StatusCreated
	}
	c.JSON(status, sup)
}

func (s *Server) deleteSupplier(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.store.DeleteSupplier(id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------------

func (s *Server) listTransactions(c *gin.Context) {
	f, ok := s.filter(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.store.ListTransactions(f))
}

func (s *Server) transactionStats(c *gin.Context) {
	c.JSON(http.StatusOK, report.SummarizeTransactions(s.store.Transactions()))
}

// recordTransaction handles a movement; a non-empty typ overrides the body's type
func (s *Server) recordTransaction(typ stock.TransactionType) gin.HandlerFunc {
	return func(c *gin.Context) {
		var d stock.TransactionDraft
		if err := c.ShouldBindJSON(&d); err != nil {
			detail(c, http.StatusBadRequest, err.Error())
			return
		}
		if typ != "" {
			d.TransactionType = typ
		}
		d.Normalize()
		if res := stock.ValidateTransaction(&d); !res.IsValid {
			invalid(c, res.Errors)
			return
		}
		t, err := s.store.Record(d, claimsOf(c).Username)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, t)
	}
}

// ---------------------------------------------------------------------------
// Dashboard
// ---------------------------------------------------------------------------

func (s *Server) dashboardStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.stats())
}

// stats counts movements created today and this calendar month in the server's zone
func (s *Server) stats() report.DashboardStats {
	products := s.store.Products()
	out, low := stock.CountStockAlerts(products)
	st := report.DashboardStats{
		TotalProducts:      int64(len(products)),
		TotalSuppliers:     int64(len(s.store.Suppliers())),
		LowStockProducts:   int64(low),
		OutOfStockProducts: int64(out),
	}
	for i := range products {
		st.TotalStockValue = st.TotalStockValue.Add(products[i].InventoryValue())
	}

	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)
	for _, t := range s.store.Transactions() {
		if t.CreatedAt.Before(month) {
			continue
		}
		isToday := !t.CreatedAt.Before(today)
		st.TotalTransactionsThisMonth++
		if isToday {
			st.TotalTransactionsToday++
		}
		switch t.TransactionType {
		case stock.TransactionTypeStockIn:
			st.StockInThisMonth += t.Quantity
			if isToday {
				st.StockInToday += t.Quantity
			}
		case stock.TransactionTypeStockOut:
			st.StockOutThisMonth += t.Quantity
			if isToday {
				st.StockOutToday += t.Quantity
			}
		}
	}
	return st
}

func (s *Server) inventoryValue(c *gin.Context) {
	products := s.store.Products()
	names := make(map[uuid.UUID]string)
	for _, sup := range s.store.Suppliers() {
		names[sup.ID] = sup.Name
	}
	c.JSON(http.StatusOK, report.InventoryValueReport{
		ByCategory: report.BreakdownByCategory(products),
		BySupplier: report.BreakdownBySupplier(products, names),
	})
}

func (s *Server) stockLevels(c *gin.Context) {
	c.JSON(http.StatusOK, report.StockLevels(s.store.Products()))
}

func (s *Server) transactionTrends(c *gin.Context) {
	days, ok := intQuery(c, "days", defaultTrend)
	if !ok {
		return
	}
	entries := report.DailySummary(s.store.Transactions(), s.now(), days, s.loc)
	c.JSON(http.StatusOK, report.Trends(entries))
}

func (s *Server) lowStockProducts(c *gin.Context) {
	c.JSON(http.StatusOK, report.StockAlerts(s.store.Products(), 0))
}

func (s *Server) recentActivities(c *gin.Context) {
	limit, ok := intQuery(c, "limit", defaultFeed)
	if !ok {
		return
	}
	recent := s.store.Transactions()
	recent = recent[:min(limit, len(recent))]
	feed := make([]report.RecentActivity, 0, len(recent))
	for _, t := range recent {
		feed = append(feed, report.RecentActivity{
			ID:              t.ID,
			ProductName:     t.ProductName,
			ProductSKU:      t.ProductSKU,
			TransactionType: t.TransactionType,
			Quantity:        t.Quantity,
			TotalAmount:     t.TotalAmount,
			TransactionDate: t.TransactionDate,
			ReferenceNumber: t.ReferenceNumber,
		})
	}
	c.JSON(http.StatusOK, feed)
}

// ---------------------------------------------------------------------------
// Query parsing
// ---------------------------------------------------------------------------

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		detail(c, http.StatusNotFound, "Not found")
		return uuid.Nil, false
	}
	return id, true
}

func intQuery(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		detail(c, http.StatusBadRequest, "Invalid "+key)
		return 0, false
	}
	return n, true
}

// filter parses the list query parameters. date_to covers the whole day.
func (s *Server) filter(c *gin.Context) (stock.Filter, bool) {
	f := stock.Filter{
		Search:          c.Query("search"),
		Category:        c.Query("category"),
		Status:          c.Query("status"),
		TransactionType: stock.TransactionType(c.Query("transaction_type")),
		SortBy:          c.Query("sort_by"),
		SortOrder:       stock.SortOrder(c.Query("sort_order")),
	}
	var ok bool
	if f.Page, ok = intQuery(c, "page", 1); !ok {
		return f, false
	}
	if f.PerPage, ok = intQuery(c, "per_page", stock.DefaultPerPage); !ok {
		return f, false
	}
	for key, dst := range map[string]**uuid.UUID{"supplier_id": &f.SupplierID, "product_id": &f.ProductID} {
		if raw := c.Query(key); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				detail(c, http.StatusBadRequest, "Invalid "+key)
				return f, false
			}
			*dst = &id
		}
	}
	if raw := c.Query("low_stock_only"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			detail(c, http.StatusBadRequest, "Invalid low_stock_only")
			return f, false
		}
		f.LowStockOnly = &b
	}
	for key, dst := range map[string]**time.Time{"date_from": &f.DateFrom, "date_to": &f.DateTo} {
		if raw := c.Query(key); raw != "" {
			d, err := time.ParseInLocation(dateLayout, raw, s.loc)
			if err != nil {
				detail(c, http.StatusBadRequest, "Invalid "+key)
				return f, false
			}
			if key == "date_to" {
				d = d.AddDate(0, 0, 1).Add(-time.Nanosecond)
			}
			*dst = &d
		}
	}
	return f, true
}
