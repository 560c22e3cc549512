package router

import (
	"github.com/gin-gonic/gin"
	"github.com/stockmgmt/dashboard/internal/application/session"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
	"github.com/stockmgmt/dashboard/internal/interfaces/http/handler"
)

// API holds the handlers behind the /api routes
type API struct {
	System        *handler.SystemHandler
	Auth          *handler.AuthHandler
	Dashboard     *handler.DashboardHandler
	Products      *handler.ProductHandler
	Suppliers     *handler.SupplierHandler
	Transactions  *handler.TransactionHandler
	Reports       *handler.ReportHandler
	Exports       *handler.ExportHandler
	Notifications *handler.NotificationHandler
	// LoginLimit, when set, runs in front of the login handler
	LoginLimit gin.HandlerFunc
}

// Groups returns one DomainGroup per area
func (a *API) Groups() []*DomainGroup {
	system := NewDomainGroup("system", "", session.Public).
		GET("/health", a.System.Health).
		GET("/ping", a.System.Ping)

	login := []gin.HandlerFunc{a.Auth.Login}
	if a.LoginLimit != nil {
		login = append([]gin.HandlerFunc{a.LoginLimit}, login...)
	}
	auth := NewDomainGroup("auth", "/auth", session.Public).
		POST("/login", login...).
		GET("/status", a.Auth.Status).
		Handle("POST", "/logout", session.Authenticated, a.Auth.Logout)

	dashboard := NewDomainGroup("dashboard", "/dashboard", session.RequirePermission(stock.PermissionViewDashboard)).
		GET("", a.Dashboard.Get).
		GET("/summary", a.Dashboard.Summary).
		GET("/top-products", a.Dashboard.TopProducts).
		GET("/alerts", a.Dashboard.Alerts).
		GET("/inventory-value", a.Dashboard.InventoryValue)

	manageProducts := session.RequirePermission(stock.PermissionManageProducts)
	products := NewDomainGroup("products", "/products", session.RequirePermission(stock.PermissionViewProducts)).
		GET("", a.Products.List).
		GET("/low-stock", a.Products.LowStock).
		GET("/out-of-stock", a.Products.OutOfStock).
		GET("/reorder", a.Products.Reorder).
		GET("/categories", a.Products.Categories).
		GET("/:id", a.Products.Get).
		Handle("POST", "", manageProducts, a.Products.Create).
		Handle("PUT", "/:id", manageProducts, a.Products.Update).
		Handle("DELETE", "/:id", manageProducts, a.Products.Delete)

	manageSuppliers := session.RequirePermission(stock.PermissionManageSuppliers)
	suppliers := NewDomainGroup("suppliers", "/suppliers", session.RequirePermission(stock.PermissionViewSuppliers)).
		GET("", a.Suppliers.List).
		GET("/:id", a.Suppliers.Get).
		GET("/:id/products", a.Suppliers.Products).
		Handle("POST", "", manageSuppliers, a.Suppliers.Create).
		Handle("PUT", "/:id", manageSuppliers, a.Suppliers.Update).
		Handle("DELETE", "/:id", manageSuppliers, a.Suppliers.Delete)

	createTxn := session.RequirePermission(stock.PermissionCreateTransaction)
	transactions := NewDomainGroup("transactions", "/transactions", session.RequirePermission(stock.PermissionViewTransactions)).
		GET("", a.Transactions.List).
		Handle("POST", "", createTxn, a.Transactions.Create).
		Handle("POST", "/stock-in", createTxn, a.Transactions.StockIn).
		Handle("POST", "/stock-out", createTxn, a.Transactions.StockOut)

	reports := NewDomainGroup("reports", "/reports", session.RequirePermission(stock.PermissionViewDashboard))
	reports.GET("/statistics", a.Reports.Statistics).
		GET("/categories", a.Reports.Categories).
		GET("/suppliers", a.Reports.Suppliers)
	reports.Group("transaction-reports", "/transactions").
		GET("/summary", a.Reports.TransactionSummary).
		GET("/monthly", a.Reports.MonthlyTrends)

	exports := NewDomainGroup("exports", "/exports", session.RequirePermission(stock.PermissionExportReports)).
		GET("", a.Exports.Export).
		GET("/files/*key", a.Exports.Download)

	notifications := NewDomainGroup("notifications", "/notifications", session.Authenticated).
		GET("", a.Notifications.List).
		DELETE("/:id", a.Notifications.Dismiss)

	return []*DomainGroup{system, auth, dashboard, products, suppliers, transactions, reports, exports, notifications}
}

// RegisterAll registers every group of a on r
func (a *API) RegisterAll(r *Router) *Router {
	for _, g := range a.Groups() {
		r.Register(g)
	}
	return r
}
