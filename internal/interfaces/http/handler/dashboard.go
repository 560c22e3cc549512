package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stockmgmt/dashboard/internal/application/appstate"
	"github.com/stockmgmt/dashboard/internal/domain/report"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
	"github.com/stockmgmt/dashboard/internal/interfaces/http/dto"
)

// Defaults for dashboard queries without explicit parameters
const (
	DefaultSummaryDays = 7
	DefaultTopLimit    = 10
	DefaultAlertLimit  = 20
)

// DashboardHandler serves the composite dashboard and its charts
type DashboardHandler struct {
	BaseHandler
	svc   DashboardService
	state *appstate.State
	now   func() time.Time
}

// NewDashboardHandler creates a DashboardHandler. state may be nil.
func NewDashboardHandler(svc DashboardService, state *appstate.State) *DashboardHandler {
	return &DashboardHandler{svc: svc, state: state, now: time.Now}
}

// Get loads every dashboard panel as one unit. With cached=true the last
// successful load is served when there is one.
func (h *DashboardHandler) Get(c *gin.Context) {
	if c.Query("cached") == "true" {
		if d := h.svc.Last(); d != nil {
			h.Success(c, d)
			return
		}
	}

	if h.state != nil {
		h.state.SetLoading(true)
		defer h.state.SetLoading(false)
	}
	d, err := h.svc.Load(c.Request.Context())
	if h.state != nil {
		h.state.SetError(err)
		if err == nil {
			h.state.SetDashboard(d)
		}
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, d)
}

// Summary returns dense per-day movement totals for the last N days
func (h *DashboardHandler) Summary(c *gin.Context) {
	var q dto.SummaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	days := q.Days
	if days == 0 {
		days = DefaultSummaryDays
	}
	entries, err := h.svc.DailySummary(c.Request.Context(), days)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}

// TopProducts ranks products by movement. days narrows the window.
func (h *DashboardHandler) TopProducts(c *gin.Context) {
	var q dto.TopProductsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	limit := q.Limit
	if limit == 0 {
		limit = DefaultTopLimit
	}
	var filter stock.Filter
	if q.Days > 0 {
		from := h.now().AddDate(0, 0, -q.Days)
		filter.DateFrom = &from
	}

	ranked, err := h.svc.TopProducts(c.Request.Context(), filter, limit, report.ParseRankMetric(q.Metric))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ranked)
}

// Alerts lists out-of-stock and low-stock products, most urgent first
func (h *DashboardHandler) Alerts(c *gin.Context) {
	var q dto.LimitQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	limit := q.Limit
	if limit == 0 {
		limit = DefaultAlertLimit
	}
	alerts, err := h.svc.StockAlerts(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, alerts)
}

// InventoryValue returns the inventory value report
func (h *DashboardHandler) InventoryValue(c *gin.Context) {
	v, err := h.svc.InventoryValue(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, v)
}
