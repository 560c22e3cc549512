package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/stockmgmt/dashboard/internal/interfaces/http/dto"
)

// ReportHandler serves inventory statistics and transaction reports
type ReportHandler struct {
	BaseHandler
	svc ReportService
}

// NewReportHandler creates a ReportHandler
func NewReportHandler(svc ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// Statistics returns the inventory statistics
func (h *ReportHandler) Statistics(c *gin.Context) {
	stats, err := h.svc.Statistics(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// Categories returns per-category counts and value
func (h *ReportHandler) Categories(c *gin.Context) {
	rows, err := h.svc.CategoryBreakdown(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// Suppliers returns per-supplier counts and value
func (h *ReportHandler) Suppliers(c *gin.Context) {
	rows, err := h.svc.SupplierBreakdown(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// TransactionSummary totals the transactions matching the query
func (h *ReportHandler) TransactionSummary(c *gin.Context) {
	var q dto.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	summary, err := h.svc.Summary(c.Request.Context(), q.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// MonthlyTrends groups the matching transactions by month
func (h *ReportHandler) MonthlyTrends(c *gin.Context) {
	var q dto.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	trends, err := h.svc.MonthlyTrends(c.Request.Context(), q.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, trends)
}
