package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
)

// ListQuery is the list filter accepted by every collection endpoint
type ListQuery struct {
	Page       int       `form:"page" binding:"omitempty,min=1"`
	PerPage    int       `form:"per_page" binding:"omitempty,min=1,max=100"`
	Search     string    `form:"search"`
	Category   string    `form:"category"`
	Status     string    `form:"status"`
	SortBy     string    `form:"sort_by"`
	SortOrder  string    `form:"sort_order" binding:"omitempty,oneof=asc desc"`
	SupplierID string    `form:"supplier_id" binding:"omitempty,uuid"`
	ProductID  string    `form:"product_id" binding:"omitempty,uuid"`
	Type       string    `form:"transaction_type" binding:"omitempty,oneof=stock_in stock_out adjustment"`
	LowStock   *bool     `form:"low_stock"`
	DateFrom   time.Time `form:"date_from" time_format:"2006-01-02"`
	DateTo     time.Time `form:"date_to" time_format:"2006-01-02"`
}

// Filter converts the query into a backend filter. DateTo is inclusive of the whole day.
func (q ListQuery) Filter() stock.Filter {
	f := stock.Filter{
		Search:          strings.TrimSpace(q.Search),
		Category:        q.Category,
		Status:          q.Status,
		SortBy:          q.SortBy,
		SortOrder:       stock.SortOrder(q.SortOrder),
		Page:            q.Page,
		PerPage:         q.PerPage,
		TransactionType: stock.TransactionType(q.Type),
		LowStockOnly:    q.LowStock,
	}
	if id, err := uuid.Parse(q.SupplierID); err == nil {
		f.SupplierID = &id
	}
	if id, err := uuid.Parse(q.ProductID); err == nil {
		f.ProductID = &id
	}
	if !q.DateFrom.IsZero() {
		from := q.DateFrom
		f.DateFrom = &from
	}
	if !q.DateTo.IsZero() {
		to := q.DateTo.Add(24*time.Hour - time.Nanosecond)
		f.DateTo = &to
	}
	return f
}

// SummaryQuery selects the daily summary window
type SummaryQuery struct {
	Days int `form:"days" binding:"omitempty,min=1,max=365"`
}

// TopProductsQuery selects the product ranking
type TopProductsQuery struct {
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Metric string `form:"metric" binding:"omitempty,oneof=transactions quantity movement value"`
	Days   int    `form:"days" binding:"omitempty,min=1,max=365"`
}

// LimitQuery bounds a short list
type LimitQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// ReorderQuery optionally overrides the per-product minimum level
type ReorderQuery struct {
	Threshold *int64 `form:"threshold" binding:"omitempty,min=0"`
}

// ExportQuery selects an export. Entities is a comma-separated list.
type ExportQuery struct {
	Format    string `form:"format" binding:"required"`
	Entities  string `form:"entities"`
	Prefix    string `form:"prefix" binding:"omitempty,max=100"`
	Timestamp *bool  `form:"timestamp"`
	Store     bool   `form:"store"`
}

// EntityNames splits Entities, dropping blanks
func (q ExportQuery) EntityNames() []string {
	var names []string
	for _, n := range strings.Split(q.Entities, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// LoginRequest is the login form
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TransactionRequest records a stock movement. total_amount is never accepted.
type TransactionRequest struct {
	ProductID       uuid.UUID       `json:"product_id" binding:"required"`
	TransactionType string          `json:"transaction_type" binding:"omitempty,oneof=stock_in stock_out adjustment"`
	Quantity        int64           `json:"quantity" binding:"required,gt=0"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	ReferenceNumber string          `json:"reference_number" binding:"omitempty,max=255"`
	Notes           string          `json:"notes"`
}

// Draft converts the request to a normalized draft of the given type
func (r TransactionRequest) Draft(typ stock.TransactionType) stock.TransactionDraft {
	if typ == "" {
		typ = stock.TransactionType(r.TransactionType)
	}
	d := stock.NewTransactionDraft(r.ProductID, typ, r.Quantity, r.UnitPrice)
	d.ReferenceNumber = strings.TrimSpace(r.ReferenceNumber)
	d.Notes = strings.TrimSpace(r.Notes)
	return d
}
