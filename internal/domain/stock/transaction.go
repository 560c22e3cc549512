package stock

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockmgmt/dashboard/internal/domain/shared"
)

// TransactionType represents the kind of stock movement
type TransactionType string

const (
	TransactionTypeStockIn    TransactionType = "stock_in"
	TransactionTypeStockOut   TransactionType = "stock_out"
	TransactionTypeAdjustment TransactionType = "adjustment"
)

// IsValid reports whether the type is one the backend accepts
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeStockIn, TransactionTypeStockOut, TransactionTypeAdjustment:
		return true
	}
	return false
}

// DisplayName returns the user-facing label
func (t TransactionType) DisplayName() string {
	switch t {
	case TransactionTypeStockIn:
		return "Stock In"
	case TransactionTypeStockOut:
		return "Stock Out"
	case TransactionTypeAdjustment:
		return "Adjustment"
	}
	return string(t)
}

// Transaction is an immutable stock movement record. There is no update
// endpoint; a transaction can only be created.
type Transaction struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	ProductName     string          `json:"product_name,omitempty"`
	ProductSKU      string          `json:"product_sku,omitempty"`
	SupplierName    string          `json:"supplier_name,omitempty"`
	TransactionType TransactionType `json:"transaction_type"`
	Quantity        int64           `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CreatedBy       string          `json:"created_by,omitempty"`
	PreviousStock   int64           `json:"previous_stock"`
	NewStock        int64           `json:"new_stock"`
	TransactionDate time.Time       `json:"transaction_date"`
	CreatedAt       time.Time       `json:"created_at"`
}

// SignedQuantity returns the quantity with stock-out movements negated
func (t *Transaction) SignedQuantity() int64 {
	q := t.Quantity
	if q < 0 {
		q = -q
	}
	if t.TransactionType == TransactionTypeStockOut {
		return -q
	}
	return q
}

// Value returns quantity × unit_price. TotalAmount as reported by the backend
// is not trusted for aggregation.
func (t *Transaction) Value() decimal.Decimal {
	return ComputeTotal(t.Quantity, t.UnitPrice)
}

// TransactionDraft is the create payload. TotalAmount is always derived.
type TransactionDraft struct {
	ProductID       uuid.UUID       `json:"product_id" validate:"required"`
	TransactionType TransactionType `json:"transaction_type" validate:"required,oneof=stock_in stock_out adjustment"`
	Quantity        int64           `json:"quantity" validate:"gt=0"`
	UnitPrice       decimal.Decimal `json:"unit_price" validate:"gte=0"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ReferenceNumber string          `json:"reference_number,omitempty" validate:"max=255"`
	Notes           string          `json:"notes,omitempty"`
}

// NewTransactionDraft builds a draft with TotalAmount computed from quantity and price
func NewTransactionDraft(productID uuid.UUID, typ TransactionType, quantity int64, unitPrice decimal.Decimal) TransactionDraft {
	d := TransactionDraft{
		ProductID:       productID,
		TransactionType: typ,
		Quantity:        quantity,
		UnitPrice:       unitPrice,
	}
	d.Normalize()
	return d
}

// Normalize overwrites TotalAmount with quantity × unit_price, discarding any passed-in value
func (d *TransactionDraft) Normalize() {
	d.TotalAmount = ComputeTotal(d.Quantity, d.UnitPrice)
}

// ComputeTotal returns |quantity| × unitPrice
func ComputeTotal(quantity int64, unitPrice decimal.Decimal) decimal.Decimal {
	if quantity < 0 {
		quantity = -quantity
	}
	return unitPrice.Mul(decimal.NewFromInt(quantity))
}

// CheckStockOut is an advisory pre-check for a stock-out of quantity units.
// The backend remains the authority and may still reject the movement.
func CheckStockOut(p *Product, quantity int64) error {
	if p == nil {
		return shared.ErrNotFound
	}
	if quantity > p.CurrentStock {
		return shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("Insufficient stock for %s: requested %d, available %d", p.Name, quantity, p.CurrentStock))
	}
	return nil
}
