package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStatus represents the lifecycle status of a product
type ProductStatus string

const (
	ProductStatusActive       ProductStatus = "active"
	ProductStatusInactive     ProductStatus = "inactive"
	ProductStatusDiscontinued ProductStatus = "discontinued"
)

// IsValid reports whether the status is one the backend accepts
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusActive, ProductStatusInactive, ProductStatusDiscontinued:
		return true
	}
	return false
}

// StockStatus is the derived stock classification of a product
type StockStatus string

const (
	StockStatusOutOfStock StockStatus = "out_of_stock"
	StockStatusLow        StockStatus = "low_stock"
	StockStatusGood       StockStatus = "good"
)

// SupplierRef is the abbreviated supplier embedded in product responses
type SupplierRef struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contact_person,omitempty"`
}

// Product is the client-side representation of a backend product record.
// The backend owns identity; the client never generates IDs.
type Product struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku,omitempty"`
	Category      string          `json:"category,omitempty"`
	Description   string          `json:"description,omitempty"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	MinStockLevel int64           `json:"min_stock_level"`
	CurrentStock  int64           `json:"current_stock"`
	SupplierID    *uuid.UUID      `json:"supplier_id,omitempty"`
	Supplier      *SupplierRef    `json:"supplier,omitempty"`
	Status        ProductStatus   `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ProductInput is the payload for creating or replacing a product
type ProductInput struct {
	Name          string          `json:"name" validate:"required,max=255"`
	SKU           string          `json:"sku,omitempty" validate:"max=100"`
	Category      string          `json:"category,omitempty" validate:"max=100"`
	Description   string          `json:"description,omitempty"`
	UnitPrice     decimal.Decimal `json:"unit_price" validate:"gte=0"`
	MinStockLevel int64           `json:"min_stock_level" validate:"gte=0"`
	CurrentStock  int64           `json:"current_stock" validate:"gte=0"`
	SupplierID    *uuid.UUID      `json:"supplier_id,omitempty"`
	Status        ProductStatus   `json:"status,omitempty" validate:"omitempty,oneof=active inactive discontinued"`
}

// InventoryValue returns current_stock × unit_price
func (p *Product) InventoryValue() decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromInt(p.CurrentStock))
}

// IsOutOfStock reports whether the product has no stock left
func (p *Product) IsOutOfStock() bool {
	return IsOutOfStock(p.CurrentStock)
}

// IsLowStock reports whether the product is positive but at or below its minimum level
func (p *Product) IsLowStock() bool {
	return IsLowStock(p.CurrentStock, p.MinStockLevel)
}

// StockStatus classifies the product's stock level
func (p *Product) StockStatus() StockStatus {
	return ClassifyStock(p.CurrentStock, p.MinStockLevel)
}

// SupplierName returns the embedded supplier's name, or "" when unknown
func (p *Product) SupplierName() string {
	if p.Supplier == nil {
		return ""
	}
	return p.Supplier.Name
}

// IsActive reports whether the product status is active
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// The stock predicates below are the only place these comparisons are made.
// Every list badge, alert, report and export goes through them.

// IsOutOfStock reports current ≤ 0
func IsOutOfStock(current int64) bool {
	return current <= 0
}

// IsLowStock reports 0 < current ≤ minLevel. It is mutually exclusive with IsOutOfStock.
func IsLowStock(current, minLevel int64) bool {
	return !IsOutOfStock(current) && current <= minLevel
}

// ClassifyStock maps a stock level onto a StockStatus
func ClassifyStock(current, minLevel int64) StockStatus {
	switch {
	case IsOutOfStock(current):
		return StockStatusOutOfStock
	case IsLowStock(current, minLevel):
		return StockStatusLow
	default:
		return StockStatusGood
	}
}

// CountStockAlerts returns the number of out-of-stock and low-stock products
func CountStockAlerts(products []Product) (outOfStock, lowStock int) {
	for i := range products {
		switch products[i].StockStatus() {
		case StockStatusOutOfStock:
			outOfStock++
		case StockStatusLow:
			lowStock++
		}
	}
	return outOfStock, lowStock
}

// FilterByStockStatus returns the products whose classification matches status
func FilterByStockStatus(products []Product, status StockStatus) []Product {
	out := make([]Product, 0)
	for i := range products {
		if products[i].StockStatus() == status {
			out = append(out, products[i])
		}
	}
	return out
}
