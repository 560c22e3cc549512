package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SupplierStatus represents the status of a supplier
type SupplierStatus string

const (
	SupplierStatusActive   SupplierStatus = "active"
	SupplierStatusInactive SupplierStatus = "inactive"
)

// Supplier is the client-side view of a supplier. The counters are computed
// by the backend and are never written by the client.
type Supplier struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	ContactPerson     string          `json:"contact_person,omitempty"`
	Email             string          `json:"email,omitempty"`
	Phone             string          `json:"phone,omitempty"`
	Address           string          `json:"address,omitempty"`
	Website           string          `json:"website,omitempty"`
	Notes             string          `json:"notes,omitempty"`
	Status            SupplierStatus  `json:"status"`
	ProductCount      int64           `json:"product_count"`
	TotalTransactions int64           `json:"total_transactions"`
	TotalValue        decimal.Decimal `json:"total_value"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// IsActive reports whether the supplier is active
func (s *Supplier) IsActive() bool {
	return s.Status == SupplierStatusActive
}

// SupplierInput is the payload for creating or updating a supplier
type SupplierInput struct {
	Name          string         `json:"name" validate:"required,max=255"`
	ContactPerson string         `json:"contact_person,omitempty" validate:"max=255"`
	Email         string         `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone         string         `json:"phone,omitempty" validate:"omitempty,phone,max=50"`
	Address       string         `json:"address,omitempty"`
	Website       string         `json:"website,omitempty" validate:"omitempty,url,max=500"`
	Notes         string         `json:"notes,omitempty"`
	Status        SupplierStatus `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}
