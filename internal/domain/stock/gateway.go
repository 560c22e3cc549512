package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SortOrder is the direction of a list sort
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Pagination limits enforced by the backend
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Filter carries the optional list query parameters accepted by the backend.
// Zero values and nil pointers mean "not set" and are never sent.
type Filter struct {
	Search          string
	Category        string
	Status          string
	SupplierID      *uuid.UUID
	ProductID       *uuid.UUID
	TransactionType TransactionType
	LowStockOnly    *bool
	SortBy          string
	SortOrder       SortOrder
	Page            int
	PerPage         int
	DateFrom        *time.Time
	DateTo          *time.Time
}

// Page is the paginated list envelope. Items may be absent in a response;
// use List to read them.
type Page[T any] struct {
	Items   []T   `json:"items"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Pages   int   `json:"pages"`
	HasNext bool  `json:"has_next"`
	HasPrev bool  `json:"has_prev"`
}

// List returns the page items, never nil
func (p *Page[T]) List() []T {
	if p == nil || p.Items == nil {
		return []T{}
	}
	return p.Items
}

// ProductGateway is the backend's product resource
type ProductGateway interface {
	// List returns one page of products matching the filter
	List(ctx context.Context, filter Filter) (*Page[Product], error)

	// ListAll walks every page and returns all products matching the filter
	ListAll(ctx context.Context, filter Filter) ([]Product, error)

	// Get returns a single product; a missing product yields shared.ErrNotFound
	Get(ctx context.Context, id uuid.UUID) (*Product, error)

	Create(ctx context.Context, in ProductInput) (*Product, error)
	Update(ctx context.Context, id uuid.UUID, in ProductInput) (*Product, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Categories returns the distinct category names known to the backend
	Categories(ctx context.Context) ([]string, error)
}

// SupplierGateway is the backend's supplier resource
type SupplierGateway interface {
	List(ctx context.Context, filter Filter) (*Page[Supplier], error)
	ListAll(ctx context.Context, filter Filter) ([]Supplier, error)
	Get(ctx context.Context, id uuid.UUID) (*Supplier, error)
	Create(ctx context.Context, in SupplierInput) (*Supplier, error)
	Update(ctx context.Context, id uuid.UUID, in SupplierInput) (*Supplier, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TransactionGateway is the backend's transaction resource. Transactions are create-only.
type TransactionGateway interface {
	List(ctx context.Context, filter Filter) (*Page[Transaction], error)
	ListAll(ctx context.Context, filter Filter) ([]Transaction, error)
	Create(ctx context.Context, draft TransactionDraft) (*Transaction, error)
	StockIn(ctx context.Context, draft TransactionDraft) (*Transaction, error)
	StockOut(ctx context.Context, draft TransactionDraft) (*Transaction, error)
}

// AuthGateway is the backend's authentication resource
type AuthGateway interface {
	Login(ctx context.Context, creds Credentials) (*Token, error)
	Logout(ctx context.Context) error
	Refresh(ctx context.Context) (*Token, error)

	// Validate checks the current bearer token and returns the user it belongs to
	Validate(ctx context.Context) (*User, error)
}
