package fakebackend

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
	"github.com/stockmgmt/dashboard/internal/infrastructure/fakedata"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Store is the in-memory inventory behind the fake backend
type Store struct {
	mu           sync.RWMutex
	suppliers    []stock.Supplier
	products     []stock.Product
	transactions []stock.Transaction // newest first
	now          func() time.Time
}

// NewStore seeds a store from a generated catalog
func NewStore(c fakedata.Catalog, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		suppliers:    slices.Clone(c.Suppliers),
		products:     slices.Clone(c.Products),
		transactions: slices.Clone(c.Transactions),
		now:          now,
	}
}

// Products returns a copy of every product
func (s *Store) Products() []stock.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.products)
}

// Suppliers returns a copy of every supplier
func (s *Store) Suppliers() []stock.Supplier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.suppliers)
}

// Transactions returns a copy of every transaction, newest first
func (s *Store) Transactions() []stock.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.transactions)
}

// ListProducts filters, sorts and pages the products
func (s *Store) ListProducts(f stock.Filter) stock.Page[stock.Product] {
	items := slices.DeleteFunc(s.Products(), func(p stock.Product) bool { return !matchProduct(p, f) })
	sortBy(items, f, func(a, b stock.Product) int {
		switch f.SortBy {
		case "current_stock":
			return cmp.Compare(a.CurrentStock, b.CurrentStock)
		case "unit_price":
			return a.UnitPrice.Cmp(b.UnitPrice)
		case "created_at":
			return a.CreatedAt.Compare(b.CreatedAt)
		}
		return strings.Compare(a.Name, b.Name)
	})
	return paginate(items, f)
}

func matchProduct(p stock.Product, f stock.Filter) bool {
	if q := strings.ToLower(f.Search); q != "" &&
		!strings.Contains(strings.ToLower(p.Name), q) &&
		!strings.Contains(strings.ToLower(p.SKU), q) &&
		!strings.Contains(strings.ToLower(p.Description), q) {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Status != "" && string(p.Status) != f.Status {
		return false
	}
	if f.SupplierID != nil && (p.SupplierID == nil || *p.SupplierID != *f.SupplierID) {
		return false
	}
	if f.LowStockOnly != nil && *f.LowStockOnly && p.CurrentStock > p.MinStockLevel {
		return false
	}
	return true
}

// Product returns one product
func (s *Store) Product(id uuid.UUID) (stock.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.products, func(p stock.Product) bool { return p.ID == id })
	if i < 0 {
		return stock.Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return s.products[i], nil
}

// SaveProduct creates a product when id is nil, otherwise replaces it
func (s *Store) SaveProduct(id uuid.UUID, in stock.ProductInput) (stock.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p := stock.Product{
		ID:            uuid.New(),
		Name:          strings.TrimSpace(in.Name),
		SKU:           in.SKU,
		Category:      in.Category,
		Description:   in.Description,
		UnitPrice:     in.UnitPrice,
		MinStockLevel: in.MinStockLevel,
		CurrentStock:  in.CurrentStock,
		SupplierID:    in.SupplierID,
		Status:        cmp.Or(in.Status, stock.ProductStatusActive),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.SupplierID != nil {
		i := slices.IndexFunc(s.suppliers, func(x stock.Supplier) bool { return x.ID == *in.SupplierID })
		if i < 0 {
			return stock.Product{}, fmt.Errorf("supplier %s: %w", *in.SupplierID, ErrNotFound)
		}
		sup := s.suppliers[i]
		p.Supplier = &stock.SupplierRef{ID: sup.ID, Name: sup.Name, ContactPerson: sup.ContactPerson}
	}

	if id == uuid.Nil {
		s.products = append(s.products, p)
		return p, nil
	}
	i := slices.IndexFunc(s.products, func(x stock.Product) bool { return x.ID == id })
	if i < 0 {
		return stock.Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	p.ID = id
	p.CreatedAt = s.products[i].CreatedAt
	s.products[i] = p
	return p, nil
}

// DeleteProduct removes a product
func (s *Store) DeleteProduct(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.products)
	s.products = slices.DeleteFunc(s.products, func(p stock.Product) bool { return p.ID == id })
	if len(s.products) == n {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return nil
}

// Categories returns the distinct product categories, sorted
func (s *Store) Categories() []string {
	var out []string
	for _, p := range s.Products() {
		if p.Category != "" && !slices.Contains(out, p.Category) {
			out = append(out, p.Category)
		}
	}
	slices.Sort(out)
	return out
}

// ListSuppliers filters, sorts and pages the suppliers
func (s *Store) ListSuppliers(f stock.Filter) stock.Page[stock.Supplier] {
	q := strings.ToLower(f.Search)
	items := slices.DeleteFunc(s.Suppliers(), func(x stock.Supplier) bool {
		if f.Status != "" && string(x.Status) != f.Status {
			return true
		}
		return q != "" && !strings.Contains(strings.ToLower(x.Name), q) &&
			!strings.Contains(strings.ToLower(x.ContactPerson), q)
	})
	sortBy(items, f, func(a, b stock.Supplier) int {
		if f.SortBy == "created_at" {
			return a.CreatedAt.Compare(b.CreatedAt)
		}
		return strings.Compare(a.Name, b.Name)
	})
	return paginate(items, f)
}

// Supplier returns one supplier
func (s *Store) Supplier(id uuid.UUID) (stock.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.suppliers, func(x stock.Supplier) bool { return x.ID == id })
	if i < 0 {
		return stock.Supplier{}, fmt.Errorf("supplier %s: %w", id, ErrNotFound)
	}
	return s.suppliers[i], nil
}

// SaveSupplier creates a supplier when id is nil, otherwise replaces it
func (s *Store) SaveSupplier(id uuid.UUID, in stock.SupplierInput) (stock.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sup := stock.Supplier{
		ID:            uuid.New(),
		Name:          strings.TrimSpace(in.Name),
		ContactPerson: in.ContactPerson,
		Email:         in.Email,
		Phone:         in.Phone,
		Address:       in.Address,
		Website:       in.Website,
		Notes:         in.Notes,
		Status:        cmp.Or(in.Status, stock.SupplierStatusActive),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if id == uuid.Nil {
		s.suppliers = append(s.suppliers, sup)
		return sup, nil
	}
	i := slices.IndexFunc(s.suppliers, func(x stock.Supplier) bool { return x.ID == id })
	if i < 0 {
		return stock.Supplier{}, fmt.Errorf("supplier %s: %w", id, ErrNotFound)
	}
	prev := s.suppliers[i]
	sup.ID, sup.CreatedAt = id, prev.CreatedAt
	sup.ProductCount, sup.TotalTransactions, sup.TotalValue = prev.ProductCount, prev.TotalTransactions, prev.TotalValue
	s.suppliers[i] = sup
	return sup, nil
}

// DeleteSupplier removes a supplier
func (s *Store) DeleteSupplier(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.suppliers)
	s.suppliers = slices.DeleteFunc(s.suppliers, func(x stock.Supplier) bool { return x.ID == id })
	if len(s.suppliers) == n {
		return fmt.Errorf("supplier %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListTransactions filters and pages the transactions, newest first unless sorted otherwise
func (s *Store) ListTransactions(f stock.Filter) stock.Page[stock.Transaction] {
	items := slices.DeleteFunc(s.Transactions(), func(t stock.Transaction) bool { return !matchTransaction(t, f) })
	if f.SortBy != "" {
		sortBy(items, f, func(a, b stock.Transaction) int {
			switch f.SortBy {
			case "quantity":
				return cmp.Compare(a.Quantity, b.Quantity)
			case "total_amount":
				return a.Value().Cmp(b.Value())
			}
			return a.CreatedAt.Compare(b.CreatedAt)
		})
	}
	return paginate(items, f)
}

func matchTransaction(t stock.Transaction, f stock.Filter) bool {
	if f.ProductID != nil && t.ProductID != *f.ProductID {
		return false
	}
	if f.TransactionType != "" && t.TransactionType != f.TransactionType {
		return false
	}
	if f.DateFrom != nil && t.CreatedAt.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && t.CreatedAt.After(*f.DateTo) {
		return false
	}
	if q := strings.ToLower(f.Search); q != "" &&
		!strings.Contains(strings.ToLower(t.ProductName), q) &&
		!strings.Contains(strings.ToLower(t.ReferenceNumber), q) {
		return false
	}
	return true
}

// Record applies a movement to its product and stores the transaction.
// A stock-out larger than the current level fails with ErrInsufficientStock.
func (s *Store) Record(d stock.TransactionDraft, createdBy string) (stock.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.products, func(p stock.Product) bool { return p.ID == d.ProductID })
	if i < 0 {
		return stock.Transaction{}, fmt.Errorf("product %s: %w", d.ProductID, ErrNotFound)
	}
	p := &s.products[i]
	if err := stock.CheckStockOut(p, d.Quantity); d.TransactionType == stock.TransactionTypeStockOut && err != nil {
		return stock.Transaction{}, fmt.Errorf("%w: %d requested, %d available", ErrInsufficientStock, d.Quantity, p.CurrentStock)
	}

	now := s.now()
	t := stock.Transaction{
		ID:              uuid.New(),
		ProductID:       p.ID,
		ProductName:     p.Name,
		ProductSKU:      p.SKU,
		SupplierName:    p.SupplierName(),
		TransactionType: d.TransactionType,
		Quantity:        d.Quantity,
		UnitPrice:       d.UnitPrice,
		TotalAmount:     stock.ComputeTotal(d.Quantity, d.UnitPrice),
		ReferenceNumber: d.ReferenceNumber,
		Notes:           d.Notes,
		CreatedBy:       createdBy,
		PreviousStock:   p.CurrentStock,
		TransactionDate: now,
		CreatedAt:       now,
	}
	t.NewStock = max(p.CurrentStock+t.SignedQuantity(), 0)
	p.CurrentStock = t.NewStock
	p.UpdatedAt = now

	s.transactions = slices.Insert(s.transactions, 0, t)
	return t, nil
}

func sortBy[T any](items []T, f stock.Filter, compare func(a, b T) int) {
	if f.SortOrder == stock.SortDesc {
		slices.SortStableFunc(items, func(a, b T) int { return compare(b, a) })
		return
	}
	slices.SortStableFunc(items, compare)
}

// paginate slices items into the page f asks for
func paginate[T any](items []T, f stock.Filter) stock.Page[T] {
	page := max(f.Page, 1)
	perPage := f.PerPage
	if perPage <= 0 {
		perPage = stock.DefaultPerPage
	}
	perPage = min(perPage, stock.MaxPerPage)

	total := len(items)
	pages := (total + perPage - 1) / perPage
	start := min((page-1)*perPage, total)
	end := min(start+perPage, total)

	return stock.Page[T]{
		Items:   slices.Clone(items[start:end]),
		Total:   int64(total),
		Page:    page,
		PerPage: perPage,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
	}
}
