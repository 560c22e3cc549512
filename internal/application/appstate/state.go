// Package appstate holds the dashboard's owned application state and the
// notification queue. All mutation goes through the methods defined here.
package appstate

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stockmgmt/dashboard/internal/application/inventory"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
)

// Change names the update that produced a new snapshot
type Change string

const (
	ChangeProducts     Change = "products"
	ChangeSuppliers    Change = "suppliers"
	ChangeTransactions Change = "transactions"
	ChangeDashboard    Change = "dashboard"
	ChangeLoading      Change = "loading"
	ChangeError        Change = "error"
)

// Snapshot is a copy of the state at one point in time
type Snapshot struct {
	Products     []stock.Product
	Suppliers    []stock.Supplier
	Transactions []stock.Transaction
	Dashboard    *inventory.Dashboard
	Loading      bool
	Error        string
	Version      uint64
	UpdatedAt    time.Time
}

// ChangeListener is called after each mutation, outside the state lock
type ChangeListener func(Change, Snapshot)

// State is the application state container. It is safe for concurrent use.
type State struct {
	mu           sync.RWMutex
	products     []stock.Product
	suppliers    []stock.Supplier
	transactions []stock.Transaction
	dashboard    *inventory.Dashboard
	loading      bool
	lastError    string
	version      uint64
	updatedAt    time.Time

	now      func() time.Time
	listener ChangeListener
}

// New creates an empty state
func New() *State {
	return &State{now: time.Now}
}

// OnChange installs the change listener, replacing any previous one
func (s *State) OnChange(l ChangeListener) {
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
}

// SetProducts replaces the product list
func (s *State) SetProducts(products []stock.Product) {
	s.update(ChangeProducts, func() {
		s.products = slices.Clone(products)
	})
}

// UpsertProduct replaces the product with the same id, or appends it
func (s *State) UpsertProduct(p stock.Product) {
	s.update(ChangeProducts, func() {
		if i := s.productIndex(p.ID); i >= 0 {
			s.products[i] = p
			return
		}
		s.products = append(s.products, p)
	})
}

// RemoveProduct drops the product with id; it reports whether one was removed
func (s *State) RemoveProduct(id uuid.UUID) bool {
	removed := false
	s.update(ChangeProducts, func() {
		if i := s.productIndex(id); i >= 0 {
			s.products = slices.Delete(s.products, i, i+1)
			removed = true
		}
	})
	return removed
}

func (s *State) productIndex(id uuid.UUID) int {
	return slices.IndexFunc(s.products, func(p stock.Product) bool { return p.ID == id })
}

// SetSuppliers replaces the supplier list
func (s *State) SetSuppliers(suppliers []stock.Supplier) {
	s.update(ChangeSuppliers, func() {
		s.suppliers = slices.Clone(suppliers)
	})
}

// UpsertSupplier replaces the supplier with the same id, or appends it
func (s *State) UpsertSupplier(sup stock.Supplier) {
	s.update(ChangeSuppliers, func() {
		if i := s.supplierIndex(sup.ID); i >= 0 {
			s.suppliers[i] = sup
			return
		}
		s.suppliers = append(s.suppliers, sup)
	})
}

// RemoveSupplier drops the supplier with id; it reports whether one was removed
func (s *State) RemoveSupplier(id uuid.UUID) bool {
	removed := false
	s.update(ChangeSuppliers, func() {
		if i := s.supplierIndex(id); i >= 0 {
			s.suppliers = slices.Delete(s.suppliers, i, i+1)
			removed = true
		}
	})
	return removed
}

func (s *State) supplierIndex(id uuid.UUID) int {
	return slices.IndexFunc(s.suppliers, func(sup stock.Supplier) bool { return sup.ID == id })
}

// SetTransactions replaces the transaction list
func (s *State) SetTransactions(transactions []stock.Transaction) {
	s.update(ChangeTransactions, func() {
		s.transactions = slices.Clone(transactions)
	})
}

// AddTransaction prepends a newly recorded transaction and, when the movement
// reports the resulting stock, updates the cached product
func (s *State) AddTransaction(t stock.Transaction) {
	s.update(ChangeTransactions, func() {
		s.transactions = slices.Insert(s.transactions, 0, t)
		if i := s.productIndex(t.ProductID); i >= 0 && (t.NewStock != 0 || t.PreviousStock != 0) {
			s.products[i].CurrentStock = t.NewStock
		}
	})
}

// SetDashboard replaces the dashboard snapshot
func (s *State) SetDashboard(d *inventory.Dashboard) {
	s.update(ChangeDashboard, func() {
		s.dashboard = d
	})
}

// SetLoading sets the loading flag
func (s *State) SetLoading(loading bool) {
	s.update(ChangeLoading, func() {
		s.loading = loading
	})
}

// SetError records err as the current error; nil clears it
func (s *State) SetError(err error) {
	s.update(ChangeError, func() {
		if err == nil {
			s.lastError = ""
			return
		}
		s.lastError = err.Error()
	})
}

// Snapshot returns a copy of the state
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *State) snapshotLocked() Snapshot {
	return Snapshot{
		Products:     slices.Clone(s.products),
		Suppliers:    slices.Clone(s.suppliers),
		Transactions: slices.Clone(s.transactions),
		Dashboard:    s.dashboard,
		Loading:      s.loading,
		Error:        s.lastError,
		Version:      s.version,
		UpdatedAt:    s.updatedAt,
	}
}

func (s *State) update(change Change, mutate func()) {
	s.mu.Lock()
	mutate()
	s.version++
	s.updatedAt = s.now()
	listener := s.listener
	var snap Snapshot
	if listener != nil {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	if listener != nil {
		listener(change, snap)
	}
}
