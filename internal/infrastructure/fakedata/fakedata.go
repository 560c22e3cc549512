// Package fakedata generates seeded, self-consistent inventory fixtures for
// tests and the local fake backend.
package fakedata

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
)

// Categories is the fixed category vocabulary used for generated products
var Categories = []string{"Electronics", "Office Supplies", "Furniture", "Tools", "Packaging", "Cleaning"}

// Config sizes a generated catalog
type Config struct {
	Seed               uint64
	Suppliers          int
	Products           int
	Days               int
	TransactionsPerDay int
	// Now anchors the generated history; zero means time.Now
	Now time.Time
}

// DefaultConfig is a small catalog suitable for demos
func DefaultConfig() Config {
	return Config{Seed: 42, Suppliers: 6, Products: 40, Days: 30, TransactionsPerDay: 8}
}

// Catalog is a generated data set whose stock levels agree with its transaction history
type Catalog struct {
	Suppliers    []stock.Supplier
	Products     []stock.Product
	Transactions []stock.Transaction
}

// Generator produces individual fixtures from one seeded source
type Generator struct {
	faker *gofakeit.Faker
	now   time.Time
	sku   int
}

// New returns a generator; the same seed yields the same values
func New(seed uint64, now time.Time) *Generator {
	if now.IsZero() {
		now = time.Now()
	}
	return &Generator{faker: gofakeit.New(seed), now: now.UTC()}
}

// Supplier generates an active or inactive supplier
func (g *Generator) Supplier() stock.Supplier {
	f := g.faker
	created := f.DateRange(g.now.AddDate(-2, 0, 0), g.now.AddDate(0, -3, 0))
	status := stock.SupplierStatusActive
	if f.Number(1, 10) == 1 {
		status = stock.SupplierStatusInactive
	}
	return stock.Supplier{
		ID:            g.uuid(),
		Name:          f.Company(),
		ContactPerson: f.Name(),
		Email:         strings.ToLower(f.Email()),
		Phone:         f.Phone(),
		Address:       f.Address().Address,
		Website:       f.URL(),
		Status:        status,
		TotalValue:    decimal.Zero,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
}

// Product generates a product, optionally linked to supplier
func (g *Generator) Product(supplier *stock.Supplier) stock.Product {
	f := g.faker
	g.sku++
	created := f.DateRange(g.now.AddDate(-1, 0, 0), g.now.AddDate(0, -2, 0))
	minLevel := int64(f.Number(5, 25))

	status := stock.ProductStatusActive
	switch f.Number(1, 20) {
	case 1:
		status = stock.ProductStatusInactive
	case 2:
		status = stock.ProductStatusDiscontinued
	}

	p := stock.Product{
		ID:            g.uuid(),
		Name:          f.ProductName(),
		SKU:           fmt.Sprintf("%s-%04d", strings.ToUpper(f.LetterN(3)), g.sku),
		Category:      f.RandomString(Categories),
		Description:   f.Sentence(8),
		UnitPrice:     decimal.NewFromFloat(f.Price(1, 500)).Round(2),
		MinStockLevel: minLevel,
		CurrentStock:  int64(f.Number(0, int(minLevel)*6)),
		Status:        status,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	if supplier != nil {
		id := supplier.ID
		p.SupplierID = &id
		p.Supplier = &stock.SupplierRef{ID: supplier.ID, Name: supplier.Name, ContactPerson: supplier.ContactPerson}
	}
	return p
}

// Movement generates a stock movement against p at the given time and applies
// it to p. Stock-outs never take the level below zero.
func (g *Generator) Movement(p *stock.Product, at time.Time) stock.Transaction {
	f := g.faker
	typ := stock.TransactionTypeStockIn
	switch roll := f.Number(1, 10); {
	case roll <= 5 && p.CurrentStock > 0:
		typ = stock.TransactionTypeStockOut
	case roll == 10:
		typ = stock.TransactionTypeAdjustment
	}

	var qty int64
	switch typ {
	case stock.TransactionTypeStockOut:
		qty = int64(f.Number(1, int(min(p.CurrentStock, 20))))
	default:
		qty = int64(f.Number(1, 40))
	}

	t := stock.Transaction{
		ID:              g.uuid(),
		ProductID:       p.ID,
		ProductName:     p.Name,
		ProductSKU:      p.SKU,
		SupplierName:    p.SupplierName(),
		TransactionType: typ,
		Quantity:        qty,
		UnitPrice:       p.UnitPrice,
		ReferenceNumber: fmt.Sprintf("REF-%s", strings.ToUpper(f.LetterN(6))),
		CreatedBy:       f.Username(),
		PreviousStock:   p.CurrentStock,
		TransactionDate: at,
		CreatedAt:       at,
	}
	if f.Number(1, 4) == 1 {
		t.Notes = f.Sentence(5)
	}
	t.TotalAmount = stock.ComputeTotal(qty, p.UnitPrice)
	t.NewStock = max(p.CurrentStock+t.SignedQuantity(), 0)

	p.CurrentStock = t.NewStock
	p.UpdatedAt = at
	return t
}

// User generates a user profile with the given role
func (g *Generator) User(role stock.Role) stock.User {
	f := g.faker
	first, last := f.FirstName(), f.LastName()
	return stock.User{
		Username: strings.ToLower(first + "." + last),
		Email:    strings.ToLower(first + "." + last + "@" + f.DomainName()),
		FullName: first + " " + last,
		Role:     role,
		Active:   true,
	}
}

// Catalog builds suppliers, products and a transaction history spanning
// cfg.Days days up to cfg.Now. Transactions are returned newest first.
func (g *Generator) Catalog(cfg Config) Catalog {
	var c Catalog
	for range cfg.Suppliers {
		c.Suppliers = append(c.Suppliers, g.Supplier())
	}
	for range cfg.Products {
		var sup *stock.Supplier
		if len(c.Suppliers) > 0 && g.faker.Number(1, 8) != 1 {
			sup = &c.Suppliers[g.faker.Number(0, len(c.Suppliers)-1)]
		}
		c.Products = append(c.Products, g.Product(sup))
	}

	if len(c.Products) > 0 && cfg.Days > 0 {
		start := g.now.Truncate(24*time.Hour).AddDate(0, 0, -(cfg.Days - 1))
		for day := range cfg.Days {
			base := start.AddDate(0, 0, day)
			n := g.faker.Number(0, max(cfg.TransactionsPerDay*2, 1))
			at := make([]time.Time, 0, n)
			for range n {
				ts := base.Add(time.Duration(g.faker.Number(7*3600, 19*3600)) * time.Second)
				if ts.After(g.now) {
					ts = g.now
				}
				at = append(at, ts)
			}
			slices.SortFunc(at, time.Time.Compare)
			for _, ts := range at {
				p := &c.Products[g.faker.Number(0, len(c.Products)-1)]
				c.Transactions = append(c.Transactions, g.Movement(p, ts))
			}
		}
	}
	slices.Reverse(c.Transactions)
	c.tallySuppliers()
	return c
}

// tallySuppliers fills the backend-computed supplier counters
func (c *Catalog) tallySuppliers() {
	index := make(map[uuid.UUID]int, len(c.Suppliers))
	for i := range c.Suppliers {
		index[c.Suppliers[i].ID] = i
		c.Suppliers[i].ProductCount = 0
		c.Suppliers[i].TotalTransactions = 0
		c.Suppliers[i].TotalValue = decimal.Zero
	}
	owner := make(map[uuid.UUID]int, len(c.Products))
	for _, p := range c.Products {
		if p.SupplierID == nil {
			continue
		}
		if i, ok := index[*p.SupplierID]; ok {
			owner[p.ID] = i
			c.Suppliers[i].ProductCount++
		}
	}
	for _, t := range c.Transactions {
		if i, ok := owner[t.ProductID]; ok {
			c.Suppliers[i].TotalTransactions++
			c.Suppliers[i].TotalValue = c.Suppliers[i].TotalValue.Add(t.Value())
		}
	}
}

// Generate builds a catalog from cfg
func Generate(cfg Config) Catalog {
	return New(cfg.Seed, cfg.Now).Catalog(cfg)
}

func (g *Generator) uuid() uuid.UUID {
	id, err := uuid.Parse(g.faker.UUID())
	if err != nil {
		return uuid.New()
	}
	return id
}
