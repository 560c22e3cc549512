package report

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
)

// RankMetric selects what TopProducts sorts by
type RankMetric string

const (
	RankByTransactions RankMetric = "transactions"
	RankByQuantity     RankMetric = "quantity"
	RankByMovement     RankMetric = "movement"
	RankByValue        RankMetric = "value"
)

// ParseRankMetric maps a query value onto a metric, defaulting to RankByTransactions
func ParseRankMetric(s string) RankMetric {
	switch RankMetric(s) {
	case RankByQuantity, RankByMovement, RankByValue:
		return RankMetric(s)
	}
	return RankByTransactions
}

// ProductMovement is the per-product accumulation of a transaction list
type ProductMovement struct {
	ProductID        uuid.UUID       `json:"product_id"`
	TransactionCount int64           `json:"total_transactions"`
	TotalQuantity    int64           `json:"total_quantity"`
	TotalMovement    int64           `json:"total_movement"` // signed: stock-out subtracts
	TotalValue       decimal.Decimal `json:"total_value"`
}

// RankedProduct is a ProductMovement joined with its resolved product
type RankedProduct struct {
	ProductMovement
	Name         string `json:"name"`
	SKU          string `json:"sku,omitempty"`
	Category     string `json:"category,omitempty"`
	CurrentStock int64  `json:"current_stock"`
	SupplierName string `json:"supplier_name,omitempty"`
}

// ProductLookup resolves a product by id. An error means the product is omitted from rankings.
type ProductLookup func(ctx context.Context, id uuid.UUID) (*stock.Product, error)

// GroupByProduct accumulates transactions per product_id, in first-seen order
func GroupByProduct(transactions []stock.Transaction) []ProductMovement {
	order := make([]uuid.UUID, 0)
	groups := make(map[uuid.UUID]*ProductMovement)

	for i := range transactions {
		t := &transactions[i]
		g, ok := groups[t.ProductID]
		if !ok {
			g = &ProductMovement{ProductID: t.ProductID, TotalValue: decimal.Zero}
			groups[t.ProductID] = g
			order = append(order, t.ProductID)
		}
		g.TransactionCount++
		g.TotalQuantity += t.Quantity
		g.TotalMovement += t.SignedQuantity()
		g.TotalValue = g.TotalValue.Add(t.Value())
	}

	out := make([]ProductMovement, len(order))
	for i, id := range order {
		out[i] = *groups[id]
	}
	return out
}

// RankProducts joins movements with resolved products, drops movements whose
// product is absent from resolved, sorts descending by metric and keeps the
// first n. The sort is stable, so ties keep first-seen transaction order.
func RankProducts(movements []ProductMovement, resolved map[uuid.UUID]*stock.Product, n int, metric RankMetric) []RankedProduct {
	if n <= 0 {
		return []RankedProduct{}
	}

	ranked := make([]RankedProduct, 0, len(movements))
	for _, m := range movements {
		p, ok := resolved[m.ProductID]
		if !ok || p == nil {
			continue
		}
		ranked = append(ranked, RankedProduct{
			ProductMovement: m,
			Name:            p.Name,
			SKU:             p.SKU,
			Category:        p.Category,
			CurrentStock:    p.CurrentStock,
			SupplierName:    p.SupplierName(),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return metricLess(ranked[j].ProductMovement, ranked[i].ProductMovement, metric)
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// TopProducts groups, resolves sequentially through lookup and ranks.
// Lookup failures omit the product instead of failing the ranking.
func TopProducts(ctx context.Context, transactions []stock.Transaction, n int, metric RankMetric, lookup ProductLookup) []RankedProduct {
	movements := GroupByProduct(transactions)
	resolved := make(map[uuid.UUID]*stock.Product, len(movements))
	for _, m := range movements {
		p, err := lookup(ctx, m.ProductID)
		if err != nil || p == nil {
			continue
		}
		resolved[m.ProductID] = p
	}
	return RankProducts(movements, resolved, n, metric)
}

// metricLess reports a < b under metric
func metricLess(a, b ProductMovement, metric RankMetric) bool {
	switch metric {
	case RankByQuantity:
		return a.TotalQuantity < b.TotalQuantity
	case RankByMovement:
		return a.TotalMovement < b.TotalMovement
	case RankByValue:
		return a.TotalValue.LessThan(b.TotalValue)
	default:
		return a.TransactionCount < b.TransactionCount
	}
}
