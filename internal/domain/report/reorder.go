package report

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
)

// ReorderPriority ranks how urgently a product needs restocking
type ReorderPriority string

const (
	ReorderCritical ReorderPriority = "critical"
	ReorderHigh     ReorderPriority = "high"
	ReorderMedium   ReorderPriority = "medium"
	ReorderLow      ReorderPriority = "low"
)

var priorityRank = map[ReorderPriority]int{
	ReorderCritical: 0,
	ReorderHigh:     1,
	ReorderMedium:   2,
	ReorderLow:      3,
}

// ReorderItem is one line of the reorder report
type ReorderItem struct {
	ProductID     uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku,omitempty"`
	CurrentStock  int64           `json:"current_stock"`
	MinStockLevel int64           `json:"min_stock_level"`
	Shortage      int64           `json:"shortage"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	ReorderValue  decimal.Decimal `json:"reorder_value"`
	Priority      ReorderPriority `json:"priority"`
}

// ReorderReport lists active products that need restocking
type ReorderReport struct {
	Items              []ReorderItem   `json:"items"`
	TotalItems         int             `json:"total_items"`
	TotalShortageValue decimal.Decimal `json:"total_shortage_value"`
}

// Reorder builds the reorder report for the active products. A product is
// included when the stock predicates classify it as out of stock or low
// against threshold, or against its own minimum level when threshold is nil.
// Shortage is always measured against the minimum level.
func Reorder(products []stock.Product, threshold *int64) ReorderReport {
	rep := ReorderReport{Items: make([]ReorderItem, 0), TotalShortageValue: decimal.Zero}
	for i := range products {
		p := &products[i]
		if !p.IsActive() {
			continue
		}
		limit := p.MinStockLevel
		if threshold != nil {
			limit = *threshold
		}
		if stock.ClassifyStock(p.CurrentStock, limit) == stock.StockStatusGood {
			continue
		}

		shortage := max(p.MinStockLevel-p.CurrentStock, 0)
		value := p.UnitPrice.Mul(decimal.NewFromInt(shortage))
		rep.TotalShortageValue = rep.TotalShortageValue.Add(value)
		rep.Items = append(rep.Items, ReorderItem{
			ProductID:     p.ID,
			Name:          p.Name,
			SKU:           p.SKU,
			CurrentStock:  p.CurrentStock,
			MinStockLevel: p.MinStockLevel,
			Shortage:      shortage,
			UnitPrice:     p.UnitPrice,
			ReorderValue:  value,
			Priority:      reorderPriority(p.CurrentStock, p.MinStockLevel, shortage),
		})
	}

	sort.SliceStable(rep.Items, func(i, j int) bool {
		return priorityRank[rep.Items[i].Priority] < priorityRank[rep.Items[j].Priority]
	})
	rep.TotalItems = len(rep.Items)
	return rep
}

// high means more than half the minimum level is missing
func reorderPriority(current, minLevel, shortage int64) ReorderPriority {
	switch {
	case stock.IsOutOfStock(current):
		return ReorderCritical
	case shortage*2 > minLevel:
		return ReorderHigh
	case shortage > 0:
		return ReorderMedium
	default:
		return ReorderLow
	}
}
