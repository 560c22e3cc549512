package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockmgmt/dashboard/internal/domain/shared"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repeat(productID uuid.UUID, typ stock.TransactionType, n int, qty int64) []stock.Transaction {
	out := make([]stock.Transaction, n)
	for i := range out {
		out[i] = stock.Transaction{
			ID:              uuid.New(),
			ProductID:       productID,
			TransactionType: typ,
			Quantity:        qty,
			UnitPrice:       decimal.NewFromInt(2),
			CreatedAt:       time.Now(),
		}
	}
	return out
}

func lookupFrom(products map[uuid.UUID]*stock.Product) ProductLookup {
	return func(_ context.Context, id uuid.UUID) (*stock.Product, error) {
		p, ok := products[id]
		if !ok {
			return nil, shared.ErrNotFound
		}
		return p, nil
	}
}

func TestTopProducts(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	products := map[uuid.UUID]*stock.Product{
		a: {ID: a, Name: "A"},
		b: {ID: b, Name: "B"},
		c: {ID: c, Name: "C"},
	}

	var list []stock.Transaction
	list = append(list, repeat(a, stock.TransactionTypeStockIn, 5, 1)...)
	list = append(list, repeat(b, stock.TransactionTypeStockIn, 2, 1)...)
	list = append(list, repeat(c, stock.TransactionTypeStockIn, 8, 1)...)

	t.Run("top two by transaction count", func(t *testing.T) {
		top := TopProducts(context.Background(), list, 2, RankByTransactions, lookupFrom(products))
		require.Len(t, top, 2)
		assert.Equal(t, "C", top[0].Name)
		assert.Equal(t, int64(8), top[0].TransactionCount)
		assert.Equal(t, "A", top[1].Name)
		assert.Equal(t, int64(5), top[1].TransactionCount)
	})

	t.Run("lookup failures are omitted", func(t *testing.T) {
		partial := map[uuid.UUID]*stock.Product{a: products[a], b: products[b]}
		top := TopProducts(context.Background(), list, 3, RankByTransactions, lookupFrom(partial))
		require.Len(t, top, 2)
		assert.Equal(t, "A", top[0].Name)
		assert.Equal(t, "B", top[1].Name)
	})

	t.Run("ties keep first-seen order", func(t *testing.T) {
		var tied []stock.Transaction
		tied = append(tied, repeat(b, stock.TransactionTypeStockIn, 3, 1)...)
		tied = append(tied, repeat(a, stock.TransactionTypeStockIn, 3, 1)...)
		top := TopProducts(context.Background(), tied, 2, RankByTransactions, lookupFrom(products))
		require.Len(t, top, 2)
		assert.Equal(t, "B", top[0].Name)
		assert.Equal(t, "A", top[1].Name)
	})

	t.Run("non-positive n is empty", func(t *testing.T) {
		assert.Empty(t, TopProducts(context.Background(), list, 0, RankByTransactions, lookupFrom(products)))
	})

	t.Run("lookup error never aborts", func(t *testing.T) {
		failing := func(context.Context, uuid.UUID) (*stock.Product, error) { return nil, errors.New("boom") }
		assert.Empty(t, TopProducts(context.Background(), list, 3, RankByTransactions, failing))
	})
}

func TestGroupByProduct(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	var list []stock.Transaction
	list = append(list, repeat(a, stock.TransactionTypeStockIn, 2, 10)...)
	list = append(list, repeat(b, stock.TransactionTypeStockIn, 1, 4)...)
	list = append(list, repeat(a, stock.TransactionTypeStockOut, 1, 3)...)

	groups := GroupByProduct(list)
	require.Len(t, groups, 2)

	assert.Equal(t, a, groups[0].ProductID)
	assert.Equal(t, int64(3), groups[0].TransactionCount)
	assert.Equal(t, int64(23), groups[0].TotalQuantity)
	assert.Equal(t, int64(17), groups[0].TotalMovement)
	assert.True(t, groups[0].TotalValue.Equal(decimal.NewFromInt(46)))
	assert.Equal(t, b, groups[1].ProductID)
}

func TestRankProducts_Metrics(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	movements := []ProductMovement{
		{ProductID: a, TransactionCount: 5, TotalQuantity: 10, TotalMovement: -4, TotalValue: decimal.NewFromInt(100)},
		{ProductID: b, TransactionCount: 2, TotalQuantity: 40, TotalMovement: 6, TotalValue: decimal.NewFromInt(20)},
	}
	resolved := map[uuid.UUID]*stock.Product{a: {ID: a, Name: "A"}, b: {ID: b, Name: "B"}}

	assert.Equal(t, "A", RankProducts(movements, resolved, 1, RankByTransactions)[0].Name)
	assert.Equal(t, "B", RankProducts(movements, resolved, 1, RankByQuantity)[0].Name)
	assert.Equal(t, "B", RankProducts(movements, resolved, 1, RankByMovement)[0].Name)
	assert.Equal(t, "A", RankProducts(movements, resolved, 1, RankByValue)[0].Name)
}

func TestParseRankMetric(t *testing.T) {
	assert.Equal(t, RankByQuantity, ParseRankMetric("quantity"))
	assert.Equal(t, RankByValue, ParseRankMetric("value"))
	assert.Equal(t, RankByTransactions, ParseRankMetric(""))
	assert.Equal(t, RankByTransactions, ParseRankMetric("bogus"))
}
