package report

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
)

// DateLayout is the calendar-day key used across reports
const DateLayout = "2006-01-02"

// MovementTotals accumulates one direction of stock movement
type MovementTotals struct {
	Count    int64           `json:"count"`
	Quantity int64           `json:"quantity"`
	Value    decimal.Decimal `json:"value"`
}

func (m *MovementTotals) add(t *stock.Transaction) {
	m.Count++
	m.Quantity += t.Quantity
	m.Value = m.Value.Add(t.Value())
}

// DailyEntry is one calendar day of the daily transaction summary
type DailyEntry struct {
	Date        string         `json:"date"`
	StockIn     MovementTotals `json:"stock_in"`
	StockOut    MovementTotals `json:"stock_out"`
	NetMovement int64          `json:"net_movement"`
}

// DailySummary buckets transactions into the days calendar days ending on end
// (inclusive), keyed by the date portion of created_at in loc. The result is
// dense: every day of the range is present, zero-filled, in ascending order.
// Adjustments and transactions outside the range are ignored.
func DailySummary(transactions []stock.Transaction, end time.Time, days int, loc *time.Location) []DailyEntry {
	if days <= 0 {
		return []DailyEntry{}
	}
	if loc == nil {
		loc = time.Local
	}

	endDay := startOfDay(end.In(loc))
	first := endDay.AddDate(0, 0, -(days - 1))

	entries := make([]DailyEntry, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		key := first.AddDate(0, 0, i).Format(DateLayout)
		entries[i] = DailyEntry{
			Date:     key,
			StockIn:  MovementTotals{Value: decimal.Zero},
			StockOut: MovementTotals{Value: decimal.Zero},
		}
		index[key] = i
	}

	for i := range transactions {
		t := &transactions[i]
		idx, ok := index[t.CreatedAt.In(loc).Format(DateLayout)]
		if !ok {
			continue
		}
		switch t.TransactionType {
		case stock.TransactionTypeStockIn:
			entries[idx].StockIn.add(t)
		case stock.TransactionTypeStockOut:
			entries[idx].StockOut.add(t)
		}
	}

	for i := range entries {
		entries[i].NetMovement = entries[i].StockIn.Quantity - entries[i].StockOut.Quantity
	}
	return entries
}

// Trends reduces a daily summary to the chart series
func Trends(entries []DailyEntry) []TrendPoint {
	out := make([]TrendPoint, len(entries))
	for i, e := range entries {
		out[i] = TrendPoint{Date: e.Date, StockIn: e.StockIn.Quantity, StockOut: e.StockOut.Quantity}
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
