package apiclient

import (
	"net/url"
	"strconv"

	"github.com/stockmgmt/dashboard/internal/domain/stock"
)

// QueryDateLayout is the date format the backend accepts for date filters
const QueryDateLayout = "2006-01-02"

// EncodeFilter serializes a list filter into query parameters. Unset fields
// are omitted entirely.
func EncodeFilter(f stock.Filter) url.Values {
	v := url.Values{}
	setString(v, "search", f.Search)
	setString(v, "category", f.Category)
	setString(v, "status", f.Status)
	setString(v, "transaction_type", string(f.TransactionType))
	setString(v, "sort_by", f.SortBy)
	setString(v, "sort_order", string(f.SortOrder))
	if f.SupplierID != nil {
		v.Set("supplier_id", f.SupplierID.String())
	}
	if f.ProductID != nil {
		v.Set("product_id", f.ProductID.String())
	}
	if f.LowStockOnly != nil {
		v.Set("low_stock_only", strconv.FormatBool(*f.LowStockOnly))
	}
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.PerPage > 0 {
		perPage := f.PerPage
		if perPage > stock.MaxPerPage {
			perPage = stock.MaxPerPage
		}
		v.Set("per_page", strconv.Itoa(perPage))
	}
	if f.DateFrom != nil {
		v.Set("date_from", f.DateFrom.Format(QueryDateLayout))
	}
	if f.DateTo != nil {
		v.Set("date_to", f.DateTo.Format(QueryDateLayout))
	}
	return v
}

func setString(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}
