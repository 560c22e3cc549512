package apiclient

import (
	"context"

	"github.com/stockmgmt/dashboard/internal/domain/stock"
)

// maxPages bounds a page walk against a backend that never reports has_next=false
const maxPages = 10000

// FetchPage fetches a single page of a list endpoint
func FetchPage[T any](ctx context.Context, c *Client, path string, filter stock.Filter) (*stock.Page[T], error) {
	var page stock.Page[T]
	if _, err := c.Get(ctx, path, EncodeFilter(filter), &page); err != nil {
		return nil, err
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return &page, nil
}

// FetchAll walks every page of a list endpoint, starting at page 1 with the
// configured page size, until the backend reports no next page. The client's
// rate limiter, when set, is waited on before each page.
func FetchAll[T any](ctx context.Context, c *Client, path string, filter stock.Filter) ([]T, error) {
	filter.Page = 1
	filter.PerPage = c.pageSize
	if filter.PerPage <= 0 || filter.PerPage > stock.MaxPerPage {
		filter.PerPage = stock.MaxPerPage
	}

	all := make([]T, 0)
	for range maxPages {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		} else if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := FetchPage[T](ctx, c, path, filter)
		if err != nil {
			return nil, err
		}
		items := page.List()
		all = append(all, items...)
		if !page.HasNext || len(items) == 0 {
			break
		}
		filter.Page++
	}
	return all, nil
}
