// Package ghapi provides the GitHub REST client and the paginated fetchers used by a run.
//
// This file (pagination.go) implements page-number pagination. Pages are requested with
// per_page=100 starting at page 1; a page shorter than the page size is the last one. Link
// headers are not consulted.
package ghapi

import (
	"context"
	"net/url"
	"strconv"
)

// PageSize is the number of items requested per page.
const PageSize = 100

// stopFunc reports whether pagination should end after the given page.
type stopFunc[T any] func(page []T) bool

// fetchPages collects all pages of a list endpoint. stop may end pagination early; it is
// evaluated after the page has been appended to the result.
func fetchPages[T any](ctx context.Context, c *Client, path string, params url.Values, stop stopFunc[T]) ([]T, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("per_page", strconv.Itoa(PageSize))

	var all []T
	for page := 1; ; page++ {
		params.Set("page", strconv.Itoa(page))

		var items []T
		if err := c.Get(ctx, path+"?"+params.Encode(), &items); err != nil {
			return all, err
		}
		all = append(all, items...)

		if len(items) < PageSize {
			return all, nil
		}
		if stop != nil && stop(items) {
			return all, nil
		}
	}
}
