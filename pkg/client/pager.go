package client

import (
	"context"
	"net/url"
	"strconv"
)

// Page is the data of a paginated list response.
type Page[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Pager walks a paginated list endpoint one page at a time. A short page
// ends the iteration.
type Pager[T any] struct {
	client *Client
	path   string
	query  url.Values
	limit  int
	offset int
	done   bool
}

// NewPager iterates path with the given filters. limit <= 0 uses the
// server default page size.
func NewPager[T any](c *Client, path string, query url.Values, limit int) *Pager[T] {
	q := url.Values{}
	for k, v := range query {
		q[k] = append([]string(nil), v...)
	}
	return &Pager[T]{client: c, path: path, query: q, limit: limit}
}

// HasMore reports whether Next may return more items.
func (p *Pager[T]) HasMore() bool {
	return !p.done
}

// Next fetches the following page. After the last page it returns nil.
func (p *Pager[T]) Next(ctx context.Context) ([]T, error) {
	if p.done {
		return nil, nil
	}

	q := url.Values{}
	for k, v := range p.query {
		q[k] = v
	}
	if p.limit > 0 {
		q.Set("limit", strconv.Itoa(p.limit))
	}
	q.Set("offset", strconv.Itoa(p.offset))

	var page Page[T]
	if err := p.client.Get(ctx, p.path, q, &page); err != nil {
		return nil, err
	}
	if p.limit <= 0 {
		p.limit = page.Limit
	}
	p.offset += len(page.Items)
	if len(page.Items) == 0 || len(page.Items) < p.limit {
		p.done = true
	}
	return page.Items, nil
}

// All drains the pager.
func (p *Pager[T]) All(ctx context.Context) ([]T, error) {
	var all []T
	for p.HasMore() {
		items, err := p.Next(ctx)
		if err != nil {
			return all, err
		}
		all = append(all, items...)
	}
	return all, nil
}
