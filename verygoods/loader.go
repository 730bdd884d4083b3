package verygoods

import (
	"context"
	"slices"
	"sync"
)

// DefaultPageLimit is the page size used when a loader is given a limit below one
const DefaultPageLimit = 20

type fetchFunc[T Model] func(ctx context.Context, page Page, limit int) ([]T, error)

// pager picks the page for a load. loaded is the number of "next" pages
// loaded so far.
type pager[T Model] func(next bool, items []T, loaded int) (Page, error)

// Loader accumulates a paginated listing. Next loads older items onto the
// end, Previous loads newer items onto the front. Loads are serialized.
type Loader[T Model] struct {
	fetch fetchFunc[T]
	page  pager[T]
	limit int

	mu      sync.Mutex
	items   []T
	loaded  int
	hasMore bool
}

func newLoader[T Model](limit int, page pager[T], fetch fetchFunc[T]) *Loader[T] {
	if limit < 1 {
		limit = DefaultPageLimit
	}
	return &Loader[T]{fetch: fetch, page: page, limit: limit, hasMore: true}
}

// Items returns a copy of the items loaded so far
func (l *Loader[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.items)
}

// HasMore reports whether Next may return more items. It becomes false once
// a page comes back shorter than the limit.
func (l *Loader[T]) HasMore() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hasMore
}

// Next loads the next page and returns the items it added
func (l *Loader[T]) Next(ctx context.Context) ([]T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hasMore {
		return nil, nil
	}

	page, err := l.page(true, l.items, l.loaded)
	if err != nil {
		return nil, err
	}

	items, err := l.fetch(ctx, page, l.limit)
	if err != nil {
		return nil, err
	}

	l.loaded++
	if len(items) < l.limit {
		l.hasMore = false
	}
	l.items = append(l.items, items...)
	return items, nil
}

// Previous loads items newer than the first loaded item and returns the ones
// not already present. It fails with ErrFirstPageNotLoaded when nothing has
// been loaded yet.
func (l *Loader[T]) Previous(ctx context.Context) ([]T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	page, err := l.page(false, l.items, l.loaded)
	if err != nil {
		return nil, err
	}

	items, err := l.fetch(ctx, page, l.limit)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{}, len(l.items))
	for _, item := range l.items {
		seen[item.Identifier()] = struct{}{}
	}

	var added []T
	for _, item := range items {
		if _, ok := seen[item.Identifier()]; ok {
			continue
		}
		seen[item.Identifier()] = struct{}{}
		added = append(added, item)
	}

	l.items = append(added, l.items...)
	return added, nil
}

func modelPager[T Model](next bool, items []T, _ int) (Page, error) {
	if next {
		if len(items) == 0 {
			return FirstPage(), nil
		}
		return After(items[len(items)-1].Identifier()), nil
	}
	if len(items) == 0 {
		return nil, ErrFirstPageNotLoaded
	}
	return Before(items[0].Identifier()), nil
}

func offsetPager[T Model](next bool, items []T, _ int) (Page, error) {
	if next {
		return OffsetPage{Skip: len(items)}, nil
	}
	if len(items) == 0 {
		return nil, ErrFirstPageNotLoaded
	}
	return OffsetPage{Skip: 0}, nil
}

func indexPager[T Model](next bool, items []T, loaded int) (Page, error) {
	if next {
		return IndexPage{Index: loaded + 1}, nil
	}
	if len(items) == 0 {
		return nil, ErrFirstPageNotLoaded
	}
	return IndexPage{Index: 1}, nil
}

// GoodsLoader pages through a user's goods
func (c *Client) GoodsLoader(username string, filters Filters, limit int) *Loader[Good] {
	return newLoader[Good](limit, modelPager[Good], func(ctx context.Context, page Page, limit int) ([]Good, error) {
		return c.Goods(ctx, username, filters, page.(ModelPage), limit)
	})
}

// ProductsLoader pages through the global product listing
func (c *Client) ProductsLoader(filters Filters, limit int) *Loader[Product] {
	return newLoader[Product](limit, modelPager[Product], func(ctx context.Context, page Page, limit int) ([]Product, error) {
		return c.Products(ctx, filters, page.(ModelPage), limit)
	})
}

// UsersLoader pages through the global user listing
func (c *Client) UsersLoader(order Order, limit int) *Loader[User] {
	return newLoader[User](limit, offsetPager[User], func(ctx context.Context, page Page, limit int) ([]User, error) {
		return c.Users(ctx, order, page.(OffsetPage), limit)
	})
}

// SearchLoader pages through the results of a product search
func (c *Client) SearchLoader(query string, limit int) *Loader[Product] {
	return newLoader[Product](limit, indexPager[Product], func(ctx context.Context, page Page, limit int) ([]Product, error) {
		return c.Search(ctx, query, page.(IndexPage), limit)
	})
}
