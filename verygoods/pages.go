package verygoods

import (
	"net/url"
	"strconv"
)

// Page adds pagination parameters to a listing request
type Page interface {
	addQuery(q url.Values)
}

// ModelPage is a page positioned relative to a model already loaded
type ModelPage struct {
	after  *int64
	before *int64
}

// FirstPage is the first page of a model-paginated listing
func FirstPage() ModelPage { return ModelPage{} }

// After is the page of items older than the model with the given ID
func After(id int64) ModelPage { return ModelPage{after: &id} }

// Before is the page of items newer than the model with the given ID
func Before(id int64) ModelPage { return ModelPage{before: &id} }

func (p ModelPage) addQuery(q url.Values) {
	switch {
	case p.after != nil:
		q.Set("max_id", strconv.FormatInt(*p.after, 10))
	case p.before != nil:
		q.Set("since_id", strconv.FormatInt(*p.before, 10))
	}
}

// OffsetPage skips a number of items
type OffsetPage struct {
	Skip int
}

func (p OffsetPage) addQuery(q url.Values) {
	q.Set("skip", strconv.Itoa(p.Skip))
}

// IndexPage selects a numbered page
type IndexPage struct {
	Index int
}

func (p IndexPage) addQuery(q url.Values) {
	q.Set("page", strconv.Itoa(p.Index))
}

// Order is the order users are listed in
type Order string

// Orders
const (
	OrderAlphabetical Order = "alphabetical"
	OrderNewest       Order = "newest"
)

func (o Order) addQuery(q url.Values) {
	if o != "" {
		q.Set("order", string(o))
	}
}

// pageQuery builds the query shared by every listing: limit, then the page.
func pageQuery(page Page, limit int) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if page != nil {
		page.addQuery(q)
	}
	return q
}
