package verygoods

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Products loads a page of the global product listing
func (c *Client) Products(ctx context.Context, filters Filters, page ModelPage, limit int) ([]Product, error) {
	q := pageQuery(page, limit)
	filters.addQuery(q)

	body, err := c.getJSON(ctx, "products", q)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	return decodeEmbedded[Product](body, "products")
}

// Goods loads a page of a user's goods
func (c *Client) Goods(ctx context.Context, username string, filters Filters, page ModelPage, limit int) ([]Good, error) {
	q := pageQuery(page, limit)
	filters.addQuery(q)

	body, err := c.getJSON(ctx, userGoodsPath(username), q)
	if err != nil {
		return nil, fmt.Errorf("failed to get goods for %s: %w", username, err)
	}
	return decodeEmbedded[Good](body, "goods")
}

// Search loads a page of products matching query
func (c *Client) Search(ctx context.Context, query string, page IndexPage, limit int) ([]Product, error) {
	q := pageQuery(page, limit)
	q.Set("q", query)

	body, err := c.getJSON(ctx, "products", q)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return decodeEmbedded[Product](body, "products")
}

// Users loads a page of the global user listing
func (c *Client) Users(ctx context.Context, order Order, page OffsetPage, limit int) ([]User, error) {
	q := pageQuery(page, limit)
	order.addQuery(q)

	body, err := c.getJSON(ctx, "users", q)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return decodeEmbedded[User](body, "users")
}

// Product loads a single product
func (c *Client) Product(ctx context.Context, id int64) (*Product, error) {
	body, err := c.getJSON(ctx, "products/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}

	var product Product
	if err := json.Unmarshal(body, &product); err != nil {
		return nil, fmt.Errorf("failed to parse product %d: %w", id, err)
	}
	return &product, nil
}

func userGoodsPath(username string) string {
	return "users/" + url.PathEscape(username) + "/goods"
}
