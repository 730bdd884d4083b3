package verygoods

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Want adds the product to username's goods. It returns the path of the new
// good, which is also the path used to delete it, or "" when the response
// does not carry one.
func (c *Client) Want(ctx context.Context, username string, productID int64, csrfToken string) (string, error) {
	body, err := json.Marshal(map[string]int64{"product_id": productID})
	if err != nil {
		return "", fmt.Errorf("failed to marshal want request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.apiURL(userGoodsPath(username), nil), body)
	if err != nil {
		return "", err
	}

	origin := strings.TrimSuffix(c.siteURL.String(), "/")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	req.Header.Set("Csrf-Token", csrfToken)
	req.Header.Set("Origin", origin)
	req.Header.Set("Referer", origin)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("failed to want product %d: %w", productID, err)
	}

	var result struct {
		Links map[string]link `json:"_links"`
	}
	if err := json.Unmarshal(resp.body, &result); err != nil {
		// The good was created; only its path is unknown.
		c.logger.Debug().Err(err).Int64("product_id", productID).Msg("Want response was not JSON")
		return "", nil
	}

	self, ok := result.Links["self"]
	if !ok || self.Href == nil || *self.Href == "" {
		return "", nil
	}
	return (*self.Href)[1:], nil
}

// Unwant deletes the good at goodDeletePath
func (c *Client) Unwant(ctx context.Context, goodDeletePath, csrfToken string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, c.apiURL(goodDeletePath, nil), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Csrf-Token", csrfToken)

	if _, err := c.do(req); err != nil {
		return fmt.Errorf("failed to unwant %s: %w", goodDeletePath, err)
	}
	return nil
}
