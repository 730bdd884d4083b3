package verygoods

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ProductRelations are the products related to a product and the users who
// have it in their goods. The JSON API does not expose them, so they are
// read from data embedded in the product's HTML page.
type ProductRelations struct {
	RelatedProducts []Product `yaml:"related_products"`
	Users           []User    `yaml:"users"`
}

// ProductRelations loads the relations of a product
func (c *Client) ProductRelations(ctx context.Context, productID int64) (*ProductRelations, error) {
	body, err := c.getSite(ctx, "product/"+strconv.FormatInt(productID, 10))
	if err != nil {
		return nil, fmt.Errorf("failed to load product page %d: %w", productID, err)
	}

	relations, err := parseProductRelations(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse product page %d: %w", productID, err)
	}
	return relations, nil
}

func parseProductRelations(body []byte) (*ProductRelations, error) {
	head, ok := parseHead(body)
	if !ok {
		return nil, ErrRelationsHeadNotFound
	}

	relatedJSON, err := scriptJSON(head, "related_products")
	if err != nil {
		return nil, err
	}
	productJSON, err := scriptJSON(head, "product")
	if err != nil {
		return nil, err
	}

	var related []json.RawMessage
	if err := json.Unmarshal(relatedJSON, &related); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRelatedProducts, err)
	}
	if related == nil {
		return nil, ErrInvalidRelatedProducts
	}

	var product struct {
		Embedded *struct {
			InUserGoods *struct {
				Users []json.RawMessage `json:"users"`
			} `json:"in_user_goods"`
		} `json:"_embedded"`
	}
	if err := json.Unmarshal(productJSON, &product); err != nil || product.Embedded == nil {
		return nil, ErrInvalidProductJSON
	}

	relations := &ProductRelations{
		RelatedProducts: make([]Product, 0, len(related)),
		Users:           []User{},
	}

	for _, raw := range related {
		var p Product
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		relations.RelatedProducts = append(relations.RelatedProducts, p)
	}

	if product.Embedded.InUserGoods != nil {
		for _, raw := range product.Embedded.InUserGoods.Users {
			var u User
			if err := json.Unmarshal(raw, &u); err != nil {
				return nil, err
			}
			relations.Users = append(relations.Users, u)
		}
	}

	return relations, nil
}

// scriptJSON returns the contents of the <script id=id> child of head
func scriptJSON(head *html.Node, id string) ([]byte, error) {
	script := childElement(head, func(n *html.Node) bool {
		scriptID, _ := attr(n, "id")
		return n.DataAtom == atom.Script && scriptID == id
	})
	if script == nil {
		return nil, fmt.Errorf("%w: %s", ErrRelationsScriptNotFound, id)
	}
	return []byte(innerText(script)), nil
}
