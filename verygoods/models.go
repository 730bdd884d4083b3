package verygoods

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Model is implemented by every identifiable Very Goods resource
type Model interface {
	Identifier() int64
}

// Product represents a product listed on Very Goods
type Product struct {
	ID               int64  `json:"id" yaml:"id"`
	Title            string `json:"title" yaml:"title"`
	FormattedPrice   string `json:"formatted_price" yaml:"formatted_price"`
	Gender           Gender `json:"gender" yaml:"gender"`
	ImageURL         string `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	MediumImageURL   string `json:"medium_image_url,omitempty" yaml:"medium_image_url,omitempty"`
	OriginalImageURL string `json:"orig_image_url,omitempty" yaml:"orig_image_url,omitempty"`
	DisplayDomain    string `json:"domain_for_display,omitempty" yaml:"domain_for_display,omitempty"`
	SourceDomain     string `json:"source_domain,omitempty" yaml:"source_domain,omitempty"`
	SourceURL        string `json:"source_url,omitempty" yaml:"source_url,omitempty"`
	// GoodDeletePath is set when the product is in the signed-in user's goods
	GoodDeletePath string `json:"-" yaml:"good_delete_path,omitempty"`
}

// Identifier implements Model
func (p Product) Identifier() int64 { return p.ID }

// InYourGoods reports whether the product is in the signed-in user's goods.
// Anonymous requests never carry this information.
func (p Product) InYourGoods() bool {
	return p.GoodDeletePath != ""
}

// User represents a Very Goods user
type User struct {
	ID                   int64  `json:"id" yaml:"id"`
	Username             string `json:"username" yaml:"username"`
	Name                 string `json:"name,omitempty" yaml:"name,omitempty"`
	Biography            string `json:"bio,omitempty" yaml:"bio,omitempty"`
	Location             string `json:"location,omitempty" yaml:"location,omitempty"`
	URL                  string `json:"url,omitempty" yaml:"url,omitempty"`
	AvatarURL            string `json:"avatar_url,omitempty" yaml:"avatar_url,omitempty"`
	AvatarURLCentered126 string `json:"avatar_url_centered_126,omitempty" yaml:"avatar_url_centered_126,omitempty"`
	CoverURL             string `json:"cover_image,omitempty" yaml:"cover_image,omitempty"`
	CoverLargeURL        string `json:"cover_image_big_url,omitempty" yaml:"cover_image_big_url,omitempty"`
	CoverThumbURL        string `json:"cover_image_thumb_url,omitempty" yaml:"cover_image_thumb_url,omitempty"`
	GoodsCount           int    `json:"good_count" yaml:"good_count"`
}

// Identifier implements Model
func (u User) Identifier() int64 { return u.ID }

func (u User) String() string {
	return fmt.Sprintf("User %d (@%s)", u.ID, u.Username)
}

// Good is the relationship between a user and a product they want
type Good struct {
	ID      int64   `json:"id" yaml:"id"`
	Product Product `json:"product" yaml:"product"`
	Owner   User    `json:"owner" yaml:"owner"`
}

// Identifier implements Model
func (g Good) Identifier() int64 { return g.ID }

type link struct {
	Href *string `json:"href"`
}

type rawProduct struct {
	ID               *int64          `json:"id"`
	Title            *string         `json:"title"`
	FormattedPrice   *string         `json:"formatted_price"`
	Gender           json.RawMessage `json:"gender"`
	ImageURL         json.RawMessage `json:"image_url"`
	MediumImageURL   json.RawMessage `json:"medium_image_url"`
	OriginalImageURL json.RawMessage `json:"orig_image_url"`
	DisplayDomain    json.RawMessage `json:"domain_for_display"`
	SourceDomain     json.RawMessage `json:"source_domain"`
	SourceURL        json.RawMessage `json:"source_url"`
	Links            map[string]link `json:"_links"`
}

// UnmarshalJSON decodes a product from the API representation
func (p *Product) UnmarshalJSON(data []byte) error {
	product, err := decodeProduct(data, nil)
	if err != nil {
		return err
	}
	*p = product
	return nil
}

// decodeProduct decodes a product. When links is non-nil it replaces the
// product's own _links, which is how goods attach the delete link.
func decodeProduct(data []byte, links map[string]link) (Product, error) {
	var raw rawProduct
	if err := json.Unmarshal(data, &raw); err != nil {
		return Product{}, err
	}

	switch {
	case raw.ID == nil:
		return Product{}, &DecodeError{Key: "id"}
	case raw.Title == nil:
		return Product{}, &DecodeError{Key: "title"}
	case raw.FormattedPrice == nil:
		return Product{}, &DecodeError{Key: "formatted_price"}
	}

	if links == nil {
		links = raw.Links
	}

	return Product{
		ID:               *raw.ID,
		Title:            *raw.Title,
		FormattedPrice:   *raw.FormattedPrice,
		Gender:           parseGender(optionalString(raw.Gender)),
		ImageURL:         optionalURL(raw.ImageURL),
		MediumImageURL:   optionalURL(raw.MediumImageURL),
		OriginalImageURL: optionalURL(raw.OriginalImageURL),
		DisplayDomain:    optionalString(raw.DisplayDomain),
		SourceDomain:     optionalURL(raw.SourceDomain),
		SourceURL:        optionalURL(raw.SourceURL),
		GoodDeletePath:   deletePath(links),
	}, nil
}

// deletePath extracts good:delete.href without its leading character
func deletePath(links map[string]link) string {
	l, ok := links["good:delete"]
	if !ok || l.Href == nil || *l.Href == "" {
		return ""
	}
	return (*l.Href)[1:]
}

type rawUser struct {
	ID                   *int64          `json:"id"`
	Username             *string         `json:"username"`
	Name                 json.RawMessage `json:"name"`
	Biography            json.RawMessage `json:"bio"`
	Location             json.RawMessage `json:"location"`
	URL                  json.RawMessage `json:"url"`
	AvatarURL            json.RawMessage `json:"avatar_url"`
	AvatarURLCentered126 json.RawMessage `json:"avatar_url_centered_126"`
	CoverURL             json.RawMessage `json:"cover_image"`
	CoverLargeURL        json.RawMessage `json:"cover_image_big_url"`
	CoverThumbURL        json.RawMessage `json:"cover_image_thumb_url"`
	GoodsCount           *int            `json:"good_count"`
}

// UnmarshalJSON decodes a user from the API representation
func (u *User) UnmarshalJSON(data []byte) error {
	var raw rawUser
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch {
	case raw.ID == nil:
		return &DecodeError{Key: "id"}
	case raw.Username == nil:
		return &DecodeError{Key: "username"}
	case raw.GoodsCount == nil:
		return &DecodeError{Key: "good_count"}
	}

	*u = User{
		ID:                   *raw.ID,
		Username:             *raw.Username,
		Name:                 optionalString(raw.Name),
		Biography:            optionalString(raw.Biography),
		Location:             optionalString(raw.Location),
		URL:                  optionalURL(raw.URL),
		AvatarURL:            optionalURL(raw.AvatarURL),
		AvatarURLCentered126: optionalURL(raw.AvatarURLCentered126),
		CoverURL:             optionalURL(raw.CoverURL),
		CoverLargeURL:        optionalURL(raw.CoverLargeURL),
		CoverThumbURL:        optionalURL(raw.CoverThumbURL),
		GoodsCount:           *raw.GoodsCount,
	}
	return nil
}

type rawGood struct {
	ID       *int64 `json:"id"`
	Embedded *struct {
		Product json.RawMessage `json:"product"`
		Owner   json.RawMessage `json:"owner"`
	} `json:"_embedded"`
	Links map[string]link `json:"_links"`
}

// UnmarshalJSON decodes a good. The embedded product takes its links from
// the good, since only the good knows its own delete path.
func (g *Good) UnmarshalJSON(data []byte) error {
	var raw rawGood
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch {
	case raw.Embedded == nil:
		return &DecodeError{Key: "_embedded"}
	case raw.Links == nil:
		return &DecodeError{Key: "_links"}
	case raw.ID == nil:
		return &DecodeError{Key: "id"}
	case raw.Embedded.Product == nil:
		return &DecodeError{Key: "product"}
	case raw.Embedded.Owner == nil:
		return &DecodeError{Key: "owner"}
	}

	product, err := decodeProduct(raw.Embedded.Product, raw.Links)
	if err != nil {
		return err
	}

	var owner User
	if err := json.Unmarshal(raw.Embedded.Owner, &owner); err != nil {
		return err
	}

	*g = Good{ID: *raw.ID, Product: product, Owner: owner}
	return nil
}

// optionalString returns the value when it is a JSON string, otherwise ""
func optionalString(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ""
	}
	return s
}

// optionalURL returns the value when it is an absolute http or https URL
func optionalURL(data json.RawMessage) string {
	s := optionalString(data)
	if s == "" {
		return ""
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ""
	}
	return s
}
