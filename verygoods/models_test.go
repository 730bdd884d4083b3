package verygoods

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productFixture(links map[string]any) map[string]any {
	return map[string]any{
		"_links":             links,
		"domain_for_display": "test.com",
		"formatted_price":    "$25-$50",
		"gender":             "male",
		"id":                 1,
		"image_url":          "https://test.com/image",
		"in_your_goods":      false,
		"medium_image_url":   "https://test.com/image_medium",
		"orig_image_url":     "https://test.com/image_orig",
		"price_category_id":  2,
		"source_domain":      "https://test.com",
		"source_url":         "https://test.com/product",
		"title":              "Test",
	}
}

var (
	linksNoDelete = map[string]any{
		"good:add": map[string]any{"href": "/users/test/goods"},
		"self":     map[string]any{"href": "/products/1"},
	}
	linksWithDelete = map[string]any{
		"good:delete": map[string]any{"href": "/test/path"},
		"self":        map[string]any{"href": "/products/1"},
	}
)

func expectedProduct(deletePath string) Product {
	return Product{
		ID:               1,
		Title:            "Test",
		FormattedPrice:   "$25-$50",
		Gender:           GenderMale,
		ImageURL:         "https://test.com/image",
		MediumImageURL:   "https://test.com/image_medium",
		OriginalImageURL: "https://test.com/image_orig",
		DisplayDomain:    "test.com",
		SourceDomain:     "https://test.com",
		SourceURL:        "https://test.com/product",
		GoodDeletePath:   deletePath,
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestProductDecode(t *testing.T) {
	tests := []struct {
		name     string
		encoded  map[string]any
		links    map[string]any
		expected Product
	}{
		{
			name:     "no delete link",
			encoded:  productFixture(linksNoDelete),
			expected: expectedProduct(""),
		},
		{
			name:     "delete link",
			encoded:  productFixture(linksWithDelete),
			expected: expectedProduct("test/path"),
		},
		{
			name:     "override links without delete",
			encoded:  productFixture(linksWithDelete),
			links:    linksNoDelete,
			expected: expectedProduct(""),
		},
		{
			name:     "override links with delete",
			encoded:  productFixture(linksNoDelete),
			links:    linksWithDelete,
			expected: expectedProduct("test/path"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var links map[string]link
			if tt.links != nil {
				require.NoError(t, json.Unmarshal(mustJSON(t, tt.links), &links))
			}

			product, err := decodeProduct(mustJSON(t, tt.encoded), links)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, product)
			assert.Equal(t, tt.expected.GoodDeletePath != "", product.InYourGoods())
		})
	}
}

func TestProductDecodeLenientFields(t *testing.T) {
	encoded := productFixture(linksNoDelete)
	encoded["gender"] = "robot"
	encoded["image_url"] = "ftp://test.com/image"
	encoded["medium_image_url"] = nil
	encoded["source_url"] = 42
	delete(encoded, "domain_for_display")
	delete(encoded, "_links")

	var product Product
	require.NoError(t, json.Unmarshal(mustJSON(t, encoded), &product))

	assert.Equal(t, GenderNeutral, product.Gender)
	assert.Empty(t, product.ImageURL)
	assert.Empty(t, product.MediumImageURL)
	assert.Empty(t, product.SourceURL)
	assert.Empty(t, product.DisplayDomain)
	assert.Equal(t, "https://test.com/image_orig", product.OriginalImageURL)
	assert.False(t, product.InYourGoods())
}

func TestProductDecodeMissingRequired(t *testing.T) {
	for _, key := range []string{"id", "title", "formatted_price"} {
		t.Run(key, func(t *testing.T) {
			encoded := productFixture(linksNoDelete)
			delete(encoded, key)

			var product Product
			err := json.Unmarshal(mustJSON(t, encoded), &product)
			require.Error(t, err)

			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.Equal(t, key, decodeErr.Key)
		})
	}
}

func TestUserDecode(t *testing.T) {
	encoded := map[string]any{
		"id":                      7,
		"username":                "nate",
		"name":                    "Nate",
		"bio":                     "Likes things",
		"location":                "Brooklyn",
		"url":                     "https://example.com",
		"avatar_url":              "https://example.com/avatar",
		"avatar_url_centered_126": "https://example.com/avatar126",
		"cover_image":             "javascript:alert(1)",
		"cover_image_big_url":     "https://example.com/cover_big",
		"cover_image_thumb_url":   "https://example.com/cover_thumb",
		"good_count":              12,
	}

	var user User
	require.NoError(t, json.Unmarshal(mustJSON(t, encoded), &user))

	assert.Equal(t, User{
		ID:                   7,
		Username:             "nate",
		Name:                 "Nate",
		Biography:            "Likes things",
		Location:             "Brooklyn",
		URL:                  "https://example.com",
		AvatarURL:            "https://example.com/avatar",
		AvatarURLCentered126: "https://example.com/avatar126",
		CoverLargeURL:        "https://example.com/cover_big",
		CoverThumbURL:        "https://example.com/cover_thumb",
		GoodsCount:           12,
	}, user)
	assert.Equal(t, "User 7 (@nate)", user.String())

	delete(encoded, "good_count")
	err := json.Unmarshal(mustJSON(t, encoded), &user)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "good_count", decodeErr.Key)
}

func TestGoodDecode(t *testing.T) {
	encoded := map[string]any{
		"id":     99,
		"_links": linksWithDelete,
		"_embedded": map[string]any{
			"product": productFixture(linksNoDelete),
			"owner":   map[string]any{"id": 3, "username": "owner", "good_count": 1},
		},
	}

	var good Good
	require.NoError(t, json.Unmarshal(mustJSON(t, encoded), &good))

	assert.Equal(t, int64(99), good.Identifier())
	assert.Equal(t, expectedProduct("test/path"), good.Product)
	assert.Equal(t, "owner", good.Owner.Username)

	t.Run("missing links", func(t *testing.T) {
		delete(encoded, "_links")
		err := json.Unmarshal(mustJSON(t, encoded), &good)
		var decodeErr *DecodeError
		require.ErrorAs(t, err, &decodeErr)
		assert.Equal(t, "_links", decodeErr.Key)
	})
}

func TestDecodeEmbedded(t *testing.T) {
	t.Run("missing embedded", func(t *testing.T) {
		_, err := decodeEmbedded[Product]([]byte(`{}`), "products")
		var decodeErr *DecodeError
		require.ErrorAs(t, err, &decodeErr)
		assert.Equal(t, "_embedded", decodeErr.Key)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := decodeEmbedded[Product]([]byte(`{"_embedded":{"users":[]}}`), "products")
		var decodeErr *DecodeError
		require.ErrorAs(t, err, &decodeErr)
		assert.Equal(t, "products", decodeErr.Key)
	})

	t.Run("items", func(t *testing.T) {
		body := mustJSON(t, map[string]any{
			"_embedded": map[string]any{"products": []any{productFixture(linksWithDelete)}},
		})
		products, err := decodeEmbedded[Product](body, "products")
		require.NoError(t, err)
		assert.Equal(t, []Product{expectedProduct("test/path")}, products)
	})
}
