package verygoods

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiltersSimplified(t *testing.T) {
	tests := []struct {
		name     string
		filters  Filters
		expected Filters
	}{
		{
			name:     "empty",
			filters:  Filters{},
			expected: Filters{},
		},
		{
			name:     "all values",
			filters:  AllFilters(),
			expected: Filters{},
		},
		{
			name: "partial values kept",
			filters: Filters{
				Price:    []Price{PriceFrom1To25, PriceFrom25To50},
				Gender:   AllGenders,
				Category: []Category{CategoryArt},
			},
			expected: Filters{
				Price:    []Price{PriceFrom1To25, PriceFrom25To50},
				Category: []Category{CategoryArt},
			},
		},
		{
			name: "all genders with duplicates",
			filters: Filters{
				Gender: []Gender{GenderMale, GenderFemale, GenderMale, GenderNeutral},
			},
			expected: Filters{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.expected.Equal(tt.filters.Simplified()), "got %+v", tt.filters.Simplified())
		})
	}
}

func TestFiltersEqual(t *testing.T) {
	a := Filters{Gender: []Gender{GenderMale, GenderFemale}}
	b := Filters{Gender: []Gender{GenderFemale, GenderMale, GenderMale}}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(Filters{Gender: []Gender{GenderMale}}))
}

func TestFiltersQuery(t *testing.T) {
	q := url.Values{}
	Filters{
		Price:    []Price{PriceFrom50To100, PriceFrom5000Up},
		Gender:   []Gender{GenderFemale},
		Category: []Category{CategoryHome, CategoryTech},
	}.addQuery(q)

	assert.Equal(t, []string{"3", "7"}, q["price_category_id"])
	assert.Equal(t, []string{"female"}, q["gender"])
	assert.Equal(t, []string{"home", "tech"}, q["category"])
}

func TestParseFilterComponents(t *testing.T) {
	price, err := ParsePrice("4")
	require.NoError(t, err)
	assert.Equal(t, PriceFrom100To500, price)
	assert.Equal(t, "$100-500", price.String())

	for _, invalid := range []string{"0", "8", "cheap"} {
		_, err := ParsePrice(invalid)
		assert.Error(t, err, invalid)
	}

	gender, err := ParseGender("neutral")
	require.NoError(t, err)
	assert.Equal(t, GenderNeutral, gender)
	_, err = ParseGender("robot")
	assert.Error(t, err)

	category, err := ParseCategory("shoes")
	require.NoError(t, err)
	assert.Equal(t, CategoryShoes, category)
	_, err = ParseCategory("food")
	assert.Error(t, err)
}

func TestPageQuery(t *testing.T) {
	tests := []struct {
		name     string
		page     Page
		expected url.Values
	}{
		{"first", FirstPage(), url.Values{"limit": {"10"}}},
		{"after", After(42), url.Values{"limit": {"10"}, "max_id": {"42"}}},
		{"before", Before(7), url.Values{"limit": {"10"}, "since_id": {"7"}}},
		{"offset", OffsetPage{Skip: 30}, url.Values{"limit": {"10"}, "skip": {"30"}}},
		{"index", IndexPage{Index: 2}, url.Values{"limit": {"10"}, "page": {"2"}}},
		{"order", OrderNewest, url.Values{"limit": {"10"}, "order": {"newest"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, pageQuery(tt.page, 10))
		})
	}
}
