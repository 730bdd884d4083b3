package verygoods

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
)

// Price is a price tier used to filter products
type Price int

// Price tiers
const (
	PriceFrom1To25 Price = iota + 1
	PriceFrom25To50
	PriceFrom50To100
	PriceFrom100To500
	PriceFrom500To1000
	PriceFrom1000To5000
	PriceFrom5000Up
)

// AllPrices lists every price tier
var AllPrices = []Price{
	PriceFrom1To25, PriceFrom25To50, PriceFrom50To100, PriceFrom100To500,
	PriceFrom500To1000, PriceFrom1000To5000, PriceFrom5000Up,
}

func (p Price) String() string {
	switch p {
	case PriceFrom1To25:
		return "$1-25"
	case PriceFrom25To50:
		return "$25-50"
	case PriceFrom50To100:
		return "$50-100"
	case PriceFrom100To500:
		return "$100-500"
	case PriceFrom500To1000:
		return "$500-1000"
	case PriceFrom1000To5000:
		return "$1000-5000"
	case PriceFrom5000Up:
		return "$5000+"
	default:
		return fmt.Sprintf("Price(%d)", int(p))
	}
}

// ParsePrice parses a price tier number
func ParsePrice(s string) (Price, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < int(PriceFrom1To25) || n > int(PriceFrom5000Up) {
		return 0, fmt.Errorf("invalid price tier %q: must be 1-7", s)
	}
	return Price(n), nil
}

// Gender is the gender a product is aimed at
type Gender string

// Genders
const (
	GenderFemale  Gender = "female"
	GenderMale    Gender = "male"
	GenderNeutral Gender = "neutral"
)

// AllGenders lists every gender
var AllGenders = []Gender{GenderFemale, GenderMale, GenderNeutral}

// parseGender maps unknown values to neutral
func parseGender(s string) Gender {
	g := Gender(s)
	if slices.Contains(AllGenders, g) {
		return g
	}
	return GenderNeutral
}

// ParseGender parses a gender filter value
func ParseGender(s string) (Gender, error) {
	g := Gender(s)
	if !slices.Contains(AllGenders, g) {
		return "", fmt.Errorf("invalid gender %q", s)
	}
	return g, nil
}

// Category is a product category
type Category string

// Categories
const (
	CategoryAccessories Category = "accessories"
	CategoryApparel     Category = "apparel"
	CategoryArt         Category = "art"
	CategoryHome        Category = "home"
	CategoryMedia       Category = "media"
	CategoryShoes       Category = "shoes"
	CategoryTech        Category = "tech"
	CategoryOther       Category = "other"
)

// AllCategories lists every category
var AllCategories = []Category{
	CategoryAccessories, CategoryApparel, CategoryArt, CategoryHome,
	CategoryMedia, CategoryShoes, CategoryTech, CategoryOther,
}

// ParseCategory parses a category filter value
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !slices.Contains(AllCategories, c) {
		return "", fmt.Errorf("invalid category %q", s)
	}
	return c, nil
}

// Filters narrows a product or goods listing. An empty component does not
// filter on that component.
type Filters struct {
	Price    []Price    `yaml:"price,omitempty"`
	Gender   []Gender   `yaml:"gender,omitempty"`
	Category []Category `yaml:"category,omitempty"`
}

// AllFilters returns filters holding every value of every component
func AllFilters() Filters {
	return Filters{
		Price:    slices.Clone(AllPrices),
		Gender:   slices.Clone(AllGenders),
		Category: slices.Clone(AllCategories),
	}
}

// Simplified drops any component that holds every possible value, since
// that is the same as not filtering on it.
func (f Filters) Simplified() Filters {
	return Filters{
		Price:    simplify(f.Price, AllPrices),
		Gender:   simplify(f.Gender, AllGenders),
		Category: simplify(f.Category, AllCategories),
	}
}

// Equal reports whether both filters hold the same values, ignoring order
// and duplicates.
func (f Filters) Equal(other Filters) bool {
	return sameSet(f.Price, other.Price) &&
		sameSet(f.Gender, other.Gender) &&
		sameSet(f.Category, other.Category)
}

func (f Filters) addQuery(q url.Values) {
	for _, p := range dedupe(f.Price) {
		q.Add("price_category_id", strconv.Itoa(int(p)))
	}
	for _, g := range dedupe(f.Gender) {
		q.Add("gender", string(g))
	}
	for _, c := range dedupe(f.Category) {
		q.Add("category", string(c))
	}
}

func simplify[T comparable](values, all []T) []T {
	if sameSet(values, all) {
		return nil
	}
	return dedupe(values)
}

func sameSet[T comparable](a, b []T) bool {
	a, b = dedupe(a), dedupe(b)
	if len(a) != len(b) {
		return false
	}
	for _, v := range a {
		if !slices.Contains(b, v) {
			return false
		}
	}
	return true
}

func dedupe[T comparable](values []T) []T {
	var out []T
	for _, v := range values {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
