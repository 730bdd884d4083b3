package filter

import (
	"maps"
	"math"
	"strconv"
	"strings"

	"github.com/s0up4200/verygoods/verygoods"
)

// createHelperFunctions creates the static helper functions used during
// compilation. The case-sensitive forms are expr operators already.
func createHelperFunctions() map[string]any {
	return map[string]any{
		"icontains": func(str, substr string) bool {
			return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
		},
		"istartsWith": func(str, prefix string) bool {
			return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
		},
		"iendsWith": func(str, suffix string) bool {
			return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
		},
	}
}

// createRuntimeEnvironment exposes product as top-level variables plus
// product-bound helpers.
func createRuntimeEnvironment(product verygoods.Product, helpers map[string]any) map[string]any {
	env := make(map[string]any, len(helpers)+20)
	maps.Copy(env, helpers)

	minPrice, maxPrice, hasPrice := parsePriceRange(product.FormattedPrice)

	env["Product"] = product
	env["ID"] = product.ID
	env["Title"] = product.Title
	env["FormattedPrice"] = product.FormattedPrice
	env["Gender"] = string(product.Gender)
	env["DisplayDomain"] = product.DisplayDomain
	env["SourceDomain"] = product.SourceDomain
	env["SourceURL"] = product.SourceURL
	env["ImageURL"] = product.ImageURL
	env["HasImage"] = product.ImageURL != ""
	env["InYourGoods"] = product.InYourGoods()
	env["HasPrice"] = hasPrice
	env["MinPrice"] = minPrice
	env["MaxPrice"] = maxPrice

	env["fromDomain"] = createFromDomainFunc(product.DisplayDomain, product.SourceDomain)
	env["isGender"] = func(gender string) bool {
		return strings.EqualFold(string(product.Gender), gender)
	}
	env["priceBelow"] = func(limit any) bool {
		v, ok := toFloat(limit)
		return ok && hasPrice && maxPrice <= v
	}
	env["priceAbove"] = func(limit any) bool {
		v, ok := toFloat(limit)
		return ok && hasPrice && minPrice >= v
	}

	return env
}

// createFromDomainFunc matches a domain or any of its subdomains
func createFromDomainFunc(domains ...string) func(string) bool {
	return func(domain string) bool {
		domain = strings.ToLower(strings.TrimPrefix(domain, "www."))
		for _, d := range domains {
			d = strings.ToLower(strings.TrimPrefix(d, "www."))
			if d == "" {
				continue
			}
			if d == domain || strings.HasSuffix(d, "."+domain) {
				return true
			}
		}
		return false
	}
}

// parsePriceRange reads the bounds of a formatted price such as "$25-$50",
// "$5000+" or "$30". Open ranges have an infinite maximum.
func parsePriceRange(formatted string) (minPrice, maxPrice float64, ok bool) {
	s := strings.NewReplacer("$", "", ",", "", " ", "").Replace(formatted)
	if s == "" {
		return 0, 0, false
	}

	if lower, found := strings.CutSuffix(s, "+"); found {
		v, err := strconv.ParseFloat(lower, 64)
		if err != nil {
			return 0, 0, false
		}
		return v, math.Inf(1), true
	}

	if lower, upper, found := strings.Cut(s, "-"); found {
		lo, err := strconv.ParseFloat(lower, 64)
		if err != nil {
			return 0, 0, false
		}
		hi, err := strconv.ParseFloat(upper, 64)
		if err != nil || hi < lo {
			return 0, 0, false
		}
		return lo, hi, true
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, 0, false
	}
	return v, v, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
