package cmd

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/s0up4200/verygoods/verygoods"
)

// render writes v as YAML when requested, otherwise calls text
func render(w io.Writer, v any, text func(io.Writer)) error {
	if outputFormat == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		return enc.Close()
	}

	text(w)
	return nil
}

func printProducts(w io.Writer, products []verygoods.Product) {
	if len(products) == 0 {
		fmt.Fprintln(w, "No products found.")
		return
	}

	fmt.Fprintf(w, "Found %d products:\n", len(products))
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, p := range products {
		printProductLine(w, p)
	}
}

func printProductLine(w io.Writer, p verygoods.Product) {
	fmt.Fprintf(w, "• %d %s  %s", p.ID, p.Title, p.FormattedPrice)
	if p.InYourGoods() {
		fmt.Fprint(w, " [IN YOUR GOODS]")
	}
	fmt.Fprintln(w)
	if p.DisplayDomain != "" {
		fmt.Fprintf(w, "  From: %s\n", p.DisplayDomain)
	}
}

func printProductDetails(w io.Writer, p verygoods.Product) {
	printProductLine(w, p)
	fmt.Fprintf(w, "  Gender: %s\n", p.Gender)
	if p.SourceURL != "" {
		fmt.Fprintf(w, "  Source: %s\n", p.SourceURL)
	}
	if p.ImageURL != "" {
		fmt.Fprintf(w, "  Image: %s\n", p.ImageURL)
	}
}

func printUsers(w io.Writer, users []verygoods.User) {
	if len(users) == 0 {
		fmt.Fprintln(w, "No users found.")
		return
	}

	fmt.Fprintf(w, "Found %d users:\n", len(users))
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, u := range users {
		fmt.Fprintf(w, "• @%s", u.Username)
		if u.Name != "" {
			fmt.Fprintf(w, " (%s)", u.Name)
		}
		fmt.Fprintf(w, "  %d goods\n", u.GoodsCount)
		if u.Location != "" {
			fmt.Fprintf(w, "  Location: %s\n", u.Location)
		}
	}
}
