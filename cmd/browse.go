package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/verygoods/filter"
	"github.com/s0up4200/verygoods/verygoods"
)

var (
	filterExpr string
	preset     string
	prices     []string
	genders    []string
	categories []string
	limit      int
	pages      int
	userOrder  string
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List the newest products",
	Long: `List the newest products. --price, --gender and --category are applied
by the server; --filter and --preset run an expression over the loaded
products, for example:

  verygoods products --gender female --filter 'priceBelow(100) and not InYourGoods'`,
	Args: cobra.NoArgs,
	RunE: runProducts,
}

var goodsCmd = &cobra.Command{
	Use:   "goods [USERNAME]",
	Short: "List the goods of a user (default: you)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGoods,
}

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search products",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE:  runUsers,
}

var productCmd = &cobra.Command{
	Use:   "product ID",
	Short: "Show a product with its related products and owners",
	Args:  cobra.ExactArgs(1),
	RunE:  runProduct,
}

func init() {
	for _, c := range []*cobra.Command{productsCmd, goodsCmd} {
		c.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
		c.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
		c.Flags().StringSliceVar(&prices, "price", nil, "price tiers 1-7 (repeatable)")
		c.Flags().StringSliceVar(&genders, "gender", nil, "female, male or neutral (repeatable)")
		c.Flags().StringSliceVar(&categories, "category", nil, "product category (repeatable)")
	}
	for _, c := range []*cobra.Command{productsCmd, goodsCmd, searchCmd, usersCmd} {
		c.Flags().IntVarP(&limit, "limit", "l", verygoods.DefaultPageLimit, "items per page")
		c.Flags().IntVar(&pages, "pages", 1, "number of pages to load")
	}
	usersCmd.Flags().StringVar(&userOrder, "order", string(verygoods.OrderAlphabetical), "alphabetical or newest")

	rootCmd.AddCommand(productsCmd, goodsCmd, searchCmd, usersCmd, productCmd)
}

func runProducts(cmd *cobra.Command, args []string) error {
	filters, err := parseFilters()
	if err != nil {
		return err
	}
	selection, err := productFilter()
	if err != nil {
		return err
	}

	products, err := loadPages(cmd.Context(), client.ProductsLoader(filters, limit))
	if err != nil {
		return err
	}

	products, err = applyFilter(cmd.Context(), selection, products)
	if err != nil {
		return err
	}

	return render(cmd.OutOrStdout(), products, func(w io.Writer) { printProducts(w, products) })
}

func runGoods(cmd *cobra.Command, args []string) error {
	username := client.Username()
	if len(args) == 1 {
		username = args[0]
	}
	if username == "" {
		return fmt.Errorf("a username is required when not signed in")
	}

	filters, err := parseFilters()
	if err != nil {
		return err
	}
	selection, err := productFilter()
	if err != nil {
		return err
	}

	goods, err := loadPages(cmd.Context(), client.GoodsLoader(username, filters, limit))
	if err != nil {
		return err
	}

	products := make([]verygoods.Product, 0, len(goods))
	for _, g := range goods {
		products = append(products, g.Product)
	}

	products, err = applyFilter(cmd.Context(), selection, products)
	if err != nil {
		return err
	}

	return render(cmd.OutOrStdout(), products, func(w io.Writer) {
		fmt.Fprintf(w, "Goods of @%s\n", username)
		printProducts(w, products)
	})
}

func runSearch(cmd *cobra.Command, args []string) error {
	products, err := loadPages(cmd.Context(), client.SearchLoader(args[0], limit))
	if err != nil {
		return err
	}

	return render(cmd.OutOrStdout(), products, func(w io.Writer) { printProducts(w, products) })
}

func runUsers(cmd *cobra.Command, args []string) error {
	order := verygoods.Order(userOrder)
	if order != verygoods.OrderAlphabetical && order != verygoods.OrderNewest {
		return fmt.Errorf("invalid order %q: must be alphabetical or newest", userOrder)
	}

	users, err := loadPages(cmd.Context(), client.UsersLoader(order, limit))
	if err != nil {
		return err
	}

	return render(cmd.OutOrStdout(), users, func(w io.Writer) { printUsers(w, users) })
}

type productView struct {
	Product   *verygoods.Product          `yaml:"product"`
	Relations *verygoods.ProductRelations `yaml:"relations"`
}

func runProduct(cmd *cobra.Command, args []string) error {
	id, err := parseProductID(args[0])
	if err != nil {
		return err
	}

	var view productView

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		product, err := client.Product(ctx, id)
		view.Product = product
		return err
	})
	g.Go(func() error {
		relations, err := client.ProductRelations(ctx, id)
		view.Relations = relations
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	return render(cmd.OutOrStdout(), view, func(w io.Writer) {
		printProductDetails(w, *view.Product)

		if len(view.Relations.RelatedProducts) > 0 {
			fmt.Fprintln(w, "\nRelated products:")
			for _, p := range view.Relations.RelatedProducts {
				printProductLine(w, p)
			}
		}
		if len(view.Relations.Users) > 0 {
			fmt.Fprintln(w, "\nIn the goods of:")
			for _, u := range view.Relations.Users {
				fmt.Fprintf(w, "• @%s\n", u.Username)
			}
		}
	})
}

// loadPages loads up to the --pages number of pages
func loadPages[T verygoods.Model](ctx context.Context, loader *verygoods.Loader[T]) ([]T, error) {
	for i := 0; i < pages && loader.HasMore(); i++ {
		if _, err := loader.Next(ctx); err != nil {
			return nil, err
		}
	}
	return loader.Items(), nil
}

func parseFilters() (verygoods.Filters, error) {
	var filters verygoods.Filters

	for _, s := range prices {
		p, err := verygoods.ParsePrice(s)
		if err != nil {
			return filters, err
		}
		filters.Price = append(filters.Price, p)
	}
	for _, s := range genders {
		g, err := verygoods.ParseGender(s)
		if err != nil {
			return filters, err
		}
		filters.Gender = append(filters.Gender, g)
	}
	for _, s := range categories {
		c, err := verygoods.ParseCategory(s)
		if err != nil {
			return filters, err
		}
		filters.Category = append(filters.Category, c)
	}

	return filters.Simplified(), nil
}

// productFilter compiles the --filter expression or looks up the --preset.
// A nil filter keeps every product.
func productFilter() (filter.Filter, error) {
	if filterExpr != "" && preset != "" {
		return nil, fmt.Errorf("--filter and --preset cannot be combined")
	}

	if filterExpr != "" {
		f, err := filter.Compile(filterExpr)
		if err != nil {
			return nil, fmt.Errorf("invalid filter expression: %w", err)
		}
		return f, nil
	}

	if preset == "" {
		return nil, nil
	}

	manager := filter.NewManager()
	if err := manager.RegisterFilters(cfg.Filter.Presets); err != nil {
		return nil, err
	}
	f, ok := manager.GetFilter(preset)
	if !ok {
		return nil, fmt.Errorf("preset '%s' not found in config (available: %v)", preset, manager.ListFilters())
	}
	logger.Debug().Str("preset", preset).Str("filter", f.Expression()).Msg("Using preset filter")
	return f, nil
}

func applyFilter(ctx context.Context, f filter.Filter, products []verygoods.Product) ([]verygoods.Product, error) {
	if f == nil {
		return products, nil
	}
	return filter.Select(ctx, f, products)
}

func parseProductID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product id %q", s)
	}
	return id, nil
}
