package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/verygoods/verygoods"
	"github.com/s0up4200/verygoods/want"
)

var wantCmd = &cobra.Command{
	Use:   "want ID...",
	Short: "Add products to your goods",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runModify(cmd, args, true)
	},
}

var unwantCmd = &cobra.Command{
	Use:   "unwant ID...",
	Short: "Remove products from your goods",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runModify(cmd, args, false)
	},
}

func init() {
	rootCmd.AddCommand(wantCmd, unwantCmd)
}

type modifyResult struct {
	ProductID   int64  `yaml:"product_id"`
	Title       string `yaml:"title"`
	State       string `yaml:"state"`
	InYourGoods bool   `yaml:"in_your_goods"`
	Error       string `yaml:"error,omitempty"`
}

func runModify(cmd *cobra.Command, args []string, target bool) error {
	if err := requireAuth(); err != nil {
		return err
	}

	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := parseProductID(arg)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	csrf := verygoods.NewCSRFSource(client, logger)
	go csrf.Run(ctx)

	controller := want.NewController(client, csrf, client, logger,
		want.WithTokenTimeout(cfg.Want.TokenTimeout),
		want.WithWorkers(cfg.Want.Workers),
	)
	defer controller.Close(context.Background())

	var (
		mu      sync.Mutex
		results = make([]modifyResult, len(ids))
		failed  int
	)

	// Per-product failures are reported in the results; only a cancelled
	// command stops the group.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Want.Workers)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result := modifyProduct(gctx, controller, id, target)

			mu.Lock()
			results[i] = result
			if result.Error != "" || result.InYourGoods != target {
				failed++
			}
			mu.Unlock()
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to update products: %w", err)
	}

	err := render(cmd.OutOrStdout(), results, func(w io.Writer) {
		for _, r := range results {
			status := "✓"
			if r.Error != "" || r.InYourGoods != target {
				status = "✗"
			}
			fmt.Fprintf(w, "%s %d %s: %s", status, r.ProductID, r.Title, r.State)
			if r.Error != "" {
				fmt.Fprintf(w, " (%s)", r.Error)
			}
			fmt.Fprintln(w)
		}
	})
	if err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d products could not be updated", failed, len(ids))
	}
	return nil
}

// modifyProduct seeds the controller from the server, requests the change,
// waits for it to settle and reloads the product to confirm it.
func modifyProduct(ctx context.Context, controller *want.Controller, id int64, target bool) modifyResult {
	result := modifyResult{ProductID: id}

	product, err := client.Product(ctx, id)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Title = product.Title

	controller.Initialize(id, product.GoodDeletePath)
	if product.InYourGoods() != target {
		controller.Modify(id, target)
	}

	state, err := controller.Settle(ctx, id)
	result.State = state.String()
	if err != nil {
		result.Error = err.Error()
		return result
	}

	confirmed, err := client.Product(ctx, id)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.InYourGoods = confirmed.InYourGoods()

	logger.Debug().
		Int64("product_id", id).
		Bool("want", target).
		Str("state", result.State).
		Bool("in_your_goods", result.InYourGoods).
		Msg("Product settled")

	return result
}
