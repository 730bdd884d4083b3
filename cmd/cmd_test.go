package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/verygoods/verygoods"
	"github.com/s0up4200/verygoods/verygoods/verygoodstest"
)

type cli struct {
	t      *testing.T
	config string
}

func newCLI(t *testing.T) (*cli, *verygoodstest.Server) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	srv := verygoodstest.New()
	t.Cleanup(srv.Close)

	srv.AddUsers(verygoodstest.User{ID: 1, Username: "amy", Password: "hunter2"})
	srv.AddProducts(
		verygoodstest.Product{ID: 10, Title: "Desk Lamp", FormattedPrice: "$50-$100", Gender: "neutral", Category: "home", PriceCategory: 3, Related: []int64{11}},
		verygoodstest.Product{ID: 11, Title: "Wool Coat", FormattedPrice: "$100-$500", Gender: "female", Category: "apparel", PriceCategory: 4},
		verygoodstest.Product{ID: 12, Title: "Poster", FormattedPrice: "$1-$25", Gender: "neutral", Category: "art", PriceCategory: 1},
	)

	dir := t.TempDir()
	config := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`
api:
  base_url: %s
  site_url: %s
  rate_limit: 0
session:
  path: %s
want:
  token_timeout: 2s
  workers: 1
logging:
  level: error
filter:
  presets:
    cheap: priceBelow(50)
`, srv.APIURL(), srv.URL, filepath.Join(dir, "session.db"))
	require.NoError(t, os.WriteFile(config, []byte(content), 0o600))

	return &cli{t: t, config: config}, srv
}

// run executes the root command with fresh flag values
func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()

	filterExpr, preset = "", ""
	prices, genders, categories = nil, nil, nil
	limit, pages = verygoods.DefaultPageLimit, 1
	userOrder = string(verygoods.OrderAlphabetical)
	loginUsername, loginPassword = "", ""
	outputFormat = "text"

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", c.config}, args...))

	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestCLISession(t *testing.T) {
	c, _ := newCLI(t)

	out, err := c.run("whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not signed in.")

	_, err = c.run("login", "--username", "amy", "--password", "wrong")
	assert.Error(t, err)

	out, err = c.run("login", "--username", "amy", "--password", "hunter2")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as @amy")

	out, err = c.run("whoami", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "username: amy")

	_, err = c.run("logout")
	require.NoError(t, err)

	out, err = c.run("whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not signed in.")
}

func TestCLIProducts(t *testing.T) {
	c, _ := newCLI(t)

	out, err := c.run("products")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 3 products")

	out, err = c.run("products", "--gender", "neutral", "--filter", "priceBelow(50)")
	require.NoError(t, err)
	assert.Contains(t, out, "Poster")
	assert.NotContains(t, out, "Desk Lamp")

	out, err = c.run("products", "--preset", "cheap", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "id: 12")
	assert.NotContains(t, out, "id: 11")

	_, err = c.run("products", "--preset", "missing")
	assert.ErrorContains(t, err, "preset 'missing' not found")

	_, err = c.run("products", "--price", "9")
	assert.Error(t, err)

	_, err = c.run("products", "--filter", "Title ==")
	assert.ErrorContains(t, err, "invalid filter expression")
}

func TestCLIProduct(t *testing.T) {
	c, _ := newCLI(t)

	out, err := c.run("product", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "Desk Lamp")
	assert.Contains(t, out, "Related products:")
	assert.Contains(t, out, "Wool Coat")

	_, err = c.run("product", "abc")
	assert.ErrorContains(t, err, "invalid product id")
}

func TestCLIWantAndUnwant(t *testing.T) {
	c, srv := newCLI(t)

	_, err := c.run("want", "12")
	assert.ErrorIs(t, err, verygoods.ErrNotAuthenticated)

	_, err = c.run("login", "--username", "amy", "--password", "hunter2")
	require.NoError(t, err)

	out, err := c.run("want", "10", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 10 Desk Lamp: WANTED")
	assert.Contains(t, out, "✓ 12 Poster: WANTED")
	assert.True(t, srv.Wants("amy", 10))
	assert.True(t, srv.Wants("amy", 12))

	out, err = c.run("goods", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "id: 10")
	assert.Contains(t, out, "id: 12")

	out, err = c.run("unwant", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 12 Poster: NOT_WANTED")
	assert.False(t, srv.Wants("amy", 12))
	assert.True(t, srv.Wants("amy", 10))

	_, err = c.run("want", "99")
	assert.ErrorContains(t, err, "1 of 1 products could not be updated")
}

func TestCLIWantManyProductsWithOneWorker(t *testing.T) {
	c, srv := newCLI(t)

	_, err := c.run("login", "--username", "amy", "--password", "hunter2")
	require.NoError(t, err)

	out, err := c.run("want", "12", "10", "11")
	require.NoError(t, err)

	for _, id := range []int64{10, 11, 12} {
		assert.True(t, srv.Wants("amy", id))
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "✓ 12 "))
	assert.True(t, strings.HasPrefix(lines[1], "✓ 10 "))
	assert.True(t, strings.HasPrefix(lines[2], "✓ 11 "))
}
