package verygoods

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/verygoods/want"
)

var (
	_ want.Transport   = (*Client)(nil)
	_ want.Identity    = (*Client)(nil)
	_ want.TokenSource = (*CSRFSource)(nil)
)

func TestWantControllerAgainstServer(t *testing.T) {
	srv := newTestServer(t)
	client := newTestClient(t, srv, testAuth("amy"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	csrf := NewCSRFSource(client, zerolog.Nop())
	go csrf.Run(ctx)

	controller := want.NewController(client, csrf, client, zerolog.Nop())
	t.Cleanup(func() { controller.Close(context.Background()) })

	products, err := client.Products(ctx, Filters{}, FirstPage(), 10)
	require.NoError(t, err)
	for _, p := range products {
		controller.Initialize(p.ID, p.GoodDeletePath)
	}
	assert.Equal(t, want.NotWanted, controller.State(12))

	controller.Modify(12, true)
	state, err := controller.Settle(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, want.Wanted, state)
	assert.True(t, srv.Wants("amy", 12))

	controller.Modify(12, false)
	state, err = controller.Settle(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, want.NotWanted, state)
	assert.False(t, srv.Wants("amy", 12))
}

func TestWantControllerSeededFromGoods(t *testing.T) {
	srv := newTestServer(t)
	srv.AddGood("amy", 14)
	client := newTestClient(t, srv, testAuth("amy"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	csrf := NewCSRFSource(client, zerolog.Nop())
	_, err := csrf.Refresh(ctx)
	require.NoError(t, err)

	controller := want.NewController(client, csrf, client, zerolog.Nop())
	t.Cleanup(func() { controller.Close(context.Background()) })

	product, err := client.Product(ctx, 14)
	require.NoError(t, err)
	controller.Initialize(product.ID, product.GoodDeletePath)
	assert.Equal(t, want.Wanted, controller.State(14))

	controller.Modify(14, false)
	state, err := controller.Settle(ctx, 14)
	require.NoError(t, err)
	assert.Equal(t, want.NotWanted, state)
	assert.False(t, srv.Wants("amy", 14))
}
