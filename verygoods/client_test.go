package verygoods

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/verygoods/verygoods/verygoodstest"
)

func newTestServer(t *testing.T) *verygoodstest.Server {
	t.Helper()

	srv := verygoodstest.New()
	t.Cleanup(srv.Close)

	srv.AddUsers(
		verygoodstest.User{ID: 1, Username: "amy", Name: "Amy", Password: "hunter2"},
		verygoodstest.User{ID: 2, Username: "bob", Password: "secret"},
		verygoodstest.User{ID: 3, Username: "cat", Password: "meow"},
	)
	srv.AddProducts(
		verygoodstest.Product{ID: 10, Title: "Desk Lamp", FormattedPrice: "$50-$100", Gender: "neutral", Category: "home", PriceCategory: 3, ImageURL: "https://img.example/lamp", SourceURL: "https://shop.example/lamp", Related: []int64{11, 12}},
		verygoodstest.Product{ID: 11, Title: "Wool Coat", FormattedPrice: "$100-$500", Gender: "female", Category: "apparel", PriceCategory: 4},
		verygoodstest.Product{ID: 12, Title: "Sneakers", FormattedPrice: "$50-$100", Gender: "male", Category: "shoes", PriceCategory: 3},
		verygoodstest.Product{ID: 13, Title: "Headphones", FormattedPrice: "$100-$500", Gender: "neutral", Category: "tech", PriceCategory: 4},
		verygoodstest.Product{ID: 14, Title: "Poster", FormattedPrice: "$1-$25", Gender: "neutral", Category: "art", PriceCategory: 1},
	)
	return srv
}

func testAuth(username string) *Authentication {
	return &Authentication{
		Username: username,
		Token:    &http.Cookie{Name: TokenCookieName, Value: verygoodstest.TokenFor(username)},
		Session:  &http.Cookie{Name: SessionCookieName, Value: verygoodstest.SessionFor(username)},
	}
}

func newTestClient(t *testing.T, srv *verygoodstest.Server, auth *Authentication, opts ...Option) *Client {
	t.Helper()

	opts = append([]Option{WithBaseURL(srv.APIURL()), WithSiteURL(srv.URL)}, opts...)
	client, err := NewClient(auth, zerolog.Nop(), opts...)
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr bool
	}{
		{name: "defaults"},
		{name: "custom URLs", opts: []Option{WithBaseURL("http://localhost:8080/api"), WithSiteURL("http://localhost:8080")}},
		{name: "relative base URL", opts: []Option{WithBaseURL("/api")}, wantErr: true},
		{name: "unsupported scheme", opts: []Option{WithSiteURL("ftp://verygoods.co")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(nil, zerolog.Nop(), tt.opts...)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasSuffix(client.baseURL.Path, "/"))
			assert.Empty(t, client.Username())
		})
	}
}

func TestClientProducts(t *testing.T) {
	srv := newTestServer(t)
	client := newTestClient(t, srv, nil)
	ctx := context.Background()

	products, err := client.Products(ctx, Filters{}, FirstPage(), 3)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, []int64{14, 13, 12}, ids(products))
	assert.False(t, products[0].InYourGoods())

	last := srv.LastRequest(http.MethodGet)
	require.NotNil(t, last)
	assert.Equal(t, "/site-api-0.1/products", last.Path)
	assert.Equal(t, "application/json", last.Header.Get("Accept"))

	products, err = client.Products(ctx, Filters{}, After(12), 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{11, 10}, ids(products))

	products, err = client.Products(ctx, Filters{Category: []Category{CategoryHome, CategoryTech}}, FirstPage(), 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{13, 10}, ids(products))
}

func TestClientProductWithAuthentication(t *testing.T) {
	srv := newTestServer(t)
	goodID := srv.AddGood("amy", 10)
	client := newTestClient(t, srv, testAuth("amy"))

	product, err := client.Product(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", product.Title)
	assert.Equal(t, "https://img.example/lamp_medium", product.MediumImageURL)
	assert.Equal(t, "shop.example", product.DisplayDomain)
	assert.Equal(t, "users/amy/goods/"+itoa(goodID), product.GoodDeletePath)

	_, err = client.Product(context.Background(), 999)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
}

func TestClientGoods(t *testing.T) {
	srv := newTestServer(t)
	srv.AddGood("bob", 11)
	srv.AddGood("bob", 12)

	t.Run("owner sees delete links", func(t *testing.T) {
		client := newTestClient(t, srv, testAuth("bob"))
		goods, err := client.Goods(context.Background(), "bob", Filters{}, FirstPage(), 10)
		require.NoError(t, err)
		require.Len(t, goods, 2)
		for _, g := range goods {
			assert.True(t, g.Product.InYourGoods())
			assert.Equal(t, "bob", g.Owner.Username)
			assert.Equal(t, 2, g.Owner.GoodsCount)
		}
	})

	t.Run("others do not", func(t *testing.T) {
		client := newTestClient(t, srv, testAuth("amy"))
		goods, err := client.Goods(context.Background(), "bob", Filters{Gender: []Gender{GenderMale}}, FirstPage(), 10)
		require.NoError(t, err)
		require.Len(t, goods, 1)
		assert.Equal(t, int64(12), goods[0].Product.ID)
		assert.False(t, goods[0].Product.InYourGoods())
	})
}

func TestClientUsersAndSearch(t *testing.T) {
	srv := newTestServer(t)
	client := newTestClient(t, srv, nil)
	ctx := context.Background()

	users, err := client.Users(ctx, OrderAlphabetical, OffsetPage{Skip: 1}, 10)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "bob", users[0].Username)
	assert.Equal(t, "cat", users[1].Username)

	users, err = client.Users(ctx, OrderNewest, OffsetPage{}, 1)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "cat", users[0].Username)

	products, err := client.Search(ctx, "coat", IndexPage{Index: 1}, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{11}, ids(products))
	assert.Contains(t, srv.LastRequest(http.MethodGet).Query, "q=coat")
}

func TestClientWantAndUnwant(t *testing.T) {
	srv := newTestServer(t)
	client := newTestClient(t, srv, testAuth("amy"))
	ctx := context.Background()

	path, err := client.Want(ctx, "amy", 13, verygoodstest.CSRFToken)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "users/amy/goods/"))
	assert.True(t, srv.Wants("amy", 13))

	post := srv.LastRequest(http.MethodPost)
	require.NotNil(t, post)
	assert.Equal(t, "application/json;charset=UTF-8", post.Header.Get("Content-Type"))
	assert.Equal(t, verygoodstest.CSRFToken, post.Header.Get("Csrf-Token"))
	assert.Equal(t, "XMLHttpRequest", post.Header.Get("X-Requested-With"))
	assert.Equal(t, srv.URL, post.Header.Get("Origin"))
	assert.Equal(t, srv.URL, post.Header.Get("Referer"))

	var body map[string]int64
	require.NoError(t, json.Unmarshal(post.Body, &body))
	assert.Equal(t, int64(13), body["product_id"])

	require.NoError(t, client.Unwant(ctx, path, verygoodstest.CSRFToken))
	assert.False(t, srv.Wants("amy", 13))

	del := srv.LastRequest(http.MethodDelete)
	require.NotNil(t, del)
	assert.Equal(t, "/site-api-0.1/"+path, del.Path)

	err = client.Unwant(ctx, path, verygoodstest.CSRFToken)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())

	_, err = client.Want(ctx, "amy", 13, "wrong-token")
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsUnauthorized())
}

func TestClientLogin(t *testing.T) {
	srv := newTestServer(t)
	client := newTestClient(t, srv, nil)

	auth, err := client.Login(context.Background(), "amy", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "amy", auth.Username)
	assert.Equal(t, verygoodstest.TokenFor("amy"), auth.Token.Value)
	assert.Equal(t, verygoodstest.SessionFor("amy"), auth.Session.Value)

	post := srv.LastRequest(http.MethodPost)
	require.NotNil(t, post)
	assert.Equal(t, srv.URL+"/login", post.Header.Get("Referer"))
	assert.Contains(t, string(post.Body), "_csrf_token="+verygoodstest.CSRFToken)
	assert.Contains(t, string(post.Body), "next=")

	_, err = client.Login(context.Background(), "amy", "wrong")
	assert.ErrorIs(t, err, ErrTokenCookieNotFound)
}

func TestClientFetchCSRFToken(t *testing.T) {
	srv := newTestServer(t)

	anonymous := newTestClient(t, srv, nil)
	_, err := anonymous.FetchCSRFToken(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	client := newTestClient(t, srv, testAuth("amy"))
	token, err := client.FetchCSRFToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, verygoodstest.CSRFToken, token)

	last := srv.LastRequest(http.MethodGet)
	require.NotNil(t, last)
	assert.Equal(t, "/", last.Path)
	cookie := last.Header.Get("Cookie")
	assert.Contains(t, cookie, TokenCookieName+"="+verygoodstest.TokenFor("amy"))
	assert.Contains(t, cookie, SessionCookieName+"="+verygoodstest.SessionFor("amy"))
}

func TestClientProductRelations(t *testing.T) {
	srv := newTestServer(t)
	srv.AddGood("bob", 10)
	srv.AddGood("cat", 10)
	client := newTestClient(t, srv, nil)

	relations, err := client.ProductRelations(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{11, 12}, ids(relations.RelatedProducts))
	require.Len(t, relations.Users, 2)
	assert.Equal(t, "bob", relations.Users[0].Username)
	assert.Equal(t, "cat", relations.Users[1].Username)
}

func TestClientCircuitBreaker(t *testing.T) {
	srv := newTestServer(t)
	client := newTestClient(t, srv, nil, WithMaxFailures(2))
	ctx := context.Background()

	srv.FailWith(http.StatusNotFound)
	for range 3 {
		_, err := client.Products(ctx, Filters{}, FirstPage(), 1)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
	}

	srv.FailWith(http.StatusBadGateway)
	for range 2 {
		_, err := client.Products(ctx, Filters{}, FirstPage(), 1)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.True(t, apiErr.IsServerError())
	}

	requests := srv.RequestCount()
	_, err := client.Products(ctx, Filters{}, FirstPage(), 1)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, requests, srv.RequestCount())
}

func ids[T Model](items []T) []int64 {
	out := make([]int64, 0, len(items))
	for _, item := range items {
		out = append(out, item.Identifier())
	}
	return out
}

func itoa(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
