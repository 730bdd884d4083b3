// Package verygoodstest provides an in-memory Very Goods server for tests.
//
// The server speaks enough of the JSON API and HTML site for the client to
// log in, fetch CSRF tokens, list and page through products, goods and
// users, want and unwant products, and scrape product relations.
package verygoodstest

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
)

// APIPrefix is the path of the JSON API on the server
const APIPrefix = "/site-api-0.1"

// CSRFToken is the token embedded in every HTML page
const CSRFToken = "test-csrf-token"

// Product is a product known to the server
type Product struct {
	ID             int64
	Title          string
	FormattedPrice string
	Gender         string
	Category       string
	PriceCategory  int
	ImageURL       string
	SourceURL      string
	// Related lists the IDs shown as related products on the product page
	Related []int64
}

// User is a user known to the server
type User struct {
	ID       int64
	Username string
	Name     string
	Password string
}

type good struct {
	id        int64
	productID int64
}

// RecordedRequest stores request details for verification
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// Server wraps httptest.Server with a fake marketplace
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	products   map[int64]Product
	users      map[string]User
	goods      map[string][]good
	nextGoodID int64
	failStatus int
	requests   []*RecordedRequest
}

// New starts a server. Close it when done.
func New() *Server {
	s := &Server{
		products:   make(map[int64]Product),
		users:      make(map[string]User),
		goods:      make(map[string][]good),
		nextGoodID: 1000,
	}

	r := chi.NewRouter()
	r.Use(s.record)

	r.Route(APIPrefix, func(r chi.Router) {
		r.Use(s.injectFailure)
		r.Get("/products", s.listProducts)
		r.Get("/products/{id}", s.getProduct)
		r.Get("/users", s.listUsers)
		r.Get("/users/{username}/goods", s.listGoods)
		r.Post("/users/{username}/goods", s.wantProduct)
		r.Delete("/users/{username}/goods/{goodID}", s.unwantProduct)
	})

	r.Get("/", s.home)
	r.Get("/login", s.loginPage)
	r.Post("/login", s.login)
	r.Get("/product/{id}", s.productPage)

	s.Server = httptest.NewServer(r)
	return s
}

// APIURL is the base URL of the JSON API
func (s *Server) APIURL() string {
	return s.URL + APIPrefix + "/"
}

// AddProducts registers products
func (s *Server) AddProducts(products ...Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range products {
		s.products[p.ID] = p
	}
}

// AddUsers registers users
func (s *Server) AddUsers(users ...User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range users {
		s.users[u.Username] = u
	}
}

// AddGood puts a product in a user's goods and returns the good's ID
func (s *Server) AddGood(username string, productID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addGoodLocked(username, productID)
}

func (s *Server) addGoodLocked(username string, productID int64) int64 {
	s.nextGoodID++
	s.goods[username] = append(s.goods[username], good{id: s.nextGoodID, productID: productID})
	return s.nextGoodID
}

// Wants reports whether the product is in the user's goods
func (s *Server) Wants(username string, productID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.goods[username] {
		if g.productID == productID {
			return true
		}
	}
	return false
}

// FailWith makes every API request fail with status. Zero restores normal
// behaviour.
func (s *Server) FailWith(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = status
}

// Requests returns all recorded requests
func (s *Server) Requests() []*RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]*RecordedRequest, len(s.requests))
	copy(result, s.requests)
	return result
}

// LastRequest returns the last recorded request with the given method, or nil
func (s *Server) LastRequest(method string) *RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if s.requests[i].Method == method {
			return s.requests[i]
		}
	}
	return nil
}

// RequestCount returns the number of recorded requests
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.requests = append(s.requests, &RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		status := s.failStatus
		s.mu.Unlock()

		if status != 0 {
			writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authenticatedUser returns the user named by the request's remember_token cookie
func (s *Server) authenticatedUser(r *http.Request) (string, bool) {
	token, err := r.Cookie("remember_token")
	if err != nil {
		return "", false
	}
	session, err := r.Cookie("session")
	if err != nil {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.users {
		if token.Value == TokenFor(name) && session.Value == SessionFor(name) {
			return name, true
		}
	}
	return "", false
}

// TokenFor is the remember_token cookie value issued to username
func TokenFor(username string) string { return "token-" + username }

// SessionFor is the session cookie value issued to username
func SessionFor(username string) string { return "session-" + username }
