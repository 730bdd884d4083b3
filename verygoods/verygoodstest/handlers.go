package verygoodstest

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

const loginCookieName = "login_csrf"

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	viewer, _ := s.authenticatedUser(r)
	q := r.URL.Query()

	s.mu.Lock()
	defer s.mu.Unlock()

	products := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if !matchesFilters(p, q) {
			continue
		}
		if query := q.Get("q"); query != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(query)) {
			continue
		}
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID > products[j].ID })

	products = pageByID(products, q, func(p Product) int64 { return p.ID })
	products = pageByIndex(products, q)

	encoded := make([]map[string]any, 0, len(products))
	for _, p := range products {
		encoded = append(encoded, s.productJSON(p, viewer))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"_embedded": map[string]any{"products": encoded},
	})
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	viewer, _ := s.authenticatedUser(r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
		return
	}
	writeJSON(w, http.StatusOK, s.productJSON(p, viewer))
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	if q.Get("order") == "alphabetical" {
		sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	} else {
		sort.Slice(users, func(i, j int) bool { return users[i].ID > users[j].ID })
	}

	skip, _ := strconv.Atoi(q.Get("skip"))
	users = window(users, skip, limitOf(q))

	encoded := make([]map[string]any, 0, len(users))
	for _, u := range users {
		encoded = append(encoded, s.userJSON(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"_embedded": map[string]any{"users": encoded},
	})
}

func (s *Server) listGoods(w http.ResponseWriter, r *http.Request) {
	viewer, _ := s.authenticatedUser(r)
	username := chi.URLParam(r, "username")
	q := r.URL.Query()

	s.mu.Lock()
	defer s.mu.Unlock()

	owner, ok := s.users[username]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}

	var goods []good
	for _, g := range s.goods[username] {
		if p, ok := s.products[g.productID]; ok && matchesFilters(p, q) {
			goods = append(goods, g)
		}
	}
	sort.Slice(goods, func(i, j int) bool { return goods[i].id > goods[j].id })
	goods = pageByID(goods, q, func(g good) int64 { return g.id })

	encoded := make([]map[string]any, 0, len(goods))
	for _, g := range goods {
		links := map[string]any{"self": map[string]string{"href": goodPath(username, g.id)}}
		if viewer == username {
			links["good:delete"] = map[string]string{"href": goodPath(username, g.id)}
		}
		encoded = append(encoded, map[string]any{
			"id":     g.id,
			"_links": links,
			"_embedded": map[string]any{
				"product": s.productJSON(s.products[g.productID], ""),
				"owner":   s.userJSON(owner),
			},
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"_embedded": map[string]any{"goods": encoded},
	})
}

func (s *Server) wantProduct(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if !s.authorizeMutation(w, r, username) {
		return
	}

	var body struct {
		ProductID int64 `json:"product_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[body.ProductID]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
		return
	}

	id := int64(0)
	for _, g := range s.goods[username] {
		if g.productID == body.ProductID {
			id = g.id
		}
	}
	if id == 0 {
		id = s.addGoodLocked(username, body.ProductID)
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":     id,
		"_links": map[string]any{"self": map[string]string{"href": goodPath(username, id)}},
	})
}

func (s *Server) unwantProduct(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if !s.authorizeMutation(w, r, username) {
		return
	}

	goodID, err := strconv.ParseInt(chi.URLParam(r, "goodID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid good id"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	goods := s.goods[username]
	i := slices.IndexFunc(goods, func(g good) bool { return g.id == goodID })
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "good not found"})
		return
	}
	s.goods[username] = slices.Delete(goods, i, i+1)
	w.WriteHeader(http.StatusNoContent)
}

// authorizeMutation requires the owner's cookies and the CSRF header
func (s *Server) authorizeMutation(w http.ResponseWriter, r *http.Request, username string) bool {
	viewer, ok := s.authenticatedUser(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not signed in"})
		return false
	}
	if viewer != username {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "not your goods"})
		return false
	}
	if r.Header.Get("Csrf-Token") != CSRFToken {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "invalid CSRF token"})
		return false
	}
	return true
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Very Goods</title>
<meta name="csrf-token" content="{{.Token}}">
{{range .Scripts}}<script id="{{.ID}}" type="application/json">{{.JSON}}</script>
{{end}}</head>
<body></body>
</html>
`))

type pageScript struct {
	ID   string
	JSON template.JS
}

func renderPage(w http.ResponseWriter, scripts ...pageScript) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	pageTemplate.Execute(w, map[string]any{"Token": CSRFToken, "Scripts": scripts})
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	renderPage(w)
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: loginCookieName, Value: CSRFToken, Path: "/"})
	renderPage(w)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	cookie, err := r.Cookie(loginCookieName)
	if err != nil || cookie.Value != r.PostForm.Get("_csrf_token") {
		http.Error(w, "invalid CSRF token", http.StatusForbidden)
		return
	}

	username := r.PostForm.Get("username")

	s.mu.Lock()
	user, ok := s.users[username]
	s.mu.Unlock()

	if !ok || user.Password != r.PostForm.Get("password") {
		// The real site re-renders the form without setting cookies.
		renderPage(w)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: "remember_token", Value: TokenFor(username), Path: "/"})
	http.SetCookie(w, &http.Cookie{Name: "session", Value: SessionFor(username), Path: "/"})
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) productPage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		http.NotFound(w, r)
		return
	}

	related := make([]map[string]any, 0, len(p.Related))
	for _, relatedID := range p.Related {
		if rp, ok := s.products[relatedID]; ok {
			related = append(related, s.productJSON(rp, ""))
		}
	}

	var owners []map[string]any
	for name, goods := range s.goods {
		if slices.ContainsFunc(goods, func(g good) bool { return g.productID == id }) {
			owners = append(owners, s.userJSON(s.users[name]))
		}
	}
	sort.Slice(owners, func(i, j int) bool {
		return owners[i]["username"].(string) < owners[j]["username"].(string)
	})

	relatedJSON, _ := json.Marshal(related)
	productJSON, _ := json.Marshal(map[string]any{
		"id": p.ID,
		"_embedded": map[string]any{
			"in_user_goods": map[string]any{"users": owners},
		},
	})

	renderPage(w,
		pageScript{ID: "related_products", JSON: template.JS(relatedJSON)},
		pageScript{ID: "product", JSON: template.JS(productJSON)},
	)
}

// productJSON renders p as seen by viewer; "" renders the anonymous view.
// Callers hold s.mu.
func (s *Server) productJSON(p Product, viewer string) map[string]any {
	links := map[string]any{
		"self": map[string]string{"href": fmt.Sprintf("/products/%d", p.ID)},
	}
	if viewer != "" {
		links["good:add"] = map[string]string{"href": "/users/" + viewer + "/goods"}
		for _, g := range s.goods[viewer] {
			if g.productID == p.ID {
				links["good:delete"] = map[string]string{"href": goodPath(viewer, g.id)}
			}
		}
	}

	out := map[string]any{
		"id":                p.ID,
		"title":             p.Title,
		"formatted_price":   p.FormattedPrice,
		"gender":            p.Gender,
		"price_category_id": p.PriceCategory,
		"in_your_goods":     links["good:delete"] != nil,
		"_links":            links,
	}
	if p.ImageURL != "" {
		out["image_url"] = p.ImageURL
		out["medium_image_url"] = p.ImageURL + "_medium"
		out["orig_image_url"] = p.ImageURL + "_orig"
	}
	if p.SourceURL != "" {
		out["source_url"] = p.SourceURL
		if u, err := url.Parse(p.SourceURL); err == nil {
			out["source_domain"] = u.Scheme + "://" + u.Host
			out["domain_for_display"] = u.Host
		}
	}
	return out
}

// userJSON renders u. Callers hold s.mu.
func (s *Server) userJSON(u User) map[string]any {
	out := map[string]any{
		"id":         u.ID,
		"username":   u.Username,
		"good_count": len(s.goods[u.Username]),
	}
	if u.Name != "" {
		out["name"] = u.Name
	}
	return out
}

func goodPath(username string, id int64) string {
	return fmt.Sprintf("/users/%s/goods/%d", username, id)
}

func matchesFilters(p Product, q url.Values) bool {
	if prices := q["price_category_id"]; len(prices) > 0 && !slices.Contains(prices, strconv.Itoa(p.PriceCategory)) {
		return false
	}
	if genders := q["gender"]; len(genders) > 0 && !slices.Contains(genders, p.Gender) {
		return false
	}
	if categories := q["category"]; len(categories) > 0 && !slices.Contains(categories, p.Category) {
		return false
	}
	return true
}

func limitOf(q url.Values) int {
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit < 1 {
		return 20
	}
	return limit
}

// pageByID applies max_id and since_id to items sorted newest first, then limit
func pageByID[T any](items []T, q url.Values, id func(T) int64) []T {
	var out []T
	maxID, hasMax := parseID(q.Get("max_id"))
	sinceID, hasSince := parseID(q.Get("since_id"))
	for _, item := range items {
		if hasMax && id(item) >= maxID {
			continue
		}
		if hasSince && id(item) <= sinceID {
			continue
		}
		out = append(out, item)
	}
	if q.Get("page") != "" {
		return out
	}
	return window(out, 0, limitOf(q))
}

// pageByIndex applies a 1-based page parameter, if present
func pageByIndex[T any](items []T, q url.Values) []T {
	if q.Get("page") == "" {
		return items
	}
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit := limitOf(q)
	return window(items, (page-1)*limit, limit)
}

func window[T any](items []T, skip, limit int) []T {
	if skip >= len(items) {
		return nil
	}
	items = items[skip:]
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

func parseID(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil
}
