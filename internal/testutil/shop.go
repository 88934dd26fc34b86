package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const (
	ShopCSRFToken = "tok+en/1"
	shopPageSize  = 2
)

type ShopProduct struct {
	ID       int
	Name     string
	Brand    string
	Category string
	Price    decimal.Decimal
	Stock    int
	Rating   *float64
}

type shopLine struct {
	ID        int             `json:"id"`
	ProductID int             `json:"product"`
	Name      string          `json:"name"`
	Brand     string          `json:"brand"`
	Category  string          `json:"category"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type ShopOrder struct {
	ID              int
	Email           string
	Address         string
	PaymentIntentID string
	Lines           int
}

// Shop is an in-memory stand-in for the shop backend: cart, catalog, orders,
// coupons, reviews and a payment confirmation endpoint. Mutating requests must
// carry the CSRF token the root page sets.
type Shop struct {
	*httptest.Server

	mu       sync.Mutex
	products []ShopProduct
	lines    []shopLine
	nextLine int
	coupon   string
	orders   []ShopOrder
	reviews  int
	intents  int
	requests map[string]int
}

func NewShop(t *testing.T) *Shop {
	t.Helper()
	rating := 8.0
	s := &Shop{
		products: []ShopProduct{
			{ID: 1, Name: "Lamp", Brand: "Acme", Category: "Home", Price: decimal.NewFromInt(10), Stock: 5, Rating: &rating},
			{ID: 2, Name: "Mug", Brand: "Acme", Category: "Kitchen", Price: decimal.NewFromInt(5), Stock: 10},
			{ID: 3, Name: "Rake", Brand: "Gard", Category: "Garden", Price: decimal.NewFromInt(4), Stock: 0},
		},
		nextLine: 100,
		requests: map[string]int{},
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Shop) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.count, s.checkCSRF)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: strings.ReplaceAll(ShopCSRFToken, "/", "%2F"), Path: "/"})
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/cart/", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/api/cart/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.cartLines())
	})
	r.Post("/api/cart/add/", s.addToCart)
	r.Post("/api/cart/update/", s.updateCart)
	r.Delete("/api/cart/remove/{id}/", s.removeFromCart)

	r.Get("/api/products/", s.listProducts)
	r.Get("/api/categories/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string][]string{
			"categories":    {"Home", "Kitchen", "Garden"},
			"subcategories": {},
		})
	})

	r.Post("/orders/apply-coupon/", s.applyCoupon)
	r.Post("/orders/create-payment-intent/", s.createIntent)
	r.Post("/orders/complete-order/", s.completeOrder)
	r.Post("/orders/add-review/", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			OrderID   int `json:"order_id"`
			ProductID int `json:"product_id"`
			Rating    int `json:"rating"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == 0 || req.ProductID == 0 || req.Rating == 0 {
			writeError(w, http.StatusBadRequest, "Missing required fields")
			return
		}
		s.mu.Lock()
		s.reviews++
		id := s.reviews
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "review_id": id})
	})

	r.Post("/v1/payment_intents/{id}/confirm", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("payment_method") == "pm_card_chargeDeclined" {
			writeJSON(w, http.StatusPaymentRequired, map[string]any{"error": map[string]string{
				"type": "card_error", "code": "card_declined", "message": "Your card was declined.",
			}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": chi.URLParam(r, "id"), "status": "succeeded"})
	})
	return r
}

func (s *Shop) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[r.Method+" "+r.URL.Path]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Shop) checkCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || strings.HasPrefix(r.URL.Path, "/v1/") {
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get("X-CSRFToken") != ShopCSRFToken {
			writeJSON(w, http.StatusForbidden, map[string]string{"detail": "CSRF Failed: CSRF token missing."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Requests counts calls to "METHOD /path".
func (s *Shop) Requests(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[key]
}

func (s *Shop) Orders() []ShopOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ShopOrder(nil), s.orders...)
}

// SetCart replaces the server-side cart with quantity per product id.
func (s *Shop) SetCart(quantities map[int]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
	ids := make([]int, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		p, _ := s.product(id)
		s.nextLine++
		s.lines = append(s.lines, shopLine{ID: s.nextLine, ProductID: id, Name: p.Name, Brand: p.Brand, Category: p.Category, Price: p.Price, Quantity: quantities[id]})
	}
}

func (s *Shop) cartLines() []shopLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]shopLine{}, s.lines...)
}

func (s *Shop) product(id int) (ShopProduct, bool) {
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return ShopProduct{}, false
}

type itemRequest struct {
	ItemID   int `json:"item_id"`
	Quantity int `json:"quantity"`
}

func (s *Shop) addToCart(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	s.mu.Lock()
	p, ok := s.product(req.ItemID)
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	found := false
	for i := range s.lines {
		if s.lines[i].ProductID == p.ID {
			s.lines[i].Quantity += req.Quantity
			found = true
		}
	}
	if !found {
		s.nextLine++
		s.lines = append(s.lines, shopLine{ID: s.nextLine, ProductID: p.ID, Name: p.Name, Brand: p.Brand, Category: p.Category, Price: p.Price, Quantity: req.Quantity})
	}
	out := append([]shopLine{}, s.lines...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Shop) updateCart(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	s.mu.Lock()
	idx := -1
	for i := range s.lines {
		if s.lines[i].ID == req.ItemID {
			idx = i
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Item not found")
		return
	}
	p, _ := s.product(s.lines[idx].ProductID)
	if req.Quantity > p.Stock {
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, "Not enough stock")
		return
	}
	s.lines[idx].Quantity = req.Quantity
	out := append([]shopLine{}, s.lines...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"cart": out})
}

func (s *Shop) removeFromCart(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	s.mu.Lock()
	kept := s.lines[:0:0]
	for _, l := range s.lines {
		if l.ID != id {
			kept = append(kept, l)
		}
	}
	s.lines = kept
	out := append([]shopLine{}, s.lines...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"cart": out})
}

func (s *Shop) listProducts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	products := append([]ShopProduct(nil), s.products...)
	s.mu.Unlock()

	switch r.URL.Query().Get("ordering") {
	case "-price":
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price.GreaterThan(products[j].Price) })
	case "price":
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price.LessThan(products[j].Price) })
	case "-id":
		sort.SliceStable(products, func(i, j int) bool { return products[i].ID > products[j].ID })
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	start := (page - 1) * shopPageSize
	end := start + shopPageSize
	if start > len(products) {
		start = len(products)
	}
	if end > len(products) {
		end = len(products)
	}

	link := func(n int) any {
		q := r.URL.Query()
		q.Set("page", strconv.Itoa(n))
		return s.URL + "/api/products/?" + q.Encode()
	}
	var next, prev any
	if end < len(products) {
		next = link(page + 1)
	}
	if page > 1 {
		prev = link(page - 1)
	}

	results := make([]map[string]any, 0, end-start)
	for _, p := range products[start:end] {
		results = append(results, map[string]any{
			"id": p.ID, "name": p.Name, "brand": p.Brand, "category": p.Category,
			"price": p.Price.StringFixed(2), "stock": p.Stock, "average_rating": p.Rating,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(products), "next": next, "previous": prev, "results": results})
}

func (s *Shop) applyCoupon(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	code := strings.ToUpper(strings.TrimSpace(r.PostForm.Get("discount_code")))

	s.mu.Lock()
	switch code {
	case "SAVE10", "FREEBIE":
		s.coupon = code
	default:
		s.coupon = ""
	}
	s.mu.Unlock()

	http.Redirect(w, r, "/cart/", http.StatusFound)
}

type intentRequest struct {
	Cart []struct {
		Price    decimal.Decimal `json:"price"`
		Quantity int             `json:"quantity"`
	} `json:"cart"`
}

func (s *Shop) createIntent(w http.ResponseWriter, r *http.Request) {
	var req intentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Cart) == 0 {
		writeError(w, http.StatusBadRequest, "Empty cart")
		return
	}

	subtotal := decimal.Zero
	for _, l := range req.Cart {
		subtotal = subtotal.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	s.mu.Lock()
	coupon := s.coupon
	s.intents++
	n := s.intents
	s.mu.Unlock()

	discount := decimal.Zero
	switch coupon {
	case "SAVE10":
		discount = subtotal.Mul(decimal.NewFromFloat(0.1)).Round(2)
	case "FREEBIE":
		discount = subtotal
	}
	discounted := subtotal.Sub(discount)
	shipping := decimal.Zero
	if discounted.IsPositive() && discounted.LessThan(decimal.NewFromInt(300)) {
		shipping = discounted.Mul(decimal.NewFromFloat(0.1)).Round(2)
	}
	final := discounted.Add(shipping)

	resp := map[string]any{
		"subtotal":     subtotal.InexactFloat64(),
		"discount":     discount.InexactFloat64(),
		"shipping_fee": shipping.InexactFloat64(),
		"final_total":  final.InexactFloat64(),
	}
	if !final.IsPositive() {
		resp["freeOrder"] = true
	} else {
		resp["clientSecret"] = fmt.Sprintf("pi_%d_secret_test", n)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Shop) completeOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address         string            `json:"address"`
		Email           string            `json:"email"`
		Cart            []json.RawMessage `json:"cart"`
		PaymentIntentID string            `json:"paymentIntentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PaymentIntentID == "" {
		writeError(w, http.StatusBadRequest, "Missing payment intent")
		return
	}

	s.mu.Lock()
	o := ShopOrder{ID: len(s.orders) + 1, Email: req.Email, Address: req.Address, PaymentIntentID: req.PaymentIntentID, Lines: len(req.Cart)}
	s.orders = append(s.orders, o)
	s.lines = nil
	s.coupon = ""
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"order_id":       o.ID,
		"order_item_ids": []int{1},
		"discount":       0,
		"total_paid":     0,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
