// Package httpapi is the local UI server: it exposes the session's command
// handlers over HTTP for a browser front end.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/httpapi/handlers"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/session"
)

type Deps struct {
	Logger  *zap.Logger
	Origins []string
	Session *session.Session
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// outer -> inner
	r.Use(chimw.RequestID)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.Logging(d.Logger))
	r.Use(middleware.Recover(d.Logger))
	r.Use(middleware.CORS(d.Origins))

	health := handlers.NewHealthHandler(d.Session)
	r.Get("/health", health.Health)
	r.Get("/notices", health.Notices)

	cart := handlers.NewCartHandler(d.Session)
	r.Get("/cart", cart.Fragment)
	r.Get("/cart.json", cart.State)
	r.Post("/cart/items", cart.AddItem)
	r.Post("/cart/items/{id}/quantity", cart.SetQuantity)
	r.Delete("/cart/items/{id}", cart.RemoveItem)
	r.Post("/cart/flush", cart.Flush)
	r.Post("/cart/coupon", cart.ApplyCoupon)

	co := handlers.NewCheckoutHandler(d.Session)
	r.Get("/checkout", co.State)
	r.Post("/checkout/open", co.Open)
	r.Post("/checkout/submit", co.Submit)
	r.Post("/checkout/close", co.Close)

	products := handlers.NewProductsHandler(d.Session)
	r.Get("/products", products.List)

	reviews := handlers.NewReviewHandler(d.Session)
	r.Post("/reviews", reviews.Submit)
	r.Get("/reviews/form", reviews.Form)
	r.Post("/reviews/form", reviews.Input)

	return r
}
