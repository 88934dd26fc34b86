package handlers

import (
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/session"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/view"
)

type ProductsHandler struct{ s *session.Session }

func NewProductsHandler(s *session.Session) *ProductsHandler { return &ProductsHandler{s: s} }

// List loads products. Query parameters:
//
//	sort=price-asc|price-desc|rating|newest  reload ordered
//	page=next|prev|<link>                    move between pages
//	category=<name>                          client-side filter ("" shows all)
//	format=html                              render the card grid
func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := r.Context()

	var (
		st  session.ProductsState
		err error
	)
	switch page := q.Get("page"); {
	case q.Get("sort") != "":
		st, err = h.s.OnSort(ctx, q.Get("sort"))
	case page == "next":
		st, err = h.s.OnNextPage(ctx)
	case page == "prev":
		st, err = h.s.OnPreviousPage(ctx)
	default:
		st, err = h.s.OnBrowse(ctx, page)
	}
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if q.Has("category") {
		st = h.s.OnFilter(q.Get("category"))
	}

	if q.Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = view.WriteProducts(w, st.Products)
		return
	}
	WriteJSON(w, http.StatusOK, st)
}
