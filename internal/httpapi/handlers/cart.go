package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/session"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/view"
)

type CartHandler struct{ s *session.Session }

func NewCartHandler(s *session.Session) *CartHandler { return &CartHandler{s: s} }

// refresh reloads the cart from the backend when ?refresh=1 is set.
func (h *CartHandler) refresh(r *http.Request) (session.CartState, error) {
	if r.URL.Query().Get("refresh") == "" {
		return h.s.CartState(), nil
	}
	return h.s.OnLoad(r.Context())
}

// Fragment renders the cart as HTML.
func (h *CartHandler) Fragment(w http.ResponseWriter, r *http.Request) {
	st, err := h.refresh(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = view.WriteCart(w, st.Cart, st.Pricing)
}

func (h *CartHandler) State(w http.ResponseWriter, r *http.Request) {
	st, err := h.refresh(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, st)
}

type addItemRequest struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	st, err := h.s.OnAddToCart(r.Context(), req.ProductID, req.Quantity)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, st)
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

// SetQuantity accepts the edit and answers before it reaches the backend.
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	lineID, err := lineParam(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var req quantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	if err := h.s.OnQuantityChange(lineID, req.Quantity); err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, h.s.CartState())
}

// Flush sends pending quantity edits now.
func (h *CartHandler) Flush(w http.ResponseWriter, r *http.Request) {
	st, err := h.s.FlushQuantities()
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, st)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	lineID, err := lineParam(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	st, err := h.s.OnRemove(r.Context(), lineID)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, st)
}

type couponRequest struct {
	Code string `json:"code"`
}

// ApplyCoupon takes {"code": ...} or a discount_code form field.
func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var code string
	if mediaType(r) == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			WriteError(w, r, apperr.Validation("discount_code", "Invalid form."))
			return
		}
		code = r.PostForm.Get("discount_code")
	} else {
		var req couponRequest
		if err := decodeJSON(w, r, &req); err != nil {
			WriteError(w, r, err)
			return
		}
		code = req.Code
	}

	st, err := h.s.OnApplyCoupon(r.Context(), code)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, st)
}

func lineParam(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, apperr.Validation("id", "Invalid cart item.")
	}
	return id, nil
}
