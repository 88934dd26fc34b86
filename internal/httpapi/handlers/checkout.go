package handlers

import (
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/session"
)

type CheckoutHandler struct{ s *session.Session }

func NewCheckoutHandler(s *session.Session) *CheckoutHandler { return &CheckoutHandler{s: s} }

func (h *CheckoutHandler) Open(w http.ResponseWriter, r *http.Request) {
	st, err := h.s.OnCheckoutOpen(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, st)
}

func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var form checkout.Form
	if err := decodeJSON(w, r, &form); err != nil {
		WriteError(w, r, err)
		return
	}
	st, err := h.s.OnCheckoutSubmit(r.Context(), form)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, st)
}

func (h *CheckoutHandler) Close(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.s.OnCheckoutClose())
}

func (h *CheckoutHandler) State(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.s.CheckoutState())
}
