package handlers

import (
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/review"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/session"
)

type ReviewHandler struct{ s *session.Session }

func NewReviewHandler(s *session.Session) *ReviewHandler { return &ReviewHandler{s: s} }

func (h *ReviewHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req review.Request
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	resp, err := h.s.OnReviewSubmit(r.Context(), req)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, resp)
}

// Form reports the comment box: what is typed, the counter and whether the
// shopper is near the limit.
func (h *ReviewHandler) Form(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.s.ReviewState())
}

type reviewInput struct {
	Comment string `json:"comment"`
}

func (h *ReviewHandler) Input(w http.ResponseWriter, r *http.Request) {
	var req reviewInput
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.s.OnReviewInput(req.Comment))
}
