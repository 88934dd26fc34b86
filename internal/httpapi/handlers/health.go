package handlers

import (
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/session"
)

type HealthHandler struct{ s *session.Session }

func NewHealthHandler(s *session.Session) *HealthHandler { return &HealthHandler{s: s} }

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	backend := h.s.Health(r.Context())
	status := "ok"
	if !backend.OK {
		status = "degraded"
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":  status,
		"service": "storefront",
		"backend": backend,
	})
}

func (h *HealthHandler) Notices(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"notices": h.s.Notices().List()})
}
