package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/listing"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/session"
)

const maxBodyBytes = 1 << 20

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError answers with the shopper-facing message for err.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	msg := session.UserMessage(err)
	if errors.Is(err, errUnsupportedMedia) {
		msg = "Request body must be application/json."
	}
	WriteJSON(w, statusFor(err), middleware.ErrorResponse{
		Error:         msg,
		CorrelationID: middleware.GetCorrelationID(r.Context()),
	})
}

var errUnsupportedMedia = errors.New("unsupported media type")

func statusFor(err error) int {
	switch {
	case errors.Is(err, errUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, checkout.ErrInFlight), errors.Is(err, checkout.ErrNotOpen), errors.Is(err, checkout.ErrAbandoned):
		return http.StatusConflict
	case errors.Is(err, listing.ErrNoPage):
		return http.StatusNotFound
	}
	return apperr.HTTPStatus(err)
}

// mediaType is the request's Content-Type without parameters, lower-cased.
func mediaType(r *http.Request) string {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	return mt
}

// decodeJSON only accepts application/json bodies, so a cross-site page
// cannot reach these routes with a preflight-free text/plain post.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if mediaType(r) != "application/json" {
		return errUnsupportedMedia
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return apperr.Validation("body", "Invalid request body.")
	}
	return nil
}
