// Package apperr holds the error taxonomy shared by every storefront component.
//
// Network-originating failures are split into NetworkError (the request never
// got an answer) and ServerError (an answer arrived but was not a success or
// could not be decoded). ValidationError covers input rejected locally or by
// the payment provider.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

type ServerError struct {
	Op      string
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: server error: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: server error (status %d): %s", e.Op, e.Status, e.Message)
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

func Validation(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

func IsServer(err error) bool {
	var se *ServerError
	return errors.As(err, &se)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Status returns the backend status carried by err, or 0.
func Status(err error) int {
	var se *ServerError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// UserMessage turns any error into the short notice shown to the shopper.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		ve *ValidationError
		se *ServerError
		ne *NetworkError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.As(err, &se):
		if se.Message != "" && se.Status >= 400 && se.Status < 500 {
			return se.Message
		}
		return "The shop is having trouble right now. Please try again."
	case errors.As(err, &ne):
		return "Network error. Check your connection and try again."
	default:
		return "Something went wrong. Please try again."
	}
}

// HTTPStatus maps err to the status the local UI server answers with.
func HTTPStatus(err error) int {
	switch {
	case IsValidation(err):
		return http.StatusBadRequest
	case IsServer(err), IsNetwork(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
