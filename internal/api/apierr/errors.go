package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/tournax/internal/apiclient"
	"github.com/mcoot/tournax/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAuthUnavailable    = "AUTH_UNAVAILABLE"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeSessionNotReady    = "SESSION_NOT_READY"
	CodeTokenRejected      = "TOKEN_REJECTED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeBackendError       = "BACKEND_ERROR"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	if he.status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// StatusOf returns the HTTP status WriteError would use for err
func StatusOf(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var backendErr *apiclient.APIError

	switch {
	// Session errors. Token rejection is checked first: a rejected request is
	// never reported as a plain backend failure.
	case errors.Is(err, model.ErrTokenRejected):
		return &httpError{http.StatusUnauthorized, APIError{CodeTokenRejected, "Session is no longer valid, please sign in again"}}
	case errors.Is(err, model.ErrSessionNotReady):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeSessionNotReady, "Session is still loading"}}
	case errors.Is(err, model.ErrNotAuthenticated):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}

	// Login errors
	case errors.Is(err, model.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid username or password"}}
	case errors.Is(err, model.ErrAuthTransport):
		return &httpError{http.StatusBadGateway, APIError{CodeAuthUnavailable, "Authentication service unavailable"}}

	// Backend errors
	case errors.As(err, &backendErr):
		switch backendErr.Status {
		case http.StatusNotFound:
			return &httpError{http.StatusNotFound, APIError{CodeNotFound, "Not found"}}
		case http.StatusForbidden:
			return &httpError{http.StatusForbidden, APIError{CodeForbidden, "Not allowed"}}
		case http.StatusBadRequest:
			return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, backendErr.Message}}
		default:
			return &httpError{http.StatusBadGateway, APIError{CodeBackendError, "Tournament backend error"}}
		}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
