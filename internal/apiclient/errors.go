package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/mcoot/tournax/internal/model"
)

// APIError is a non-2xx backend response other than 401
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned HTTP %d", e.Status)
	}
	return fmt.Sprintf("backend returned HTTP %d: %s", e.Status, e.Message)
}

// TokenRejectedError reports a 401 from the backend. It matches
// model.ErrTokenRejected with errors.Is.
type TokenRejectedError struct {
	Method string
	Path   string
	// Invalidated is true when the rejected token was the live session token
	Invalidated bool
}

func (e *TokenRejectedError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, model.ErrTokenRejected)
}

func (e *TokenRejectedError) Unwrap() error {
	return model.ErrTokenRejected
}

// errorBody covers the shapes the backend uses for error payloads
type errorBody struct {
	Message string `json:"message"`
	Error   any    `json:"error"`
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var payload errorBody
	if err := json.Unmarshal(body, &payload); err == nil {
		switch v := payload.Error.(type) {
		case string:
			apiErr.Message = v
		case map[string]any:
			if msg, ok := v["message"].(string); ok {
				apiErr.Message = msg
			}
		}
		if payload.Message != "" {
			apiErr.Message = payload.Message
		}
		return apiErr
	}

	text := strings.TrimSpace(string(body))
	text = truncate(text, maxMessageLen)
	if text == "" {
		text = http.StatusText(status)
	}
	apiErr.Message = text
	return apiErr
}

// maxMessageLen bounds a message taken from a non-JSON error body
const maxMessageLen = 200

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
