package pos

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx answer from the POS API. Detail holds the message the
// server put in its body, if any.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("pos api: %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("pos api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// TransportError means the request never got an HTTP answer.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("pos api: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServerMessage returns the server-provided message carried by err, or "" when
// err is not an APIError or the server sent none.
func ServerMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

func IsTransport(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}

func newAPIError(status int, body []byte) *APIError {
	return &APIError{StatusCode: status, Detail: extractDetail(body)}
}

// extractDetail looks for "detail" first and "message" second, the two keys the
// API uses for human readable errors.
func extractDetail(body []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"detail", "message"} {
		if value, ok := payload[key].(string); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
