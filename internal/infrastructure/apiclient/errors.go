package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stockmgmt/dashboard/internal/domain/shared"
)

// Sentinel errors. ErrNotFound and ErrUnauthorized are the domain sentinels so
// services can test backend failures without importing this package.
var (
	ErrRequestFailed   = errors.New("apiclient: request failed")
	ErrInvalidResponse = errors.New("apiclient: invalid response")
	ErrNotFound        = shared.ErrNotFound
	ErrUnauthorized    = shared.ErrUnauthorized
)

// HTTPError is returned for every non-2xx response
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	msg := e.Detail()
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, msg)
}

// Detail extracts the backend's error message from the body. The backend
// answers {"detail": "..."}; validation failures carry a list of objects
// with a "msg" field. Anything else is returned as trimmed text.
func (e *HTTPError) Detail() string {
	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal([]byte(e.Body), &envelope); err != nil {
		return strings.TrimSpace(e.Body)
	}

	var s string
	if json.Unmarshal(envelope.Detail, &s) == nil && s != "" {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(envelope.Detail, &items) == nil && len(items) > 0 {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return envelope.Message
}

// Is maps status codes onto the domain sentinels
func (e *HTTPError) Is(target error) bool {
	var de *shared.DomainError
	if !errors.As(target, &de) {
		return false
	}
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return de.Code == shared.ErrUnauthorized.Code
	case http.StatusForbidden:
		return de.Code == shared.ErrForbidden.Code
	case http.StatusNotFound:
		return de.Code == shared.ErrNotFound.Code
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return de.Code == shared.ErrInvalidInput.Code
	}
	return false
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}
