package dto

import "net/http"

// Error codes follow ERR_<CATEGORY>_<DESCRIPTION>

// General
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeUpstream is used when the inventory backend failed or could not be reached
	ErrCodeUpstream = "ERR_UPSTREAM"
	ErrCodeTimeout  = "ERR_TIMEOUT"
)

// Validation
const (
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
)

// Authentication
const (
	ErrCodeUnauthorized   = "ERR_UNAUTHORIZED"
	ErrCodeForbidden      = "ERR_FORBIDDEN"
	ErrCodeSessionExpired = "ERR_SESSION_EXPIRED"
)

// Resources and business rules
const (
	ErrCodeNotFound          = "ERR_NOT_FOUND"
	ErrCodeInvalidState      = "ERR_INVALID_STATE"
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"
)

// Rate limiting and size
const (
	ErrCodeRateLimited     = "ERR_RATE_LIMITED"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Export
const (
	ErrCodeUnsupportedFormat = "ERR_UNSUPPORTED_FORMAT"
	ErrCodeRenderFailed      = "ERR_RENDER_FAILED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,
	ErrCodeUpstream: http.StatusBadGateway,
	ErrCodeTimeout:  http.StatusGatewayTimeout,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	ErrCodeUnauthorized:   http.StatusUnauthorized,
	ErrCodeForbidden:      http.StatusForbidden,
	ErrCodeSessionExpired: http.StatusUnauthorized,

	ErrCodeNotFound:          http.StatusNotFound,
	ErrCodeInvalidState:      http.StatusConflict,
	ErrCodeInsufficientStock: http.StatusUnprocessableEntity,

	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeUnsupportedFormat: http.StatusBadRequest,
	ErrCodeRenderFailed:      http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainCodes maps shared.DomainError codes onto API codes
var domainCodes = map[string]string{
	"NOT_FOUND":          ErrCodeNotFound,
	"INVALID_INPUT":      ErrCodeInvalidInput,
	"INVALID_STATE":      ErrCodeInvalidState,
	"UNAUTHORIZED":       ErrCodeUnauthorized,
	"FORBIDDEN":          ErrCodeForbidden,
	"SESSION_EXPIRED":    ErrCodeSessionExpired,
	"INSUFFICIENT_STOCK": ErrCodeInsufficientStock,
	"VALIDATION_ERROR":   ErrCodeValidation,
	"RENDER_TIMEOUT":     ErrCodeRenderFailed,
	"RENDER_FAILED":      ErrCodeRenderFailed,
	"INVALID_HTML":       ErrCodeRenderFailed,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format, and unknown codes, are returned as-is.
func NormalizeErrorCode(code string) string {
	if c, ok := domainCodes[code]; ok {
		return c
	}
	return code
}
