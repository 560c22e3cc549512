package export

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat   = errors.New("unsupported export format")
	ErrRendererUnavailable = errors.New("no PDF renderer configured")
	ErrNoDirectory         = errors.New("export directory is required")
)

// ExportError is the single error returned for a failed export. No file is
// left behind when it is returned.
type ExportError struct {
	Format Format
	Op     string
	Err    error
}

func (e *ExportError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("export: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("export %s: %s: %v", e.Format, e.Op, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

func exportError(format Format, op string, err error) error {
	var ee *ExportError
	if errors.As(err, &ee) {
		return err
	}
	return &ExportError{Format: format, Op: op, Err: err}
}

// Render error codes
const (
	ErrCodeRenderTimeout = "RENDER_TIMEOUT"
	ErrCodeRenderFailed  = "RENDER_FAILED"
	ErrCodeInvalidHTML   = "INVALID_HTML"
)

// RenderError represents a failure while turning HTML into PDF
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{Code: code, Message: message, Cause: cause}
}
