// Package inventory holds the dashboard's domain services. Each service wraps
// a backend gateway with the derived computation the backend does not provide.
// Failures are logged with context and returned unchanged.
package inventory

import (
	"context"
	"strings"

	"github.com/stockmgmt/dashboard/internal/domain/shared"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
	"github.com/stockmgmt/dashboard/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ValidationError is returned when a payload fails the advisory client-side checks
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// Is lets errors.Is(err, shared.ErrInvalidInput) match
func (e *ValidationError) Is(target error) bool {
	return target == shared.ErrInvalidInput
}

func validationError(r stock.ValidationResult) error {
	if r.IsValid {
		return nil
	}
	return &ValidationError{Errors: r.Errors}
}

// fail logs err against op, with trace and request fields from ctx, and returns it unchanged
func fail(ctx context.Context, base *zap.Logger, op string, err error, fields ...zap.Field) error {
	fields = append(fields, zap.String("operation", op), zap.Error(err))
	logger.WithLogger(ctx, base).Error("Service operation failed", fields...)
	return err
}
