// Package handler holds the gin handlers of the dashboard server. Handlers
// bind and validate input, call one application service and render the
// standard response envelope.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stockmgmt/dashboard/internal/application/inventory"
	"github.com/stockmgmt/dashboard/internal/domain/shared"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
	"github.com/stockmgmt/dashboard/internal/infrastructure/apiclient"
	"github.com/stockmgmt/dashboard/internal/infrastructure/export"
	"github.com/stockmgmt/dashboard/internal/interfaces/http/dto"
	"github.com/stockmgmt/dashboard/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessPage sends one backend page with pagination meta
func SuccessPage[T any](c *gin.Context, page *stock.Page[T]) {
	if page == nil {
		page = &stock.Page[T]{}
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(page.List(), page.Total, page.Page, page.PerPage, page.Pages))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the given status
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// BindError answers a failed ShouldBind
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

// ParseID reads a uuid path parameter; it answers 400 and returns false when malformed
func (h *BaseHandler) ParseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name+": must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// HandleError renders err and records it on the gin context so the
// session middleware can react to authentication failures
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	status, body := errorResponse(err)
	body.Error.RequestID = middleware.GetRequestID(c)
	c.JSON(status, body)
}

// errorResponse maps err onto a status and envelope. Backend statuses pass
// through; a backend 5xx or transport failure becomes 502.
func errorResponse(err error) (int, dto.Response) {
	var verr *inventory.ValidationError
	if errors.As(err, &verr) {
		details := make([]dto.ValidationDetail, 0, len(verr.Errors))
		for _, msg := range verr.Errors {
			details = append(details, dto.ValidationDetail{Message: msg})
		}
		return http.StatusBadRequest, dto.NewValidationErrorResponse("Validation failed", "", details)
	}

	var herr *apiclient.HTTPError
	if errors.As(err, &herr) {
		msg := herr.Detail()
		if msg == "" {
			msg = http.StatusText(herr.StatusCode)
		}
		if herr.StatusCode >= http.StatusInternalServerError {
			return http.StatusBadGateway, dto.NewErrorResponse(dto.ErrCodeUpstream, "Inventory backend error: "+msg)
		}
		return herr.StatusCode, dto.NewErrorResponse(statusCode(herr.StatusCode), msg)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, dto.NewErrorResponse(dto.ErrCodeTimeout, "The request timed out")
	case errors.Is(err, apiclient.ErrRequestFailed), errors.Is(err, apiclient.ErrInvalidResponse):
		return http.StatusBadGateway, dto.NewErrorResponse(dto.ErrCodeUpstream, "Inventory backend unavailable")
	case errors.Is(err, export.ErrUnsupportedFormat):
		return http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeUnsupportedFormat, err.Error())
	case errors.Is(err, export.ErrRendererUnavailable):
		return http.StatusServiceUnavailable, dto.NewErrorResponse(dto.ErrCodeRenderFailed, "PDF export is not available")
	}

	var rerr *export.RenderError
	if errors.As(err, &rerr) {
		code := dto.NormalizeErrorCode(rerr.Code)
		return dto.GetHTTPStatus(code), dto.NewErrorResponse(code, rerr.Message)
	}

	var derr *shared.DomainError
	if errors.As(err, &derr) {
		code := dto.NormalizeErrorCode(derr.Code)
		return dto.GetHTTPStatus(code), dto.NewErrorResponse(code, err.Error())
	}

	return http.StatusInternalServerError, dto.NewErrorResponse(dto.ErrCodeInternal, "An unexpected error occurred")
}

func statusCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return dto.ErrCodeInvalidInput
	case http.StatusUnauthorized:
		return dto.ErrCodeUnauthorized
	case http.StatusForbidden:
		return dto.ErrCodeForbidden
	case http.StatusNotFound:
		return dto.ErrCodeNotFound
	case http.StatusConflict:
		return dto.ErrCodeInvalidState
	case http.StatusTooManyRequests:
		return dto.ErrCodeRateLimited
	}
	return "ERR_HTTP_" + strconv.Itoa(status)
}
