package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/stockmgmt/dashboard/internal/application/session"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
	"github.com/stockmgmt/dashboard/internal/infrastructure/logger"
	"github.com/stockmgmt/dashboard/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// UsernameKey is the gin context key holding the signed-in username
const UsernameKey = "username"

// AccessSource supplies the session state route access is decided from
type AccessSource interface {
	AccessState() session.AccessState
	User() *stock.User
}

// Guard admits the request when session.CanAccess allows req. An anonymous
// caller gets 401, a signed-in caller without the role or permission 403.
func Guard(src AccessSource, req session.RouteRequirement, log *zap.Logger) gin.HandlerFunc {
	log = logger.OrNop(log)
	return func(c *gin.Context) {
		state := src.AccessState()
		if state.IsAuthenticated {
			if u := src.User(); u != nil {
				c.Set(UsernameKey, u.Username)
				ctx, _ := logger.WithUsername(c.Request.Context(), logger.FromContext(c.Request.Context()), u.Username)
				c.Request = c.Request.WithContext(ctx)
			}
		}

		if session.CanAccess(state, req) {
			c.Next()
			return
		}

		log.Warn("Access denied",
			zap.String("path", c.FullPath()),
			zap.String("method", c.Request.Method),
			zap.Bool("authenticated", state.IsAuthenticated),
			zap.String("role", string(state.Role)),
			zap.Strings("required_permissions", req.Permissions),
		)
		if !state.IsAuthenticated {
			abortWithError(c, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		abortWithError(c, dto.ErrCodeForbidden, "Access denied: insufficient permissions")
	}
}

// SessionErrorHandler reacts to errors that invalidate the session
type SessionErrorHandler interface {
	HandleError(ctx context.Context, err error) error
}

// SessionErrors passes every error a handler recorded with c.Error to h, so a
// 401 from the backend logs the dashboard out
func SessionErrors(h SessionErrorHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		for _, e := range c.Errors {
			_ = h.HandleError(c.Request.Context(), e.Err)
		}
	}
}
