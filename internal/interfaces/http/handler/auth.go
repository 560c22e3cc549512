package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/stockmgmt/dashboard/internal/application/appstate"
	"github.com/stockmgmt/dashboard/internal/application/session"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
	"github.com/stockmgmt/dashboard/internal/interfaces/http/dto"
)

// SessionResponse is the session as the dashboard sees it
type SessionResponse struct {
	State         session.State `json:"state"`
	Authenticated bool          `json:"authenticated"`
	User          *stock.User   `json:"user,omitempty"`
	Permissions   []string      `json:"permissions,omitempty"`
}

// AuthHandler drives the session gate
type AuthHandler struct {
	BaseHandler
	gate   SessionGate
	notify Notifier
}

// NewAuthHandler creates an AuthHandler. notify may be nil.
func NewAuthHandler(gate SessionGate, notify Notifier) *AuthHandler {
	return &AuthHandler{gate: gate, notify: notify}
}

// Login signs in against the inventory backend
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	user, err := h.gate.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if h.notify != nil {
		h.notify.Push(appstate.LevelSuccess, "Signed in as "+user.Username, 0)
	}
	h.Success(c, h.session())
}

// Logout ends the session. It always succeeds locally.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.gate.Logout(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Status reports the current session without contacting the backend
func (h *AuthHandler) Status(c *gin.Context) {
	h.Success(c, h.session())
}

func (h *AuthHandler) session() SessionResponse {
	access := h.gate.AccessState()
	return SessionResponse{
		State:         h.gate.State(),
		Authenticated: access.IsAuthenticated,
		User:          h.gate.User(),
		Permissions:   access.Permissions,
	}
}
