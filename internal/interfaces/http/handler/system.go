package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stockmgmt/dashboard/internal/application/session"
	"github.com/stockmgmt/dashboard/internal/interfaces/http/dto"
)

// SessionStater reports the gate state for health output
type SessionStater interface {
	State() session.State
}

// SystemHandler serves health and version endpoints
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	gate      SessionStater
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler. gate may be nil.
func NewSystemHandler(name, version string, gate SessionStater) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		gate:      gate,
		startTime: time.Now(),
	}
}

// HealthResponse is the /health body
type HealthResponse struct {
	Status    string        `json:"status"`
	Name      string        `json:"name"`
	Version   string        `json:"version"`
	GoVersion string        `json:"go_version"`
	Uptime    string        `json:"uptime"`
	Session   session.State `json:"session,omitempty"`
}

// Health reports liveness, version and the session state
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	if h.gate != nil {
		resp.Session = h.gate.State()
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// PingResponse is the /ping body
type PingResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Ping answers pong
func (h *SystemHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(PingResponse{
		Message:   "pong",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}))
}
