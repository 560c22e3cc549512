package handler

import (
	"github.com/gin-gonic/gin"
)

// NotificationHandler exposes the notification queue
type NotificationHandler struct {
	BaseHandler
	queue NotificationQueue
}

// NewNotificationHandler creates a NotificationHandler
func NewNotificationHandler(queue NotificationQueue) *NotificationHandler {
	return &NotificationHandler{queue: queue}
}

// List returns the pending notifications, oldest first
func (h *NotificationHandler) List(c *gin.Context) {
	h.Success(c, h.queue.List())
}

// Dismiss removes a notification before it expires
func (h *NotificationHandler) Dismiss(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if !h.queue.Dismiss(id) {
		h.NotFound(c, "Notification not found")
		return
	}
	h.NoContent(c)
}
