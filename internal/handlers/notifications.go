package handlers

import (
	"io"
	"net/http"
	"strconv"

	apperrors "hotelbook/internal/errors"
	"hotelbook/internal/middleware"
	"hotelbook/internal/models"

	"github.com/gin-gonic/gin"
)

// ListNotifications - GET /notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	items, err := h.services.Notifications.List(c.Request.Context(), middleware.ActorFrom(c), page)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

// UnreadCount - GET /notifications/unread-count
func (h *Handlers) UnreadCount(c *gin.Context) {
	n, err := h.services.Notifications.UnreadCount(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

// MarkNotificationRead - PATCH /notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	if err := h.services.Notifications.MarkRead(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkAllNotificationsRead - PATCH /notifications/read-all
func (h *Handlers) MarkAllNotificationsRead(c *gin.Context) {
	n, err := h.services.Notifications.MarkAllRead(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

// RegisterDevice - POST /notifications/devices
func (h *Handlers) RegisterDevice(c *gin.Context) {
	var req models.RegisterDeviceRequest
	if !h.bind(c, &req) {
		return
	}
	token, err := h.services.Notifications.RegisterDevice(c.Request.Context(), middleware.ActorFrom(c), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, token)
}

// UnregisterDevice - DELETE /notifications/devices/:token
func (h *Handlers) UnregisterDevice(c *gin.Context) {
	if err := h.services.Notifications.UnregisterDevice(c.Request.Context(), middleware.ActorFrom(c), c.Param("token")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RealtimeAuth - POST /realtime/auth
// The realtime client posts socket_id and channel_name as a form.
func (h *Handlers) RealtimeAuth(c *gin.Context) {
	if h.opts.Realtime == nil {
		h.fail(c, apperrors.NewNotFound("realtime_disabled", "realtime channels are not configured"))
		return
	}
	params, err := io.ReadAll(io.LimitReader(c.Request.Body, 4096))
	if err != nil {
		h.fail(c, apperrors.NewValidation("invalid_body", "failed to read request body"))
		return
	}
	resp, err := h.opts.Realtime.AuthorizePrivateChannel(middleware.ActorFrom(c).UserID, params)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", resp)
}
