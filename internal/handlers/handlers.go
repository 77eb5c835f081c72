package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"hotelbook/internal/database"
	apperrors "hotelbook/internal/errors"
	"hotelbook/internal/logger"
	"hotelbook/internal/service"
	"hotelbook/internal/validation"

	"github.com/gin-gonic/gin"
)

// ChannelAuthorizer signs private realtime channel subscriptions.
type ChannelAuthorizer interface {
	AuthorizePrivateChannel(userID int64, params []byte) ([]byte, error)
}

// HealthChecker reports database health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) database.HealthCheck
}

type Options struct {
	// WebhookSecret enables signature checks on the payment webhook.
	WebhookSecret string
	Realtime      ChannelAuthorizer
	Health        HealthChecker
}

type Handlers struct {
	services *service.Services
	opts     Options
}

func NewHandlers(services *service.Services, opts Options) *Handlers {
	return &Handlers{services: services, opts: opts}
}

// fail renders err with the status its kind maps to. Internal errors are
// logged and rendered without detail.
func (h *Handlers) fail(c *gin.Context, err error) {
	_ = c.Error(err)

	var gw *apperrors.GatewayError
	if errors.As(err, &gw) {
		logger.WithContext(c.Request.Context()).Error("Payment gateway request failed",
			"error", err,
			"gateway_status", gw.Status,
			"path", c.FullPath())
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "Payment gateway error", "code": "gateway_error"})
		return
	}

	appErr, ok := apperrors.As(err)
	if !ok || appErr.Kind == apperrors.KindInternal {
		logger.WithContext(c.Request.Context()).Error("Request failed",
			"error", err,
			"method", c.Request.Method,
			"path", c.FullPath())
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": "internal"})
		return
	}

	body := gin.H{"error": appErr.Message, "code": appErr.Code}
	if len(appErr.Fields) > 0 {
		body["fields"] = appErr.Fields
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus(), body)
}

// bind decodes the JSON body into dst and reports binding failures.
func (h *Handlers) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.fail(c, validation.BindError(err))
		return false
	}
	return true
}

func (h *Handlers) idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		h.fail(c, apperrors.NewFieldValidation(name, "must be a positive integer"))
		return 0, false
	}
	return id, true
}

func pageParams(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "10"))
	return page, pageSize
}

// Health - GET /health
func (h *Handlers) Health(c *gin.Context) {
	if h.opts.Health == nil {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		return
	}
	check := h.opts.Health.HealthCheck(c.Request.Context())
	status := http.StatusOK
	if check.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": check.Status, "database": check})
}
