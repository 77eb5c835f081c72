package handlers

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	apperrors "hotelbook/internal/errors"
	"hotelbook/internal/logger"
	"hotelbook/internal/middleware"
	"hotelbook/internal/models"
	"hotelbook/internal/reconcile"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxWebhookBody = 1 << 20

// CreateSource - POST /booking/bookings/:id/paymongo/create
func (h *Handlers) CreateSource(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var req models.CreateSourceRequest
	if c.Request.ContentLength != 0 && !h.bind(c, &req) {
		return
	}
	resp, err := h.services.Payments.CreateSourceForBooking(c.Request.Context(), middleware.ActorFrom(c), id, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// CreatePrebookingSource - POST /booking/paymongo/create-without-booking
func (h *Handlers) CreatePrebookingSource(c *gin.Context) {
	var req models.CreatePrebookingSourceRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.services.Payments.CreatePrebookingSource(c.Request.Context(), middleware.ActorFrom(c), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// VerifySource - GET /booking/paymongo/sources/:id/verify
func (h *Handlers) VerifySource(c *gin.Context) {
	resp, err := h.services.Payments.Verify(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Webhook - POST /booking/paymongo/webhook
// Failures answer non-2xx so the gateway retries the delivery.
func (h *Handlers) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		h.fail(c, apperrors.NewValidation("malformed_payload", "failed to read webhook body"))
		return
	}

	if h.opts.WebhookSecret != "" {
		if err := reconcile.VerifySignature(c.GetHeader(reconcile.SignatureHeader), body, h.opts.WebhookSecret); err != nil {
			h.fail(c, err)
			return
		}
	}

	ev, err := reconcile.ParseWebhook(body)
	if err != nil {
		h.fail(c, err)
		return
	}

	logger.WithContext(c.Request.Context()).Info("Payment webhook received",
		"event_type", ev.Type,
		"resource_id", ev.ResourceID,
		"source_id", ev.SourceID)

	result, err := h.services.Reconciler.Apply(c.Request.Context(), ev)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "applied": result.Applied})
}

// PaymentRedirect serves the success and failed landing pages the gateway
// sends the payer back to. With return_to set the payer is forwarded to
// the app; otherwise the outcome is returned as JSON.
func (h *Handlers) PaymentRedirect(status string) gin.HandlerFunc {
	return func(c *gin.Context) {
		params := url.Values{}
		params.Set("status", status)
		params.Set("temp_ref", uuid.NewString())
		if id := c.Query("booking_id"); id != "" {
			params.Set("booking_id", id)
		}
		if amount := c.Query("amount"); amount != "" {
			params.Set("amount", amount)
		}

		returnTo := c.Query("return_to")
		if returnTo == "" {
			out := gin.H{}
			for k := range params {
				out[k] = params.Get(k)
			}
			c.JSON(http.StatusOK, out)
			return
		}

		if !safeReturnTo(returnTo) {
			h.fail(c, apperrors.NewFieldValidation("return_to", "must be an http(s) URL or path"))
			return
		}
		sep := "?"
		if strings.Contains(returnTo, "?") {
			sep = "&"
		}
		c.Redirect(http.StatusFound, returnTo+sep+params.Encode())
	}
}

// safeReturnTo accepts absolute http(s) URLs and site-relative paths.
// Protocol-relative targets such as //host/x are refused.
func safeReturnTo(raw string) bool {
	if strings.Contains(raw, "\\") {
		return false
	}
	target, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch target.Scheme {
	case "http", "https":
		return target.Host != ""
	case "":
		return target.Host == "" && strings.HasPrefix(target.Path, "/") && !strings.HasPrefix(raw, "//")
	}
	return false
}

// ListTransactions - GET /booking/bookings/:id/transactions
func (h *Handlers) ListTransactions(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	txs, err := h.services.Payments.Transactions(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": txs})
}
