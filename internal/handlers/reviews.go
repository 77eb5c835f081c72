package handlers

import (
	"net/http"

	"hotelbook/internal/middleware"
	"hotelbook/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateReview - POST /booking/bookings/:id/reviews
func (h *Handlers) CreateReview(c *gin.Context) {
	bookingID, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var req models.ReviewRequest
	if !h.bind(c, &req) {
		return
	}
	review, err := h.services.Reviews.Create(c.Request.Context(), middleware.ActorFrom(c), bookingID, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

// ListBookingReviews - GET /booking/bookings/:id/reviews
func (h *Handlers) ListBookingReviews(c *gin.Context) {
	bookingID, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	reviews, err := h.services.Reviews.ListForBooking(c.Request.Context(), middleware.ActorFrom(c), bookingID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": reviews})
}

// ListUserReviews - GET /booking/user/reviews
func (h *Handlers) ListUserReviews(c *gin.Context) {
	reviews, err := h.services.Reviews.ListForUser(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": reviews})
}

// PropertyReviews serves GET /booking/rooms/:id/reviews and
// GET /booking/areas/:id/reviews.
func (h *Handlers) PropertyReviews(kind models.PropertyKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.idParam(c, "id")
		if !ok {
			return
		}
		reviews, err := h.services.Reviews.ListForProperty(c.Request.Context(), kind, id)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": reviews})
	}
}

// GetReview - GET /booking/reviews/:id
func (h *Handlers) GetReview(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	review, err := h.services.Reviews.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

// UpdateReview - PUT /booking/reviews/:id
func (h *Handlers) UpdateReview(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var req models.ReviewRequest
	if !h.bind(c, &req) {
		return
	}
	review, err := h.services.Reviews.Update(c.Request.Context(), middleware.ActorFrom(c), id, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

// DeleteReview - DELETE /booking/reviews/:id
func (h *Handlers) DeleteReview(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	if err := h.services.Reviews.Delete(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
