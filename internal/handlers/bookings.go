package handlers

import (
	"net/http"

	"hotelbook/internal/availability"
	"hotelbook/internal/middleware"
	"hotelbook/internal/models"

	"github.com/gin-gonic/gin"
)

// Availability - GET /booking/availability
func (h *Handlers) Availability(c *gin.Context) {
	arrival, departure := c.Query("arrival"), c.Query("departure")
	requested, err := availability.RequestedRange(arrival, departure)
	if err != nil {
		h.fail(c, err)
		return
	}

	listing, err := h.services.Availability.FreeProperties(c.Request.Context(), requested, c.Query("q"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, models.AvailabilityResponse{
		Arrival:   arrival,
		Departure: departure,
		Rooms:     listing.Rooms,
		Areas:     listing.Areas,
	})
}

// PropertySchedule serves GET /booking/rooms/:id/bookings and
// GET /booking/areas/:id/bookings.
func (h *Handlers) PropertySchedule(kind models.PropertyKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.idParam(c, "id")
		if !ok {
			return
		}
		bookings, err := h.services.Bookings.Schedule(c.Request.Context(), kind, id, c.Query("start_date"), c.Query("end_date"))
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": bookings})
	}
}

// CreateBooking - POST /booking/bookings
func (h *Handlers) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if !h.bind(c, &req) {
		return
	}

	booking, err := h.services.Bookings.Create(c.Request.Context(), middleware.ActorFrom(c), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// ListBookings - GET /booking/bookings
func (h *Handlers) ListBookings(c *gin.Context) {
	page, pageSize := pageParams(c)
	resp, err := h.services.Bookings.List(c.Request.Context(), middleware.ActorFrom(c), c.Query("status"), page, pageSize)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListUserBookings - GET /booking/user/bookings
func (h *Handlers) ListUserBookings(c *gin.Context) {
	page, pageSize := pageParams(c)
	resp, err := h.services.Bookings.ListForUser(c.Request.Context(), middleware.ActorFrom(c), c.Query("status"), page, pageSize)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetBooking - GET /booking/bookings/:id
func (h *Handlers) GetBooking(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	booking, err := h.services.Bookings.Get(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// UpdateBooking - PATCH /booking/bookings/:id
func (h *Handlers) UpdateBooking(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateBookingRequest
	if !h.bind(c, &req) {
		return
	}
	booking, err := h.services.Bookings.Update(c.Request.Context(), middleware.ActorFrom(c), id, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// CancelBooking - POST /booking/bookings/:id/cancel
func (h *Handlers) CancelBooking(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var req models.CancelBookingRequest
	if !h.bind(c, &req) {
		return
	}
	booking, err := h.services.Bookings.Cancel(c.Request.Context(), middleware.ActorFrom(c), id, req.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// UpdateBookingStatus - PATCH /admin/bookings/:id/status
func (h *Handlers) UpdateBookingStatus(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateStatusRequest
	if !h.bind(c, &req) {
		return
	}
	status, _ := models.ParseBookingStatus(req.Status)
	booking, err := h.services.Bookings.Transition(c.Request.Context(), middleware.ActorFrom(c), id, status, req.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// ActiveCount - GET /admin/bookings/active-count
func (h *Handlers) ActiveCount(c *gin.Context) {
	n, err := h.services.Bookings.ActiveCount(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}
