package handlers

import (
	"hotelbook/internal/metrics"
	"hotelbook/internal/middleware"
	"hotelbook/internal/models"

	"github.com/gin-gonic/gin"
)

// Register mounts every route on r.
func (h *Handlers) Register(r gin.IRouter, auth *middleware.Authenticator) {
	r.GET("/health", h.Health)
	r.GET("/metrics", metrics.Handler())

	optional := auth.Authenticate(false)
	required := auth.Authenticate(true)

	booking := r.Group("/booking")
	{
		booking.GET("/availability", h.Availability)
		booking.GET("/rooms/:id/bookings", h.PropertySchedule(models.PropertyRoom))
		booking.GET("/areas/:id/bookings", h.PropertySchedule(models.PropertyArea))
		booking.GET("/rooms/:id/reviews", h.PropertyReviews(models.PropertyRoom))
		booking.GET("/areas/:id/reviews", h.PropertyReviews(models.PropertyArea))
		booking.GET("/reviews/:id", h.GetReview)

		booking.POST("/bookings", optional, h.CreateBooking)

		paymongo := booking.Group("/paymongo")
		{
			paymongo.POST("/webhook", h.Webhook)
			paymongo.GET("/sources/:id/verify", h.VerifySource)
			paymongo.GET("/redirect/success", h.PaymentRedirect("success"))
			paymongo.GET("/redirect/failed", h.PaymentRedirect("failed"))
			paymongo.POST("/create-without-booking", required, h.CreatePrebookingSource)
		}

		authed := booking.Group("", required)
		{
			authed.GET("/bookings", h.ListBookings)
			authed.GET("/bookings/:id", h.GetBooking)
			authed.PATCH("/bookings/:id", h.UpdateBooking)
			authed.POST("/bookings/:id/cancel", h.CancelBooking)
			authed.GET("/bookings/:id/reviews", h.ListBookingReviews)
			authed.POST("/bookings/:id/reviews", h.CreateReview)
			authed.POST("/bookings/:id/paymongo/create", h.CreateSource)
			authed.GET("/bookings/:id/transactions", h.ListTransactions)
			authed.GET("/user/bookings", h.ListUserBookings)
			authed.GET("/user/reviews", h.ListUserReviews)
			authed.PUT("/reviews/:id", h.UpdateReview)
			authed.DELETE("/reviews/:id", h.DeleteReview)
		}
	}

	notifications := r.Group("/notifications", required)
	{
		notifications.GET("", h.ListNotifications)
		notifications.GET("/unread-count", h.UnreadCount)
		notifications.PATCH("/read-all", h.MarkAllNotificationsRead)
		notifications.PATCH("/:id/read", h.MarkNotificationRead)
		notifications.POST("/devices", h.RegisterDevice)
		notifications.DELETE("/devices/:token", h.UnregisterDevice)
	}

	r.POST("/realtime/auth", required, h.RealtimeAuth)

	admin := r.Group("/admin", required, middleware.RequireStaff())
	{
		admin.GET("/bookings/active-count", h.ActiveCount)
		admin.PATCH("/bookings/:id/status", h.UpdateBookingStatus)
	}
}
