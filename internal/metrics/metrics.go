package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotelbook_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hotelbook_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	bookingTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotelbook_booking_transitions_total",
			Help: "Booking status changes by target status",
		},
		[]string{"status"},
	)

	paymentEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotelbook_payment_events_total",
			Help: "Gateway payment events by type and outcome",
		},
		[]string{"event", "outcome"},
	)

	notificationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotelbook_notification_failures_total",
			Help: "Notification sink deliveries that failed",
		},
		[]string{"sink"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(bookingTransitionsTotal)
	prometheus.MustRegister(paymentEventsTotal)
	prometheus.MustRegister(notificationFailuresTotal)
}

// Middleware records request counts and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func RecordTransition(status string) {
	bookingTransitionsTotal.WithLabelValues(status).Inc()
}

// RecordPaymentEvent counts an event by outcome: applied, duplicate, ignored, rejected or error.
func RecordPaymentEvent(event, outcome string) {
	paymentEventsTotal.WithLabelValues(event, outcome).Inc()
}

func RecordNotificationFailure(sink string) {
	notificationFailuresTotal.WithLabelValues(sink).Inc()
}
