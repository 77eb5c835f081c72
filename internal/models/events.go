package models

import "time"

// NATS subjects
const (
	EventBookingChanged    = "booking.changed"
	EventPaymentReconciled = "payment.reconciled"
)

// BookingChangedEvent is published after every committed status change,
// including creation (Previous empty).
type BookingChangedEvent struct {
	BookingID    int64         `json:"booking_id"`
	UserID       int64         `json:"user_id"`
	PropertyKind PropertyKind  `json:"property_kind"`
	PropertyID   int64         `json:"property_id"`
	Previous     BookingStatus `json:"previous,omitempty"`
	Current      BookingStatus `json:"current"`
	Timestamp    time.Time     `json:"timestamp"`
}

type PaymentReconciledEvent struct {
	BookingID     int64         `json:"booking_id"`
	SourceID      string        `json:"source_id"`
	EventType     string        `json:"event_type"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Created       bool          `json:"created"`
	Timestamp     time.Time     `json:"timestamp"`
}
