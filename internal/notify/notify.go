package notify

import (
	"context"
	"fmt"
	"strconv"

	"hotelbook/internal/logger"
	"hotelbook/internal/metrics"
	"hotelbook/internal/models"
)

const (
	AdminChannel = "admin-notifications"

	EventActiveCount    = "active-count-update"
	EventBookingChanged = "booking-changed"
	EventBookingUpdate  = "booking-update"
)

// UserChannel is the private realtime channel of one user.
func UserChannel(userID int64) string {
	return "private-user-" + strconv.FormatInt(userID, 10)
}

type ChangeKind string

const (
	KindCreated  ChangeKind = "created"
	KindStatus   ChangeKind = "status_changed"
	KindPayment  ChangeKind = "payment"
	KindUpdated  ChangeKind = "updated"
	KindReminder ChangeKind = "reminder"
)

// Change describes one booking mutation after it was committed.
type Change struct {
	Booking      models.Booking
	PropertyName string
	Previous     models.BookingStatus
	Current      models.BookingStatus
	Kind         ChangeKind
}

func (c Change) propertyName() string {
	if c.PropertyName != "" {
		return c.PropertyName
	}
	if c.Booking.PropertyName != "" {
		return c.Booking.PropertyName
	}
	return "your booking"
}

// Message is the contract shared by the stored notification, the realtime
// payload and the mobile push.
type Message struct {
	Type  string            `json:"type"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data"`
}

var statusTemplates = map[models.BookingStatus]struct{ title, body string }{
	models.StatusPending:    {"Booking received", "Your booking for %s was received and is awaiting confirmation."},
	models.StatusReserved:   {"Booking confirmed", "Your booking for %s has been confirmed."},
	models.StatusConfirmed:  {"Booking confirmed", "Your booking for %s is confirmed."},
	models.StatusCheckedIn:  {"Checked in", "You have checked in to %s. Enjoy your stay!"},
	models.StatusCheckedOut: {"Checked out", "You have checked out of %s. Thank you for staying with us."},
	models.StatusCancelled:  {"Booking cancelled", "Your booking for %s has been cancelled."},
	models.StatusRejected:   {"Booking rejected", "Your booking for %s was not accepted."},
	models.StatusNoShow:     {"Missed reservation", "Your reservation for %s was marked as missed."},
}

// Render builds the user-facing message for a change.
func Render(c Change) Message {
	data := map[string]string{
		"booking_id":     strconv.FormatInt(c.Booking.ID, 10),
		"status":         string(c.Current),
		"payment_status": string(c.Booking.PaymentStatus),
		"check_in_date":  c.Booking.CheckInDate.Format("2006-01-02"),
		"check_out_date": c.Booking.CheckOutDate.Format("2006-01-02"),
	}

	switch c.Kind {
	case KindPayment:
		if c.Booking.PaymentStatus == models.PaymentFailed {
			return Message{Type: "payment_failed", Title: "Payment failed", Body: fmt.Sprintf("The payment for %s did not go through.", c.propertyName()), Data: data}
		}
		return Message{Type: "payment_received", Title: "Payment received", Body: fmt.Sprintf("We received your payment for %s.", c.propertyName()), Data: data}
	case KindReminder:
		return Message{Type: models.NotificationCheckinReminder, Title: "Check-in today", Body: fmt.Sprintf("Your stay at %s starts today.", c.propertyName()), Data: data}
	case KindUpdated:
		return Message{Type: "booking_update", Title: "Booking updated", Body: fmt.Sprintf("Your booking for %s was updated.", c.propertyName()), Data: data}
	}

	tpl, ok := statusTemplates[c.Current]
	if !ok {
		return Message{Type: "booking_update", Title: "Booking updated", Body: fmt.Sprintf("Your booking for %s was updated.", c.propertyName()), Data: data}
	}
	return Message{Type: "booking_" + string(c.Current), Title: tpl.title, Body: fmt.Sprintf(tpl.body, c.propertyName()), Data: data}
}

// Sink delivers a change to one audience.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, c Change) error
}

// Policy controls which changes reach guest-facing sinks.
type Policy struct {
	// SuppressPending skips guest-facing delivery for changes into pending.
	SuppressPending bool
}

func (p Policy) allowsUser(c Change) bool {
	if c.Kind != KindCreated && c.Kind != KindStatus {
		return true
	}
	return !(p.SuppressPending && c.Current == models.StatusPending)
}

type registered struct {
	sink       Sink
	userFacing bool
}

// Fanout delivers each change to every sink. Sink failures are logged and
// counted and never stop the other sinks.
type Fanout struct {
	policy Policy
	sinks  []registered
}

func NewFanout(policy Policy) *Fanout {
	return &Fanout{policy: policy}
}

// WithAdmin registers a sink that sees every change.
func (f *Fanout) WithAdmin(s Sink) *Fanout {
	if s != nil {
		f.sinks = append(f.sinks, registered{sink: s})
	}
	return f
}

// WithUser registers a guest-facing sink subject to the policy.
func (f *Fanout) WithUser(s Sink) *Fanout {
	if s != nil {
		f.sinks = append(f.sinks, registered{sink: s, userFacing: true})
	}
	return f
}

// Publish returns the names of sinks that failed.
func (f *Fanout) Publish(ctx context.Context, c Change) []string {
	var failed []string
	for _, r := range f.sinks {
		if r.userFacing && !f.policy.allowsUser(c) {
			continue
		}
		if err := r.sink.Deliver(ctx, c); err != nil {
			failed = append(failed, r.sink.Name())
			metrics.RecordNotificationFailure(r.sink.Name())
			logger.WithContext(ctx).Error("Notification sink failed",
				"sink", r.sink.Name(),
				"booking_id", c.Booking.ID,
				"status", c.Current,
				"error", err)
		}
	}
	return failed
}
