package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotelbook/internal/models"
)

// Broadcaster triggers an event on a realtime channel.
type Broadcaster interface {
	Trigger(ctx context.Context, channel, event string, data any) error
}

// PushSender delivers a push message and reports tokens the provider no
// longer accepts.
type PushSender interface {
	Send(ctx context.Context, tokens []string, msg Message) (invalid []string, err error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
}

type ActiveCounter interface {
	ActiveCount(ctx context.Context) (int, error)
}

type TokenStore interface {
	TokensForUser(ctx context.Context, userID int64) ([]string, error)
	Prune(ctx context.Context, tokens []string) error
}

// StoreSink persists the notification row shown in the guest inbox.
type StoreSink struct {
	store NotificationStore
}

func NewStoreSink(store NotificationStore) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) Name() string { return "store" }

func (s *StoreSink) Deliver(ctx context.Context, c Change) error {
	msg := Render(c)
	bookingID := c.Booking.ID
	return s.store.Create(ctx, &models.Notification{
		UserID:    c.Booking.UserID,
		BookingID: &bookingID,
		Type:      msg.Type,
		Message:   msg.Body,
	})
}

// AdminSink keeps the staff dashboard current.
type AdminSink struct {
	broadcaster Broadcaster
	counter     ActiveCounter
}

func NewAdminSink(broadcaster Broadcaster, counter ActiveCounter) *AdminSink {
	return &AdminSink{broadcaster: broadcaster, counter: counter}
}

func (s *AdminSink) Name() string { return "admin" }

func (s *AdminSink) Deliver(ctx context.Context, c Change) error {
	var errs []error

	count, err := s.counter.ActiveCount(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to count active bookings: %w", err))
	} else if err := s.broadcaster.Trigger(ctx, AdminChannel, EventActiveCount, map[string]any{"count": count}); err != nil {
		errs = append(errs, err)
	}

	kind, propertyID := c.Booking.PropertyRef()
	payload := map[string]any{
		"booking_id":      c.Booking.ID,
		"user_id":         c.Booking.UserID,
		"status":          c.Current,
		"previous_status": c.Previous,
		"payment_status":  c.Booking.PaymentStatus,
		"property_type":   kind,
		"property_id":     propertyID,
		"property_name":   c.propertyName(),
		"total_price":     c.Booking.TotalPrice,
		"change":          c.Kind,
		"message":         fmt.Sprintf("Booking #%d (%s) status changed to %s", c.Booking.ID, c.propertyName(), c.Current),
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.broadcaster.Trigger(ctx, AdminChannel, EventBookingChanged, payload); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// UserSink sends the rendered message to the guest's private channel and
// devices.
type UserSink struct {
	broadcaster Broadcaster
	push        PushSender
	tokens      TokenStore
}

// NewUserSink accepts nil broadcaster or push when those channels are not
// configured.
func NewUserSink(broadcaster Broadcaster, push PushSender, tokens TokenStore) *UserSink {
	return &UserSink{broadcaster: broadcaster, push: push, tokens: tokens}
}

func (s *UserSink) Name() string { return "user" }

func (s *UserSink) Deliver(ctx context.Context, c Change) error {
	msg := Render(c)
	var errs []error

	if s.broadcaster != nil {
		if err := s.broadcaster.Trigger(ctx, UserChannel(c.Booking.UserID), EventBookingUpdate, msg); err != nil {
			errs = append(errs, err)
		}
	}

	if s.push != nil && s.tokens != nil {
		if err := s.sendPush(ctx, c.Booking.UserID, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *UserSink) sendPush(ctx context.Context, userID int64, msg Message) error {
	tokens, err := s.tokens.TokensForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load device tokens: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	invalid, err := s.push.Send(ctx, tokens, msg)
	if len(invalid) > 0 {
		if pruneErr := s.tokens.Prune(ctx, invalid); pruneErr != nil {
			return errors.Join(err, fmt.Errorf("failed to prune device tokens: %w", pruneErr))
		}
	}
	return err
}
