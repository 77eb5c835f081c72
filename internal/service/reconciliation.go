package service

import (
	"context"
	"fmt"
	"time"

	"hotelbook/internal/availability"
	"hotelbook/internal/database"
	apperrors "hotelbook/internal/errors"
	"hotelbook/internal/logger"
	"hotelbook/internal/metrics"
	"hotelbook/internal/models"
	"hotelbook/internal/notify"
	"hotelbook/internal/reconcile"
	"hotelbook/internal/repository"
)

const sourceConstraint = "bookings_paymongo_source_id_key"

// Result is the outcome of applying one gateway event.
type Result struct {
	Applied       bool
	BookingID     *int64
	Created       bool
	PaymentStatus models.PaymentStatus
}

// Reconciler applies gateway events to bookings. The webhook and the
// verify poll both go through Apply, so replays of either are harmless.
type Reconciler struct {
	db    *database.DB
	repos *repository.Repositories
	fx    *effects
}

func NewReconciler(db *database.DB, repos *repository.Repositories, fx *effects) *Reconciler {
	return &Reconciler{db: db, repos: repos, fx: fx}
}

func (r *Reconciler) Apply(ctx context.Context, ev reconcile.Event) (Result, error) {
	log := logger.WithContext(ctx)

	if !ev.Known() {
		metrics.RecordPaymentEvent(ev.Type, "ignored")
		log.Info("Ignoring unhandled payment event", "event_type", ev.Type, "resource_id", ev.ResourceID)
		return Result{}, nil
	}

	intent, err := reconcile.ParseIntent(ev.Metadata)
	if err != nil {
		// Payment resources do not always carry the source metadata; fall
		// back to the booking that already holds the source.
		existing, lookupErr := r.lookupBySource(ctx, ev.SourceID)
		if lookupErr != nil {
			return Result{}, lookupErr
		}
		if existing == nil {
			metrics.RecordPaymentEvent(ev.Type, "rejected")
			return Result{}, err
		}
		intent = reconcile.ExistingBooking{ID: existing.ID}
	}

	var out outcome
	switch in := intent.(type) {
	case reconcile.ExistingBooking:
		out, err = r.applyExisting(ctx, in.ID, ev)
	case reconcile.DeferredBooking:
		out, err = r.applyDeferred(ctx, in.Payload, ev)
	}
	if err != nil {
		metrics.RecordPaymentEvent(ev.Type, "error")
		return Result{}, err
	}
	booking := out.booking
	if booking == nil {
		metrics.RecordPaymentEvent(ev.Type, "ignored")
		return Result{}, nil
	}
	id := booking.ID
	if !out.changed {
		metrics.RecordPaymentEvent(ev.Type, "duplicate")
		log.Info("Payment event already applied",
			"event_type", ev.Type,
			"source_id", ev.SourceID,
			"booking_id", booking.ID,
			"payment_status", booking.PaymentStatus)
		return Result{BookingID: &id, PaymentStatus: booking.PaymentStatus}, nil
	}

	log.Info("Payment event applied",
		"event_type", ev.Type,
		"source_id", ev.SourceID,
		"booking_id", booking.ID,
		"payment_status", booking.PaymentStatus,
		"created", out.created)

	r.fx.paymentReconciled(ctx, booking, ev.Type, out.created)
	kind := notify.KindPayment
	if out.created {
		kind = notify.KindCreated
	}
	r.fx.bookingChanged(ctx, booking, out.previous, kind)
	metrics.RecordPaymentEvent(ev.Type, "applied")

	return Result{Applied: true, BookingID: &id, Created: out.created, PaymentStatus: booking.PaymentStatus}, nil
}

// outcome is what one event did to its booking. A nil booking means the
// event had nothing to act on; changed is false when the booking already
// reflected the event and no side effects may run.
type outcome struct {
	booking  *models.Booking
	previous models.BookingStatus
	created  bool
	changed  bool
}

func (r *Reconciler) lookupBySource(ctx context.Context, sourceID string) (*models.Booking, error) {
	if sourceID == "" {
		return nil, nil
	}
	b, err := r.repos.Bookings.GetBySourceID(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking by source: %w", err)
	}
	return b, nil
}

// settle marks the booking paid. A paid booking is never downgraded.
func settle(b *models.Booking, ev reconcile.Event) {
	now := time.Now()
	b.PaymentStatus = models.PaymentPaid
	b.PaymentDate = &now
	if pesos, ok := ev.AmountPesos(); ok {
		b.DownPayment = &pesos
	}
	if b.PaymongoSourceID == nil && ev.SourceID != "" {
		src := ev.SourceID
		b.PaymongoSourceID = &src
	}
	if pid := ev.PaymentID(); pid != "" {
		b.PaymongoPaymentID = &pid
	}
}

// fail reports whether it changed the booking.
func fail(b *models.Booking, ev reconcile.Event) bool {
	if b.PaymentStatus == models.PaymentPaid || b.PaymentStatus == models.PaymentFailed {
		return false
	}
	b.PaymentStatus = models.PaymentFailed
	if pid := ev.PaymentID(); pid != "" {
		b.PaymongoPaymentID = &pid
	}
	return true
}

// recordPayment reports whether a completed transaction was written.
func recordPayment(ctx context.Context, r txRepos, b *models.Booking) (bool, error) {
	amount := b.TotalPrice
	if b.DownPayment != nil {
		amount = *b.DownPayment
	}
	inserted, err := r.transactions.InsertCompletedOnce(ctx, &models.Transaction{
		BookingID: b.ID,
		UserID:    b.UserID,
		Type:      models.TransactionBooking,
		Amount:    amount,
	})
	if err != nil {
		return false, fmt.Errorf("failed to record transaction: %w", err)
	}
	return inserted, nil
}

func (r *Reconciler) applyExisting(ctx context.Context, id int64, ev reconcile.Event) (outcome, error) {
	var out outcome
	err := inTx(ctx, r.db, r.repos, func(tx txRepos) error {
		booking, err := tx.bookings.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to lock booking: %w", err)
		}
		if booking == nil {
			return apperrors.NewNotFound("booking_not_found", fmt.Sprintf("booking %d referenced by payment not found", id))
		}
		out.booking = booking
		out.previous = booking.Status

		switch {
		case ev.Settles():
			if booking.PaymentStatus == models.PaymentPaid {
				return nil
			}
			settle(booking, ev)
		case ev.Fails():
			if !fail(booking, ev) {
				return nil
			}
		default:
			return nil
		}
		if err := tx.bookings.Update(ctx, booking); err != nil {
			return fmt.Errorf("failed to update booking: %w", err)
		}
		if booking.PaymentStatus != models.PaymentPaid {
			out.changed = true
			return nil
		}
		out.changed, err = recordPayment(ctx, tx, booking)
		return err
	})
	if err != nil {
		return outcome{}, err
	}
	return out, nil
}

func (r *Reconciler) applyDeferred(ctx context.Context, p reconcile.DeferredPayload, ev reconcile.Event) (outcome, error) {
	if !ev.Settles() {
		// Nothing was booked yet unless an earlier event created it.
		existing, err := r.lookupBySource(ctx, ev.SourceID)
		if err != nil || existing == nil || !ev.Fails() {
			return outcome{}, err
		}
		return r.applyExisting(ctx, existing.ID, ev)
	}
	if ev.SourceID == "" {
		return outcome{}, apperrors.NewValidation("malformed_payload", "payment event has no source id")
	}

	out, err := r.createDeferred(ctx, p, ev)
	if err != nil && repository.IsUniqueViolation(err, sourceConstraint) {
		// Lost the race to a concurrent delivery; the retry finds its row.
		out, err = r.createDeferred(ctx, p, ev)
	}
	return out, err
}

func (r *Reconciler) createDeferred(ctx context.Context, p reconcile.DeferredPayload, ev reconcile.Event) (outcome, error) {
	var out outcome
	err := inTx(ctx, r.db, r.repos, func(tx txRepos) error {
		if err := tx.bookings.LockSource(ctx, ev.SourceID); err != nil {
			return fmt.Errorf("failed to lock source: %w", err)
		}
		booking, err := tx.bookings.GetBySourceID(ctx, ev.SourceID)
		if err != nil {
			return fmt.Errorf("failed to get booking by source: %w", err)
		}

		if booking == nil {
			booking, err = r.insertDeferred(ctx, tx, p, ev.SourceID)
			if err != nil {
				return err
			}
			out.created = true
		} else {
			booking, err = tx.bookings.GetForUpdate(ctx, booking.ID)
			if err != nil {
				return fmt.Errorf("failed to lock booking: %w", err)
			}
			if booking == nil {
				return apperrors.NewNotFound("booking_not_found", fmt.Sprintf("booking for source %s not found", ev.SourceID))
			}
			out.previous = booking.Status
		}
		out.booking = booking
		if booking.PaymentStatus == models.PaymentPaid {
			return nil
		}

		settle(booking, ev)
		if out.created && booking.Status.CanTransitionTo(models.StatusConfirmed) {
			booking.Status = models.StatusConfirmed
		}
		if err := tx.bookings.Update(ctx, booking); err != nil {
			return fmt.Errorf("failed to update booking: %w", err)
		}
		inserted, err := recordPayment(ctx, tx, booking)
		out.changed = out.created || inserted
		return err
	})
	if err != nil {
		return outcome{}, err
	}
	return out, nil
}

func (r *Reconciler) insertDeferred(ctx context.Context, tx txRepos, p reconcile.DeferredPayload, sourceID string) (*models.Booking, error) {
	user, err := tx.users.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperrors.NewNotFound("user_not_found", fmt.Sprintf("user %d not found", p.UserID))
	}

	property, err := tx.properties.GetForUpdate(ctx, p.Kind, p.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock property: %w", err)
	}
	if property == nil {
		return nil, apperrors.NewNotFound("property_not_found", fmt.Sprintf("%s %d not found", p.Kind, p.PropertyID))
	}

	interval := p.Interval()
	existing, err := tx.bookings.ListBlocking(ctx, p.Kind, p.PropertyID, interval.Start, interval.End)
	if err != nil {
		return nil, fmt.Errorf("failed to check availability: %w", err)
	}
	if property.Status == models.PropertyMaintenance || availability.FirstConflict(interval, existing) != nil {
		return nil, apperrors.NewConflict("property_unavailable", fmt.Sprintf("%s is no longer available for the paid dates", property.Name))
	}

	plan := &bookingPlan{kind: p.Kind, propertyID: p.PropertyID, interval: interval}
	quote, err := plan.quote(property, user.IsSeniorOrPWD)
	if err != nil {
		return nil, pricingFailure(err)
	}

	guests := p.NumberOfGuests
	if guests < 1 {
		guests = 1
	}
	phone := p.PhoneNumber
	if phone == "" {
		phone = user.PhoneNumber
	}
	src := sourceID
	booking := &models.Booking{
		UserID:           user.ID,
		IsVenueBooking:   p.Kind == models.PropertyArea,
		CheckInDate:      p.CheckIn,
		CheckOutDate:     p.CheckOut,
		StartTime:        p.StartTime,
		EndTime:          p.EndTime,
		TimeOfArrival:    p.ArrivalTime,
		Status:           models.StatusPending,
		TotalPrice:       quote.Total,
		OriginalPrice:    quote.OriginalTotal,
		DiscountPercent:  quote.DiscountPercent,
		IsDiscounted:     quote.Discounted(),
		PaymentMethod:    models.PaymentMethodGateway,
		PaymentStatus:    models.PaymentPending,
		PaymongoSourceID: &src,
		NumberOfGuests:   guests,
		PhoneNumber:      phone,
		SpecialRequest:   p.SpecialRequests,
		PropertyName:     property.Name,
	}
	if p.Kind == models.PropertyArea {
		id := p.PropertyID
		booking.AreaID = &id
	} else {
		id := p.PropertyID
		booking.RoomID = &id
	}

	if err := tx.bookings.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	if err := tx.users.TouchLastBooking(ctx, user.ID, p.CheckIn); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return booking, nil
}
