package service

import (
	"context"
	"database/sql"
	"time"

	"hotelbook/internal/availability"
	"hotelbook/internal/database"
	"hotelbook/internal/external"
	"hotelbook/internal/logger"
	"hotelbook/internal/messaging"
	"hotelbook/internal/metrics"
	"hotelbook/internal/models"
	"hotelbook/internal/notify"
	"hotelbook/internal/repository"
)

// Actor is the caller of a service operation. A zero UserID means the
// caller is anonymous.
type Actor struct {
	UserID int64
	Role   models.Role
}

func (a Actor) Authenticated() bool { return a.UserID != 0 }
func (a Actor) IsStaff() bool       { return a.Authenticated() && a.Role.IsStaff() }

// owns reports whether the actor may act on a booking as its guest.
func (a Actor) owns(b *models.Booking) bool {
	return a.Authenticated() && b.UserID == a.UserID
}

// Gateway is the payment provider.
type Gateway interface {
	CreateSource(ctx context.Context, req external.SourceRequest) (*external.Source, error)
	RetrieveSource(ctx context.Context, id string) (*external.Source, error)
}

// Notifier fans a committed change out to every audience.
type Notifier interface {
	Publish(ctx context.Context, c notify.Change) []string
}

// CacheInvalidator drops cached availability listings.
type CacheInvalidator interface {
	BumpAvailabilityVersion(ctx context.Context) error
}

type Options struct {
	PublicBaseURL string
	Currency      string
	SourceType    string
}

type Services struct {
	Bookings      *BookingService
	Reviews       *ReviewService
	Payments      *PaymentService
	Reconciler    *Reconciler
	Notifications *NotificationService
	Availability  *availability.Checker
}

func NewServices(db *database.DB, repos *repository.Repositories, checker *availability.Checker, gateway Gateway, publisher messaging.Publisher, notifier Notifier, cache CacheInvalidator, opts Options) *Services {
	fx := &effects{publisher: publisher, notifier: notifier, cache: cache}
	reconciler := NewReconciler(db, repos, fx)

	return &Services{
		Bookings:      NewBookingService(db, repos, checker, fx),
		Reviews:       NewReviewService(repos.Bookings, repos.Reviews),
		Payments:      NewPaymentService(db, repos, checker, gateway, reconciler, opts),
		Reconciler:    reconciler,
		Notifications: NewNotificationService(repos.Notifications, repos.Devices),
		Availability:  checker,
	}
}

// txRepos are repositories bound to one transaction.
type txRepos struct {
	bookings     *repository.BookingRepository
	properties   *repository.PropertyRepository
	users        *repository.UserRepository
	transactions *repository.TransactionRepository
}

func inTx(ctx context.Context, db *database.DB, repos *repository.Repositories, fn func(r txRepos) error) error {
	return db.InTx(ctx, func(tx *sql.Tx) error {
		return fn(txRepos{
			bookings:     repos.Bookings.WithTx(tx),
			properties:   repos.Properties.WithTx(tx),
			users:        repos.Users.WithTx(tx),
			transactions: repos.Transactions.WithTx(tx),
		})
	})
}

// effects runs the side effects of a committed change. None of them can
// fail the operation; failures are logged.
type effects struct {
	publisher messaging.Publisher
	notifier  Notifier
	cache     CacheInvalidator
}

func (e *effects) bookingChanged(ctx context.Context, b *models.Booking, previous models.BookingStatus, kind notify.ChangeKind) {
	if previous != b.Status {
		metrics.RecordTransition(string(b.Status))
	}

	if e.cache != nil && (kind == notify.KindCreated || previous != b.Status) {
		if err := e.cache.BumpAvailabilityVersion(ctx); err != nil {
			logger.WithContext(ctx).Error("Failed to invalidate availability cache",
				"error", err,
				"booking_id", b.ID)
		}
	}

	if e.publisher != nil {
		propertyKind, propertyID := b.PropertyRef()
		event := models.BookingChangedEvent{
			BookingID:    b.ID,
			UserID:       b.UserID,
			PropertyKind: propertyKind,
			PropertyID:   propertyID,
			Previous:     previous,
			Current:      b.Status,
			Timestamp:    time.Now(),
		}
		if err := e.publisher.Publish(models.EventBookingChanged, event); err != nil {
			logger.WithContext(ctx).Error("Failed to publish booking changed event",
				"error", err,
				"booking_id", b.ID,
				"event_type", models.EventBookingChanged)
		}
	}

	if e.notifier != nil {
		e.notifier.Publish(ctx, notify.Change{
			Booking:      *b,
			PropertyName: b.PropertyName,
			Previous:     previous,
			Current:      b.Status,
			Kind:         kind,
		})
	}
}

func (e *effects) paymentReconciled(ctx context.Context, b *models.Booking, eventType string, created bool) {
	if e.publisher == nil {
		return
	}
	event := models.PaymentReconciledEvent{
		BookingID:     b.ID,
		EventType:     eventType,
		PaymentStatus: b.PaymentStatus,
		Created:       created,
		Timestamp:     time.Now(),
	}
	if b.PaymongoSourceID != nil {
		event.SourceID = *b.PaymongoSourceID
	}
	if err := e.publisher.Publish(models.EventPaymentReconciled, event); err != nil {
		logger.WithContext(ctx).Error("Failed to publish payment reconciled event",
			"error", err,
			"booking_id", b.ID,
			"event_type", models.EventPaymentReconciled)
	}
}
