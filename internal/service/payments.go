package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"hotelbook/internal/availability"
	"hotelbook/internal/database"
	apperrors "hotelbook/internal/errors"
	"hotelbook/internal/external"
	"hotelbook/internal/logger"
	"hotelbook/internal/models"
	"hotelbook/internal/pricing"
	"hotelbook/internal/reconcile"
	"hotelbook/internal/repository"
)

type PaymentService struct {
	db         *database.DB
	repos      *repository.Repositories
	checker    *availability.Checker
	gateway    Gateway
	reconciler *Reconciler
	opts       Options
}

func NewPaymentService(db *database.DB, repos *repository.Repositories, checker *availability.Checker, gateway Gateway, reconciler *Reconciler, opts Options) *PaymentService {
	if opts.Currency == "" {
		opts.Currency = "PHP"
	}
	if opts.SourceType == "" {
		opts.SourceType = "gcash"
	}
	return &PaymentService{db: db, repos: repos, checker: checker, gateway: gateway, reconciler: reconciler, opts: opts}
}

func (s *PaymentService) redirectURL(outcome string, bookingID int64) string {
	base := strings.TrimRight(s.opts.PublicBaseURL, "/")
	q := url.Values{}
	q.Set("booking_id", strconv.FormatInt(bookingID, 10))
	return base + "/booking/paymongo/redirect/" + outcome + "?" + q.Encode()
}

func (s *PaymentService) sourceType(requested string) string {
	if requested != "" {
		return requested
	}
	return s.opts.SourceType
}

func sourceResponse(src *external.Source, bookingID *int64) *models.SourceResponse {
	return &models.SourceResponse{
		SourceID:    src.ID,
		CheckoutURL: src.Attributes.Redirect.CheckoutURL,
		Status:      src.Attributes.Status,
		Amount:      src.Attributes.Amount,
		BookingID:   bookingID,
	}
}

// CreateSourceForBooking opens a gateway checkout for an existing booking
// and remembers the source on it.
func (s *PaymentService) CreateSourceForBooking(ctx context.Context, actor Actor, bookingID int64, req *models.CreateSourceRequest) (*models.SourceResponse, error) {
	booking, err := s.repos.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, apperrors.NewNotFound("booking_not_found", "booking not found")
	}
	if !actor.IsStaff() && !actor.owns(booking) {
		return nil, apperrors.NewForbidden("not_booking_owner", "booking belongs to another user")
	}
	if booking.PaymentStatus == models.PaymentPaid {
		return nil, apperrors.NewConflict("already_paid", "booking is already paid")
	}
	if booking.Status.Terminal() {
		return nil, apperrors.NewConflict("booking_closed", fmt.Sprintf("booking is %s", booking.Status))
	}

	var amount *int64
	if req.Amount != nil {
		minor := pricing.Minor(*req.Amount)
		amount = &minor
	}
	successURL := req.SuccessURL
	if successURL == "" {
		successURL = s.redirectURL("success", booking.ID)
	}
	failedURL := req.FailedURL
	if failedURL == "" {
		failedURL = s.redirectURL("failed", booking.ID)
	}

	src, err := s.gateway.CreateSource(ctx, external.SourceRequest{
		Amount:   amount,
		Currency: s.opts.Currency,
		Type:     s.sourceType(req.Type),
		Metadata: map[string]string{
			reconcile.MetaBookingID: strconv.FormatInt(booking.ID, 10),
			reconcile.MetaUserID:    strconv.FormatInt(booking.UserID, 10),
		},
		RedirectSuccess: successURL,
		RedirectFailed:  failedURL,
	})
	if err != nil {
		return nil, err
	}

	err = inTx(ctx, s.db, s.repos, func(r txRepos) error {
		locked, err := r.bookings.GetForUpdate(ctx, booking.ID)
		if err != nil {
			return fmt.Errorf("failed to lock booking: %w", err)
		}
		if locked == nil {
			return apperrors.NewNotFound("booking_not_found", "booking not found")
		}
		id := src.ID
		locked.PaymongoSourceID = &id
		locked.PaymentMethod = models.PaymentMethodGateway
		if locked.PaymentStatus != models.PaymentPaid {
			locked.PaymentStatus = models.PaymentPending
		}
		if err := r.bookings.Update(ctx, locked); err != nil {
			return fmt.Errorf("failed to update booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("Payment source created",
		"booking_id", booking.ID,
		"source_id", src.ID,
		"source_type", src.Attributes.Type)

	id := booking.ID
	return sourceResponse(src, &id), nil
}

// CreatePrebookingSource opens a checkout for a booking that does not
// exist yet. The booking is created when the payment settles.
func (s *PaymentService) CreatePrebookingSource(ctx context.Context, actor Actor, req *models.CreatePrebookingSourceRequest) (*models.SourceResponse, error) {
	if !actor.Authenticated() {
		return nil, apperrors.NewForbidden("login_required", "sign in to pay before booking")
	}

	metadata, payload, err := reconcile.PrebookingMetadata(req.BookingData, actor.UserID)
	if err != nil {
		return nil, err
	}

	property, err := s.repos.Properties.Get(ctx, payload.Kind, payload.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	if property == nil {
		return nil, apperrors.NewNotFound("property_not_found", fmt.Sprintf("%s %d not found", payload.Kind, payload.PropertyID))
	}
	free, err := s.checker.IsAvailable(ctx, payload.Kind, payload.PropertyID, payload.Interval())
	if err != nil {
		return nil, fmt.Errorf("failed to check availability: %w", err)
	}
	if !free || property.Status == models.PropertyMaintenance {
		return nil, apperrors.NewConflict("property_unavailable", fmt.Sprintf("%s is not available for the requested dates", property.Name))
	}

	amount := pricing.Minor(req.Amount)
	src, err := s.gateway.CreateSource(ctx, external.SourceRequest{
		Amount:          &amount,
		Currency:        s.opts.Currency,
		Type:            s.sourceType(req.Type),
		Metadata:        metadata,
		RedirectSuccess: req.SuccessURL,
		RedirectFailed:  req.FailedURL,
	})
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("Pre-booking payment source created",
		"user_id", actor.UserID,
		"source_id", src.ID,
		"property_kind", payload.Kind,
		"property_id", payload.PropertyID)

	return sourceResponse(src, nil), nil
}

// Verify polls the gateway for a source and applies its status the same
// way the webhook would.
func (s *PaymentService) Verify(ctx context.Context, sourceID string) (*models.VerifyResponse, error) {
	sourceID = strings.TrimSpace(sourceID)
	if sourceID == "" {
		return nil, apperrors.NewFieldValidation("source_id", "source_id is required")
	}

	src, err := s.gateway.RetrieveSource(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	resp := &models.VerifyResponse{SourceID: src.ID, SourceStatus: src.Attributes.Status}
	ev, ok := reconcile.EventFromSource(src)
	if !ok {
		return resp, nil
	}

	result, err := s.reconciler.Apply(ctx, ev)
	if err != nil {
		return nil, err
	}
	resp.Applied = result.Applied
	resp.BookingID = result.BookingID
	resp.PaymentStatus = result.PaymentStatus
	return resp, nil
}

// Transactions lists the payments recorded for a booking.
func (s *PaymentService) Transactions(ctx context.Context, actor Actor, bookingID int64) ([]models.Transaction, error) {
	booking, err := s.repos.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, apperrors.NewNotFound("booking_not_found", "booking not found")
	}
	if !actor.IsStaff() && !actor.owns(booking) {
		return nil, apperrors.NewForbidden("not_booking_owner", "booking belongs to another user")
	}
	txs, err := s.repos.Transactions.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}
