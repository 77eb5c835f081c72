package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hotelbook/internal/availability"
	"hotelbook/internal/database"
	apperrors "hotelbook/internal/errors"
	"hotelbook/internal/logger"
	"hotelbook/internal/models"
	"hotelbook/internal/notify"
	"hotelbook/internal/pricing"
	"hotelbook/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type BookingService struct {
	db      *database.DB
	repos   *repository.Repositories
	checker *availability.Checker
	fx      *effects
}

func NewBookingService(db *database.DB, repos *repository.Repositories, checker *availability.Checker, fx *effects) *BookingService {
	return &BookingService{db: db, repos: repos, checker: checker, fx: fx}
}

// bookingPlan is a validated creation request.
type bookingPlan struct {
	kind       models.PropertyKind
	propertyID int64
	checkIn    time.Time
	checkOut   time.Time
	startTime  *string
	endTime    *string
	arrival    *string
	interval   availability.Interval
}

func normalizeClock(s string) (*string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := availability.ParseClock(s)
	if err != nil {
		return nil, err
	}
	clock := time.Time{}.Add(d).Format("15:04:05")
	return &clock, nil
}

func planBooking(req *models.CreateBookingRequest) (*bookingPlan, error) {
	fields := map[string]string{}
	p := &bookingPlan{}

	if req.IsVenueBooking.Bool() {
		p.kind = models.PropertyArea
		if req.AreaID == nil || *req.AreaID <= 0 {
			fields["area_id"] = "area_id is required for venue bookings"
		} else {
			p.propertyID = *req.AreaID
		}
	} else {
		p.kind = models.PropertyRoom
		if req.RoomID == nil || *req.RoomID <= 0 {
			fields["room_id"] = "room_id is required for room bookings"
		} else {
			p.propertyID = *req.RoomID
		}
	}

	var err error
	if p.checkIn, err = availability.ParseDate(req.CheckIn); err != nil {
		fields["check_in"] = "must be a YYYY-MM-DD date"
	}
	if p.checkOut, err = availability.ParseDate(req.CheckOut); err != nil {
		fields["check_out"] = "must be a YYYY-MM-DD date"
	}
	if p.startTime, err = normalizeClock(req.StartTime); err != nil {
		fields["start_time"] = "must be HH:MM"
	}
	if p.endTime, err = normalizeClock(req.EndTime); err != nil {
		fields["end_time"] = "must be HH:MM"
	}
	if p.arrival, err = normalizeClock(req.ArrivalTime); err != nil {
		fields["arrival_time"] = "must be HH:MM"
	}
	if p.kind == models.PropertyArea && (p.startTime == nil) != (p.endTime == nil) {
		fields["end_time"] = "start_time and end_time must be given together"
	}

	if len(fields) > 0 {
		e := apperrors.NewValidation("invalid_booking", "booking request is invalid")
		e.Fields = fields
		return nil, e
	}

	if p.kind == models.PropertyArea {
		if p.checkOut.Before(p.checkIn) {
			return nil, apperrors.NewValidation("date_range_invalid", "check_out must not be before check_in")
		}
		p.interval = availability.VenueInterval(p.checkIn, p.checkOut, p.startTime, p.endTime)
	} else {
		p.interval = availability.RoomInterval(p.checkIn, p.checkOut)
	}
	if !p.interval.Valid() {
		return nil, apperrors.NewValidation("date_range_invalid", "booking must end after it starts")
	}
	return p, nil
}

func (p *bookingPlan) quote(property *models.Property, seniorOrPWD bool) (pricing.Quote, error) {
	if p.kind == models.PropertyArea {
		return pricing.QuoteVenue(property.Rate, p.interval.Hours(), seniorOrPWD)
	}
	return pricing.QuoteRoom(property.Rate, int(p.interval.Hours()/24), seniorOrPWD)
}

func pricingFailure(err error) error {
	var pe *pricing.PricingError
	if errors.As(err, &pe) {
		return apperrors.NewFieldValidation(pe.Field, pe.Error())
	}
	return apperrors.NewInternal("failed to price booking", err)
}

const guestEmailConstraint = "users_email_key"

func newGuestUser(req *models.CreateBookingRequest) (*models.User, error) {
	// Guest accounts cannot log in until a password is set.
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash guest password: %w", err)
	}

	user := &models.User{
		Username:      "guest_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		PasswordHash:  string(hash),
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		PhoneNumber:   req.PhoneNumber,
		Role:          models.RoleGuest,
		IsSeniorOrPWD: req.IsSeniorOrPWD.Bool(),
		IsActive:      true,
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		user.Email = &email
	}
	return user, nil
}

// Create books a room or venue. The property row is locked while the
// overlap check and insert run, so two requests for the same property
// cannot both succeed.
func (s *BookingService) Create(ctx context.Context, actor Actor, req *models.CreateBookingRequest) (*models.Booking, error) {
	plan, err := planBooking(req)
	if err != nil {
		return nil, err
	}

	var user *models.User
	switch {
	case actor.Authenticated():
		user, err = s.repos.Users.GetByID(ctx, actor.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		if user == nil {
			return nil, apperrors.NewNotFound("user_not_found", "user not found")
		}
	case strings.TrimSpace(req.Email) != "":
		user, err = s.repos.Users.GetByEmail(ctx, req.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
	}

	seniorOrPWD := req.IsSeniorOrPWD.Bool()
	if user != nil {
		seniorOrPWD = user.IsSeniorOrPWD
	}

	paymentMethod := models.PaymentMethodPhysical
	paymentStatus := models.PaymentUnpaid
	if req.PaymentMethod == string(models.PaymentMethodGateway) {
		paymentMethod = models.PaymentMethodGateway
		paymentStatus = models.PaymentPending
	}

	booking := &models.Booking{
		IsVenueBooking: plan.kind == models.PropertyArea,
		CheckInDate:    plan.checkIn,
		CheckOutDate:   plan.checkOut,
		StartTime:      plan.startTime,
		EndTime:        plan.endTime,
		TimeOfArrival:  plan.arrival,
		Status:         models.StatusPending,
		PaymentMethod:  paymentMethod,
		PaymentStatus:  paymentStatus,
		NumberOfGuests: req.NumberOfGuests,
		PhoneNumber:    req.PhoneNumber,
		SpecialRequest: req.SpecialRequests,
	}
	if plan.kind == models.PropertyArea {
		booking.AreaID = &plan.propertyID
	} else {
		booking.RoomID = &plan.propertyID
	}

	book := func(r txRepos) error {
		property, err := r.properties.GetForUpdate(ctx, plan.kind, plan.propertyID)
		if err != nil {
			return fmt.Errorf("failed to lock property: %w", err)
		}
		if property == nil {
			return apperrors.NewNotFound("property_not_found", fmt.Sprintf("%s %d not found", plan.kind, plan.propertyID))
		}
		if property.Status == models.PropertyMaintenance {
			return apperrors.NewConflict("property_unavailable", fmt.Sprintf("%s is under maintenance", property.Name))
		}
		if property.Capacity > 0 && req.NumberOfGuests > property.Capacity {
			return apperrors.NewFieldValidation("number_of_guests", fmt.Sprintf("%s holds at most %d guests", property.Name, property.Capacity))
		}

		existing, err := r.bookings.ListBlocking(ctx, plan.kind, plan.propertyID, plan.interval.Start, plan.interval.End)
		if err != nil {
			return fmt.Errorf("failed to check availability: %w", err)
		}
		if clash := availability.FirstConflict(plan.interval, existing); clash != nil {
			return apperrors.NewConflict("property_unavailable", fmt.Sprintf("%s is already booked for the requested dates", property.Name))
		}

		quote, err := plan.quote(property, seniorOrPWD)
		if err != nil {
			return pricingFailure(err)
		}
		booking.TotalPrice = quote.Total
		booking.OriginalPrice = quote.OriginalTotal
		booking.DiscountPercent = quote.DiscountPercent
		booking.IsDiscounted = quote.Discounted()
		booking.PropertyName = property.Name

		if user == nil {
			if user, err = newGuestUser(req); err != nil {
				return err
			}
			if err := r.users.Create(ctx, user); err != nil {
				return fmt.Errorf("failed to create guest user: %w", err)
			}
		}
		booking.UserID = user.ID

		if err := r.bookings.Create(ctx, booking); err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}
		return r.users.TouchLastBooking(ctx, user.ID, plan.checkIn)
	}
	matched := user != nil
	err = inTx(ctx, s.db, s.repos, book)
	if err != nil && !matched && repository.IsUniqueViolation(err, guestEmailConstraint) {
		// A concurrent booking created the guest account first.
		user, err = s.repos.Users.GetByEmail(ctx, req.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		if user == nil {
			return nil, apperrors.NewConflict("guest_account_conflict", "guest account could not be matched by email")
		}
		seniorOrPWD = user.IsSeniorOrPWD
		err = inTx(ctx, s.db, s.repos, book)
	}
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("Booking created",
		"booking_id", booking.ID,
		"user_id", booking.UserID,
		"property_kind", plan.kind,
		"property_id", plan.propertyID,
		"total_price", booking.TotalPrice)

	s.fx.bookingChanged(ctx, booking, "", notify.KindCreated)
	return booking, nil
}

func (s *BookingService) Get(ctx context.Context, actor Actor, id int64) (*models.Booking, error) {
	booking, err := s.repos.Bookings.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, apperrors.NewNotFound("booking_not_found", "booking not found")
	}
	if !actor.IsStaff() && !actor.owns(booking) {
		return nil, apperrors.NewForbidden("not_booking_owner", "booking belongs to another user")
	}
	return booking, nil
}

// List returns every booking to staff and the caller's own bookings to
// guests.
func (s *BookingService) List(ctx context.Context, actor Actor, status string, page, pageSize int) (*models.ListBookingsResponse, error) {
	filter := repository.BookingFilter{Page: page, PageSize: pageSize}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}

	if status != "" {
		st, err := models.ParseBookingStatus(status)
		if err != nil {
			return nil, apperrors.NewFieldValidation("status", err.Error())
		}
		filter.Status = st
	}
	if !actor.IsStaff() {
		uid := actor.UserID
		filter.UserID = &uid
	}

	bookings, total, err := s.repos.Bookings.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return &models.ListBookingsResponse{
		Data:       bookings,
		Pagination: models.NewPagination(total, filter.Page, filter.PageSize),
	}, nil
}

// ListForUser always scopes to the caller, staff included.
func (s *BookingService) ListForUser(ctx context.Context, actor Actor, status string, page, pageSize int) (*models.ListBookingsResponse, error) {
	return s.List(ctx, Actor{UserID: actor.UserID, Role: models.RoleGuest}, status, page, pageSize)
}

func (s *BookingService) ActiveCount(ctx context.Context) (int, error) {
	n, err := s.repos.Bookings.ActiveCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count active bookings: %w", err)
	}
	return n, nil
}

// Cancel lets a guest withdraw a pending booking; staff may cancel any
// booking that is not yet terminal.
func (s *BookingService) Cancel(ctx context.Context, actor Actor, id int64, reason string) (*models.Booking, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewFieldValidation("reason", "a cancellation reason is required")
	}

	var booking *models.Booking
	var previous models.BookingStatus
	err := inTx(ctx, s.db, s.repos, func(r txRepos) error {
		var err error
		booking, err = r.bookings.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to lock booking: %w", err)
		}
		if booking == nil {
			return apperrors.NewNotFound("booking_not_found", "booking not found")
		}

		if !actor.IsStaff() {
			if !actor.owns(booking) {
				return apperrors.NewForbidden("not_booking_owner", "booking belongs to another user")
			}
			if booking.Status != models.StatusPending {
				return apperrors.NewConflict("cancellation_not_allowed", fmt.Sprintf("only pending bookings can be cancelled, booking is %s", booking.Status))
			}
		}
		if !booking.Status.CanTransitionTo(models.StatusCancelled) {
			return apperrors.NewConflict("invalid_transition", fmt.Sprintf("booking in status %s cannot be cancelled", booking.Status))
		}

		previous = booking.Status
		now := time.Now()
		booking.Status = models.StatusCancelled
		booking.CancellationReason = &reason
		booking.CancellationDate = &now

		if err := r.bookings.Update(ctx, booking); err != nil {
			return fmt.Errorf("failed to update booking: %w", err)
		}
		if previous.HoldsInventory() {
			kind, propertyID := booking.PropertyRef()
			if err := r.properties.Release(ctx, kind, propertyID, booking.ID); err != nil {
				return fmt.Errorf("failed to release property: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("Booking cancelled",
		"booking_id", booking.ID,
		"previous_status", previous,
		"by_staff", actor.IsStaff())

	s.fx.bookingChanged(ctx, booking, previous, notify.KindStatus)
	return booking, nil
}

// Transition moves a booking along the lifecycle on behalf of staff.
func (s *BookingService) Transition(ctx context.Context, actor Actor, id int64, to models.BookingStatus, reason string) (*models.Booking, error) {
	if !actor.IsStaff() {
		return nil, apperrors.NewForbidden("staff_only", "only staff can change booking status")
	}
	if !to.Valid() {
		return nil, apperrors.NewFieldValidation("status", fmt.Sprintf("unknown booking status %q", to))
	}
	reason = strings.TrimSpace(reason)
	if (to == models.StatusCancelled || to == models.StatusRejected) && reason == "" {
		return nil, apperrors.NewFieldValidation("reason", "a reason is required")
	}

	var booking *models.Booking
	var previous models.BookingStatus
	err := inTx(ctx, s.db, s.repos, func(r txRepos) error {
		var err error
		booking, err = r.bookings.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to lock booking: %w", err)
		}
		if booking == nil {
			return apperrors.NewNotFound("booking_not_found", "booking not found")
		}
		if !booking.Status.CanTransitionTo(to) {
			return apperrors.NewConflict("invalid_transition", fmt.Sprintf("cannot move booking from %s to %s", booking.Status, to))
		}

		previous = booking.Status
		booking.Status = to
		if to == models.StatusCancelled || to == models.StatusRejected {
			now := time.Now()
			booking.CancellationReason = &reason
			booking.CancellationDate = &now
		}
		if err := r.bookings.Update(ctx, booking); err != nil {
			return fmt.Errorf("failed to update booking: %w", err)
		}

		kind, propertyID := booking.PropertyRef()
		switch {
		case to == models.StatusCheckedIn:
			err = r.properties.SetStatus(ctx, kind, propertyID, models.PropertyOccupied)
		case previous.HoldsInventory() && !to.HoldsInventory():
			err = r.properties.Release(ctx, kind, propertyID, booking.ID)
		}
		if err != nil {
			return fmt.Errorf("failed to update property status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("Booking status changed",
		"booking_id", booking.ID,
		"from", previous,
		"to", to,
		"staff_id", actor.UserID)

	s.fx.bookingChanged(ctx, booking, previous, notify.KindStatus)
	return booking, nil
}

// Update edits the guest-editable fields of a booking. Price and dates
// are fixed once the booking exists.
func (s *BookingService) Update(ctx context.Context, actor Actor, id int64, patch *models.UpdateBookingRequest) (*models.Booking, error) {
	if patch.Empty() {
		return nil, apperrors.NewValidation("empty_update", "nothing to update")
	}
	var arrival *string
	if patch.ArrivalTime != nil {
		var err error
		if arrival, err = normalizeClock(*patch.ArrivalTime); err != nil {
			return nil, apperrors.NewFieldValidation("arrival_time", "must be HH:MM")
		}
	}

	var booking *models.Booking
	err := inTx(ctx, s.db, s.repos, func(r txRepos) error {
		var err error
		booking, err = r.bookings.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to lock booking: %w", err)
		}
		if booking == nil {
			return apperrors.NewNotFound("booking_not_found", "booking not found")
		}
		if !actor.IsStaff() && !actor.owns(booking) {
			return apperrors.NewForbidden("not_booking_owner", "booking belongs to another user")
		}
		if !booking.Status.Editable() {
			return apperrors.NotEditable(string(booking.Status))
		}

		if patch.PhoneNumber != nil {
			booking.PhoneNumber = *patch.PhoneNumber
		}
		if patch.SpecialRequest != nil {
			booking.SpecialRequest = *patch.SpecialRequest
		}
		if patch.NumberOfGuests != nil {
			booking.NumberOfGuests = *patch.NumberOfGuests
		}
		if patch.ArrivalTime != nil {
			booking.TimeOfArrival = arrival
		}

		if err := r.bookings.Update(ctx, booking); err != nil {
			return fmt.Errorf("failed to update booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.fx.bookingChanged(ctx, booking, booking.Status, notify.KindUpdated)
	return booking, nil
}

// Schedule lists the bookings occupying one property.
func (s *BookingService) Schedule(ctx context.Context, kind models.PropertyKind, id int64, from, to string) ([]models.Booking, error) {
	var fromDate, toDate *time.Time
	if from != "" {
		d, err := availability.ParseDate(from)
		if err != nil {
			return nil, apperrors.NewFieldValidation("start_date", "must be a YYYY-MM-DD date")
		}
		fromDate = &d
	}
	if to != "" {
		d, err := availability.ParseDate(to)
		if err != nil {
			return nil, apperrors.NewFieldValidation("end_date", "must be a YYYY-MM-DD date")
		}
		toDate = &d
	}
	if fromDate != nil && toDate != nil && toDate.Before(*fromDate) {
		return nil, apperrors.NewValidation("date_range_invalid", "end_date must not be before start_date")
	}

	property, err := s.repos.Properties.Get(ctx, kind, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	if property == nil {
		return nil, apperrors.NewNotFound("property_not_found", fmt.Sprintf("%s %d not found", kind, id))
	}

	bookings, err := s.checker.Schedule(ctx, kind, id, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list property bookings: %w", err)
	}
	return bookings, nil
}
