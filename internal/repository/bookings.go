package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hotelbook/internal/database"
	"hotelbook/internal/models"
)

const bookingColumns = `
	b.id, b.user_id, b.room_id, b.area_id, b.is_venue_booking, b.check_in_date, b.check_out_date,
	b.start_time, b.end_time, b.time_of_arrival, b.status, b.total_price, b.original_price,
	b.discount_percent, b.down_payment, b.payment_method, b.payment_status, b.payment_date,
	b.paymongo_source_id, b.paymongo_payment_id, b.is_discounted, b.number_of_guests,
	b.phone_number, b.special_request, b.cancellation_reason, b.cancellation_date,
	b.has_food_order, b.created_at, b.updated_at, COALESCE(r.room_name, a.area_name, '')`

const bookingFrom = `
	FROM bookings b
	LEFT JOIN rooms r ON r.id = b.room_id
	LEFT JOIN areas a ON a.id = b.area_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(s scanner, b *models.Booking) error {
	return s.Scan(
		&b.ID,
		&b.UserID,
		&b.RoomID,
		&b.AreaID,
		&b.IsVenueBooking,
		&b.CheckInDate,
		&b.CheckOutDate,
		&b.StartTime,
		&b.EndTime,
		&b.TimeOfArrival,
		&b.Status,
		&b.TotalPrice,
		&b.OriginalPrice,
		&b.DiscountPercent,
		&b.DownPayment,
		&b.PaymentMethod,
		&b.PaymentStatus,
		&b.PaymentDate,
		&b.PaymongoSourceID,
		&b.PaymongoPaymentID,
		&b.IsDiscounted,
		&b.NumberOfGuests,
		&b.PhoneNumber,
		&b.SpecialRequest,
		&b.CancellationReason,
		&b.CancellationDate,
		&b.HasFoodOrder,
		&b.CreatedAt,
		&b.UpdatedAt,
		&b.PropertyName,
	)
}

type BookingRepository struct {
	db database.Querier
}

func NewBookingRepository(db database.Querier) *BookingRepository {
	return &BookingRepository{db: db}
}

// WithTx returns a copy bound to tx.
func (r *BookingRepository) WithTx(tx *sql.Tx) *BookingRepository {
	return &BookingRepository{db: tx}
}

func (r *BookingRepository) Create(ctx context.Context, b *models.Booking) error {
	query := `
		INSERT INTO bookings (
			user_id, room_id, area_id, is_venue_booking, check_in_date, check_out_date,
			start_time, end_time, time_of_arrival, status, total_price, original_price,
			discount_percent, down_payment, payment_method, payment_status, payment_date,
			paymongo_source_id, paymongo_payment_id, is_discounted, number_of_guests,
			phone_number, special_request, has_food_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		b.UserID,
		b.RoomID,
		b.AreaID,
		b.IsVenueBooking,
		b.CheckInDate,
		b.CheckOutDate,
		b.StartTime,
		b.EndTime,
		b.TimeOfArrival,
		b.Status,
		b.TotalPrice,
		b.OriginalPrice,
		b.DiscountPercent,
		b.DownPayment,
		b.PaymentMethod,
		b.PaymentStatus,
		b.PaymentDate,
		b.PaymongoSourceID,
		b.PaymongoPaymentID,
		b.IsDiscounted,
		b.NumberOfGuests,
		b.PhoneNumber,
		b.SpecialRequest,
		b.HasFoodOrder,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (r *BookingRepository) getOne(ctx context.Context, where string, args ...any) (*models.Booking, error) {
	booking := &models.Booking{}
	query := `SELECT ` + bookingColumns + bookingFrom + ` WHERE ` + where

	err := scanBooking(r.db.QueryRowContext(ctx, query, args...), booking)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	return r.getOne(ctx, `b.id = $1`, id)
}

// GetForUpdate locks the booking row until the surrounding transaction ends.
func (r *BookingRepository) GetForUpdate(ctx context.Context, id int64) (*models.Booking, error) {
	return r.getOne(ctx, `b.id = $1 FOR UPDATE OF b`, id)
}

func (r *BookingRepository) GetBySourceID(ctx context.Context, sourceID string) (*models.Booking, error) {
	return r.getOne(ctx, `b.paymongo_source_id = $1`, sourceID)
}

// LockSource serializes work on one gateway source for the rest of the
// transaction.
func (r *BookingRepository) LockSource(ctx context.Context, sourceID string) error {
	_, err := r.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, sourceID)
	return err
}

// Update writes every mutable column. total_price and the property
// reference are fixed at creation and never rewritten here.
func (r *BookingRepository) Update(ctx context.Context, b *models.Booking) error {
	query := `
		UPDATE bookings
		SET status = $1, payment_status = $2, payment_date = $3, down_payment = $4,
		    paymongo_source_id = $5, paymongo_payment_id = $6, number_of_guests = $7,
		    phone_number = $8, special_request = $9, time_of_arrival = $10,
		    cancellation_reason = $11, cancellation_date = $12, updated_at = NOW()
		WHERE id = $13
		RETURNING updated_at`

	return r.db.QueryRowContext(ctx, query,
		b.Status,
		b.PaymentStatus,
		b.PaymentDate,
		b.DownPayment,
		b.PaymongoSourceID,
		b.PaymongoPaymentID,
		b.NumberOfGuests,
		b.PhoneNumber,
		b.SpecialRequest,
		b.TimeOfArrival,
		b.CancellationReason,
		b.CancellationDate,
		b.ID,
	).Scan(&b.UpdatedAt)
}

func propertyColumn(kind models.PropertyKind) (string, error) {
	switch kind {
	case models.PropertyRoom:
		return "b.room_id", nil
	case models.PropertyArea:
		return "b.area_id", nil
	}
	return "", fmt.Errorf("unknown property kind %q", kind)
}

// ListBlocking returns bookings of one property whose dates touch
// [from, to]. The date window is inclusive so that whole-day venue holds
// are included; callers filter by exact overlap.
func (r *BookingRepository) ListBlocking(ctx context.Context, kind models.PropertyKind, propertyID int64, from, to time.Time) ([]models.Booking, error) {
	column, err := propertyColumn(kind)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + bookingColumns + bookingFrom + `
		WHERE ` + column + ` = $1
		  AND b.status <> ALL($2)
		  AND b.check_in_date <= $3::date
		  AND b.check_out_date >= $4::date
		ORDER BY b.check_in_date`

	return r.list(ctx, query, propertyID, statusArray(models.NonBlockingStatuses), to, from)
}

// ListBlockingInRange is ListBlocking across every property.
func (r *BookingRepository) ListBlockingInRange(ctx context.Context, from, to time.Time) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + bookingFrom + `
		WHERE b.status <> ALL($1)
		  AND b.check_in_date <= $2::date
		  AND b.check_out_date >= $3::date`

	return r.list(ctx, query, statusArray(models.NonBlockingStatuses), to, from)
}

// ListForProperty lists one property's bookings, optionally bounded.
func (r *BookingRepository) ListForProperty(ctx context.Context, kind models.PropertyKind, propertyID int64, from, to *time.Time) ([]models.Booking, error) {
	column, err := propertyColumn(kind)
	if err != nil {
		return nil, err
	}
	args := []any{propertyID}
	query := `SELECT ` + bookingColumns + bookingFrom + ` WHERE ` + column + ` = $1`
	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND b.check_out_date >= $%d::date", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND b.check_in_date <= $%d::date", len(args))
	}
	query += " ORDER BY b.check_in_date"

	return r.list(ctx, query, args...)
}

// BookingFilter narrows List. Zero values mean no filter.
type BookingFilter struct {
	UserID   *int64
	Status   models.BookingStatus
	Page     int
	PageSize int
}

func (f BookingFilter) where() (string, []any) {
	var args []any
	where := " WHERE 1=1"
	if f.UserID != nil {
		args = append(args, *f.UserID)
		where += fmt.Sprintf(" AND b.user_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND b.status = $%d", len(args))
	}
	return where, args
}

// List returns one page of bookings plus the total matching count.
func (r *BookingRepository) List(ctx context.Context, f BookingFilter) ([]models.Booking, int, error) {
	where, args := f.where()

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings b`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + bookingColumns + bookingFrom + where + ` ORDER BY b.created_at DESC`
	if f.Page > 0 && f.PageSize > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, f.PageSize, (f.Page-1)*f.PageSize)
	}

	bookings, err := r.list(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// ActiveCount counts bookings shown as active on the admin dashboard.
func (r *BookingRepository) ActiveCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE status = ANY($1)`,
		statusArray(models.ActiveStatuses),
	).Scan(&count)
	return count, err
}

// DueForCheckin lists reserved or confirmed bookings starting on day.
func (r *BookingRepository) DueForCheckin(ctx context.Context, day time.Time) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + bookingFrom + `
		WHERE b.status = ANY($1) AND b.check_in_date = $2::date
		ORDER BY b.id`

	return r.list(ctx, query, statusArray([]models.BookingStatus{models.StatusReserved, models.StatusConfirmed}), day)
}

func (r *BookingRepository) list(ctx context.Context, query string, args ...any) ([]models.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := []models.Booking{}
	for rows.Next() {
		var b models.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
