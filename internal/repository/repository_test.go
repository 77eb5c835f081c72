package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"hotelbook/internal/database"
	"hotelbook/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingRowColumns = []string{
	"id", "user_id", "room_id", "area_id", "is_venue_booking", "check_in_date", "check_out_date",
	"start_time", "end_time", "time_of_arrival", "status", "total_price", "original_price",
	"discount_percent", "down_payment", "payment_method", "payment_status", "payment_date",
	"paymongo_source_id", "paymongo_payment_id", "is_discounted", "number_of_guests",
	"phone_number", "special_request", "cancellation_reason", "cancellation_date",
	"has_food_order", "created_at", "updated_at", "property_name",
}

func newMock(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return database.New(db), mock
}

func bookingRow(id int64, status models.BookingStatus) *sqlmock.Rows {
	in := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	now := time.Now()
	return sqlmock.NewRows(bookingRowColumns).AddRow(
		id, 5, 3, nil, false, in, in.AddDate(0, 0, 3),
		nil, nil, "14:00:00", string(status), 2850.0, 3000.0,
		5, nil, "physical", "unpaid", nil,
		nil, nil, true, 2,
		"0917", "", nil, nil,
		false, now, now, "Room 101",
	)
}

func TestBookingGetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepository(db)

	mock.ExpectQuery(`SELECT .* FROM bookings b .* WHERE b.id = \$1`).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	b, err := repo.GetByID(context.Background(), 42)
	assert.NoError(t, err)
	assert.Nil(t, b)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingGetForUpdate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepository(db)

	mock.ExpectQuery(`WHERE b.id = \$1 FOR UPDATE OF b`).
		WithArgs(int64(7)).
		WillReturnRows(bookingRow(7, models.StatusPending))

	b, err := repo.GetForUpdate(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, models.StatusPending, b.Status)
	assert.Equal(t, "Room 101", b.PropertyName)
	assert.Equal(t, int64(3), *b.RoomID)
	assert.Equal(t, "14:00:00", *b.TimeOfArrival)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingCreate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepository(db)

	room := int64(3)
	b := &models.Booking{UserID: 5, RoomID: &room, Status: models.StatusPending, TotalPrice: 2850}
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO bookings`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(11, now, now))

	require.NoError(t, repo.Create(context.Background(), b))
	assert.Equal(t, int64(11), b.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingListBlockingUsesPropertyColumn(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepository(db)

	from := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 3)

	mock.ExpectQuery(`WHERE b.area_id = \$1\s+AND b.status <> ALL\(\$2\)`).
		WithArgs(int64(9), sqlmock.AnyArg(), to, from).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns))

	got, err := repo.ListBlocking(context.Background(), models.PropertyArea, 9, from, to)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = repo.ListBlocking(context.Background(), "spa", 9, from, to)
	assert.Error(t, err)
}

func TestBookingListForPropertyBounds(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepository(db)
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`WHERE b.room_id = \$1 AND b.check_out_date >= \$2::date ORDER BY b.check_in_date`).
		WithArgs(int64(3), from).
		WillReturnRows(bookingRow(1, models.StatusReserved))

	got, err := repo.ListForProperty(context.Background(), models.PropertyRoom, 3, &from, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Room 101", got[0].PropertyName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingListPaginates(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepository(db)
	user := int64(5)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings b WHERE 1=1 AND b.user_id = \$1`).
		WithArgs(user).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))
	mock.ExpectQuery(`ORDER BY b.created_at DESC LIMIT \$2 OFFSET \$3`).
		WithArgs(user, 10, 10).
		WillReturnRows(bookingRow(1, models.StatusConfirmed))

	got, total, err := repo.List(context.Background(), BookingFilter{UserID: &user, Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 21, total)
	assert.Len(t, got, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActiveCount(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE status = ANY\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	n, err := repo.ActiveCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestInsertCompletedOnce(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTransactionRepository(db)

	mock.ExpectQuery(`ON CONFLICT \(booking_id, transaction_type\) WHERE status = 'completed' DO NOTHING`).
		WithArgs(int64(1), int64(5), models.TransactionBooking, 500.0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "transaction_date"}).AddRow(3, time.Now()))
	mock.ExpectQuery(`INSERT INTO transactions`).
		WithArgs(int64(1), int64(5), models.TransactionBooking, 500.0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "transaction_date"}))

	tx := &models.Transaction{BookingID: 1, UserID: 5, Type: models.TransactionBooking, Amount: 500}
	created, err := repo.InsertCompletedOnce(context.Background(), tx)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.TransactionCompleted, tx.Status)

	again := &models.Transaction{BookingID: 1, UserID: 5, Type: models.TransactionBooking, Amount: 500}
	created, err = repo.InsertCompletedOnce(context.Background(), again)
	require.NoError(t, err)
	assert.False(t, created, "second completed transaction must be skipped")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewCreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReviewRepository(db)

	mock.ExpectQuery(`INSERT INTO reviews`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "reviews_booking_id_user_id_key"})

	err := repo.Create(context.Background(), &models.Review{UserID: 1, BookingID: 2, Rating: 5})
	assert.ErrorIs(t, err, ErrDuplicateReview)
}

func TestReviewListByRejectsUnknownColumn(t *testing.T) {
	db, _ := newMock(t)
	_, err := NewReviewRepository(db).ListBy(context.Background(), "rating; DROP TABLE", 1)
	assert.Error(t, err)
}

func TestPropertyGetForUpdate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPropertyRepository(db)

	mock.ExpectQuery(`SELECT id, area_name, status, price_per_hour::text, capacity, description FROM areas WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "area_name", "status", "price_per_hour", "capacity", "description"}).
			AddRow(2, "Garden", "available", "500.00", 80, ""))

	p, err := repo.GetForUpdate(context.Background(), models.PropertyArea, 2)
	require.NoError(t, err)
	assert.Equal(t, models.PropertyArea, p.Kind)
	assert.Equal(t, "500.00", p.Rate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPropertyReleaseOnlyTouchesOccupied(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPropertyRepository(db)

	mock.ExpectExec(`UPDATE rooms SET status = 'available', updated_at = NOW\(\)\s+WHERE id = \$1 AND status = 'occupied'`).
		WithArgs(int64(3), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Release(context.Background(), models.PropertyRoom, 3, 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPropertyReleaseKeepsOtherCheckedInGuest(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPropertyRepository(db)

	mock.ExpectExec(`UPDATE rooms .* NOT EXISTS \(\s+SELECT 1 FROM bookings\s+WHERE room_id = \$1 AND status = 'checked_in' AND id <> \$2\)`).
		WithArgs(int64(3), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE areas .* WHERE area_id = \$1 AND status = 'checked_in' AND id <> \$2`).
		WithArgs(int64(2), int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Release(context.Background(), models.PropertyRoom, 3, 7))
	assert.NoError(t, repo.Release(context.Background(), models.PropertyArea, 2, 8))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	err := &pq.Error{Code: "23505", Constraint: "bookings_paymongo_source_id_key"}
	assert.True(t, IsUniqueViolation(err, ""))
	assert.True(t, IsUniqueViolation(err, "bookings_paymongo_source_id_key"))
	assert.False(t, IsUniqueViolation(err, "other"))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "40001"}, ""))
	assert.False(t, IsUniqueViolation(nil, ""))
}

func TestDevicePruneSkipsEmpty(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDeviceTokenRepository(db)

	assert.NoError(t, repo.Prune(context.Background(), nil))

	mock.ExpectExec(`DELETE FROM device_tokens WHERE token = ANY\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	assert.NoError(t, repo.Prune(context.Background(), []string{"a", "b"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
