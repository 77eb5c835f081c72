package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hotelbook/internal/database"
	"hotelbook/internal/models"
)

// ErrDuplicateReview is returned when the booking already has a review
// from the user.
var ErrDuplicateReview = errors.New("review already exists for booking")

type ReviewRepository struct {
	db database.Querier
}

func NewReviewRepository(db database.Querier) *ReviewRepository {
	return &ReviewRepository{db: db}
}

const reviewColumns = `id, user_id, booking_id, room_id, area_id, rating, review_text, created_at`

func scanReview(s scanner, rv *models.Review) error {
	return s.Scan(&rv.ID, &rv.UserID, &rv.BookingID, &rv.RoomID, &rv.AreaID, &rv.Rating, &rv.ReviewText, &rv.CreatedAt)
}

func (r *ReviewRepository) Create(ctx context.Context, rv *models.Review) error {
	query := `
		INSERT INTO reviews (user_id, booking_id, room_id, area_id, rating, review_text)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, rv.UserID, rv.BookingID, rv.RoomID, rv.AreaID, rv.Rating, rv.ReviewText).
		Scan(&rv.ID, &rv.CreatedAt)
	if IsUniqueViolation(err, "") {
		return ErrDuplicateReview
	}
	return err
}

func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (*models.Review, error) {
	rv := &models.Review{}
	err := scanReview(r.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id), rv)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rv, nil
}

func (r *ReviewRepository) Exists(ctx context.Context, bookingID, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM reviews WHERE booking_id = $1 AND user_id = $2)`,
		bookingID, userID,
	).Scan(&exists)
	return exists, err
}

// ListBy lists reviews filtered by one column: booking_id, user_id,
// room_id or area_id.
func (r *ReviewRepository) ListBy(ctx context.Context, column string, id int64) ([]models.Review, error) {
	switch column {
	case "booking_id", "user_id", "room_id", "area_id":
	default:
		return nil, fmt.Errorf("cannot list reviews by %q", column)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE `+column+` = $1 ORDER BY created_at DESC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Review{}
	for rows.Next() {
		var rv models.Review
		if err := scanReview(rows, &rv); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *ReviewRepository) Update(ctx context.Context, rv *models.Review) error {
	_, err := r.db.ExecContext(ctx, `UPDATE reviews SET rating = $1, review_text = $2 WHERE id = $3`, rv.Rating, rv.ReviewText, rv.ID)
	return err
}

func (r *ReviewRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	return err
}
