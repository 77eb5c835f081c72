package service

import (
	"context"
	"errors"
	"fmt"

	apperrors "hotelbook/internal/errors"
	"hotelbook/internal/models"
	"hotelbook/internal/repository"
)

type ReviewService struct {
	bookings *repository.BookingRepository
	reviews  *repository.ReviewRepository
}

func NewReviewService(bookings *repository.BookingRepository, reviews *repository.ReviewRepository) *ReviewService {
	return &ReviewService{bookings: bookings, reviews: reviews}
}

// Create records the guest's review of a finished stay. Each booking takes
// one review per user.
func (s *ReviewService) Create(ctx context.Context, actor Actor, bookingID int64, req *models.ReviewRequest) (*models.Review, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, apperrors.NewNotFound("booking_not_found", "booking not found")
	}
	if !actor.owns(booking) {
		return nil, apperrors.NewForbidden("not_booking_owner", "only the guest of a booking can review it")
	}
	if booking.Status != models.StatusCheckedOut {
		return nil, apperrors.NewValidation("review_not_allowed", "reviews are accepted after check-out")
	}

	exists, err := s.reviews.Exists(ctx, bookingID, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}
	if exists {
		return nil, apperrors.NewConflict("duplicate_review", "booking already has a review")
	}

	review := &models.Review{
		UserID:     actor.UserID,
		BookingID:  bookingID,
		RoomID:     booking.RoomID,
		AreaID:     booking.AreaID,
		Rating:     req.Rating,
		ReviewText: req.ReviewText,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicateReview) {
			return nil, apperrors.NewConflict("duplicate_review", "booking already has a review")
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return review, nil
}

func (s *ReviewService) ListForBooking(ctx context.Context, actor Actor, bookingID int64) ([]models.Review, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, apperrors.NewNotFound("booking_not_found", "booking not found")
	}
	if !actor.IsStaff() && !actor.owns(booking) {
		return nil, apperrors.NewForbidden("not_booking_owner", "booking belongs to another user")
	}
	return s.list(ctx, "booking_id", bookingID)
}

func (s *ReviewService) ListForUser(ctx context.Context, actor Actor) ([]models.Review, error) {
	return s.list(ctx, "user_id", actor.UserID)
}

func (s *ReviewService) ListForProperty(ctx context.Context, kind models.PropertyKind, id int64) ([]models.Review, error) {
	column := "room_id"
	if kind == models.PropertyArea {
		column = "area_id"
	}
	return s.list(ctx, column, id)
}

func (s *ReviewService) list(ctx context.Context, column string, id int64) ([]models.Review, error) {
	reviews, err := s.reviews.ListBy(ctx, column, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

func (s *ReviewService) Get(ctx context.Context, id int64) (*models.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	if review == nil {
		return nil, apperrors.NewNotFound("review_not_found", "review not found")
	}
	return review, nil
}

func (s *ReviewService) editable(ctx context.Context, actor Actor, id int64) (*models.Review, error) {
	review, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.UserID != actor.UserID && !actor.IsStaff() {
		return nil, apperrors.NewForbidden("not_review_owner", "review belongs to another user")
	}
	return review, nil
}

func (s *ReviewService) Update(ctx context.Context, actor Actor, id int64, req *models.ReviewRequest) (*models.Review, error) {
	review, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	review.Rating = req.Rating
	review.ReviewText = req.ReviewText
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}
	return review, nil
}

func (s *ReviewService) Delete(ctx context.Context, actor Actor, id int64) error {
	if _, err := s.editable(ctx, actor, id); err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}
