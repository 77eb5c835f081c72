package service

import (
	"context"
	"fmt"
	"strings"

	apperrors "hotelbook/internal/errors"
	"hotelbook/internal/models"
	"hotelbook/internal/repository"
)

const notificationPageLimit = 50

type NotificationService struct {
	notifications *repository.NotificationRepository
	devices       *repository.DeviceTokenRepository
}

func NewNotificationService(notifications *repository.NotificationRepository, devices *repository.DeviceTokenRepository) *NotificationService {
	return &NotificationService{notifications: notifications, devices: devices}
}

func (s *NotificationService) List(ctx context.Context, actor Actor, page int) ([]models.Notification, error) {
	if page < 1 {
		page = 1
	}
	items, err := s.notifications.ListForUser(ctx, actor.UserID, notificationPageLimit, (page-1)*notificationPageLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return items, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, actor Actor) (int, error) {
	n, err := s.notifications.UnreadCount(ctx, actor.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return n, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, actor Actor, id int64) error {
	ok, err := s.notifications.MarkRead(ctx, id, actor.UserID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if !ok {
		return apperrors.NewNotFound("notification_not_found", "notification not found")
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, actor Actor) (int64, error) {
	n, err := s.notifications.MarkAllRead(ctx, actor.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return n, nil
}

func (s *NotificationService) RegisterDevice(ctx context.Context, actor Actor, req *models.RegisterDeviceRequest) (*models.DeviceToken, error) {
	platform := req.Platform
	if platform == "" {
		platform = "android"
	}
	token := &models.DeviceToken{
		UserID:   actor.UserID,
		Token:    strings.TrimSpace(req.Token),
		Platform: platform,
	}
	if token.Token == "" {
		return nil, apperrors.NewFieldValidation("token", "token is required")
	}
	if err := s.devices.Register(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to register device: %w", err)
	}
	return token, nil
}

func (s *NotificationService) UnregisterDevice(ctx context.Context, actor Actor, token string) error {
	ok, err := s.devices.Unregister(ctx, actor.UserID, token)
	if err != nil {
		return fmt.Errorf("failed to unregister device: %w", err)
	}
	if !ok {
		return apperrors.NewNotFound("device_not_found", "device token not found")
	}
	return nil
}
