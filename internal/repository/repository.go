package repository

import (
	"hotelbook/internal/database"
)

type Repositories struct {
	Bookings      *BookingRepository
	Properties    *PropertyRepository
	Users         *UserRepository
	Transactions  *TransactionRepository
	Notifications *NotificationRepository
	Reviews       *ReviewRepository
	Devices       *DeviceTokenRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Bookings:      NewBookingRepository(db),
		Properties:    NewPropertyRepository(db),
		Users:         NewUserRepository(db),
		Transactions:  NewTransactionRepository(db),
		Notifications: NewNotificationRepository(db),
		Reviews:       NewReviewRepository(db),
		Devices:       NewDeviceTokenRepository(db),
	}
}
