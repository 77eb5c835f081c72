package models

import "fmt"

// BookingStatus is the closed set of lifecycle states.
type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusReserved   BookingStatus = "reserved"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusCheckedIn  BookingStatus = "checked_in"
	StatusCheckedOut BookingStatus = "checked_out"
	StatusCancelled  BookingStatus = "cancelled"
	StatusRejected   BookingStatus = "rejected"
	StatusNoShow     BookingStatus = "no_show"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusReserved, StatusConfirmed, StatusRejected, StatusCancelled},
	StatusReserved:  {StatusConfirmed, StatusCheckedIn, StatusCancelled, StatusNoShow},
	StatusConfirmed: {StatusCheckedIn, StatusCancelled, StatusNoShow},
	StatusCheckedIn: {StatusCheckedOut, StatusCancelled},
}

// ParseBookingStatus accepts the stored spelling plus the legacy
// "missed_reservation" alias.
func ParseBookingStatus(s string) (BookingStatus, error) {
	switch st := BookingStatus(s); st {
	case StatusPending, StatusReserved, StatusConfirmed, StatusCheckedIn,
		StatusCheckedOut, StatusCancelled, StatusRejected, StatusNoShow:
		return st, nil
	case "missed_reservation":
		return StatusNoShow, nil
	}
	return "", fmt.Errorf("unknown booking status %q", s)
}

func (s BookingStatus) Valid() bool {
	_, err := ParseBookingStatus(string(s))
	return err == nil && s != "missed_reservation"
}

// CanTransitionTo checks the transition table.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal states accept no further transitions.
func (s BookingStatus) Terminal() bool {
	return len(bookingTransitions[s]) == 0
}

// BlocksInventory reports whether a booking in this state occupies its
// property for availability purposes.
func (s BookingStatus) BlocksInventory() bool {
	switch s {
	case StatusCancelled, StatusRejected, StatusCheckedOut, StatusNoShow:
		return false
	}
	return true
}

// HoldsInventory is true for states that have reserved the property.
// Leaving one of them by cancellation releases the hold.
func (s BookingStatus) HoldsInventory() bool {
	return s == StatusReserved || s == StatusConfirmed || s == StatusCheckedIn
}

// Editable reports whether guest-editable fields may still change.
func (s BookingStatus) Editable() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Active statuses are counted on the admin dashboard.
func (s BookingStatus) Active() bool {
	return s == StatusPending || s == StatusReserved || s == StatusCheckedIn
}

// ActiveStatuses lists the statuses counted by Active.
var ActiveStatuses = []BookingStatus{StatusPending, StatusReserved, StatusCheckedIn}

// NonBlockingStatuses lists the statuses ignored by availability checks.
var NonBlockingStatuses = []BookingStatus{StatusCancelled, StatusRejected, StatusCheckedOut, StatusNoShow}

type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

type PaymentMethod string

const (
	PaymentMethodPhysical PaymentMethod = "physical"
	PaymentMethodGateway  PaymentMethod = "gateway"
)

type Role string

const (
	RoleGuest Role = "guest"
	RoleStaff Role = "staff"
	RoleAdmin Role = "admin"
)

func (r Role) IsStaff() bool {
	return r == RoleStaff || r == RoleAdmin
}

type PropertyKind string

const (
	PropertyRoom PropertyKind = "room"
	PropertyArea PropertyKind = "area"
)

type PropertyStatus string

const (
	PropertyAvailable   PropertyStatus = "available"
	PropertyMaintenance PropertyStatus = "maintenance"
	PropertyOccupied    PropertyStatus = "occupied"
)

type TransactionType string

const (
	TransactionBooking            TransactionType = "booking"
	TransactionReservation        TransactionType = "reservation"
	TransactionCancellationRefund TransactionType = "cancellation_refund"
)

type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "completed"
	TransactionPending   TransactionStatus = "pending"
	TransactionFailed    TransactionStatus = "failed"
)

const NotificationCheckinReminder = "checkin_reminder"
