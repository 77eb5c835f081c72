package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FlexibleBool accepts booleans encoded as JSON bools, numbers or strings.
type FlexibleBool bool

func (fb *FlexibleBool) UnmarshalJSON(data []byte) error {
	str := strings.Trim(string(data), `"`)

	switch strings.ToLower(str) {
	case "true", "1", "yes", "on":
		*fb = true
	case "false", "0", "no", "off", "", "null":
		*fb = false
	default:
		return fmt.Errorf("invalid boolean value: %s", str)
	}
	return nil
}

func (fb FlexibleBool) Bool() bool {
	return bool(fb)
}

// CreateBookingRequest is the body of POST /booking/bookings.
type CreateBookingRequest struct {
	IsVenueBooking  FlexibleBool `json:"is_venue_booking"`
	RoomID          *int64       `json:"room_id"`
	AreaID          *int64       `json:"area_id"`
	CheckIn         string       `json:"check_in" binding:"required,ymd"`
	CheckOut        string       `json:"check_out" binding:"required,ymd"`
	StartTime       string       `json:"start_time" binding:"omitempty,hhmm"`
	EndTime         string       `json:"end_time" binding:"omitempty,hhmm"`
	ArrivalTime     string       `json:"arrival_time" binding:"omitempty,hhmm"`
	FirstName       string       `json:"first_name" binding:"max=100"`
	LastName        string       `json:"last_name" binding:"max=100"`
	Email           string       `json:"email" binding:"omitempty,email"`
	PhoneNumber     string       `json:"phone_number" binding:"max=20"`
	NumberOfGuests  int          `json:"number_of_guests" binding:"required,min=1"`
	SpecialRequests string       `json:"special_requests"`
	PaymentMethod   string       `json:"payment_method" binding:"omitempty,oneof=physical gateway"`
	IsSeniorOrPWD   FlexibleBool `json:"is_senior_or_pwd"`
}

// UpdateBookingRequest carries only guest-editable fields.
type UpdateBookingRequest struct {
	PhoneNumber    *string `json:"phone_number" binding:"omitempty,max=20"`
	SpecialRequest *string `json:"special_request"`
	NumberOfGuests *int    `json:"number_of_guests" binding:"omitempty,min=1"`
	ArrivalTime    *string `json:"arrival_time" binding:"omitempty,hhmm"`
}

func (r UpdateBookingRequest) Empty() bool {
	return r.PhoneNumber == nil && r.SpecialRequest == nil && r.NumberOfGuests == nil && r.ArrivalTime == nil
}

type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,booking_status"`
	Reason string `json:"reason"`
}

type ReviewRequest struct {
	Rating     int    `json:"rating" binding:"required,min=1,max=5"`
	ReviewText string `json:"review_text" binding:"max=2000"`
}

// CreateSourceRequest starts a gateway payment for an existing booking.
// Amount is in pesos; when nil the payer enters it on the hosted page.
type CreateSourceRequest struct {
	Amount     *float64 `json:"amount" binding:"omitempty,gt=0"`
	Type       string   `json:"type"`
	SuccessURL string   `json:"success_url" binding:"omitempty,url"`
	FailedURL  string   `json:"failed_url" binding:"omitempty,url"`
}

// CreatePrebookingSourceRequest starts a payment before any booking exists.
type CreatePrebookingSourceRequest struct {
	Amount      float64         `json:"amount" binding:"required,gt=0"`
	Type        string          `json:"type"`
	BookingData json.RawMessage `json:"booking_data" binding:"required"`
	SuccessURL  string          `json:"success_url" binding:"required,url"`
	FailedURL   string          `json:"failed_url" binding:"required,url"`
}

type SourceResponse struct {
	SourceID    string `json:"source_id"`
	CheckoutURL string `json:"checkout_url"`
	Status      string `json:"status"`
	Amount      *int64 `json:"amount,omitempty"`
	BookingID   *int64 `json:"booking_id,omitempty"`
}

type VerifyResponse struct {
	SourceID      string        `json:"source_id"`
	SourceStatus  string        `json:"source_status"`
	Applied       bool          `json:"applied"`
	BookingID     *int64        `json:"booking_id,omitempty"`
	PaymentStatus PaymentStatus `json:"payment_status,omitempty"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token" binding:"required,max=255"`
	Platform string `json:"platform" binding:"omitempty,oneof=android ios web"`
}

type AvailabilityResponse struct {
	Arrival   string     `json:"arrival"`
	Departure string     `json:"departure"`
	Rooms     []Property `json:"rooms"`
	Areas     []Property `json:"areas"`
}

type Pagination struct {
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
	TotalItems  int `json:"total_items"`
	PageSize    int `json:"page_size"`
}

func NewPagination(total, page, pageSize int) Pagination {
	pages := 0
	if pageSize > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	return Pagination{TotalPages: pages, CurrentPage: page, TotalItems: total, PageSize: pageSize}
}

type ListBookingsResponse struct {
	Data       []Booking  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type CountResponse struct {
	Count int `json:"count"`
}
