package models

import (
	"time"
)

type User struct {
	ID              int64      `json:"id" db:"id"`
	Email           *string    `json:"email" db:"email"`
	Username        string     `json:"username" db:"username"`
	PasswordHash    string     `json:"-" db:"password_hash"`
	FirstName       string     `json:"first_name" db:"first_name"`
	LastName        string     `json:"last_name" db:"last_name"`
	PhoneNumber     string     `json:"phone_number" db:"phone_number"`
	Role            Role       `json:"role" db:"role"`
	IsSeniorOrPWD   bool       `json:"is_senior_or_pwd" db:"is_senior_or_pwd"`
	IsActive        bool       `json:"is_active" db:"is_active"`
	LastBookingDate *time.Time `json:"last_booking_date,omitempty" db:"last_booking_date"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

type Room struct {
	ID          int64          `json:"id" db:"id"`
	Name        string         `json:"room_name" db:"room_name"`
	RoomType    string         `json:"room_type" db:"room_type"`
	BedType     string         `json:"bed_type" db:"bed_type"`
	Status      PropertyStatus `json:"status" db:"status"`
	Price       string         `json:"room_price" db:"room_price"`
	MaxGuests   int            `json:"max_guests" db:"max_guests"`
	Description string         `json:"description" db:"description"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

type Area struct {
	ID           int64          `json:"id" db:"id"`
	Name         string         `json:"area_name" db:"area_name"`
	Capacity     int            `json:"capacity" db:"capacity"`
	PricePerHour string         `json:"price_per_hour" db:"price_per_hour"`
	Status       PropertyStatus `json:"status" db:"status"`
	Description  string         `json:"description" db:"description"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// Property is the kind-agnostic view of a room or area.
type Property struct {
	Kind        PropertyKind   `json:"kind"`
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Status      PropertyStatus `json:"status"`
	Rate        string         `json:"rate"`
	Capacity    int            `json:"capacity"`
	Description string         `json:"description"`
}

func (r *Room) AsProperty() Property {
	return Property{Kind: PropertyRoom, ID: r.ID, Name: r.Name, Status: r.Status, Rate: r.Price, Capacity: r.MaxGuests, Description: r.Description}
}

func (a *Area) AsProperty() Property {
	return Property{Kind: PropertyArea, ID: a.ID, Name: a.Name, Status: a.Status, Rate: a.PricePerHour, Capacity: a.Capacity, Description: a.Description}
}

type Booking struct {
	ID                 int64         `json:"id" db:"id"`
	UserID             int64         `json:"user_id" db:"user_id"`
	RoomID             *int64        `json:"room_id" db:"room_id"`
	AreaID             *int64        `json:"area_id" db:"area_id"`
	IsVenueBooking     bool          `json:"is_venue_booking" db:"is_venue_booking"`
	CheckInDate        time.Time     `json:"check_in_date" db:"check_in_date"`
	CheckOutDate       time.Time     `json:"check_out_date" db:"check_out_date"`
	StartTime          *string       `json:"start_time" db:"start_time"`
	EndTime            *string       `json:"end_time" db:"end_time"`
	TimeOfArrival      *string       `json:"time_of_arrival" db:"time_of_arrival"`
	Status             BookingStatus `json:"status" db:"status"`
	TotalPrice         float64       `json:"total_price" db:"total_price"`
	OriginalPrice      float64       `json:"original_price" db:"original_price"`
	DiscountPercent    int           `json:"discount_percent" db:"discount_percent"`
	DownPayment        *float64      `json:"down_payment" db:"down_payment"`
	PaymentMethod      PaymentMethod `json:"payment_method" db:"payment_method"`
	PaymentStatus      PaymentStatus `json:"payment_status" db:"payment_status"`
	PaymentDate        *time.Time    `json:"payment_date" db:"payment_date"`
	PaymongoSourceID   *string       `json:"paymongo_source_id" db:"paymongo_source_id"`
	PaymongoPaymentID  *string       `json:"paymongo_payment_id" db:"paymongo_payment_id"`
	IsDiscounted       bool          `json:"is_discounted" db:"is_discounted"`
	NumberOfGuests     int           `json:"number_of_guests" db:"number_of_guests"`
	PhoneNumber        string        `json:"phone_number" db:"phone_number"`
	SpecialRequest     string        `json:"special_request" db:"special_request"`
	CancellationReason *string       `json:"cancellation_reason" db:"cancellation_reason"`
	CancellationDate   *time.Time    `json:"cancellation_date" db:"cancellation_date"`
	HasFoodOrder       bool          `json:"has_food_order" db:"has_food_order"`
	CreatedAt          time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at" db:"updated_at"`
	PropertyName       string        `json:"property_name,omitempty"` // joined from rooms/areas
}

// PropertyRef returns the kind and id of the booked room or area.
func (b *Booking) PropertyRef() (PropertyKind, int64) {
	if b.IsVenueBooking && b.AreaID != nil {
		return PropertyArea, *b.AreaID
	}
	if b.RoomID != nil {
		return PropertyRoom, *b.RoomID
	}
	return "", 0
}

type Transaction struct {
	ID              int64             `json:"id" db:"id"`
	BookingID       int64             `json:"booking_id" db:"booking_id"`
	UserID          int64             `json:"user_id" db:"user_id"`
	Type            TransactionType   `json:"transaction_type" db:"transaction_type"`
	Amount          float64           `json:"amount" db:"amount"`
	Status          TransactionStatus `json:"status" db:"status"`
	TransactionDate time.Time         `json:"transaction_date" db:"transaction_date"`
}

type Notification struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	BookingID *int64    `json:"booking_id" db:"booking_id"`
	Type      string    `json:"notification_type" db:"notification_type"`
	Message   string    `json:"message" db:"message"`
	IsRead    bool      `json:"is_read" db:"is_read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Review struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	BookingID  int64     `json:"booking_id" db:"booking_id"`
	RoomID     *int64    `json:"room_id" db:"room_id"`
	AreaID     *int64    `json:"area_id" db:"area_id"`
	Rating     int       `json:"rating" db:"rating"`
	ReviewText string    `json:"review_text" db:"review_text"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type DeviceToken struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Token     string    `json:"token" db:"token"`
	Platform  string    `json:"platform" db:"platform"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
