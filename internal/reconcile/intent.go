package reconcile

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"hotelbook/internal/availability"
	apperrors "hotelbook/internal/errors"
	"hotelbook/internal/models"

	"github.com/tidwall/gjson"
)

const (
	MetaBookingID   = "booking_id"
	MetaPrebooking  = "prebooking"
	MetaBookingData = "booking_data"
	MetaUserID      = "user_id"
)

// Intent says what a payment is for: an existing booking or one that is
// created once the payment settles.
type Intent interface {
	intent()
}

type ExistingBooking struct {
	ID int64
}

type DeferredBooking struct {
	Payload DeferredPayload
}

func (ExistingBooking) intent() {}
func (DeferredBooking) intent() {}

// DeferredPayload is the booking carried in the metadata of a pre-booking
// payment.
type DeferredPayload struct {
	UserID          int64
	Kind            models.PropertyKind
	PropertyID      int64
	CheckIn         time.Time
	CheckOut        time.Time
	StartTime       *string
	EndTime         *string
	ArrivalTime     *string
	FirstName       string
	LastName        string
	PhoneNumber     string
	SpecialRequests string
	NumberOfGuests  int
	// ClientTotal is informational; the price is recomputed on creation.
	ClientTotal *float64
}

// Interval is the time the booking would occupy.
func (p DeferredPayload) Interval() availability.Interval {
	if p.Kind == models.PropertyArea {
		return availability.VenueInterval(p.CheckIn, p.CheckOut, p.StartTime, p.EndTime)
	}
	return availability.RoomInterval(p.CheckIn, p.CheckOut)
}

// ParseIntent reads the payment intent from source metadata.
func ParseIntent(metadata map[string]string) (Intent, error) {
	if raw, ok := metadata[MetaBookingID]; ok && strings.TrimSpace(raw) != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || id <= 0 {
			return nil, apperrors.NewFieldValidation(MetaBookingID, "booking_id metadata is not a valid id")
		}
		return ExistingBooking{ID: id}, nil
	}

	if strings.EqualFold(metadata[MetaPrebooking], "true") {
		data, ok := metadata[MetaBookingData]
		if !ok || strings.TrimSpace(data) == "" {
			return nil, apperrors.NewFieldValidation(MetaBookingData, "pre-booking payment has no booking data")
		}
		payload, err := ParseDeferredPayload([]byte(data))
		if err != nil {
			return nil, err
		}
		// user_id may travel next to booking_data instead of inside it.
		if payload.UserID == 0 {
			if uid, err := strconv.ParseInt(metadata[MetaUserID], 10, 64); err == nil && uid > 0 {
				payload.UserID = uid
			}
		}
		if payload.UserID == 0 {
			return nil, apperrors.NewFieldValidation(MetaUserID, "pre-booking payment has no user")
		}
		return DeferredBooking{Payload: payload}, nil
	}

	return nil, apperrors.NewValidation("unknown_payment_intent", "payment metadata references no booking")
}

// ParseDeferredPayload validates booking_data. Numbers may be sent as JSON
// numbers or numeric strings. Dates accept YYYY-MM-DD or RFC 3339; venue
// start_time/end_time may be full timestamps that also carry the dates.
func ParseDeferredPayload(data []byte) (DeferredPayload, error) {
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return DeferredPayload{}, apperrors.NewFieldValidation(MetaBookingData, "booking data is not a JSON object")
	}
	doc := gjson.ParseBytes(data)
	fields := map[string]string{}

	p := DeferredPayload{
		FirstName:       doc.Get("first_name").String(),
		LastName:        doc.Get("last_name").String(),
		PhoneNumber:     doc.Get("phone_number").String(),
		SpecialRequests: doc.Get("special_requests").String(),
		NumberOfGuests:  1,
	}

	if v := doc.Get("user_id"); v.Exists() && v.String() != "" {
		id, ok := positiveInt(v)
		if !ok {
			fields["user_id"] = "must be a positive integer"
		}
		p.UserID = id
	}

	if v := doc.Get("number_of_guests"); v.Exists() && v.String() != "" {
		n, ok := positiveInt(v)
		if !ok {
			fields["number_of_guests"] = "must be a positive integer"
		}
		p.NumberOfGuests = int(n)
	}

	if v := doc.Get("total_price"); v.Exists() {
		if f, err := strconv.ParseFloat(v.String(), 64); err == nil {
			p.ClientTotal = &f
		}
	}

	roomID, areaID := doc.Get("room_id"), doc.Get("area_id")
	switch {
	case roomID.Exists() && roomID.String() != "" && areaID.Exists() && areaID.String() != "":
		fields["room_id"] = "only one of room_id and area_id may be set"
	case roomID.Exists() && roomID.String() != "":
		p.Kind = models.PropertyRoom
		id, ok := positiveInt(roomID)
		if !ok {
			fields["room_id"] = "must be a positive integer"
		}
		p.PropertyID = id
		parseRoomDates(doc, &p, fields)
	case areaID.Exists() && areaID.String() != "":
		p.Kind = models.PropertyArea
		id, ok := positiveInt(areaID)
		if !ok {
			fields["area_id"] = "must be a positive integer"
		}
		p.PropertyID = id
		parseVenueDates(doc, &p, fields)
	default:
		fields["room_id"] = "room_id or area_id is required"
	}

	if len(fields) > 0 {
		e := apperrors.NewValidation("invalid_booking_data", "booking data is invalid")
		e.Fields = fields
		return DeferredPayload{}, e
	}
	if !p.Interval().Valid() {
		return DeferredPayload{}, apperrors.NewValidation("date_range_invalid", "booking data ends before it starts")
	}
	return p, nil
}

func parseRoomDates(doc gjson.Result, p *DeferredPayload, fields map[string]string) {
	var err error
	if p.CheckIn, err = parseDay(doc.Get("check_in").String()); err != nil {
		fields["check_in"] = "must be a date"
	}
	if p.CheckOut, err = parseDay(doc.Get("check_out").String()); err != nil {
		fields["check_out"] = "must be a date"
	}
	if raw := doc.Get("arrival_time").String(); raw != "" {
		clock, err := parseClockOrTimestamp(raw)
		if err != nil {
			fields["arrival_time"] = "must be HH:MM or a timestamp"
		} else {
			p.ArrivalTime = &clock
		}
	}
}

func parseVenueDates(doc gjson.Result, p *DeferredPayload, fields map[string]string) {
	start, end := doc.Get("start_time").String(), doc.Get("end_time").String()

	// Full timestamps carry both the day and the time of day.
	if ts, err := time.Parse(time.RFC3339, start); err == nil {
		p.CheckIn = dayOf(ts)
		p.StartTime = clockOf(ts)
	}
	if ts, err := time.Parse(time.RFC3339, end); err == nil {
		p.CheckOut = dayOf(ts)
		p.EndTime = clockOf(ts)
	}

	var err error
	if p.CheckIn.IsZero() {
		if p.CheckIn, err = parseDay(doc.Get("check_in").String()); err != nil {
			fields["start_time"] = "must be a timestamp or check_in must be a date"
		}
	}
	if p.CheckOut.IsZero() {
		if p.CheckOut, err = parseDay(doc.Get("check_out").String()); err != nil {
			p.CheckOut = p.CheckIn
		}
	}
	if p.StartTime == nil && start != "" {
		if clock, err := parseClockOrTimestamp(start); err == nil {
			p.StartTime = &clock
		} else {
			fields["start_time"] = "must be HH:MM or a timestamp"
		}
	}
	if p.EndTime == nil && end != "" {
		if clock, err := parseClockOrTimestamp(end); err == nil {
			p.EndTime = &clock
		} else {
			fields["end_time"] = "must be HH:MM or a timestamp"
		}
	}
}

func positiveInt(v gjson.Result) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(v.String()), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func parseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return dayOf(ts), nil
	}
	return availability.ParseDate(s)
}

func parseClockOrTimestamp(s string) (string, error) {
	s = strings.TrimSpace(s)
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return *clockOf(ts), nil
	}
	d, err := availability.ParseClock(s)
	if err != nil {
		return "", err
	}
	clock := time.Time{}.Add(d).Format("15:04:05")
	return clock, nil
}

func dayOf(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func clockOf(ts time.Time) *string {
	s := ts.Format("15:04:05")
	return &s
}

// PrebookingMetadata builds the source metadata for a payment made before
// the booking exists. The user id is forced to the paying user.
func PrebookingMetadata(bookingData json.RawMessage, userID int64) (map[string]string, DeferredPayload, error) {
	var doc map[string]any
	if err := json.Unmarshal(bookingData, &doc); err != nil || doc == nil {
		return nil, DeferredPayload{}, apperrors.NewFieldValidation(MetaBookingData, "booking data is not a JSON object")
	}
	doc[MetaUserID] = userID

	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, DeferredPayload{}, apperrors.NewInternal("failed to encode booking data", err)
	}

	payload, err := ParseDeferredPayload(encoded)
	if err != nil {
		return nil, DeferredPayload{}, err
	}

	uid := strconv.FormatInt(userID, 10)
	return map[string]string{
		MetaPrebooking:  "true",
		MetaBookingData: string(encoded),
		MetaUserID:      uid,
	}, payload, nil
}
