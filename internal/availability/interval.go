package availability

import (
	"fmt"
	"strings"
	"time"

	apperrors "hotelbook/internal/errors"
	"hotelbook/internal/models"
)

const (
	DateLayout = "2006-01-02"
	day        = 24 * time.Hour
)

// Interval is a half-open [Start, End) range.
type Interval struct {
	Start time.Time
	End   time.Time
}

func (i Interval) Valid() bool {
	return i.End.After(i.Start)
}

func (i Interval) Hours() float64 {
	return i.End.Sub(i.Start).Hours()
}

func (i Interval) String() string {
	return fmt.Sprintf("[%s, %s)", i.Start.Format(time.RFC3339), i.End.Format(time.RFC3339))
}

// Overlaps reports whether a and b share any instant. Back-to-back
// intervals do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

// ParseDate parses a YYYY-MM-DD date at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}

// ParseClock parses HH:MM or HH:MM:SS into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q", s)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RoomInterval covers the nights between check-in and check-out.
func RoomInterval(checkIn, checkOut time.Time) Interval {
	return Interval{Start: truncateDay(checkIn), End: truncateDay(checkOut)}
}

// VenueInterval uses date plus time of day when both times are present,
// otherwise the venue is held for every whole day from check-in through
// check-out.
func VenueInterval(checkIn, checkOut time.Time, start, end *string) Interval {
	in, out := truncateDay(checkIn), truncateDay(checkOut)
	if start != nil && end != nil && *start != "" && *end != "" {
		s, errS := ParseClock(*start)
		e, errE := ParseClock(*end)
		if errS == nil && errE == nil {
			return Interval{Start: in.Add(s), End: out.Add(e)}
		}
	}
	return Interval{Start: in, End: out.Add(day)}
}

// BookingInterval is the interval an existing booking occupies.
func BookingInterval(b *models.Booking) Interval {
	if b.IsVenueBooking {
		return VenueInterval(b.CheckInDate, b.CheckOutDate, b.StartTime, b.EndTime)
	}
	return RoomInterval(b.CheckInDate, b.CheckOutDate)
}

// RequestedRange validates an arrival/departure query.
func RequestedRange(arrival, departure string) (Interval, error) {
	fields := map[string]string{}
	start, err := ParseDate(arrival)
	if err != nil {
		fields["arrival"] = "must be a YYYY-MM-DD date"
	}
	end, err := ParseDate(departure)
	if err != nil {
		fields["departure"] = "must be a YYYY-MM-DD date"
	}
	if len(fields) > 0 {
		e := apperrors.NewValidation("date_range_invalid", "invalid date range")
		e.Fields = fields
		return Interval{}, e
	}

	iv := Interval{Start: start, End: end}
	if !iv.Valid() {
		return Interval{}, apperrors.NewValidation("date_range_invalid", "departure must be after arrival")
	}
	return iv, nil
}

// FirstConflict returns the first blocking booking overlapping requested.
func FirstConflict(requested Interval, existing []models.Booking) *models.Booking {
	for i := range existing {
		b := &existing[i]
		if !b.Status.BlocksInventory() {
			continue
		}
		if Overlaps(requested, BookingInterval(b)) {
			return b
		}
	}
	return nil
}
