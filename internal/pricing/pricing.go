// Package pricing computes booking totals and discounts.
//
// Amounts are handled in centavos internally and exposed as pesos rounded to
// two decimals.
package pricing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	SeniorPWDDiscountPercent  = 20
	WeeklyStayDiscountPercent = 10
	ShortStayDiscountPercent  = 5

	weeklyStayNights = 7
	shortStayNights  = 3
)

// PricingError reports a rate or duration that cannot be priced.
type PricingError struct {
	Field  string
	Reason string
}

func (e *PricingError) Error() string {
	return fmt.Sprintf("pricing: %s %s", e.Field, e.Reason)
}

// Quote is the priced result of a stay.
type Quote struct {
	Rate            float64 `json:"rate"`
	Units           float64 `json:"units"`
	OriginalTotal   float64 `json:"original_total"`
	DiscountPercent int     `json:"discount_percent"`
	Total           float64 `json:"total"`
}

func (q Quote) Discounted() bool {
	return q.DiscountPercent > 0
}

// ParseRate parses a decimal rate as stored by the database.
func ParseRate(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, &PricingError{Field: "rate", Reason: "is missing"}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &PricingError{Field: "rate", Reason: fmt.Sprintf("is not numeric: %q", raw)}
	}
	return v, validateRate(v)
}

func validateRate(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &PricingError{Field: "rate", Reason: "is not a finite number"}
	}
	if v <= 0 {
		return &PricingError{Field: "rate", Reason: "must be positive"}
	}
	return nil
}

// DiscountFor picks the single applicable room discount. Senior/PWD
// eligibility wins over long-stay discounts; they never stack.
func DiscountFor(nights int, seniorOrPWD bool) int {
	switch {
	case seniorOrPWD:
		return SeniorPWDDiscountPercent
	case nights >= weeklyStayNights:
		return WeeklyStayDiscountPercent
	case nights >= shortStayNights:
		return ShortStayDiscountPercent
	}
	return 0
}

// QuoteRoom prices a room stay of the given number of nights.
func QuoteRoom(rate string, nights int, seniorOrPWD bool) (Quote, error) {
	r, err := ParseRate(rate)
	if err != nil {
		return Quote{}, err
	}
	if nights <= 0 {
		return Quote{}, &PricingError{Field: "nights", Reason: "must be positive"}
	}
	return quote(r, float64(nights), DiscountFor(nights, seniorOrPWD)), nil
}

// QuoteVenue prices an hourly area booking. Only the senior/PWD discount
// applies to venues.
func QuoteVenue(hourlyRate string, hours float64, seniorOrPWD bool) (Quote, error) {
	r, err := ParseRate(hourlyRate)
	if err != nil {
		return Quote{}, err
	}
	if hours <= 0 || math.IsNaN(hours) || math.IsInf(hours, 0) {
		return Quote{}, &PricingError{Field: "hours", Reason: "must be positive"}
	}
	discount := 0
	if seniorOrPWD {
		discount = SeniorPWDDiscountPercent
	}
	return quote(r, hours, discount), nil
}

func quote(rate, units float64, discount int) Quote {
	rateMinor := float64(Minor(rate))
	original := math.Round(rateMinor * units)
	total := math.Round(rateMinor * units * float64(100-discount) / 100)
	return Quote{
		Rate:            rate,
		Units:           units,
		OriginalTotal:   FromMinor(int64(original)),
		DiscountPercent: discount,
		Total:           FromMinor(int64(total)),
	}
}

// Minor converts pesos to centavos.
func Minor(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromMinor converts centavos to pesos.
func FromMinor(minor int64) float64 {
	return float64(minor) / 100
}
