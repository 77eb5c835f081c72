package pricing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteRoomLongStayDiscount(t *testing.T) {
	q, err := QuoteRoom("1000.00", 3, false)
	require.NoError(t, err)

	assert.Equal(t, 5, q.DiscountPercent)
	assert.Equal(t, 3000.0, q.OriginalTotal)
	assert.Equal(t, 2850.0, q.Total)
	assert.True(t, q.Discounted())
}

func TestQuoteRoomSeniorBeatsLongStay(t *testing.T) {
	q, err := QuoteRoom("1000", 3, true)
	require.NoError(t, err)

	assert.Equal(t, 20, q.DiscountPercent)
	assert.Equal(t, 2400.0, q.Total)

	q, err = QuoteRoom("1000", 10, true)
	require.NoError(t, err)
	assert.Equal(t, 20, q.DiscountPercent, "discounts must not stack")
	assert.Equal(t, 8000.0, q.Total)
}

func TestDiscountFor(t *testing.T) {
	tests := []struct {
		nights int
		senior bool
		want   int
	}{
		{1, false, 0},
		{2, false, 0},
		{3, false, 5},
		{6, false, 5},
		{7, false, 10},
		{30, false, 10},
		{1, true, 20},
		{7, true, 20},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DiscountFor(tt.nights, tt.senior), "nights=%d senior=%v", tt.nights, tt.senior)
	}
}

func TestQuoteRoomTotalMatchesFormula(t *testing.T) {
	for nights := 1; nights <= 14; nights++ {
		for _, senior := range []bool{false, true} {
			q, err := QuoteRoom("1499.50", nights, senior)
			require.NoError(t, err)
			want := float64(Minor(1499.50*float64(nights)*(1-float64(q.DiscountPercent)/100))) / 100
			assert.InDelta(t, want, q.Total, 0.011)
		}
	}
}

func TestQuoteRoomRejectsBadInput(t *testing.T) {
	var pe *PricingError

	_, err := QuoteRoom("", 2, false)
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, "rate", pe.Field)

	_, err = QuoteRoom("abc", 2, false)
	assert.True(t, errors.As(err, &pe))

	_, err = QuoteRoom("-10", 2, false)
	assert.True(t, errors.As(err, &pe))

	_, err = QuoteRoom("NaN", 2, false)
	assert.True(t, errors.As(err, &pe))

	_, err = QuoteRoom("1000", 0, false)
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, "nights", pe.Field)
}

func TestQuoteVenue(t *testing.T) {
	q, err := QuoteVenue("500", 4, false)
	require.NoError(t, err)
	assert.Equal(t, 0, q.DiscountPercent)
	assert.Equal(t, 2000.0, q.Total)

	q, err = QuoteVenue("500", 2.5, true)
	require.NoError(t, err)
	assert.Equal(t, 20, q.DiscountPercent)
	assert.Equal(t, 1250.0, q.OriginalTotal)
	assert.Equal(t, 1000.0, q.Total)

	// long stays of hours earn nothing extra
	q, err = QuoteVenue("100", 72, false)
	require.NoError(t, err)
	assert.Equal(t, 0, q.DiscountPercent)

	_, err = QuoteVenue("500", 0, false)
	assert.Error(t, err)
}

func TestMinorRoundTrip(t *testing.T) {
	assert.Equal(t, int64(285000), Minor(2850))
	assert.Equal(t, int64(1999), Minor(19.99))
	assert.Equal(t, 19.99, FromMinor(1999))
}
