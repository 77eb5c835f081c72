package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexibleBool(t *testing.T) {
	cases := map[string]bool{
		`true`: true, `"true"`: true, `1`: true, `"yes"`: true,
		`false`: false, `"0"`: false, `"off"`: false, `null`: false,
	}
	for in, want := range cases {
		var fb FlexibleBool
		require.NoError(t, json.Unmarshal([]byte(in), &fb), in)
		assert.Equal(t, want, fb.Bool(), in)
	}

	var fb FlexibleBool
	assert.Error(t, json.Unmarshal([]byte(`"maybe"`), &fb))
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(21, 2, 10)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 2, p.CurrentPage)
	assert.Equal(t, 21, p.TotalItems)

	assert.Equal(t, 0, NewPagination(0, 1, 10).TotalPages)
}

func TestBookingPropertyRef(t *testing.T) {
	room, area := int64(3), int64(9)

	kind, id := (&Booking{RoomID: &room}).PropertyRef()
	assert.Equal(t, PropertyRoom, kind)
	assert.Equal(t, int64(3), id)

	kind, id = (&Booking{IsVenueBooking: true, AreaID: &area}).PropertyRef()
	assert.Equal(t, PropertyArea, kind)
	assert.Equal(t, int64(9), id)
}
