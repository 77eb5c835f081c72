package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "hotelbook/internal/errors"
	"hotelbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func strp(s string) *string { return &s }
func idp(id int64) *int64 { return &id }

type fakeBookings struct {
	bookings []models.Booking
	err      error
}

func (f *fakeBookings) ListBlocking(ctx context.Context, kind models.PropertyKind, id int64, from, to time.Time) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range f.bookings {
		if k, pid := b.PropertyRef(); k == kind && pid == id {
			out = append(out, b)
		}
	}
	return out, f.err
}

func (f *fakeBookings) ListBlockingInRange(ctx context.Context, from, to time.Time) ([]models.Booking, error) {
	return f.bookings, f.err
}

func (f *fakeBookings) ListForProperty(ctx context.Context, kind models.PropertyKind, id int64, from, to *time.Time) ([]models.Booking, error) {
	return f.ListBlocking(ctx, kind, id, time.Time{}, time.Time{})
}

type fakeProperties struct {
	rooms []models.Room
	areas []models.Area
}

func (f *fakeProperties) ListAvailableRooms(ctx context.Context) ([]models.Room, error) {
	return f.rooms, nil
}

func (f *fakeProperties) ListAvailableAreas(ctx context.Context) ([]models.Area, error) {
	return f.areas, nil
}

type fakeCatalog struct{ rooms, areas []int64 }

func (f *fakeCatalog) SearchIDs(ctx context.Context, q string) ([]int64, []int64, error) {
	return f.rooms, f.areas, nil
}

type memCache struct {
	data map[string]*Listing
	sets int
}

func (m *memCache) GetAvailability(ctx context.Context, key string, dst any) (bool, error) {
	l, ok := m.data[key]
	if !ok {
		return false, nil
	}
	*dst.(*Listing) = *l
	return true, nil
}

func (m *memCache) SetAvailability(ctx context.Context, key string, v any) error {
	m.sets++
	m.data[key] = v.(*Listing)
	return nil
}

func roomBooking(roomID int64, in, out string, status models.BookingStatus) models.Booking {
	return models.Booking{RoomID: idp(roomID), CheckInDate: date(in), CheckOutDate: date(out), Status: status}
}

func TestOverlapsHalfOpen(t *testing.T) {
	existing := RoomInterval(date("2025-01-10"), date("2025-01-15"))

	assert.False(t, Overlaps(RoomInterval(date("2025-01-15"), date("2025-01-18")), existing), "back-to-back")
	assert.False(t, Overlaps(RoomInterval(date("2025-01-05"), date("2025-01-10")), existing), "back-to-back before")
	assert.True(t, Overlaps(RoomInterval(date("2025-01-12"), date("2025-01-16")), existing))
	assert.True(t, Overlaps(RoomInterval(date("2025-01-11"), date("2025-01-12")), existing), "contained")
	assert.True(t, Overlaps(RoomInterval(date("2025-01-01"), date("2025-01-31")), existing), "containing")
}

func TestIsAvailableBackToBackAndOverlap(t *testing.T) {
	store := &fakeBookings{bookings: []models.Booking{
		roomBooking(1, "2025-01-10", "2025-01-15", models.StatusReserved),
	}}
	c := NewChecker(store, &fakeProperties{}, nil, nil)
	ctx := context.Background()

	ok, err := c.IsAvailable(ctx, models.PropertyRoom, 1, RoomInterval(date("2025-01-15"), date("2025-01-18")))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.IsAvailable(ctx, models.PropertyRoom, 1, RoomInterval(date("2025-01-12"), date("2025-01-16")))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.IsAvailable(ctx, models.PropertyRoom, 2, RoomInterval(date("2025-01-12"), date("2025-01-16")))
	require.NoError(t, err)
	assert.True(t, ok, "other room is free")
}

func TestNonBlockingStatusesIgnored(t *testing.T) {
	for _, st := range models.NonBlockingStatuses {
		store := &fakeBookings{bookings: []models.Booking{roomBooking(1, "2025-01-10", "2025-01-15", st)}}
		c := NewChecker(store, &fakeProperties{}, nil, nil)

		ok, err := c.IsAvailable(context.Background(), models.PropertyRoom, 1, RoomInterval(date("2025-01-11"), date("2025-01-12")))
		require.NoError(t, err)
		assert.True(t, ok, st)
	}
}

func TestIsAvailablePropagatesStoreError(t *testing.T) {
	c := NewChecker(&fakeBookings{err: errors.New("db down")}, &fakeProperties{}, nil, nil)
	_, err := c.IsAvailable(context.Background(), models.PropertyRoom, 1, RoomInterval(date("2025-01-11"), date("2025-01-12")))
	assert.Error(t, err)
}

func TestVenueIntervals(t *testing.T) {
	morning := VenueInterval(date("2025-03-01"), date("2025-03-01"), strp("08:00"), strp("12:00"))
	afternoon := VenueInterval(date("2025-03-01"), date("2025-03-01"), strp("13:00:00"), strp("17:00:00"))
	lunch := VenueInterval(date("2025-03-01"), date("2025-03-01"), strp("11:00"), strp("14:00"))
	wholeDay := VenueInterval(date("2025-03-01"), date("2025-03-01"), nil, nil)

	assert.Equal(t, 4.0, morning.Hours())
	assert.False(t, Overlaps(morning, afternoon), "same date, no time overlap")
	assert.True(t, Overlaps(morning, lunch))
	assert.True(t, Overlaps(afternoon, lunch))
	assert.True(t, Overlaps(wholeDay, morning), "untimed booking holds the whole day")
	assert.Equal(t, 24.0, wholeDay.Hours())

	nextDay := VenueInterval(date("2025-03-02"), date("2025-03-02"), nil, nil)
	assert.False(t, Overlaps(wholeDay, nextDay))
}

func TestRequestedRange(t *testing.T) {
	iv, err := RequestedRange("2025-01-10", "2025-01-12")
	require.NoError(t, err)
	assert.Equal(t, 48.0, iv.Hours())

	_, err = RequestedRange("2025-01-12", "2025-01-10")
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = RequestedRange("2025-01-10", "2025-01-10")
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "empty range")

	_, err = RequestedRange("10/01/2025", "")
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "date_range_invalid", appErr.Code)
	assert.Contains(t, appErr.Fields, "arrival")
	assert.Contains(t, appErr.Fields, "departure")
}

func TestFreeProperties(t *testing.T) {
	store := &fakeBookings{bookings: []models.Booking{
		roomBooking(1, "2025-01-10", "2025-01-15", models.StatusConfirmed),
		roomBooking(2, "2025-01-10", "2025-01-15", models.StatusCancelled),
		{AreaID: idp(7), IsVenueBooking: true, CheckInDate: date("2025-01-11"), CheckOutDate: date("2025-01-11"), Status: models.StatusPending},
	}}
	props := &fakeProperties{
		rooms: []models.Room{{ID: 1, Name: "101", Price: "1000"}, {ID: 2, Name: "102", Price: "1000"}, {ID: 3, Name: "103", Price: "1500"}},
		areas: []models.Area{{ID: 7, Name: "Garden", PricePerHour: "500"}, {ID: 8, Name: "Hall", PricePerHour: "800"}},
	}
	cache := &memCache{data: map[string]*Listing{}}
	c := NewChecker(store, props, nil, cache)

	requested, err := RequestedRange("2025-01-11", "2025-01-13")
	require.NoError(t, err)

	listing, err := c.FreeProperties(context.Background(), requested, "")
	require.NoError(t, err)

	var roomIDs, areaIDs []int64
	for _, p := range listing.Rooms {
		roomIDs = append(roomIDs, p.ID)
	}
	for _, p := range listing.Areas {
		areaIDs = append(areaIDs, p.ID)
	}
	assert.Equal(t, []int64{2, 3}, roomIDs)
	assert.Equal(t, []int64{8}, areaIDs)
	assert.Equal(t, 1, cache.sets)

	// served from cache
	store.err = errors.New("should not be called")
	again, err := c.FreeProperties(context.Background(), requested, "")
	require.NoError(t, err)
	assert.Len(t, again.Rooms, 2)
}

func TestFreePropertiesCatalogFilter(t *testing.T) {
	props := &fakeProperties{
		rooms: []models.Room{{ID: 1, Name: "Deluxe"}, {ID: 2, Name: "Standard"}},
		areas: []models.Area{{ID: 7, Name: "Garden"}},
	}
	c := NewChecker(&fakeBookings{}, props, &fakeCatalog{rooms: []int64{1}}, nil)

	requested, err := RequestedRange("2025-01-11", "2025-01-13")
	require.NoError(t, err)

	listing, err := c.FreeProperties(context.Background(), requested, "deluxe")
	require.NoError(t, err)
	require.Len(t, listing.Rooms, 1)
	assert.Equal(t, int64(1), listing.Rooms[0].ID)
	assert.Empty(t, listing.Areas)
}

func TestSchedule(t *testing.T) {
	store := &fakeBookings{bookings: []models.Booking{
		roomBooking(1, "2025-01-10", "2025-01-15", models.StatusConfirmed),
		roomBooking(1, "2025-01-16", "2025-01-18", models.StatusCancelled),
		roomBooking(1, "2025-01-20", "2025-01-22", models.StatusCheckedOut),
	}}
	c := NewChecker(store, &fakeProperties{}, nil, nil)

	got, err := c.Schedule(context.Background(), models.PropertyRoom, 1, nil, nil)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
