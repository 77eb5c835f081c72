package cache

import (
	"context"
	"testing"
	"time"

	"hotelbook/internal/models"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listing struct {
	Rooms []int64 `json:"rooms"`
}

func TestAuthKeyHidesPassword(t *testing.T) {
	k := AuthKey("Alice", "s3cret")
	assert.Equal(t, k, AuthKey("alice", "s3cret"))
	assert.NotEqual(t, k, AuthKey("alice", "other"))
	assert.NotContains(t, k, "s3cret")
}

func TestGetAuthHitAndMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := newWithClient(db, time.Minute)
	ctx := context.Background()

	mock.ExpectGet(authPrefix + "k1").SetVal("7:staff")
	mock.ExpectGet(authPrefix + "k2").RedisNil()

	entry, err := c.GetAuth(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, &AuthEntry{UserID: 7, Role: models.RoleStaff}, entry)

	entry, err = c.GetAuth(ctx, "k2")
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetAuth(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := newWithClient(db, time.Minute)

	mock.ExpectSet(authPrefix+"k1", "7:guest", authTTL).SetVal("OK")
	require.NoError(t, c.SetAuth(context.Background(), "k1", AuthEntry{UserID: 7, Role: models.RoleGuest}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityIsVersioned(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := newWithClient(db, time.Minute)
	ctx := context.Background()

	mock.ExpectGet(availabilityVersion).RedisNil()
	mock.ExpectSet(availabilityPrefix+"0:q", []byte(`{"rooms":[1,2]}`), time.Minute).SetVal("OK")
	require.NoError(t, c.SetAvailability(ctx, "q", listing{Rooms: []int64{1, 2}}))

	mock.ExpectGet(availabilityVersion).RedisNil()
	mock.ExpectGet(availabilityPrefix + "0:q").SetVal(`{"rooms":[1,2]}`)
	var got listing
	hit, err := c.GetAvailability(ctx, "q", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []int64{1, 2}, got.Rooms)

	mock.ExpectIncr(availabilityVersion).SetVal(1)
	require.NoError(t, c.BumpAvailabilityVersion(ctx))

	mock.ExpectGet(availabilityVersion).SetVal("1")
	mock.ExpectGet(availabilityPrefix + "1:q").RedisNil()
	hit, err = c.GetAvailability(ctx, "q", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	assert.NoError(t, mock.ExpectationsWereMet())
}
