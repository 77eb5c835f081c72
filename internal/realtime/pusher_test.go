package realtime

import (
	"context"
	"errors"
	"testing"

	apperrors "hotelbook/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	channel string
	event   string
	err     error
	authed  []byte
}

func (f *fakeClient) Trigger(channel, event string, data interface{}) error {
	f.channel, f.event = channel, event
	return f.err
}

func (f *fakeClient) AuthorizePrivateChannel(params []byte) ([]byte, error) {
	f.authed = params
	return []byte(`{"auth":"key:sig"}`), nil
}

func TestTriggerWrapsError(t *testing.T) {
	fc := &fakeClient{err: errors.New("boom")}
	p := newWithClient(fc)

	err := p.Trigger(context.Background(), "admin-notifications", "booking-changed", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin-notifications")
	assert.Equal(t, "booking-changed", fc.event)
}

func TestAuthorizeOwnChannelOnly(t *testing.T) {
	fc := &fakeClient{}
	p := newWithClient(fc)

	resp, err := p.AuthorizePrivateChannel(7, []byte("socket_id=123.456&channel_name=private-user-7"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"auth":"key:sig"}`, string(resp))

	_, err = p.AuthorizePrivateChannel(7, []byte("socket_id=123.456&channel_name=private-user-8"))
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	_, err = p.AuthorizePrivateChannel(7, []byte("channel_name=private-user-7"))
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}
