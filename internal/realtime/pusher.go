package realtime

import (
	"context"
	"fmt"
	"net/url"

	"hotelbook/internal/config"
	apperrors "hotelbook/internal/errors"
	"hotelbook/internal/logger"
	"hotelbook/internal/notify"

	"github.com/pusher/pusher-http-go/v5"
)

// channelClient is the subset of the pusher client in use.
type channelClient interface {
	Trigger(channel string, eventName string, data interface{}) error
	AuthorizePrivateChannel(params []byte) (response []byte, err error)
}

// Pusher publishes realtime events and authorizes private channels.
type Pusher struct {
	client channelClient
}

func NewPusher(cfg config.PusherConfig) *Pusher {
	return &Pusher{
		client: &pusher.Client{
			AppID:   cfg.AppID,
			Key:     cfg.Key,
			Secret:  cfg.Secret,
			Cluster: cfg.Cluster,
			Secure:  true,
		},
	}
}

func newWithClient(client channelClient) *Pusher {
	return &Pusher{client: client}
}

// Trigger implements notify.Broadcaster.
func (p *Pusher) Trigger(ctx context.Context, channel, event string, data any) error {
	if err := p.client.Trigger(channel, event, data); err != nil {
		return fmt.Errorf("failed to trigger %s on %s: %w", event, channel, err)
	}
	logger.WithContext(ctx).Debug("Realtime event triggered", "channel", channel, "event", event)
	return nil
}

// AuthorizePrivateChannel signs a subscription for the caller's own
// private channel. params is the form body sent by the client library
// (socket_id and channel_name).
func (p *Pusher) AuthorizePrivateChannel(userID int64, params []byte) ([]byte, error) {
	values, err := url.ParseQuery(string(params))
	if err != nil {
		return nil, apperrors.NewValidation("invalid_channel_auth", "channel authorization body is malformed")
	}
	channel := values.Get("channel_name")
	if values.Get("socket_id") == "" || channel == "" {
		return nil, apperrors.NewValidation("invalid_channel_auth", "socket_id and channel_name are required")
	}
	if channel != notify.UserChannel(userID) {
		return nil, apperrors.NewForbidden("channel_forbidden", "cannot subscribe to another user's channel")
	}

	resp, err := p.client.AuthorizePrivateChannel(params)
	if err != nil {
		return nil, apperrors.NewValidation("invalid_channel_auth", err.Error())
	}
	return resp, nil
}
