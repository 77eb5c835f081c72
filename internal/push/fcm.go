package push

import (
	"context"
	"fmt"

	"hotelbook/internal/config"
	"hotelbook/internal/logger"
	"hotelbook/internal/notify"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// multicastLimit is the FCM cap on tokens per multicast request.
const multicastLimit = 500

type multicaster interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// FCM sends push notifications through Firebase Cloud Messaging.
type FCM struct {
	client multicaster
}

func NewFCM(ctx context.Context, cfg config.FirebaseConfig) (*FCM, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize FCM: %w", err)
	}
	return &FCM{client: client}, nil
}

// Send implements notify.PushSender. Tokens that FCM reports as
// unregistered or malformed are returned so the caller can drop them.
func (f *FCM) Send(ctx context.Context, tokens []string, msg notify.Message) ([]string, error) {
	var invalid []string
	for start := 0; start < len(tokens); start += multicastLimit {
		end := min(start+multicastLimit, len(tokens))
		batch := tokens[start:end]

		resp, err := f.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens: batch,
			Notification: &messaging.Notification{
				Title: msg.Title,
				Body:  msg.Body,
			},
			Data: withType(msg),
		})
		if err != nil {
			return invalid, fmt.Errorf("failed to send push: %w", err)
		}

		for i, r := range resp.Responses {
			if r.Success {
				continue
			}
			if messaging.IsUnregistered(r.Error) || messaging.IsInvalidArgument(r.Error) {
				invalid = append(invalid, batch[i])
			}
		}

		logger.WithContext(ctx).Debug("Push batch sent",
			"success", resp.SuccessCount,
			"failure", resp.FailureCount)
	}
	return invalid, nil
}

func withType(msg notify.Message) map[string]string {
	data := make(map[string]string, len(msg.Data)+1)
	for k, v := range msg.Data {
		data[k] = v
	}
	data["type"] = msg.Type
	return data
}
