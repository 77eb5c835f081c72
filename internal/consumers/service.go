package consumers

import (
	"context"

	"hotelbook/internal/logger"
	"hotelbook/internal/messaging"
	"hotelbook/internal/models"

	"github.com/nats-io/stan.go"
)

const queueGroup = "hotelbook-consumers"

// Subscriber is the part of the bus the consumers need.
type Subscriber interface {
	SubscribeQueue(subject, queue string, handler stan.MsgHandler) (stan.Subscription, error)
}

type ConsumerService struct {
	bus      Subscriber
	handlers *Handlers
	subs     []stan.Subscription
}

func NewConsumerService(bus Subscriber, handlers *Handlers) *ConsumerService {
	return &ConsumerService{bus: bus, handlers: handlers}
}

func (cs *ConsumerService) Start() error {
	log := logger.Get()
	log.Info("Starting NATS consumers")

	routes := []struct {
		subject string
		fn      func(ctx context.Context, data []byte) error
	}{
		{models.EventBookingChanged, cs.handlers.BookingChanged},
		{models.EventPaymentReconciled, cs.handlers.PaymentReconciled},
	}
	for _, r := range routes {
		sub, err := cs.bus.SubscribeQueue(r.subject, queueGroup, ack(r.subject, r.fn))
		if err != nil {
			return err
		}
		cs.subs = append(cs.subs, sub)
	}

	log.Info("All consumers started", "subscriptions", len(cs.subs))
	return nil
}

// Shutdown closes the subscriptions without removing their durable state.
func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	for _, sub := range cs.subs {
		if err := sub.Close(); err != nil {
			logger.Get().Error("Error closing subscription", "error", err)
		}
	}
	cs.subs = nil
	return nil
}

var _ Subscriber = (*messaging.NATSClient)(nil)
