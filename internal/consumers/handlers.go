package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hotelbook/internal/logger"
	"hotelbook/internal/models"

	"github.com/nats-io/stan.go"
)

const handlerTimeout = 20 * time.Second

// PropertyStore loads the current catalog entry of a property.
type PropertyStore interface {
	Get(ctx context.Context, kind models.PropertyKind, id int64) (*models.Property, error)
}

// Indexer keeps the search catalog in step with the database.
type Indexer interface {
	IndexProperty(ctx context.Context, p models.Property) error
	DeleteProperty(ctx context.Context, kind models.PropertyKind, id int64) error
}

// CacheInvalidator drops cached availability listings.
type CacheInvalidator interface {
	BumpAvailabilityVersion(ctx context.Context) error
}

// Handlers process bus events. Indexer and cache are optional.
type Handlers struct {
	properties PropertyStore
	indexer    Indexer
	cache      CacheInvalidator
}

func NewHandlers(properties PropertyStore, indexer Indexer, cache CacheInvalidator) *Handlers {
	return &Handlers{properties: properties, indexer: indexer, cache: cache}
}

// ack wraps fn as a manual-ack handler. Failed messages stay unacked and
// are redelivered after the ack wait; undecodable ones are acked and
// dropped.
func ack(subject string, fn func(ctx context.Context, data []byte) error) stan.MsgHandler {
	return func(m *stan.Msg) {
		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()

		err := fn(ctx, m.Data)
		var bad *badPayload
		switch {
		case err == nil:
		case errors.As(err, &bad):
			logger.Get().Error("Dropping undecodable message", "subject", subject, "error", err)
		default:
			logger.Get().Error("Failed to process message, awaiting redelivery",
				"subject", subject,
				"sequence", m.Sequence,
				"redelivered", m.Redelivered,
				"error", err)
			return
		}
		if err := m.Ack(); err != nil {
			logger.Get().Error("Failed to ack message", "subject", subject, "error", err)
		}
	}
}

type badPayload struct{ err error }

func (e *badPayload) Error() string { return "bad payload: " + e.err.Error() }
func (e *badPayload) Unwrap() error { return e.err }

// BookingChanged refreshes the catalog document of the booked property and
// invalidates cached listings.
func (h *Handlers) BookingChanged(ctx context.Context, data []byte) error {
	var event models.BookingChangedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return &badPayload{err}
	}
	if event.PropertyID == 0 {
		return &badPayload{fmt.Errorf("booking %d has no property", event.BookingID)}
	}

	log := logger.Get().With(
		"booking_id", event.BookingID,
		"property_kind", event.PropertyKind,
		"property_id", event.PropertyID,
		"status", event.Current)
	log.Debug("Processing booking changed event")

	if h.cache != nil {
		if err := h.cache.BumpAvailabilityVersion(ctx); err != nil {
			log.Warn("Failed to invalidate availability cache", "error", err)
		}
	}

	if h.indexer == nil {
		return nil
	}
	property, err := h.properties.Get(ctx, event.PropertyKind, event.PropertyID)
	if err != nil {
		return fmt.Errorf("failed to load property: %w", err)
	}
	if property == nil {
		if err := h.indexer.DeleteProperty(ctx, event.PropertyKind, event.PropertyID); err != nil {
			return fmt.Errorf("failed to delete catalog entry: %w", err)
		}
		return nil
	}
	if err := h.indexer.IndexProperty(ctx, *property); err != nil {
		return fmt.Errorf("failed to reindex property: %w", err)
	}
	return nil
}

// PaymentReconciled audits reconciled gateway events in the log stream.
func (h *Handlers) PaymentReconciled(ctx context.Context, data []byte) error {
	var event models.PaymentReconciledEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return &badPayload{err}
	}

	logger.Get().Info("Payment reconciled",
		"booking_id", event.BookingID,
		"source_id", event.SourceID,
		"event_type", event.EventType,
		"payment_status", event.PaymentStatus,
		"created", event.Created)
	return nil
}
