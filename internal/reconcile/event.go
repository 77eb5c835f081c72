package reconcile

import (
	apperrors "hotelbook/internal/errors"
	"hotelbook/internal/external"
	"hotelbook/internal/pricing"

	"github.com/tidwall/gjson"
)

const (
	EventSourceChargeable = "source.chargeable"
	EventPaymentPaid      = "payment.paid"
	EventPaymentFailed    = "payment.failed"
)

const (
	StatusChargeable = "chargeable"
	StatusPaid       = "paid"
	StatusFailed     = "failed"
)

// Event is a gateway notification normalized for both the webhook and the
// verify poll.
type Event struct {
	Type       string
	ResourceID string
	// SourceID is the payment source the event belongs to. For source
	// events it equals ResourceID; payment events carry it under
	// attributes.source.id.
	SourceID string
	Status   string
	// Amount is in centavos.
	Amount   *int64
	Metadata map[string]string
}

// Known reports whether the event type is handled at all.
func (e Event) Known() bool {
	switch e.Type {
	case EventSourceChargeable, EventPaymentPaid, EventPaymentFailed:
		return true
	}
	return false
}

// Settles reports whether the event marks the booking as paid.
func (e Event) Settles() bool {
	return (e.Type == EventSourceChargeable && e.Status == StatusChargeable) ||
		(e.Type == EventPaymentPaid && e.Status == StatusPaid)
}

func (e Event) Fails() bool {
	return e.Type == EventPaymentFailed
}

// PaymentID returns the payment resource id for payment events. Events
// synthesized from a polled source carry none.
func (e Event) PaymentID() string {
	if (e.Type == EventPaymentPaid || e.Type == EventPaymentFailed) && e.ResourceID != e.SourceID {
		return e.ResourceID
	}
	return ""
}

// ParseWebhook extracts the event from a webhook body:
// data.attributes.type and the resource under data.attributes.data.
func ParseWebhook(body []byte) (Event, error) {
	if !gjson.ValidBytes(body) {
		return Event{}, apperrors.NewValidation("malformed_payload", "webhook body is not valid JSON")
	}

	eventType := gjson.GetBytes(body, "data.attributes.type")
	if !eventType.Exists() || eventType.String() == "" {
		return Event{}, apperrors.NewValidation("malformed_payload", "webhook event type is missing")
	}

	resource := gjson.GetBytes(body, "data.attributes.data")
	if !resource.IsObject() {
		return Event{}, apperrors.NewValidation("malformed_payload", "webhook resource is missing")
	}

	ev := Event{
		Type:       eventType.String(),
		ResourceID: resource.Get("id").String(),
		Status:     resource.Get("attributes.status").String(),
		Metadata:   map[string]string{},
	}

	if amount := resource.Get("attributes.amount"); amount.Exists() && amount.Type == gjson.Number {
		v := amount.Int()
		ev.Amount = &v
	}

	resource.Get("attributes.metadata").ForEach(func(key, value gjson.Result) bool {
		ev.Metadata[key.String()] = value.String()
		return true
	})

	switch {
	case resource.Get("type").String() == "source" || ev.Type == EventSourceChargeable:
		ev.SourceID = ev.ResourceID
	default:
		ev.SourceID = resource.Get("attributes.source.id").String()
	}

	if ev.Known() && ev.ResourceID == "" {
		return Event{}, apperrors.NewValidation("malformed_payload", "webhook resource id is missing")
	}
	return ev, nil
}

// EventFromSource maps a polled source onto the event the webhook would
// have delivered. ok is false for statuses that need no action.
func EventFromSource(src *external.Source) (ev Event, ok bool) {
	ev = Event{
		ResourceID: src.ID,
		SourceID:   src.ID,
		Status:     src.Attributes.Status,
		Amount:     src.Attributes.Amount,
		Metadata:   src.Attributes.Metadata,
	}
	if ev.Metadata == nil {
		ev.Metadata = map[string]string{}
	}

	switch src.Attributes.Status {
	case StatusChargeable:
		ev.Type = EventSourceChargeable
	case StatusPaid:
		ev.Type = EventPaymentPaid
	case StatusFailed:
		ev.Type = EventPaymentFailed
	default:
		return ev, false
	}
	return ev, true
}

// AmountPesos converts the event amount to pesos.
func (e Event) AmountPesos() (float64, bool) {
	if e.Amount == nil {
		return 0, false
	}
	return pricing.FromMinor(*e.Amount), true
}
