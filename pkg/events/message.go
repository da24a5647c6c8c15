package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Metadata keys set on every message.
const (
	MetadataEventID = "event_id"
	MetadataVersion = "event_version"
)

// Metadata identifies a notification on the wire.
type Metadata struct {
	EventID string
	Version int
}

// NewMessage encodes payload as JSON and stamps it with meta and the trace
// context of ctx. The event id doubles as the Watermill message UUID.
func NewMessage(ctx context.Context, meta Metadata, payload any) (*message.Message, error) {
	if meta.EventID == "" {
		return nil, fmt.Errorf("events: message without event id")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("events: marshal %s: %w", meta.EventID, err)
	}

	msg := message.NewMessage(meta.EventID, body)
	msg.Metadata.Set(MetadataEventID, meta.EventID)
	msg.Metadata.Set(MetadataVersion, strconv.Itoa(meta.Version))
	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(msg.Metadata))
	return msg, nil
}

// MessageContext returns ctx carrying the trace the publisher of msg was in.
func MessageContext(ctx context.Context, msg *message.Message) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(msg.Metadata))
}

// EventID returns the event id of msg, falling back to the message UUID.
func EventID(msg *message.Message) string {
	if id := msg.Metadata.Get(MetadataEventID); id != "" {
		return id
	}
	return msg.UUID
}
