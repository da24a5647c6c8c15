package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestNewMessage(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background()) //nolint:errcheck
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	ctx, span := otel.Tracer("test").Start(context.Background(), "buy")
	defer span.End()

	payload := map[string]any{"token_id": 7, "price": "0.1"}
	msg, err := NewMessage(ctx, Metadata{EventID: "evt-7", Version: 1}, payload)
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	if msg.UUID != "evt-7" || EventID(msg) != "evt-7" || msg.Metadata.Get(MetadataVersion) != "1" {
		t.Fatalf("unexpected metadata: uuid=%s %v", msg.UUID, msg.Metadata)
	}

	var got map[string]any
	if err := json.Unmarshal(msg.Payload, &got); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if got["token_id"] != float64(7) || got["price"] != "0.1" {
		t.Fatalf("unexpected payload: %v", got)
	}

	restored := trace.SpanFromContext(MessageContext(context.Background(), msg)).SpanContext()
	if !restored.IsValid() || restored.TraceID() != span.SpanContext().TraceID() {
		t.Fatalf("trace not restored: %v", restored)
	}
}

func TestNewMessage_Rejects(t *testing.T) {
	if _, err := NewMessage(context.Background(), Metadata{}, struct{}{}); err == nil {
		t.Fatal("expected error without event id")
	}
	if _, err := NewMessage(context.Background(), Metadata{EventID: "e"}, make(chan int)); err == nil {
		t.Fatal("expected marshal error")
	}
}

func TestEventID_FallsBackToUUID(t *testing.T) {
	msg := message.NewMessage("uuid-1", nil)
	if got := EventID(msg); got != "uuid-1" {
		t.Fatalf("expected uuid fallback, got %q", got)
	}
}
