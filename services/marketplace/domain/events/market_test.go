package events_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ghuser/nftmarket/services/marketplace/domain/events"
)

func TestItemPurchased_JSONFieldNames(t *testing.T) {
	evt := events.ItemPurchased{
		Meta:     events.NewMeta(time.Now()),
		TokenID:  1,
		Seller:   "0x70997970c51812dc3a010c7d01b50e0d17dc79c8",
		Buyer:    "0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc",
		Price:    decimal.RequireFromString("0.1"),
		Fee:      decimal.RequireFromString("0.00025"),
		Proceeds: decimal.RequireFromString("0.09975"),
	}

	data, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal to map failed: %v", err)
	}

	for _, field := range []string{"event_id", "version", "occurred_at", "token_id", "seller", "buyer", "price", "fee", "proceeds"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("expected JSON field %q not found in: %s", field, data)
		}
	}
	if raw["price"] != "0.1" {
		t.Errorf("price should be encoded as a decimal string, got %v", raw["price"])
	}
}

func TestMarketItemCreated_Decode(t *testing.T) {
	payload := `{"event_id":"550e8400-e29b-41d4-a716-446655440001","version":1,"occurred_at":"2025-01-15T12:00:00Z",` +
		`"token_id":7,"seller":"0x70997970c51812dc3a010c7d01b50e0d17dc79c8","price":"0.25","descriptor":"ipfs://x"}`

	var evt events.MarketItemCreated
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		t.Fatalf("json.Unmarshal failed: %v", err)
	}
	if evt.EventID != uuid.MustParse("550e8400-e29b-41d4-a716-446655440001") {
		t.Errorf("EventID: got %v", evt.EventID)
	}
	if evt.TokenID != 7 || evt.Descriptor != "ipfs://x" {
		t.Errorf("unexpected event: %+v", evt)
	}
	if !evt.Price.Equal(decimal.RequireFromString("0.25")) {
		t.Errorf("Price: got %s", evt.Price)
	}
}

func TestTopics(t *testing.T) {
	tests := []struct {
		n    events.Notification
		want string
	}{
		{events.MarketItemCreated{}, "market.item_created"},
		{events.ItemPurchased{}, "market.item_purchased"},
		{events.ItemRelisted{}, "market.item_relisted"},
		{events.ListingFeeUpdated{}, "market.listing_fee_updated"},
	}
	for _, tt := range tests {
		if got := tt.n.Topic(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
	if len(events.Topics) != len(tests) {
		t.Errorf("Topics should list %d topics, got %d", len(tests), len(events.Topics))
	}
}

func TestNewMeta(t *testing.T) {
	at := time.Date(2025, 1, 15, 12, 0, 0, 0, time.FixedZone("x", 3600))
	m := events.NewMeta(at)
	if m.EventID == uuid.Nil {
		t.Fatal("expected non-nil event id")
	}
	if m.Version != 1 {
		t.Errorf("Version: got %d", m.Version)
	}
	if m.OccurredAt.Location() != time.UTC || !m.OccurredAt.Equal(at) {
		t.Errorf("OccurredAt: got %v", m.OccurredAt)
	}
	if m.Envelope() != m {
		t.Error("Envelope must return the metadata itself")
	}
}
