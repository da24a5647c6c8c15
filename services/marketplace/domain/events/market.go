package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Watermill topics published by the marketplace ledger.
const (
	TopicItemCreated       = "market.item_created"
	TopicItemPurchased     = "market.item_purchased"
	TopicItemRelisted      = "market.item_relisted"
	TopicListingFeeUpdated = "market.listing_fee_updated"
)

// Topics lists every marketplace topic, for subscribers that react to any ledger change.
var Topics = []string{TopicItemCreated, TopicItemPurchased, TopicItemRelisted, TopicListingFeeUpdated}

// Notification is implemented by every marketplace event.
type Notification interface {
	Topic() string
	Envelope() Meta
}

// Meta is embedded in every event and flattened into its JSON payload.
type Meta struct {
	EventID    uuid.UUID `json:"event_id"` // Unique publish-time identifier for deduplication
	Version    int       `json:"version"`  // Schema version; increment on breaking changes
	OccurredAt time.Time `json:"occurred_at"`
}

// NewMeta returns a version-1 Meta stamped with a fresh event id.
func NewMeta(at time.Time) Meta {
	return Meta{EventID: uuid.New(), Version: 1, OccurredAt: at.UTC()}
}

// Envelope returns the event metadata.
func (m Meta) Envelope() Meta { return m }

// MarketItemCreated is emitted when a new token is minted into custody and listed.
type MarketItemCreated struct {
	Meta
	TokenID    int64           `json:"token_id"`
	Seller     string          `json:"seller"`
	Price      decimal.Decimal `json:"price"`
	Descriptor string          `json:"descriptor"`
}

func (MarketItemCreated) Topic() string { return TopicItemCreated }

// ItemPurchased is emitted when a listed token changes hands.
// Fee went to the administrator and Proceeds to the seller; Fee + Proceeds == Price.
type ItemPurchased struct {
	Meta
	TokenID  int64           `json:"token_id"`
	Seller   string          `json:"seller"`
	Buyer    string          `json:"buyer"`
	Price    decimal.Decimal `json:"price"`
	Fee      decimal.Decimal `json:"fee"`
	Proceeds decimal.Decimal `json:"proceeds"`
}

func (ItemPurchased) Topic() string { return TopicItemPurchased }

// ItemRelisted is emitted when an owner hands a token back into custody for sale.
type ItemRelisted struct {
	Meta
	TokenID int64           `json:"token_id"`
	Seller  string          `json:"seller"`
	Price   decimal.Decimal `json:"price"`
	Payment decimal.Decimal `json:"payment"`
}

func (ItemRelisted) Topic() string { return TopicItemRelisted }

// ListingFeeUpdated is emitted when the administrator changes the listing fee.
type ListingFeeUpdated struct {
	Meta
	PreviousFee decimal.Decimal `json:"previous_fee"`
	ListingFee  decimal.Decimal `json:"listing_fee"`
	UpdatedBy   string          `json:"updated_by"`
}

func (ListingFeeUpdated) Topic() string { return TopicListingFeeUpdated }
