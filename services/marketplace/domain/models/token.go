package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TokenID is the registry-assigned identifier of an item. Ids start at 1 and
// are never reused.
type TokenID int64

// Token is an item record held by the registry.
type Token struct {
	ID         TokenID
	Descriptor Descriptor
	Owner      Address
	MintedAt   time.Time
}

// MarketEntry is the sale state of a token. There is exactly one entry per
// token ever listed; resale mutates it in place.
type MarketEntry struct {
	ID        TokenID
	Seller    Address
	Price     decimal.Decimal
	Sold      bool
	UpdatedAt time.Time
}

// Active reports whether the entry is currently offered for sale.
func (e *MarketEntry) Active() bool {
	return !e.Sold
}

// Invocation carries the trusted caller identity and the payment attached to
// a ledger operation.
type Invocation struct {
	Caller  Address
	Payment decimal.Decimal
}

// Validate checks the attached payment against the amount bounds.
func (inv Invocation) Validate() error {
	return ValidateAmount(inv.Payment)
}
