package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ghuser/nftmarket/services/marketplace/domain/events"
	"github.com/ghuser/nftmarket/services/marketplace/domain/models"
)

// Genesis is the configuration fixed when the marketplace is first created.
// Bootstrapping an already initialized store keeps the stored values.
type Genesis struct {
	Administrator models.Address
	Custodian     models.Address
	ListingFee    decimal.Decimal
}

// Store is the persistence boundary of the marketplace. The domain layer owns
// this interface; infrastructure implements it.
//
// Update runs fn in a single write transaction. Writers are serialized, and
// when fn returns an error nothing fn did is observable afterwards, including
// emitted notifications. View runs fn against a consistent snapshot; writes
// inside View fail.
type Store interface {
	Bootstrap(ctx context.Context, g Genesis) error
	Update(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx groups the repositories visible inside one store transaction.
type Tx interface {
	Registry() ItemRegistry
	Entries() MarketEntries
	Settings() MarketSettings
	Funds() Funds
	Withdrawals() Withdrawals

	// Emit records a notification that is published only if the transaction commits.
	Emit(ctx context.Context, n events.Notification) error
}

// ItemRegistry tracks minted tokens and their owners.
type ItemRegistry interface {
	// Mint assigns the next id (previous highest + 1) and records owner and descriptor.
	Mint(ctx context.Context, descriptor models.Descriptor, owner models.Address, at time.Time) (models.TokenID, error)

	// Transfer moves id from -> to. Returns ErrUnknownID or ErrNotOwner.
	Transfer(ctx context.Context, id models.TokenID, from, to models.Address) error

	// OwnerOf returns the current owner or ErrUnknownID.
	OwnerOf(ctx context.Context, id models.TokenID) (models.Address, error)

	// Token returns the full record or ErrUnknownID.
	Token(ctx context.Context, id models.TokenID) (*models.Token, error)

	// TokensOf returns the ids owned by owner in ascending order.
	TokensOf(ctx context.Context, owner models.Address) ([]models.TokenID, error)

	BalanceOf(ctx context.Context, owner models.Address) (int64, error)
	TotalSupply(ctx context.Context) (int64, error)
}

// MarketEntries holds the sale state. Implementations keep the unsold count
// in step with Put inside the same transaction.
type MarketEntries interface {
	// Get returns the entry for id or ErrUnknownID.
	Get(ctx context.Context, id models.TokenID) (*models.MarketEntry, error)

	// Put inserts or overwrites the entry for e.ID.
	Put(ctx context.Context, e *models.MarketEntry) error

	// Unsold returns every active entry in ascending id order.
	Unsold(ctx context.Context) ([]*models.MarketEntry, error)

	// ListedBy returns the active entries of seller in ascending id order.
	ListedBy(ctx context.Context, seller models.Address) ([]*models.MarketEntry, error)

	// OwnedBy returns the entries of tokens currently owned by owner in ascending id order.
	OwnedBy(ctx context.Context, owner models.Address) ([]*models.MarketEntry, error)

	UnsoldCount(ctx context.Context) (int64, error)
}

// MarketSettings exposes the singleton marketplace configuration.
type MarketSettings interface {
	ListingFee(ctx context.Context) (decimal.Decimal, error)
	SetListingFee(ctx context.Context, fee decimal.Decimal) error
	Administrator(ctx context.Context) (models.Address, error)
	Custodian(ctx context.Context) (models.Address, error)
}

// Funds credits payments to account balances.
type Funds interface {
	// Transfer credits amount to the recipient. Returns ErrFundTransferFailed
	// if the recipient does not accept payments.
	Transfer(ctx context.Context, to models.Address, amount decimal.Decimal) error

	// Debit removes amount from the account or returns ErrInsufficientBalance.
	Debit(ctx context.Context, from models.Address, amount decimal.Decimal) error

	// Credit adds amount unconditionally; used for refunds.
	Credit(ctx context.Context, to models.Address, amount decimal.Decimal) error

	Balance(ctx context.Context, account models.Address) (decimal.Decimal, error)
	SetAcceptsPayments(ctx context.Context, account models.Address, accepts bool) error
}

// Withdrawals records payouts of credited balances.
type Withdrawals interface {
	// Create records w or returns ErrWithdrawalExists.
	Create(ctx context.Context, w *models.Withdrawal) error

	// Get returns the withdrawal or ErrWithdrawalNotFound.
	Get(ctx context.Context, id string) (*models.Withdrawal, error)

	// SetStatus moves the withdrawal to status and stores the payout reference.
	SetStatus(ctx context.Context, id string, status models.WithdrawalStatus, reference string, at time.Time) error
}
