package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ghuser/nftmarket/services/marketplace/domain"
	"github.com/ghuser/nftmarket/services/marketplace/domain/events"
	"github.com/ghuser/nftmarket/services/marketplace/domain/models"
	"github.com/ghuser/nftmarket/services/marketplace/domain/repositories"
)

// Ledger is the marketplace state machine:
//
//	Unlisted -> Listed(unsold) -> Sold -> Listed(unsold) -> Sold -> ...
//
// Each method validates, stages registry and sale-state changes, distributes
// payment and emits a notification inside tx. Any error leaves the caller
// responsible for discarding tx; nothing is committed here.
type Ledger struct {
	now func() time.Time
}

// NewLedger returns a Ledger stamping changes with now (time.Now when nil).
func NewLedger(now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{now: now}
}

// CreateToken mints a token into custody and lists it at price on behalf of the caller.
// The price is checked before the fee so a zero price always fails with ErrPriceTooLow.
func (l *Ledger) CreateToken(
	ctx context.Context,
	tx repositories.Tx,
	inv models.Invocation,
	descriptor models.Descriptor,
	price decimal.Decimal,
) (*events.MarketItemCreated, error) {
	if !price.IsPositive() {
		return nil, domain.ErrPriceTooLow
	}
	fee, err := tx.Settings().ListingFee(ctx)
	if err != nil {
		return nil, fmt.Errorf("read listing fee: %w", err)
	}
	if !inv.Payment.Equal(fee) {
		return nil, fmt.Errorf("%w: want %s, got %s", domain.ErrListingFeeMismatch, fee, inv.Payment)
	}

	custodian, err := tx.Settings().Custodian(ctx)
	if err != nil {
		return nil, fmt.Errorf("read custodian: %w", err)
	}
	now := l.now().UTC()
	id, err := tx.Registry().Mint(ctx, descriptor, custodian, now)
	if err != nil {
		return nil, fmt.Errorf("mint: %w", err)
	}

	if err := tx.Entries().Put(ctx, &models.MarketEntry{
		ID:        id,
		Seller:    inv.Caller,
		Price:     price,
		Sold:      false,
		UpdatedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("list token %d: %w", id, err)
	}

	if err := l.payAdministrator(ctx, tx, inv.Payment); err != nil {
		return nil, err
	}

	evt := &events.MarketItemCreated{
		Meta:       events.NewMeta(now),
		TokenID:    int64(id),
		Seller:     inv.Caller.String(),
		Price:      price,
		Descriptor: descriptor.String(),
	}
	if err := tx.Emit(ctx, evt); err != nil {
		return nil, fmt.Errorf("emit item created: %w", err)
	}
	return evt, nil
}

// Buy transfers a listed token from custody to the caller. The payment must
// equal the asking price; min(listingFee, payment) goes to the administrator
// and the remainder to the seller.
func (l *Ledger) Buy(ctx context.Context, tx repositories.Tx, inv models.Invocation, id models.TokenID) (*events.ItemPurchased, error) {
	entry, err := tx.Entries().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.Sold {
		return nil, fmt.Errorf("%w: token %d", domain.ErrAlreadySold, id)
	}
	if !inv.Payment.Equal(entry.Price) {
		return nil, fmt.Errorf("%w: want %s, got %s", domain.ErrPaymentMismatch, entry.Price, inv.Payment)
	}

	custodian, err := tx.Settings().Custodian(ctx)
	if err != nil {
		return nil, fmt.Errorf("read custodian: %w", err)
	}
	if err := tx.Registry().Transfer(ctx, id, custodian, inv.Caller); err != nil {
		return nil, fmt.Errorf("release token %d: %w", id, err)
	}

	now := l.now().UTC()
	seller := entry.Seller
	entry.Sold = true
	entry.UpdatedAt = now
	if err := tx.Entries().Put(ctx, entry); err != nil {
		return nil, fmt.Errorf("mark token %d sold: %w", id, err)
	}

	fee, err := tx.Settings().ListingFee(ctx)
	if err != nil {
		return nil, fmt.Errorf("read listing fee: %w", err)
	}
	fee = decimal.Min(fee, inv.Payment)
	proceeds := inv.Payment.Sub(fee)

	if err := l.payAdministrator(ctx, tx, fee); err != nil {
		return nil, err
	}
	if err := pay(ctx, tx, seller, proceeds); err != nil {
		return nil, err
	}

	evt := &events.ItemPurchased{
		Meta:     events.NewMeta(now),
		TokenID:  int64(id),
		Seller:   seller.String(),
		Buyer:    inv.Caller.String(),
		Price:    entry.Price,
		Fee:      fee,
		Proceeds: proceeds,
	}
	if err := tx.Emit(ctx, evt); err != nil {
		return nil, fmt.Errorf("emit item purchased: %w", err)
	}
	return evt, nil
}

// ResellToken hands a sold token back into custody and relists it at newPrice.
// The caller must own the token and attach a payment equal to newPrice, which
// is credited to the administrator.
func (l *Ledger) ResellToken(
	ctx context.Context,
	tx repositories.Tx,
	inv models.Invocation,
	id models.TokenID,
	newPrice decimal.Decimal,
) (*events.ItemRelisted, error) {
	owner, err := tx.Registry().OwnerOf(ctx, id)
	if err != nil {
		return nil, err
	}
	entry, err := tx.Entries().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if owner != inv.Caller {
		return nil, fmt.Errorf("%w: token %d", domain.ErrNotOwner, id)
	}
	if !entry.Sold {
		return nil, fmt.Errorf("%w: token %d", domain.ErrNotSold, id)
	}
	if !newPrice.IsPositive() {
		return nil, domain.ErrPriceTooLow
	}
	if !inv.Payment.Equal(newPrice) {
		return nil, fmt.Errorf("%w: want %s, got %s", domain.ErrPriceMismatch, newPrice, inv.Payment)
	}

	custodian, err := tx.Settings().Custodian(ctx)
	if err != nil {
		return nil, fmt.Errorf("read custodian: %w", err)
	}
	if err := tx.Registry().Transfer(ctx, id, inv.Caller, custodian); err != nil {
		return nil, fmt.Errorf("take custody of token %d: %w", id, err)
	}

	now := l.now().UTC()
	entry.Seller = inv.Caller
	entry.Price = newPrice
	entry.Sold = false
	entry.UpdatedAt = now
	if err := tx.Entries().Put(ctx, entry); err != nil {
		return nil, fmt.Errorf("relist token %d: %w", id, err)
	}

	if err := l.payAdministrator(ctx, tx, inv.Payment); err != nil {
		return nil, err
	}

	evt := &events.ItemRelisted{
		Meta:    events.NewMeta(now),
		TokenID: int64(id),
		Seller:  inv.Caller.String(),
		Price:   newPrice,
		Payment: inv.Payment,
	}
	if err := tx.Emit(ctx, evt); err != nil {
		return nil, fmt.Errorf("emit item relisted: %w", err)
	}
	return evt, nil
}

// UpdateListingFee replaces the listing fee. Only the administrator may call it.
func (l *Ledger) UpdateListingFee(
	ctx context.Context,
	tx repositories.Tx,
	inv models.Invocation,
	fee decimal.Decimal,
) (*events.ListingFeeUpdated, error) {
	admin, err := tx.Settings().Administrator(ctx)
	if err != nil {
		return nil, fmt.Errorf("read administrator: %w", err)
	}
	if inv.Caller != admin {
		return nil, domain.ErrNotAdministrator
	}
	if err := models.ValidateAmount(fee); err != nil {
		return nil, err
	}

	previous, err := tx.Settings().ListingFee(ctx)
	if err != nil {
		return nil, fmt.Errorf("read listing fee: %w", err)
	}
	if err := tx.Settings().SetListingFee(ctx, fee); err != nil {
		return nil, fmt.Errorf("set listing fee: %w", err)
	}

	evt := &events.ListingFeeUpdated{
		Meta:        events.NewMeta(l.now()),
		PreviousFee: previous,
		ListingFee:  fee,
		UpdatedBy:   inv.Caller.String(),
	}
	if err := tx.Emit(ctx, evt); err != nil {
		return nil, fmt.Errorf("emit listing fee updated: %w", err)
	}
	return evt, nil
}

func (l *Ledger) payAdministrator(ctx context.Context, tx repositories.Tx, amount decimal.Decimal) error {
	admin, err := tx.Settings().Administrator(ctx)
	if err != nil {
		return fmt.Errorf("read administrator: %w", err)
	}
	return pay(ctx, tx, admin, amount)
}

// pay skips zero amounts so a refusing recipient only fails operations that owe it something.
func pay(ctx context.Context, tx repositories.Tx, to models.Address, amount decimal.Decimal) error {
	if amount.IsZero() {
		return nil
	}
	if err := tx.Funds().Transfer(ctx, to, amount); err != nil {
		return fmt.Errorf("pay %s to %s: %w", amount, to, err)
	}
	return nil
}
