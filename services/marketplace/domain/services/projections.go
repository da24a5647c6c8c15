package services

import (
	"context"

	"github.com/ghuser/nftmarket/services/marketplace/domain/models"
	"github.com/ghuser/nftmarket/services/marketplace/domain/repositories"
)

// FetchMarketItems returns every entry currently for sale, ascending by id.
func FetchMarketItems(ctx context.Context, tx repositories.Tx) ([]*models.MarketEntry, error) {
	return tx.Entries().Unsold(ctx)
}

// FetchMyNFTs returns the entries of tokens the caller owns, ascending by id.
// Tokens in custody are owned by the marketplace, so the caller's own
// listings are not included.
func FetchMyNFTs(ctx context.Context, tx repositories.Tx, caller models.Address) ([]*models.MarketEntry, error) {
	return tx.Entries().OwnedBy(ctx, caller)
}

// FetchItemsListed returns the caller's entries that are still for sale, ascending by id.
func FetchItemsListed(ctx context.Context, tx repositories.Tx, caller models.Address) ([]*models.MarketEntry, error) {
	return tx.Entries().ListedBy(ctx, caller)
}
