package services_test

import (
	"context"
	"testing"

	"github.com/ghuser/nftmarket/services/marketplace/domain/models"
	"github.com/ghuser/nftmarket/services/marketplace/domain/repositories"
	domainsvcs "github.com/ghuser/nftmarket/services/marketplace/domain/services"
)

func ids(entries []*models.MarketEntry) []models.TokenID {
	out := make([]models.TokenID, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func equalIDs(a, b []models.TokenID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestProjections_TwoSellersOnePurchase(t *testing.T) {
	h := newHarness(t)
	first := h.mustCreate(seller, "0.1")
	second := h.mustCreate(other, "0.2")

	if _, err := h.buy(buyer, first, amt("0.1")); err != nil {
		t.Fatalf("buy: %v", err)
	}

	h.view(func(ctx context.Context, tx repositories.Tx) {
		market, err := domainsvcs.FetchMarketItems(ctx, tx)
		if err != nil {
			t.Fatalf("fetchMarketItems: %v", err)
		}
		if !equalIDs(ids(market), []models.TokenID{second}) {
			t.Fatalf("fetchMarketItems: got %v", ids(market))
		}

		mine, err := domainsvcs.FetchMyNFTs(ctx, tx, buyer)
		if err != nil {
			t.Fatalf("fetchMyNFTs: %v", err)
		}
		if !equalIDs(ids(mine), []models.TokenID{first}) {
			t.Fatalf("fetchMyNFTs: got %v", ids(mine))
		}

		listed, err := domainsvcs.FetchItemsListed(ctx, tx, seller)
		if err != nil {
			t.Fatalf("fetchItemsListed: %v", err)
		}
		if len(listed) != 0 {
			t.Fatalf("fetchItemsListed: expected none, got %v", ids(listed))
		}

		count, _ := tx.Entries().UnsoldCount(ctx)
		if int(count) != len(market) {
			t.Fatalf("unsold count %d does not match %d active entries", count, len(market))
		}
	})
}

func TestFetchItemsListed_ReturnsUnsoldCreationsAscending(t *testing.T) {
	h := newHarness(t)
	var want []models.TokenID
	for i := 0; i < 4; i++ {
		want = append(want, h.mustCreate(seller, "0.1"))
		h.mustCreate(other, "0.1")
	}

	h.view(func(ctx context.Context, tx repositories.Tx) {
		listed, err := domainsvcs.FetchItemsListed(ctx, tx, seller)
		if err != nil {
			t.Fatalf("fetchItemsListed: %v", err)
		}
		if !equalIDs(ids(listed), want) {
			t.Fatalf("expected %v, got %v", want, ids(listed))
		}
		for _, e := range listed {
			if e.Seller != seller || e.Sold {
				t.Fatalf("unexpected entry %+v", e)
			}
		}
	})
}

func TestFetchMyNFTs_ExcludesListedItems(t *testing.T) {
	h := newHarness(t)
	id := h.mustCreate(seller, "0.1")
	if _, err := h.buy(buyer, id, amt("0.1")); err != nil {
		t.Fatalf("buy: %v", err)
	}
	if err := h.resell(buyer, id, amt("0.2"), amt("0.2")); err != nil {
		t.Fatalf("resell: %v", err)
	}

	h.view(func(ctx context.Context, tx repositories.Tx) {
		mine, _ := domainsvcs.FetchMyNFTs(ctx, tx, buyer)
		if len(mine) != 0 {
			t.Fatalf("relisted token is in custody, got %v", ids(mine))
		}
		listed, _ := domainsvcs.FetchItemsListed(ctx, tx, buyer)
		if !equalIDs(ids(listed), []models.TokenID{id}) {
			t.Fatalf("fetchItemsListed: got %v", ids(listed))
		}
	})
}
