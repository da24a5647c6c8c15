package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ghuser/nftmarket/services/marketplace/domain"
	"github.com/ghuser/nftmarket/services/marketplace/domain/models"
	"github.com/ghuser/nftmarket/services/marketplace/domain/repositories"
)

var (
	testAdmin     = models.MustParseAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	testCustodian = models.MustParseAddress("0x5fbdb2315678afecb367f032d93f642f64180aa3")
	testSeller    = models.MustParseAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	if err := s.Bootstrap(context.Background(), repositories.Genesis{
		Administrator: testAdmin,
		Custodian:     testCustodian,
		ListingFee:    decimal.RequireFromString("0.00025"),
	}); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return s
}

func TestStore_RequiresBootstrap(t *testing.T) {
	s := NewStore()
	err := s.Update(context.Background(), func(context.Context, repositories.Tx) error { return nil })
	if err == nil {
		t.Fatal("expected error before bootstrap")
	}
}

func TestStore_BootstrapKeepsFirstGenesis(t *testing.T) {
	s := newTestStore(t)
	if err := s.Bootstrap(context.Background(), repositories.Genesis{
		Administrator: testSeller,
		Custodian:     testSeller,
		ListingFee:    decimal.RequireFromString("1"),
	}); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	_ = s.View(context.Background(), func(ctx context.Context, tx repositories.Tx) error {
		admin, _ := tx.Settings().Administrator(ctx)
		fee, _ := tx.Settings().ListingFee(ctx)
		if admin != testAdmin || !fee.Equal(decimal.RequireFromString("0.00025")) {
			t.Fatalf("genesis overwritten: admin %s fee %s", admin, fee)
		}
		return nil
	})
}

func TestStore_FailedUpdateLeavesNoTrace(t *testing.T) {
	s := newTestStore(t)
	boom := errors.New("boom")

	err := s.Update(context.Background(), func(ctx context.Context, tx repositories.Tx) error {
		if _, err := tx.Registry().Mint(ctx, "ipfs://a", testCustodian, time.Now()); err != nil {
			return err
		}
		if err := tx.Funds().Credit(ctx, testSeller, decimal.NewFromInt(5)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	_ = s.View(context.Background(), func(ctx context.Context, tx repositories.Tx) error {
		supply, _ := tx.Registry().TotalSupply(ctx)
		bal, _ := tx.Funds().Balance(ctx, testSeller)
		if supply != 0 || !bal.IsZero() {
			t.Fatalf("rolled back update is visible: supply %d balance %s", supply, bal)
		}
		return nil
	})
}

func TestStore_ViewIsReadOnly(t *testing.T) {
	s := newTestStore(t)
	err := s.View(context.Background(), func(ctx context.Context, tx repositories.Tx) error {
		_, err := tx.Registry().Mint(ctx, "ipfs://a", testCustodian, time.Now())
		return err
	})
	if !errors.Is(err, errReadOnly) {
		t.Fatalf("expected errReadOnly, got %v", err)
	}
}

func TestEntries_PutMaintainsUnsoldCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	steps := []struct {
		name string
		sold bool
		want int64
	}{
		{"first listing", false, 1},
		{"relisting an active entry", false, 1},
		{"sale", true, 0},
		{"sale again", true, 0},
		{"resale", false, 1},
	}

	_ = s.Update(ctx, func(ctx context.Context, tx repositories.Tx) error {
		_, err := tx.Registry().Mint(ctx, "ipfs://a", testCustodian, time.Now())
		return err
	})

	for _, st := range steps {
		err := s.Update(ctx, func(ctx context.Context, tx repositories.Tx) error {
			return tx.Entries().Put(ctx, &models.MarketEntry{ID: 1, Seller: testSeller, Price: decimal.NewFromInt(1), Sold: st.sold})
		})
		if err != nil {
			t.Fatalf("%s: put: %v", st.name, err)
		}
		_ = s.View(ctx, func(ctx context.Context, tx repositories.Tx) error {
			if n, _ := tx.Entries().UnsoldCount(ctx); n != st.want {
				t.Fatalf("%s: expected unsold %d, got %d", st.name, st.want, n)
			}
			return nil
		})
	}

	err := s.Update(ctx, func(ctx context.Context, tx repositories.Tx) error {
		return tx.Entries().Put(ctx, &models.MarketEntry{ID: 9, Seller: testSeller, Price: decimal.NewFromInt(1)})
	})
	if !errors.Is(err, domain.ErrUnknownID) {
		t.Fatalf("entry for unminted token: expected ErrUnknownID, got %v", err)
	}
}

func TestRegistry_Transfer(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Update(ctx, func(ctx context.Context, tx repositories.Tx) error {
		id, err := tx.Registry().Mint(ctx, "ipfs://a", testCustodian, time.Now())
		if err != nil {
			return err
		}
		if err := tx.Registry().Transfer(ctx, id, testSeller, testAdmin); !errors.Is(err, domain.ErrNotOwner) {
			t.Fatalf("expected ErrNotOwner, got %v", err)
		}
		if err := tx.Registry().Transfer(ctx, 7, testCustodian, testAdmin); !errors.Is(err, domain.ErrUnknownID) {
			t.Fatalf("expected ErrUnknownID, got %v", err)
		}
		return tx.Registry().Transfer(ctx, id, testCustodian, testSeller)
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	_ = s.View(ctx, func(ctx context.Context, tx repositories.Tx) error {
		if n, _ := tx.Registry().BalanceOf(ctx, testSeller); n != 1 {
			t.Fatalf("seller balance: got %d", n)
		}
		if n, _ := tx.Registry().BalanceOf(ctx, testCustodian); n != 0 {
			t.Fatalf("custodian balance: got %d", n)
		}
		return nil
	})
}

func TestRegistry_TokensOf(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var first, second, third models.TokenID
	err := s.Update(ctx, func(ctx context.Context, tx repositories.Tx) error {
		var err error
		if first, err = tx.Registry().Mint(ctx, "ipfs://a", testCustodian, time.Now()); err != nil {
			return err
		}
		if second, err = tx.Registry().Mint(ctx, "ipfs://b", testSeller, time.Now()); err != nil {
			return err
		}
		if third, err = tx.Registry().Mint(ctx, "ipfs://c", testCustodian, time.Now()); err != nil {
			return err
		}
		return tx.Registry().Transfer(ctx, first, testCustodian, testSeller)
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	_ = s.View(ctx, func(ctx context.Context, tx repositories.Tx) error {
		tests := []struct {
			owner models.Address
			want  []models.TokenID
		}{
			{testSeller, []models.TokenID{first, second}},
			{testCustodian, []models.TokenID{third}},
			{testAdmin, []models.TokenID{}},
		}
		for _, tt := range tests {
			got, err := tx.Registry().TokensOf(ctx, tt.owner)
			if err != nil {
				t.Fatalf("TokensOf(%s): %v", tt.owner, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("TokensOf(%s) = %v, want %v", tt.owner, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("TokensOf(%s) = %v, want %v", tt.owner, got, tt.want)
				}
			}
		}
		return nil
	})
}

func TestFunds_DebitAndRefusal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Update(ctx, func(ctx context.Context, tx repositories.Tx) error {
		if err := tx.Funds().Transfer(ctx, testSeller, decimal.RequireFromString("0.5")); err != nil {
			return err
		}
		if err := tx.Funds().Debit(ctx, testSeller, decimal.RequireFromString("0.6")); !errors.Is(err, domain.ErrInsufficientBalance) {
			t.Fatalf("expected ErrInsufficientBalance, got %v", err)
		}
		if err := tx.Funds().Debit(ctx, testSeller, decimal.RequireFromString("0.2")); err != nil {
			return err
		}
		if err := tx.Funds().SetAcceptsPayments(ctx, testSeller, false); err != nil {
			return err
		}
		if err := tx.Funds().Transfer(ctx, testSeller, decimal.NewFromInt(1)); !errors.Is(err, domain.ErrFundTransferFailed) {
			t.Fatalf("expected ErrFundTransferFailed, got %v", err)
		}
		// Refunds bypass the refusal flag.
		return tx.Funds().Credit(ctx, testSeller, decimal.RequireFromString("0.1"))
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	_ = s.View(ctx, func(ctx context.Context, tx repositories.Tx) error {
		if b, _ := tx.Funds().Balance(ctx, testSeller); !b.Equal(decimal.RequireFromString("0.4")) {
			t.Fatalf("expected balance 0.4, got %s", b)
		}
		return nil
	})
}

func TestWithdrawals(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	err := s.Update(ctx, func(ctx context.Context, tx repositories.Tx) error {
		w := &models.Withdrawal{ID: "w1", Account: testSeller, Amount: decimal.NewFromInt(1), Status: models.WithdrawalPending, CreatedAt: now, UpdatedAt: now}
		if err := tx.Withdrawals().Create(ctx, w); err != nil {
			return err
		}
		if err := tx.Withdrawals().Create(ctx, w); !errors.Is(err, domain.ErrWithdrawalExists) {
			t.Fatalf("expected ErrWithdrawalExists, got %v", err)
		}
		if err := tx.Withdrawals().SetStatus(ctx, "missing", models.WithdrawalCompleted, "", now); !errors.Is(err, domain.ErrWithdrawalNotFound) {
			t.Fatalf("expected ErrWithdrawalNotFound, got %v", err)
		}
		return tx.Withdrawals().SetStatus(ctx, "w1", models.WithdrawalCompleted, "ref-1", now)
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	_ = s.View(ctx, func(ctx context.Context, tx repositories.Tx) error {
		w, err := tx.Withdrawals().Get(ctx, "w1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if w.Status != models.WithdrawalCompleted || w.Reference != "ref-1" {
			t.Fatalf("unexpected withdrawal: %+v", w)
		}
		return nil
	})
}
