package workflows

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.temporal.io/sdk/testsuite"

	"github.com/ghuser/nftmarket/services/marketplace/domain/models"
	"github.com/ghuser/nftmarket/services/marketplace/domain/repositories"
	domainsvcs "github.com/ghuser/nftmarket/services/marketplace/domain/services"
	"github.com/ghuser/nftmarket/services/marketplace/infrastructure/payout"
	"github.com/ghuser/nftmarket/services/marketplace/infrastructure/persistence/memory"
)

var (
	admin     = models.MustParseAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	custodian = models.MustParseAddress("0x5fbdb2315678afecb367f032d93f642f64180aa3")
	seller    = models.MustParseAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
	buyer     = models.MustParseAddress("0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc")
)

type fakeGateway struct {
	err   error
	calls int
}

func (g *fakeGateway) Send(_ context.Context, req payout.Request) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return "po-" + req.ID, nil
}

// fundedStore returns a store where seller holds 0.09975 from one sale.
func fundedStore(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	if err := store.Bootstrap(ctx, repositories.Genesis{
		Administrator: admin,
		Custodian:     custodian,
		ListingFee:    decimal.RequireFromString("0.00025"),
	}); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	ledger := domainsvcs.NewLedger(nil)
	err := store.Update(ctx, func(ctx context.Context, tx repositories.Tx) error {
		evt, err := ledger.CreateToken(ctx, tx,
			models.Invocation{Caller: seller, Payment: decimal.RequireFromString("0.00025")},
			"ipfs://token", decimal.RequireFromString("0.1"))
		if err != nil {
			return err
		}
		_, err = ledger.Buy(ctx, tx,
			models.Invocation{Caller: buyer, Payment: decimal.RequireFromString("0.1")},
			models.TokenID(evt.TokenID))
		return err
	})
	if err != nil {
		t.Fatalf("fund seller: %v", err)
	}
	return store
}

func readWithdrawal(t *testing.T, store *memory.Store, id string) (*models.Withdrawal, decimal.Decimal) {
	t.Helper()
	var w *models.Withdrawal
	var bal decimal.Decimal
	err := store.View(context.Background(), func(ctx context.Context, tx repositories.Tx) error {
		var err error
		if bal, err = tx.Funds().Balance(ctx, seller); err != nil {
			return err
		}
		w, err = tx.Withdrawals().Get(ctx, id)
		return err
	})
	if err != nil {
		t.Fatalf("read withdrawal: %v", err)
	}
	return w, bal
}

func TestWithdrawalWorkflow(t *testing.T) {
	tests := []struct {
		name        string
		amount      string
		gatewayErr  error
		wantStatus  models.WithdrawalStatus
		wantRef     string
		wantBalance string
	}{
		{
			name:        "paid out",
			amount:      "0.05",
			wantStatus:  models.WithdrawalCompleted,
			wantRef:     "po-withdrawal-1",
			wantBalance: "0.04975",
		},
		{
			name:        "rejected payout is refunded",
			amount:      "0.05",
			gatewayErr:  fmt.Errorf("%w: account closed", payout.ErrRejected),
			wantStatus:  models.WithdrawalRefunded,
			wantBalance: "0.09975",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := fundedStore(t)
			gw := &fakeGateway{err: tt.gatewayErr}

			var suite testsuite.WorkflowTestSuite
			env := suite.NewTestWorkflowEnvironment()
			env.RegisterActivity(&Activities{Store: store, Payout: gw})

			env.ExecuteWorkflow(WithdrawalWorkflow, WithdrawalInput{
				ID:          "withdrawal-1",
				Account:     seller,
				Amount:      decimal.RequireFromString(tt.amount),
				RequestedAt: time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC),
			})

			if !env.IsWorkflowCompleted() {
				t.Fatal("workflow did not complete")
			}
			if err := env.GetWorkflowError(); err != nil {
				t.Fatalf("workflow error: %v", err)
			}
			var res WithdrawalResult
			if err := env.GetWorkflowResult(&res); err != nil {
				t.Fatalf("result: %v", err)
			}
			if res.Status != tt.wantStatus || res.Reference != tt.wantRef {
				t.Fatalf("result = %+v, want status %s reference %q", res, tt.wantStatus, tt.wantRef)
			}
			if gw.calls != 1 {
				t.Fatalf("gateway called %d times, want 1", gw.calls)
			}

			w, bal := readWithdrawal(t, store, "withdrawal-1")
			if w.Status != tt.wantStatus {
				t.Fatalf("stored status %s, want %s", w.Status, tt.wantStatus)
			}
			if !bal.Equal(decimal.RequireFromString(tt.wantBalance)) {
				t.Fatalf("balance %s, want %s", bal, tt.wantBalance)
			}
		})
	}
}

func TestWithdrawalWorkflow_InsufficientBalance(t *testing.T) {
	store := fundedStore(t)
	gw := &fakeGateway{}

	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterActivity(&Activities{Store: store, Payout: gw})

	env.ExecuteWorkflow(WithdrawalWorkflow, WithdrawalInput{
		ID:      "withdrawal-2",
		Account: seller,
		Amount:  decimal.RequireFromString("1"),
	})

	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	if err := env.GetWorkflowError(); err == nil {
		t.Fatal("expected the reservation to fail")
	}
	if gw.calls != 0 {
		t.Fatalf("gateway must not be called, got %d calls", gw.calls)
	}
}

// The API cancels a reservation when starting the workflow fails, but the
// start may have reached Temporal anyway. That run must not pay out.
func TestWithdrawalWorkflow_CancelledBeforeClaim(t *testing.T) {
	store := fundedStore(t)
	gw := &fakeGateway{}
	ctx := context.Background()
	at := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	in := WithdrawalInput{ID: "withdrawal-3", Account: seller, Amount: decimal.RequireFromString("0.05"), RequestedAt: at}

	err := store.Update(ctx, func(ctx context.Context, tx repositories.Tx) error {
		if _, err := domainsvcs.ReserveWithdrawal(ctx, tx, &models.Withdrawal{
			ID: in.ID, Account: in.Account, Amount: in.Amount, CreatedAt: at, UpdatedAt: at,
		}); err != nil {
			return err
		}
		return domainsvcs.CancelWithdrawal(ctx, tx, in.ID, at)
	})
	if err != nil {
		t.Fatalf("reserve and cancel: %v", err)
	}

	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterActivity(&Activities{Store: store, Payout: gw})
	env.ExecuteWorkflow(WithdrawalWorkflow, in)

	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("workflow error: %v", err)
	}
	var res WithdrawalResult
	if err := env.GetWorkflowResult(&res); err != nil {
		t.Fatalf("result: %v", err)
	}
	if res.Status != models.WithdrawalRefunded {
		t.Fatalf("result status %s, want refunded", res.Status)
	}
	if gw.calls != 0 {
		t.Fatalf("cancelled withdrawal paid out %d times", gw.calls)
	}
	w, bal := readWithdrawal(t, store, in.ID)
	if w.Status != models.WithdrawalRefunded || !bal.Equal(decimal.RequireFromString("0.09975")) {
		t.Fatalf("status %s balance %s, want refunded 0.09975", w.Status, bal)
	}
}

func TestLedgerError(t *testing.T) {
	if ledgerError(nil) != nil {
		t.Fatal("nil must stay nil")
	}
	transient := errors.New("connection reset")
	if got := ledgerError(transient); !errors.Is(got, transient) {
		t.Fatalf("transient errors pass through unchanged, got %v", got)
	}
}
