// Package workflows holds the Temporal workflows of the marketplace.
//
// A withdrawal moves part of an account's credited balance to the payout
// gateway as a saga: reserve (debit + pending record) -> claim -> payout ->
// complete, or refund when the gateway refuses the payout. The claim moves the
// withdrawal out of the state the API may still cancel, so a withdrawal is
// either paid out or refunded, never both. Every ledger activity is idempotent
// on the withdrawal id, so Temporal retries are safe.
package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/ghuser/nftmarket/services/marketplace/domain"
	"github.com/ghuser/nftmarket/services/marketplace/domain/models"
	"github.com/ghuser/nftmarket/services/marketplace/domain/repositories"
	domainsvcs "github.com/ghuser/nftmarket/services/marketplace/domain/services"
	"github.com/ghuser/nftmarket/services/marketplace/infrastructure/payout"
)

// Application error types that stop Temporal from retrying an activity.
const (
	ErrTypeLedgerRejected      = "LedgerRejected"
	ErrTypePayoutRejected      = "PayoutRejected"
	ErrTypeWithdrawalCancelled = "WithdrawalCancelled"
)

// WithdrawalInput starts one withdrawal. ID is also the Temporal workflow id.
type WithdrawalInput struct {
	ID          string          `json:"id"`
	Account     models.Address  `json:"account"`
	Amount      decimal.Decimal `json:"amount"`
	RequestedAt time.Time       `json:"requested_at"`
}

// WithdrawalResult is the terminal state of a withdrawal workflow.
type WithdrawalResult struct {
	ID        string                  `json:"id"`
	Status    models.WithdrawalStatus `json:"status"`
	Reference string                  `json:"reference,omitempty"`
}

var (
	ledgerActivityOptions = workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        time.Minute,
			MaximumAttempts:        20,
			NonRetryableErrorTypes: []string{ErrTypeLedgerRejected, ErrTypeWithdrawalCancelled},
		},
	}
	payoutActivityOptions = workflow.ActivityOptions{
		StartToCloseTimeout:    30 * time.Second,
		ScheduleToCloseTimeout: time.Hour,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        2 * time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        5 * time.Minute,
			NonRetryableErrorTypes: []string{ErrTypePayoutRejected},
		},
	}
)

// WithdrawalWorkflow runs the withdrawal saga for in.
// A payout that fails for good (rejected, or retries exhausted) is refunded.
func WithdrawalWorkflow(ctx workflow.Context, in WithdrawalInput) (*WithdrawalResult, error) {
	log := workflow.GetLogger(ctx)
	var a *Activities

	ledgerCtx := workflow.WithActivityOptions(ctx, ledgerActivityOptions)
	if err := workflow.ExecuteActivity(ledgerCtx, a.ReserveWithdrawal, in).Get(ctx, nil); err != nil {
		return nil, fmt.Errorf("reserve withdrawal %s: %w", in.ID, err)
	}

	if err := workflow.ExecuteActivity(ledgerCtx, a.ClaimWithdrawal, in).Get(ctx, nil); err != nil {
		var appErr *temporal.ApplicationError
		if errors.As(err, &appErr) && appErr.Type() == ErrTypeWithdrawalCancelled {
			log.Warn("withdrawal cancelled before payout", "withdrawal_id", in.ID)
			return &WithdrawalResult{ID: in.ID, Status: models.WithdrawalRefunded}, nil
		}
		return nil, fmt.Errorf("claim withdrawal %s: %w", in.ID, err)
	}

	var reference string
	payoutCtx := workflow.WithActivityOptions(ctx, payoutActivityOptions)
	if err := workflow.ExecuteActivity(payoutCtx, a.SendPayout, in).Get(ctx, &reference); err != nil {
		log.Warn("payout failed, refunding", "withdrawal_id", in.ID, "error", err)
		if err := workflow.ExecuteActivity(ledgerCtx, a.RefundWithdrawal, in).Get(ctx, nil); err != nil {
			return nil, fmt.Errorf("refund withdrawal %s: %w", in.ID, err)
		}
		return &WithdrawalResult{ID: in.ID, Status: models.WithdrawalRefunded}, nil
	}

	if err := workflow.ExecuteActivity(ledgerCtx, a.CompleteWithdrawal, in, reference).Get(ctx, nil); err != nil {
		return nil, fmt.Errorf("complete withdrawal %s: %w", in.ID, err)
	}
	log.Info("withdrawal paid out", "withdrawal_id", in.ID, "reference", reference)
	return &WithdrawalResult{ID: in.ID, Status: models.WithdrawalCompleted, Reference: reference}, nil
}

// PayoutSender executes a payout and returns the gateway reference.
// *payout.Client satisfies it.
type PayoutSender interface {
	Send(ctx context.Context, req payout.Request) (string, error)
}

// Activities are the side-effecting steps of WithdrawalWorkflow.
type Activities struct {
	Store  repositories.Store
	Payout PayoutSender
	Now    func() time.Time
}

func (a *Activities) now() time.Time {
	if a.Now == nil {
		return time.Now().UTC()
	}
	return a.Now().UTC()
}

// ReserveWithdrawal debits the balance and records the withdrawal as pending.
// A withdrawal the API already reserved is left untouched.
func (a *Activities) ReserveWithdrawal(ctx context.Context, in WithdrawalInput) error {
	w := &models.Withdrawal{
		ID:        in.ID,
		Account:   in.Account,
		Amount:    in.Amount,
		CreatedAt: in.RequestedAt,
		UpdatedAt: in.RequestedAt,
	}
	var reserved bool
	err := a.Store.Update(ctx, func(ctx context.Context, tx repositories.Tx) error {
		var err error
		reserved, err = domainsvcs.ReserveWithdrawal(ctx, tx, w)
		return err
	})
	if err != nil {
		return ledgerError(err)
	}
	activity.GetLogger(ctx).Info("withdrawal reserved", "withdrawal_id", in.ID, "newly_reserved", reserved)
	return nil
}

// ClaimWithdrawal takes the withdrawal for payout. It fails with a
// WithdrawalCancelled error when the API already refunded it.
func (a *Activities) ClaimWithdrawal(ctx context.Context, in WithdrawalInput) error {
	err := a.Store.Update(ctx, func(ctx context.Context, tx repositories.Tx) error {
		return domainsvcs.ClaimWithdrawal(ctx, tx, in.ID, a.now())
	})
	if errors.Is(err, domain.ErrWithdrawalCancelled) {
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeWithdrawalCancelled, err)
	}
	return ledgerError(err)
}

// SendPayout asks the gateway to pay in.Amount to in.Account.
func (a *Activities) SendPayout(ctx context.Context, in WithdrawalInput) (string, error) {
	ref, err := a.Payout.Send(ctx, payout.Request{ID: in.ID, Account: in.Account.String(), Amount: in.Amount})
	if err != nil {
		if errors.Is(err, payout.ErrRejected) {
			return "", temporal.NewNonRetryableApplicationError(err.Error(), ErrTypePayoutRejected, err)
		}
		return "", err
	}
	return ref, nil
}

// CompleteWithdrawal marks the withdrawal as paid out.
func (a *Activities) CompleteWithdrawal(ctx context.Context, in WithdrawalInput, reference string) error {
	err := a.Store.Update(ctx, func(ctx context.Context, tx repositories.Tx) error {
		return domainsvcs.CompleteWithdrawal(ctx, tx, in.ID, reference, a.now())
	})
	return ledgerError(err)
}

// RefundWithdrawal credits the reserved amount back to the account.
func (a *Activities) RefundWithdrawal(ctx context.Context, in WithdrawalInput) error {
	err := a.Store.Update(ctx, func(ctx context.Context, tx repositories.Tx) error {
		return domainsvcs.RefundWithdrawal(ctx, tx, in.ID, a.now())
	})
	if err == nil {
		activity.GetLogger(ctx).Info("withdrawal refunded", "withdrawal_id", in.ID, "amount", in.Amount.String())
	}
	return ledgerError(err)
}

// ledgerError marks domain rejections as non-retryable; anything else
// (connection loss, lock timeouts) is retried.
func ledgerError(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range []error{
		domain.ErrInsufficientBalance,
		domain.ErrInvalidAmount,
		domain.ErrWithdrawalNotFound,
		domain.ErrWithdrawalExists,
		domain.ErrWithdrawalSettled,
		domain.ErrFundTransferFailed,
	} {
		if errors.Is(err, target) {
			return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeLedgerRejected, err)
		}
	}
	return err
}
