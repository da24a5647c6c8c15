package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ghuser/nftmarket/services/marketplace/domain"
	"github.com/ghuser/nftmarket/services/marketplace/domain/models"
	"github.com/ghuser/nftmarket/services/marketplace/domain/repositories"
)

// ReserveWithdrawal debits w.Amount from the account and records w as pending.
// Reserving an id that is already recorded changes nothing and reports false,
// so a retried reservation never debits twice.
func ReserveWithdrawal(ctx context.Context, tx repositories.Tx, w *models.Withdrawal) (bool, error) {
	if !w.Amount.IsPositive() {
		return false, fmt.Errorf("%w: withdrawal amount must be positive", domain.ErrInvalidAmount)
	}
	if err := models.ValidateAmount(w.Amount); err != nil {
		return false, err
	}

	if _, err := tx.Withdrawals().Get(ctx, w.ID); err == nil {
		return false, nil
	} else if !errors.Is(err, domain.ErrWithdrawalNotFound) {
		return false, err
	}

	if err := tx.Funds().Debit(ctx, w.Account, w.Amount); err != nil {
		return false, err
	}
	w.Status = models.WithdrawalPending
	if err := tx.Withdrawals().Create(ctx, w); err != nil {
		return false, err
	}
	return true, nil
}

// ClaimWithdrawal hands a pending withdrawal to the payout saga. Once claimed
// it can no longer be cancelled, only completed or refunded by the saga.
// A refunded withdrawal returns ErrWithdrawalCancelled and must not be paid out.
func ClaimWithdrawal(ctx context.Context, tx repositories.Tx, id string, at time.Time) error {
	w, err := tx.Withdrawals().Get(ctx, id)
	if err != nil {
		return err
	}
	switch w.Status {
	case models.WithdrawalPending:
		return tx.Withdrawals().SetStatus(ctx, id, models.WithdrawalProcessing, "", at)
	case models.WithdrawalRefunded:
		return fmt.Errorf("%w: %s", domain.ErrWithdrawalCancelled, id)
	default:
		return nil
	}
}

// CancelWithdrawal refunds a withdrawal the saga has not claimed yet. A
// claimed or paid out withdrawal returns ErrWithdrawalSettled.
func CancelWithdrawal(ctx context.Context, tx repositories.Tx, id string, at time.Time) error {
	w, err := tx.Withdrawals().Get(ctx, id)
	if err != nil {
		return err
	}
	switch w.Status {
	case models.WithdrawalRefunded:
		return nil
	case models.WithdrawalProcessing, models.WithdrawalCompleted:
		return fmt.Errorf("%w: %s is already %s", domain.ErrWithdrawalSettled, id, w.Status)
	}
	return refund(ctx, tx, w, at)
}

// CompleteWithdrawal marks a pending withdrawal as paid out under reference.
func CompleteWithdrawal(ctx context.Context, tx repositories.Tx, id, reference string, at time.Time) error {
	w, err := tx.Withdrawals().Get(ctx, id)
	if err != nil {
		return err
	}
	switch w.Status {
	case models.WithdrawalCompleted:
		return nil
	case models.WithdrawalRefunded:
		return fmt.Errorf("%w: %s was refunded", domain.ErrWithdrawalSettled, id)
	}
	return tx.Withdrawals().SetStatus(ctx, id, models.WithdrawalCompleted, reference, at)
}

// RefundWithdrawal credits a pending or claimed withdrawal back to its account.
// Refunds bypass the account's payment refusal flag.
func RefundWithdrawal(ctx context.Context, tx repositories.Tx, id string, at time.Time) error {
	w, err := tx.Withdrawals().Get(ctx, id)
	if err != nil {
		return err
	}
	switch w.Status {
	case models.WithdrawalRefunded:
		return nil
	case models.WithdrawalCompleted:
		return fmt.Errorf("%w: %s was paid out", domain.ErrWithdrawalSettled, id)
	}
	return refund(ctx, tx, w, at)
}

func refund(ctx context.Context, tx repositories.Tx, w *models.Withdrawal, at time.Time) error {
	if err := tx.Funds().Credit(ctx, w.Account, w.Amount); err != nil {
		return fmt.Errorf("refund withdrawal %s: %w", w.ID, err)
	}
	return tx.Withdrawals().SetStatus(ctx, w.ID, models.WithdrawalRefunded, "", at)
}
