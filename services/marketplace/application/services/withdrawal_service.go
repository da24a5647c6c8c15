package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"

	"github.com/ghuser/nftmarket/pkg/logger"
	mktworkflows "github.com/ghuser/nftmarket/services/marketplace/application/workflows"
	"github.com/ghuser/nftmarket/services/marketplace/domain"
	"github.com/ghuser/nftmarket/services/marketplace/domain/models"
	"github.com/ghuser/nftmarket/services/marketplace/domain/repositories"
	domainsvcs "github.com/ghuser/nftmarket/services/marketplace/domain/services"
)

// WithdrawalStarter hands a reserved withdrawal to the payout saga.
type WithdrawalStarter interface {
	StartWithdrawal(ctx context.Context, in mktworkflows.WithdrawalInput) error
}

// TemporalStarter starts WithdrawalWorkflow on a Temporal task queue.
type TemporalStarter struct {
	client    client.Client
	taskQueue string
}

// NewTemporalStarter returns a WithdrawalStarter backed by c.
func NewTemporalStarter(c client.Client, taskQueue string) *TemporalStarter {
	return &TemporalStarter{client: c, taskQueue: taskQueue}
}

// StartWithdrawal starts the workflow with the withdrawal id as workflow id.
// An id runs at most once, so a start retried after a cancellation cannot
// revive the withdrawal.
func (t *TemporalStarter) StartWithdrawal(ctx context.Context, in mktworkflows.WithdrawalInput) error {
	_, err := t.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                    in.ID,
		TaskQueue:             t.taskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}, mktworkflows.WithdrawalWorkflow, in)
	if err != nil {
		return fmt.Errorf("start withdrawal workflow %s: %w", in.ID, err)
	}
	return nil
}

// WithdrawalService lets accounts pull their credited balance out of the marketplace.
type WithdrawalService struct {
	store   repositories.Store
	starter WithdrawalStarter // nil when withdrawals are disabled
	log     logger.Logger
	now     func() time.Time

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewWithdrawalService returns a WithdrawalService. A nil starter disables withdrawals.
func NewWithdrawalService(store repositories.Store, starter WithdrawalStarter, log logger.Logger) *WithdrawalService {
	return &WithdrawalService{
		store:   store,
		starter: starter,
		log:     log,
		now:     time.Now,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

// Enabled reports whether withdrawals can be started.
func (s *WithdrawalService) Enabled() bool {
	return s.starter != nil
}

// Start reserves amount from the caller's balance and starts its payout.
// The reservation commits before the saga starts, so an insufficient balance
// is reported synchronously. A failed start may still have reached Temporal,
// so the reservation is cancelled rather than refunded outright: if the saga
// already claimed it, the withdrawal is reported as started.
func (s *WithdrawalService) Start(ctx context.Context, caller models.Address, amount decimal.Decimal) (*models.Withdrawal, error) {
	if s.starter == nil {
		return nil, domain.ErrWithdrawalsDisabled
	}

	now := s.now().UTC()
	w := &models.Withdrawal{
		ID:        s.newID(now),
		Account:   caller,
		Amount:    amount,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.store.Update(ctx, func(ctx context.Context, tx repositories.Tx) error {
		_, err := domainsvcs.ReserveWithdrawal(ctx, tx, w)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = s.starter.StartWithdrawal(ctx, mktworkflows.WithdrawalInput{
		ID:          w.ID,
		Account:     w.Account,
		Amount:      w.Amount,
		RequestedAt: now,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "withdrawal saga start failed, cancelling", "withdrawal_id", w.ID, "error", err)
		cancelErr := s.store.Update(context.WithoutCancel(ctx), func(ctx context.Context, tx repositories.Tx) error {
			return domainsvcs.CancelWithdrawal(ctx, tx, w.ID, s.now().UTC())
		})
		switch {
		case errors.Is(cancelErr, domain.ErrWithdrawalSettled):
			s.log.WarnContext(ctx, "withdrawal saga started despite start error", "withdrawal_id", w.ID)
			return s.Get(ctx, w.ID)
		case cancelErr != nil:
			s.log.ErrorContext(ctx, "withdrawal cancel failed", "withdrawal_id", w.ID, "error", cancelErr)
		}
		return nil, err
	}

	s.log.InfoContext(ctx, "withdrawal started",
		"withdrawal_id", w.ID,
		"account", w.Account.String(),
		"amount", w.Amount.String(),
	)
	return w, nil
}

// Get returns the withdrawal id or ErrWithdrawalNotFound.
func (s *WithdrawalService) Get(ctx context.Context, id string) (*models.Withdrawal, error) {
	var w *models.Withdrawal
	err := s.store.View(ctx, func(ctx context.Context, tx repositories.Tx) error {
		var err error
		w, err = tx.Withdrawals().Get(ctx, id)
		return err
	})
	return w, err
}

func (s *WithdrawalService) newID(at time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return "withdrawal-" + ulid.MustNew(ulid.Timestamp(at), s.entropy).String()
}
