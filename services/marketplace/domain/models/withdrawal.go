package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStatus tracks a payout of credited funds.
type WithdrawalStatus string

const (
	WithdrawalPending    WithdrawalStatus = "pending"
	WithdrawalProcessing WithdrawalStatus = "processing" // claimed by the payout saga
	WithdrawalCompleted  WithdrawalStatus = "completed"
	WithdrawalRefunded   WithdrawalStatus = "refunded"
)

// Withdrawal moves part of an account's credited balance to an external payout.
// The balance is debited when the withdrawal is recorded and credited back on refund.
type Withdrawal struct {
	ID        string
	Account   Address
	Amount    decimal.Decimal
	Status    WithdrawalStatus
	Reference string // payout gateway reference, set on completion
	CreatedAt time.Time
	UpdatedAt time.Time
}
