package domain

import "errors"

// Sentinel errors for the marketplace domain. Use errors.Is() to check these.
// Every operation that returns one of these leaves the ledger unchanged.
var (
	// ErrPriceTooLow indicates a listing or relisting price that is not strictly positive.
	ErrPriceTooLow = errors.New("price must be at least 1 wei")

	// ErrListingFeeMismatch indicates the payment attached to a listing differs from the listing fee.
	ErrListingFeeMismatch = errors.New("price must be equal to listing price")

	// ErrUnknownID indicates the token id was never minted or never listed.
	ErrUnknownID = errors.New("unknown token id")

	// ErrAlreadySold indicates a purchase attempt on an entry that is not for sale.
	ErrAlreadySold = errors.New("item already sold")

	// ErrNotSold indicates a resale attempt on an entry that is still listed.
	ErrNotSold = errors.New("item is still listed")

	// ErrPaymentMismatch indicates the payment attached to a purchase differs from the asking price.
	ErrPaymentMismatch = errors.New("please submit the asking price in order to complete the purchase")

	// ErrPriceMismatch indicates the payment attached to a resale differs from the new price.
	ErrPriceMismatch = errors.New("price must be equal to attached payment")

	// ErrNotOwner indicates the caller does not own the token.
	ErrNotOwner = errors.New("only item owner can perform this operation")

	// ErrNotAdministrator indicates a fee update by someone other than the marketplace administrator.
	ErrNotAdministrator = errors.New("only marketplace owner can update listing price")

	// ErrFundTransferFailed indicates a payment distribution was refused by the recipient.
	ErrFundTransferFailed = errors.New("fund transfer failed")

	// ErrInvalidDescriptor indicates the token descriptor violates domain constraints.
	ErrInvalidDescriptor = errors.New("invalid token descriptor")

	// ErrInvalidAmount indicates a malformed, negative, or over-precise monetary amount.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidAddress indicates an account identifier that is not a 20-byte hex address.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInsufficientBalance indicates a withdrawal larger than the credited balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrWithdrawalNotFound indicates the requested withdrawal does not exist.
	ErrWithdrawalNotFound = errors.New("withdrawal not found")

	// ErrWithdrawalExists indicates a withdrawal with the same id was already recorded.
	ErrWithdrawalExists = errors.New("withdrawal already exists")

	// ErrWithdrawalSettled indicates a completion or refund of a withdrawal that already ended the other way.
	ErrWithdrawalSettled = errors.New("withdrawal already settled")

	// ErrWithdrawalCancelled indicates the payout saga reached a withdrawal that was refunded before it was claimed.
	ErrWithdrawalCancelled = errors.New("withdrawal cancelled")

	// ErrWithdrawalsDisabled indicates payouts are switched off for this deployment.
	ErrWithdrawalsDisabled = errors.New("withdrawals are disabled")
)
