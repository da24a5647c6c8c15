package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ghuser/nftmarket/pkg/money"
	"github.com/ghuser/nftmarket/services/marketplace/domain"
)

// AmountScale is the number of fractional digits of the native unit; one wei
// is 10^-18 of a whole coin.
const AmountScale = money.Scale

// MaxAmount is the largest amount the ledger holds: (2^256 - 1) wei.
var MaxAmount = money.Max

// ParseAmount parses a native-unit amount such as "0.00025".
// Negative values, values finer than one wei and values above MaxAmount are
// rejected with ErrInvalidAmount.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", domain.ErrInvalidAmount, s)
	}
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ParsePrice parses a listing price. Non-positive prices are returned as is
// so the ledger can answer ErrPriceTooLow; positive prices obey the
// ParseAmount bounds.
func ParsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", domain.ErrInvalidAmount, s)
	}
	if err := ValidatePrice(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ValidatePrice applies the ParseAmount bounds to |d| and lets the sign through.
func ValidatePrice(d decimal.Decimal) error {
	return checkMagnitude(d)
}

// ValidateAmount checks that d is non-negative and representable in uint256 wei.
func ValidateAmount(d decimal.Decimal) error {
	if d.IsNegative() {
		return fmt.Errorf("%w: %s is negative", domain.ErrInvalidAmount, d)
	}
	return checkMagnitude(d)
}

func checkMagnitude(d decimal.Decimal) error {
	switch err := money.Check(d); {
	case errors.Is(err, money.ErrTooLarge):
		return fmt.Errorf("%w: exceeds %s", domain.ErrInvalidAmount, MaxAmount)
	case errors.Is(err, money.ErrTooPrecise):
		return fmt.Errorf("%w: more than %d decimal places", domain.ErrInvalidAmount, AmountScale)
	case err != nil:
		return fmt.Errorf("%w: %v", domain.ErrInvalidAmount, err)
	}
	return nil
}
