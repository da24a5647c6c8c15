// Package money holds the bounds of native-unit amounts: at most 18
// fractional digits (one wei) and at most the largest uint256 wei value.
//
// The checks look at the coefficient length and exponent before any
// arithmetic, so an input such as "1e30000000" is rejected without being
// expanded.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits of the native unit.
const Scale = 18

// MaxIntegerDigits is the length of the integer part of Max.
const MaxIntegerDigits = 60

// Max is (2^256 - 1) wei.
var Max = decimal.RequireFromString("115792089237316195423570985008687907853269984665640564039457.584007913129639935")

var (
	ErrTooLarge   = errors.New("amount exceeds the uint256 wei range")
	ErrTooPrecise = errors.New("amount is finer than one wei")
)

// Check reports whether |d| fits in uint256 wei and is a whole number of wei.
func Check(d decimal.Decimal) error {
	if d.IsZero() {
		return nil
	}
	// NumDigits may be off by one, so the shortcuts leave a digit of slack and
	// the exact comparisons below decide the boundary.
	digits, exp := d.NumDigits(), int(d.Exponent())
	if digits+exp > MaxIntegerDigits+1 {
		return ErrTooLarge
	}
	// c*10^exp is a multiple of 10^-Scale only if c has -exp-Scale trailing zeros.
	if exp < -Scale && digits < -exp-Scale {
		return ErrTooPrecise
	}
	if d.Abs().Cmp(Max) > 0 {
		return ErrTooLarge
	}
	if !d.Equal(d.Truncate(Scale)) {
		return ErrTooPrecise
	}
	return nil
}
