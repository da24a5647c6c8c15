package money

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"0", nil},
		{"0.00025", nil},
		{"0.000000000000000001", nil},
		{"1.000000000000000000000000", nil},
		{"-0.15", nil},
		{"115792089237316195423570985008687907853269984665640564039457.584007913129639935", nil},
		{"115792089237316195423570985008687907853269984665640564039457.584007913129639936", ErrTooLarge},
		{"1e59", nil},
		{"1e60", ErrTooLarge},
		{"1e30000000", ErrTooLarge},
		{"-1e30000000", ErrTooLarge},
		{"0.0000000000000000001", ErrTooPrecise},
		{"1e-30000000", ErrTooPrecise},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if err := Check(decimal.RequireFromString(tt.in)); !errors.Is(err, tt.want) {
				t.Fatalf("Check(%s) = %v, want %v", tt.in, err, tt.want)
			}
		})
	}
}

func TestCheck_HugeExponentIsCheap(t *testing.T) {
	start := time.Now()
	for _, in := range []string{"1e2000000000", "1e-2000000000"} {
		if err := Check(decimal.RequireFromString(in)); err == nil {
			t.Fatalf("Check(%s) accepted", in)
		}
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Check took %s", elapsed)
	}
}
