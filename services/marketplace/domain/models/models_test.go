package models

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ghuser/nftmarket/services/marketplace/domain"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Address
		wantErr bool
	}{
		{"lower case", "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266", "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266", false},
		{"checksummed", "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266", false},
		{"upper prefix", "0XF39FD6E51AAD88F6F4CE6AB8827279CFFFB92266", "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266", false},
		{"surrounding space", "  0x70997970c51812dc3a010c7d01b50e0d17dc79c8 ", "0x70997970c51812dc3a010c7d01b50e0d17dc79c8", false},
		{"empty", "", "", true},
		{"missing prefix", "f39fd6e51aad88f6f4ce6ab8827279cfffb92266", "", true},
		{"too short", "0xf39fd6", "", true},
		{"non hex", "0xz39fd6e51aad88f6f4ce6ab8827279cfffb92266", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddress(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAddress(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, domain.ErrInvalidAddress) {
				t.Fatalf("expected ErrInvalidAddress, got %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"listing fee", "0.00025", "0.00025", false},
		{"whole", "1", "1", false},
		{"zero", "0", "0", false},
		{"one wei", "0.000000000000000001", "0.000000000000000001", false},
		{"below one wei", "0.0000000000000000001", "", true},
		{"negative", "-0.1", "", true},
		{"garbage", "abc", "", true},
		{"empty", "", "", true},
		{"uint256 wei max", "115792089237316195423570985008687907853269984665640564039457.584007913129639935", "115792089237316195423570985008687907853269984665640564039457.584007913129639935", false},
		{"one wei above max", "115792089237316195423570985008687907853269984665640564039457.584007913129639936", "", true},
		{"huge exponent", "1e30000000", "", true},
		{"tiny exponent", "1e-30000000", "", true},
		{"61 integer digits", "1" + strings.Repeat("0", 60), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAmount(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidAmount) {
					t.Fatalf("expected ErrInvalidAmount, got %v", err)
				}
				return
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"positive", "0.15", "0.15", false},
		{"zero passes through", "0", "0", false},
		{"negative passes through", "-1", "-1", false},
		{"below one wei", "0.0000000000000000001", "", true},
		{"huge exponent", "1e30000000", "", true},
		{"huge negative", "-1e30000000", "", true},
		{"garbage", "ten", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrice(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePrice(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidAmount) {
					t.Fatalf("expected ErrInvalidAmount, got %v", err)
				}
				return
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestValidateAmount_MaxAmount(t *testing.T) {
	if err := ValidateAmount(MaxAmount); err != nil {
		t.Fatalf("MaxAmount rejected: %v", err)
	}
	over := MaxAmount.Add(decimal.New(1, -AmountScale))
	if err := ValidateAmount(over); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount above MaxAmount, got %v", err)
	}
}

func TestNewDescriptor(t *testing.T) {
	t.Run("valid uri", func(t *testing.T) {
		d, err := NewDescriptor("https://picsum.photos/200/300")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.String() != "https://picsum.photos/200/300" {
			t.Fatalf("unexpected descriptor %q", d)
		}
	})

	t.Run("empty returns error", func(t *testing.T) {
		if _, err := NewDescriptor(""); err == nil {
			t.Fatal("expected error, got nil")
		}
	})

	t.Run("too long returns error", func(t *testing.T) {
		if _, err := NewDescriptor(strings.Repeat("x", maxDescriptorLength+1)); err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}

func TestMarketEntry_Active(t *testing.T) {
	e := &MarketEntry{ID: 1, Price: decimal.RequireFromString("0.1")}
	if !e.Active() {
		t.Fatal("unsold entry must be active")
	}
	e.Sold = true
	if e.Active() {
		t.Fatal("sold entry must not be active")
	}
}
