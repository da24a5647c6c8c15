package models

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ghuser/nftmarket/services/marketplace/domain"
)

// Address identifies an account: a caller, a seller, the administrator or the
// marketplace custodian. Always stored in lower-case 0x-prefixed hex form.
type Address string

const addressHexLength = 40

// ParseAddress normalizes s into an Address or returns ErrInvalidAddress.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if len(s) != addressHexLength+2 || !(strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidAddress, s)
	}
	body := strings.ToLower(s[2:])
	if _, err := hex.DecodeString(body); err != nil {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidAddress, s)
	}
	return Address("0x" + body), nil
}

// MustParseAddress is ParseAddress for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String returns the underlying string value.
func (a Address) String() string {
	return string(a)
}

// IsZero reports whether a is the empty address.
func (a Address) IsZero() bool {
	return a == ""
}
