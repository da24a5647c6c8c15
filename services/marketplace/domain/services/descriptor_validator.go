// Package services contains the marketplace ledger and its stateless domain rules.
// Everything here operates on domain types and repository interfaces only; callers
// supply the transaction and are responsible for serializing writers.
package services

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ghuser/nftmarket/services/marketplace/domain/models"
)

// ValidateDescriptor enforces business rules for a Descriptor beyond the
// length limits of its constructor.
//
// Business rules:
//   - No leading or trailing whitespace
//   - No whitespace or control characters anywhere (descriptors are URIs)
func ValidateDescriptor(d models.Descriptor) error {
	s := d.String()

	if s != strings.TrimSpace(s) {
		return fmt.Errorf("descriptor must not have leading or trailing whitespace")
	}

	for _, r := range s {
		if unicode.IsControl(r) {
			return fmt.Errorf("descriptor must not contain control characters")
		}
		if unicode.IsSpace(r) {
			return fmt.Errorf("descriptor must not contain whitespace")
		}
	}

	return nil
}
