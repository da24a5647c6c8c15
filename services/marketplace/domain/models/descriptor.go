package models

import "fmt"

// Descriptor is the opaque metadata reference attached to a token at mint
// time, a URI in practice. It is never dereferenced and never changes.
type Descriptor string

const (
	minDescriptorLength = 1
	maxDescriptorLength = 2048
)

// NewDescriptor constructs a valid Descriptor or returns an error if constraints are violated.
func NewDescriptor(s string) (Descriptor, error) {
	if len(s) < minDescriptorLength {
		return "", fmt.Errorf("descriptor must be at least %d character", minDescriptorLength)
	}
	if len(s) > maxDescriptorLength {
		return "", fmt.Errorf("descriptor must not exceed %d characters", maxDescriptorLength)
	}
	return Descriptor(s), nil
}

// String returns the underlying string value.
func (d Descriptor) String() string {
	return string(d)
}
