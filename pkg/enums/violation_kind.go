package enums

import "fmt"

// ViolationKind classifies why a design order selection cannot be accepted.
type ViolationKind string

const (
	ViolationKindNoColorSelected      ViolationKind = "no_color_selected"
	ViolationKindNoDesignUploaded     ViolationKind = "no_design_uploaded"
	ViolationKindBelowMinimumQuantity ViolationKind = "below_minimum_quantity"
	ViolationKindInsufficientStock    ViolationKind = "insufficient_stock"
	ViolationKindUnknownColor         ViolationKind = "unknown_color"
	ViolationKindUnsupportedSize      ViolationKind = "unsupported_size"
)

var validViolationKinds = []ViolationKind{
	ViolationKindNoColorSelected,
	ViolationKindNoDesignUploaded,
	ViolationKindBelowMinimumQuantity,
	ViolationKindInsufficientStock,
	ViolationKindUnknownColor,
	ViolationKindUnsupportedSize,
}

// String implements fmt.Stringer.
func (c ViolationKind) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ViolationKind.
func (c ViolationKind) IsValid() bool {
	for _, candidate := range validViolationKinds {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseViolationKind converts raw input into a ViolationKind.
func ParseViolationKind(value string) (ViolationKind, error) {
	for _, candidate := range validViolationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid violation kind %q", value)
}
