package enums

import "fmt"

// PrintPosition names a printable area on the garment.
type PrintPosition string

const (
	PrintPositionFront PrintPosition = "front"
	PrintPositionBack  PrintPosition = "back"
	PrintPositionSide  PrintPosition = "side"
)

var validPrintPositions = []PrintPosition{
	PrintPositionFront,
	PrintPositionBack,
	PrintPositionSide,
}

// String implements fmt.Stringer.
func (c PrintPosition) String() string {
	return string(c)
}

// IsValid reports whether the value is a known PrintPosition.
func (c PrintPosition) IsValid() bool {
	for _, candidate := range validPrintPositions {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParsePrintPosition converts raw input into a PrintPosition.
func ParsePrintPosition(value string) (PrintPosition, error) {
	for _, candidate := range validPrintPositions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid print position %q", value)
}

// PrintPositions lists every position in display order.
func PrintPositions() []PrintPosition {
	return append([]PrintPosition(nil), validPrintPositions...)
}
