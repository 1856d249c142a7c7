package enums

import "fmt"

// PlacementOp is an edit applied to a design placement on the canvas.
type PlacementOp string

const (
	PlacementOpMove   PlacementOp = "move"
	PlacementOpZoom   PlacementOp = "zoom"
	PlacementOpRotate PlacementOp = "rotate"
	PlacementOpDrag   PlacementOp = "drag"
	PlacementOpReset  PlacementOp = "reset"
)

var validPlacementOps = []PlacementOp{
	PlacementOpMove,
	PlacementOpZoom,
	PlacementOpRotate,
	PlacementOpDrag,
	PlacementOpReset,
}

// String implements fmt.Stringer.
func (c PlacementOp) String() string {
	return string(c)
}

// IsValid reports whether the value is a known PlacementOp.
func (c PlacementOp) IsValid() bool {
	for _, candidate := range validPlacementOps {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParsePlacementOp converts raw input into a PlacementOp.
func ParsePlacementOp(value string) (PlacementOp, error) {
	for _, candidate := range validPlacementOps {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid placement operation %q", value)
}
