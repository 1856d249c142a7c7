package pricing

import (
	"fmt"
	"math"

	"github.com/angelmondragon/shirtforge-backend/pkg/enums"
)

const (
	MinOffsetPercent = 10.0
	MaxOffsetPercent = 90.0
	MinScale         = 0.2
	MaxScale         = 2.0

	MoveStep   = 5.0
	ZoomStep   = 0.1
	RotateStep = 15.0

	DefaultOffsetPercent = 50.0
	DefaultScale         = 1.0
)

// Placement positions artwork over the product photo. X and Y are percent
// offsets of the design center; Rotation is in degrees and is not wrapped.
type Placement struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Scale    float64 `json:"scale"`
	Rotation float64 `json:"rotation"`
}

// DefaultPlacement centers the artwork at its natural size.
func DefaultPlacement() Placement {
	return Placement{X: DefaultOffsetPercent, Y: DefaultOffsetPercent, Scale: DefaultScale}
}

// Clamp keeps X and Y in [10,90] and Scale in [0.2,2.0]. Rotation is left alone.
func (p Placement) Clamp() Placement {
	p.X = clamp(p.X, MinOffsetPercent, MaxOffsetPercent)
	p.Y = clamp(p.Y, MinOffsetPercent, MaxOffsetPercent)
	p.Scale = clamp(p.Scale, MinScale, MaxScale)
	return p
}

// MoveBy shifts the design by discrete steps and clamps the offsets.
func (p Placement) MoveBy(dx, dy float64) Placement {
	p.X = clamp(p.X+dx, MinOffsetPercent, MaxOffsetPercent)
	p.Y = clamp(p.Y+dy, MinOffsetPercent, MaxOffsetPercent)
	return p
}

// Zoom changes the scale and clamps it.
func (p Placement) Zoom(delta float64) Placement {
	p.Scale = clamp(roundTo(p.Scale+delta, 4), MinScale, MaxScale)
	return p
}

// Rotate accumulates rotation without normalizing it to [0,360).
func (p Placement) Rotate(delta float64) Placement {
	p.Rotation += delta
	return p
}

// DragTo sets the offsets from continuous pointer movement. Dragging is not
// clamped; only button moves are.
func (p Placement) DragTo(x, y float64) Placement {
	p.X = x
	p.Y = y
	return p
}

// Reset returns the default placement.
func (p Placement) Reset() Placement {
	return DefaultPlacement()
}

// PlacementEdit is a single canvas operation. Move reads DX/DY, Zoom and
// Rotate read Delta, Drag reads X/Y. A zero Delta falls back to the button
// step; a move needs a non-zero DX or DY.
type PlacementEdit struct {
	Op    enums.PlacementOp `json:"op"`
	DX    float64           `json:"dx,omitempty"`
	DY    float64           `json:"dy,omitempty"`
	Delta float64           `json:"delta,omitempty"`
	X     float64           `json:"x,omitempty"`
	Y     float64           `json:"y,omitempty"`
}

// Apply runs the edit against p.
func (p Placement) Apply(edit PlacementEdit) (Placement, error) {
	switch edit.Op {
	case enums.PlacementOpMove:
		if edit.DX == 0 && edit.DY == 0 {
			return p, fmt.Errorf("move requires dx or dy")
		}
		return p.MoveBy(edit.DX, edit.DY), nil
	case enums.PlacementOpZoom:
		delta := edit.Delta
		if delta == 0 {
			delta = ZoomStep
		}
		return p.Zoom(delta), nil
	case enums.PlacementOpRotate:
		delta := edit.Delta
		if delta == 0 {
			delta = RotateStep
		}
		return p.Rotate(delta), nil
	case enums.PlacementOpDrag:
		return p.DragTo(edit.X, edit.Y), nil
	case enums.PlacementOpReset:
		return p.Reset(), nil
	default:
		return p, fmt.Errorf("unsupported placement operation %q", edit.Op)
	}
}

func (p Placement) finite() bool {
	for _, v := range []float64{p.X, p.Y, p.Scale, p.Rotation} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
