package pricing

import (
	"fmt"

	"github.com/angelmondragon/shirtforge-backend/pkg/enums"
)

// Violation is a shopper-correctable problem with a selection. Fields that do
// not apply to the kind are left zero.
type Violation struct {
	Kind      enums.ViolationKind `json:"kind"`
	Message   string              `json:"message"`
	ColorKey  ColorKey            `json:"color_key,omitempty"`
	Size      string              `json:"size,omitempty"`
	Required  int                 `json:"required,omitempty"`
	Actual    int                 `json:"actual,omitempty"`
	Requested int                 `json:"requested,omitempty"`
	Available int                 `json:"available"`
}

// ValidationResult lists every violation found, in gate order.
type ValidationResult struct {
	OK            bool        `json:"ok"`
	TotalQuantity int         `json:"total_quantity"`
	Violations    []Violation `json:"violations"`
}

// Kinds returns the violation kinds in order, for logging and metrics.
func (r ValidationResult) Kinds() []enums.ViolationKind {
	kinds := make([]enums.ViolationKind, 0, len(r.Violations))
	for _, v := range r.Violations {
		kinds = append(kinds, v.Kind)
	}
	return kinds
}

// ValidateSelection runs every gate and collects all violations:
// colors chosen, artwork uploaded, minimum quantity, then stock when the
// catalog tracks inventory. It never mutates cfg or sel.
func ValidateSelection(sel DesignOrderSelection, cfg ProductDesignConfig, minOrderQuantity int) ValidationResult {
	total := sel.TotalQuantity()
	violations := make([]Violation, 0)

	if len(sel.Colors) == 0 {
		violations = append(violations, Violation{
			Kind:    enums.ViolationKindNoColorSelected,
			Message: "Please select at least one color.",
		})
	}

	if len(sel.Positions) == 0 {
		violations = append(violations, Violation{
			Kind:    enums.ViolationKindNoDesignUploaded,
			Message: "Please upload at least one design.",
		})
	}

	if total < minOrderQuantity {
		violations = append(violations, Violation{
			Kind:     enums.ViolationKindBelowMinimumQuantity,
			Message:  fmt.Sprintf("Minimum order quantity is %d items. You have selected %d.", minOrderQuantity, total),
			Required: minOrderQuantity,
			Actual:   total,
		})
	}

	if cfg.InventoryEnabled {
		violations = append(violations, stockViolations(sel.Lines(cfg), cfg)...)
	}

	return ValidationResult{
		OK:            len(violations) == 0,
		TotalQuantity: total,
		Violations:    violations,
	}
}

func stockViolations(lines []QuantityLine, cfg ProductDesignConfig) []Violation {
	var out []Violation
	for _, line := range lines {
		available := cfg.Available(line.ColorKey, line.Size)
		if line.Quantity <= available {
			continue
		}
		out = append(out, InsufficientStock(line, available, cfg.ColorName(line.ColorKey)))
	}
	return out
}

// InsufficientStock builds the violation reported when a line exceeds stock,
// both by the validator and by the stock reservation at finalize.
func InsufficientStock(line QuantityLine, available int, colorName string) Violation {
	return Violation{
		Kind:      enums.ViolationKindInsufficientStock,
		Message:   fmt.Sprintf("Only %d available for %s size %s.", available, colorName, line.Size),
		ColorKey:  line.ColorKey,
		Size:      line.Size,
		Requested: line.Quantity,
		Available: available,
	}
}

// CheckCatalogMembership reports colors the catalog does not offer and sizes
// that are not offered for the chosen color.
func CheckCatalogMembership(sel DesignOrderSelection, cfg ProductDesignConfig) []Violation {
	var out []Violation
	reported := map[ColorKey]struct{}{}
	unknown := func(key ColorKey) {
		if _, done := reported[key]; done {
			return
		}
		reported[key] = struct{}{}
		out = append(out, Violation{
			Kind:     enums.ViolationKindUnknownColor,
			Message:  fmt.Sprintf("Color %s is not available for this product.", key),
			ColorKey: key,
		})
	}

	for _, key := range sel.Colors {
		if !cfg.HasColor(key) {
			unknown(key)
		}
	}
	for _, line := range sel.Lines(cfg) {
		if !cfg.HasColor(line.ColorKey) {
			unknown(line.ColorKey)
			continue
		}
		if !cfg.SupportsSize(line.ColorKey, line.Size) {
			out = append(out, Violation{
				Kind:      enums.ViolationKindUnsupportedSize,
				Message:   fmt.Sprintf("Size %s is not offered in %s.", line.Size, cfg.ColorName(line.ColorKey)),
				ColorKey:  line.ColorKey,
				Size:      line.Size,
				Requested: line.Quantity,
			})
		}
	}
	return out
}
