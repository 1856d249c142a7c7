package checkout

import (
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/shirtforge-backend/pkg/errors"
	"github.com/angelmondragon/shirtforge-backend/pkg/pricing"
)

// ViolationDetail is the wire form of one violation in an error response.
type ViolationDetail struct {
	ProductID uuid.UUID `json:"product_id"`
	pricing.Violation
}

// ViolationsError converts selection violations into a STATE_CONFLICT error
// whose details carry every violation. It returns nil when there are none.
func ViolationsError(productID uuid.UUID, violations []pricing.Violation) error {
	if len(violations) == 0 {
		return nil
	}
	details := make([]ViolationDetail, 0, len(violations))
	for _, v := range violations {
		details = append(details, ViolationDetail{ProductID: productID, Violation: v})
	}
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "design cannot be ordered: %d problem(s)", len(violations)).WithDetails(map[string]any{
		"violations": details,
	})
}

// ValidateForCommit runs the full selection check used before an order line
// is accepted: the four pricing gates plus catalog membership.
func ValidateForCommit(productID uuid.UUID, sel pricing.DesignOrderSelection, cfg pricing.ProductDesignConfig, minOrderQuantity int) (pricing.ValidationResult, error) {
	result := pricing.ValidateSelection(sel, cfg, minOrderQuantity)
	if extra := pricing.CheckCatalogMembership(sel, cfg); len(extra) > 0 {
		result.Violations = append(result.Violations, extra...)
		result.OK = false
	}
	return result, ViolationsError(productID, result.Violations)
}
