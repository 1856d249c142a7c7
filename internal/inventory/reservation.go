package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/shirtforge-backend/pkg/errors"
	"github.com/angelmondragon/shirtforge-backend/pkg/pricing"
)

// ReservationResult reports the outcome for one requested line.
type ReservationResult struct {
	Line      pricing.QuantityLine
	Reserved  bool
	Available int
	Reason    string
}

// ReserveStock decrements stock for every line with a conditional update.
// The repository must be bound to the caller's transaction: a failed line
// leaves earlier decrements applied until the caller rolls back.
// Every line is attempted so all shortfalls are reported together.
func ReserveStock(ctx context.Context, repo *Repository, productID uuid.UUID, lines []pricing.QuantityLine) ([]ReservationResult, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	results := make([]ReservationResult, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "reservation quantity for %s/%s must be positive", line.ColorKey, line.Size)
		}
		ok, err := repo.Decrement(ctx, productID, line.ColorKey, line.Size, line.Quantity)
		if err != nil {
			return nil, err
		}
		if ok {
			results = append(results, ReservationResult{Line: line, Reserved: true})
			continue
		}
		available, err := repo.Available(ctx, productID, line.ColorKey, line.Size)
		if err != nil {
			return nil, err
		}
		results = append(results, ReservationResult{
			Line:      line,
			Available: available,
			Reason:    fmt.Sprintf("requested %d, available %d", line.Quantity, available),
		})
	}
	return results, nil
}

// Shortfalls returns the results that could not be reserved.
func Shortfalls(results []ReservationResult) []ReservationResult {
	var out []ReservationResult
	for _, r := range results {
		if !r.Reserved {
			out = append(out, r)
		}
	}
	return out
}
