package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Tier maps a quantity range to a percentage discount. Max of 0 means the
// tier has no upper bound.
type Tier struct {
	Min             int             `json:"min"`
	Max             int             `json:"max"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// Unbounded reports whether the tier has no upper limit.
func (t Tier) Unbounded() bool {
	return t.Max == 0
}

// Matches reports whether totalQuantity falls inside the tier.
func (t Tier) Matches(totalQuantity int) bool {
	return totalQuantity >= t.Min && (t.Unbounded() || totalQuantity <= t.Max)
}

// TierResolution is the result of ResolveTier. Either field may be nil.
type TierResolution struct {
	Applied *Tier `json:"applied_tier"`
	Next    *Tier `json:"next_tier"`
}

// DiscountPercent returns the applied tier's discount, or zero.
func (r TierResolution) DiscountPercent() decimal.Decimal {
	if r.Applied == nil {
		return decimal.Zero
	}
	return r.Applied.DiscountPercent
}

// ResolveTier finds the tier that applies to totalQuantity and the tier a
// shopper would reach next. The input slice is never reordered.
//
// Overlapping tiers resolve to the matching tier with the highest Min.
func ResolveTier(tiers []Tier, totalQuantity int) TierResolution {
	if len(tiers) == 0 {
		return TierResolution{}
	}

	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Min < sorted[j].Min })

	appliedIdx := -1
	if totalQuantity > 0 {
		for i := len(sorted) - 1; i >= 0; i-- {
			if sorted[i].Matches(totalQuantity) {
				appliedIdx = i
				break
			}
		}
	}

	var res TierResolution
	if appliedIdx >= 0 {
		applied := sorted[appliedIdx]
		res.Applied = &applied
		if appliedIdx+1 < len(sorted) {
			next := sorted[appliedIdx+1]
			res.Next = &next
		}
		return res
	}

	for i := range sorted {
		if sorted[i].Min > totalQuantity {
			next := sorted[i]
			res.Next = &next
			break
		}
	}
	return res
}
