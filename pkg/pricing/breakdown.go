package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// NextTierPreview tells the shopper how far the next discount is.
type NextTierPreview struct {
	ItemsNeeded        int             `json:"items_needed"`
	AdditionalPercent  decimal.Decimal `json:"additional_percent"`
	ApproximateSavings decimal.Decimal `json:"approximate_savings"`
}

// Message renders the preview line shown under the running total.
func (p NextTierPreview) Message() string {
	return fmt.Sprintf("Order %d more to save %s%% (approximately %s)", p.ItemsNeeded, p.AdditionalPercent.String(), formatMoney(p.ApproximateSavings))
}

// PriceBreakdown is the priced result of a selection. Amounts are rounded to
// cents and FinalTotal is derived from the rounded parts.
type PriceBreakdown struct {
	UnitPrice        decimal.Decimal  `json:"unit_price"`
	TotalQuantity    int              `json:"total_quantity"`
	PositionCount    int              `json:"position_count"`
	DecorationMethod string           `json:"decoration_method,omitempty"`
	ProductTotal     decimal.Decimal  `json:"product_total"`
	SetupFeeTotal    decimal.Decimal  `json:"setup_fee_total"`
	DiscountPercent  decimal.Decimal  `json:"discount_percent"`
	DiscountAmount   decimal.Decimal  `json:"discount_amount"`
	FinalTotal       decimal.Decimal  `json:"final_total"`
	AppliedTier      *Tier            `json:"applied_tier"`
	NextTier         *Tier            `json:"next_tier"`
	NextTierPreview  *NextTierPreview `json:"next_tier_preview,omitempty"`
}

// ComputeBreakdown prices a selection. The same tier resolution feeds both
// the discount and the next tier preview.
func ComputeBreakdown(unitPrice decimal.Decimal, sel DesignOrderSelection, cfg ProductDesignConfig, defaultSetupFee decimal.Decimal) PriceBreakdown {
	total := sel.TotalQuantity()
	qty := decimal.NewFromInt(int64(total))

	tiers := ResolveTier(cfg.TierPricing, total)
	percent := tiers.DiscountPercent()

	productTotal := unitPrice.Mul(qty).Round(2)
	setupFee := CalculateSetupFee(sel.Method(), len(sel.Positions), cfg.SetupFees, defaultSetupFee).Round(2)
	discount := productTotal.Mul(percent).Div(hundred).Round(2)

	b := PriceBreakdown{
		UnitPrice:        unitPrice,
		TotalQuantity:    total,
		PositionCount:    len(sel.Positions),
		DecorationMethod: sel.Method(),
		ProductTotal:     productTotal,
		SetupFeeTotal:    setupFee,
		DiscountPercent:  percent,
		DiscountAmount:   discount,
		FinalTotal:       productTotal.Add(setupFee).Sub(discount),
		AppliedTier:      tiers.Applied,
		NextTier:         tiers.Next,
	}

	if total > 0 && tiers.Next != nil && tiers.Next.Min > total {
		additional := tiers.Next.DiscountPercent.Sub(percent)
		if additional.IsPositive() {
			b.NextTierPreview = &NextTierPreview{
				ItemsNeeded:        tiers.Next.Min - total,
				AdditionalPercent:  additional,
				ApproximateSavings: unitPrice.Mul(qty).Mul(additional).Div(hundred).Round(2),
			}
		}
	}
	return b
}

// DisplayLines renders the breakdown the way the configurator shows it.
func (b PriceBreakdown) DisplayLines() []string {
	lines := []string{
		fmt.Sprintf("Product cost: %s", formatMoney(b.ProductTotal)),
		fmt.Sprintf("Setup fees: %s", formatMoney(b.SetupFeeTotal)),
	}
	if b.DiscountAmount.IsPositive() {
		lines = append(lines, fmt.Sprintf("Discount (%s%%): -%s", b.DiscountPercent.String(), formatMoney(b.DiscountAmount)))
	}
	lines = append(lines, fmt.Sprintf("Total: %s", formatMoney(b.FinalTotal)))
	if b.NextTierPreview != nil {
		lines = append(lines, b.NextTierPreview.Message())
	}
	return lines
}
