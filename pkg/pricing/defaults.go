package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shirtforge-backend/pkg/enums"
)

// DefaultSizes is the size run offered when a color has no size list.
var DefaultSizes = []string{"XS", "S", "M", "L", "XL", "2XL", "3XL"}

// DefaultConfigTemplate returns the starter catalog admins can copy when
// enabling the designer on a product. It is never applied to a product that
// has no stored configuration.
func DefaultConfigTemplate(productID string) ProductDesignConfig {
	return ProductDesignConfig{
		ProductID:   productID,
		Enabled:     true,
		ProductType: enums.ProductTypeShirt,
		UnitPrice:   decimal.Zero,
		Sizes:       append([]string(nil), DefaultSizes...),
		Colors: []ColorOption{
			{Key: "#FFFFFF", DisplayName: "White"},
			{Key: "#000000", DisplayName: "Black"},
			{Key: "#FF0000", DisplayName: "Red"},
			{Key: "#0000FF", DisplayName: "Blue"},
			{Key: "#808080", DisplayName: "Gray"},
		},
		DecorationMethods: []DecorationMethod{
			{Key: "screen_printing", DisplayName: "Screen Printing"},
			{Key: "dtg", DisplayName: "Direct to Garment (DTG)"},
			{Key: "embroidery", DisplayName: "Embroidery"},
			{Key: "heat_transfer", DisplayName: "Heat Transfer"},
		},
		SetupFees: map[string]decimal.Decimal{
			"screen_printing": decimal.RequireFromString("10.95"),
			"dtg":             decimal.RequireFromString("8.95"),
			"embroidery":      decimal.RequireFromString("15.95"),
			"heat_transfer":   decimal.RequireFromString("7.95"),
		},
		TierPricing: DefaultTiers(),
	}
}

// DefaultTiers is the volume discount ladder used by the starter catalog.
func DefaultTiers() []Tier {
	return []Tier{
		{Min: 50, Max: 99, DiscountPercent: decimal.NewFromInt(5)},
		{Min: 100, Max: 249, DiscountPercent: decimal.NewFromInt(10)},
		{Min: 250, Max: 499, DiscountPercent: decimal.NewFromInt(15)},
		{Min: 500, Max: 999, DiscountPercent: decimal.NewFromInt(20)},
		{Min: 1000, Max: 0, DiscountPercent: decimal.NewFromInt(25)},
	}
}
