package catalog

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shirtforge-backend/pkg/db/models"
	"github.com/angelmondragon/shirtforge-backend/pkg/pricing"
)

// toConfig rebuilds the pricing view of a stored product. Children are
// expected to be loaded ordered by position.
func toConfig(row models.DesignerProduct) pricing.ProductDesignConfig {
	cfg := pricing.ProductDesignConfig{
		ProductID:        row.ProductID.String(),
		Enabled:          row.Enabled,
		ProductType:      row.ProductType,
		UnitPrice:        row.UnitPrice,
		InventoryEnabled: row.InventoryEnabled,
		Sizes:            []string{},
		Colors:           make([]pricing.ColorOption, 0, len(row.Colors)),
		SetupFees:        map[string]decimal.Decimal{},
	}
	for _, c := range row.Colors {
		cfg.Colors = append(cfg.Colors, pricing.ColorOption{Key: pricing.ColorKey(c.ColorKey), DisplayName: c.DisplayName})
	}

	sizes := append([]models.DesignerSize(nil), row.Sizes...)
	sort.SliceStable(sizes, func(i, j int) bool { return sizes[i].Position < sizes[j].Position })
	for _, s := range sizes {
		if s.ColorKey == "" {
			cfg.Sizes = append(cfg.Sizes, s.Size)
			continue
		}
		if cfg.ColorSizes == nil {
			cfg.ColorSizes = map[pricing.ColorKey][]string{}
		}
		key := pricing.ColorKey(s.ColorKey)
		cfg.ColorSizes[key] = append(cfg.ColorSizes[key], s.Size)
	}

	cfg.DecorationMethods = make([]pricing.DecorationMethod, 0, len(row.Methods))
	for _, m := range row.Methods {
		cfg.DecorationMethods = append(cfg.DecorationMethods, pricing.DecorationMethod{Key: m.MethodKey, DisplayName: m.DisplayName})
		if m.SetupFee.Valid {
			cfg.SetupFees[m.MethodKey] = m.SetupFee.Decimal
		}
	}

	cfg.TierPricing = make([]pricing.Tier, 0, len(row.Tiers))
	for _, t := range row.Tiers {
		cfg.TierPricing = append(cfg.TierPricing, pricing.Tier{Min: t.MinQty, Max: t.MaxQty, DiscountPercent: t.DiscountPercent})
	}
	return cfg
}

// fromConfig flattens a validated config into storage rows. Inventory is
// stored separately.
func fromConfig(productID uuid.UUID, cfg pricing.ProductDesignConfig) models.DesignerProduct {
	row := models.DesignerProduct{
		ProductID:        productID,
		Enabled:          cfg.Enabled,
		ProductType:      cfg.ProductType,
		UnitPrice:        cfg.UnitPrice,
		InventoryEnabled: cfg.InventoryEnabled,
	}
	for i, c := range cfg.Colors {
		row.Colors = append(row.Colors, models.DesignerColor{
			ProductID:   productID,
			ColorKey:    string(c.Key),
			DisplayName: c.DisplayName,
			Position:    i,
		})
	}

	pos := 0
	for _, size := range cfg.Sizes {
		row.Sizes = append(row.Sizes, models.DesignerSize{ProductID: productID, Size: size, Position: pos})
		pos++
	}
	for _, c := range cfg.Colors {
		for _, size := range cfg.ColorSizes[c.Key] {
			row.Sizes = append(row.Sizes, models.DesignerSize{ProductID: productID, ColorKey: string(c.Key), Size: size, Position: pos})
			pos++
		}
	}

	for i, m := range cfg.DecorationMethods {
		method := models.DesignerDecorationMethod{
			ProductID:   productID,
			MethodKey:   m.Key,
			DisplayName: m.DisplayName,
			Position:    i,
		}
		if fee, ok := cfg.SetupFees[m.Key]; ok {
			method.SetupFee = decimal.NullDecimal{Decimal: fee, Valid: true}
		}
		row.Methods = append(row.Methods, method)
	}

	for i, t := range cfg.TierPricing {
		row.Tiers = append(row.Tiers, models.DesignerTier{
			ProductID:       productID,
			Position:        i,
			MinQty:          t.Min,
			MaxQty:          t.Max,
			DiscountPercent: t.DiscountPercent,
		})
	}
	return row
}
