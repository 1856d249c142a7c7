// Package pricing turns a shopper's design selection and a product's designer
// configuration into a validated price breakdown. Every caller (live preview,
// add-to-cart, order finalize) goes through the same functions.
package pricing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/angelmondragon/shirtforge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shirtforge-backend/pkg/errors"
)

// ColorOption is one entry of the ordered color list shown to shoppers.
type ColorOption struct {
	Key         ColorKey `json:"key"`
	DisplayName string   `json:"display_name"`
}

// DecorationMethod is one entry of the ordered decoration method list.
type DecorationMethod struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
}

// ProductDesignConfig is the per-product designer catalog.
type ProductDesignConfig struct {
	ProductID         string                      `json:"product_id"`
	Enabled           bool                        `json:"enabled"`
	ProductType       enums.ProductType           `json:"product_type"`
	UnitPrice         decimal.Decimal             `json:"unit_price"`
	Sizes             []string                    `json:"sizes"`
	Colors            []ColorOption               `json:"colors"`
	ColorSizes        map[ColorKey][]string       `json:"color_sizes,omitempty"`
	InventoryEnabled  bool                        `json:"inventory_enabled"`
	Inventory         map[ColorKey]map[string]int `json:"inventory,omitempty"`
	DecorationMethods []DecorationMethod          `json:"decoration_methods"`
	SetupFees         map[string]decimal.Decimal  `json:"setup_fees"`
	TierPricing       []Tier                      `json:"tier_pricing"`
}

// HasColor reports whether key is part of the configured color list.
func (c ProductDesignConfig) HasColor(key ColorKey) bool {
	return c.colorIndex(key) >= 0
}

// ColorName returns the display name for key, or the key itself when unknown.
func (c ProductDesignConfig) ColorName(key ColorKey) string {
	if idx := c.colorIndex(key); idx >= 0 && c.Colors[idx].DisplayName != "" {
		return c.Colors[idx].DisplayName
	}
	return string(key)
}

// SizesFor returns the sizes offered for a color, falling back to the global list.
func (c ProductDesignConfig) SizesFor(key ColorKey) []string {
	if sizes, ok := c.ColorSizes[key]; ok && len(sizes) > 0 {
		return sizes
	}
	return c.Sizes
}

// SupportsSize reports whether size is offered for the given color.
func (c ProductDesignConfig) SupportsSize(key ColorKey, size string) bool {
	for _, candidate := range c.SizesFor(key) {
		if candidate == size {
			return true
		}
	}
	return false
}

// Offers reports whether the color is configured and sells the size.
func (c ProductDesignConfig) Offers(key ColorKey, size string) bool {
	return c.HasColor(key) && c.SupportsSize(key, size)
}

// Available returns stock for a color/size pair. Missing entries are out of stock.
func (c ProductDesignConfig) Available(key ColorKey, size string) int {
	if c.Inventory == nil {
		return 0
	}
	return c.Inventory[key][size]
}

// HasMethod reports whether the method key is configured.
func (c ProductDesignConfig) HasMethod(method string) bool {
	for _, m := range c.DecorationMethods {
		if m.Key == method {
			return true
		}
	}
	return false
}

func (c ProductDesignConfig) colorIndex(key ColorKey) int {
	for i, opt := range c.Colors {
		if opt.Key == key {
			return i
		}
	}
	return -1
}

func (c ProductDesignConfig) sizeRank(key ColorKey, size string) int {
	for i, candidate := range c.SizesFor(key) {
		if candidate == size {
			return i
		}
	}
	return -1
}

// Normalize canonicalizes color keys and trims labels in place. It returns an
// error when a key cannot be parsed; structural problems are left to Validate.
func (c *ProductDesignConfig) Normalize() error {
	var errs error
	for i := range c.Colors {
		key, err := ParseColorKey(string(c.Colors[i].Key))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("colors[%d]: %w", i, err))
			continue
		}
		c.Colors[i].Key = key
		c.Colors[i].DisplayName = strings.TrimSpace(c.Colors[i].DisplayName)
		if c.Colors[i].DisplayName == "" {
			c.Colors[i].DisplayName = string(key)
		}
	}
	c.Sizes = trimLabels(c.Sizes)

	if len(c.ColorSizes) > 0 {
		normalized := make(map[ColorKey][]string, len(c.ColorSizes))
		for raw, sizes := range c.ColorSizes {
			key, err := ParseColorKey(string(raw))
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("color_sizes: %w", err))
				continue
			}
			if _, dup := normalized[key]; dup {
				errs = multierr.Append(errs, fmt.Errorf("color_sizes: color %s listed more than once", key))
				continue
			}
			normalized[key] = trimLabels(sizes)
		}
		c.ColorSizes = normalized
	}

	if len(c.Inventory) > 0 {
		normalized := make(map[ColorKey]map[string]int, len(c.Inventory))
		for raw, bySize := range c.Inventory {
			key, err := ParseColorKey(string(raw))
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("inventory: %w", err))
				continue
			}
			if _, dup := normalized[key]; dup {
				errs = multierr.Append(errs, fmt.Errorf("inventory: color %s listed more than once", key))
				continue
			}
			levels := make(map[string]int, len(bySize))
			for size, qty := range bySize {
				size = strings.TrimSpace(size)
				if _, dup := levels[size]; dup {
					errs = multierr.Append(errs, fmt.Errorf("inventory[%s]: size %q listed more than once", key, size))
					continue
				}
				levels[size] = qty
			}
			normalized[key] = levels
		}
		c.Inventory = normalized
	}

	for i := range c.DecorationMethods {
		c.DecorationMethods[i].Key = strings.TrimSpace(c.DecorationMethods[i].Key)
		c.DecorationMethods[i].DisplayName = strings.TrimSpace(c.DecorationMethods[i].DisplayName)
	}
	return errs
}

// Validate checks the catalog for data that would misprice an order. All
// problems are collected and returned as a single INVALID_CONFIGURATION error
// whose details list every issue.
func (c ProductDesignConfig) Validate() error {
	var errs error
	add := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf(format, args...))
	}

	if strings.TrimSpace(c.ProductID) == "" {
		add("product_id is required")
	}
	if !c.ProductType.IsValid() {
		add("invalid product type %q", c.ProductType)
	}
	if c.UnitPrice.IsNegative() {
		add("unit price must be >= 0")
	}

	if len(c.Colors) == 0 {
		add("at least one color is required")
	}
	seenColors := map[ColorKey]struct{}{}
	for i, opt := range c.Colors {
		if strings.TrimSpace(string(opt.Key)) == "" {
			add("colors[%d]: key is required", i)
			continue
		}
		if _, dup := seenColors[opt.Key]; dup {
			add("colors[%d]: duplicate color key %q", i, opt.Key)
			continue
		}
		seenColors[opt.Key] = struct{}{}
	}

	if len(c.Sizes) == 0 {
		add("at least one default size is required")
	}
	if dup := firstDuplicate(c.Sizes); dup != "" {
		add("sizes: duplicate size %q", dup)
	}
	for _, key := range sortedColorKeys(c.ColorSizes) {
		if _, ok := seenColors[key]; !ok {
			add("color_sizes: unknown color %q", key)
		}
		if dup := firstDuplicate(c.ColorSizes[key]); dup != "" {
			add("color_sizes[%s]: duplicate size %q", key, dup)
		}
	}

	for _, key := range sortedColorKeys(c.Inventory) {
		if _, ok := seenColors[key]; !ok {
			add("inventory: unknown color %q", key)
		}
		for size, qty := range c.Inventory[key] {
			if qty < 0 {
				add("inventory[%s][%s]: stock must be >= 0", key, size)
			}
		}
	}

	seenMethods := map[string]struct{}{}
	for i, m := range c.DecorationMethods {
		if m.Key == "" {
			add("decoration_methods[%d]: key is required", i)
			continue
		}
		if _, dup := seenMethods[m.Key]; dup {
			add("decoration_methods[%d]: duplicate method %q", i, m.Key)
		}
		seenMethods[m.Key] = struct{}{}
	}
	methodKeys := make([]string, 0, len(c.SetupFees))
	for k := range c.SetupFees {
		methodKeys = append(methodKeys, k)
	}
	sort.Strings(methodKeys)
	for _, k := range methodKeys {
		if c.SetupFees[k].IsNegative() {
			add("setup_fees[%s]: fee must be >= 0", k)
		}
		if _, ok := seenMethods[k]; !ok {
			add("setup_fees[%s]: unknown decoration method", k)
		}
	}

	for i, tier := range c.TierPricing {
		if tier.Min < 0 {
			add("tier_pricing[%d]: min must be >= 0", i)
		}
		if tier.Max < 0 {
			add("tier_pricing[%d]: max must be >= 0", i)
		}
		if tier.Max != 0 && tier.Max < tier.Min {
			add("tier_pricing[%d]: max %d is below min %d", i, tier.Max, tier.Min)
		}
		if tier.DiscountPercent.IsNegative() || tier.DiscountPercent.GreaterThan(hundred) {
			add("tier_pricing[%d]: discount must be within 0..100", i)
		}
	}

	if errs == nil {
		return nil
	}
	issues := make([]string, 0)
	for _, e := range multierr.Errors(errs) {
		issues = append(issues, e.Error())
	}
	return pkgerrors.Wrapf(pkgerrors.CodeInvalidConfiguration, errs, "product %s: %d configuration issue(s)", c.ProductID, len(issues)).
		WithDetails(map[string]any{"issues": issues})
}

func trimLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if v := strings.TrimSpace(l); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func firstDuplicate(labels []string) string {
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			return l
		}
		seen[l] = struct{}{}
	}
	return ""
}

func sortedColorKeys[V any](m map[ColorKey]V) []ColorKey {
	keys := make([]ColorKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
