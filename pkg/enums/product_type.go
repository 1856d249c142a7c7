package enums

import "fmt"

// ProductType is the garment family a designer configuration applies to.
type ProductType string

const (
	ProductTypeShirt  ProductType = "shirt"
	ProductTypeHoodie ProductType = "hoodie"
	ProductTypeHat    ProductType = "hat"
	ProductTypeBottle ProductType = "bottle"
)

var validProductTypes = []ProductType{
	ProductTypeShirt,
	ProductTypeHoodie,
	ProductTypeHat,
	ProductTypeBottle,
}

// String implements fmt.Stringer.
func (c ProductType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductType.
func (c ProductType) IsValid() bool {
	for _, candidate := range validProductTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseProductType converts raw input into a ProductType.
func ParseProductType(value string) (ProductType, error) {
	for _, candidate := range validProductTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product type %q", value)
}
