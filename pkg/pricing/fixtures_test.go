package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shirtforge-backend/pkg/enums"
)

func strPtr(v string) *string { return &v }

func testConfig() ProductDesignConfig {
	cfg := DefaultConfigTemplate("prod-1")
	cfg.UnitPrice = decimal.NewFromInt(10)
	cfg.SetupFees["screen_printing"] = decimal.RequireFromString("12.95")
	cfg.ColorSizes = map[ColorKey][]string{"#000000": {"S", "M", "L"}}
	return cfg
}

func testSelection() DesignOrderSelection {
	return DesignOrderSelection{
		Colors: []ColorKey{"#FFFFFF", "#000000"},
		Quantities: map[ColorKey]map[string]int{
			"#FFFFFF": {"S": 25, "M": 50},
			"#000000": {"L": 75},
		},
		DecorationMethod: strPtr("screen_printing"),
		Positions:        []enums.PrintPosition{enums.PrintPositionFront, enums.PrintPositionBack},
	}
}
