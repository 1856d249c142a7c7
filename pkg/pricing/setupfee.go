package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CalculateSetupFee returns the one-time decoration charge for an order.
//
// No designed positions means no fee. A known method is charged per position;
// an unknown or missing method falls back to defaultFee per position.
func CalculateSetupFee(method string, positionCount int, setupFees map[string]decimal.Decimal, defaultFee decimal.Decimal) decimal.Decimal {
	if positionCount <= 0 {
		return decimal.Zero
	}
	if method != "" {
		if fee, ok := setupFees[method]; ok {
			return fee.Mul(decimal.NewFromInt(int64(max(1, positionCount))))
		}
	}
	return defaultFee.Mul(decimal.NewFromInt(int64(positionCount)))
}

// SetupFeeInfo is the short label shown next to the decoration method picker.
func SetupFeeInfo(method string, setupFees map[string]decimal.Decimal, defaultFee decimal.Decimal) string {
	fee := defaultFee
	if method != "" {
		if configured, ok := setupFees[method]; ok {
			fee = configured
		}
	}
	if !fee.IsPositive() {
		return "No setup fee"
	}
	return fmt.Sprintf("Setup fee: %s per position", formatMoney(fee))
}

func formatMoney(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}
