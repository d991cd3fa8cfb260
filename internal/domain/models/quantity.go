package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// QuantityScale is the number of fractional digits a stored quantity may carry.
// Together with MaxQuantity it keeps every quantity, and any difference of
// two quantities, within the 34 significant digits of Decimal128.
const QuantityScale = 12

// MaxQuantity is the exclusive upper bound on the magnitude of a quantity.
var MaxQuantity = decimal.New(1, 18)

// CheckQuantity reports whether d can be stored as a quantity.
func CheckQuantity(d decimal.Decimal) error {
	if !d.Equal(d.Truncate(QuantityScale)) {
		return fmt.Errorf("quantity %s has more than %d decimal places", d.String(), QuantityScale)
	}
	if d.Abs().GreaterThanOrEqual(MaxQuantity) {
		return fmt.Errorf("quantity %s exceeds %s", d.String(), MaxQuantity.String())
	}
	return nil
}

// ScaleQuantity multiplies base by factor and rounds the result to
// QuantityScale places.
func ScaleQuantity(base, factor decimal.Decimal) decimal.Decimal {
	return base.Mul(factor).Round(QuantityScale)
}
