package recipes

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/alquemist/internal/domain/apperr"
)

// ruleError is a business-rule refusal. Every ruleError matches apperr.ErrRejected.
type ruleError string

func (e ruleError) Error() string { return string(e) }

func (e ruleError) Is(target error) bool { return target == apperr.ErrRejected }

var (
	ErrRecipeInactive            error = ruleError("recipe is inactive")
	ErrFacilityInactive          error = ruleError("facility is inactive")
	ErrInsufficientStock         error = ruleError("insufficient stock")
	ErrLotProductMismatch        error = ruleError("lot belongs to a different product")
	ErrLotOutsideFacility        error = ruleError("lot is not stored in the facility")
	ErrLotUnavailable            error = ruleError("lot is not available")
	ErrSelectionExceedsAvailable error = ruleError("selected quantity exceeds lot availability")
	ErrOverSelection             error = ruleError("selected quantity exceeds the requirement")
	ErrNoLotSelection            error = ruleError("no lot selection for ingredient")
)

// InsufficientStockError reports the ingredient that could not be covered.
type InsufficientStockError struct {
	ProductID string
	Required  decimal.Decimal
	Available decimal.Decimal
}

// Shortfall is the quantity missing to satisfy the requirement.
func (e *InsufficientStockError) Shortfall() decimal.Decimal {
	return e.Required.Sub(e.Available)
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: required %s, available %s, short by %s",
		e.ProductID, e.Required.String(), e.Available.String(), e.Shortfall().String())
}

// Is matches ErrInsufficientStock and apperr.ErrRejected.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock || target == apperr.ErrRejected
}

// AsInsufficient extracts an InsufficientStockError from err.
func AsInsufficient(err error) (*InsufficientStockError, bool) {
	var ins *InsufficientStockError
	if errors.As(err, &ins) {
		return ins, true
	}
	return nil, false
}
