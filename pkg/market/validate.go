package market

import (
	"fmt"
	"math"

	"github.com/orlim-labs/orlim-go/pkg/units"
)

// lotTolerance absorbs float rounding from the human-to-base conversion:
// a value within 1% of a lot/tick multiple on either side still passes.
const lotTolerance = 0.01

// ValidationResult collects every constraint violation so a form can show
// all of them at once.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// ValidateMinSize checks the order quantity against the pool's minimum size.
func ValidateMinSize(quantity float64, params TradingParams, baseDecimals int) error {
	raw, err := units.ToBaseUnits(quantity, baseDecimals)
	if err != nil {
		return err
	}
	if raw < params.MinSize {
		minHuman, _ := units.FromBaseUnits(params.MinSize, baseDecimals)
		prec := baseDecimals
		if prec > 6 {
			prec = 6
		}
		return fmt.Errorf("minimum quantity is %s", units.FormatWithPrecision(minHuman, prec))
	}
	return nil
}

// ValidateLotSize checks that the quantity is a multiple of the pool's lot
// size, within tolerance.
func ValidateLotSize(quantity float64, params TradingParams, baseDecimals int) error {
	if quantity < 0 || math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return fmt.Errorf("quantity %v is not a valid amount", quantity)
	}
	raw := uint64(math.Round(quantity * math.Pow10(baseDecimals)))
	if !nearMultiple(raw, params.LotSize) {
		lotHuman, _ := units.FromBaseUnits(params.LotSize, baseDecimals)
		prec := baseDecimals
		if prec > 6 {
			prec = 6
		}
		return fmt.Errorf("quantity must be a multiple of %s", units.FormatWithPrecision(lotHuman, prec))
	}
	return nil
}

// ValidateTickSize checks that the price is a multiple of the pool's tick
// size, within tolerance.
func ValidateTickSize(price float64, params TradingParams, quoteDecimals int) error {
	if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return fmt.Errorf("price %v is not a valid amount", price)
	}
	raw := uint64(math.Round(price * math.Pow10(quoteDecimals)))
	if !nearMultiple(raw, params.TickSize) {
		tickHuman, _ := units.FromBaseUnits(params.TickSize, quoteDecimals)
		prec := quoteDecimals
		if prec > 8 {
			prec = 8
		}
		return fmt.Errorf("price must be a multiple of %s", units.FormatWithPrecision(tickHuman, prec))
	}
	return nil
}

func nearMultiple(raw, step uint64) bool {
	if step == 0 {
		return true
	}
	remainder := raw % step
	tolerance := float64(step) * lotTolerance
	return float64(remainder) <= tolerance || float64(step-remainder) <= tolerance
}

// ValidateOrderParams runs all three constraint checks independently and
// returns every failing message together, not fail-fast. Pure function, no
// side effects.
func ValidateOrderParams(quantity, price float64, pair TradingPair) ValidationResult {
	var errs []string

	if err := ValidateMinSize(quantity, pair.Params, pair.Base.Decimals); err != nil {
		errs = append(errs, err.Error())
	}
	if err := ValidateLotSize(quantity, pair.Params, pair.Base.Decimals); err != nil {
		errs = append(errs, err.Error())
	}
	if err := ValidateTickSize(price, pair.Params, pair.Quote.Decimals); err != nil {
		errs = append(errs, err.Error())
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
