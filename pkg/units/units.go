// Package units converts between human-readable decimal amounts and the
// integer base-unit representation used on chain. Each asset carries its own
// decimal count (SUI = 9, DBUSDC = 6), so every conversion is parameterized
// by decimals.
package units

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ToBaseUnits scales a human-readable amount by 10^decimals and truncates
// toward zero. Callers tolerate sub-cent drift from float scaling; exact
// parsing of user input should go through ParseAmount instead.
func ToBaseUnits(value float64, decimals int) (uint64, error) {
	if decimals < 0 {
		return 0, fmt.Errorf("negative decimal count %d", decimals)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("amount %v is not a finite number", value)
	}
	if value < 0 {
		return 0, fmt.Errorf("amount %v is negative", value)
	}
	scaled := math.Trunc(value * math.Pow10(decimals))
	if scaled > math.MaxUint64 {
		return 0, fmt.Errorf("amount %v overflows u64 at %d decimals", value, decimals)
	}
	return uint64(scaled), nil
}

// FromBaseUnits divides an integer base-unit value by 10^decimals.
func FromBaseUnits(raw uint64, decimals int) (float64, error) {
	if decimals < 0 {
		return 0, fmt.Errorf("negative decimal count %d", decimals)
	}
	return float64(raw) / math.Pow10(decimals), nil
}

// ParseAmount converts a user-entered decimal string into base units without
// going through a float. Fractional digits beyond the asset's decimal count
// are truncated, matching ToBaseUnits semantics.
func ParseAmount(s string, decimals int) (uint64, error) {
	if decimals < 0 {
		return 0, fmt.Errorf("negative decimal count %d", decimals)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %q is negative", s)
	}
	scaled := d.Shift(int32(decimals)).Truncate(0)
	bi := scaled.BigInt()
	if !bi.IsUint64() {
		return 0, fmt.Errorf("amount %q overflows u64 at %d decimals", s, decimals)
	}
	return bi.Uint64(), nil
}

// FormatAmount renders a human-readable amount with a display precision
// derived from the asset's decimal count.
func FormatAmount(amount float64, decimals int) string {
	switch {
	case decimals >= 9:
		return fmt.Sprintf("%.6f", amount)
	case decimals >= 6:
		return fmt.Sprintf("%.4f", amount)
	default:
		return fmt.Sprintf("%.2f", amount)
	}
}

// FormatWithPrecision renders an amount with an explicit precision.
func FormatWithPrecision(amount float64, precision int) string {
	return fmt.Sprintf("%.*f", precision, amount)
}
