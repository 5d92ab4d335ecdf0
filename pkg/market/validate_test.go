package market

import (
	"strings"
	"testing"
)

// suiDbusdc mirrors the live SUI/DBUSDC pool: 9-decimal base, 6-decimal
// quote, min 1 SUI, lot 0.1 SUI, tick 0.00001 DBUSDC.
func suiDbusdc() TradingPair {
	return TestnetPairs()[0]
}

func TestValidateMinSize(t *testing.T) {
	pair := suiDbusdc()

	tests := []struct {
		name     string
		quantity float64
		wantErr  bool
	}{
		{name: "below minimum", quantity: 0.5, wantErr: true},
		{name: "exactly minimum", quantity: 1.0},
		{name: "above minimum", quantity: 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMinSize(tt.quantity, pair.Params, pair.Base.Decimals)
			if tt.wantErr && err == nil {
				t.Fatalf("quantity %v should fail the minimum-size check", tt.quantity)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("quantity %v should pass: %v", tt.quantity, err)
			}
			if tt.wantErr && !strings.Contains(err.Error(), "minimum quantity is 1.000000") {
				t.Errorf("message should report the minimum in human units, got %q", err.Error())
			}
		})
	}
}

func TestValidateLotSize(t *testing.T) {
	pair := suiDbusdc()

	tests := []struct {
		name     string
		quantity float64
		wantErr  bool
	}{
		{name: "exact multiple", quantity: 1.0},
		{name: "exact multiple fractional", quantity: 1.3},
		{name: "within tolerance below", quantity: 1.2999},
		{name: "within tolerance above", quantity: 1.3001},
		{name: "off by more than one percent", quantity: 1.35, wantErr: true},
		{name: "half a lot off", quantity: 1.05, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLotSize(tt.quantity, pair.Params, pair.Base.Decimals)
			if tt.wantErr && err == nil {
				t.Fatalf("quantity %v should fail the lot-size check", tt.quantity)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("quantity %v should pass: %v", tt.quantity, err)
			}
		})
	}
}

func TestValidateTickSize(t *testing.T) {
	pair := suiDbusdc()

	// tick 10 in a 6-decimal quote = 0.00001
	if err := ValidateTickSize(2.50001, pair.Params, pair.Quote.Decimals); err != nil {
		t.Errorf("2.50001 is an exact tick multiple: %v", err)
	}
	if err := ValidateTickSize(2.500013, pair.Params, pair.Quote.Decimals); err == nil {
		t.Error("2.500013 is 0.3 ticks off a multiple and should fail")
	}
}

func TestValidateOrderParamsCollectsAllErrors(t *testing.T) {
	pair := suiDbusdc()

	// Below min, off-lot quantity, off-tick price: all three must surface.
	res := ValidateOrderParams(0.55, 2.500013, pair)
	if res.Valid {
		t.Fatal("expected invalid result")
	}
	if len(res.Errors) != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", len(res.Errors), res.Errors)
	}
}

func TestValidateOrderParamsEndToEndScenario(t *testing.T) {
	pair := suiDbusdc()

	// 0.5 SUI -> 500000000 base units: fails only the minimum-size check
	// (0.5 is an exact lot multiple).
	res := ValidateOrderParams(0.5, 2.5, pair)
	if res.Valid {
		t.Fatal("0.5 SUI should fail validation")
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "minimum quantity") {
		t.Fatalf("expected a single minimum-size error, got %v", res.Errors)
	}

	// 1.0 SUI at 2.50001: exact lot multiple, exact tick multiple.
	res = ValidateOrderParams(1.0, 2.50001, pair)
	if !res.Valid {
		t.Fatalf("1.0 @ 2.50001 should pass, got %v", res.Errors)
	}
}

func TestValidateRejectsMalformedInput(t *testing.T) {
	pair := suiDbusdc()
	res := ValidateOrderParams(-1, -2, pair)
	if res.Valid {
		t.Fatal("negative amounts must not validate")
	}
}
