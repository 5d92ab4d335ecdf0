package market

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Order kinds a form can submit.
const (
	KindStandard = "standard"
	KindOCO      = "oco"
	KindTIF      = "tif"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// OrderIntent is a transient, user-submitted request to place an order.
// Amounts are human-readable decimals; conversion to base units happens in
// the submission path. An intent is never persisted and is discarded once
// the resulting transaction settles or fails.
type OrderIntent struct {
	Side     string  `validate:"required,oneof=buy sell"`
	Kind     string  `validate:"required,oneof=standard oco tif"`
	Quantity float64 `validate:"required,gt=0"`
	// Price is unused for OCO intents, which carry the pair below instead.
	Price float64 `validate:"required_unless=Kind oco,omitempty,gt=0"`

	// OCO: a linked take-profit/stop-loss price pair.
	TakeProfitPrice float64 `validate:"required_if=Kind oco,omitempty,gt=0"`
	StopLossPrice   float64 `validate:"required_if=Kind oco,omitempty,gt=0"`

	// TIF: immediate-or-cancel / fill-or-kill plus the funding coins the
	// entry point needs to settle against.
	TimeInForce string `validate:"required_if=Kind tif,omitempty,oneof=IOC FOK"`
	BaseCoin    string `validate:"required_if=Kind tif"`
	QuoteCoin   string `validate:"required_if=Kind tif"`
}

// IsBid reports whether the intent buys the base asset.
func (i OrderIntent) IsBid() bool { return i.Side == "buy" }

// Validate checks the intent's shape (required fields per kind, positive
// amounts). Pair-constraint checks happen separately in ValidateOrderParams.
func (i OrderIntent) Validate() error {
	if err := validate.Struct(i); err != nil {
		return fmt.Errorf("invalid order intent: %w", err)
	}
	if i.Kind == KindOCO && i.TakeProfitPrice <= i.StopLossPrice {
		return fmt.Errorf("invalid order intent: take-profit price must exceed stop-loss price")
	}
	return nil
}
