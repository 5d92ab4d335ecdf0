// Package orlim models the Orlim limit-order manager contract from the
// client side: transaction request building for its entry points, receipt
// reconciliation from owned objects, and event classification.
package orlim

import "context"

// ModuleName is the Move module inside the Orlim package.
const ModuleName = "orlim"

// ClockObjectID is the shared Sui clock object passed to every entry point.
const ClockObjectID = "0x6"

// OrderType discriminates the contract's order kinds.
type OrderType uint8

const (
	OrderStandard OrderType = 0
	OrderOCO      OrderType = 1
	OrderTIF      OrderType = 2
)

func (t OrderType) String() string {
	switch t {
	case OrderStandard:
		return "Standard"
	case OrderOCO:
		return "OCO"
	case OrderTIF:
		return "TIF"
	default:
		return "Unknown"
	}
}

// TimeInForce is the contract's time-in-force selector.
type TimeInForce uint8

const (
	GTC TimeInForce = 0
	IOC TimeInForce = 1
	FOK TimeInForce = 2
)

func (t TimeInForce) String() string {
	switch t {
	case GTC:
		return "GTC"
	case IOC:
		return "IOC"
	case FOK:
		return "FOK"
	default:
		return "Unknown"
	}
}

// Status is the derived lifecycle state of a receipt.
type Status int

const (
	StatusActive Status = iota
	StatusPartiallyFilled
	StatusFilled
	StatusCancelled
	StatusInactive
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "Active"
	case StatusPartiallyFilled:
		return "Partially Filled"
	case StatusFilled:
		return "Filled"
	case StatusCancelled:
		return "Cancelled"
	case StatusInactive:
		return "Inactive"
	default:
		return "Unknown"
	}
}

// ReceiptData is the contract's OrderReceiptData struct. All amounts are in
// base units. Quantity decreases as fills land; OriginalQuantity is fixed at
// placement.
type ReceiptData struct {
	OrderID          uint64
	DeepBookOrderID  uint64
	PoolID           string
	Price            uint64
	Quantity         uint64
	OriginalQuantity uint64
	IsBid            bool
	OrderType        OrderType
	TimeInForce      TimeInForce
	CreatedAt        uint64
	IsActive         bool
	IsFullyFilled    bool
	CancelledAt      *uint64
	OCOGroupID       *uint64
	ExpiresAt        *uint64
}

// Receipt is an owned OrderReceipt object plus its parsed data. The client
// never mutates a receipt; it reflects authoritative chain state only.
type Receipt struct {
	ObjectID string
	Owner    string
	Version  string
	Data     ReceiptData
}

// Status classifies a receipt. Evaluation order matters: a receipt that is
// both fully filled and cancelled counts as Filled.
func (d ReceiptData) Status() Status {
	switch {
	case d.IsFullyFilled:
		return StatusFilled
	case d.CancelledAt != nil:
		return StatusCancelled
	case !d.IsActive:
		return StatusInactive
	case d.Quantity > 0 && d.Quantity < d.OriginalQuantity:
		return StatusPartiallyFilled
	default:
		return StatusActive
	}
}

// ManagerData is the mutable state of a user's OrderManager object.
type ManagerData struct {
	Owner              string
	ActiveOrders       []uint64
	TotalOrdersCreated uint64
	IsPaused           bool
	CreatedAt          uint64
}

// ExecuteResult is what the signing collaborator reports back after a
// transaction settles.
type ExecuteResult struct {
	Digest string
	Status string
	Error  string
}

// Executor is the sign-and-execute capability owned by the wallet
// collaborator. The client issues one request per user action and never
// retries automatically.
type Executor interface {
	SignAndExecute(ctx context.Context, tx *TxRequest) (*ExecuteResult, error)
}

// Contract abort codes surfaced in submission errors.
const (
	ErrCodeOrderNotFound         = 2
	ErrCodeInvalidPrice          = 4
	ErrCodeInvalidQuantity       = 5
	ErrCodeUnauthorized          = 6
	ErrCodeContractPaused        = 7
	ErrCodeTimestampInvalid      = 8
	ErrCodeOrderAlreadyCancelled = 9
)

var abortMessages = map[int]string{
	ErrCodeOrderNotFound:         "order not found",
	ErrCodeInvalidPrice:          "invalid price",
	ErrCodeInvalidQuantity:       "invalid quantity",
	ErrCodeUnauthorized:          "unauthorized",
	ErrCodeContractPaused:        "contract is paused",
	ErrCodeTimestampInvalid:      "invalid timestamp",
	ErrCodeOrderAlreadyCancelled: "order already cancelled",
}

// AbortMessage maps a contract abort code to a human-readable message.
func AbortMessage(code int) (string, bool) {
	msg, ok := abortMessages[code]
	return msg, ok
}
