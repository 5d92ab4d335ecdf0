package orlim

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// PriceDecimals is the fixed-point scale the entry points expect for prices.
// This is a wire convention of the deployed contract and is independent of
// the pair's quote-asset decimal count (which is 6 or 9 for the live pools).
const PriceDecimals = 8

const priceScale = 1e8

// ErrEmptyBatch is returned when a batch cancel is requested with no order
// ids. The request is rejected before any transaction value is produced.
var ErrEmptyBatch = errors.New("batch cancel requires at least one order id")

// InputError marks malformed caller input (bad hex, empty ids). It is never
// a transport failure.
type InputError struct {
	msg string
}

func (e *InputError) Error() string { return e.msg }

func inputErrorf(format string, args ...any) error {
	return &InputError{msg: fmt.Sprintf(format, args...)}
}

// Arg is one positional Move-call argument. Exactly one field is set,
// selected by Kind.
type Arg struct {
	Kind ArgKind `json:"kind"`

	Object string   `json:"object,omitempty"`
	U8     uint8    `json:"u8,omitempty"`
	U64    uint64   `json:"u64,omitempty"`
	Bool   bool     `json:"bool"`
	Bytes  []byte   `json:"bytes,omitempty"`
	U64Vec []uint64 `json:"u64vec,omitempty"`
}

type ArgKind string

const (
	ArgObject ArgKind = "object"
	ArgU8     ArgKind = "pure_u8"
	ArgU64    ArgKind = "pure_u64"
	ArgBool   ArgKind = "pure_bool"
	ArgBytes  ArgKind = "pure_vec_u8"
	ArgU64Vec ArgKind = "pure_vec_u64"
)

func objectArg(id string) Arg  { return Arg{Kind: ArgObject, Object: id} }
func u8Arg(v uint8) Arg        { return Arg{Kind: ArgU8, U8: v} }
func u64Arg(v uint64) Arg      { return Arg{Kind: ArgU64, U64: v} }
func boolArg(v bool) Arg       { return Arg{Kind: ArgBool, Bool: v} }
func bytesArg(b []byte) Arg    { return Arg{Kind: ArgBytes, Bytes: b} }
func u64VecArg(v []uint64) Arg { return Arg{Kind: ArgU64Vec, U64Vec: v} }

// MoveCall targets one entry point with positional arguments.
type MoveCall struct {
	Target string `json:"target"`
	Args   []Arg  `json:"args"`
}

// TxRequest is an opaque, unsigned transaction request. The builder never
// contacts the network; submission and signing happen in the wallet
// collaborator.
type TxRequest struct {
	Calls []MoveCall `json:"calls"`
}

// Builder assembles transaction requests against one deployed Orlim package.
type Builder struct {
	packageID string
	module    string
}

func NewBuilder(packageID string) *Builder {
	return &Builder{packageID: packageID, module: ModuleName}
}

func (b *Builder) target(fn string) string {
	return fmt.Sprintf("%s::%s::%s", b.packageID, b.module, fn)
}

func (b *Builder) single(fn string, args ...Arg) *TxRequest {
	return &TxRequest{Calls: []MoveCall{{Target: b.target(fn), Args: args}}}
}

// EncodePrice scales a human price to the contract's 8-decimal fixed point
// via floor.
func EncodePrice(price float64) uint64 {
	return uint64(math.Floor(price * priceScale))
}

// PoolIDBytes packs a hex pool identifier (with optional 0x prefix) into the
// byte vector the entry points take: strip the prefix, split into byte
// pairs, parse each pair as hexadecimal.
func PoolIDBytes(poolID string) ([]byte, error) {
	hexStr := strings.TrimPrefix(poolID, "0x")
	if hexStr == "" {
		return nil, inputErrorf("empty pool id")
	}
	out := make([]byte, 0, (len(hexStr)+1)/2)
	for i := 0; i < len(hexStr); i += 2 {
		end := i + 2
		if end > len(hexStr) {
			end = len(hexStr)
		}
		v, err := strconv.ParseUint(hexStr[i:end], 16, 8)
		if err != nil {
			return nil, inputErrorf("pool id %q is not hex: bad byte %q", poolID, hexStr[i:end])
		}
		out = append(out, byte(v))
	}
	return out, nil
}

// checkObjectID validates an object id is 0x-prefixed hex.
func checkObjectID(name, id string) error {
	if id == "" {
		return inputErrorf("%s object id is empty", name)
	}
	if _, err := hexutil.Decode(id); err != nil {
		return inputErrorf("%s object id %q is not valid hex: %v", name, id, err)
	}
	return nil
}

// CreateOrderManagerTx builds the first-time setup call that creates the
// user's OrderManager object.
func (b *Builder) CreateOrderManagerTx() *TxRequest {
	return b.single("create_order_manager_entry", objectArg(ClockObjectID))
}

// PlaceOrderParams describes a standard limit order. Quantity is already in
// base units; Price is human-readable and gets the 8-decimal encoding.
type PlaceOrderParams struct {
	OrderManager string
	PoolID       string
	Price        float64
	Quantity     uint64
	IsBid        bool
}

// PlaceOrderTx builds a standard limit order placement.
func (b *Builder) PlaceOrderTx(p PlaceOrderParams) (*TxRequest, error) {
	if err := checkObjectID("order manager", p.OrderManager); err != nil {
		return nil, err
	}
	pool, err := PoolIDBytes(p.PoolID)
	if err != nil {
		return nil, err
	}
	return b.single("place_limit_order_entry",
		objectArg(p.OrderManager),
		bytesArg(pool),
		u64Arg(EncodePrice(p.Price)),
		u64Arg(p.Quantity),
		boolArg(p.IsBid),
		objectArg(ClockObjectID),
	), nil
}

// PlaceOCOParams describes a one-cancels-other pair: two linked orders with
// independent price, quantity and side.
type PlaceOCOParams struct {
	OrderManager   string
	PoolID         string
	Order1Price    float64
	Order1Quantity uint64
	Order1IsBid    bool
	Order2Price    float64
	Order2Quantity uint64
	Order2IsBid    bool
}

// PlaceOCOOrderTx builds a linked OCO pair placement.
func (b *Builder) PlaceOCOOrderTx(p PlaceOCOParams) (*TxRequest, error) {
	if err := checkObjectID("order manager", p.OrderManager); err != nil {
		return nil, err
	}
	pool, err := PoolIDBytes(p.PoolID)
	if err != nil {
		return nil, err
	}
	return b.single("place_limit_order_oco_entry",
		objectArg(p.OrderManager),
		bytesArg(pool),
		u64Arg(EncodePrice(p.Order1Price)),
		u64Arg(p.Order1Quantity),
		boolArg(p.Order1IsBid),
		u64Arg(EncodePrice(p.Order2Price)),
		u64Arg(p.Order2Quantity),
		boolArg(p.Order2IsBid),
		objectArg(ClockObjectID),
	), nil
}

// PlaceTIFParams describes a time-in-force order. TIF must be IOC or FOK;
// BaseCoin and QuoteCoin are the funding coin object references the entry
// point settles against.
type PlaceTIFParams struct {
	OrderManager string
	PoolID       string
	Price        float64
	Quantity     uint64
	IsBid        bool
	TIF          TimeInForce
	BaseCoin     string
	QuoteCoin    string
}

// PlaceTIFOrderTx builds an IOC or FOK order placement.
func (b *Builder) PlaceTIFOrderTx(p PlaceTIFParams) (*TxRequest, error) {
	if err := checkObjectID("order manager", p.OrderManager); err != nil {
		return nil, err
	}
	if p.TIF != IOC && p.TIF != FOK {
		return nil, inputErrorf("time-in-force order requires IOC or FOK, got %s", p.TIF)
	}
	if err := checkObjectID("base coin", p.BaseCoin); err != nil {
		return nil, err
	}
	if err := checkObjectID("quote coin", p.QuoteCoin); err != nil {
		return nil, err
	}
	pool, err := PoolIDBytes(p.PoolID)
	if err != nil {
		return nil, err
	}
	return b.single("place_limit_order_tif_entry",
		objectArg(p.OrderManager),
		bytesArg(pool),
		u64Arg(EncodePrice(p.Price)),
		u64Arg(p.Quantity),
		boolArg(p.IsBid),
		u8Arg(uint8(p.TIF)),
		objectArg(p.BaseCoin),
		objectArg(p.QuoteCoin),
		objectArg(ClockObjectID),
	), nil
}

// CancelOrderTx builds a single-order cancellation.
func (b *Builder) CancelOrderTx(orderManager string, orderID uint64) (*TxRequest, error) {
	if err := checkObjectID("order manager", orderManager); err != nil {
		return nil, err
	}
	return b.single("cancel_limit_order_entry",
		objectArg(orderManager),
		u64Arg(orderID),
		objectArg(ClockObjectID),
	), nil
}

// BatchCancelOrdersTx builds a multi-order cancellation. An empty id list is
// a caller error and is never submitted.
func (b *Builder) BatchCancelOrdersTx(orderManager string, orderIDs []uint64) (*TxRequest, error) {
	if err := checkObjectID("order manager", orderManager); err != nil {
		return nil, err
	}
	if len(orderIDs) == 0 {
		return nil, ErrEmptyBatch
	}
	return b.single("cancel_multiple_orders_safe_entry",
		objectArg(orderManager),
		u64VecArg(orderIDs),
		objectArg(ClockObjectID),
	), nil
}

// ModifyOrderTx builds a price/quantity modification for an existing order.
func (b *Builder) ModifyOrderTx(orderManager string, orderID uint64, newPrice float64, newQuantity uint64) (*TxRequest, error) {
	if err := checkObjectID("order manager", orderManager); err != nil {
		return nil, err
	}
	return b.single("modify_order_entry",
		objectArg(orderManager),
		u64Arg(orderID),
		u64Arg(EncodePrice(newPrice)),
		u64Arg(newQuantity),
		objectArg(ClockObjectID),
	), nil
}

// CancelOrderByReceiptTx builds a cancellation that consumes an owned
// OrderReceipt object as proof of ownership instead of an order id.
func (b *Builder) CancelOrderByReceiptTx(orderManager, receiptObjectID string) (*TxRequest, error) {
	if err := checkObjectID("order manager", orderManager); err != nil {
		return nil, err
	}
	if err := checkObjectID("order receipt", receiptObjectID); err != nil {
		return nil, err
	}
	return b.single("cancel_order_by_object_entry",
		objectArg(orderManager),
		objectArg(receiptObjectID),
		objectArg(ClockObjectID),
	), nil
}

// CreateOrderReceiptTx builds the call that promotes a tracked order into an
// owned OrderReceipt object.
func (b *Builder) CreateOrderReceiptTx(orderManager string, orderID uint64) (*TxRequest, error) {
	if err := checkObjectID("order manager", orderManager); err != nil {
		return nil, err
	}
	return b.single("create_order_receipt_entry",
		objectArg(orderManager),
		u64Arg(orderID),
	), nil
}
