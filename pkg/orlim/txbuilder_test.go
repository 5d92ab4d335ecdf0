package orlim

import (
	"bytes"
	"errors"
	"testing"
)

const (
	testPackageID = "0x9a9f7a59d3024a19aed90be0d7295fc2283c3b0e356a92f7317f08a98a613445"
	testManagerID = "0x1234567890abcdef1234567890abcdef12345678"
	testPoolID    = "0x1c19362ca52b8ffd7a33cee805a67d40f31e6ba303753fd3a4cfdfacea7163a5"
)

func testBuilder() *Builder {
	return NewBuilder(testPackageID)
}

func TestEncodePrice(t *testing.T) {
	tests := []struct {
		price float64
		want  uint64
	}{
		{price: 1.5, want: 150000000},
		{price: 2.5, want: 250000000},
		{price: 0.00000001, want: 1},
		{price: 0, want: 0},
		// Floor, not round.
		{price: 0.019999999, want: 1999999},
	}
	for _, tt := range tests {
		if got := EncodePrice(tt.price); got != tt.want {
			t.Errorf("EncodePrice(%v) = %d, want %d", tt.price, got, tt.want)
		}
	}
}

// The entry points take prices scaled to 8 decimals regardless of the
// pair's quote-asset decimal count (6 for DBUSDC, 9 for SUI quotes). The
// encoding is a contract wire convention, not derived from pair metadata,
// so a 6-decimal quote still produces a 1e8-scaled integer here.
func TestPlaceOrderPriceEncodingIgnoresQuoteDecimals(t *testing.T) {
	tx, err := testBuilder().PlaceOrderTx(PlaceOrderParams{
		OrderManager: testManagerID,
		PoolID:       testPoolID,
		Price:        1.5,
		Quantity:     1000000000,
		IsBid:        true,
	})
	if err != nil {
		t.Fatal(err)
	}

	call := tx.Calls[0]
	if call.Args[2].U64 != 150000000 {
		t.Errorf("price arg = %d, want 150000000 (1.5 * 1e8)", call.Args[2].U64)
	}
}

func TestPoolIDBytes(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []byte
		wantErr bool
	}{
		{name: "with prefix", in: "0xdeadbeef", want: []byte{0xde, 0xad, 0xbe, 0xef}},
		{name: "without prefix", in: "deadbeef", want: []byte{0xde, 0xad, 0xbe, 0xef}},
		{name: "odd length keeps trailing nibble", in: "0xabc", want: []byte{0xab, 0x0c}},
		{name: "non-hex rejected", in: "0xzzzz", wantErr: true},
		{name: "empty rejected", in: "0x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PoolIDBytes(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("PoolIDBytes(%q) expected error", tt.in)
				}
				var inputErr *InputError
				if !errors.As(err, &inputErr) {
					t.Errorf("error should be an input error, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("PoolIDBytes(%q): %v", tt.in, err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("PoolIDBytes(%q) = %x, want %x", tt.in, got, tt.want)
			}
		})
	}
}

func TestPlaceOrderTx(t *testing.T) {
	b := testBuilder()
	tx, err := b.PlaceOrderTx(PlaceOrderParams{
		OrderManager: testManagerID,
		PoolID:       testPoolID,
		Price:        2.5,
		Quantity:     1000000000,
		IsBid:        true,
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(tx.Calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(tx.Calls))
	}
	call := tx.Calls[0]
	wantTarget := testPackageID + "::orlim::place_limit_order_entry"
	if call.Target != wantTarget {
		t.Errorf("target = %s, want %s", call.Target, wantTarget)
	}
	if len(call.Args) != 6 {
		t.Fatalf("expected 6 args, got %d", len(call.Args))
	}
	if call.Args[0].Object != testManagerID {
		t.Errorf("arg 0 should be the order manager object")
	}
	if call.Args[1].Kind != ArgBytes || len(call.Args[1].Bytes) != 32 {
		t.Errorf("arg 1 should be the 32-byte pool id, got %d bytes", len(call.Args[1].Bytes))
	}
	if call.Args[3].U64 != 1000000000 {
		t.Errorf("quantity arg = %d, want 1000000000", call.Args[3].U64)
	}
	if call.Args[4].Kind != ArgBool || !call.Args[4].Bool {
		t.Errorf("is_bid arg should be true")
	}
	if call.Args[5].Object != ClockObjectID {
		t.Errorf("last arg should be the clock object")
	}
}

func TestPlaceOrderTxRejectsBadIDs(t *testing.T) {
	b := testBuilder()

	if _, err := b.PlaceOrderTx(PlaceOrderParams{OrderManager: "not-hex", PoolID: testPoolID}); err == nil {
		t.Error("malformed order manager id should be rejected")
	}
	if _, err := b.PlaceOrderTx(PlaceOrderParams{OrderManager: testManagerID, PoolID: "0xnothex"}); err == nil {
		t.Error("malformed pool id should be rejected")
	}
}

func TestPlaceOCOOrderTx(t *testing.T) {
	tx, err := testBuilder().PlaceOCOOrderTx(PlaceOCOParams{
		OrderManager:   testManagerID,
		PoolID:         testPoolID,
		Order1Price:    2.6,
		Order1Quantity: 1000000000,
		Order1IsBid:    true,
		Order2Price:    2.4,
		Order2Quantity: 1000000000,
		Order2IsBid:    false,
	})
	if err != nil {
		t.Fatal(err)
	}

	call := tx.Calls[0]
	if call.Target != testPackageID+"::orlim::place_limit_order_oco_entry" {
		t.Errorf("target = %s", call.Target)
	}
	if len(call.Args) != 9 {
		t.Fatalf("expected 9 args, got %d", len(call.Args))
	}
	if call.Args[2].U64 != 260000000 || call.Args[5].U64 != 240000000 {
		t.Errorf("linked prices = %d/%d, want 260000000/240000000", call.Args[2].U64, call.Args[5].U64)
	}
	if call.Args[4].Bool == call.Args[7].Bool {
		t.Error("linked orders should carry independent sides")
	}
}

func TestPlaceTIFOrderTx(t *testing.T) {
	b := testBuilder()
	base := PlaceTIFParams{
		OrderManager: testManagerID,
		PoolID:       testPoolID,
		Price:        2.5,
		Quantity:     1000000000,
		IsBid:        true,
		BaseCoin:     "0xaaaa567890abcdef1234567890abcdef12345678",
		QuoteCoin:    "0xbbbb567890abcdef1234567890abcdef12345678",
	}

	for _, tif := range []TimeInForce{IOC, FOK} {
		p := base
		p.TIF = tif
		tx, err := b.PlaceTIFOrderTx(p)
		if err != nil {
			t.Fatalf("%s: %v", tif, err)
		}
		call := tx.Calls[0]
		if call.Target != testPackageID+"::orlim::place_limit_order_tif_entry" {
			t.Errorf("target = %s", call.Target)
		}
		if call.Args[5].U8 != uint8(tif) {
			t.Errorf("tif selector = %d, want %d", call.Args[5].U8, uint8(tif))
		}
		if call.Args[6].Object != p.BaseCoin || call.Args[7].Object != p.QuoteCoin {
			t.Error("funding coin references missing")
		}
	}

	p := base
	p.TIF = GTC
	if _, err := b.PlaceTIFOrderTx(p); err == nil {
		t.Error("GTC is not a valid time-in-force selector here")
	}
}

func TestCancelAndModifyTxs(t *testing.T) {
	b := testBuilder()

	tx, err := b.CancelOrderTx(testManagerID, 42)
	if err != nil {
		t.Fatal(err)
	}
	if tx.Calls[0].Target != testPackageID+"::orlim::cancel_limit_order_entry" {
		t.Errorf("cancel target = %s", tx.Calls[0].Target)
	}
	if tx.Calls[0].Args[1].U64 != 42 {
		t.Errorf("cancel order id = %d", tx.Calls[0].Args[1].U64)
	}

	tx, err = b.ModifyOrderTx(testManagerID, 42, 2.7, 2000000000)
	if err != nil {
		t.Fatal(err)
	}
	call := tx.Calls[0]
	if call.Target != testPackageID+"::orlim::modify_order_entry" {
		t.Errorf("modify target = %s", call.Target)
	}
	if call.Args[2].U64 != 270000000 || call.Args[3].U64 != 2000000000 {
		t.Errorf("modify args = %d/%d", call.Args[2].U64, call.Args[3].U64)
	}
}

func TestBatchCancelOrdersTx(t *testing.T) {
	b := testBuilder()

	tx, err := b.BatchCancelOrdersTx(testManagerID, []uint64{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	call := tx.Calls[0]
	if call.Target != testPackageID+"::orlim::cancel_multiple_orders_safe_entry" {
		t.Errorf("batch cancel target = %s", call.Target)
	}
	if len(call.Args[1].U64Vec) != 3 {
		t.Errorf("order id vector = %v", call.Args[1].U64Vec)
	}

	if _, err := b.BatchCancelOrdersTx(testManagerID, nil); !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("empty batch should return ErrEmptyBatch, got %v", err)
	}
}

func TestReceiptLifecycleTxs(t *testing.T) {
	b := testBuilder()
	receiptID := "0xcccc567890abcdef1234567890abcdef12345678"

	tx, err := b.CreateOrderReceiptTx(testManagerID, 42)
	if err != nil {
		t.Fatal(err)
	}
	if tx.Calls[0].Target != testPackageID+"::orlim::create_order_receipt_entry" {
		t.Errorf("create receipt target = %s", tx.Calls[0].Target)
	}

	tx, err = b.CancelOrderByReceiptTx(testManagerID, receiptID)
	if err != nil {
		t.Fatal(err)
	}
	call := tx.Calls[0]
	if call.Target != testPackageID+"::orlim::cancel_order_by_object_entry" {
		t.Errorf("cancel by receipt target = %s", call.Target)
	}
	if call.Args[1].Object != receiptID {
		t.Error("receipt object reference missing")
	}
}

func TestCreateOrderManagerTx(t *testing.T) {
	tx := testBuilder().CreateOrderManagerTx()
	call := tx.Calls[0]
	if call.Target != testPackageID+"::orlim::create_order_manager_entry" {
		t.Errorf("target = %s", call.Target)
	}
	if len(call.Args) != 1 || call.Args[0].Object != ClockObjectID {
		t.Errorf("create manager takes only the clock object, got %+v", call.Args)
	}
}
