package market

import "testing"

func TestOrderIntentValidate(t *testing.T) {
	tests := []struct {
		name    string
		intent  OrderIntent
		wantErr bool
	}{
		{
			name:   "standard buy",
			intent: OrderIntent{Side: "buy", Kind: KindStandard, Quantity: 1, Price: 2.5},
		},
		{
			name:    "missing side",
			intent:  OrderIntent{Kind: KindStandard, Quantity: 1, Price: 2.5},
			wantErr: true,
		},
		{
			name:    "unknown kind",
			intent:  OrderIntent{Side: "sell", Kind: "market", Quantity: 1, Price: 2.5},
			wantErr: true,
		},
		{
			name:    "zero quantity",
			intent:  OrderIntent{Side: "buy", Kind: KindStandard, Quantity: 0, Price: 2.5},
			wantErr: true,
		},
		{
			name:    "standard without price",
			intent:  OrderIntent{Side: "buy", Kind: KindStandard, Quantity: 1},
			wantErr: true,
		},
		{
			name:   "oco with price pair",
			intent: OrderIntent{Side: "sell", Kind: KindOCO, Quantity: 1, TakeProfitPrice: 2.6, StopLossPrice: 2.4},
		},
		{
			name:    "oco missing stop loss",
			intent:  OrderIntent{Side: "sell", Kind: KindOCO, Quantity: 1, TakeProfitPrice: 2.6},
			wantErr: true,
		},
		{
			name:    "oco inverted prices",
			intent:  OrderIntent{Side: "sell", Kind: KindOCO, Quantity: 1, TakeProfitPrice: 2.4, StopLossPrice: 2.6},
			wantErr: true,
		},
		{
			name: "tif ioc",
			intent: OrderIntent{
				Side: "buy", Kind: KindTIF, Quantity: 1, Price: 2.5,
				TimeInForce: "IOC", BaseCoin: "0xbase", QuoteCoin: "0xquote",
			},
		},
		{
			name: "tif bad selector",
			intent: OrderIntent{
				Side: "buy", Kind: KindTIF, Quantity: 1, Price: 2.5,
				TimeInForce: "GTC", BaseCoin: "0xbase", QuoteCoin: "0xquote",
			},
			wantErr: true,
		},
		{
			name: "tif missing coins",
			intent: OrderIntent{
				Side: "buy", Kind: KindTIF, Quantity: 1, Price: 2.5, TimeInForce: "FOK",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.intent.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
