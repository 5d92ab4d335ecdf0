package market

import "fmt"

// AssetInfo describes one side of a trading pair.
type AssetInfo struct {
	ID       string
	Decimals int
	Symbol   string
	Name     string
}

// TradingParams are the pool's order constraints, in base units of the
// relevant asset (MinSize and LotSize in base-asset units, TickSize in
// quote-asset units).
type TradingParams struct {
	MinSize  uint64
	LotSize  uint64
	TickSize uint64
}

// TradingPair is the static configuration for one DeepBook pool. Pairs are
// immutable once constructed; decimal counts and granularities never change
// after load.
type TradingPair struct {
	PoolID   string
	PoolName string
	Base     AssetInfo
	Quote    AssetInfo
	Params   TradingParams
}

// Label returns the display name, e.g. "SUI/DBUSDC".
func (p TradingPair) Label() string {
	return fmt.Sprintf("%s/%s", p.Base.Symbol, p.Quote.Symbol)
}

// Testnet pool ids from the DeepBook indexer.
const (
	PoolSuiDbusdc  = "0x1c19362ca52b8ffd7a33cee805a67d40f31e6ba303753fd3a4cfdfacea7163a5"
	PoolDeepDbusdc = "0xe86b991f8632217505fd859445f9803967ac84a9d4a1219065bf191fcb74b622"
	PoolDeepSui    = "0x48c95963e9eac37a316b7ae04a0deb761bcdcc2b67912374d6036e7f0e9bae9f"
)

// TestnetPairs returns the built-in pair table for the DeepBook testnet
// pools the contract is wired to.
func TestnetPairs() []TradingPair {
	return []TradingPair{
		{
			PoolID:   PoolSuiDbusdc,
			PoolName: "SUI_DBUSDC",
			Base:     AssetInfo{ID: "0x2::sui::SUI", Decimals: 9, Symbol: "SUI", Name: "Sui"},
			Quote:    AssetInfo{ID: "0xf7152c05930480cd740d7311b5b8b45c6f488e3a53a11c3f74a6fac36a52e0d7::DBUSDC::DBUSDC", Decimals: 6, Symbol: "DBUSDC", Name: "DeepBook USDC"},
			// min 1 SUI, lot 0.1 SUI, tick 0.00001 DBUSDC
			Params: TradingParams{MinSize: 1000000000, LotSize: 100000000, TickSize: 10},
		},
		{
			PoolID:   PoolDeepDbusdc,
			PoolName: "DEEP_DBUSDC",
			Base:     AssetInfo{ID: "0xdeeb7a4662eec9f2f3def03fb937a663dddaa2e215b8078a284d026b7946c270::deep::DEEP", Decimals: 6, Symbol: "DEEP", Name: "DeepBook Token"},
			Quote:    AssetInfo{ID: "0xf7152c05930480cd740d7311b5b8b45c6f488e3a53a11c3f74a6fac36a52e0d7::DBUSDC::DBUSDC", Decimals: 6, Symbol: "DBUSDC", Name: "DeepBook USDC"},
			// min 10 DEEP, lot 1 DEEP, tick 0.00001 DBUSDC
			Params: TradingParams{MinSize: 10000000, LotSize: 1000000, TickSize: 10},
		},
		{
			PoolID:   PoolDeepSui,
			PoolName: "DEEP_SUI",
			Base:     AssetInfo{ID: "0xdeeb7a4662eec9f2f3def03fb937a663dddaa2e215b8078a284d026b7946c270::deep::DEEP", Decimals: 6, Symbol: "DEEP", Name: "DeepBook Token"},
			Quote:    AssetInfo{ID: "0x2::sui::SUI", Decimals: 9, Symbol: "SUI", Name: "Sui"},
			// min 10 DEEP, lot 1 DEEP, tick 0.00001 SUI
			Params: TradingParams{MinSize: 10000000, LotSize: 1000000, TickSize: 10000},
		},
	}
}
