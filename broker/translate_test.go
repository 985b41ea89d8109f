package broker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantgale/premia/types"
)

func TestSecTypeTable(t *testing.T) {
	xlat := NewTranslator("USD")

	cases := map[string]types.AssetType{
		"STK":   types.AssetStock,
		"OPT":   types.AssetOption,
		"FUT":   types.AssetFuture,
		"CASH":  types.AssetForex,
		"IND":   types.AssetIndex,
		"CFD":   types.AssetCFD,
		"BOND":  types.AssetBond,
		"CMDTY": types.AssetCommodity,
		"FOP":   types.AssetFuturesOption,
		"FUND":  types.AssetMutualFund,
		"IOPT":  types.AssetWarrant,
	}
	for wire, want := range cases {
		got, ok := xlat.SecType(wire)
		require.True(t, ok, wire)
		assert.Equal(t, want, got)
	}

	_, ok := xlat.SecType("NEWS")
	assert.False(t, ok)
}

func TestWireSecTypeETFTradesAsStock(t *testing.T) {
	xlat := NewTranslator("USD")
	assert.Equal(t, "STK", xlat.WireSecType(types.AssetETF))
	assert.Equal(t, "IND", xlat.WireSecType(types.AssetIndex))
}

func TestActionAndRight(t *testing.T) {
	xlat := NewTranslator("USD")

	buy, ok := xlat.Action("BUY")
	require.True(t, ok)
	assert.Equal(t, types.Buyer, buy)

	sell, ok := xlat.Action("SELL")
	require.True(t, ok)
	assert.Equal(t, types.Seller, sell)

	_, ok = xlat.Action("SHORT")
	assert.False(t, ok)

	p, ok := xlat.Right("P")
	require.True(t, ok)
	assert.Equal(t, types.Put, p)
}

func TestAccountValueCurrencyFilter(t *testing.T) {
	xlat := NewTranslator("USD")

	item, ok := xlat.AccountValue(wireAccountValue{
		Account: "DU1", Tag: "NetLiquidation", Value: "100000", Currency: "USD"})
	require.True(t, ok)
	assert.Equal(t, types.TagNetLiquidation, item.Tag)
	assert.Equal(t, "100000", item.Money.String())

	// BASE is the cross-currency aggregate and never accepted.
	_, ok = xlat.AccountValue(wireAccountValue{
		Tag: "NetLiquidation", Value: "100000", Currency: "BASE"})
	assert.False(t, ok)

	// Foreign currency drops.
	_, ok = xlat.AccountValue(wireAccountValue{
		Tag: "NetLiquidation", Value: "100000", Currency: "EUR"})
	assert.False(t, ok)

	// Unknown tags drop.
	_, ok = xlat.AccountValue(wireAccountValue{
		Tag: "Leverage", Value: "2", Currency: "USD"})
	assert.False(t, ok)

	// Unitless numerics (no currency) pass through.
	item, ok = xlat.AccountValue(wireAccountValue{Tag: "DayTradesRemaining", Value: "3"})
	require.True(t, ok)
	assert.Equal(t, types.TagMaxDayTrades, item.Tag)
	assert.Equal(t, "3", item.Money.String())
}

func TestPositionTranslation(t *testing.T) {
	xlat := NewTranslator("USD")

	p, ok := xlat.Position(wirePosition{
		Symbol: "SPY", SecType: "OPT", Expiration: "20240621",
		Strike: 450, Right: "P", Position: -2, AvgCost: 120,
	})
	require.True(t, ok)
	assert.Equal(t, types.Seller, p.Ownership)
	assert.Equal(t, 2.0, p.Quantity)
	assert.Equal(t, types.Put, p.Right)
	assert.Equal(t, "SPY P 450.0 21-06-2024", p.Key())

	// Flat positions drop.
	_, ok = xlat.Position(wirePosition{Symbol: "SPY", SecType: "STK", Position: 0})
	assert.False(t, ok)

	// Unknown security types drop.
	_, ok = xlat.Position(wirePosition{Symbol: "SPY", SecType: "NEWS", Position: 1})
	assert.False(t, ok)
}

func TestBarsTranslation(t *testing.T) {
	xlat := NewTranslator("USD")
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	h := xlat.Bars([]wireBar{
		{Time: "20240314", Open: 1, High: 2, Low: 0.5, Close: 1.5},
		{Time: "garbage"},
		{Time: "20240315", Open: 1.5, High: 2.5, Low: 1, Close: 2},
	}, now)

	require.Len(t, h.Bars, 2)
	assert.Equal(t, now, h.Created)
	assert.Equal(t, []float64{1.5, 2}, h.Closes())
}

func TestOptionTickDefaultsMultiplier(t *testing.T) {
	xlat := NewTranslator("USD")
	underlying := types.AssetID{Code: "SPY", Currency: "USD"}

	o, ok := xlat.OptionTick(wireOptionTick{
		wireTick:   wireTick{ConID: 42, Bid: 6, Ask: 7},
		Expiration: "20240621", Strike: 450, Right: "P",
		Delta: -0.3, IV: 0.22,
	}, underlying)
	require.True(t, ok)
	assert.Equal(t, 100, o.ID.Multiplier)
	assert.Equal(t, types.ContractID(42), o.ID.Contract)
	assert.InDelta(t, 6.5, o.Midpoint(), 1e-9)

	_, ok = xlat.OptionTick(wireOptionTick{Expiration: "20240621", Right: "X"}, underlying)
	assert.False(t, ok)
}

func TestOrderStatusAndTradeUpdate(t *testing.T) {
	xlat := NewTranslator("USD")

	st, ok := xlat.OrderStatus("Filled")
	require.True(t, ok)
	assert.Equal(t, types.StatusFilled, st)

	tu, ok := xlat.TradeUpdate(wireOrderStatus{
		OrderID: 7, Status: "Submitted", Remaining: 1, OrderRef: "SPY 15-03-2024 09:30:00__NL",
	})
	require.True(t, ok)
	assert.Equal(t, types.StatusSubmitted, tu.Status)
	assert.Equal(t, int64(7), tu.OrderID)

	_, ok = xlat.TradeUpdate(wireOrderStatus{Status: "Exploded"})
	assert.False(t, ok)
}
