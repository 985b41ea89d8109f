package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantgale/premia/types"
)

var testExpiration = time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC)

func put(strike, bid, ask float64) types.Option {
	return types.Option{
		ID: types.OptionID{
			Underlying: types.AssetID{Code: "SPY", Currency: "USD"},
			Expiration: testExpiration,
			Strike:     strike,
			Right:      types.Put,
			Multiplier: 100,
		},
		Bid: bid,
		Ask: ask,
	}
}

func call(strike, bid, ask float64) types.Option {
	o := put(strike, bid, ask)
	o.ID.Right = types.Call
	return o
}

func TestShortPutVerticalSpreadMetrics(t *testing.T) {
	sold := put(100, 6, 7)  // midpoint 6.5
	bought := put(95, 5, 6) // midpoint 5.5

	s, err := NewShortPutVerticalSpread(sold, bought,
		Params{TakeProfitFactor: 0.5, StopLossFactor: 2.0}, time.Now())
	require.NoError(t, err)

	m, err := Compute(s)
	require.NoError(t, err)

	assert.InDelta(t, -1.0, m.Entry, 1e-9)
	assert.InDelta(t, -0.5, m.ProfitTarget, 1e-9)
	assert.InDelta(t, -2.0, m.StopTarget, 1e-9)
	assert.InDelta(t, 99.0, m.Breakeven, 1e-9)
	assert.InDelta(t, 5.0, m.Width, 1e-9)
	assert.InDelta(t, -100.0, m.MaxProfit, 1e-9)
	assert.InDelta(t, 400.0, m.MaxLoss, 1e-9)
	assert.InDelta(t, 0.25, m.ROI, 1e-9)
	assert.InDelta(t, 0.8, m.POP, 1e-9)
}

func TestShortPutVerticalSpreadValidation(t *testing.T) {
	// Strikes inverted.
	_, err := NewShortPutVerticalSpread(put(95, 5, 6), put(100, 6, 7), Params{}, time.Now())
	require.Error(t, err)

	// Wrong right.
	_, err = NewShortPutVerticalSpread(call(100, 6, 7), put(95, 5, 6), Params{}, time.Now())
	require.Error(t, err)

	// Expirations apart.
	late := put(95, 5, 6)
	late.ID.Expiration = testExpiration.AddDate(0, 1, 0)
	_, err = NewShortPutVerticalSpread(put(100, 6, 7), late, Params{}, time.Now())
	require.Error(t, err)
}

func TestShortCallVerticalSpread(t *testing.T) {
	sold := call(100, 6, 7)
	bought := call(105, 5, 6)

	s, err := NewShortCallVerticalSpread(sold, bought,
		Params{TakeProfitFactor: 0.5, StopLossFactor: 2.0}, time.Now())
	require.NoError(t, err)

	m, err := Compute(s)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, m.Entry, 1e-9)
	assert.InDelta(t, 101.0, m.Breakeven, 1e-9)
	assert.InDelta(t, 400.0, m.MaxLoss, 1e-9)

	// Selling the higher strike is the wrong way round.
	_, err = NewShortCallVerticalSpread(bought, sold, Params{}, time.Now())
	require.Error(t, err)
}

func TestShortPutMetrics(t *testing.T) {
	s, err := NewShortPut(put(100, 6, 7), Params{TakeProfitFactor: 0.5, StopLossFactor: 2.0}, time.Now())
	require.NoError(t, err)

	m, err := Compute(s)
	require.NoError(t, err)
	assert.InDelta(t, -6.5, m.Entry, 1e-9)
	assert.InDelta(t, 93.5, m.Breakeven, 1e-9)
	assert.InDelta(t, -650.0, m.MaxProfit, 1e-9)
	assert.InDelta(t, 9350.0, m.MaxLoss, 1e-9)

	_, err = NewShortPut(call(100, 6, 7), Params{}, time.Now())
	require.Error(t, err)
}

func TestBullPutSelectLegs(t *testing.T) {
	b := &BullPut{Width: 5}
	chain := map[string]types.Option{}
	for _, strike := range []float64{85, 90, 95, 100, 105} {
		o := put(strike, 1, 2)
		chain[o.ChainKey()] = o
	}

	sold, bought, ok := b.selectLegs(chain, 101)
	require.True(t, ok)
	assert.Equal(t, 100.0, sold.ID.Strike)
	assert.Equal(t, 95.0, bought.ID.Strike)

	// No strike below the price.
	_, _, ok = b.selectLegs(chain, 80)
	assert.False(t, ok)
}
