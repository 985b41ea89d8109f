package store

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantgale/premia/types"
)

func spyAsset(beta float64) *types.Asset {
	return &types.Asset{
		ID:       types.AssetID{Code: "SPY", Type: types.AssetETF, Currency: "USD"},
		Measures: &types.Measures{Beta: beta},
	}
}

func openSpread(created time.Time, delta float64) *types.Strategy {
	opened := created.Add(time.Minute)
	return &types.Strategy{
		Code:       "SPY",
		Type:       types.ShortPutVerticalSpread,
		Ownership:  types.Seller,
		Quantity:   1,
		Multiplier: 100,
		Legs: []types.Leg{
			{
				Option: types.Option{
					ID:     types.OptionID{Underlying: types.AssetID{Code: "SPY"}, Right: types.Put, Strike: 100},
					Greeks: types.Greeks{Delta: delta},
				},
				Ownership: types.Seller,
				Ratio:     1,
			},
		},
		Created: created,
		Opened:  &opened,
	}
}

func TestAssetsOrderedByCode(t *testing.T) {
	s := New()
	s.PutAsset(&types.Asset{ID: types.AssetID{Code: "QQQ"}})
	s.PutAsset(&types.Asset{ID: types.AssetID{Code: "EEM"}})
	s.PutAsset(&types.Asset{ID: types.AssetID{Code: "SPY"}})

	assert.Equal(t, []string{"EEM", "QQQ", "SPY"}, s.Codes())
	assets := s.Assets()
	require.Len(t, assets, 3)
	assert.Equal(t, "EEM", assets[0].ID.Code)
}

func TestStrategyLifecycleViews(t *testing.T) {
	s := New()
	created := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

	pending := openSpread(created, -0.3)
	pending.Opened = nil
	s.PutStrategy(pending)

	open := openSpread(created.Add(time.Hour), -0.3)
	s.PutStrategy(open)

	assert.Len(t, s.Strategies(), 2)
	require.Len(t, s.OpenStrategies(), 1)
	assert.Equal(t, open.ID(), s.OpenStrategies()[0].ID())
	assert.True(t, s.HasStrategyFor("SPY"))
	assert.False(t, s.HasStrategyFor("QQQ"))

	s.RemoveStrategy(open.ID())
	assert.Len(t, s.Strategies(), 1)
}

func TestApplyAccountItem(t *testing.T) {
	s := New()
	s.ApplyAccountItem(types.AccountItem{
		Tag:   types.TagNetLiquidation,
		Money: decimal.NewFromInt(50000),
	})
	assert.Equal(t, "50000", s.Account().NetLiquidation.String())
}

func TestBetaWeightedDelta(t *testing.T) {
	s := New()
	spy := spyAsset(1.0)
	spy.Current = types.Current{Bid: 399, Ask: 401, Last: 400, Close: 400}
	s.PutAsset(spy)
	s.PutAsset(&types.Asset{
		ID:      types.AssetID{Code: "IDX", Type: types.AssetIndex, Currency: "USD"},
		Current: types.Current{Bid: 499, Ask: 501, Last: 500, Close: 500},
	})
	s.PutStrategy(openSpread(time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC), -0.3))

	// 400/500 × beta 1.0 × delta -0.3 × sign(-1) × ratio 1 × qty 1 × mult 100
	assert.InDelta(t, 24.0, s.BetaWeightedDelta("IDX"), 1e-9)

	// Unopened strategies contribute nothing.
	pending := openSpread(time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC), -0.5)
	pending.Opened = nil
	s.PutStrategy(pending)
	assert.InDelta(t, 24.0, s.BetaWeightedDelta("IDX"), 1e-9)
}

func TestBetaWeightedDeltaUnpricedBenchmark(t *testing.T) {
	s := New()
	s.PutAsset(spyAsset(1.0))
	s.PutStrategy(openSpread(time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC), -0.3))

	assert.True(t, math.IsNaN(s.BetaWeightedDelta("IDX")))
}
