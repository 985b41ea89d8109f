package repo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantgale/premia/types"
)

func testStrategy(created time.Time) *types.Strategy {
	return &types.Strategy{
		Code:             "SPY",
		Type:             types.ShortPutVerticalSpread,
		Ownership:        types.Seller,
		Currency:         "USD",
		TakeProfitFactor: 0.5,
		StopLossFactor:   2.0,
		Multiplier:       100,
		Quantity:         1,
		EntryPrice:       -1.0,
		Legs: []types.Leg{
			{
				Option: types.Option{ID: types.OptionID{
					Underlying: types.AssetID{Code: "SPY", Currency: "USD"},
					Expiration: time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC),
					Strike:     100,
					Right:      types.Put,
					Multiplier: 100,
					Contract:   1001,
				}, Bid: 6, Ask: 7},
				Ownership: types.Seller,
				Ratio:     1,
			},
			{
				Option: types.Option{ID: types.OptionID{
					Underlying: types.AssetID{Code: "SPY", Currency: "USD"},
					Expiration: time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC),
					Strike:     95,
					Right:      types.Put,
					Multiplier: 100,
					Contract:   1002,
				}, Bid: 5, Ask: 6},
				Ownership: types.Buyer,
				Ratio:     1,
			},
		},
		Created: created,
		Updated: created,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	r, err := New(t.TempDir(), "strategy")
	require.NoError(t, err)

	s := testStrategy(time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC))
	require.NoError(t, r.Save(s))

	loaded, err := r.Load(s.ID())
	require.NoError(t, err)

	assert.Equal(t, s.ID(), loaded.ID())
	assert.Equal(t, s.EntryPrice, loaded.EntryPrice)
	require.Len(t, loaded.Legs, 2)
	assert.Equal(t, s.Legs[0].ID(), loaded.Legs[0].ID())
	assert.Equal(t, s.Legs[1].Option.ID.Contract, loaded.Legs[1].Option.ID.Contract)
	assert.Nil(t, loaded.Opened)
}

func TestDeleteRenamesAside(t *testing.T) {
	dir := t.TempDir()
	r, err := New(dir, "strategy")
	require.NoError(t, err)

	s := testStrategy(time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC))
	require.NoError(t, r.Save(s))
	require.NoError(t, r.Delete(s.ID()))

	// Live file gone, closed file kept.
	_, err = os.Stat(filepath.Join(r.Dir(), s.ID()+".json"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(r.Dir(), s.ID()+".json_closed"))
	assert.NoError(t, err)

	all, err := r.AllItems()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestAllItemsSkipsUnreadable(t *testing.T) {
	r, err := New(t.TempDir(), "strategy")
	require.NoError(t, err)

	good := testStrategy(time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC))
	require.NoError(t, r.Save(good))
	require.NoError(t, os.WriteFile(filepath.Join(r.Dir(), "broken.json"), []byte("{"), 0o644))

	all, err := r.AllItems()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, good.ID(), all[0].ID())
}
