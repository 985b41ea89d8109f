package types

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestMarketPriceResolution(t *testing.T) {
	nan := math.NaN()
	cases := []struct {
		name     string
		current  Current
		expected float64
	}{
		{
			name:     "last inside the spread wins",
			current:  Current{Bid: 10, Ask: 12, Last: 11, Close: 9},
			expected: 11,
		},
		{
			name:     "last outside the spread falls back to midpoint",
			current:  Current{Bid: 10, Ask: 12, Last: 15, Close: 9},
			expected: 11,
		},
		{
			name:     "one-sided quote accepts last",
			current:  Current{Bid: 10, Ask: nan, Last: 11, Close: 9},
			expected: 11,
		},
		{
			name:     "nan quotes fall back to close",
			current:  Current{Bid: nan, Ask: nan, Last: nan, Close: 75},
			expected: 75,
		},
		{
			name:     "minus-one placeholders fall back to close",
			current:  Current{Bid: -1, Ask: -1, Last: nan, Close: 75},
			expected: 75,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, tc.current.MarketPrice(), 1e-9)
		})
	}
}

func TestHistoryStale(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	fresh := &History{Created: now.Add(-time.Hour)}
	assert.False(t, fresh.Stale(now))

	old := &History{Created: now.Add(-25 * time.Hour)}
	assert.True(t, old.Stale(now))

	var nilHistory *History
	assert.True(t, nilHistory.Stale(now))
}

func TestOwnership(t *testing.T) {
	assert.Equal(t, "BUY", Buyer.String())
	assert.Equal(t, "SELL", Seller.String())
	assert.Equal(t, Seller, Buyer.Reverse())
	assert.Equal(t, 1.0, Buyer.Sign())
	assert.Equal(t, -1.0, Seller.Sign())
}

func TestPositionKey(t *testing.T) {
	exp := time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC)

	stock := Position{Code: "SPY", Type: AssetStock, Quantity: 100}
	assert.Equal(t, "SPY", stock.Key())

	option := Position{
		Code: "SPY", Type: AssetOption, Right: Put, Strike: 450, Expiration: exp,
	}
	assert.Equal(t, "SPY P 450.0 21-06-2024", option.Key())
}

func TestLegIDAndContractKey(t *testing.T) {
	exp := time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC)
	leg := Leg{
		Option: Option{ID: OptionID{
			Underlying: AssetID{Code: "SPY"},
			Expiration: exp,
			Strike:     450,
			Right:      Put,
		}},
		Ownership: Seller,
		Ratio:     1,
	}

	assert.Equal(t, "SPY SELL P 450.0 21-06-2024", leg.ID())
	assert.NotContains(t, leg.ID(), "_")

	// The contract key drops ownership and matches the position key for the
	// same contract.
	pos := Position{Code: "SPY", Right: Put, Strike: 450, Expiration: exp}
	assert.Equal(t, pos.Key(), leg.ContractKey())
}

func TestStrategyID(t *testing.T) {
	s := &Strategy{
		Code:    "SPY",
		Created: time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC),
	}
	assert.Equal(t, "SPY 15-03-2024 09:30:00", s.ID())
	assert.NotContains(t, s.ID(), "_")
}

func TestStrategyEntryPriceAndExpectedFill(t *testing.T) {
	s := &Strategy{
		Code:     "SPY",
		Quantity: 2,
		Legs: []Leg{
			{Option: Option{ID: OptionID{Underlying: AssetID{Code: "SPY"}}, Bid: 6, Ask: 7}, Ownership: Seller, Ratio: 1},
			{Option: Option{ID: OptionID{Underlying: AssetID{Code: "SPY"}}, Bid: 5, Ask: 6}, Ownership: Buyer, Ratio: 1},
		},
	}

	// -6.5 (sold) + 5.5 (bought) = -1.0 net credit.
	assert.InDelta(t, -1.0, s.ComputeEntryPrice(), 1e-9)
	assert.InDelta(t, 4.0, s.ExpectedFill(), 1e-9)
}

func TestStrategyValidate(t *testing.T) {
	require.Error(t, (&Strategy{Code: "SPY"}).Validate())

	mismatch := &Strategy{
		Code: "SPY",
		Legs: []Leg{
			{Option: Option{ID: OptionID{Underlying: AssetID{Code: "QQQ"}}}, Ownership: Seller, Ratio: 1},
		},
	}
	require.Error(t, mismatch.Validate())

	zeroRatio := &Strategy{
		Code: "SPY",
		Legs: []Leg{
			{Option: Option{ID: OptionID{Underlying: AssetID{Code: "SPY"}}}, Ownership: Seller, Ratio: 0},
		},
	}
	require.Error(t, zeroRatio.Validate())
}

func TestOptionDTE(t *testing.T) {
	today := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	o := Option{ID: OptionID{Expiration: time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC)}}
	assert.Equal(t, 14, o.DTE(today))
}

func TestAccountApply(t *testing.T) {
	var a Account
	a.Apply(AccountItem{Tag: TagID, Value: "DU12345"})
	a.Apply(AccountItem{Tag: TagNetLiquidation, Money: mustDecimal(t, "100000")})
	a.Apply(AccountItem{Tag: TagCash, Money: mustDecimal(t, "60000")})
	a.Apply(AccountItem{Tag: TagMaxDayTrades, Money: mustDecimal(t, "3")})

	assert.Equal(t, "DU12345", a.ID)
	assert.Equal(t, "100000", a.NetLiquidation.String())
	assert.Equal(t, "60000", a.Cash.String())
	assert.Equal(t, 3, a.MaxDayTrades)
}
