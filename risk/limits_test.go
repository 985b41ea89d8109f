package risk

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantgale/premia/types"
)

func testLimits() *Limits {
	return NewLimits(decimal.NewFromFloat(0.4), decimal.NewFromFloat(0.05))
}

func account(netLiq, cash int64) types.Account {
	return types.Account{
		NetLiquidation: decimal.NewFromInt(netLiq),
		Cash:           decimal.NewFromInt(cash),
	}
}

func TestMaxRiskPerTrade(t *testing.T) {
	l := testLimits()

	// Factor cap binds: min(100000×0.05, 60000−40000) = 5000.
	assert.Equal(t, "5000", l.MaxRiskPerTrade(account(100000, 60000)).String())

	// Cash cap binds: min(5000, 42000−40000) = 2000.
	assert.Equal(t, "2000", l.MaxRiskPerTrade(account(100000, 42000)).String())

	// Below the preserved floor the budget goes negative.
	assert.True(t, l.MaxRiskPerTrade(account(100000, 30000)).IsNegative())
}

func TestCheck(t *testing.T) {
	l := testLimits()
	a := account(100000, 60000)

	require.NoError(t, l.Check(a, "s1", 400, 1))
	require.NoError(t, l.Check(a, "s1", 400, 12)) // 4800 ≤ 5000

	// Over budget: rejected, never resized.
	require.Error(t, l.Check(a, "s1", 400, 13))

	// Undefined worst case is never tradable.
	require.Error(t, l.Check(a, "s1", math.NaN(), 1))
	require.Error(t, l.Check(a, "s1", -100, 1))

	// Negative budget rejects everything.
	require.Error(t, l.Check(account(100000, 30000), "s1", 1, 1))
}
