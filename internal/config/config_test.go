package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantgale/premia/types"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, "SPY", cfg.MarketBenchmark)
	assert.Equal(t, 1, cfg.HistoricalYears)
	assert.Equal(t, 252, cfg.HistoricalDays)
	assert.Equal(t, 22, cfg.StdevWindow)
	assert.Equal(t, 252, cfg.BetaWindow)
	assert.Equal(t, 14, cfg.RSIWindow)
	assert.Equal(t, 0, cfg.DTEMin)
	assert.Equal(t, 50, cfg.DTEMax)
	assert.Equal(t, 20*time.Second, cfg.SleepLoop)
	assert.Equal(t, "0.4", cfg.PreservedCashFactor.String())
	assert.Equal(t, "0.05", cfg.MaximumRiskFactor.String())
	require.Len(t, cfg.WatchList, 1)
	assert.Equal(t, "SPY", cfg.WatchList[0].Code)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CURRENCY", "EUR")
	t.Setenv("HISTORICAL_YEARS", "2")
	t.Setenv("SLEEP_LOOP", "5s")
	t.Setenv("WATCH_LIST", "SPY:ETF,EEM:ETF,TRIN-NYSE:IND@NYSE")
	t.Setenv("EXPIRATIONS", "2024-06-21, 2024-07-19")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "EUR", cfg.Currency)
	assert.Equal(t, 504, cfg.HistoricalDays)
	assert.Equal(t, 5*time.Second, cfg.SleepLoop)

	require.Len(t, cfg.WatchList, 3)
	assert.Equal(t, types.AssetDef{Code: "SPY", Type: types.AssetETF}, cfg.WatchList[0])
	assert.Equal(t, types.AssetDef{Code: "TRIN-NYSE", Type: types.AssetIndex, Exchange: "NYSE"}, cfg.WatchList[2])

	require.Len(t, cfg.Expirations, 2)
	assert.Equal(t, time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC), cfg.Expirations[0])
}

func TestWatchListRejectsUnsupportedTypes(t *testing.T) {
	t.Setenv("WATCH_LIST", "ES:FUT")
	_, err := Load()
	require.Error(t, err)
}

func TestWatchListRejectsMalformedEntries(t *testing.T) {
	t.Setenv("WATCH_LIST", "just-a-code")
	_, err := Load()
	require.Error(t, err)
}

func TestExpirationsRejectBadDates(t *testing.T) {
	t.Setenv("EXPIRATIONS", "21-06-2024")
	_, err := Load()
	require.Error(t, err)
}
