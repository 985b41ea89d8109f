package core

import (
	"math"

	"github.com/quantgale/premia/compute"
	"github.com/quantgale/premia/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// ANALYTICS - Measures and forecast recomputation
// ═══════════════════════════════════════════════════════════════════════════════
//
// Vector measures (beta, correlation, stdev) run across the whole watch
// list at once since they share the benchmark column. Per-asset measures
// and the forecast follow. Each asset gets a freshly built Measures and
// Forecast object; readers holding the old one keep a consistent snapshot.
//
// ═══════════════════════════════════════════════════════════════════════════════

// recompute rebuilds Measures and Forecast for every asset with history.
func (e *Engine) recompute() {
	assets := e.store.Assets()

	series := make(map[string][]float64, len(assets))
	for _, a := range assets {
		if a.PriceHistory != nil && len(a.PriceHistory.Bars) > 0 {
			series[a.ID.Code] = a.PriceHistory.Closes()
		}
	}
	betas := compute.Beta(series, e.cfg.MarketBenchmark, e.cfg.BetaWindow)
	correlations := compute.Correlation(series, e.cfg.MarketBenchmark, e.cfg.CorrelationWindow)
	stdevs := compute.Stdev(series, e.cfg.StdevWindow)

	for _, a := range assets {
		closes, ok := series[a.ID.Code]
		if !ok {
			continue
		}

		m := &types.Measures{
			Beta:        mapValue(betas, a.ID.Code),
			Correlation: mapValue(correlations, a.ID.Code),
			Stdev:       mapValue(stdevs, a.ID.Code),
		}

		m.FastSMA = compute.SMA(closes, e.cfg.FastSMAWindow)
		m.SlowSMA = compute.SMA(closes, e.cfg.SlowSMAWindow)
		m.VerySlowSMA = compute.SMA(closes, e.cfg.VerySlowSMAWindow)
		m.FastSMASpeed = compute.Diff(m.FastSMA, 1)
		m.FastSMASpeedDiff = compute.Diff(m.FastSMASpeed, 1)
		m.RSI = last(compute.RSI(closes, e.cfg.RSIWindow))
		m.PricePct = last(compute.PctChange(closes, e.cfg.PriceWindow))
		m.PricePercentile = compute.PricePercentile(
			a.PriceHistory.Lows(), a.MarketPrice(), e.cfg.HistoricalYears)

		if a.IVHistory != nil && len(a.IVHistory.Bars) > 0 {
			ivCloses := a.IVHistory.Closes()
			iv := last(ivCloses)
			m.IV = iv
			m.IVRank = compute.IVRank(a.IVHistory.Lows(), a.IVHistory.Highs(), iv)
			m.IVPercentile = compute.IVPercentile(a.IVHistory.Lows(), iv, e.cfg.HistoricalYears)
			m.IVPct = last(compute.PctChange(ivCloses, e.cfg.IVWindow))
		} else {
			m.IV = math.NaN()
			m.IVRank = math.NaN()
			m.IVPercentile = math.NaN()
			m.IVPct = math.NaN()
		}

		a.Measures = m
		a.Forecast = &types.Forecast{
			Directional: compute.DirectionalForecast(m.FastSMA, m.SlowSMA),
		}
	}
}

func mapValue(m map[string]float64, code string) float64 {
	if v, ok := m[code]; ok {
		return v
	}
	return math.NaN()
}

func last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}
