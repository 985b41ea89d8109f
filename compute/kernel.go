package compute

import (
	"math"

	"github.com/quantgale/premia/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// COMPUTE KERNEL - Pure functions over column-oriented price/IV series
// ═══════════════════════════════════════════════════════════════════════════════
//
// Every function is deterministic and restartable: no hidden state, the
// engine calls them on every loop iteration. Rolling outputs are aligned
// element-wise with their input; unfilled leading elements are NaN.
//
// ═══════════════════════════════════════════════════════════════════════════════

// Returns computes daily percentage returns, dropping the first (empty) row.
func Returns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		out[i-1] = values[i]/values[i-1] - 1
	}
	return out
}

// tail returns the most recent n elements (all when n exceeds the length).
func tail(values []float64, n int) []float64 {
	if n <= 0 || n >= len(values) {
		return values
	}
	return values[len(values)-n:]
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// covariance is the population covariance of two equal-length columns.
func covariance(a, b []float64) float64 {
	n := len(a)
	if n == 0 || n != len(b) {
		return math.NaN()
	}
	ma, mb := mean(a), mean(b)
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += (a[i] - ma) * (b[i] - mb)
	}
	return sum / float64(n)
}

// Beta computes each column's beta against the market column: covariance of
// daily returns over the most recent window rows divided by the market
// variance.
func Beta(series map[string][]float64, market string, window int) map[string]float64 {
	bench, ok := series[market]
	if !ok {
		return nil
	}
	mret := tail(Returns(bench), window)
	mvar := covariance(mret, mret)

	out := make(map[string]float64, len(series))
	for code, values := range series {
		ret := tail(Returns(values), window)
		out[code] = covariance(ret, mret) / mvar
	}
	return out
}

// Correlation computes the Pearson correlation of each column's daily
// returns with the market column over the most recent window rows.
func Correlation(series map[string][]float64, market string, window int) map[string]float64 {
	bench, ok := series[market]
	if !ok {
		return nil
	}
	mret := tail(Returns(bench), window)
	mstd := math.Sqrt(covariance(mret, mret))

	out := make(map[string]float64, len(series))
	for code, values := range series {
		ret := tail(Returns(values), window)
		std := math.Sqrt(covariance(ret, ret))
		out[code] = covariance(ret, mret) / (std * mstd)
	}
	return out
}

// Stdev computes the population standard deviation of daily returns over
// the most recent window rows, per column.
func Stdev(series map[string][]float64, window int) map[string]float64 {
	out := make(map[string]float64, len(series))
	for code, values := range series {
		ret := tail(Returns(values), window)
		out[code] = math.Sqrt(covariance(ret, ret))
	}
	return out
}

// SMA is the rolling arithmetic mean. The leading window-1 elements are NaN.
func SMA(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// RSI is the Wilder relative strength index with separate up/down rolling
// means. The leading window elements are NaN.
func RSI(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(values) <= window {
		return out
	}

	var avgUp, avgDown float64
	for i := 1; i <= window; i++ {
		d := values[i] - values[i-1]
		if d > 0 {
			avgUp += d
		} else {
			avgDown -= d
		}
	}
	avgUp /= float64(window)
	avgDown /= float64(window)
	out[window] = rsiValue(avgUp, avgDown)

	w := float64(window)
	for i := window + 1; i < len(values); i++ {
		d := values[i] - values[i-1]
		up, down := 0.0, 0.0
		if d > 0 {
			up = d
		} else {
			down = -d
		}
		avgUp = (avgUp*(w-1) + up) / w
		avgDown = (avgDown*(w-1) + down) / w
		out[i] = rsiValue(avgUp, avgDown)
	}
	return out
}

func rsiValue(avgUp, avgDown float64) float64 {
	if avgDown == 0 {
		return 100
	}
	rs := avgUp / avgDown
	return 100 - 100/(1+rs)
}

// PctChange is x[t]/x[t-window] - 1, aligned with the input. The leading
// window elements are NaN.
func PctChange(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i < window || values[i-window] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = values[i]/values[i-window] - 1
	}
	return out
}

// Diff is x[t] - x[t-window], aligned with the input.
func Diff(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i < window {
			out[i] = math.NaN()
			continue
		}
		out[i] = values[i] - values[i-window]
	}
	return out
}

// IVRank positions the current IV inside its historical low/high range.
func IVRank(lowHistory, highHistory []float64, iv float64) float64 {
	min := math.Inf(1)
	for _, v := range lowHistory {
		if v < min {
			min = v
		}
	}
	max := math.Inf(-1)
	for _, v := range highHistory {
		if v > max {
			max = v
		}
	}
	return (iv - min) / (max - min)
}

// IVPercentile counts how much of the historical IV distribution sits below
// the current value, against a fixed trading-day denominator.
func IVPercentile(lowHistory []float64, iv float64, years int) float64 {
	return percentile(lowHistory, iv, years)
}

// PricePercentile counts how much of the historical low-price distribution
// sits below the current price.
func PricePercentile(lowHistory []float64, price float64, years int) float64 {
	return percentile(lowHistory, price, years)
}

func percentile(lows []float64, value float64, years int) float64 {
	count := 0
	for _, v := range lows {
		if v < value {
			count++
		}
	}
	return float64(count) / (float64(years) * types.TradingDaysPerYear)
}
