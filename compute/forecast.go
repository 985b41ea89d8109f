package compute

import (
	"math"

	"github.com/quantgale/premia/types"
)

// DirectionalForecast maps a fast/slow SMA pair to per-bar directional
// assumptions. Output is aligned element-wise with the inputs: an element
// is Undefined until both windows are filled, Bullish when fast ≥ slow,
// Bearish otherwise.
func DirectionalForecast(fastSMA, slowSMA []float64) []types.Direction {
	n := len(fastSMA)
	if len(slowSMA) < n {
		n = len(slowSMA)
	}
	out := make([]types.Direction, n)
	for i := 0; i < n; i++ {
		switch {
		case math.IsNaN(fastSMA[i]) || math.IsNaN(slowSMA[i]):
			out[i] = types.Undefined
		case fastSMA[i] >= slowSMA[i]:
			out[i] = types.Bullish
		default:
			out[i] = types.Bearish
		}
	}
	return out
}
