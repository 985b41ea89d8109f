package compute

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantgale/premia/types"
)

func TestDirectionalForecastAlignment(t *testing.T) {
	nan := math.NaN()
	fast := []float64{nan, nan, nan, 10, 11, 12}
	slow := []float64{nan, nan, nan, nan, 10, 11}

	out := DirectionalForecast(fast, slow)

	require.Len(t, out, 6)
	expected := []types.Direction{
		types.Undefined, types.Undefined, types.Undefined, types.Undefined,
		types.Bullish, types.Bullish,
	}
	assert.Equal(t, expected, out)
}

func TestDirectionalForecastBearish(t *testing.T) {
	fast := []float64{9, 10}
	slow := []float64{10, 10}

	out := DirectionalForecast(fast, slow)

	require.Len(t, out, 2)
	assert.Equal(t, types.Bearish, out[0])
	// Equal SMAs read as bullish.
	assert.Equal(t, types.Bullish, out[1])
}

func TestDirectionalForecastUnevenInputs(t *testing.T) {
	fast := []float64{1, 2, 3}
	slow := []float64{1, 2}

	assert.Len(t, DirectionalForecast(fast, slow), 2)
}
