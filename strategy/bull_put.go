package strategy

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quantgale/premia/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// BULL PUT ALGORITHM - Sell put spreads into bullish underlyings
// ═══════════════════════════════════════════════════════════════════════════════
//
// For every watch-list asset whose latest directional reading is bullish
// and that has no live strategy yet, sell a put vertical: short the highest
// put strike below the market price, long the strike closest to one width
// lower. The candidate must clear the minimum ROI and collect an actual
// credit, otherwise it is skipped.
//
// ═══════════════════════════════════════════════════════════════════════════════

// BullPut is a put-credit-spread selling policy.
type BullPut struct {
	Params Params

	// Width is the target distance between the spread strikes.
	Width float64

	// MinROI rejects spreads that pay too little for their risk.
	MinROI float64
}

// Name implements Algorithm.
func (b *BullPut) Name() string { return "bull-put" }

// Run scans the watch list once.
func (b *BullPut) Run(ctx context.Context, env *Env) error {
	for _, asset := range env.Store.Assets() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !bullish(asset) {
			continue
		}
		if env.Store.HasStrategyFor(asset.ID.Code) {
			continue
		}
		if err := b.trade(ctx, env, asset); err != nil {
			log.Warn().Err(err).Str("code", asset.ID.Code).
				Msg("⚠️ Bull put pass failed for asset")
		}
	}
	return nil
}

// bullish reports whether the latest computed direction is bullish.
func bullish(a *types.Asset) bool {
	if a.Forecast == nil || len(a.Forecast.Directional) == 0 {
		return false
	}
	return a.Forecast.Directional[len(a.Forecast.Directional)-1] == types.Bullish
}

func (b *BullPut) trade(ctx context.Context, env *Env, asset *types.Asset) error {
	expiration := time.Time{}
	if len(env.Expirations) > 0 {
		expiration = env.Expirations[0]
	}
	chain, err := env.Chain(ctx, asset.ID.Code, expiration)
	if err != nil {
		return err
	}

	price := asset.MarketPrice()
	sold, bought, ok := b.selectLegs(chain, price)
	if !ok {
		log.Debug().Str("code", asset.ID.Code).Float64("price", price).
			Msg("No workable put spread in chain")
		return nil
	}

	s, err := NewShortPutVerticalSpread(sold, bought, b.Params, env.Now())
	if err != nil {
		return err
	}
	m, err := Compute(s)
	if err != nil {
		return err
	}
	if math.IsNaN(m.Entry) || m.Entry >= 0 {
		log.Debug().Str("code", asset.ID.Code).Float64("entry", m.Entry).
			Msg("Spread collects no credit, skipping")
		return nil
	}
	if m.ROI < b.MinROI {
		log.Debug().Str("code", asset.ID.Code).
			Float64("roi", m.ROI).Float64("min_roi", b.MinROI).
			Msg("Spread ROI below threshold, skipping")
		return nil
	}

	log.Info().
		Str("code", asset.ID.Code).
		Float64("sold_strike", sold.ID.Strike).
		Float64("bought_strike", bought.ID.Strike).
		Float64("entry", m.Entry).
		Float64("roi", m.ROI).
		Float64("pop", m.POP).
		Msg("🎯 Bull put candidate")
	return env.Submit(ctx, s)
}

// selectLegs picks the short leg as the highest put strike below the
// market price and the long leg as the available strike nearest to one
// width lower.
func (b *BullPut) selectLegs(chain map[string]types.Option, price float64) (sold, bought types.Option, ok bool) {
	if math.IsNaN(price) {
		return sold, bought, false
	}

	puts := make([]types.Option, 0, len(chain))
	for _, o := range chain {
		if o.ID.Right == types.Put {
			puts = append(puts, o)
		}
	}
	sort.Slice(puts, func(i, j int) bool { return puts[i].ID.Strike < puts[j].ID.Strike })

	soldIdx := -1
	for i, o := range puts {
		if o.ID.Strike < price {
			soldIdx = i
		}
	}
	if soldIdx <= 0 {
		return sold, bought, false
	}
	sold = puts[soldIdx]

	target := sold.ID.Strike - b.Width
	boughtIdx := -1
	for i := soldIdx - 1; i >= 0; i-- {
		if !puts[i].ID.Expiration.Equal(sold.ID.Expiration) {
			continue
		}
		if boughtIdx == -1 ||
			math.Abs(puts[i].ID.Strike-target) < math.Abs(puts[boughtIdx].ID.Strike-target) {
			boughtIdx = i
		}
	}
	if boughtIdx == -1 {
		return sold, bought, false
	}
	return sold, puts[boughtIdx], true
}
