package strategy

import (
	"fmt"
	"math"
	"time"

	"github.com/quantgale/premia/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// DEFINED STRATEGIES - Leg templates and their derived metrics
// ═══════════════════════════════════════════════════════════════════════════════
//
// Builders assemble a Strategy from quoted options and validate the shape
// (rights, strike ordering, shared expiration). Metrics derives the numbers
// an algorithm decides on: entry, targets, breakeven, worst case, ROI.
//
// Prices keep their cash-flow sign throughout: a credit is negative, so the
// take-profit price of a credit strategy is a smaller negative number.
//
// ═══════════════════════════════════════════════════════════════════════════════

// Params carry the exit plan applied to every new strategy.
type Params struct {
	TakeProfitFactor float64
	StopLossFactor   float64
}

// NewShortPut builds a one-leg naked short put.
func NewShortPut(sold types.Option, p Params, now time.Time) (*types.Strategy, error) {
	if sold.ID.Right != types.Put {
		return nil, fmt.Errorf("short put needs a put, got %s", sold.ID.Right)
	}
	s := &types.Strategy{
		Code:             sold.ID.Underlying.Code,
		Type:             types.ShortPut,
		Ownership:        types.Seller,
		Currency:         sold.ID.Underlying.Currency,
		TakeProfitFactor: p.TakeProfitFactor,
		StopLossFactor:   p.StopLossFactor,
		Multiplier:       sold.ID.Multiplier,
		Legs: []types.Leg{
			{Option: sold, Ownership: types.Seller, Ratio: 1},
		},
		Created: now,
		Updated: now,
	}
	s.EntryPrice = s.ComputeEntryPrice()
	return s, s.Validate()
}

// NewShortPutVerticalSpread builds a put credit spread: sell the higher
// strike, buy the lower one, same expiration.
func NewShortPutVerticalSpread(sold, bought types.Option, p Params, now time.Time) (*types.Strategy, error) {
	if sold.ID.Right != types.Put || bought.ID.Right != types.Put {
		return nil, fmt.Errorf("put spread needs puts, got %s/%s", sold.ID.Right, bought.ID.Right)
	}
	if err := checkSpreadLegs(sold, bought); err != nil {
		return nil, err
	}
	if sold.ID.Strike <= bought.ID.Strike {
		return nil, fmt.Errorf("put spread sells the higher strike: sold %.1f, bought %.1f",
			sold.ID.Strike, bought.ID.Strike)
	}
	return newSpread(types.ShortPutVerticalSpread, sold, bought, p, now)
}

// NewShortCallVerticalSpread builds a call credit spread: sell the lower
// strike, buy the higher one, same expiration.
func NewShortCallVerticalSpread(sold, bought types.Option, p Params, now time.Time) (*types.Strategy, error) {
	if sold.ID.Right != types.Call || bought.ID.Right != types.Call {
		return nil, fmt.Errorf("call spread needs calls, got %s/%s", sold.ID.Right, bought.ID.Right)
	}
	if err := checkSpreadLegs(sold, bought); err != nil {
		return nil, err
	}
	if sold.ID.Strike >= bought.ID.Strike {
		return nil, fmt.Errorf("call spread sells the lower strike: sold %.1f, bought %.1f",
			sold.ID.Strike, bought.ID.Strike)
	}
	return newSpread(types.ShortCallVerticalSpread, sold, bought, p, now)
}

func checkSpreadLegs(sold, bought types.Option) error {
	if !sold.ID.Expiration.Equal(bought.ID.Expiration) {
		return fmt.Errorf("spread legs expire apart: %s vs %s",
			sold.ID.Expiration.Format("2006-01-02"), bought.ID.Expiration.Format("2006-01-02"))
	}
	if sold.ID.Underlying.Code != bought.ID.Underlying.Code {
		return fmt.Errorf("spread legs on different underlyings: %s vs %s",
			sold.ID.Underlying.Code, bought.ID.Underlying.Code)
	}
	if sold.ID.Multiplier != bought.ID.Multiplier {
		return fmt.Errorf("spread legs with different multipliers: %d vs %d",
			sold.ID.Multiplier, bought.ID.Multiplier)
	}
	return nil
}

func newSpread(st types.StrategyType, sold, bought types.Option, p Params, now time.Time) (*types.Strategy, error) {
	s := &types.Strategy{
		Code:             sold.ID.Underlying.Code,
		Type:             st,
		Ownership:        types.Seller,
		Currency:         sold.ID.Underlying.Currency,
		TakeProfitFactor: p.TakeProfitFactor,
		StopLossFactor:   p.StopLossFactor,
		Multiplier:       sold.ID.Multiplier,
		Legs: []types.Leg{
			{Option: sold, Ownership: types.Seller, Ratio: 1},
			{Option: bought, Ownership: types.Buyer, Ratio: 1},
		},
		Created: now,
		Updated: now,
	}
	s.EntryPrice = s.ComputeEntryPrice()
	return s, s.Validate()
}

// Metrics are the decision numbers for one strategy at its entry price.
// All cash amounts keep the signed-flow convention; MaxProfit is negative
// for a credit strategy, MaxLoss is positive.
type Metrics struct {
	Entry        float64
	ProfitTarget float64
	StopTarget   float64
	Breakeven    float64
	Width        float64
	MaxProfit    float64
	MaxLoss      float64
	ROI          float64
	POP          float64
}

// Compute derives the metrics for a defined strategy type.
func Compute(s *types.Strategy) (Metrics, error) {
	m := Metrics{
		Entry:        s.EntryPrice,
		ProfitTarget: s.EntryPrice * s.TakeProfitFactor,
		StopTarget:   s.EntryPrice * s.StopLossFactor,
	}
	mult := float64(s.Multiplier)

	switch s.Type {
	case types.ShortPut:
		strike := s.Legs[0].Option.ID.Strike
		m.Width = strike
		m.Breakeven = strike + m.Entry
		m.MaxProfit = m.Entry * mult
		m.MaxLoss = (strike + m.Entry) * mult

	case types.ShortPutVerticalSpread:
		sold, bought := s.Legs[0].Option.ID.Strike, s.Legs[1].Option.ID.Strike
		m.Width = sold - bought
		m.Breakeven = sold + m.Entry
		m.MaxProfit = m.Entry * mult
		m.MaxLoss = (m.Width + m.Entry) * mult

	case types.ShortCallVerticalSpread:
		sold, bought := s.Legs[0].Option.ID.Strike, s.Legs[1].Option.ID.Strike
		m.Width = bought - sold
		m.Breakeven = sold - m.Entry
		m.MaxProfit = m.Entry * mult
		m.MaxLoss = (m.Width + m.Entry) * mult

	default:
		return Metrics{}, fmt.Errorf("no metrics for strategy type %s", s.Type)
	}

	if m.MaxLoss > 0 {
		m.ROI = -m.MaxProfit / m.MaxLoss
	} else {
		m.ROI = math.NaN()
	}
	if m.Width > 0 {
		m.POP = 1 - math.Abs(m.Entry)/m.Width
	} else {
		m.POP = math.NaN()
	}
	return m, nil
}
