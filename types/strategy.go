package types

import (
	"fmt"
	"time"
)

// StrategyType tags a defined multi-leg template.
type StrategyType string

const (
	ShortPut                StrategyType = "SP"
	ShortPutVerticalSpread  StrategyType = "SPVS"
	ShortCallVerticalSpread StrategyType = "SCVS"
)

// Leg is one buy-or-sell component of a multi-leg strategy. Immutable.
// Legs carry only the underlying code through OptionID; they never point
// back at the Asset entity.
type Leg struct {
	Option    Option    `json:"option"`
	Ownership Ownership `json:"ownership"`
	Ratio     int       `json:"ratio"`
}

// Price is the leg's midpoint quote.
func (l Leg) Price() float64 { return l.Option.Midpoint() }

// ID is the deterministic leg identity: underlying, ownership, right,
// strike and expiration. Contains no underscores (order references join
// components with them).
func (l Leg) ID() string {
	o := l.Option.ID
	return fmt.Sprintf("%s %s %s %.1f %s",
		o.Underlying.Code, l.Ownership, o.Right, o.Strike,
		o.Expiration.Format("02-01-2006"))
}

// ContractKey is the leg identity without the ownership component; it
// matches Position.Key for the same contract.
func (l Leg) ContractKey() string {
	o := l.Option.ID
	return contractKey(o.Underlying.Code, o.Right, o.Strike, o.Expiration)
}

// Strategy is a defined combination of legs with an entry, take-profit and
// stop-loss plan. Entity; identity is ID().
type Strategy struct {
	Code             string       `json:"code"`
	Type             StrategyType `json:"strategy_type"`
	Ownership        Ownership    `json:"ownership"`
	Currency         string       `json:"currency"`
	TakeProfitFactor float64      `json:"take_profit_factor"`
	StopLossFactor   float64      `json:"stop_loss_factor"`
	Multiplier       int          `json:"multiplier"`
	Legs             []Leg        `json:"legs"`
	Quantity         int          `json:"quantity"`
	EntryPrice       float64      `json:"entry_price"`
	Opened           *time.Time   `json:"opened,omitempty"`
	Closed           *time.Time   `json:"closed,omitempty"`
	Created          time.Time    `json:"created"`
	Updated          time.Time    `json:"updated"`
}

// ID is the strategy identity: code plus creation timestamp. Contains no
// underscores.
func (s *Strategy) ID() string {
	return s.Code + " " + s.Created.Format("02-01-2006 15:04:05")
}

// ComputeEntryPrice sums ratio × ownership × leg midpoint over the legs,
// sign preserved (a net credit is negative).
func (s *Strategy) ComputeEntryPrice() float64 {
	total := 0.0
	for _, l := range s.Legs {
		total += float64(l.Ratio) * l.Ownership.Sign() * l.Price()
	}
	return total
}

// ExpectedFill is the position quantity the broker should report once every
// parent leg is filled: Σ ratio × strategy quantity.
func (s *Strategy) ExpectedFill() float64 {
	total := 0.0
	for _, l := range s.Legs {
		total += float64(l.Ratio * s.Quantity)
	}
	return total
}

// Validate enforces the structural invariants: at least one leg, every leg
// on the same underlying code, ratios ≥ 1.
func (s *Strategy) Validate() error {
	if len(s.Legs) == 0 {
		return fmt.Errorf("strategy %s has no legs", s.Code)
	}
	for _, l := range s.Legs {
		if l.Option.ID.Underlying.Code != s.Code {
			return fmt.Errorf("leg %s does not match underlying %s", l.ID(), s.Code)
		}
		if l.Ratio < 1 {
			return fmt.Errorf("leg %s has ratio %d", l.ID(), l.Ratio)
		}
	}
	return nil
}
