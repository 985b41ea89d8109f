package risk

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/quantgale/premia/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// RISK LIMITS - Per-trade risk budget
// ═══════════════════════════════════════════════════════════════════════════════
//
// Two caps, the tighter one wins:
//   - a fraction of net liquidation per trade
//   - whatever cash remains above the preserved-cash floor
//
// A candidate trade either fits the budget at its proposed quantity or is
// rejected. Quantities are never scaled down to fit.
//
// ═══════════════════════════════════════════════════════════════════════════════

// Limits computes per-trade risk budgets from the account snapshot.
type Limits struct {
	preservedCashFactor decimal.Decimal
	maximumRiskFactor   decimal.Decimal
}

// NewLimits creates the limit calculator.
func NewLimits(preservedCashFactor, maximumRiskFactor decimal.Decimal) *Limits {
	return &Limits{
		preservedCashFactor: preservedCashFactor,
		maximumRiskFactor:   maximumRiskFactor,
	}
}

// MaxRiskPerTrade is the budget one new trade may put at risk:
// min(net_liquidation × maximum_risk_factor,
//
//	cash − net_liquidation × preserved_cash_factor).
//
// The result can be negative when cash is below the preserved floor; no
// trade fits then.
func (l *Limits) MaxRiskPerTrade(account types.Account) decimal.Decimal {
	byFactor := account.NetLiquidation.Mul(l.maximumRiskFactor)
	byCash := account.Cash.Sub(account.NetLiquidation.Mul(l.preservedCashFactor))
	if byCash.LessThan(byFactor) {
		return byCash
	}
	return byFactor
}

// Check accepts or rejects a candidate trade. maxLoss is the per-unit worst
// case in account currency, already including the contract multiplier.
func (l *Limits) Check(account types.Account, strategyID string, maxLoss float64, quantity int) error {
	if math.IsNaN(maxLoss) || maxLoss <= 0 {
		return fmt.Errorf("strategy %s has undefined max loss", strategyID)
	}
	budget := l.MaxRiskPerTrade(account)
	exposure := decimal.NewFromFloat(maxLoss).Mul(decimal.NewFromInt(int64(quantity)))
	if exposure.GreaterThan(budget) {
		log.Warn().
			Str("strategy", strategyID).
			Str("exposure", exposure.StringFixed(2)).
			Str("budget", budget.StringFixed(2)).
			Msg("⚠️ Trade rejected by risk budget")
		return fmt.Errorf("strategy %s risks %s against budget %s",
			strategyID, exposure.StringFixed(2), budget.StringFixed(2))
	}
	return nil
}
