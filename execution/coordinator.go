package execution

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/quantgale/premia/broker"
	"github.com/quantgale/premia/repo"
	"github.com/quantgale/premia/risk"
	"github.com/quantgale/premia/storage"
	"github.com/quantgale/premia/store"
	"github.com/quantgale/premia/strategy"
	"github.com/quantgale/premia/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// ORDER COORDINATOR - From accepted candidate to bracketed broker orders
// ═══════════════════════════════════════════════════════════════════════════════
//
// Submit runs the full placement pipeline: fixed sizing, risk gate, bracket
// construction, persistence, then the broker call. Order placement is
// fire-and-forget; there are no retries. A strategy whose orders never
// fill simply stays in the created state until reconciliation or a human
// deals with it.
//
// HandleTrade folds broker order-status pushes back into strategy
// lifecycle transitions: parent filled opens the strategy, an exit child
// filled closes and retires it.
//
// ═══════════════════════════════════════════════════════════════════════════════

// Coordinator turns accepted strategies into bracketed order groups.
type Coordinator struct {
	port    broker.Port
	repo    *repo.Repo
	limits  *risk.Limits
	journal *storage.Journal
}

// NewCoordinator wires the placement pipeline.
func NewCoordinator(port broker.Port, r *repo.Repo, limits *risk.Limits,
	journal *storage.Journal) *Coordinator {
	return &Coordinator{port: port, repo: r, limits: limits, journal: journal}
}

// Submit sizes, gates, persists and places a new strategy.
func (c *Coordinator) Submit(ctx context.Context, st *store.Store, s *types.Strategy) error {
	// One unit per trade. The risk gate decides fit, it never resizes.
	s.Quantity = 1
	s.EntryPrice = s.ComputeEntryPrice()
	if math.IsNaN(s.EntryPrice) {
		return fmt.Errorf("strategy %s has no quotable entry price", s.ID())
	}

	m, err := strategy.Compute(s)
	if err != nil {
		return err
	}
	if err := c.limits.Check(st.Account(), s.ID(), m.MaxLoss, s.Quantity); err != nil {
		return err
	}

	parent, takeProfit, stopLoss := c.bracket(s, m)

	// Persist before placing: a crash between the two leaves a created
	// strategy on disk that reconciliation will line up with the broker.
	if err := c.repo.Save(s); err != nil {
		return err
	}
	st.PutStrategy(s)

	if err := c.port.PlaceStrategy(ctx, s, parent, takeProfit, stopLoss); err != nil {
		return err
	}
	c.journal.Record(s, types.RoleNewLeg, types.StatusAPIPending, parent.Price, 0, 0)

	log.Info().
		Str("strategy", s.ID()).
		Float64("entry", parent.Price).
		Float64("take_profit", takeProfit.Price).
		Float64("stop_loss", stopLoss.Price).
		Msg("📨 Strategy submitted")
	return nil
}

// bracket builds the order group: entry parent at the computed entry price
// with the strategy's own side, and two reversed exit children at the
// take-profit and stop-loss targets.
func (c *Coordinator) bracket(s *types.Strategy, m strategy.Metrics) (parent, takeProfit, stopLoss types.Order) {
	parent = types.Order{
		Role:      types.RoleNewLeg,
		Ownership: s.Ownership,
		Quantity:  s.Quantity,
		Price:     roundCents(m.Entry),
		Type:      types.Limit,
		Reference: BuildReference(s.ID(), "", types.RoleNewLeg),
		Status:    types.StatusAPIPending,
	}
	takeProfit = types.Order{
		Role:      types.RoleTakeProfit,
		Ownership: s.Ownership.Reverse(),
		Quantity:  s.Quantity,
		Price:     roundCents(m.ProfitTarget),
		Type:      types.Limit,
		Reference: BuildReference(s.ID(), "", types.RoleTakeProfit),
		Status:    types.StatusAPIPending,
	}
	stopLoss = types.Order{
		Role:      types.RoleStopLoss,
		Ownership: s.Ownership.Reverse(),
		Quantity:  s.Quantity,
		Price:     roundCents(m.StopTarget),
		Type:      types.Stop,
		Reference: BuildReference(s.ID(), "", types.RoleStopLoss),
		Status:    types.StatusAPIPending,
	}
	return parent, takeProfit, stopLoss
}

// HandleTrade logs and journals one broker order-status push. Lifecycle
// transitions (opened/closed) belong to position reconciliation, which
// compares actual broker positions; a fill report alone never mutates a
// strategy. No retries happen here either.
func (c *Coordinator) HandleTrade(st *store.Store, tu types.TradeUpdate) {
	sid, _, role, ok := ParseReference(tu.Reference)
	if !ok {
		log.Debug().Str("ref", tu.Reference).Msg("Ignoring foreign order reference")
		return
	}
	s := st.Strategy(sid)
	if s == nil {
		log.Debug().Str("strategy", sid).Msg("Order update for unknown strategy")
		return
	}

	if tu.Status == types.StatusFilled && tu.Remaining == 0 {
		c.journal.Record(s, role, tu.Status, 0, tu.AvgPrice, tu.Commission)
		log.Info().
			Str("strategy", sid).
			Str("role", string(role)).
			Float64("avg_price", tu.AvgPrice).
			Float64("commission", tu.Commission).
			Msg("✅ Order filled")
		return
	}

	log.Debug().
		Str("strategy", sid).
		Str("role", string(role)).
		Str("status", string(tu.Status)).
		Float64("remaining", tu.Remaining).
		Msg("Order status update")
}

func roundCents(p float64) float64 {
	return math.Round(p*100) / 100
}
