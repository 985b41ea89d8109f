package core

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/quantgale/premia/broker"
	"github.com/quantgale/premia/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// REFRESH - Quote and history updates
// ═══════════════════════════════════════════════════════════════════════════════

// refreshQuotes replaces every asset's Current snapshot. Whole-object
// replacement: a half-updated quote is never observable.
func (e *Engine) refreshQuotes(ctx context.Context) error {
	assets := e.store.Assets()
	contracts := make([]types.ContractID, len(assets))
	for i, a := range assets {
		contracts[i] = a.ID.Contract
	}

	quotes, err := e.port.SnapshotQuotes(ctx, contracts)
	if err != nil {
		return err
	}
	for _, a := range assets {
		if q, ok := quotes[a.ID.Contract]; ok {
			a.Current = q
		}
	}
	return nil
}

// refreshHistories re-pulls price and IV history for assets whose copy has
// gone stale. Fresh histories are left alone, which keeps steady-state
// iterations down to quote snapshots.
func (e *Engine) refreshHistories(ctx context.Context) error {
	now := e.clock.Now()
	for _, a := range e.store.Assets() {
		if a.PriceHistory.Stale(now) {
			h, err := e.port.PriceHistory(ctx, a.ID.Contract, e.cfg.HistoricalYears)
			if err != nil {
				return err
			}
			a.PriceHistory = h
		}
		if a.IVHistory.Stale(now) {
			h, err := e.port.IVHistory(ctx, a.ID.Contract, e.cfg.HistoricalYears)
			if err != nil {
				return err
			}
			a.IVHistory = h
		}
	}
	return nil
}

// refreshLegs re-quotes every live strategy's option legs.
func (e *Engine) refreshLegs(ctx context.Context) error {
	strategies := e.store.Strategies()
	var ids []types.OptionID
	for _, s := range strategies {
		for _, l := range s.Legs {
			ids = append(ids, l.Option.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	quotes, err := e.port.OptionQuotes(ctx, ids)
	if err != nil {
		return err
	}
	byContract := make(map[types.ContractID]types.Option, len(quotes))
	for _, o := range quotes {
		byContract[o.ID.Contract] = o
	}

	for _, s := range strategies {
		for i := range s.Legs {
			if o, ok := byContract[s.Legs[i].Option.ID.Contract]; ok {
				s.Legs[i].Option = o
			}
		}
	}
	return nil
}

// requalifyLegs re-resolves leg contracts after a restart. A leg that no
// longer qualifies marks its whole strategy skipped for this pass; the
// strategy itself stays on the books.
func (e *Engine) requalifyLegs(ctx context.Context) {
	for _, s := range e.store.Strategies() {
		changed := false
		stale := false
		for i := range s.Legs {
			cid, err := e.port.QualifyOption(ctx, s.Legs[i].Option.ID)
			if err != nil {
				var sc *broker.StaleContractError
				if errors.As(err, &sc) {
					log.Warn().Str("strategy", s.ID()).Str("leg", s.Legs[i].ID()).
						Msg("⚠️ Leg contract no longer qualifies")
					stale = true
					break
				}
				log.Warn().Err(err).Str("strategy", s.ID()).
					Msg("⚠️ Leg requalification failed")
				stale = true
				break
			}
			if cid != s.Legs[i].Option.ID.Contract {
				s.Legs[i].Option.ID.Contract = cid
				changed = true
			}
		}
		if stale {
			continue
		}
		if changed {
			if err := e.repo.Save(s); err == nil {
				e.store.PutStrategy(s)
			}
		}
	}
}
