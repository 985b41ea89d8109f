package core

import (
	"context"

	"github.com/rs/zerolog/log"
)

// ═══════════════════════════════════════════════════════════════════════════════
// RECONCILIATION - Strategy records vs broker positions
// ═══════════════════════════════════════════════════════════════════════════════
//
// The broker's position report is the ground truth for strategy lifecycle:
// a strategy opens when every leg is fully covered by matching positions,
// and closes when none of them are. Fill reports alone never drive these
// transitions.
//
// Positions are consumed from a working copy as legs claim them, so two
// strategies can never open against the same contracts.
//
// ═══════════════════════════════════════════════════════════════════════════════

// reconcile lines the strategy set up with the broker's positions.
func (e *Engine) reconcile(ctx context.Context) error {
	positions, err := e.port.Positions(ctx)
	if err != nil {
		return err
	}

	now := e.clock.Now()
	var toRemove []string

	for _, s := range e.store.Strategies() {
		filled := 0.0
		for _, leg := range s.Legs {
			key := leg.ContractKey()
			p, ok := positions[key]
			if !ok {
				log.Warn().Str("strategy", s.ID()).Str("leg", leg.ID()).
					Msg("⚠️ Leg has no position")
				continue
			}
			if p.Ownership != leg.Ownership {
				// Someone else's position on the same contract. Treat as absent.
				log.Warn().Str("strategy", s.ID()).Str("leg", leg.ID()).
					Str("position_side", p.Ownership.String()).
					Msg("⚠️ Position ownership mismatch")
				continue
			}

			need := float64(s.Quantity * leg.Ratio)
			if p.Quantity >= need {
				p.Quantity -= need
				filled += need
				if p.Quantity == 0 {
					delete(positions, key)
				} else {
					positions[key] = p
				}
			} else {
				filled += p.Quantity
				log.Warn().Str("strategy", s.ID()).Str("leg", leg.ID()).
					Float64("have", p.Quantity).Float64("need", need).
					Msg("⚠️ Insufficient positions")
			}
		}

		expected := s.ExpectedFill()
		if filled == expected && s.Opened == nil {
			s.Opened = &now
			s.Updated = now
			if err := e.repo.Save(s); err == nil {
				e.store.PutStrategy(s)
			}
			log.Info().Str("strategy", s.ID()).Msg("✅ Strategy opened")
		}
		if filled == 0 && s.Opened != nil && s.Closed == nil {
			s.Closed = &now
			s.Updated = now
			// Persist the final state, then retire the file. Repo failures
			// are logged inside; the in-memory model stays authoritative.
			e.repo.Save(s)
			e.repo.Delete(s.ID())
			toRemove = append(toRemove, s.ID())
			log.Info().Str("strategy", s.ID()).Msg("🏁 Strategy closed")
		}
	}

	for key, p := range positions {
		log.Warn().Str("position", key).Float64("quantity", p.Quantity).
			Msg("⚠️ Excess position not covered by any strategy")
	}
	for _, id := range toRemove {
		e.store.RemoveStrategy(id)
	}
	return nil
}
