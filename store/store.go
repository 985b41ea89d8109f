package store

import (
	"math"
	"sort"
	"sync"

	"github.com/quantgale/premia/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// DATA STORE - In-memory engine state
// ═══════════════════════════════════════════════════════════════════════════════
//
// One writer (the engine loop) mutates the store; read accessors are safe
// for concurrent use and return copies or snapshots, never interior
// pointers into mutable maps.
//
// ═══════════════════════════════════════════════════════════════════════════════

// Store holds the engine's working state: watch-list assets, the account
// snapshot and the live strategies.
type Store struct {
	mu         sync.RWMutex
	assets     map[string]*types.Asset
	account    types.Account
	strategies map[string]*types.Strategy
}

// New creates an empty store.
func New() *Store {
	return &Store{
		assets:     make(map[string]*types.Asset),
		strategies: make(map[string]*types.Strategy),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Assets
// ─────────────────────────────────────────────────────────────────────────────

// PutAsset registers or replaces a watch-list asset.
func (s *Store) PutAsset(a *types.Asset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[a.ID.Code] = a
}

// Asset returns the asset for a code, or nil.
func (s *Store) Asset(code string) *types.Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.assets[code]
}

// Assets returns all assets ordered by code.
func (s *Store) Assets() []*types.Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.Asset, 0, len(s.assets))
	for _, a := range s.assets {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Code < out[j].ID.Code })
	return out
}

// Codes returns the watch-list codes ordered alphabetically.
func (s *Store) Codes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.assets))
	for code := range s.assets {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Account
// ─────────────────────────────────────────────────────────────────────────────

// SetAccount replaces the account snapshot.
func (s *Store) SetAccount(a types.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = a
}

// ApplyAccountItem folds one pushed account update into the snapshot.
func (s *Store) ApplyAccountItem(item types.AccountItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account.Apply(item)
}

// Account returns a copy of the account snapshot.
func (s *Store) Account() types.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account
}

// ─────────────────────────────────────────────────────────────────────────────
// Strategies
// ─────────────────────────────────────────────────────────────────────────────

// PutStrategy registers or replaces a strategy by its id.
func (s *Store) PutStrategy(st *types.Strategy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strategies[st.ID()] = st
}

// RemoveStrategy drops a strategy from the working set.
func (s *Store) RemoveStrategy(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.strategies, id)
}

// Strategy returns the strategy for an id, or nil.
func (s *Store) Strategy(id string) *types.Strategy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.strategies[id]
}

// Strategies returns all live strategies ordered by id.
func (s *Store) Strategies() []*types.Strategy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.Strategy, 0, len(s.strategies))
	for _, st := range s.strategies {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// OpenStrategies returns the strategies the broker has confirmed filled and
// that are not yet closed.
func (s *Store) OpenStrategies() []*types.Strategy {
	var out []*types.Strategy
	for _, st := range s.Strategies() {
		if st.Opened != nil && st.Closed == nil {
			out = append(out, st)
		}
	}
	return out
}

// HasStrategyFor reports whether any live strategy trades the given code.
func (s *Store) HasStrategyFor(code string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.strategies {
		if st.Code == code {
			return true
		}
	}
	return false
}

// ─────────────────────────────────────────────────────────────────────────────
// Portfolio views
// ─────────────────────────────────────────────────────────────────────────────

// BetaWeightedDelta aggregates the open strategies' deltas in
// benchmark-share units: each leg contributes
// (underlying price / benchmark price) × beta × delta × ownership ×
// ratio × quantity × multiplier. NaN when the benchmark has no usable
// price; assets without computed measures contribute nothing.
func (s *Store) BetaWeightedDelta(benchmark string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bench := s.assets[benchmark]
	if bench == nil {
		return math.NaN()
	}
	benchPrice := bench.Current.MarketPrice()
	if math.IsNaN(benchPrice) || benchPrice == 0 {
		return math.NaN()
	}

	total := 0.0
	for _, st := range s.strategies {
		if st.Opened == nil || st.Closed != nil {
			continue
		}
		asset := s.assets[st.Code]
		if asset == nil || asset.Measures == nil || math.IsNaN(asset.Measures.Beta) {
			continue
		}
		price := asset.Current.MarketPrice()
		if math.IsNaN(price) {
			continue
		}
		for _, leg := range st.Legs {
			d := leg.Option.Greeks.Delta
			if math.IsNaN(d) {
				continue
			}
			total += price / benchPrice * asset.Measures.Beta * d * leg.Ownership.Sign() *
				float64(leg.Ratio*st.Quantity*st.Multiplier)
		}
	}
	return total
}
