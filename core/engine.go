package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quantgale/premia/broker"
	"github.com/quantgale/premia/execution"
	"github.com/quantgale/premia/internal/config"
	"github.com/quantgale/premia/repo"
	"github.com/quantgale/premia/store"
	"github.com/quantgale/premia/strategy"
	"github.com/quantgale/premia/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// ENGINE - Central orchestrator
// ═══════════════════════════════════════════════════════════════════════════════
//
// Flow per iteration:
//   drain broker events → refresh quotes → reconcile → recompute → algorithms → sleep
//
// Scheduling is single-threaded cooperative: the loop is the only writer of
// engine state. The broker adapter pushes events into a queue; the drain at
// the top of each iteration is the only place they are applied.
//
// ═══════════════════════════════════════════════════════════════════════════════

// State is the engine lifecycle state.
type State int32

const (
	Stopped State = iota
	Starting
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Starting:
		return "Starting"
	case Running:
		return "Running"
	case Stopping:
		return "Stopping"
	}
	return "Stopped"
}

// Clock is the engine's time source. Tests substitute one to freeze Now
// and to step the loop's sleep.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Engine owns the trading loop.
type Engine struct {
	cfg   *config.Config
	port  broker.Port
	store *store.Store
	repo  *repo.Repo
	coord *execution.Coordinator

	algorithms []strategy.Algorithm

	state    atomic.Int32
	stopCh   chan struct{}
	stopOnce sync.Once

	clock Clock
}

// Option tweaks engine construction.
type Option func(*Engine)

// WithClock replaces the engine's time source.
func WithClock(clock Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// NewEngine wires the loop. Algorithms run every iteration in the order
// given here.
func NewEngine(cfg *config.Config, port broker.Port, st *store.Store, r *repo.Repo,
	coord *execution.Coordinator, algorithms []strategy.Algorithm, opts ...Option) *Engine {
	e := &Engine{
		cfg:        cfg,
		port:       port,
		store:      st,
		repo:       r,
		coord:      coord,
		algorithms: algorithms,
		stopCh:     make(chan struct{}),
		clock:      systemClock{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the current lifecycle state.
func (e *Engine) State() State { return State(e.state.Load()) }

func (e *Engine) setState(s State) { e.state.Store(int32(s)) }

// Stop asks the loop to finish its current iteration and exit. A no-op
// unless the engine is starting or running.
func (e *Engine) Stop() {
	for {
		s := e.State()
		if s != Starting && s != Running {
			return
		}
		if e.state.CompareAndSwap(int32(s), int32(Stopping)) {
			e.stopOnce.Do(func() { close(e.stopCh) })
			return
		}
	}
}

// Run performs the start sequence and then blocks in the loop until Stop is
// called, the context ends, or the broker connection is lost.
func (e *Engine) Run(ctx context.Context) error {
	if !e.state.CompareAndSwap(int32(Stopped), int32(Starting)) {
		return errors.New("engine is not stopped")
	}

	if err := e.startSequence(ctx); err != nil {
		e.setState(Stopped)
		e.port.Disconnect()
		return err
	}
	if !e.state.CompareAndSwap(int32(Starting), int32(Running)) {
		// Stop arrived during the start sequence.
		err := e.port.Disconnect()
		e.setState(Stopped)
		return err
	}
	log.Info().Msg("⚡ Engine running")

	for e.State() == Running {
		if err := e.runOnce(ctx); err != nil {
			if errors.Is(err, broker.ErrConnectionLost) || ctx.Err() != nil {
				log.Error().Err(err).Msg("❌ Fatal loop error, stopping")
				e.Stop()
				break
			}
			// Transient: the next iteration is the retry.
			log.Warn().Err(err).Msg("⚠️ Loop iteration failed")
		}
		select {
		case <-e.stopCh:
		case <-ctx.Done():
			e.Stop()
		case <-e.clock.After(e.cfg.SleepLoop):
		}
	}

	err := e.port.Disconnect()
	e.setState(Stopped)
	log.Info().Msg("Engine stopped")
	return err
}

// startSequence brings the engine from cold to a fully primed store. Each
// step fails fast; a failed start leaves nothing half-connected.
func (e *Engine) startSequence(ctx context.Context) error {
	log.Info().Int("watch_list", len(e.cfg.WatchList)).Msg("🚀 Engine starting")

	// 1. Persisted strategies into the store.
	strategies, err := e.repo.AllItems()
	if err != nil {
		return err
	}
	for _, s := range strategies {
		e.store.PutStrategy(s)
	}
	log.Info().Int("strategies", len(strategies)).Msg("Strategies loaded")

	// 2. Broker connection; give the initial account push a moment.
	if err := e.port.Connect(ctx); err != nil {
		return err
	}
	e.port.Sleep(time.Second)

	// 3. Account snapshot.
	account, err := e.port.AccountValues(ctx)
	if err != nil {
		return err
	}
	e.store.SetAccount(account)

	// 4. Watch-list qualification. Ambiguity is a config error and fatal.
	contracts, err := e.port.QualifyAssets(ctx, e.cfg.WatchList)
	if err != nil {
		return err
	}
	for _, def := range e.cfg.WatchList {
		e.store.PutAsset(&types.Asset{ID: types.AssetID{
			Code:     def.Code,
			Type:     def.Type,
			Currency: e.cfg.Currency,
			Contract: contracts[def.Code],
		}})
	}

	// 5. First full data refresh.
	if err := e.refreshQuotes(ctx); err != nil {
		return err
	}
	if err := e.refreshHistories(ctx); err != nil {
		return err
	}

	// 6. First analytics pass.
	e.recompute()

	// 7. Leg contracts can be stale after a restart.
	e.requalifyLegs(ctx)

	// 8. Line the books up with the broker before trading.
	if err := e.reconcile(ctx); err != nil {
		return err
	}
	return nil
}

// runOnce is one loop iteration.
func (e *Engine) runOnce(ctx context.Context) error {
	e.drainEvents()

	if err := e.refreshQuotes(ctx); err != nil {
		return err
	}
	if err := e.refreshHistories(ctx); err != nil {
		return err
	}
	if err := e.refreshLegs(ctx); err != nil {
		return err
	}
	if err := e.reconcile(ctx); err != nil {
		return err
	}
	e.recompute()
	e.runAlgorithms(ctx)
	return nil
}

// drainEvents applies every queued broker push. Runs on the loop, so the
// store sees a consistent ordering.
func (e *Engine) drainEvents() {
	for {
		select {
		case ev := <-e.port.Events():
			switch ev.Kind {
			case broker.EventTrade:
				e.coord.HandleTrade(e.store, ev.Trade)
			case broker.EventAccount:
				e.store.ApplyAccountItem(ev.Account)
			case broker.EventPosition:
				// Positions are re-pulled wholesale during reconciliation;
				// the push is informational.
				log.Debug().Str("position", ev.Position.Key()).
					Float64("quantity", ev.Position.Quantity).
					Msg("Position update")
			}
		default:
			return
		}
	}
}

// runAlgorithms invokes each algorithm in registration order. A failing
// algorithm never takes the loop down, and never blocks the ones after it.
func (e *Engine) runAlgorithms(ctx context.Context) {
	env := &strategy.Env{
		Store:       e.store,
		Chain:       e.chain,
		Submit:      e.NewStrategy,
		Expirations: e.cfg.Expirations,
		Now:         e.clock.Now,
	}
	for _, algo := range e.algorithms {
		if err := e.runAlgorithm(ctx, algo, env); err != nil {
			log.Error().Err(err).Str("algorithm", algo.Name()).
				Msg("❌ Algorithm failed")
		}
	}
}

func (e *Engine) runAlgorithm(ctx context.Context, algo strategy.Algorithm, env *strategy.Env) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Join(err, &panicError{algo.Name(), r})
		}
	}()
	return algo.Run(ctx, env)
}

type panicError struct {
	name  string
	value any
}

func (p *panicError) Error() string {
	return "algorithm " + p.name + " panicked"
}

// chain discovers the option chain for one watch-list code, centered on its
// current market price.
func (e *Engine) chain(ctx context.Context, code string, expiration time.Time) (map[string]types.Option, error) {
	asset := e.store.Asset(code)
	if asset == nil {
		return nil, errors.New("unknown watch-list code " + code)
	}
	return e.port.OptionChain(ctx, asset.ID, asset.MarketPrice(), expiration, e.cfg.PriceBandWidth)
}

// ─────────────────────────────────────────────────────────────────────────────
// Public API
// ─────────────────────────────────────────────────────────────────────────────

// NewStrategy sizes, risk-checks, persists and places a strategy.
func (e *Engine) NewStrategy(ctx context.Context, s *types.Strategy) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return e.coord.Submit(ctx, e.store, s)
}

// Assets returns the watch-list assets.
func (e *Engine) Assets() []*types.Asset { return e.store.Assets() }

// Account returns the latest account snapshot.
func (e *Engine) Account() types.Account { return e.store.Account() }

// Strategies returns the live strategies.
func (e *Engine) Strategies() []*types.Strategy { return e.store.Strategies() }

// BetaWeightedDelta is the open portfolio's delta in benchmark-share
// units, weighted by each underlying's beta to the benchmark.
func (e *Engine) BetaWeightedDelta() float64 {
	return e.store.BetaWeightedDelta(e.cfg.MarketBenchmark)
}
