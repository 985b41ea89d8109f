package strategy

import (
	"context"
	"time"

	"github.com/quantgale/premia/store"
	"github.com/quantgale/premia/types"
)

// Env is the slice of the engine an algorithm may touch: read the store,
// pull a chain, submit a strategy. Algorithms run on the engine loop, one
// at a time, so no extra synchronization is needed here.
type Env struct {
	Store *store.Store

	// Chain discovers the option chain for a watch-list code. A zero
	// expiration means any expiration inside the configured DTE window.
	Chain func(ctx context.Context, code string, expiration time.Time) (map[string]types.Option, error)

	// Submit sizes, risk-checks, persists and places a new strategy.
	Submit func(ctx context.Context, s *types.Strategy) error

	// Expirations is the configured expiration allow-list, possibly empty.
	Expirations []time.Time

	Now func() time.Time
}

// Algorithm is one trading policy run every engine iteration. Run returns
// an error to report a failed pass; the engine logs it and carries on with
// the next algorithm.
type Algorithm interface {
	Name() string
	Run(ctx context.Context, env *Env) error
}
