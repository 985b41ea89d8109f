package broker

import (
	"context"
	"time"

	"github.com/quantgale/premia/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// BROKER PORT - Capability set the engine consumes
// ═══════════════════════════════════════════════════════════════════════════════
//
// The engine never touches a wire protocol. Everything it needs from a
// broker is this interface; the websocket gateway in this package is one
// implementation, test fakes are another.
//
// ═══════════════════════════════════════════════════════════════════════════════

// Port is the broker capability set.
type Port interface {
	Connect(ctx context.Context) error
	Disconnect() error

	// Sleep yields to the broker's I/O between batched requests.
	Sleep(d time.Duration)

	// AccountValues returns the current account snapshot.
	AccountValues(ctx context.Context) (types.Account, error)

	// Positions returns broker positions keyed by Position.Key().
	Positions(ctx context.Context) (map[string]types.Position, error)

	// QualifyAssets resolves watch-list definitions to contract handles.
	// Resolution must be 1-to-1; anything else is an AmbiguousAssetError.
	QualifyAssets(ctx context.Context, defs []types.AssetDef) (map[string]types.ContractID, error)

	// QualifyOption re-resolves one option contract (leg recovery after a
	// restart).
	QualifyOption(ctx context.Context, id types.OptionID) (types.ContractID, error)

	// SnapshotQuotes fetches current quotes for qualified contracts.
	SnapshotQuotes(ctx context.Context, contracts []types.ContractID) (map[types.ContractID]types.Current, error)

	// PriceHistory and IVHistory fetch daily bars for the given depth.
	PriceHistory(ctx context.Context, contract types.ContractID, years int) (*types.History, error)
	IVHistory(ctx context.Context, contract types.ContractID, years int) (*types.History, error)

	// OptionChain discovers the chain around the underlying price for one
	// expiration, filtered to strikes within ±widthPct percent. Keys are
	// Option.ChainKey().
	OptionChain(ctx context.Context, underlying types.AssetID, underlyingPrice float64,
		expiration time.Time, widthPct float64) (map[string]types.Option, error)

	// OptionQuotes refreshes quotes for known option contracts.
	OptionQuotes(ctx context.Context, ids []types.OptionID) ([]types.Option, error)

	// PlaceStrategy submits the bracketed order group: the parent entry
	// order plus take-profit and stop-loss children, activated atomically
	// by the broker. Parent-then-children ordering is preserved to the
	// wire.
	PlaceStrategy(ctx context.Context, s *types.Strategy, parent, takeProfit, stopLoss types.Order) error

	// Events delivers pushed order-status and account updates. The engine
	// drains this channel at the top of each loop iteration.
	Events() <-chan Event
}

// EventKind discriminates pushed broker events.
type EventKind int

const (
	EventTrade EventKind = iota
	EventAccount
	EventPosition
)

// Event is one pushed broker update.
type Event struct {
	Kind     EventKind
	Trade    types.TradeUpdate
	Account  types.AccountItem
	Position types.Position
}
