package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/quantgale/premia/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// WEBSOCKET GATEWAY - Port implementation over a JSON message protocol
// ═══════════════════════════════════════════════════════════════════════════════
//
// One websocket to the broker gateway. Requests carry correlation ids and
// wait for the matching response; order-status and account pushes arrive
// as events and are queued for the engine to drain in-loop.
//
// The gateway enforces the broker's 50-requests-per-second ceiling: chain
// qualification and ticker snapshots run in chunks of ≤50 with cooperative
// pauses between chunks.
//
// ═══════════════════════════════════════════════════════════════════════════════

const (
	requestBatchSize = 50
	qualifyPause     = 2 * time.Second
	tickerPause      = 1 * time.Second
	writeTimeout     = 10 * time.Second
)

// GatewayConfig holds gateway settings.
type GatewayConfig struct {
	URL      string
	Currency string
	DTEMin   int
	DTEMax   int
}

// Gateway is the websocket Port implementation.
type Gateway struct {
	mu   sync.Mutex
	cfg  GatewayConfig
	xlat *Translator

	conn      *websocket.Conn
	connected bool
	nextID    int64
	pending   map[int64]chan gatewayResponse
	events    chan Event
	done      chan struct{}
}

type gatewayRequest struct {
	ID     int64           `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type gatewayResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

type gatewayPush struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// NewGateway creates a gateway for the given endpoint.
func NewGateway(cfg GatewayConfig) *Gateway {
	return &Gateway{
		cfg:     cfg,
		xlat:    NewTranslator(cfg.Currency),
		pending: make(map[int64]chan gatewayResponse),
		events:  make(chan Event, 1024),
	}
}

// Translator exposes the gateway's translation tables.
func (g *Gateway) Translator() *Translator { return g.xlat }

// Connect dials the gateway and starts the read loop.
func (g *Gateway) Connect(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.connected {
		return nil
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, g.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", g.cfg.URL, err)
	}
	g.conn = conn
	g.connected = true
	g.done = make(chan struct{})

	go g.readLoop()

	log.Info().Str("url", g.cfg.URL).Msg("📡 Broker gateway connected")
	return nil
}

// Disconnect closes the connection and fails all pending requests.
func (g *Gateway) Disconnect() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.connected {
		return nil
	}
	g.connected = false
	close(g.done)
	err := g.conn.Close()

	for id, ch := range g.pending {
		close(ch)
		delete(g.pending, id)
	}

	log.Info().Msg("Broker gateway disconnected")
	return err
}

// Sleep yields between batched requests.
func (g *Gateway) Sleep(d time.Duration) { time.Sleep(d) }

// Events returns the pushed-event stream.
func (g *Gateway) Events() <-chan Event { return g.events }

// readLoop consumes frames, routing responses to their waiters and pushes
// to the event queue.
func (g *Gateway) readLoop() {
	for {
		_, raw, err := g.conn.ReadMessage()
		if err != nil {
			select {
			case <-g.done:
			default:
				log.Error().Err(err).Msg("❌ Gateway read failed")
				g.mu.Lock()
				g.connected = false
				for id, ch := range g.pending {
					close(ch)
					delete(g.pending, id)
				}
				g.mu.Unlock()
			}
			return
		}

		var resp gatewayResponse
		if err := json.Unmarshal(raw, &resp); err == nil && resp.ID != 0 {
			g.mu.Lock()
			ch, ok := g.pending[resp.ID]
			delete(g.pending, resp.ID)
			g.mu.Unlock()
			if ok {
				ch <- resp
				close(ch)
			}
			continue
		}

		var push gatewayPush
		if err := json.Unmarshal(raw, &push); err == nil && push.Event != "" {
			g.dispatch(push)
		}
	}
}

func (g *Gateway) dispatch(push gatewayPush) {
	switch push.Event {
	case "orderStatus":
		var w wireOrderStatus
		if json.Unmarshal(push.Data, &w) != nil {
			return
		}
		if tu, ok := g.xlat.TradeUpdate(w); ok {
			g.emit(Event{Kind: EventTrade, Trade: tu})
		}
	case "accountValue":
		var w wireAccountValue
		if json.Unmarshal(push.Data, &w) != nil {
			return
		}
		if item, ok := g.xlat.AccountValue(w); ok {
			g.emit(Event{Kind: EventAccount, Account: item})
		}
	case "position":
		var w wirePosition
		if json.Unmarshal(push.Data, &w) != nil {
			return
		}
		if p, ok := g.xlat.Position(w); ok {
			g.emit(Event{Kind: EventPosition, Position: p})
		}
	}
}

func (g *Gateway) emit(ev Event) {
	select {
	case g.events <- ev:
	default:
		log.Warn().Msg("⚠️ Event queue full, dropping broker event")
	}
}

// call performs one request/response round trip.
func (g *Gateway) call(ctx context.Context, method string, params any, result any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}

	g.mu.Lock()
	if !g.connected {
		g.mu.Unlock()
		return ErrConnectionLost
	}
	g.nextID++
	id := g.nextID
	ch := make(chan gatewayResponse, 1)
	g.pending[id] = ch

	g.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err = g.conn.WriteJSON(gatewayRequest{ID: id, Method: method, Params: raw})
	g.mu.Unlock()
	if err != nil {
		return ErrConnectionLost
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case resp, ok := <-ch:
		if !ok {
			return ErrConnectionLost
		}
		if resp.Error != "" {
			return &TransientError{Op: method, Err: fmt.Errorf("%s", resp.Error)}
		}
		if result != nil {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return &TransientError{Op: method, Err: err}
			}
		}
		return nil
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Port implementation
// ─────────────────────────────────────────────────────────────────────────────

// AccountValues pulls the full account snapshot.
func (g *Gateway) AccountValues(ctx context.Context) (types.Account, error) {
	var values []wireAccountValue
	if err := g.call(ctx, "accountValues", nil, &values); err != nil {
		return types.Account{}, err
	}
	var account types.Account
	for _, w := range values {
		if item, ok := g.xlat.AccountValue(w); ok {
			account.Apply(item)
		}
	}
	return account, nil
}

// Positions pulls broker positions keyed by contract identity.
func (g *Gateway) Positions(ctx context.Context) (map[string]types.Position, error) {
	var wires []wirePosition
	if err := g.call(ctx, "positions", nil, &wires); err != nil {
		return nil, err
	}
	positions := make(map[string]types.Position, len(wires))
	for _, w := range wires {
		if p, ok := g.xlat.Position(w); ok {
			positions[p.Key()] = p
		}
	}
	return positions, nil
}

type wireContractReq struct {
	Symbol     string  `json:"symbol"`
	SecType    string  `json:"sec_type"`
	Expiration string  `json:"expiration,omitempty"`
	Strike     float64 `json:"strike,omitempty"`
	Right      string  `json:"right,omitempty"`
	Exchange   string  `json:"exchange"`
	Currency   string  `json:"currency"`
}

type wireContract struct {
	ConID      int64   `json:"con_id"`
	Symbol     string  `json:"symbol"`
	SecType    string  `json:"sec_type"`
	Expiration string  `json:"expiration"`
	Strike     float64 `json:"strike"`
	Right      string  `json:"right"`
	Multiplier int     `json:"multiplier"`
}

// QualifyAssets resolves each watch-list entry to exactly one contract.
func (g *Gateway) QualifyAssets(ctx context.Context, defs []types.AssetDef) (map[string]types.ContractID, error) {
	reqs := make([]wireContractReq, len(defs))
	for i, def := range defs {
		exchange := def.Exchange
		if exchange == "" {
			exchange = "SMART"
		}
		reqs[i] = wireContractReq{
			Symbol:   def.Code,
			SecType:  g.xlat.WireSecType(def.Type),
			Exchange: exchange,
			Currency: g.cfg.Currency,
		}
	}

	var matches [][]wireContract
	if err := g.call(ctx, "qualifyContracts", reqs, &matches); err != nil {
		return nil, err
	}
	if len(matches) != len(defs) {
		return nil, &TransientError{Op: "qualifyContracts",
			Err: fmt.Errorf("got %d results for %d requests", len(matches), len(defs))}
	}

	out := make(map[string]types.ContractID, len(defs))
	for i, m := range matches {
		if len(m) != 1 {
			return nil, &AmbiguousAssetError{Code: defs[i].Code, Matches: len(m)}
		}
		out[defs[i].Code] = types.ContractID(m[0].ConID)
	}
	return out, nil
}

// QualifyOption re-resolves a single option contract.
func (g *Gateway) QualifyOption(ctx context.Context, id types.OptionID) (types.ContractID, error) {
	req := []wireContractReq{{
		Symbol:     id.Underlying.Code,
		SecType:    "OPT",
		Expiration: id.Expiration.Format(wireDateLayout),
		Strike:     id.Strike,
		Right:      string(id.Right),
		Exchange:   "SMART",
		Currency:   g.cfg.Currency,
	}}
	var matches [][]wireContract
	if err := g.call(ctx, "qualifyContracts", req, &matches); err != nil {
		return 0, err
	}
	if len(matches) != 1 || len(matches[0]) != 1 {
		return 0, &StaleContractError{LegID: fmt.Sprintf("%s %.1f %s", id.Underlying.Code, id.Strike, id.Right)}
	}
	return types.ContractID(matches[0][0].ConID), nil
}

// SnapshotQuotes fetches current quotes in batches of ≤50 contracts.
func (g *Gateway) SnapshotQuotes(ctx context.Context, contracts []types.ContractID) (map[types.ContractID]types.Current, error) {
	out := make(map[types.ContractID]types.Current, len(contracts))
	for i := 0; i < len(contracts); i += requestBatchSize {
		end := i + requestBatchSize
		if end > len(contracts) {
			end = len(contracts)
		}
		var ticks []wireTick
		if err := g.call(ctx, "snapshotQuotes", contracts[i:end], &ticks); err != nil {
			return nil, err
		}
		for _, w := range ticks {
			out[types.ContractID(w.ConID)] = g.xlat.Tick(w)
		}
		if end < len(contracts) {
			g.Sleep(tickerPause)
		}
	}
	return out, nil
}

type wireHistoryReq struct {
	ConID types.ContractID `json:"con_id"`
	Days  int              `json:"days"`
	What  string           `json:"what"`
}

// PriceHistory fetches daily trade bars.
func (g *Gateway) PriceHistory(ctx context.Context, contract types.ContractID, years int) (*types.History, error) {
	return g.history(ctx, contract, years, "TRADES")
}

// IVHistory fetches daily implied-volatility bars.
func (g *Gateway) IVHistory(ctx context.Context, contract types.ContractID, years int) (*types.History, error) {
	return g.history(ctx, contract, years, "OPTION_IMPLIED_VOLATILITY")
}

func (g *Gateway) history(ctx context.Context, contract types.ContractID, years int, what string) (*types.History, error) {
	var bars []wireBar
	req := wireHistoryReq{ConID: contract, Days: years * types.TradingDaysPerYear, What: what}
	if err := g.call(ctx, "history", req, &bars); err != nil {
		return nil, err
	}
	return g.xlat.Bars(bars, time.Now()), nil
}

type wireChainParams struct {
	Expirations []string  `json:"expirations"`
	Strikes     []float64 `json:"strikes"`
}

// OptionChain discovers the chain for one expiration around the underlying
// price. Strikes outside ±widthPct percent, expirations outside the DTE
// window and rights other than put/call are filtered out before any
// contract is qualified.
func (g *Gateway) OptionChain(ctx context.Context, underlying types.AssetID, underlyingPrice float64,
	expiration time.Time, widthPct float64) (map[string]types.Option, error) {

	var params wireChainParams
	req := struct {
		ConID  types.ContractID `json:"con_id"`
		Symbol string           `json:"symbol"`
	}{underlying.Contract, underlying.Code}
	if err := g.call(ctx, "chainParams", req, &params); err != nil {
		return nil, err
	}

	today := time.Now()
	expirations := make([]string, 0, 1)
	for _, s := range params.Expirations {
		exp, err := time.Parse(wireDateLayout, s)
		if err != nil {
			continue
		}
		dte := int(exp.Sub(today).Hours() / 24)
		if dte < g.cfg.DTEMin || dte > g.cfg.DTEMax {
			continue
		}
		if !expiration.IsZero() && !sameDate(exp, expiration) {
			continue
		}
		expirations = append(expirations, s)
	}

	minStrike := underlyingPrice * (100 - widthPct) / 100
	maxStrike := underlyingPrice * (100 + widthPct) / 100
	strikes := make([]float64, 0, len(params.Strikes))
	for _, s := range params.Strikes {
		if s > minStrike && s < maxStrike {
			strikes = append(strikes, s)
		}
	}

	reqs := make([]wireContractReq, 0, 2*len(expirations)*len(strikes))
	for _, right := range []string{"P", "C"} {
		for _, exp := range expirations {
			for _, strike := range strikes {
				reqs = append(reqs, wireContractReq{
					Symbol:     underlying.Code,
					SecType:    "OPT",
					Expiration: exp,
					Strike:     strike,
					Right:      right,
					Exchange:   "SMART",
					Currency:   g.cfg.Currency,
				})
			}
		}
	}

	qualified := make([]wireContract, 0, len(reqs))
	for i := 0; i < len(reqs); i += requestBatchSize {
		end := i + requestBatchSize
		if end > len(reqs) {
			end = len(reqs)
		}
		var matches [][]wireContract
		if err := g.call(ctx, "qualifyContracts", reqs[i:end], &matches); err != nil {
			return nil, err
		}
		for _, m := range matches {
			if len(m) == 1 {
				qualified = append(qualified, m[0])
			}
		}
		if end < len(reqs) {
			g.Sleep(qualifyPause)
		}
	}
	if skipped := len(reqs) - len(qualified); skipped > 0 {
		log.Debug().Str("code", underlying.Code).Int("unqualified", skipped).
			Msg("Chain contracts skipped")
	}

	chain := make(map[string]types.Option, len(qualified))
	var chainMu sync.Mutex
	for i := 0; i < len(qualified); i += requestBatchSize {
		end := i + requestBatchSize
		if end > len(qualified) {
			end = len(qualified)
		}

		eg, egCtx := errgroup.WithContext(ctx)
		for _, c := range qualified[i:end] {
			contract := c
			eg.Go(func() error {
				var ticks []wireOptionTick
				if err := g.call(egCtx, "optionQuotes", []int64{contract.ConID}, &ticks); err != nil {
					return err
				}
				chainMu.Lock()
				defer chainMu.Unlock()
				for _, w := range ticks {
					if opt, ok := g.xlat.OptionTick(w, underlying); ok {
						chain[opt.ChainKey()] = opt
					}
				}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
		if end < len(qualified) {
			g.Sleep(tickerPause)
		}
	}
	return chain, nil
}

// OptionQuotes refreshes quotes for already-qualified option contracts.
func (g *Gateway) OptionQuotes(ctx context.Context, ids []types.OptionID) ([]types.Option, error) {
	byContract := make(map[int64]types.OptionID, len(ids))
	conIDs := make([]int64, 0, len(ids))
	for _, id := range ids {
		byContract[int64(id.Contract)] = id
		conIDs = append(conIDs, int64(id.Contract))
	}

	var out []types.Option
	for i := 0; i < len(conIDs); i += requestBatchSize {
		end := i + requestBatchSize
		if end > len(conIDs) {
			end = len(conIDs)
		}
		var ticks []wireOptionTick
		if err := g.call(ctx, "optionQuotes", conIDs[i:end], &ticks); err != nil {
			return nil, err
		}
		for _, w := range ticks {
			id, ok := byContract[w.ConID]
			if !ok {
				continue
			}
			if opt, ok := g.xlat.OptionTick(w, id.Underlying); ok {
				out = append(out, opt)
			}
		}
		if end < len(conIDs) {
			g.Sleep(tickerPause)
		}
	}
	return out, nil
}

type wireOrder struct {
	Action     string  `json:"action"`
	Quantity   int     `json:"quantity"`
	OrderType  string  `json:"order_type"`
	LimitPrice float64 `json:"limit_price,omitempty"`
	StopPrice  float64 `json:"stop_price,omitempty"`
	OrderRef   string  `json:"order_ref"`
	ParentID   int64   `json:"parent_id,omitempty"`
	Transmit   bool    `json:"transmit"`
	Legs       []struct {
		ConID int64  `json:"con_id"`
		Ratio int    `json:"ratio"`
		Side  string `json:"side"`
	} `json:"legs"`
}

type wirePlaceResult struct {
	OrderID int64 `json:"order_id"`
}

// PlaceStrategy submits the bracketed group: parent first with
// transmit=false, then the take-profit child, then the stop-loss child with
// transmit=true so the broker activates the group atomically.
func (g *Gateway) PlaceStrategy(ctx context.Context, s *types.Strategy, parent, takeProfit, stopLoss types.Order) error {
	legs := make([]struct {
		ConID int64  `json:"con_id"`
		Ratio int    `json:"ratio"`
		Side  string `json:"side"`
	}, len(s.Legs))
	for i, l := range s.Legs {
		legs[i].ConID = int64(l.Option.ID.Contract)
		legs[i].Ratio = l.Ratio
		legs[i].Side = l.Ownership.String()
	}

	parentWire := g.wireOrder(parent, legs, 0, false)
	var parentResult wirePlaceResult
	if err := g.call(ctx, "placeOrder", parentWire, &parentResult); err != nil {
		return err
	}

	tpWire := g.wireOrder(takeProfit, legs, parentResult.OrderID, false)
	if err := g.call(ctx, "placeOrder", tpWire, nil); err != nil {
		return err
	}

	slWire := g.wireOrder(stopLoss, legs, parentResult.OrderID, true)
	if err := g.call(ctx, "placeOrder", slWire, nil); err != nil {
		return err
	}

	log.Info().
		Str("strategy", s.ID()).
		Int64("parent_id", parentResult.OrderID).
		Msg("📤 Bracket order group placed")
	return nil
}

func (g *Gateway) wireOrder(o types.Order, legs []struct {
	ConID int64  `json:"con_id"`
	Ratio int    `json:"ratio"`
	Side  string `json:"side"`
}, parentID int64, transmit bool) wireOrder {
	w := wireOrder{
		Action:    o.Ownership.String(),
		Quantity:  o.Quantity,
		OrderType: string(o.Type),
		OrderRef:  o.Reference,
		ParentID:  parentID,
		Transmit:  transmit,
		Legs:      legs,
	}
	if o.Type == types.Stop {
		w.StopPrice = o.Price
	} else {
		w.LimitPrice = o.Price
	}
	return w
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
