package broker

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantgale/premia/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// TRANSLATOR - Wire objects ↔ engine entities
// ═══════════════════════════════════════════════════════════════════════════════
//
// Unknown tags, sides and statuses drop silently: the translator returns
// ok=false and the caller moves on. Lookups never panic and never raise.
//
// ═══════════════════════════════════════════════════════════════════════════════

const wireDateLayout = "20060102"

// Wire objects as the gateway serializes them.

type wireAccountValue struct {
	Account  string `json:"account"`
	Tag      string `json:"tag"`
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type wirePosition struct {
	Account    string  `json:"account"`
	ConID      int64   `json:"con_id"`
	Symbol     string  `json:"symbol"`
	SecType    string  `json:"sec_type"`
	Expiration string  `json:"expiration"`
	Strike     float64 `json:"strike"`
	Right      string  `json:"right"`
	Position   float64 `json:"position"`
	AvgCost    float64 `json:"avg_cost"`
}

type wireBar struct {
	Time    string  `json:"time"`
	Open    float64 `json:"open"`
	High    float64 `json:"high"`
	Low     float64 `json:"low"`
	Close   float64 `json:"close"`
	Average float64 `json:"average"`
	Volume  float64 `json:"volume"`
	Count   int     `json:"count"`
}

type wireTick struct {
	ConID    int64   `json:"con_id"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Bid      float64 `json:"bid"`
	BidSize  float64 `json:"bid_size"`
	Ask      float64 `json:"ask"`
	AskSize  float64 `json:"ask_size"`
	Last     float64 `json:"last"`
	LastSize float64 `json:"last_size"`
	Volume   float64 `json:"volume"`
	Time     int64   `json:"time"`
}

type wireOptionTick struct {
	wireTick
	Symbol      string  `json:"symbol"`
	Expiration  string  `json:"expiration"`
	Strike      float64 `json:"strike"`
	Right       string  `json:"right"`
	Multiplier  int     `json:"multiplier"`
	Delta       float64 `json:"delta"`
	Gamma       float64 `json:"gamma"`
	Theta       float64 `json:"theta"`
	Vega        float64 `json:"vega"`
	IV          float64 `json:"iv"`
	OptPrice    float64 `json:"opt_price"`
	UndPrice    float64 `json:"und_price"`
	PVDividend  float64 `json:"pv_dividend"`
}

type wireOrderStatus struct {
	OrderID    int64   `json:"order_id"`
	Status     string  `json:"status"`
	Remaining  float64 `json:"remaining"`
	AvgPrice   float64 `json:"avg_price"`
	Commission float64 `json:"commission"`
	OrderRef   string  `json:"order_ref"`
}

// Translator maps wire-level codes to the engine's enums and back.
type Translator struct {
	currency string

	secTypes map[string]types.AssetType
	rights   map[string]types.Right
	actions  map[string]types.Ownership
	statuses map[string]types.OrderStatus
	tags     map[string]types.AccountTag
}

// NewTranslator builds the fixed translation tables. Account money items
// are only accepted in the given currency.
func NewTranslator(currency string) *Translator {
	return &Translator{
		currency: currency,
		secTypes: map[string]types.AssetType{
			"STK":   types.AssetStock,
			"OPT":   types.AssetOption,
			"FUT":   types.AssetFuture,
			"CASH":  types.AssetForex,
			"IND":   types.AssetIndex,
			"CFD":   types.AssetCFD,
			"BOND":  types.AssetBond,
			"CMDTY": types.AssetCommodity,
			"FOP":   types.AssetFuturesOption,
			"FUND":  types.AssetMutualFund,
			"IOPT":  types.AssetWarrant,
		},
		rights: map[string]types.Right{
			"C": types.Call,
			"P": types.Put,
		},
		actions: map[string]types.Ownership{
			"BUY":  types.Buyer,
			"SELL": types.Seller,
		},
		statuses: map[string]types.OrderStatus{
			"ApiPending":    types.StatusAPIPending,
			"PendingSubmit": types.StatusPendingSubmit,
			"PendingCancel": types.StatusPendingCancel,
			"PreSubmitted":  types.StatusPreSubmitted,
			"Submitted":     types.StatusSubmitted,
			"ApiCancelled":  types.StatusAPICancelled,
			"Cancelled":     types.StatusCancelled,
			"Filled":        types.StatusFilled,
			"Inactive":      types.StatusInactive,
		},
		tags: map[string]types.AccountTag{
			"AccountCode":         types.TagID,
			"NetLiquidation":      types.TagNetLiquidation,
			"BuyingPower":         types.TagBuyingPower,
			"CashBalance":         types.TagCash,
			"AvailableFunds":      types.TagFunds,
			"DayTradesRemaining":  types.TagMaxDayTrades,
			"InitMarginReq":       types.TagInitialMargin,
			"MaintMarginReq":      types.TagMaintenanceMargin,
			"ExcessLiquidity":     types.TagExcessLiquidity,
			"Cushion":             types.TagCushion,
			"GrossPositionValue":  types.TagGrossPositionValue,
			"EquityWithLoanValue": types.TagEquityWithLoan,
			"SMA":                 types.TagSMA,
		},
	}
}

// SecType translates a wire security type.
func (t *Translator) SecType(wire string) (types.AssetType, bool) {
	at, ok := t.secTypes[wire]
	return at, ok
}

// WireSecType maps an engine asset type to the wire code. ETFs trade as
// stock contracts.
func (t *Translator) WireSecType(at types.AssetType) string {
	if at == types.AssetETF {
		return "STK"
	}
	return string(at)
}

// Right translates an option right code.
func (t *Translator) Right(wire string) (types.Right, bool) {
	r, ok := t.rights[wire]
	return r, ok
}

// Action translates BUY/SELL to ownership.
func (t *Translator) Action(wire string) (types.Ownership, bool) {
	o, ok := t.actions[wire]
	return o, ok
}

// OrderStatus translates a wire order status.
func (t *Translator) OrderStatus(wire string) (types.OrderStatus, bool) {
	s, ok := t.statuses[wire]
	return s, ok
}

// AccountValue translates one pushed account item. Unknown tags and
// foreign-currency values drop (ok=false). "BASE" is the broker's
// cross-currency aggregate and is never accepted for money values.
func (t *Translator) AccountValue(w wireAccountValue) (types.AccountItem, bool) {
	tag, ok := t.tags[w.Tag]
	if !ok {
		return types.AccountItem{}, false
	}

	item := types.AccountItem{Account: w.Account, Tag: tag}
	if money, err := decimal.NewFromString(w.Value); err == nil && w.Currency != "" {
		if w.Currency == "BASE" || w.Currency != t.currency {
			return types.AccountItem{}, false
		}
		item.Money = money
	} else if err == nil {
		// Unitless numeric (day trades, cushion).
		item.Money = money
	} else {
		item.Value = w.Value
	}
	return item, true
}

// Position translates a broker position report. Flat positions and unknown
// security types drop.
func (t *Translator) Position(w wirePosition) (types.Position, bool) {
	at, ok := t.secTypes[w.SecType]
	if !ok || w.Position == 0 {
		return types.Position{}, false
	}

	p := types.Position{
		Code:     w.Symbol,
		Type:     at,
		Quantity: w.Position,
		AvgCost:  w.AvgCost,
		Strike:   w.Strike,
	}
	if w.Position > 0 {
		p.Ownership = types.Buyer
	} else {
		p.Ownership = types.Seller
		p.Quantity = -w.Position
	}
	if w.Expiration != "" {
		exp, err := time.Parse(wireDateLayout, w.Expiration)
		if err != nil {
			return types.Position{}, false
		}
		p.Expiration = exp
	}
	if r, ok := t.rights[w.Right]; ok {
		p.Right = r
	}
	return p, true
}

// Bars translates a bar sequence into a History stamped now.
func (t *Translator) Bars(bars []wireBar, now time.Time) *types.History {
	h := &types.History{Created: now, Bars: make([]types.Bar, 0, len(bars))}
	for _, w := range bars {
		bt, err := time.Parse(wireDateLayout, w.Time)
		if err != nil {
			continue
		}
		h.Bars = append(h.Bars, types.Bar{
			Open:    w.Open,
			High:    w.High,
			Low:     w.Low,
			Close:   w.Close,
			Average: w.Average,
			Volume:  w.Volume,
			Count:   w.Count,
			Time:    bt,
		})
	}
	return h
}

// Tick translates a quote snapshot.
func (t *Translator) Tick(w wireTick) types.Current {
	return types.Current{
		High:     w.High,
		Low:      w.Low,
		Close:    w.Close,
		Bid:      w.Bid,
		BidSize:  w.BidSize,
		Ask:      w.Ask,
		AskSize:  w.AskSize,
		Last:     w.Last,
		LastSize: w.LastSize,
		Volume:   w.Volume,
		Time:     time.Unix(w.Time, 0).UTC(),
	}
}

// OptionTick translates an option quote with its model greeks.
func (t *Translator) OptionTick(w wireOptionTick, underlying types.AssetID) (types.Option, bool) {
	right, ok := t.rights[w.Right]
	if !ok {
		return types.Option{}, false
	}
	exp, err := time.Parse(wireDateLayout, w.Expiration)
	if err != nil {
		return types.Option{}, false
	}
	mult := w.Multiplier
	if mult == 0 {
		mult = 100
	}
	return types.Option{
		ID: types.OptionID{
			Underlying: underlying,
			Expiration: exp,
			Strike:     w.Strike,
			Right:      right,
			Multiplier: mult,
			Contract:   types.ContractID(w.ConID),
		},
		High:     w.High,
		Low:      w.Low,
		Close:    w.Close,
		Bid:      w.Bid,
		BidSize:  w.BidSize,
		Ask:      w.Ask,
		AskSize:  w.AskSize,
		Last:     w.Last,
		LastSize: w.LastSize,
		Volume:   w.Volume,
		Greeks: types.Greeks{
			Delta: w.Delta,
			Gamma: w.Gamma,
			Theta: w.Theta,
			Vega:  w.Vega,
			IV:    w.IV,
		},
		OptionPrice:         w.OptPrice,
		UnderlyingPrice:     w.UndPrice,
		UnderlyingDividends: w.PVDividend,
		Time:                time.Unix(w.Time, 0).UTC(),
	}, true
}

// TradeUpdate translates an order-status push. Unknown statuses drop.
func (t *Translator) TradeUpdate(w wireOrderStatus) (types.TradeUpdate, bool) {
	status, ok := t.statuses[w.Status]
	if !ok {
		return types.TradeUpdate{}, false
	}
	return types.TradeUpdate{
		OrderID:    w.OrderID,
		Status:     status,
		Remaining:  w.Remaining,
		AvgPrice:   w.AvgPrice,
		Commission: w.Commission,
		Reference:  w.OrderRef,
	}, true
}
