package types

import (
	"fmt"
	"math"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════════
// SHARED TYPES - Engine domain model
// ═══════════════════════════════════════════════════════════════════════════════
//
// Market-data values are float64 with math.NaN() as the "absent" sentinel:
// quotes legitimately arrive as NaN or -1 from the wire. Account money uses
// decimal (see account.go).
//
// ═══════════════════════════════════════════════════════════════════════════════

// TradingDaysPerYear is the denominator for percentile measures.
const TradingDaysPerYear = 252

// AssetType classifies a tradable instrument.
type AssetType string

const (
	AssetStock         AssetType = "STK"
	AssetETF           AssetType = "ETF"
	AssetOption        AssetType = "OPT"
	AssetFuture        AssetType = "FUT"
	AssetForex         AssetType = "CASH"
	AssetIndex         AssetType = "IND"
	AssetCFD           AssetType = "CFD"
	AssetBond          AssetType = "BOND"
	AssetCommodity     AssetType = "CMDTY"
	AssetFuturesOption AssetType = "FOP"
	AssetMutualFund    AssetType = "FUND"
	AssetWarrant       AssetType = "IOPT"
)

// Ownership is the signed side of a leg: Buyer +1, Seller -1.
// It multiplies signed cash flow everywhere a leg price is aggregated.
type Ownership int

const (
	Buyer  Ownership = 1
	Seller Ownership = -1
)

// Sign returns the ownership as a float factor.
func (o Ownership) Sign() float64 { return float64(o) }

func (o Ownership) String() string {
	if o == Seller {
		return "SELL"
	}
	return "BUY"
}

// Reverse flips buyer to seller and back (used for exit orders).
func (o Ownership) Reverse() Ownership { return -o }

// Right is the option right.
type Right string

const (
	Call Right = "C"
	Put  Right = "P"
)

// Direction is a directional assumption for an underlying.
type Direction int

const (
	Undefined Direction = iota
	Bullish
	Bearish
	Neutral
)

func (d Direction) String() string {
	switch d {
	case Bullish:
		return "Bullish"
	case Bearish:
		return "Bearish"
	case Neutral:
		return "Neutral"
	}
	return "Undefined"
}

// ContractID is the broker's opaque contract handle for a qualified asset.
type ContractID int64

// AssetDef is a watch-list entry before qualification.
type AssetDef struct {
	Code     string
	Type     AssetType
	Exchange string
}

// AssetID identifies a tradable underlying. Immutable.
type AssetID struct {
	Code     string     `json:"code"`
	Type     AssetType  `json:"asset_type"`
	Currency string     `json:"currency"`
	Contract ContractID `json:"contract"`
}

// Current is the last quoted snapshot for an asset. Immutable; updates are
// whole-object replacements on the owning Asset.
type Current struct {
	High     float64
	Low      float64
	Close    float64
	Bid      float64
	BidSize  float64
	Ask      float64
	AskSize  float64
	Last     float64
	LastSize float64
	Volume   float64
	Time     time.Time
}

// Midpoint is the bid/ask average. NaN when either side is absent.
func (c Current) Midpoint() float64 { return (c.Bid + c.Ask) / 2 }

// MarketPrice resolves the first usable price: last if it sits inside
// the bid/ask band or the midpoint is unavailable, else the midpoint,
// and finally the close when both are absent or the -1 placeholder.
func (c Current) MarketPrice() float64 {
	mp := math.NaN()
	if math.IsNaN(c.Midpoint()) || (c.Bid <= c.Last && c.Last <= c.Ask) {
		mp = c.Last
	}
	if math.IsNaN(mp) {
		mp = c.Midpoint()
	}
	if math.IsNaN(mp) || mp == -1 {
		mp = c.Close
	}
	return mp
}

// Bar is one OHLC observation.
type Bar struct {
	Open    float64   `json:"open"`
	High    float64   `json:"high"`
	Low     float64   `json:"low"`
	Close   float64   `json:"close"`
	Average float64   `json:"average"`
	Volume  float64   `json:"volume"`
	Count   int       `json:"count"`
	Time    time.Time `json:"time"`
}

// History is an ordered bar sequence. A refresh replaces the whole History
// atomically; partial histories are never observable.
type History struct {
	Bars    []Bar     `json:"bars"`
	Created time.Time `json:"created"`
}

// Stale reports whether the history is at least one calendar day old.
func (h *History) Stale(now time.Time) bool {
	if h == nil {
		return true
	}
	return now.Sub(h.Created) >= 24*time.Hour
}

// Closes returns the close column.
func (h *History) Closes() []float64 { return h.column(func(b Bar) float64 { return b.Close }) }

// Lows returns the low column.
func (h *History) Lows() []float64 { return h.column(func(b Bar) float64 { return b.Low }) }

// Highs returns the high column.
func (h *History) Highs() []float64 { return h.column(func(b Bar) float64 { return b.High }) }

func (h *History) column(f func(Bar) float64) []float64 {
	if h == nil {
		return nil
	}
	out := make([]float64, len(h.Bars))
	for i, b := range h.Bars {
		out[i] = f(b)
	}
	return out
}

// Measures is an immutable analytic snapshot for one asset. Rolling-window
// fields are aligned element-wise with the price history.
type Measures struct {
	IV              float64
	IVRank          float64
	IVPercentile    float64
	IVPct           float64
	PricePercentile float64
	PricePct        float64
	Stdev           float64
	Beta            float64
	Correlation     float64
	RSI             float64

	FastSMA          []float64
	SlowSMA          []float64
	VerySlowSMA      []float64
	FastSMASpeed     []float64
	FastSMASpeedDiff []float64
}

// Forecast holds the per-bar directional assumption, aligned with the
// price history. Entries are Undefined while input windows are unfilled.
type Forecast struct {
	Directional []Direction
}

// Asset is the engine's entity for one watch-list underlying. Created once
// at engine start and mutated only by the engine's refresh phase.
type Asset struct {
	ID           AssetID
	Current      Current
	PriceHistory *History
	IVHistory    *History
	Measures     *Measures
	Forecast     *Forecast
}

// MarketPrice resolves from the current snapshot.
func (a *Asset) MarketPrice() float64 { return a.Current.MarketPrice() }

// Position is an immutable broker-reported position snapshot.
type Position struct {
	Code       string
	Type       AssetType
	Ownership  Ownership
	Expiration time.Time // zero for non-options
	Strike     float64
	Right      Right
	Quantity   float64
	AvgCost    float64
}

// Key is the contract-level identity used to match positions against
// strategy legs. Ownership is not part of the key; reconciliation compares
// it separately.
func (p Position) Key() string {
	if p.Expiration.IsZero() {
		return p.Code
	}
	return contractKey(p.Code, p.Right, p.Strike, p.Expiration)
}

func contractKey(code string, right Right, strike float64, expiration time.Time) string {
	return fmt.Sprintf("%s %s %.1f %s", code, right, strike, expiration.Format("02-01-2006"))
}
