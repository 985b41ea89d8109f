package types

import "time"

// OptionID identifies one option contract. Immutable.
type OptionID struct {
	Underlying AssetID    `json:"underlying"`
	Expiration time.Time  `json:"expiration"`
	Strike     float64    `json:"strike"`
	Right      Right      `json:"right"`
	Multiplier int        `json:"multiplier"`
	Contract   ContractID `json:"contract"`
}

// Greeks are the broker-supplied model greeks for an option.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	IV    float64 `json:"iv"`
}

// Option is a quoted option contract. Immutable snapshot.
type Option struct {
	ID                  OptionID  `json:"id"`
	High                float64   `json:"high"`
	Low                 float64   `json:"low"`
	Close               float64   `json:"close"`
	Bid                 float64   `json:"bid"`
	BidSize             float64   `json:"bid_size"`
	Ask                 float64   `json:"ask"`
	AskSize             float64   `json:"ask_size"`
	Last                float64   `json:"last"`
	LastSize            float64   `json:"last_size"`
	Volume              float64   `json:"volume"`
	OptionPrice         float64   `json:"option_price"`
	Greeks              Greeks    `json:"greeks"`
	UnderlyingPrice     float64   `json:"underlying_price"`
	UnderlyingDividends float64   `json:"underlying_dividends"`
	Time                time.Time `json:"time"`
}

// Midpoint is the bid/ask average.
func (o Option) Midpoint() float64 { return (o.Bid + o.Ask) / 2 }

// DTE is the number of days to expiration as of today.
func (o Option) DTE(today time.Time) int {
	y, m, d := today.Date()
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	ey, em, ed := o.ID.Expiration.Date()
	e := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	return int(e.Sub(t).Hours() / 24)
}

// ChainKey identifies the option within a discovered chain (strike+right).
func (o Option) ChainKey() string {
	return contractKey(o.ID.Underlying.Code, o.ID.Right, o.ID.Strike, o.ID.Expiration)
}
