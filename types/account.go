package types

import "github.com/shopspring/decimal"

// Account is the broker account snapshot. Mutable; owned by the DataStore
// and updated from translated account items.
type Account struct {
	ID                 string
	NetLiquidation     decimal.Decimal
	BuyingPower        decimal.Decimal
	Cash               decimal.Decimal
	Funds              decimal.Decimal
	MaxDayTrades       int
	InitialMargin      decimal.Decimal
	MaintenanceMargin  decimal.Decimal
	ExcessLiquidity    decimal.Decimal
	Cushion            decimal.Decimal
	GrossPositionValue decimal.Decimal
	EquityWithLoan     decimal.Decimal
	SMA                decimal.Decimal
}

// AccountTag names an engine-side account field.
type AccountTag string

const (
	TagID                 AccountTag = "id"
	TagNetLiquidation     AccountTag = "net_liquidation"
	TagBuyingPower        AccountTag = "buying_power"
	TagCash               AccountTag = "cash"
	TagFunds              AccountTag = "funds"
	TagMaxDayTrades       AccountTag = "max_day_trades"
	TagInitialMargin      AccountTag = "initial_margin"
	TagMaintenanceMargin  AccountTag = "maintenance_margin"
	TagExcessLiquidity    AccountTag = "excess_liquidity"
	TagCushion            AccountTag = "cushion"
	TagGrossPositionValue AccountTag = "gross_position_value"
	TagEquityWithLoan     AccountTag = "equity_with_loan"
	TagSMA                AccountTag = "sma"
)

// AccountItem is one translated account value push.
type AccountItem struct {
	Account string
	Tag     AccountTag
	Value   string
	Money   decimal.Decimal
}

// Apply writes the item into the matching account field.
func (a *Account) Apply(item AccountItem) {
	switch item.Tag {
	case TagID:
		if a.ID == "" {
			a.ID = item.Value
		}
	case TagNetLiquidation:
		a.NetLiquidation = item.Money
	case TagBuyingPower:
		a.BuyingPower = item.Money
	case TagCash:
		a.Cash = item.Money
	case TagFunds:
		a.Funds = item.Money
	case TagMaxDayTrades:
		a.MaxDayTrades = int(item.Money.IntPart())
	case TagInitialMargin:
		a.InitialMargin = item.Money
	case TagMaintenanceMargin:
		a.MaintenanceMargin = item.Money
	case TagExcessLiquidity:
		a.ExcessLiquidity = item.Money
	case TagCushion:
		a.Cushion = item.Money
	case TagGrossPositionValue:
		a.GrossPositionValue = item.Money
	case TagEquityWithLoan:
		a.EquityWithLoan = item.Money
	case TagSMA:
		a.SMA = item.Money
	}
}
