package types

// OrderRole marks what an order does for its strategy.
type OrderRole string

const (
	RoleNewLeg     OrderRole = "NL"
	RoleTakeProfit OrderRole = "TP"
	RoleStopLoss   OrderRole = "SL"
)

// OrderType is the broker order type.
type OrderType string

const (
	Limit OrderType = "LMT"
	Stop  OrderType = "STP"
)

// OrderStatus is the engine's view of a broker order state.
type OrderStatus string

const (
	StatusAPIPending    OrderStatus = "APIPending"
	StatusPendingSubmit OrderStatus = "PendingSubmit"
	StatusPendingCancel OrderStatus = "PendingCancel"
	StatusPreSubmitted  OrderStatus = "PreSubmitted"
	StatusSubmitted     OrderStatus = "Submitted"
	StatusAPICancelled  OrderStatus = "APICancelled"
	StatusCancelled     OrderStatus = "Cancelled"
	StatusFilled        OrderStatus = "Filled"
	StatusInactive      OrderStatus = "Inactive"
)

// Order is an immutable order template handed to the broker port.
type Order struct {
	Role      OrderRole
	Ownership Ownership
	Quantity  int
	Price     float64
	Type      OrderType
	Reference string
	Status    OrderStatus
}

// TradeUpdate is a broker order-status event. Immutable.
type TradeUpdate struct {
	OrderID    int64
	Status     OrderStatus
	Remaining  float64
	AvgPrice   float64
	Commission float64
	Reference  string
}
