package model

// Side is the direction of a position.
type Side string

const (
	SideFlat  Side = "FLAT"
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// TradeAction is the direction of an executed order.
type TradeAction string

const (
	ActionBuy  TradeAction = "BUY"
	ActionSell TradeAction = "SELL"
)

// Position is the per-asset holding. Quantity is signed: positive for
// LONG, negative for SHORT, zero iff Side is FLAT.
type Position struct {
	Symbol   string  `json:"symbol"`
	Side     Side    `json:"side"`
	Quantity float64 `json:"quantity"`
	Entry    float64 `json:"entry"`
}

// IsFlat reports whether no position is open.
func (p Position) IsFlat() bool { return p.Side == SideFlat }

// MarketValue returns the signed mark-to-market contribution of the
// position at the given price.
func (p Position) MarketValue(price float64) float64 {
	return p.Quantity * price
}
