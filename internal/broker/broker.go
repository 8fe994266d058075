package broker

import (
	"context"

	"TradeWarden/internal/model"
)

// Broker submits market orders to an execution venue. The core treats a
// submission failure as "no fill": the caller must leave its books
// untouched and re-evaluate on the next cycle.
type Broker interface {
	SubmitMarketOrder(ctx context.Context, symbol string, qty float64, side model.TradeAction) error
	Name() string
}
