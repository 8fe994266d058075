package recorder

import (
	"time"

	"TradeWarden/internal/model"
)

// Trade is one executed fill written to the journal.
type Trade struct {
	Symbol   string
	Action   model.TradeAction
	Quantity float64
	Price    float64
	Time     time.Time
}

// EquitySnapshot is one per-cycle total-equity observation.
type EquitySnapshot struct {
	Time   time.Time
	Equity float64
}

// Recorder persists the trade journal and per-cycle equity history.
// Writes are fire-and-forget: callers log failures and never let them
// alter a trading decision.
type Recorder interface {
	RecordTrade(t *Trade) error
	RecordEquity(e *EquitySnapshot) error
	TradeHistory(limit int) ([]Trade, error)
	EquityHistory(limit int) ([]model.EquityPoint, error)
	Close() error
}
