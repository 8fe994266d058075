package collector

import (
	"time"

	"TradeWarden/internal/model"
)

// Fetcher retrieves historical bars for one instrument. Implementations
// must return bars in increasing timestamp order with no duplicates.
type Fetcher interface {
	FetchBars(symbol, interval string, start, end time.Time) ([]model.Bar, error)
	Name() string
}

// IntervalDuration maps a sampling interval name to its bar duration.
func IntervalDuration(interval string) time.Duration {
	switch interval {
	case "1m":
		return time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "30m":
		return 30 * time.Minute
	case "1d":
		return 24 * time.Hour
	default: // "1h"
		return time.Hour
	}
}
