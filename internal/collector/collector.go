package collector

import (
	"fmt"
	"sort"
	"time"

	"TradeWarden/internal/model"
)

// Collector fetches bars for the whole tracked portfolio.
type Collector struct {
	Fetcher  Fetcher
	Symbols  []string
	Interval string
}

// NewCollector creates a Collector over the given fetcher.
func NewCollector(fetcher Fetcher, symbols []string, interval string) *Collector {
	return &Collector{Fetcher: fetcher, Symbols: symbols, Interval: interval}
}

// CollectAll fetches the bar history for every tracked symbol. Each
// series is sorted and de-duplicated by timestamp before it is returned,
// so downstream alignment can rely on strictly increasing times.
func (c *Collector) CollectAll(start, end time.Time) (map[string][]model.Bar, error) {
	barsets := make(map[string][]model.Bar, len(c.Symbols))
	for _, symbol := range c.Symbols {
		bars, err := c.Fetcher.FetchBars(symbol, c.Interval, start, end)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", symbol, err)
		}
		if len(bars) == 0 {
			return nil, fmt.Errorf("fetch %s: no bars returned", symbol)
		}
		barsets[symbol] = normalize(bars)
	}
	return barsets, nil
}

// normalize sorts bars chronologically and drops duplicate timestamps,
// keeping the last bar seen for a timestamp.
func normalize(bars []model.Bar) []model.Bar {
	sorted := append([]model.Bar(nil), bars...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	out := sorted[:0]
	for _, b := range sorted {
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
