package collector

import (
	"time"

	"TradeWarden/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Bars      map[string][]model.Bar // per-symbol canned series, if set
	BasePrice float64                // base for generated bars otherwise
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(symbol, interval string, start, end time.Time) ([]model.Bar, error) {
	if canned, ok := m.Bars[symbol]; ok {
		return canned, nil
	}
	base := m.BasePrice
	if base <= 0 {
		base = 100
	}
	return GenerateBars(base, start, end, IntervalDuration(interval)), nil
}

// GenerateBars produces a deterministic gently-drifting series, one bar
// per step between start and end.
func GenerateBars(basePrice float64, start, end time.Time, step time.Duration) []model.Bar {
	var bars []model.Bar
	i := 0
	for ts := start; ts.Before(end); ts = ts.Add(step) {
		p := basePrice * (1 + float64(i%40-20)*0.001)
		bars = append(bars, model.Bar{
			Time:   ts,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		})
		i++
	}
	return bars
}
