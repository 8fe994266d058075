package calculator

import (
	"math"

	"TradeWarden/internal/model"
)

// SMASeries computes the trailing simple moving average over the given
// window, one output per input. Positions before the window fills are
// Undefined. Appending inputs never changes earlier outputs.
func SMASeries(values []float64, window int) []float64 {
	out := undefinedSeries(len(values))
	if window <= 0 || len(values) < window {
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// StdSeries computes the trailing rolling standard deviation over the
// given window, sample convention (n-1 denominator), matching the
// window semantics of SMASeries exactly.
func StdSeries(values []float64, window int) []float64 {
	out := undefinedSeries(len(values))
	if window <= 1 || len(values) < window {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		mean := 0.0
		for j := i - window + 1; j <= i; j++ {
			mean += values[j]
		}
		mean /= float64(window)

		variance := 0.0
		for j := i - window + 1; j <= i; j++ {
			d := values[j] - mean
			variance += d * d
		}
		out[i] = math.Sqrt(variance / float64(window-1))
	}
	return out
}

func undefinedSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = model.Undefined
	}
	return out
}

func extractCloses(bars []model.Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
