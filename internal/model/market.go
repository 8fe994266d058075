package model

import (
	"math"
	"time"
)

// Bar represents a single candlestick for one instrument at one interval.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Undefined is the value of a derived indicator field before its window
// has enough history. NaN comparisons are always false, so an undefined
// field can never satisfy a signal condition.
var Undefined = math.NaN()

// Defined reports whether an indicator value is usable for a decision.
func Defined(v float64) bool {
	return !math.IsNaN(v)
}

// IndicatorFrame is a Bar plus the derived indicator values at that bar.
// Derived fields hold Undefined (NaN) during warm-up.
type IndicatorFrame struct {
	Bar
	SMAFast   float64
	SMASlow   float64
	SMALong   float64
	StdFast   float64
	BandUpper float64
	BandLower float64
	RSI       float64
}

// EquityPoint is one mark-to-market observation of total portfolio value.
type EquityPoint struct {
	Time   time.Time `json:"time"`
	Equity float64   `json:"equity"`
}
