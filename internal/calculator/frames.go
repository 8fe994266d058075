package calculator

import (
	"TradeWarden/internal/model"
)

// Params holds the indicator window configuration.
type Params struct {
	FastWindow int // bands and trend-exit SMA
	SlowWindow int // informational intermediate SMA
	LongWindow int // long-horizon trend gate
	RSIPeriod  int
}

// Compute derives one IndicatorFrame per input bar. Pure function of the
// input history: windowed outputs are trailing, so appending future bars
// never changes previously computed frames. Insufficient history is not
// an error; warm-up positions carry Undefined fields and callers must
// treat them as no-signal.
func Compute(bars []model.Bar, p Params) []model.IndicatorFrame {
	closes := extractCloses(bars)

	smaFast := SMASeries(closes, p.FastWindow)
	smaSlow := SMASeries(closes, p.SlowWindow)
	smaLong := SMASeries(closes, p.LongWindow)
	stdFast := StdSeries(closes, p.FastWindow)
	rsi := RSISeries(closes, p.RSIPeriod)

	frames := make([]model.IndicatorFrame, len(bars))
	for i, b := range bars {
		f := model.IndicatorFrame{
			Bar:     b,
			SMAFast: smaFast[i],
			SMASlow: smaSlow[i],
			SMALong: smaLong[i],
			StdFast: stdFast[i],
			RSI:     rsi[i],
		}
		if model.Defined(smaFast[i]) && model.Defined(stdFast[i]) {
			f.BandUpper = smaFast[i] + 2*stdFast[i]
			f.BandLower = smaFast[i] - 2*stdFast[i]
		} else {
			f.BandUpper = model.Undefined
			f.BandLower = model.Undefined
		}
		frames[i] = f
	}
	return frames
}
