package calculator

// RSISeries computes the trailing RSI over the given period: the simple
// average of positive close deltas over the last `period` deltas divided
// into the average magnitude of negative deltas, mapped to 100-100/(1+RS).
// A zero average loss saturates to RSI = 100 (strictly bullish). The
// first `period` positions are Undefined.
func RSISeries(values []float64, period int) []float64 {
	out := undefinedSeries(len(values))
	if period <= 0 || len(values) <= period {
		return out
	}

	var gainSum, lossSum float64
	for i := 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			gainSum += change
		} else {
			lossSum -= change // make positive
		}

		// Drop the delta that fell out of the trailing window.
		if i > period {
			old := values[i-period] - values[i-period-1]
			if old > 0 {
				gainSum -= old
			} else {
				lossSum += old
			}
		}

		if i < period {
			continue
		}
		avgGain := gainSum / float64(period)
		avgLoss := lossSum / float64(period)
		if avgLoss <= 0 {
			out[i] = 100.0
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100.0 - 100.0/(1.0+rs)
	}
	return out
}
