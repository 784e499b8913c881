// Package indicators holds the numeric helpers the scorers depend on.
// All functions are pure and tolerate empty or short input.
package indicators

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultRSIPeriod is the lookback used by every scorer
const DefaultRSIPeriod = 14

// SupportWindow is the number of trailing lows scanned by Support
const SupportWindow = 60

// RSI is a simple windowed RSI over the last period transitions.
// Unlike Wilder's RSI there is no smoothing.
// ⭐ SSOT: RSI 계산은 여기서만
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return 50 // 데이터 부족 → 중립
	}

	var gains, losses float64
	for i := len(closes) - period; i < len(closes); i++ {
		diff := closes[i] - closes[i-1]
		if diff >= 0 {
			gains += diff
		} else {
			losses -= diff
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MA is the simple mean of the trailing period values.
// With fewer values than period it returns the last value (0 when empty).
func MA(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		if len(values) == 0 {
			return 0
		}
		return values[len(values)-1]
	}
	return floats.Sum(values[len(values)-period:]) / float64(period)
}

// MASeries returns a moving average aligned with values.
// Positions before period-1 echo the raw value.
func MASeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if period <= 0 || i < period-1 {
			out[i] = values[i]
			continue
		}
		out[i] = floats.Sum(values[i-period+1:i+1]) / float64(period)
	}
	return out
}

// Mean is the arithmetic mean, 0 for empty input
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// StdDev is the population standard deviation (divides by N), 0 for empty input
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sd := stat.PopStdDev(values, nil)
	if math.IsNaN(sd) {
		return 0
	}
	return sd
}

// Support is the lowest of the trailing SupportWindow lows, 0 if empty
func Support(lows []float64) float64 {
	if len(lows) == 0 {
		return 0
	}
	if len(lows) > SupportWindow {
		lows = lows[len(lows)-SupportWindow:]
	}
	return floats.Min(lows)
}
