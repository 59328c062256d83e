package indicator

import (
	"math"

	"github.com/markcheno/go-talib"

	"chartist/internal/market"
)

// Bollinger computes middle = SMA(period) and upper/lower = middle ±
// mult·stddev over the same window. Stddev is the sample deviation (N-1
// denominator). A zero-variance window is valid and collapses the bands.
func Bollinger(s *market.Series, period int, mult float64) ([]BollingerPoint, error) {
	if period <= 1 {
		return nil, invalidParam("bollinger", "period %d must be at least 2", period)
	}
	if mult <= 0 {
		return nil, invalidParam("bollinger", "multiplier %g must be positive", mult)
	}
	if s.Len() < period {
		return nil, insufficient("bollinger", period, s.Len())
	}
	closes := s.Closes()
	out := make([]BollingerPoint, 0, s.Len()-period+1)
	sum, sumSq := 0.0, 0.0
	for i, v := range closes {
		sum += v
		sumSq += v * v
		if i >= period {
			old := closes[i-period]
			sum -= old
			sumSq -= old * old
		}
		if i < period-1 {
			continue
		}
		n := float64(period)
		mean := sum / n
		// Sample variance; the subtraction can go fractionally negative on
		// constant windows, clamp before the sqrt.
		variance := (sumSq - sum*sum/n) / (n - 1)
		if variance < 0 {
			variance = 0
		}
		dev := mult * math.Sqrt(variance)
		out = append(out, BollingerPoint{
			Date:   s.Bar(i).Date,
			Upper:  mean + dev,
			Middle: mean,
			Lower:  mean - dev,
		})
	}
	return out, nil
}

// Keltner channels: middle = EMA(emaPeriod) of closes, upper/lower =
// middle ± mult·ATR(atrPeriod). The ATR comes from talib.
func Keltner(s *market.Series, emaPeriod, atrPeriod int, mult float64) ([]BollingerPoint, error) {
	if emaPeriod <= 0 || atrPeriod <= 0 {
		return nil, invalidParam("keltner", "periods must be positive (ema=%d atr=%d)", emaPeriod, atrPeriod)
	}
	if mult <= 0 {
		return nil, invalidParam("keltner", "multiplier %g must be positive", mult)
	}
	need := atrPeriod + 1
	if emaPeriod > need {
		need = emaPeriod
	}
	if s.Len() < need {
		return nil, insufficient("keltner", need, s.Len())
	}
	ema, err := emaSeries(s.Closes(), emaPeriod)
	if err != nil {
		return nil, err
	}
	atr := talib.Atr(s.Highs(), s.Lows(), s.Closes(), atrPeriod)

	// EMA is defined from bar emaPeriod-1, talib's ATR from bar atrPeriod.
	start := emaPeriod - 1
	if atrPeriod > start {
		start = atrPeriod
	}
	out := make([]BollingerPoint, 0, s.Len()-start)
	for i := start; i < s.Len(); i++ {
		mid := ema[i-(emaPeriod-1)]
		a := atr[i]
		if !isFinite(a) {
			continue
		}
		out = append(out, BollingerPoint{
			Date:   s.Bar(i).Date,
			Upper:  mid + mult*a,
			Middle: mid,
			Lower:  mid - mult*a,
		})
	}
	return out, nil
}
