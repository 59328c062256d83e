package indicator

import (
	"chartist/internal/market"
)

// SMA returns the simple moving average of closes. The first period-1 bars
// produce no point.
func SMA(s *market.Series, period int) ([]Point, error) {
	if period <= 0 {
		return nil, invalidParam("sma", "period %d must be positive", period)
	}
	if s.Len() < period {
		return nil, insufficient("sma", period, s.Len())
	}
	return rollingMean(s, s.Closes(), period), nil
}

// VolumeSMA is the simple moving average of volume, used by VM and the
// breakout volume checks.
func VolumeSMA(s *market.Series, period int) ([]Point, error) {
	if period <= 0 {
		return nil, invalidParam("volume_sma", "period %d must be positive", period)
	}
	if s.Len() < period {
		return nil, insufficient("volume_sma", period, s.Len())
	}
	return rollingMean(s, s.Volumes(), period), nil
}

// rollingMean keeps a running window sum so each bar costs O(1).
func rollingMean(s *market.Series, values []float64, period int) []Point {
	out := make([]Point, 0, len(values)-period+1)
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out = append(out, Point{Date: s.Bar(i).Date, Value: sum / float64(period)})
		}
	}
	return out
}

// EMA seeds with SMA(period) at bar period-1 and then applies
// EMA[t] = close[t]*k + EMA[t-1]*(1-k) with k = 2/(period+1).
func EMA(s *market.Series, period int) ([]Point, error) {
	if period <= 0 {
		return nil, invalidParam("ema", "period %d must be positive", period)
	}
	if s.Len() < period {
		return nil, insufficient("ema", period, s.Len())
	}
	values, err := emaSeries(s.Closes(), period)
	if err != nil {
		return nil, err
	}
	out := make([]Point, len(values))
	for i, v := range values {
		out[i] = Point{Date: s.Bar(period - 1 + i).Date, Value: v}
	}
	return out, nil
}

// emaSeries returns the EMA values aligned to values[period-1:].
func emaSeries(values []float64, period int) ([]float64, error) {
	if len(values) < period {
		return nil, insufficient("ema", period, len(values))
	}
	out := make([]float64, 0, len(values)-period+1)
	seed := 0.0
	for _, v := range values[:period] {
		seed += v
	}
	prev := seed / float64(period)
	out = append(out, prev)
	k := 2.0 / float64(period+1)
	for _, v := range values[period:] {
		prev = v*k + prev*(1-k)
		out = append(out, prev)
	}
	return out, nil
}

// VWMA is the volume-weighted mean of closes: sum(close*volume)/sum(volume).
// A zero-volume window degrades to the arithmetic mean of its closes.
func VWMA(s *market.Series, period int) ([]Point, error) {
	if period <= 0 {
		return nil, invalidParam("vwma", "period %d must be positive", period)
	}
	if s.Len() < period {
		return nil, insufficient("vwma", period, s.Len())
	}
	closes := s.Closes()
	volumes := s.Volumes()
	out := make([]Point, 0, s.Len()-period+1)
	sumPV, sumV, sumC := 0.0, 0.0, 0.0
	for i := range closes {
		sumPV += closes[i] * volumes[i]
		sumV += volumes[i]
		sumC += closes[i]
		if i >= period {
			sumPV -= closes[i-period] * volumes[i-period]
			sumV -= volumes[i-period]
			sumC -= closes[i-period]
		}
		if i < period-1 {
			continue
		}
		v := sumC / float64(period)
		if sumV > 0 {
			v = sumPV / sumV
		}
		out = append(out, Point{Date: s.Bar(i).Date, Value: v})
	}
	return out, nil
}
