package indicator

import (
	"chartist/internal/market"
)

// RSI implements Wilder's relative strength index. The first average
// gain/loss pair is a plain mean over the first period changes; afterwards
// avg = (prev*(period-1) + current) / period. avgLoss == 0 yields exactly
// 100, and the output is clamped to [0, 100].
func RSI(s *market.Series, period int) ([]Point, error) {
	if period <= 0 {
		return nil, invalidParam("rsi", "period %d must be positive", period)
	}
	if s.Len() < period+1 {
		return nil, insufficient("rsi", period+1, s.Len())
	}
	closes := s.Closes()

	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			avgGain += d
		} else {
			avgLoss -= d
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	out := make([]Point, 0, s.Len()-period)
	out = append(out, Point{Date: s.Bar(period).Date, Value: rsiValue(avgGain, avgLoss)})
	for i := period + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if d > 0 {
			gain = d
		} else {
			loss = -d
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out = append(out, Point{Date: s.Bar(i).Date, Value: rsiValue(avgGain, avgLoss)})
	}
	return out, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	v := 100 - 100/(1+rs)
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// MACD returns line = EMA(fast) - EMA(slow), signal = EMA(signalPeriod) of
// the line, histogram = line - signal. Points begin once the signal line is
// defined, i.e. after slow+signalPeriod-1 bars.
func MACD(s *market.Series, fast, slow, signalPeriod int) ([]MACDPoint, error) {
	if fast <= 0 || slow <= 0 || signalPeriod <= 0 {
		return nil, invalidParam("macd", "periods must be positive (fast=%d slow=%d signal=%d)", fast, slow, signalPeriod)
	}
	if fast >= slow {
		return nil, invalidParam("macd", "fast period %d must be below slow period %d", fast, slow)
	}
	need := slow + signalPeriod - 1
	if s.Len() < need {
		return nil, insufficient("macd", need, s.Len())
	}
	closes := s.Closes()
	emaFast, err := emaSeries(closes, fast)
	if err != nil {
		return nil, err
	}
	emaSlow, err := emaSeries(closes, slow)
	if err != nil {
		return nil, err
	}

	// Both EMAs are defined from bar slow-1 onwards.
	line := make([]float64, len(emaSlow))
	offset := slow - fast
	for i := range emaSlow {
		line[i] = emaFast[i+offset] - emaSlow[i]
	}
	signal, err := emaSeries(line, signalPeriod)
	if err != nil {
		return nil, err
	}

	out := make([]MACDPoint, len(signal))
	for i := range signal {
		li := i + signalPeriod - 1
		bar := s.Bar(slow - 1 + li)
		out[i] = MACDPoint{
			Date:      bar.Date,
			Value:     line[li],
			Signal:    signal[i],
			Histogram: line[li] - signal[i],
		}
	}
	return out, nil
}

// Stochastic returns the raw %K over kPeriod and its dPeriod SMA as %D.
// Flat windows (high == low) emit K = 50, the midpoint.
func Stochastic(s *market.Series, kPeriod, dPeriod int) ([]StochasticPoint, error) {
	if kPeriod <= 0 || dPeriod <= 0 {
		return nil, invalidParam("stochastic", "periods must be positive (k=%d d=%d)", kPeriod, dPeriod)
	}
	need := kPeriod + dPeriod - 1
	if s.Len() < need {
		return nil, insufficient("stochastic", need, s.Len())
	}
	highs := s.Highs()
	lows := s.Lows()
	closes := s.Closes()

	k := make([]float64, 0, s.Len()-kPeriod+1)
	for i := kPeriod - 1; i < s.Len(); i++ {
		lo, hi := lows[i], highs[i]
		for j := i - kPeriod + 1; j <= i; j++ {
			if lows[j] < lo {
				lo = lows[j]
			}
			if highs[j] > hi {
				hi = highs[j]
			}
		}
		if hi == lo {
			k = append(k, 50)
			continue
		}
		k = append(k, (closes[i]-lo)/(hi-lo)*100)
	}

	out := make([]StochasticPoint, 0, len(k)-dPeriod+1)
	sum := 0.0
	for i, v := range k {
		sum += v
		if i >= dPeriod {
			sum -= k[i-dPeriod]
		}
		if i < dPeriod-1 {
			continue
		}
		out = append(out, StochasticPoint{
			Date: s.Bar(kPeriod - 1 + i).Date,
			K:    v,
			D:    sum / float64(dPeriod),
		})
	}
	return out, nil
}
