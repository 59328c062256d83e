package detect

import (
	"testing"
	"time"

	"chartist/internal/market"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dailySeries builds consecutive-weekday bars with high/low one unit around
// the close.
func dailySeries(t *testing.T, closes []float64, volumes []float64) *market.Series {
	t.Helper()
	bars := make([]market.Bar, 0, len(closes))
	d := day(2024, 1, 8)
	for i, c := range closes {
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, 1)
		}
		vol := 1000.0
		if volumes != nil {
			vol = volumes[i]
		}
		bars = append(bars, market.Bar{Date: d, Open: c, High: c + 1, Low: c - 1, Close: c, Volume: vol})
		d = d.AddDate(0, 0, 1)
	}
	s, err := market.NewSeries("TEST", market.TimeframeDaily, bars)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// weeklySeries builds Monday-dated bars.
func weeklySeries(t *testing.T, instrument string, closes []float64) *market.Series {
	t.Helper()
	bars := make([]market.Bar, 0, len(closes))
	d := day(2024, 1, 1) // a Monday
	for _, c := range closes {
		bars = append(bars, market.Bar{Date: d, Open: c, High: c * 1.02, Low: c * 0.98, Close: c, Volume: 1e6})
		d = d.AddDate(0, 0, 7)
	}
	s, err := market.NewSeries(instrument, market.TimeframeWeekly, bars)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func rampCloses(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}
