package detect

import (
	"math"
	"testing"

	"chartist/internal/indicator"
)

// A year of daily bars in a clean uptrend with volume expanding alongside
// price: trend indicators point up, RSI pins high, and VPCI confirms the
// move on every classified bar.
func TestCleanUptrendScenario(t *testing.T) {
	n := 252
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i := 0; i < n; i++ {
		closes[i] = 100 * math.Pow(1.01, float64(i))
		volumes[i] = 1000 * math.Pow(1.02, float64(i))
	}
	s := dailySeries(t, closes, volumes)

	sma, err := indicator.SMA(s, 20)
	if err != nil {
		t.Fatal(err)
	}
	ema, err := indicator.EMA(s, 20)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(sma); i++ {
		if sma[i].Value <= sma[i-1].Value {
			t.Fatalf("sma not rising at %v", sma[i].Date)
		}
	}
	for i := 1; i < len(ema); i++ {
		if ema[i].Value <= ema[i-1].Value {
			t.Fatalf("ema not rising at %v", ema[i].Date)
		}
	}

	rsi, err := indicator.RSI(s, 14)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range rsi {
		if p.Value <= 50 {
			t.Fatalf("rsi fell to %v at %v in a pure uptrend", p.Value, p.Date)
		}
	}

	pts, err := VPCI(s, DefaultVPCIParams())
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range pts {
		if i < DefaultVPCIParams().SlopeWindow {
			if p.Signal != VPCINeutral {
				t.Fatalf("pre-window point classified: %+v", p)
			}
			continue
		}
		if p.Signal != VPCIConfirmBull {
			t.Fatalf("vpci(%v) = %s, want CONFIRM_BULL", p.Date, p.Signal)
		}
	}
}
