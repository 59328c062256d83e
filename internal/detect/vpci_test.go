package detect

import (
	"math"
	"reflect"
	"testing"

	"chartist/internal/indicator"
)

func TestClassifySlopes(t *testing.T) {
	cases := []struct {
		price, vpci float64
		want        VPCISignal
	}{
		{1, 1, VPCIConfirmBull},
		{-1, -1, VPCIConfirmBear},
		{-1, 1, VPCIDivergeBull},
		{1, -1, VPCIDivergeBear},
		{0, 1, VPCINeutral},
		{1, 0, VPCINeutral},
		{0, 0, VPCINeutral},
	}
	for _, c := range cases {
		if got := classifySlopes(c.price, c.vpci); got != c.want {
			t.Errorf("classifySlopes(%v, %v) = %s, want %s", c.price, c.vpci, got, c.want)
		}
	}
}

func TestVPCIComponents(t *testing.T) {
	// Two bars, volume-weighted toward the higher close: VPC = 17.5 - 15,
	// VPR = 1 (window of one), VM = last volume over mean volume.
	s := dailySeries(t, []float64{10, 20}, []float64{1, 3})
	pts, err := VPCI(s, VPCIParams{Short: 1, Long: 2, SlopeWindow: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(pts) != 1 {
		t.Fatalf("want 1 point, got %d", len(pts))
	}
	p := pts[0]
	if math.Abs(p.VPC-2.5) > 1e-9 || math.Abs(p.VPR-1) > 1e-9 || math.Abs(p.VM-1.5) > 1e-9 {
		t.Fatalf("components = %+v", p)
	}
	if math.Abs(p.Value-3.75) > 1e-9 {
		t.Fatalf("value = %v, want 3.75", p.Value)
	}
}

func TestVPCIEqualVolumeIsZero(t *testing.T) {
	// With uniform volume the weighted and plain means coincide, so VPC and
	// the whole indicator are exactly zero.
	s := dailySeries(t, rampCloses(30, 100, 1), nil)
	pts, err := VPCI(s, DefaultVPCIParams())
	if err != nil {
		t.Fatal(err)
	}
	if len(pts) != 30-20+1 {
		t.Fatalf("want %d points, got %d", 30-20+1, len(pts))
	}
	for _, p := range pts {
		if math.Abs(p.VPC) > 1e-9 || math.Abs(p.Value) > 1e-9 {
			t.Errorf("vpci(%v) = %+v, want zero on uniform volume", p.Date, p)
		}
	}
}

func TestVPCIValidation(t *testing.T) {
	s := dailySeries(t, rampCloses(30, 100, 1), nil)
	if _, err := VPCI(s, VPCIParams{Short: 20, Long: 5, SlopeWindow: 5}); !indicator.IsInvalidParameter(err) {
		t.Errorf("short >= long accepted")
	}
	short := dailySeries(t, rampCloses(10, 100, 1), nil)
	if _, err := VPCI(short, DefaultVPCIParams()); !indicator.IsInsufficientData(err) {
		t.Errorf("want InsufficientDataError on 10 bars")
	}
}

func TestVPCIDivergenceSlopeSigns(t *testing.T) {
	// Wavy price with volume trending the other way produces a mix of
	// classifications; every extracted divergence must carry slopes whose
	// signs match its label.
	n := 120
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i := 0; i < n; i++ {
		closes[i] = 100 + 15*math.Sin(float64(i)/7)
		volumes[i] = 5000 + 3000*math.Cos(float64(i)/5)
	}
	s := dailySeries(t, closes, volumes)
	divs, err := VPCIDivergences(s, DefaultVPCIParams())
	if err != nil {
		t.Fatal(err)
	}
	if len(divs) == 0 {
		t.Fatal("expected at least one divergence in opposing price/volume waves")
	}
	for _, d := range divs {
		switch d.Signal {
		case VPCIDivergeBull:
			if d.PriceSlope >= 0 || d.VPCISlope <= 0 {
				t.Errorf("%v: bull divergence slopes price=%v vpci=%v", d.Date, d.PriceSlope, d.VPCISlope)
			}
		case VPCIDivergeBear:
			if d.PriceSlope <= 0 || d.VPCISlope >= 0 {
				t.Errorf("%v: bear divergence slopes price=%v vpci=%v", d.Date, d.PriceSlope, d.VPCISlope)
			}
		default:
			t.Errorf("%v: non-divergence signal %s extracted", d.Date, d.Signal)
		}
	}
}

func TestDivergencesReusesComputedPoints(t *testing.T) {
	n := 120
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i := 0; i < n; i++ {
		closes[i] = 100 + 15*math.Sin(float64(i)/7)
		volumes[i] = 5000 + 3000*math.Cos(float64(i)/5)
	}
	s := dailySeries(t, closes, volumes)
	p := DefaultVPCIParams()

	combined, err := VPCIDivergences(s, p)
	if err != nil {
		t.Fatal(err)
	}
	pts, err := VPCI(s, p)
	if err != nil {
		t.Fatal(err)
	}
	split := Divergences(s, pts, p)
	if !reflect.DeepEqual(combined, split) {
		t.Fatalf("single-pass extraction differs: %d vs %d divergences", len(combined), len(split))
	}
}

func TestVPCIAt(t *testing.T) {
	s := dailySeries(t, rampCloses(30, 100, 1), nil)
	pts, err := VPCI(s, DefaultVPCIParams())
	if err != nil {
		t.Fatal(err)
	}
	last := pts[len(pts)-1]
	if got := VPCIAt(pts, last.Date); got != last.Signal {
		t.Errorf("VPCIAt(last) = %s, want %s", got, last.Signal)
	}
	if got := VPCIAt(pts, day(1999, 1, 1)); got != VPCINeutral {
		t.Errorf("VPCIAt(unknown) = %s, want NEUTRAL", got)
	}
}
