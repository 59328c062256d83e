package detect

import (
	"math"
	"testing"

	"chartist/internal/indicator"
)

func TestRetracementUpSwing(t *testing.T) {
	sw := Swing{Low: 100, High: 200, Up: true}
	set := Retracement(sw)

	byRatio := map[float64]float64{}
	for _, l := range append(set.Levels, set.Extensions...) {
		byRatio[l.Ratio] = l.Price
	}
	want := map[float64]float64{
		0:     100,
		0.382: 138.2,
		0.5:   150,
		0.618: 161.8,
		1:     200,
		1.618: 261.8,
	}
	for r, p := range want {
		if got := byRatio[r]; math.Abs(got-p) > 1e-9 {
			t.Errorf("ratio %v: price %v, want %v", r, got, p)
		}
	}
	// Levels must walk monotonically from the low to the high.
	for i := 1; i < len(set.Levels); i++ {
		if set.Levels[i].Price <= set.Levels[i-1].Price {
			t.Fatalf("up-swing levels not ascending: %+v", set.Levels)
		}
	}
}

func TestRetracementDownSwing(t *testing.T) {
	sw := Swing{Low: 100, High: 200, Up: false}
	set := Retracement(sw)
	byRatio := map[float64]float64{}
	for _, l := range append(set.Levels, set.Extensions...) {
		byRatio[l.Ratio] = l.Price
	}
	if got := byRatio[0.618]; math.Abs(got-138.2) > 1e-9 {
		t.Errorf("0.618 retrace of a down-swing = %v, want 138.2", got)
	}
	if got := byRatio[1.618]; math.Abs(got-38.2) > 1e-9 {
		t.Errorf("1.618 extension of a down-swing = %v, want 38.2", got)
	}
}

func TestDetectSwingsVShape(t *testing.T) {
	closes := []float64{110, 108, 106, 104, 102, 100, 104, 108, 112, 116, 120, 118, 116}
	s := dailySeries(t, closes, nil)
	p := DefaultFibParams()
	p.PivotPeriod = 2
	swings, err := DetectSwings(s, p)
	if err != nil {
		t.Fatal(err)
	}
	if len(swings) == 0 {
		t.Fatal("no swings in a clean V")
	}
	sw := swings[0]
	if !sw.Up {
		t.Fatalf("dominant swing direction = down, want up: %+v", sw)
	}
	// Bar highs/lows sit one unit around the close.
	if sw.Low != 99 || sw.High != 121 {
		t.Errorf("swing bounds = [%v, %v], want [99, 121]", sw.Low, sw.High)
	}
	if !sw.LowDate.Before(sw.HighDate) {
		t.Errorf("up-swing dates out of order: %+v", sw)
	}
}

func TestDetectSwingsInsufficientData(t *testing.T) {
	s := dailySeries(t, []float64{1, 2, 3}, nil)
	if _, err := DetectSwings(s, DefaultFibParams()); !indicator.IsInsufficientData(err) {
		t.Fatalf("want InsufficientDataError, got %v", err)
	}
}

func TestConfluenceClustering(t *testing.T) {
	sets := []FibSet{
		{Levels: []FibLevel{{Label: "0.5", Price: 100}, {Label: "0.618", Price: 150}}},
		{Levels: []FibLevel{{Label: "0.382", Price: 100.2}, {Label: "0.786", Price: 180}}},
	}
	zones := Confluence(sets, 0.005, 2)
	if len(zones) != 3 {
		t.Fatalf("want 3 zones, got %+v", zones)
	}
	top := zones[0]
	if top.Strength != 2 || !top.HighConfidence {
		t.Fatalf("strongest zone = %+v", top)
	}
	if top.Low != 100 || top.High != 100.2 {
		t.Errorf("cluster bounds = [%v, %v]", top.Low, top.High)
	}
	if len(top.Sources) != 2 {
		t.Errorf("cluster sources = %v", top.Sources)
	}
	for _, z := range zones[1:] {
		if z.Strength != 1 || z.HighConfidence {
			t.Errorf("singleton zone = %+v", z)
		}
	}
}
