package detect

import (
	"testing"
	"time"

	"chartist/internal/indicator"
	"chartist/internal/market"
)

func boxBars(t *testing.T, hlc [][3]float64) *market.Series {
	t.Helper()
	bars := make([]market.Bar, 0, len(hlc))
	d := day(2024, 1, 8)
	for _, v := range hlc {
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, 1)
		}
		bars = append(bars, market.Bar{Date: d, Open: v[2], High: v[0], Low: v[1], Close: v[2], Volume: 1000})
		d = d.AddDate(0, 0, 1)
	}
	s, err := market.NewSeries("TEST", market.TimeframeDaily, bars)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestBoxLifecycle(t *testing.T) {
	// high, low, close
	s := boxBars(t, [][3]float64{
		{105, 95, 100}, // seed: top candidate 105
		{103, 94, 98},  // fails to exceed, run 1
		{104, 96, 99},  // run 2
		{102, 93, 97},  // run 3: top fixed at 105, bottom candidate 93
		{100, 94, 96},  // bottom holds, run 1
		{101, 95, 97},  // run 2
		{100, 94, 96},  // run 3: box ACTIVE [93, 105]
		{107, 99, 106}, // close above top: BROKEN_UP
	})
	boxes, events, err := Boxes(s, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("want 2 events, got %+v", events)
	}
	if events[0].Type != BoxActive || !events[0].Date.Equal(s.Bar(6).Date) {
		t.Errorf("first event = %+v, want ACTIVE at bar 6", events[0])
	}
	if events[0].Box.Top != 105 || events[0].Box.Bottom != 93 {
		t.Errorf("active box bounds = %+v", events[0].Box)
	}
	if events[1].Type != BoxBrokenUp || !events[1].Date.Equal(s.Bar(7).Date) {
		t.Errorf("second event = %+v, want BROKEN_UP at bar 7", events[1])
	}
	if len(boxes) != 1 {
		t.Fatalf("want 1 completed box, got %d", len(boxes))
	}
	b := boxes[0]
	if b.Status != BoxBrokenUp || b.End == nil || !b.End.Equal(s.Bar(7).Date) {
		t.Errorf("completed box = %+v", b)
	}
}

func TestBoxBreakdown(t *testing.T) {
	s := boxBars(t, [][3]float64{
		{105, 95, 100},
		{103, 94, 98},
		{104, 96, 99},
		{102, 93, 97},
		{100, 94, 96},
		{101, 95, 97},
		{100, 94, 96},
		{95, 90, 91}, // close below bottom 93
	})
	_, events, err := Boxes(s, 3)
	if err != nil {
		t.Fatal(err)
	}
	last := events[len(events)-1]
	if last.Type != BoxBrokenDown {
		t.Fatalf("want BROKEN_DOWN, got %+v", last)
	}
}

func TestBoxNewHighRestartsTopSearch(t *testing.T) {
	st := NewBoxState()
	st, _ = StepBox(st, market.Bar{Date: day(2024, 1, 8), High: 105, Low: 95, Close: 100}, 3)
	st, _ = StepBox(st, market.Bar{Date: day(2024, 1, 9), High: 103, Low: 94, Close: 98}, 3)
	if st.topRun != 1 {
		t.Fatalf("topRun = %d, want 1", st.topRun)
	}
	// A fresh high becomes the new ceiling and resets the count.
	st, _ = StepBox(st, market.Bar{Date: day(2024, 1, 10), High: 110, Low: 100, Close: 108}, 3)
	if st.Top != 110 || st.topRun != 0 || st.topFixed {
		t.Fatalf("state after new high = %+v", st)
	}
}

func TestBoxHighAboveFixedTopReseeds(t *testing.T) {
	st := NewBoxState()
	bars := [][3]float64{
		{105, 95, 100},
		{103, 94, 98},
		{104, 96, 99},
		{102, 93, 97}, // top fixed here
	}
	d := day(2024, 1, 8)
	for _, v := range bars {
		st, _ = StepBox(st, market.Bar{Date: d, High: v[0], Low: v[1], Close: v[2]}, 3)
		d = d.AddDate(0, 0, 1)
	}
	if !st.topFixed {
		t.Fatal("top not fixed after three confirming bars")
	}
	st, _ = StepBox(st, market.Bar{Date: d, High: 108, Low: 101, Close: 106}, 3)
	if st.topFixed || st.Top != 108 {
		t.Fatalf("breakout during bottom search should reseed: %+v", st)
	}
}

func TestBoxesInsufficientData(t *testing.T) {
	s := boxBars(t, [][3]float64{{105, 95, 100}, {103, 94, 98}})
	if _, _, err := Boxes(s, 3); !indicator.IsInsufficientData(err) {
		t.Fatalf("want InsufficientDataError, got %v", err)
	}
	if _, _, err := Boxes(s, 0); !indicator.IsInvalidParameter(err) {
		t.Fatalf("want InvalidParameterError, got %v", err)
	}
}
