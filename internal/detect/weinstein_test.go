package detect

import (
	"reflect"
	"testing"

	"chartist/internal/indicator"
)

func fastWeinsteinParams() WeinsteinParams {
	return WeinsteinParams{MAPeriod: 4, RSPeriod: 4, SlopeWindow: 2, ConfirmBars: 1, SlopeThreshold: 0.001}
}

func TestWeinsteinAdvancingUptrend(t *testing.T) {
	inst := weeklySeries(t, "TEST", rampCloses(20, 100, 5))
	bench := weeklySeries(t, "KOSPI", rampCloses(20, 1000, 0))
	pts, _, err := WeinsteinStages(inst, bench, fastWeinsteinParams())
	if err != nil {
		t.Fatal(err)
	}
	if len(pts) == 0 {
		t.Fatal("no points")
	}
	last := pts[len(pts)-1]
	if last.Stage != StageAdvancing {
		t.Fatalf("uptrend classified as %s, want ADVANCING", last.Stage)
	}
	if last.MansfieldRS <= 0 {
		t.Errorf("rising ratio should give positive RS, got %v", last.MansfieldRS)
	}
	if last.Slope != SlopeRising {
		t.Errorf("ma slope = %s, want RISING", last.Slope)
	}
}

func TestWeinsteinDecliningDowntrend(t *testing.T) {
	inst := weeklySeries(t, "TEST", rampCloses(20, 200, -5))
	bench := weeklySeries(t, "KOSPI", rampCloses(20, 1000, 0))
	pts, _, err := WeinsteinStages(inst, bench, fastWeinsteinParams())
	if err != nil {
		t.Fatal(err)
	}
	last := pts[len(pts)-1]
	if last.Stage != StageDeclining {
		t.Fatalf("downtrend classified as %s, want DECLINING", last.Stage)
	}
	if last.MansfieldRS >= 0 {
		t.Errorf("falling ratio should give negative RS, got %v", last.MansfieldRS)
	}
}

func TestWeinsteinTransitionsRecorded(t *testing.T) {
	// Up-ramp into a down-ramp forces at least one accepted stage change,
	// and every transition must chain From -> To consistently.
	closes := append(rampCloses(15, 100, 5), rampCloses(15, 170, -6)...)
	inst := weeklySeries(t, "TEST", closes)
	bench := weeklySeries(t, "KOSPI", rampCloses(30, 1000, 0))
	pts, trs, err := WeinsteinStages(inst, bench, fastWeinsteinParams())
	if err != nil {
		t.Fatal(err)
	}
	if len(trs) == 0 {
		t.Fatal("no transitions across a trend reversal")
	}
	for _, tr := range trs {
		if tr.From == tr.To {
			t.Errorf("degenerate transition at %v: %s -> %s", tr.Date, tr.From, tr.To)
		}
	}
	if last := pts[len(pts)-1]; last.Stage == StageAdvancing {
		t.Errorf("still ADVANCING after reversal")
	}
}

func TestWeinsteinDeterministicReplay(t *testing.T) {
	closes := append(rampCloses(15, 100, 4), rampCloses(15, 156, -3)...)
	inst := weeklySeries(t, "TEST", closes)
	bench := weeklySeries(t, "KOSPI", rampCloses(30, 500, 1))
	p := fastWeinsteinParams()
	pts1, trs1, err := WeinsteinStages(inst, bench, p)
	if err != nil {
		t.Fatal(err)
	}
	pts2, trs2, err := WeinsteinStages(inst, bench, p)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(pts1, pts2) || !reflect.DeepEqual(trs1, trs2) {
		t.Fatal("replay produced different output")
	}
}

func TestWeinsteinInsufficientData(t *testing.T) {
	inst := weeklySeries(t, "TEST", rampCloses(5, 100, 1))
	bench := weeklySeries(t, "KOSPI", rampCloses(5, 1000, 0))
	_, _, err := WeinsteinStages(inst, bench, fastWeinsteinParams())
	if !indicator.IsInsufficientData(err) {
		t.Fatalf("want InsufficientDataError, got %v", err)
	}
}
