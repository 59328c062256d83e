package detect

import (
	"time"

	"chartist/internal/indicator"
	"chartist/internal/market"
)

// Stage is one of Weinstein's four market-cycle stages.
type Stage int

const (
	StageUnknown   Stage = 0
	StageBasing    Stage = 1
	StageAdvancing Stage = 2
	StageTopping   Stage = 3
	StageDeclining Stage = 4
)

func (s Stage) String() string {
	switch s {
	case StageBasing:
		return "BASING"
	case StageAdvancing:
		return "ADVANCING"
	case StageTopping:
		return "TOPPING"
	case StageDeclining:
		return "DECLINING"
	default:
		return "UNKNOWN"
	}
}

// MASlope classifies the direction of the long moving average.
type MASlope string

const (
	SlopeRising  MASlope = "RISING"
	SlopeFalling MASlope = "FALLING"
	SlopeFlat    MASlope = "FLAT"
)

// WeinsteinParams tunes the classifier. SlopeThreshold is a relative change
// over SlopeWindow bars below which the MA counts as flat. ConfirmBars is
// the hysteresis window: a stage change must hold that many consecutive bars
// before it is accepted.
type WeinsteinParams struct {
	MAPeriod       int
	RSPeriod       int
	SlopeWindow    int
	ConfirmBars    int
	SlopeThreshold float64
}

func DefaultWeinsteinParams() WeinsteinParams {
	return WeinsteinParams{MAPeriod: 30, RSPeriod: 52, SlopeWindow: 4, ConfirmBars: 2, SlopeThreshold: 0.001}
}

func (p WeinsteinParams) validate() error {
	if p.MAPeriod <= 0 || p.RSPeriod <= 0 || p.SlopeWindow <= 0 || p.ConfirmBars <= 0 {
		return &indicator.InvalidParameterError{Indicator: "weinstein", Reason: "periods must be positive"}
	}
	return nil
}

// WeinsteinPoint is one classified bar with the raw display series.
type WeinsteinPoint struct {
	Date        time.Time `json:"date"`
	Stage       Stage     `json:"stage"`
	MA          float64   `json:"ma_30w"`
	MansfieldRS float64   `json:"mansfield_rs"`
	Slope       MASlope   `json:"ma_slope"`
}

// StageTransition records an accepted stage change.
type StageTransition struct {
	Date time.Time
	From Stage
	To   Stage
}

// stageState threads hysteresis through the bar-by-bar replay.
type stageState struct {
	current   Stage
	candidate Stage
	run       int
}

// WeinsteinStages classifies a weekly series against a benchmark, oldest to
// newest. Mansfield RS is the percent deviation of the instrument/benchmark
// ratio from its own RSPeriod moving average. The stage sequence is a pure
// function of the two input series.
func WeinsteinStages(inst, bench *market.Series, p WeinsteinParams) ([]WeinsteinPoint, []StageTransition, error) {
	if err := p.validate(); err != nil {
		return nil, nil, err
	}
	need := p.RSPeriod
	if p.MAPeriod > need {
		need = p.MAPeriod
	}
	need += p.SlopeWindow
	if inst.Len() < need {
		return nil, nil, &indicator.InsufficientDataError{Indicator: "weinstein", Need: need, Have: inst.Len()}
	}

	closes := inst.Closes()
	ma := rolling(closes, p.MAPeriod)
	ratio := benchmarkRatio(inst, bench)
	ratioMA := rolling(ratio, p.RSPeriod)

	start := p.RSPeriod - 1
	if p.MAPeriod-1 > start {
		start = p.MAPeriod - 1
	}
	start += p.SlopeWindow

	points := make([]WeinsteinPoint, 0, inst.Len()-start)
	var transitions []StageTransition
	st := stageState{}
	prevRS := 0.0
	for i := start; i < inst.Len(); i++ {
		rs := 0.0
		if ratioMA[i] != 0 {
			rs = (ratio[i]/ratioMA[i] - 1) * 100
		}
		slope := classifyMASlope(ma, i, p.SlopeWindow, p.SlopeThreshold)
		raw := rawStage(closes[i], ma[i], slope, rs, prevRS)

		var changed bool
		st, changed = stepWithConfirm(st, raw, p.ConfirmBars)
		if changed && len(points) > 0 {
			transitions = append(transitions, StageTransition{
				Date: inst.Bar(i).Date,
				From: points[len(points)-1].Stage,
				To:   st.current,
			})
		}
		points = append(points, WeinsteinPoint{
			Date:        inst.Bar(i).Date,
			Stage:       st.current,
			MA:          ma[i],
			MansfieldRS: rs,
			Slope:       slope,
		})
		prevRS = rs
	}
	return points, transitions, nil
}

func stepWithConfirm(st stageState, raw Stage, confirmBars int) (stageState, bool) {
	if st.current == StageUnknown {
		st.current = raw
		st.candidate = raw
		return st, true
	}
	if raw == st.current {
		st.candidate = st.current
		st.run = 0
		return st, false
	}
	if raw != st.candidate {
		st.candidate = raw
		st.run = 1
	} else {
		st.run++
	}
	if st.run >= confirmBars {
		st.current = raw
		st.run = 0
		return st, true
	}
	return st, false
}

// rawStage applies the stage table before hysteresis:
//
//	price above a rising MA with positive RS      -> 2 advancing
//	price above a flat/declining MA, RS off highs -> 3 topping
//	price below a declining MA with negative RS   -> 4 declining
//	otherwise                                     -> 1 basing
func rawStage(close, ma float64, slope MASlope, rs, prevRS float64) Stage {
	above := close > ma
	switch {
	case above && slope == SlopeRising && rs > 0:
		return StageAdvancing
	case above && slope != SlopeRising && (rs < prevRS || rs > 0):
		return StageTopping
	case !above && slope == SlopeFalling && rs <= 0:
		return StageDeclining
	default:
		return StageBasing
	}
}

func classifyMASlope(ma []float64, i, window int, threshold float64) MASlope {
	base := ma[i-window]
	if base == 0 {
		return SlopeFlat
	}
	rel := (ma[i] - base) / base
	switch {
	case rel > threshold:
		return SlopeRising
	case rel < -threshold:
		return SlopeFalling
	default:
		return SlopeFlat
	}
}

// benchmarkRatio divides instrument closes by benchmark closes matched by
// date, carrying the last known benchmark value across missing dates.
func benchmarkRatio(inst, bench *market.Series) []float64 {
	byDate := make(map[time.Time]float64, bench.Len())
	for i := 0; i < bench.Len(); i++ {
		b := bench.Bar(i)
		byDate[b.Date] = b.Close
	}
	out := make([]float64, inst.Len())
	last := 0.0
	bi := 0
	for i := 0; i < inst.Len(); i++ {
		d := inst.Bar(i).Date
		if v, ok := byDate[d]; ok {
			last = v
		} else {
			for bi < bench.Len() && !bench.Bar(bi).Date.After(d) {
				last = bench.Bar(bi).Close
				bi++
			}
		}
		if last != 0 {
			out[i] = inst.Bar(i).Close / last
		} else {
			out[i] = 1
		}
	}
	return out
}
