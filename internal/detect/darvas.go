package detect

import (
	"time"

	"chartist/internal/indicator"
	"chartist/internal/market"
)

// BoxStatus is the lifecycle state of a Darvas box.
type BoxStatus string

const (
	BoxForming    BoxStatus = "FORMING"
	BoxActive     BoxStatus = "ACTIVE"
	BoxBrokenUp   BoxStatus = "BROKEN_UP"
	BoxBrokenDown BoxStatus = "BROKEN_DOWN"
)

// Box is one completed or in-progress box. End is nil while the box is open.
type Box struct {
	Start  time.Time  `json:"start_date"`
	End    *time.Time `json:"end_date,omitempty"`
	Top    float64    `json:"top"`
	Bottom float64    `json:"bottom"`
	Status BoxStatus  `json:"status"`
}

// BoxEvent is emitted when a box becomes active or breaks.
type BoxEvent struct {
	Date time.Time
	Type BoxStatus // ACTIVE, BROKEN_UP or BROKEN_DOWN
	Box  Box
}

// BoxState is the full detector state between bars. Zero value is not
// usable; start from NewBoxState.
type BoxState struct {
	Status BoxStatus
	Start  time.Time
	Top    float64
	Bottom float64

	topFixed  bool
	topRun    int
	botRun    int
	seeded    bool
	confirmed float64 // lowest low seen during top confirmation
}

// NewBoxState begins a fresh FORMING box.
func NewBoxState() BoxState {
	return BoxState{Status: BoxForming}
}

// StepBox advances the detector by one bar and returns the next state plus
// any events. confirmBars is the 3 of the "3-day rule".
//
// Top search: a new high resets the count; once confirmBars bars fail to
// exceed it the top is fixed and the lowest low of those confirming bars
// becomes the bottom candidate. Bottom search mirrors it. With both bounds
// fixed the box is ACTIVE until a close strictly outside [bottom, top]
// breaks it, which immediately seeds a new FORMING box at the breaking bar.
func StepBox(st BoxState, bar market.Bar, confirmBars int) (BoxState, []BoxEvent) {
	var events []BoxEvent

	if st.Status == BoxActive {
		switch {
		case bar.Close > st.Top:
			end := bar.Date
			broken := Box{Start: st.Start, End: &end, Top: st.Top, Bottom: st.Bottom, Status: BoxBrokenUp}
			events = append(events, BoxEvent{Date: bar.Date, Type: BoxBrokenUp, Box: broken})
			st = seedBox(bar)
			return st, events
		case bar.Close < st.Bottom:
			end := bar.Date
			broken := Box{Start: st.Start, End: &end, Top: st.Top, Bottom: st.Bottom, Status: BoxBrokenDown}
			events = append(events, BoxEvent{Date: bar.Date, Type: BoxBrokenDown, Box: broken})
			st = seedBox(bar)
			return st, events
		default:
			return st, nil
		}
	}

	// FORMING
	if !st.seeded {
		st = seedBox(bar)
		return st, nil
	}

	if !st.topFixed {
		if bar.High > st.Top {
			// New high restarts the ceiling search.
			st.Top = bar.High
			st.topRun = 0
			st.confirmed = bar.Low
			return st, nil
		}
		st.topRun++
		if st.topRun == 1 || bar.Low < st.confirmed {
			st.confirmed = bar.Low
		}
		if st.topRun >= confirmBars {
			st.topFixed = true
			st.Bottom = st.confirmed
			st.botRun = 0
		}
		return st, nil
	}

	// Bottom search. A new high above the fixed top discards the candidate
	// box and restarts; a lower low resets the bottom count.
	if bar.High > st.Top {
		st = seedBox(bar)
		return st, nil
	}
	if bar.Low < st.Bottom {
		st.Bottom = bar.Low
		st.botRun = 0
		return st, nil
	}
	st.botRun++
	if st.botRun >= confirmBars {
		st.Status = BoxActive
		active := Box{Start: st.Start, Top: st.Top, Bottom: st.Bottom, Status: BoxActive}
		events = append(events, BoxEvent{Date: bar.Date, Type: BoxActive, Box: active})
	}
	return st, events
}

func seedBox(bar market.Bar) BoxState {
	return BoxState{
		Status:    BoxForming,
		Start:     bar.Date,
		Top:       bar.High,
		confirmed: bar.Low,
		seeded:    true,
	}
}

// CurrentBox renders the state as a Box for display.
func (st BoxState) CurrentBox() Box {
	b := Box{Start: st.Start, Status: st.Status, Top: st.Top}
	if st.topFixed || st.Status == BoxActive {
		b.Bottom = st.Bottom
	}
	return b
}

// Boxes replays a whole series through the state machine and returns every
// completed box plus the event stream.
func Boxes(s *market.Series, confirmBars int) ([]Box, []BoxEvent, error) {
	if confirmBars <= 0 {
		return nil, nil, &indicator.InvalidParameterError{Indicator: "darvas", Reason: "confirm bars must be positive"}
	}
	if s.Len() < confirmBars*2+1 {
		return nil, nil, &indicator.InsufficientDataError{Indicator: "darvas", Need: confirmBars*2 + 1, Have: s.Len()}
	}
	st := NewBoxState()
	var boxes []Box
	var events []BoxEvent
	for i := 0; i < s.Len(); i++ {
		var evs []BoxEvent
		st, evs = StepBox(st, s.Bar(i), confirmBars)
		for _, ev := range evs {
			events = append(events, ev)
			if ev.Type == BoxBrokenUp || ev.Type == BoxBrokenDown {
				boxes = append(boxes, ev.Box)
			}
		}
	}
	if st.Status == BoxActive {
		boxes = append(boxes, st.CurrentBox())
	}
	return boxes, events, nil
}
