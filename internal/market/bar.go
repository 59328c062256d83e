// Package market holds the bar/series data model consumed by every indicator
// and detector. A Series is validated once at construction and treated as
// immutable afterwards; all computations read it by reference.
package market

import (
	"time"
)

// Timeframe identifies the bar interval of a series.
type Timeframe string

const (
	TimeframeDaily  Timeframe = "daily"
	TimeframeWeekly Timeframe = "weekly"
)

// Bar is one OHLCV observation. Date carries only the calendar day; intraday
// components are ignored by comparisons.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// DateRange bounds a query. A zero From or To means unbounded on that side.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the range (inclusive).
func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// Day normalizes a timestamp to midnight UTC so bar dates compare cleanly.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Series is an ordered, duplicate-free sequence of bars for one
// instrument/timeframe. Missing trading days are fine; duplicate or
// out-of-order dates are an upstream contract violation.
type Series struct {
	Instrument string
	Timeframe  Timeframe
	bars       []Bar
}

// NewSeries validates ordering and uniqueness and returns the series.
// The bar slice is copied; callers keep ownership of theirs.
func NewSeries(instrument string, tf Timeframe, bars []Bar) (*Series, error) {
	out := make([]Bar, len(bars))
	for i, b := range bars {
		b.Date = Day(b.Date)
		if i > 0 {
			prev := out[i-1].Date
			if b.Date.Equal(prev) {
				return nil, &DataGapError{Instrument: instrument, Date: b.Date, Reason: "duplicate date"}
			}
			if b.Date.Before(prev) {
				return nil, &DataGapError{Instrument: instrument, Date: b.Date, Reason: "out-of-order date"}
			}
		}
		out[i] = b
	}
	return &Series{Instrument: instrument, Timeframe: tf, bars: out}, nil
}

func (s *Series) Len() int { return len(s.bars) }

// Bar returns the i-th bar (oldest first).
func (s *Series) Bar(i int) Bar { return s.bars[i] }

// Bars returns a copy of the underlying bars.
func (s *Series) Bars() []Bar {
	out := make([]Bar, len(s.bars))
	copy(out, s.bars)
	return out
}

// LastDate returns the date of the newest bar, or the zero time when empty.
func (s *Series) LastDate() time.Time {
	if len(s.bars) == 0 {
		return time.Time{}
	}
	return s.bars[len(s.bars)-1].Date
}

// Slice returns the sub-series whose dates fall inside r. The result shares
// no state with the receiver.
func (s *Series) Slice(r DateRange) *Series {
	kept := make([]Bar, 0, len(s.bars))
	for _, b := range s.bars {
		if r.Contains(b.Date) {
			kept = append(kept, b)
		}
	}
	return &Series{Instrument: s.Instrument, Timeframe: s.Timeframe, bars: kept}
}

// Tail returns the last n bars as a sub-series (all bars when n >= Len).
func (s *Series) Tail(n int) *Series {
	if n >= len(s.bars) {
		n = len(s.bars)
	}
	kept := make([]Bar, n)
	copy(kept, s.bars[len(s.bars)-n:])
	return &Series{Instrument: s.Instrument, Timeframe: s.Timeframe, bars: kept}
}

// Closes extracts the close column.
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.bars))
	for i, b := range s.bars {
		out[i] = b.Close
	}
	return out
}

// Highs extracts the high column.
func (s *Series) Highs() []float64 {
	out := make([]float64, len(s.bars))
	for i, b := range s.bars {
		out[i] = b.High
	}
	return out
}

// Lows extracts the low column.
func (s *Series) Lows() []float64 {
	out := make([]float64, len(s.bars))
	for i, b := range s.bars {
		out[i] = b.Low
	}
	return out
}

// Volumes extracts the volume column.
func (s *Series) Volumes() []float64 {
	out := make([]float64, len(s.bars))
	for i, b := range s.bars {
		out[i] = b.Volume
	}
	return out
}
