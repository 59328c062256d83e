// Package signal defines the uniform Signal record and the normalizer that
// converts raw detector output into it. Nothing else in the engine is
// allowed to mint Signal values.
package signal

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Direction of a signal.
type Direction string

const (
	Bullish Direction = "BULLISH"
	Bearish Direction = "BEARISH"
	Warning Direction = "WARNING"
)

// Type identifies the detector family a signal came from.
type Type string

const (
	TypeVPCIDivergence  Type = "VPCI_DIVERGENCE"
	TypeStageTransition Type = "STAGE_TRANSITION"
	TypeBoxBreakout     Type = "BOX_BREAKOUT"
	TypeBoxBreakdown    Type = "BOX_BREAKDOWN"
)

// Signal is the uniform record emitted by the normalizer. Strength and
// IsFalseSignal are nil when the producing detector has no opinion.
type Signal struct {
	ID            string         `json:"id"`
	Instrument    string         `json:"instrument"`
	Type          Type           `json:"signal_type"`
	Date          time.Time      `json:"date"`
	Direction     Direction      `json:"direction"`
	Strength      *float64       `json:"strength,omitempty"`
	IsFalseSignal *bool          `json:"is_false_signal,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
}

func newSignal(instrument string, typ Type, date time.Time, dir Direction) Signal {
	return Signal{
		ID:         uuid.NewString(),
		Instrument: instrument,
		Type:       typ,
		Date:       date,
		Direction:  dir,
	}
}

// SortDesc orders signals newest first, the order the query surface returns.
func SortDesc(signals []Signal) {
	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].Date.After(signals[j].Date)
	})
}

// FilterRange keeps signals whose date falls inside [from, to]; zero bounds
// are open.
func FilterRange(signals []Signal, from, to time.Time) []Signal {
	out := make([]Signal, 0, len(signals))
	for _, s := range signals {
		if !from.IsZero() && s.Date.Before(from) {
			continue
		}
		if !to.IsZero() && s.Date.After(to) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func ptrFloat(v float64) *float64 { return &v }
func ptrBool(v bool) *bool        { return &v }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
