// Package indicator implements the stateless windowed functions of the
// engine: moving averages, oscillators and bands over an immutable series.
// Every function returns points aligned to the tail of the input — bars
// without enough history produce no point at all.
package indicator

import (
	"math"
	"time"
)

// Point is one dated indicator value.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// MACDPoint carries the MACD line, its signal line and their difference.
type MACDPoint struct {
	Date      time.Time `json:"date"`
	Value     float64   `json:"value"`
	Signal    float64   `json:"signal"`
	Histogram float64   `json:"histogram"`
}

// BollingerPoint carries a band triple. Upper >= Middle >= Lower always,
// with equality only on a zero-variance window.
type BollingerPoint struct {
	Date   time.Time `json:"date"`
	Upper  float64   `json:"upper"`
	Middle float64   `json:"middle"`
	Lower  float64   `json:"lower"`
}

// StochasticPoint carries %K and %D.
type StochasticPoint struct {
	Date time.Time `json:"date"`
	K    float64   `json:"k"`
	D    float64   `json:"d"`
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
