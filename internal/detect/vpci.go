// Package detect implements the pattern detectors built on top of the
// indicator library: VPCI divergence, Weinstein stages, Darvas boxes and
// Fibonacci retracements. Detectors with internal state are written as pure
// transition functions so a run can be replayed deterministically.
package detect

import (
	"math"
	"time"

	"chartist/internal/indicator"
	"chartist/internal/market"
)

// VPCISignal is the per-bar confirmation/divergence classification.
type VPCISignal string

const (
	VPCINeutral     VPCISignal = "NEUTRAL"
	VPCIConfirmBull VPCISignal = "CONFIRM_BULL"
	VPCIConfirmBear VPCISignal = "CONFIRM_BEAR"
	VPCIDivergeBull VPCISignal = "DIVERGE_BULL"
	VPCIDivergeBear VPCISignal = "DIVERGE_BEAR"
)

// VPCIParams selects the component windows. SlopeWindow is the horizon used
// to classify price/VPCI direction agreement.
type VPCIParams struct {
	Short       int
	Long        int
	SlopeWindow int
}

func DefaultVPCIParams() VPCIParams {
	return VPCIParams{Short: 5, Long: 20, SlopeWindow: 5}
}

func (p VPCIParams) validate() error {
	if p.Short <= 0 || p.Long <= 0 || p.SlopeWindow <= 0 {
		return &indicator.InvalidParameterError{Indicator: "vpci", Reason: "windows must be positive"}
	}
	if p.Short >= p.Long {
		return &indicator.InvalidParameterError{Indicator: "vpci", Reason: "short window must be below long window"}
	}
	return nil
}

// VPCIPoint is one bar of the volume price confirmation indicator with its
// components and classification.
type VPCIPoint struct {
	Date   time.Time  `json:"date"`
	Value  float64    `json:"value"`
	VPC    float64    `json:"vpc"`
	VPR    float64    `json:"vpr"`
	VM     float64    `json:"vm"`
	Signal VPCISignal `json:"signal"`
}

// VPCIDivergence is one DIVERGE_* observation with the slopes that produced
// it, kept so the normalizer can derive a strength.
type VPCIDivergence struct {
	Date       time.Time
	Signal     VPCISignal // DIVERGE_BULL or DIVERGE_BEAR
	Price      float64
	VPCI       float64
	PriceSlope float64 // relative close change over the slope window
	VPCISlope  float64 // VPCI change over the slope window, scale-normalized
}

// VPCI computes VPC·VPR·VM:
//
//	VPC = VWMA_long - SMA_long          (volume confirms or contradicts price)
//	VPR = VWMA_short / SMA_short        (short-term price/volume cohesion)
//	VM  = VolSMA_short / VolSMA_long    (recent volume expansion)
//
// Points exist from the first bar with a full long window. Classification
// needs SlopeWindow bars of VPCI history; earlier points stay NEUTRAL.
func VPCI(s *market.Series, p VPCIParams) ([]VPCIPoint, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if s.Len() < p.Long {
		return nil, &indicator.InsufficientDataError{Indicator: "vpci", Need: p.Long, Have: s.Len()}
	}

	closes := s.Closes()
	volumes := s.Volumes()

	smaCloseL := rolling(closes, p.Long)
	smaCloseS := rolling(closes, p.Short)
	volL := rolling(volumes, p.Long)
	volS := rolling(volumes, p.Short)
	vwmaL := vwma(closes, volumes, p.Long)
	vwmaS := vwma(closes, volumes, p.Short)

	out := make([]VPCIPoint, 0, s.Len()-p.Long+1)
	for i := p.Long - 1; i < s.Len(); i++ {
		vpc := vwmaL[i] - smaCloseL[i]
		vpr := 1.0
		if smaCloseS[i] != 0 {
			vpr = vwmaS[i] / smaCloseS[i]
		}
		vm := 1.0
		if volL[i] != 0 {
			vm = volS[i] / volL[i]
		}
		out = append(out, VPCIPoint{
			Date:   s.Bar(i).Date,
			Value:  vpc * vpr * vm,
			VPC:    vpc,
			VPR:    vpr,
			VM:     vm,
			Signal: VPCINeutral,
		})
	}

	classifyVPCI(s, out, p)
	return out, nil
}

// classifyVPCI fills Signal on points that have SlopeWindow bars of history.
// Rising price with rising VPCI confirms the move; opposite slopes diverge.
func classifyVPCI(s *market.Series, pts []VPCIPoint, p VPCIParams) {
	k := p.SlopeWindow
	offset := p.Long - 1 // pts[i] corresponds to bar offset+i
	for i := k; i < len(pts); i++ {
		barIdx := offset + i
		priceSlope := s.Bar(barIdx).Close - s.Bar(barIdx-k).Close
		vpciSlope := pts[i].Value - pts[i-k].Value
		pts[i].Signal = classifySlopes(priceSlope, vpciSlope)
	}
}

func classifySlopes(priceSlope, vpciSlope float64) VPCISignal {
	switch {
	case priceSlope > 0 && vpciSlope > 0:
		return VPCIConfirmBull
	case priceSlope < 0 && vpciSlope < 0:
		return VPCIConfirmBear
	case priceSlope < 0 && vpciSlope > 0:
		return VPCIDivergeBull
	case priceSlope > 0 && vpciSlope < 0:
		return VPCIDivergeBear
	default:
		return VPCINeutral
	}
}

// VPCIDivergences computes the indicator and extracts its divergences in one
// call. Callers that already hold the points use Divergences directly.
func VPCIDivergences(s *market.Series, p VPCIParams) ([]VPCIDivergence, error) {
	pts, err := VPCI(s, p)
	if err != nil {
		return nil, err
	}
	return Divergences(s, pts, p), nil
}

// Divergences extracts every DIVERGE_* point from an already classified run
// with normalized slopes. Price slope is relative to the close k bars back;
// VPCI slope is scaled by the mean magnitude of the VPCI over the window so
// the two are comparable.
func Divergences(s *market.Series, pts []VPCIPoint, p VPCIParams) []VPCIDivergence {
	k := p.SlopeWindow
	offset := p.Long - 1
	divs := make([]VPCIDivergence, 0)
	for i := k; i < len(pts); i++ {
		sig := pts[i].Signal
		if sig != VPCIDivergeBull && sig != VPCIDivergeBear {
			continue
		}
		barIdx := offset + i
		base := s.Bar(barIdx - k).Close
		priceSlope := 0.0
		if base != 0 {
			priceSlope = (s.Bar(barIdx).Close - base) / base
		}
		scale := 0.0
		for j := i - k; j <= i; j++ {
			scale += math.Abs(pts[j].Value)
		}
		scale /= float64(k + 1)
		vpciSlope := pts[i].Value - pts[i-k].Value
		if scale > 0 {
			vpciSlope /= scale
		}
		divs = append(divs, VPCIDivergence{
			Date:       pts[i].Date,
			Signal:     sig,
			Price:      s.Bar(barIdx).Close,
			VPCI:       pts[i].Value,
			PriceSlope: priceSlope,
			VPCISlope:  vpciSlope,
		})
	}
	return divs
}

// VPCIAt returns the classification on a given date, NEUTRAL when the date
// has no point.
func VPCIAt(pts []VPCIPoint, date time.Time) VPCISignal {
	date = market.Day(date)
	for i := len(pts) - 1; i >= 0; i-- {
		if pts[i].Date.Equal(date) {
			return pts[i].Signal
		}
		if pts[i].Date.Before(date) {
			break
		}
	}
	return VPCINeutral
}

// rolling returns the full-length running mean, NaN before the window fills.
func rolling(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(period)
	}
	return out
}

// vwma returns the full-length volume-weighted mean, NaN before the window
// fills; zero-volume windows fall back to the plain mean.
func vwma(closes, volumes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	sumPV, sumV, sumC := 0.0, 0.0, 0.0
	for i := range closes {
		sumPV += closes[i] * volumes[i]
		sumV += volumes[i]
		sumC += closes[i]
		if i >= period {
			sumPV -= closes[i-period] * volumes[i-period]
			sumV -= volumes[i-period]
			sumC -= closes[i-period]
		}
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		if sumV > 0 {
			out[i] = sumPV / sumV
		} else {
			out[i] = sumC / float64(period)
		}
	}
	return out
}
