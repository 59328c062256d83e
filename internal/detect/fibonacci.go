package detect

import (
	"sort"
	"strconv"
	"time"

	"chartist/internal/indicator"
	"chartist/internal/market"
)

// Retracement ratios inside the swing plus the extension targets beyond it.
var (
	fibRetraceRatios = []float64{0, 0.236, 0.382, 0.5, 0.618, 0.786, 1.0}
	fibExtendRatios  = []float64{1.272, 1.618, 2.0, 2.618}
)

// FibParams tunes swing detection and confluence clustering.
type FibParams struct {
	Lookback          int     // bars scanned for swings (252 ~ one trading year)
	PivotPeriod       int     // bars on each side a pivot must dominate
	MinMovePct        float64 // minimum swing size relative to the swing low
	Tolerance         float64 // confluence band, relative to price
	StrengthThreshold int     // contributing levels needed for high confidence
	MaxSwings         int     // swings kept for confluence
}

func DefaultFibParams() FibParams {
	return FibParams{
		Lookback:          252,
		PivotPeriod:       5,
		MinMovePct:        0.03,
		Tolerance:         0.005,
		StrengthThreshold: 3,
		MaxSwings:         3,
	}
}

func (p FibParams) validate() error {
	if p.Lookback <= 0 || p.PivotPeriod <= 0 || p.MaxSwings <= 0 {
		return &indicator.InvalidParameterError{Indicator: "fibonacci", Reason: "windows must be positive"}
	}
	if p.MinMovePct < 0 || p.Tolerance <= 0 {
		return &indicator.InvalidParameterError{Indicator: "fibonacci", Reason: "min move and tolerance must be non-negative"}
	}
	return nil
}

// Swing is one structurally connected low-to-high (Up) or high-to-low move.
type Swing struct {
	LowDate  time.Time `json:"low_date"`
	HighDate time.Time `json:"high_date"`
	Low      float64   `json:"swing_low"`
	High     float64   `json:"swing_high"`
	Up       bool      `json:"up"`
}

// FibLevel is one priced retracement or extension level.
type FibLevel struct {
	Label string  `json:"label"`
	Ratio float64 `json:"ratio"`
	Price float64 `json:"price"`
}

// FibSet is the level set derived from one swing.
type FibSet struct {
	Swing      Swing      `json:"swing"`
	Levels     []FibLevel `json:"levels"`
	Extensions []FibLevel `json:"extensions"`
}

// Zone is a confluence cluster of nearby levels from different swings.
type Zone struct {
	Low            float64  `json:"low"`
	High           float64  `json:"high"`
	Center         float64  `json:"center"`
	Strength       int      `json:"strength"`
	HighConfidence bool     `json:"high_confidence"`
	Sources        []string `json:"sources"`
}

// DetectSwings scans the lookback window for pivot highs and lows and pairs
// the most recent structurally connected ones: for an up-swing no bar
// between the low and the high may exceed the high, and the move must clear
// the minimum-size filter. Swings are returned newest first, at most
// MaxSwings of them.
func DetectSwings(s *market.Series, p FibParams) ([]Swing, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	minLen := p.PivotPeriod*2 + 2
	if s.Len() < minLen {
		return nil, &indicator.InsufficientDataError{Indicator: "fibonacci", Need: minLen, Have: s.Len()}
	}
	w := s.Tail(p.Lookback)
	highs := w.Highs()
	lows := w.Lows()

	phIdx := pivotIndexes(highs, p.PivotPeriod, true)
	plIdx := pivotIndexes(lows, p.PivotPeriod, false)
	if len(phIdx) == 0 || len(plIdx) == 0 {
		return nil, nil
	}

	var swings []Swing
	for _, h := range phIdx { // newest first
		for _, l := range plIdx {
			var sw Swing
			var ok bool
			if l < h {
				sw, ok = buildSwing(w, highs, lows, l, h, true, p.MinMovePct)
			} else if h < l {
				sw, ok = buildSwing(w, highs, lows, h, l, false, p.MinMovePct)
			}
			if !ok {
				continue
			}
			if containsSwing(swings, sw) {
				continue
			}
			swings = append(swings, sw)
			break
		}
		if len(swings) >= p.MaxSwings {
			break
		}
	}
	return swings, nil
}

// buildSwing validates structural connection between the two pivots.
func buildSwing(w *market.Series, highs, lows []float64, from, to int, up bool, minMove float64) (Swing, bool) {
	var low, high float64
	var lowIdx, highIdx int
	if up {
		lowIdx, highIdx = from, to
	} else {
		highIdx, lowIdx = from, to
	}
	low = lows[lowIdx]
	high = highs[highIdx]
	if high <= low || low <= 0 {
		return Swing{}, false
	}
	if (high-low)/low < minMove {
		return Swing{}, false
	}
	for i := from + 1; i < to; i++ {
		if up && highs[i] > high {
			return Swing{}, false
		}
		if !up && lows[i] < low {
			return Swing{}, false
		}
	}
	return Swing{
		LowDate:  w.Bar(lowIdx).Date,
		HighDate: w.Bar(highIdx).Date,
		Low:      low,
		High:     high,
		Up:       up,
	}, true
}

func containsSwing(swings []Swing, sw Swing) bool {
	for _, s := range swings {
		if s.Low == sw.Low && s.High == sw.High && s.Up == sw.Up {
			return true
		}
	}
	return false
}

// pivotIndexes returns pivot positions newest first, mirroring the scan the
// divergence detector uses.
func pivotIndexes(values []float64, prd int, isHigh bool) []int {
	var out []int
	for i := len(values) - 1 - prd; i >= prd; i-- {
		center := values[i]
		ok := true
		for j := i - prd; j <= i+prd; j++ {
			if j == i {
				continue
			}
			if isHigh && values[j] > center {
				ok = false
				break
			}
			if !isHigh && values[j] < center {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, i)
		}
	}
	return out
}

// Retracement prices the standard levels for one swing. For an up-swing
// price = low + ratio·(high-low), so levels are monotonic from the swing low
// (ratio 0) to the swing high (ratio 1) and extensions continue above it.
// Down-swings mirror from the high.
func Retracement(sw Swing) FibSet {
	set := FibSet{Swing: sw}
	diff := sw.High - sw.Low
	price := func(r float64) float64 {
		if sw.Up {
			return sw.Low + r*diff
		}
		return sw.High - r*diff
	}
	for _, r := range fibRetraceRatios {
		set.Levels = append(set.Levels, FibLevel{Label: fibLabel(r), Ratio: r, Price: price(r)})
	}
	for _, r := range fibExtendRatios {
		set.Extensions = append(set.Extensions, FibLevel{Label: fibLabel(r), Ratio: r, Price: price(r)})
	}
	return set
}

func fibLabel(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// Confluence merges levels from multiple swings that sit within the
// tolerance band into zones. Strength counts contributing levels; zones at
// or above the threshold are flagged high-confidence.
func Confluence(sets []FibSet, tolerance float64, threshold int) []Zone {
	type tagged struct {
		price  float64
		source string
	}
	var levels []tagged
	for i, set := range sets {
		prefix := "swing" + strconv.Itoa(i+1) + ":"
		for _, l := range set.Levels {
			levels = append(levels, tagged{price: l.Price, source: prefix + l.Label})
		}
	}
	if len(levels) == 0 {
		return nil
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].price < levels[j].price })

	var zones []Zone
	cur := Zone{Low: levels[0].price, High: levels[0].price, Strength: 1, Sources: []string{levels[0].source}}
	for _, l := range levels[1:] {
		center := (cur.High + l.price) / 2
		if center > 0 && (l.price-cur.High)/center <= tolerance {
			cur.High = l.price
			cur.Strength++
			cur.Sources = append(cur.Sources, l.source)
			continue
		}
		zones = append(zones, finishZone(cur, threshold))
		cur = Zone{Low: l.price, High: l.price, Strength: 1, Sources: []string{l.source}}
	}
	zones = append(zones, finishZone(cur, threshold))

	sort.Slice(zones, func(i, j int) bool { return zones[i].Strength > zones[j].Strength })
	return zones
}

func finishZone(z Zone, threshold int) Zone {
	z.Center = (z.Low + z.High) / 2
	z.HighConfidence = z.Strength >= threshold
	return z
}

// AnalyzeFib runs the full pipeline: dominant-swing detection, level
// computation for every kept swing, and confluence clustering. The first
// returned set belongs to the dominant (most recent) swing.
func AnalyzeFib(s *market.Series, p FibParams) ([]FibSet, []Zone, error) {
	swings, err := DetectSwings(s, p)
	if err != nil {
		return nil, nil, err
	}
	sets := make([]FibSet, 0, len(swings))
	for _, sw := range swings {
		sets = append(sets, Retracement(sw))
	}
	zones := Confluence(sets, p.Tolerance, p.StrengthThreshold)
	return sets, zones, nil
}
