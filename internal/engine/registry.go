package engine

import (
	"fmt"
	"sort"
	"time"

	"chartist/internal/detect"
	"chartist/internal/indicator"
	"chartist/internal/market"
)

// Result is the normalized output of one indicator computation, shaped so it
// can be cached as a JSON document regardless of which variant produced it.
type Result struct {
	Indicator string        `json:"indicator"`
	Params    string        `json:"params"`
	Points    []ResultPoint `json:"points"`
}

// ResultPoint carries one dated value set. Scalar indicators use the "value"
// entry; richer variants add their components. Tag holds a classification
// label where the indicator has one (VPCI).
type ResultPoint struct {
	Date   time.Time          `json:"date"`
	Values map[string]float64 `json:"values"`
	Tag    string             `json:"tag,omitempty"`
}

type computeFunc func(s *market.Series, params map[string]any) ([]ResultPoint, error)

type registryEntry struct {
	defaults map[string]any
	compute  computeFunc
}

// registry maps indicator names to their default parameters and compute
// functions. Defaults are merged into the request before cache keying, so
// an explicit {"period": 20} and an empty map hit the same cache entry.
var registry = map[string]registryEntry{
	"sma": {
		defaults: map[string]any{"period": 20},
		compute: func(s *market.Series, p map[string]any) ([]ResultPoint, error) {
			pts, err := indicator.SMA(s, intParam(p, "period"))
			return scalarPoints(pts), err
		},
	},
	"ema": {
		defaults: map[string]any{"period": 20},
		compute: func(s *market.Series, p map[string]any) ([]ResultPoint, error) {
			pts, err := indicator.EMA(s, intParam(p, "period"))
			return scalarPoints(pts), err
		},
	},
	"vwma": {
		defaults: map[string]any{"period": 20},
		compute: func(s *market.Series, p map[string]any) ([]ResultPoint, error) {
			pts, err := indicator.VWMA(s, intParam(p, "period"))
			return scalarPoints(pts), err
		},
	},
	"volume_sma": {
		defaults: map[string]any{"period": 20},
		compute: func(s *market.Series, p map[string]any) ([]ResultPoint, error) {
			pts, err := indicator.VolumeSMA(s, intParam(p, "period"))
			return scalarPoints(pts), err
		},
	},
	"rsi": {
		defaults: map[string]any{"period": 14},
		compute: func(s *market.Series, p map[string]any) ([]ResultPoint, error) {
			pts, err := indicator.RSI(s, intParam(p, "period"))
			return scalarPoints(pts), err
		},
	},
	"macd": {
		defaults: map[string]any{"fast": 12, "slow": 26, "signal": 9},
		compute: func(s *market.Series, p map[string]any) ([]ResultPoint, error) {
			pts, err := indicator.MACD(s, intParam(p, "fast"), intParam(p, "slow"), intParam(p, "signal"))
			if err != nil {
				return nil, err
			}
			out := make([]ResultPoint, len(pts))
			for i, pt := range pts {
				out[i] = ResultPoint{Date: pt.Date, Values: map[string]float64{
					"value":     pt.Value,
					"signal":    pt.Signal,
					"histogram": pt.Histogram,
				}}
			}
			return out, nil
		},
	},
	"bollinger": {
		defaults: map[string]any{"period": 20, "mult": 2.0},
		compute: func(s *market.Series, p map[string]any) ([]ResultPoint, error) {
			pts, err := indicator.Bollinger(s, intParam(p, "period"), floatParam(p, "mult"))
			return bandPoints(pts), err
		},
	},
	"keltner": {
		defaults: map[string]any{"ema": 20, "atr": 10, "mult": 2.0},
		compute: func(s *market.Series, p map[string]any) ([]ResultPoint, error) {
			pts, err := indicator.Keltner(s, intParam(p, "ema"), intParam(p, "atr"), floatParam(p, "mult"))
			return bandPoints(pts), err
		},
	},
	"stochastic": {
		defaults: map[string]any{"k": 14, "d": 3},
		compute: func(s *market.Series, p map[string]any) ([]ResultPoint, error) {
			pts, err := indicator.Stochastic(s, intParam(p, "k"), intParam(p, "d"))
			if err != nil {
				return nil, err
			}
			out := make([]ResultPoint, len(pts))
			for i, pt := range pts {
				out[i] = ResultPoint{Date: pt.Date, Values: map[string]float64{"k": pt.K, "d": pt.D}}
			}
			return out, nil
		},
	},
	"obv": {
		defaults: map[string]any{},
		compute: func(s *market.Series, p map[string]any) ([]ResultPoint, error) {
			pts, err := indicator.OBV(s)
			return scalarPoints(pts), err
		},
	},
	"vpci": {
		defaults: map[string]any{"short": 5, "long": 20, "slope": 5},
		compute: func(s *market.Series, p map[string]any) ([]ResultPoint, error) {
			pts, err := detect.VPCI(s, detect.VPCIParams{
				Short:       intParam(p, "short"),
				Long:        intParam(p, "long"),
				SlopeWindow: intParam(p, "slope"),
			})
			if err != nil {
				return nil, err
			}
			out := make([]ResultPoint, len(pts))
			for i, pt := range pts {
				out[i] = ResultPoint{
					Date: pt.Date,
					Values: map[string]float64{
						"value": pt.Value,
						"vpc":   pt.VPC,
						"vpr":   pt.VPR,
						"vm":    pt.VM,
					},
					Tag: string(pt.Signal),
				}
			}
			return out, nil
		},
	},
}

// Indicators lists every registered indicator name.
func Indicators() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func scalarPoints(pts []indicator.Point) []ResultPoint {
	out := make([]ResultPoint, len(pts))
	for i, pt := range pts {
		out[i] = ResultPoint{Date: pt.Date, Values: map[string]float64{"value": pt.Value}}
	}
	return out
}

func bandPoints(pts []indicator.BollingerPoint) []ResultPoint {
	out := make([]ResultPoint, len(pts))
	for i, pt := range pts {
		out[i] = ResultPoint{Date: pt.Date, Values: map[string]float64{
			"upper":  pt.Upper,
			"middle": pt.Middle,
			"lower":  pt.Lower,
		}}
	}
	return out
}

// mergeParams overlays the request on the indicator defaults and normalizes
// numeric types so equivalent requests key identically.
func mergeParams(defaults, req map[string]any) map[string]any {
	out := make(map[string]any, len(defaults))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range req {
		if _, known := defaults[k]; !known {
			continue
		}
		out[k] = normalizeNumber(v)
	}
	return out
}

func normalizeNumber(v any) any {
	switch t := v.(type) {
	case float64:
		if t == float64(int(t)) {
			return int(t)
		}
		return t
	case float32:
		return normalizeNumber(float64(t))
	case int64:
		return int(t)
	default:
		return v
	}
}

// intParam and floatParam read merged parameters; mergeParams guarantees the
// key exists, so a miss is a programming error.
func intParam(p map[string]any, name string) int {
	switch t := p[name].(type) {
	case int:
		return t
	case float64:
		return int(t)
	default:
		panic(fmt.Sprintf("parameter %q missing or non-numeric", name))
	}
}

func floatParam(p map[string]any, name string) float64 {
	switch t := p[name].(type) {
	case float64:
		return t
	case int:
		return float64(t)
	default:
		panic(fmt.Sprintf("parameter %q missing or non-numeric", name))
	}
}
