package signal

import (
	"math"

	"chartist/internal/detect"
	"chartist/internal/market"
)

// NormalizerConfig carries the tunable strength heuristics. The divergence
// scale is a clipped linear factor, not a derived constant; treat it as
// configuration.
type NormalizerConfig struct {
	DivergenceScale   float64 // multiplier on |price slope - vpci slope|
	TransitionBase    float64 // strength assigned to confirmed stage changes
	BreakoutBase      float64 // strength of a clean box break
	FalseSignalFactor float64 // multiplier applied when VPCI diverges at the break
}

func DefaultNormalizerConfig() NormalizerConfig {
	return NormalizerConfig{
		DivergenceScale:   2.0,
		TransitionBase:    0.6,
		BreakoutBase:      0.8,
		FalseSignalFactor: 0.4,
	}
}

// Normalizer is the single producer of Signal records.
type Normalizer struct {
	cfg NormalizerConfig
}

func NewNormalizer(cfg NormalizerConfig) *Normalizer {
	return &Normalizer{cfg: cfg}
}

// FromVPCI converts divergence observations. A divergence is by definition
// an unconfirmed price move, so IsFalseSignal is always true here; strength
// grows with the disagreement between the two slopes.
func (n *Normalizer) FromVPCI(instrument string, divs []detect.VPCIDivergence) []Signal {
	out := make([]Signal, 0, len(divs))
	for _, d := range divs {
		dir := Bearish
		if d.Signal == detect.VPCIDivergeBull {
			dir = Bullish
		}
		s := newSignal(instrument, TypeVPCIDivergence, d.Date, dir)
		s.Strength = ptrFloat(clamp01(math.Abs(d.PriceSlope-d.VPCISlope) * n.cfg.DivergenceScale))
		s.IsFalseSignal = ptrBool(true)
		s.Details = map[string]any{
			"vpci":        d.VPCI,
			"price":       d.Price,
			"price_slope": d.PriceSlope,
			"vpci_slope":  d.VPCISlope,
		}
		out = append(out, s)
	}
	return out
}

// FromStageTransitions converts accepted Weinstein stage changes. Moves into
// stage 2 are bullish and into stage 4 bearish; entries into the turning
// stages 1 and 3 are warnings.
func (n *Normalizer) FromStageTransitions(instrument string, trs []detect.StageTransition) []Signal {
	out := make([]Signal, 0, len(trs))
	for _, tr := range trs {
		var dir Direction
		switch tr.To {
		case detect.StageAdvancing:
			dir = Bullish
		case detect.StageDeclining:
			dir = Bearish
		default:
			dir = Warning
		}
		s := newSignal(instrument, TypeStageTransition, tr.Date, dir)
		s.Strength = ptrFloat(clamp01(n.cfg.TransitionBase))
		s.Details = map[string]any{
			"from_stage": int(tr.From),
			"to_stage":   int(tr.To),
			"from_label": tr.From.String(),
			"to_label":   tr.To.String(),
		}
		out = append(out, s)
	}
	return out
}

// FromBoxEvents converts box breaks. Each break is cross-checked against the
// VPCI classification on the breaking bar: a diverging VPCI marks the break
// as a false signal and scales its strength down.
func (n *Normalizer) FromBoxEvents(instrument string, events []detect.BoxEvent, vpci []detect.VPCIPoint) []Signal {
	out := make([]Signal, 0, len(events))
	for _, ev := range events {
		var typ Type
		var dir Direction
		switch ev.Type {
		case detect.BoxBrokenUp:
			typ, dir = TypeBoxBreakout, Bullish
		case detect.BoxBrokenDown:
			typ, dir = TypeBoxBreakdown, Bearish
		default:
			continue
		}
		s := newSignal(instrument, typ, ev.Date, dir)
		strength := n.cfg.BreakoutBase
		vpciSig := detect.VPCIAt(vpci, ev.Date)
		if diverges(dir, vpciSig) {
			s.IsFalseSignal = ptrBool(true)
			strength *= n.cfg.FalseSignalFactor
		} else if confirms(dir, vpciSig) {
			s.IsFalseSignal = ptrBool(false)
		}
		s.Strength = ptrFloat(clamp01(strength))
		s.Details = map[string]any{
			"box_top":    ev.Box.Top,
			"box_bottom": ev.Box.Bottom,
			"vpci":       string(vpciSig),
		}
		out = append(out, s)
	}
	return out
}

// diverges reports whether the VPCI classification contradicts the break
// direction: volume not confirming an upward break, or vice versa.
func diverges(dir Direction, sig detect.VPCISignal) bool {
	switch dir {
	case Bullish:
		return sig == detect.VPCIDivergeBear
	case Bearish:
		return sig == detect.VPCIDivergeBull
	default:
		return false
	}
}

func confirms(dir Direction, sig detect.VPCISignal) bool {
	switch dir {
	case Bullish:
		return sig == detect.VPCIConfirmBull
	case Bearish:
		return sig == detect.VPCIConfirmBear
	default:
		return false
	}
}

// Collect runs every converter over one instrument's detector output and
// returns the merged, range-filtered, newest-first signal list.
func (n *Normalizer) Collect(
	instrument string,
	divs []detect.VPCIDivergence,
	trs []detect.StageTransition,
	boxEvents []detect.BoxEvent,
	vpci []detect.VPCIPoint,
	r market.DateRange,
) []Signal {
	var all []Signal
	all = append(all, n.FromVPCI(instrument, divs)...)
	all = append(all, n.FromStageTransitions(instrument, trs)...)
	all = append(all, n.FromBoxEvents(instrument, boxEvents, vpci)...)
	all = FilterRange(all, r.From, r.To)
	SortDesc(all)
	return all
}
