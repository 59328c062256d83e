// Package engine is the facade over the series, indicator, detector, signal
// and cache layers. Callers hand it instruments and parameter maps; it owns
// fetching bars, keying the cache and fanning batches out.
package engine

import (
	"context"
	"fmt"
	"time"

	"chartist/internal/cache"
	"chartist/internal/config"
	"chartist/internal/detect"
	"chartist/internal/indicator"
	"chartist/internal/logger"
	"chartist/internal/market"
	"chartist/internal/metrics"
	"chartist/internal/signal"
)

// SeriesProvider supplies price bars. The engine never talks to a data source
// directly; the CLI wires a CSV-backed provider, a service would wire its own.
type SeriesProvider interface {
	GetBars(ctx context.Context, instrument string, tf market.Timeframe, r market.DateRange) (*market.Series, error)
}

type Engine struct {
	provider SeriesProvider
	memo     *cache.Memo
	cfg      config.Config
	norm     *signal.Normalizer
}

// New builds an engine. When cfg.Cache.Path is set the memo gets a SQLite
// write-through tier; otherwise results live only in process.
func New(provider SeriesProvider, cfg config.Config) (*Engine, error) {
	var store cache.Store
	if cfg.Cache.Path != "" {
		s, err := cache.OpenSQLite(cfg.Cache.Path)
		if err != nil {
			return nil, err
		}
		store = s
	}
	return &Engine{
		provider: provider,
		memo:     cache.NewMemo(store),
		cfg:      cfg,
		norm: signal.NewNormalizer(signal.NormalizerConfig{
			DivergenceScale:   cfg.Signals.DivergenceScale,
			TransitionBase:    cfg.Signals.TransitionBase,
			BreakoutBase:      cfg.Signals.BreakoutBase,
			FalseSignalFactor: cfg.Signals.FalseSignalFactor,
		}),
	}, nil
}

// Compute runs one indicator over one instrument's bars. The computation
// always covers the full series prefix ending at the range's upper bound, so
// windowed values (EMA seeding, Wilder smoothing) never depend on where the
// caller's range starts; the From bound only filters the emitted points.
// Results are memoized on (instrument, indicator, timeframe, params, last bar
// date): as long as the series only grows, a repeat request is a cache hit
// regardless of its From bound.
func (e *Engine) Compute(ctx context.Context, instrument string, tf market.Timeframe, name string, params map[string]any, r market.DateRange) (Result, error) {
	ent, ok := registry[name]
	if !ok {
		return Result{}, &indicator.InvalidParameterError{Indicator: name, Reason: "unknown indicator"}
	}
	merged := mergeParams(ent.defaults, params)

	s, err := e.provider.GetBars(ctx, instrument, tf, market.DateRange{To: r.To})
	if err != nil {
		return Result{}, fmt.Errorf("get bars %s/%s: %w", instrument, tf, err)
	}
	if s.Len() == 0 {
		return Result{}, &indicator.InsufficientDataError{Indicator: name, Need: 1, Have: 0}
	}

	key := cache.NewKey(instrument, name, tf, merged, s.LastDate())
	doc, err := e.memo.Do(ctx, key, func() ([]byte, error) {
		pts, err := ent.compute(s, merged)
		if err != nil {
			return nil, err
		}
		return cache.Encode(Result{Indicator: name, Params: key.Params, Points: pts})
	})
	if err != nil {
		return Result{}, err
	}
	var res Result
	if err := cache.DecodeInto(doc, &res); err != nil {
		return Result{}, fmt.Errorf("decode cached %s: %w", key, err)
	}
	res.Points = filterPoints(res.Points, r)
	return res, nil
}

// filterPoints keeps the points whose dates fall inside r. The cached
// document always holds the full prefix; the range is applied per request.
func filterPoints(pts []ResultPoint, r market.DateRange) []ResultPoint {
	if r.From.IsZero() && r.To.IsZero() {
		return pts
	}
	out := make([]ResultPoint, 0, len(pts))
	for _, pt := range pts {
		if r.Contains(pt.Date) {
			out = append(out, pt)
		}
	}
	return out
}

// GetSignals runs the full detector pipeline for one instrument and returns
// normalized signals inside the range, newest first. Detectors always see the
// full daily history so their state machines replay deterministically; the
// range only filters the emitted signals.
func (e *Engine) GetSignals(ctx context.Context, instrument string, r market.DateRange) ([]signal.Signal, error) {
	daily, err := e.provider.GetBars(ctx, instrument, market.TimeframeDaily, market.DateRange{})
	if err != nil {
		return nil, fmt.Errorf("get bars %s/daily: %w", instrument, err)
	}

	vpciParams := detect.VPCIParams{
		Short:       e.cfg.VPCI.ShortWindow,
		Long:        e.cfg.VPCI.LongWindow,
		SlopeWindow: e.cfg.VPCI.SlopeWindow,
	}
	vpciPts, err := detect.VPCI(daily, vpciParams)
	if err != nil && !indicator.IsInsufficientData(err) {
		return nil, err
	}
	var divs []detect.VPCIDivergence
	if err == nil {
		divs = detect.Divergences(daily, vpciPts, vpciParams)
	}

	_, boxEvents, err := detect.Boxes(daily, e.cfg.Darvas.ConfirmBars)
	if err != nil && !indicator.IsInsufficientData(err) {
		return nil, err
	}

	transitions := e.stageTransitions(ctx, daily)

	sigs := e.norm.Collect(instrument, divs, transitions, boxEvents, vpciPts, r)
	for _, s := range sigs {
		metrics.SignalsEmitted.WithLabelValues(string(s.Type)).Inc()
	}
	return sigs, nil
}

// stageTransitions classifies Weinstein stages on weekly bars against the
// configured benchmark. A missing or too-short benchmark degrades to no stage
// signals rather than failing the whole query.
func (e *Engine) stageTransitions(ctx context.Context, daily *market.Series) []detect.StageTransition {
	weekly, err := market.AggregateWeekly(daily, market.WeeklyOptions{})
	if err != nil {
		logger.Warnf("weekly aggregation %s: %v", daily.Instrument, err)
		return nil
	}
	benchDaily, err := e.provider.GetBars(ctx, e.cfg.Benchmark, market.TimeframeDaily, market.DateRange{})
	if err != nil {
		logger.Warnf("benchmark %s unavailable, skipping stage analysis: %v", e.cfg.Benchmark, err)
		return nil
	}
	benchWeekly, err := market.AggregateWeekly(benchDaily, market.WeeklyOptions{})
	if err != nil {
		logger.Warnf("benchmark weekly aggregation: %v", err)
		return nil
	}
	_, transitions, err := detect.WeinsteinStages(weekly, benchWeekly, detect.WeinsteinParams{
		MAPeriod:       e.cfg.Weinstein.MAPeriod,
		RSPeriod:       e.cfg.Weinstein.RSPeriod,
		SlopeWindow:    e.cfg.Weinstein.SlopeWindow,
		ConfirmBars:    e.cfg.Weinstein.ConfirmBars,
		SlopeThreshold: e.cfg.Weinstein.SlopeThreshold,
	})
	if err != nil {
		if !indicator.IsInsufficientData(err) {
			logger.Warnf("stage analysis %s: %v", daily.Instrument, err)
		}
		return nil
	}
	return transitions
}

// Fibonacci analyzes swings and confluence zones on the instrument's daily
// bars using the configured parameters.
func (e *Engine) Fibonacci(ctx context.Context, instrument string, r market.DateRange) ([]detect.FibSet, []detect.Zone, error) {
	daily, err := e.provider.GetBars(ctx, instrument, market.TimeframeDaily, r)
	if err != nil {
		return nil, nil, fmt.Errorf("get bars %s/daily: %w", instrument, err)
	}
	return detect.AnalyzeFib(daily, detect.FibParams{
		Lookback:          e.cfg.Fibonacci.Lookback,
		PivotPeriod:       e.cfg.Fibonacci.PivotPeriod,
		MinMovePct:        e.cfg.Fibonacci.MinMovePct,
		Tolerance:         e.cfg.Fibonacci.Tolerance,
		StrengthThreshold: e.cfg.Fibonacci.StrengthThreshold,
		MaxSwings:         e.cfg.Fibonacci.MaxSwings,
	})
}

// Invalidate drops cached results for the instrument at or after the given
// date. Call it after retroactive bar corrections (splits, adjusted closes).
func (e *Engine) Invalidate(ctx context.Context, instrument string, from time.Time) error {
	return e.memo.PurgeFrom(ctx, instrument, from)
}

// Computations exposes the memo's compute counter for tests.
func (e *Engine) Computations() int64 { return e.memo.Computations() }
