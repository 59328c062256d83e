// Package config holds every tunable of the engine. The divergence and
// strength thresholds are heuristics, not invariants, so they all live here
// rather than as constants next to the detectors.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	LogLevel  string          `toml:"log_level"`
	Benchmark string          `toml:"benchmark"` // instrument used for Mansfield RS
	Batch     BatchConfig     `toml:"batch"`
	Cache     CacheConfig     `toml:"cache"`
	VPCI      VPCIConfig      `toml:"vpci"`
	Weinstein WeinsteinConfig `toml:"weinstein"`
	Darvas    DarvasConfig    `toml:"darvas"`
	Fibonacci FibonacciConfig `toml:"fibonacci"`
	Signals   SignalConfig    `toml:"signals"`
}

type BatchConfig struct {
	Workers int `toml:"workers"`
}

type CacheConfig struct {
	Path string `toml:"path"` // empty disables the persistent tier
}

type VPCIConfig struct {
	ShortWindow int `toml:"short_window"`
	LongWindow  int `toml:"long_window"`
	SlopeWindow int `toml:"slope_window"`
}

type WeinsteinConfig struct {
	MAPeriod       int     `toml:"ma_period"`
	RSPeriod       int     `toml:"rs_period"`
	SlopeWindow    int     `toml:"slope_window"`
	ConfirmBars    int     `toml:"confirm_bars"`
	SlopeThreshold float64 `toml:"slope_threshold"`
}

type DarvasConfig struct {
	ConfirmBars int `toml:"confirm_bars"`
}

type FibonacciConfig struct {
	Lookback          int     `toml:"lookback"`
	PivotPeriod       int     `toml:"pivot_period"`
	MinMovePct        float64 `toml:"min_move_pct"`
	Tolerance         float64 `toml:"tolerance"`
	StrengthThreshold int     `toml:"strength_threshold"`
	MaxSwings         int     `toml:"max_swings"`
}

type SignalConfig struct {
	DivergenceScale   float64 `toml:"divergence_scale"`
	TransitionBase    float64 `toml:"transition_base"`
	BreakoutBase      float64 `toml:"breakout_base"`
	FalseSignalFactor float64 `toml:"false_signal_factor"`
}

// Default returns the documented defaults.
func Default() Config {
	return Config{
		LogLevel:  "info",
		Benchmark: "KOSPI",
		Batch:     BatchConfig{Workers: 4},
		VPCI:      VPCIConfig{ShortWindow: 5, LongWindow: 20, SlopeWindow: 5},
		Weinstein: WeinsteinConfig{
			MAPeriod:       30,
			RSPeriod:       52,
			SlopeWindow:    4,
			ConfirmBars:    2,
			SlopeThreshold: 0.001,
		},
		Darvas: DarvasConfig{ConfirmBars: 3},
		Fibonacci: FibonacciConfig{
			Lookback:          252,
			PivotPeriod:       5,
			MinMovePct:        0.03,
			Tolerance:         0.005,
			StrengthThreshold: 3,
			MaxSwings:         3,
		},
		Signals: SignalConfig{
			DivergenceScale:   2.0,
			TransitionBase:    0.6,
			BreakoutBase:      0.8,
			FalseSignalFactor: 0.4,
		},
	}
}

// Load overlays a TOML file on the defaults. A missing path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
