// chartist computes technical indicators and detector signals over OHLCV
// series loaded from CSV files.
//
// Usage:
//
//	chartist -csv data/005930.csv -instrument 005930 [-benchmark-csv data/KOSPI.csv] \
//	    [-indicator rsi] [-signals] [-fib] [-config chartist.toml]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"chartist/internal/config"
	"chartist/internal/detect"
	"chartist/internal/engine"
	"chartist/internal/logger"
	"chartist/internal/market"
	"chartist/internal/signal"
)

type csvProvider struct {
	daily map[string]*market.Series
}

func (p *csvProvider) GetBars(ctx context.Context, instrument string, tf market.Timeframe, r market.DateRange) (*market.Series, error) {
	s, ok := p.daily[instrument]
	if !ok {
		return nil, fmt.Errorf("no data loaded for %q", instrument)
	}
	if tf == market.TimeframeWeekly {
		var err error
		if s, err = market.AggregateWeekly(s, market.WeeklyOptions{}); err != nil {
			return nil, err
		}
	}
	return s.Slice(r), nil
}

func main() {
	var (
		cfgPath    = flag.String("config", "", "TOML config path")
		csvPath    = flag.String("csv", "", "instrument OHLCV csv")
		instrument = flag.String("instrument", "", "instrument code")
		benchCSV   = flag.String("benchmark-csv", "", "benchmark OHLCV csv (for stage analysis)")
		indName    = flag.String("indicator", "vpci", "indicator to compute: "+strings.Join(engine.Indicators(), ", "))
		tail       = flag.Int("tail", 10, "rows of indicator output to print")
		showSigs   = flag.Bool("signals", false, "run detectors and print signals")
		showFib    = flag.Bool("fib", false, "print fibonacci retracements and confluence zones")
	)
	flag.Parse()

	if *csvPath == "" || *instrument == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fatal(err)
	}
	logger.SetLevel(cfg.LogLevel)

	prov := &csvProvider{daily: map[string]*market.Series{}}
	s, err := market.ReadCSV(*csvPath, *instrument)
	if err != nil {
		fatal(err)
	}
	prov.daily[*instrument] = s
	if *benchCSV != "" {
		b, err := market.ReadCSV(*benchCSV, cfg.Benchmark)
		if err != nil {
			fatal(err)
		}
		prov.daily[cfg.Benchmark] = b
	}

	eng, err := engine.New(prov, cfg)
	if err != nil {
		fatal(err)
	}
	ctx := context.Background()

	res, err := eng.Compute(ctx, *instrument, market.TimeframeDaily, *indName, nil, market.DateRange{})
	if err != nil {
		fatal(err)
	}
	printResult(res, *tail)

	if *showSigs {
		sigs, err := eng.GetSignals(ctx, *instrument, market.DateRange{})
		if err != nil {
			fatal(err)
		}
		printSignals(sigs)
	}
	if *showFib {
		sets, zones, err := eng.Fibonacci(ctx, *instrument, market.DateRange{})
		if err != nil {
			fatal(err)
		}
		printFib(sets, zones)
	}
}

func printResult(res engine.Result, tail int) {
	pts := res.Points
	if tail > 0 && len(pts) > tail {
		pts = pts[len(pts)-tail:]
	}
	cols := valueColumns(pts)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("%s(%s)", res.Indicator, res.Params)
	header := table.Row{"date"}
	for _, c := range cols {
		header = append(header, c)
	}
	header = append(header, "tag")
	t.AppendHeader(header)
	for _, pt := range pts {
		row := table.Row{pt.Date.Format("2006-01-02")}
		for _, c := range cols {
			row = append(row, fmt.Sprintf("%.4f", pt.Values[c]))
		}
		row = append(row, pt.Tag)
		t.AppendRow(row)
	}
	t.Render()
}

// valueColumns puts "value" first and the remaining component names after it,
// in a stable order.
func valueColumns(pts []engine.ResultPoint) []string {
	if len(pts) == 0 {
		return nil
	}
	var cols []string
	seen := map[string]bool{}
	for name := range pts[0].Values {
		if name != "value" {
			cols = append(cols, name)
		}
		seen[name] = true
	}
	sort.Strings(cols)
	if seen["value"] {
		cols = append([]string{"value"}, cols...)
	}
	return cols
}

func printSignals(sigs []signal.Signal) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("signals (%d)", len(sigs))
	t.AppendHeader(table.Row{"date", "type", "direction", "strength", "false?", "details"})
	for _, s := range sigs {
		strength := "-"
		if s.Strength != nil {
			strength = fmt.Sprintf("%.2f", *s.Strength)
		}
		falseMark := "-"
		if s.IsFalseSignal != nil {
			falseMark = fmt.Sprintf("%v", *s.IsFalseSignal)
		}
		t.AppendRow(table.Row{
			s.Date.Format("2006-01-02"), s.Type, s.Direction, strength, falseMark, detailSummary(s.Details),
		})
	}
	t.Render()
}

func detailSummary(details map[string]any) string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, details[k]))
	}
	return strings.Join(parts, " ")
}

func printFib(sets []detect.FibSet, zones []detect.Zone) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("fibonacci levels (%d swings)", len(sets))
	t.AppendHeader(table.Row{"swing", "from", "to", "level", "price"})
	for i, set := range sets {
		dir := "down"
		from, to := set.Swing.HighDate, set.Swing.LowDate
		if set.Swing.Up {
			dir = "up"
			from, to = set.Swing.LowDate, set.Swing.HighDate
		}
		label := fmt.Sprintf("#%d %s %.2f..%.2f", i+1, dir, set.Swing.Low, set.Swing.High)
		for _, lv := range append(set.Levels, set.Extensions...) {
			t.AppendRow(table.Row{label, from.Format("2006-01-02"), to.Format("2006-01-02"), lv.Label, fmt.Sprintf("%.2f", lv.Price)})
			label = ""
		}
	}
	t.Render()

	z := table.NewWriter()
	z.SetOutputMirror(os.Stdout)
	z.SetTitle("confluence zones (%d)", len(zones))
	z.AppendHeader(table.Row{"low", "high", "center", "strength", "high confidence"})
	for _, zone := range zones {
		z.AppendRow(table.Row{
			fmt.Sprintf("%.2f", zone.Low), fmt.Sprintf("%.2f", zone.High),
			fmt.Sprintf("%.2f", zone.Center), zone.Strength, zone.HighConfidence,
		})
	}
	z.Render()
}

func fatal(err error) {
	logger.Errorf("%v", err)
	os.Exit(1)
}
