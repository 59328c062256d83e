package market

import "time"

// WeeklyOptions controls daily-to-weekly aggregation.
type WeeklyOptions struct {
	// FinalizedOnly rejects a trailing bucket whose calendar week has not
	// ended yet (relative to Now) instead of emitting a partial bar.
	FinalizedOnly bool
	// Now anchors the in-progress check; zero means time.Now().
	Now time.Time
}

// WeekStart returns the Monday of t's calendar week, at midnight UTC.
func WeekStart(t time.Time) time.Time {
	d := Day(t)
	offset := (int(d.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return d.AddDate(0, 0, -offset)
}

// AggregateWeekly rolls a daily series into Monday-anchored weekly bars:
// open = first daily open, close = last daily close, high/low = weekly
// extremes, volume = sum. Weeks with no trading days simply produce no bar.
func AggregateWeekly(daily *Series, opts WeeklyOptions) (*Series, error) {
	if daily.Len() == 0 {
		return &Series{Instrument: daily.Instrument, Timeframe: TimeframeWeekly}, nil
	}

	weekly := make([]Bar, 0, daily.Len()/5+1)
	var cur Bar
	var curWeek time.Time
	open := false

	flush := func() {
		if open {
			weekly = append(weekly, cur)
			open = false
		}
	}

	for i := 0; i < daily.Len(); i++ {
		b := daily.Bar(i)
		ws := WeekStart(b.Date)
		if !open || !ws.Equal(curWeek) {
			flush()
			curWeek = ws
			cur = Bar{Date: ws, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
			open = true
			continue
		}
		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Volume += b.Volume
	}
	flush()

	if opts.FinalizedOnly && len(weekly) > 0 {
		now := opts.Now
		if now.IsZero() {
			now = time.Now()
		}
		last := weekly[len(weekly)-1]
		if WeekStart(now).Equal(last.Date) {
			return nil, &IncompleteWeekError{WeekStart: last.Date}
		}
	}

	return &Series{Instrument: daily.Instrument, Timeframe: TimeframeWeekly, bars: weekly}, nil
}
