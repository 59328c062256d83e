// Package cache memoizes computed indicator results. Keys cover the full
// identity of a computation; because input series are append-only, a cached
// value stays valid until bars are retroactively corrected, which purges the
// instrument from the corrected date forward.
package cache

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"chartist/internal/market"
)

// Key identifies one cached computation. Params and Date are stored in
// canonical string form so keys compare and hash by value.
type Key struct {
	Instrument string
	Indicator  string
	Timeframe  market.Timeframe
	Params     string
	Date       string
}

// NewKey canonicalizes the parameter map and date. Semantically identical
// parameter sets produce identical keys regardless of construction order.
func NewKey(instrument, indicator string, tf market.Timeframe, params map[string]any, date time.Time) Key {
	return Key{
		Instrument: instrument,
		Indicator:  indicator,
		Timeframe:  tf,
		Params:     CanonicalParams(params),
		Date:       market.Day(date).Format("2006-01-02"),
	}
}

func (k Key) String() string {
	return strings.Join([]string{k.Instrument, k.Indicator, string(k.Timeframe), k.Params, k.Date}, "|")
}

// CanonicalParams serializes a parameter map with sorted keys and normalized
// numeric formatting ("k=v;k=v").
func CanonicalParams(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(canonicalValue(params[k]))
	}
	return b.String()
}

func canonicalValue(v any) string {
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}
