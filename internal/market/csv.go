package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

var csvDateLayouts = []string{"2006-01-02", "06-01-02", "2006/01/02"}

// ReadCSV loads a daily series from a CSV file with a
// Date,Open,High,Low,Close,Volume header row. Column order is fixed; extra
// trailing columns are ignored.
func ReadCSV(path, instrument string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseCSV(f, instrument)
}

func parseCSV(r io.Reader, instrument string) (*Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty csv")
	}
	start := 0
	if strings.EqualFold(strings.TrimSpace(rows[0][0]), "date") {
		start = 1
	}
	bars := make([]Bar, 0, len(rows)-start)
	for n, row := range rows[start:] {
		if len(row) < 6 {
			return nil, fmt.Errorf("csv row %d: want 6 columns, got %d", n+start+1, len(row))
		}
		date, err := parseCSVDate(row[0])
		if err != nil {
			return nil, fmt.Errorf("csv row %d: %w", n+start+1, err)
		}
		vals := make([]float64, 5)
		for i := 0; i < 5; i++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("csv row %d col %d: %w", n+start+1, i+2, err)
			}
			vals[i] = v
		}
		bars = append(bars, Bar{Date: date, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3], Volume: vals[4]})
	}
	return NewSeries(instrument, TimeframeDaily, bars)
}

func parseCSVDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range csvDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// BuildCSV renders a series back to the same format, header included.
func BuildCSV(s *Series) string {
	var b strings.Builder
	b.WriteString("Date,Open,High,Low,Close,Volume\n")
	for i := 0; i < s.Len(); i++ {
		bar := s.Bar(i)
		b.WriteString(bar.Date.Format("2006-01-02"))
		for _, v := range []float64{bar.Open, bar.High, bar.Low, bar.Close, bar.Volume} {
			b.WriteByte(',')
			b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
