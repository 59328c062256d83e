package market

import (
	"strings"
	"testing"
)

func TestParseCSV(t *testing.T) {
	in := `Date,Open,High,Low,Close,Volume
2024-01-08,100,105,98,103,150000
2024-01-09,103,104,100,101,120000
`
	s, err := parseCSV(strings.NewReader(in), "005930")
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 || s.Instrument != "005930" || s.Timeframe != TimeframeDaily {
		t.Fatalf("series = %+v", s)
	}
	b := s.Bar(0)
	if b.Open != 100 || b.High != 105 || b.Low != 98 || b.Close != 103 || b.Volume != 150000 {
		t.Errorf("bar = %+v", b)
	}
	if !b.Date.Equal(day(2024, 1, 8)) {
		t.Errorf("date = %v", b.Date)
	}
}

func TestParseCSVWithoutHeader(t *testing.T) {
	s, err := parseCSV(strings.NewReader("2024/01/08,1,2,0.5,1.5,100\n"), "X")
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 || !s.Bar(0).Date.Equal(day(2024, 1, 8)) {
		t.Fatalf("series = %+v", s.Bars())
	}
}

func TestParseCSVErrors(t *testing.T) {
	if _, err := parseCSV(strings.NewReader("Date,Open,High,Low,Close,Volume\nnot-a-date,1,2,3,4,5\n"), "X"); err == nil {
		t.Error("bad date accepted")
	}
	if _, err := parseCSV(strings.NewReader("2024-01-08,1,2\n"), "X"); err == nil {
		t.Error("short row accepted")
	}
	if _, err := parseCSV(strings.NewReader(""), "X"); err == nil {
		t.Error("empty input accepted")
	}
}

func TestBuildCSVRoundTrip(t *testing.T) {
	s, err := NewSeries("X", TimeframeDaily, []Bar{
		{Date: day(2024, 1, 8), Open: 100, High: 105, Low: 98, Close: 103, Volume: 150000},
	})
	if err != nil {
		t.Fatal(err)
	}
	out := BuildCSV(s)
	back, err := parseCSV(strings.NewReader(out), "X")
	if err != nil {
		t.Fatal(err)
	}
	if back.Len() != 1 || back.Bar(0) != s.Bar(0) {
		t.Fatalf("round trip lost data: %q", out)
	}
}
