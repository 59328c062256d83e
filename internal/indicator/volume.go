package indicator

import (
	"chartist/internal/market"
)

// OBV is the cumulative on-balance volume: volume added on up closes,
// subtracted on down closes, unchanged on flat closes. Defined from the
// second bar.
func OBV(s *market.Series) ([]Point, error) {
	if s.Len() < 2 {
		return nil, insufficient("obv", 2, s.Len())
	}
	closes := s.Closes()
	volumes := s.Volumes()
	out := make([]Point, 0, s.Len()-1)
	total := 0.0
	for i := 1; i < len(closes); i++ {
		switch {
		case closes[i] > closes[i-1]:
			total += volumes[i]
		case closes[i] < closes[i-1]:
			total -= volumes[i]
		}
		out = append(out, Point{Date: s.Bar(i).Date, Value: total})
	}
	return out, nil
}
