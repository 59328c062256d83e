package market

import (
	"errors"
	"fmt"
	"time"
)

// DataGapError flags a duplicate or out-of-order date in an input series.
// The provider contract guarantees clean input, so this is never retried here.
type DataGapError struct {
	Instrument string
	Date       time.Time
	Reason     string
}

func (e *DataGapError) Error() string {
	return fmt.Sprintf("series %s: %s at %s", e.Instrument, e.Reason, e.Date.Format("2006-01-02"))
}

// IncompleteWeekError is returned by the weekly aggregator when finalized-only
// output is requested and the newest bucket's week has not ended yet.
type IncompleteWeekError struct {
	WeekStart time.Time
}

func (e *IncompleteWeekError) Error() string {
	return fmt.Sprintf("week starting %s is still in progress", e.WeekStart.Format("2006-01-02"))
}

func IsDataGap(err error) bool {
	var t *DataGapError
	return errors.As(err, &t)
}

func IsIncompleteWeek(err error) bool {
	var t *IncompleteWeekError
	return errors.As(err, &t)
}
