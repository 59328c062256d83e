package indicator

import (
	"errors"
	"fmt"
)

// InsufficientDataError means the window is larger than the available
// history. It signals "not yet computable", not a fatal condition.
type InsufficientDataError struct {
	Indicator string
	Need      int
	Have      int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: need %d bars, have %d", e.Indicator, e.Need, e.Have)
}

// InvalidParameterError flags a parameter set that can never compute, such as
// a non-positive window or MACD fast >= slow.
type InvalidParameterError struct {
	Indicator string
	Reason    string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("%s: invalid parameter: %s", e.Indicator, e.Reason)
}

func IsInsufficientData(err error) bool {
	var t *InsufficientDataError
	return errors.As(err, &t)
}

func IsInvalidParameter(err error) bool {
	var t *InvalidParameterError
	return errors.As(err, &t)
}

func insufficient(name string, need, have int) error {
	return &InsufficientDataError{Indicator: name, Need: need, Have: have}
}

func invalidParam(name, format string, args ...any) error {
	return &InvalidParameterError{Indicator: name, Reason: fmt.Sprintf(format, args...)}
}
