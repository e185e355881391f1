package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrInputRange is returned when a year, month, day or similar input lies outside its domain.
	ErrInputRange = errors.New("input out of range")

	// ErrDataUnavailable is returned when the remote month-start feed cannot be read.
	ErrDataUnavailable = errors.New("month-start data unavailable")

	// ErrInvalidMonthLength marks two successive records whose spacing is shorter than a lunar month.
	ErrInvalidMonthLength = errors.New("invalid month length")

	// ErrLengthUnknown is returned when the following month has not been recorded.
	ErrLengthUnknown = errors.New("month length unknown")

	// ErrUnordered is returned when record epochs do not increase with their keys.
	ErrUnordered = errors.New("month epochs out of order")
)

// InputRangeError describes which input was out of range
type InputRangeError struct {
	Field string
	Value int
	Min   int
	Max   int
}

func (e *InputRangeError) Error() string {
	return fmt.Sprintf("%s %d out of range [%d, %d]", e.Field, e.Value, e.Min, e.Max)
}

func (e *InputRangeError) Unwrap() error {
	return ErrInputRange
}

// CheckRange returns an *InputRangeError when value lies outside [min, max]
func CheckRange(field string, value, min, max int) error {
	if value < min || value > max {
		return &InputRangeError{Field: field, Value: value, Min: min, Max: max}
	}
	return nil
}

// Anomaly describes two successive records spaced outside the 29..30 day range
type Anomaly struct {
	Key  MonthKey
	Next MonthKey
	Days int
}

func (a Anomaly) Error() string {
	return fmt.Sprintf("month %s spans %d days until %s", a.Key, a.Days, a.Next)
}

func (a Anomaly) Unwrap() error {
	return ErrInvalidMonthLength
}
