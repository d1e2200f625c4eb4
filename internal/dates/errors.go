package dates

import "fmt"

// NormalizationError is returned when a value cannot be turned into a
// calendar-day key. Raw holds the original input for diagnostics.
type NormalizationError struct {
	Raw    string
	Reason string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("cannot normalize date %q: %s", e.Raw, e.Reason)
}

func newNormalizationError(raw, reason string) *NormalizationError {
	return &NormalizationError{Raw: raw, Reason: reason}
}
