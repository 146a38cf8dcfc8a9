package stops

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidInput marks non-positive prices, non-positive share counts and policy
// percentages outside (0, 1). Callers skip the position for the cycle.
var ErrInvalidInput = errors.New("invalid input")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// SkipError records a position that was left untouched during a cycle.
type SkipError struct {
	Symbol string
	Err    error
}

func (e SkipError) Error() string {
	return fmt.Sprintf("%s skipped: %v", e.Symbol, e.Err)
}

func (e SkipError) Unwrap() error { return e.Err }

// MarshalJSON writes the error as its message.
func (e SkipError) MarshalJSON() ([]byte, error) {
	reason := ""
	if e.Err != nil {
		reason = e.Err.Error()
	}
	return json.Marshal(struct {
		Symbol string `json:"symbol"`
		Reason string `json:"reason"`
	}{e.Symbol, reason})
}
