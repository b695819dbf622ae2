package core

import "fmt"

// ValidationError reports model output that did not satisfy the expected
// schema. Raw carries the offending text verbatim.
type ValidationError struct {
	Raw   string
	Cause error
}

func (e *ValidationError) Error() string {
	if e.Cause == nil {
		return "invalid model output"
	}
	return fmt.Sprintf("invalid model output: %v", e.Cause)
}

func (e *ValidationError) Unwrap() error { return e.Cause }
