package core

import "fmt"

// ValidationError reports invalid submission input: empty content, a missing
// project id, or a missing required field. It is always recoverable by the
// caller (fix the input and retry) and is never a server fault.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
