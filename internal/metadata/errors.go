package metadata

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter is returned when a caller-supplied value violates a
// precondition. It is never transient.
var ErrInvalidParameter = errors.New("invalid parameter")

// ParameterError describes which precondition failed and the offending value.
type ParameterError struct {
	Param  string
	Value  int
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidParameter, e.Reason)
}

func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameter
}

// NewPositiveError reports a value that should have been positive.
func NewPositiveError(param string, value int) *ParameterError {
	return &ParameterError{
		Param:  param,
		Value:  value,
		Reason: fmt.Sprintf("%s should be positive, but got %d", param, value),
	}
}

// NewNonNegativeError reports a value that should have been non-negative.
func NewNonNegativeError(param string, value int) *ParameterError {
	return &ParameterError{
		Param:  param,
		Value:  value,
		Reason: fmt.Sprintf("%s should be non-negative, but got %d", param, value),
	}
}
