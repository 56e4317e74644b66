package filter

import (
	"errors"
	"fmt"
)

// Error codes for criterion validation
const (
	ErrCodeNegativeBound = "NEGATIVE_BOUND"
	ErrCodeUnknownStatus = "UNKNOWN_STATUS"
	ErrCodeInvalidValue  = "INVALID_VALUE"
)

// Common errors for criterion validation
var (
	// ErrNegativeBound is returned when a numeric lower bound is negative
	ErrNegativeBound = errors.New("bound must not be negative")
	// ErrUnknownStatus is returned when a status criterion is outside the closed set
	ErrUnknownStatus = errors.New("unknown status value")
	// ErrInvalidValue is returned when a criterion value has the wrong type or format
	ErrInvalidValue = errors.New("invalid criterion value")
)

// CriterionError carries structured context for a rejected criterion.
// Criteria are rejected when a query is built, never while records are scanned.
type CriterionError struct {
	Code      string
	Criterion string
	Value     string
	Message   string
	Err       error
}

func (e *CriterionError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid criterion %s=%s: %s", e.Criterion, e.Value, e.Message)
	}
	return fmt.Sprintf("invalid criterion %s: %s", e.Criterion, e.Message)
}

// Unwrap returns the sentinel error for use with errors.Is.
func (e *CriterionError) Unwrap() error {
	return e.Err
}

func newCriterionError(code, criterion, value, message string, err error) *CriterionError {
	return &CriterionError{
		Code:      code,
		Criterion: criterion,
		Value:     value,
		Message:   message,
		Err:       err,
	}
}

// NewInvalidValueError reports a criterion whose raw value could not be
// converted to the criterion's type.
func NewInvalidValueError(criterion, value string, cause error) *CriterionError {
	msg := "value has the wrong type"
	if cause != nil {
		msg = cause.Error()
	}
	return newCriterionError(ErrCodeInvalidValue, criterion, value, msg, ErrInvalidValue)
}
