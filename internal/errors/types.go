package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

type ErrorCategory string

const (
	ValidationError     ErrorCategory = "validation"
	AuthenticationError ErrorCategory = "authentication"
	ExecutionError      ErrorCategory = "execution"
	NetworkError        ErrorCategory = "network"
	ReportError         ErrorCategory = "report"
)

type ActionError struct {
	Category ErrorCategory
	Op       string // Step that failed
	Field    string // Input or resource name (when applicable)
	Cause    error  // Underlying error
}

func (e *ActionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s failed for %s: %v", e.Op, e.Field, e.Cause)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Cause)
}

func (e *ActionError) Unwrap() error { return e.Cause }

// PolicyViolationError is returned when the scan report counts policy issues
// and the run was asked to fail on them.
type PolicyViolationError struct {
	Count int
}

func (e *PolicyViolationError) Error() string {
	return fmt.Sprintf("Found %d policy violations", e.Count)
}

func NewValidationError(op, field string, cause error) *ActionError {
	return &ActionError{
		Category: ValidationError,
		Op:       op,
		Field:    field,
		Cause:    cause,
	}
}

func NewAuthenticationError(op, field string, cause error) *ActionError {
	return &ActionError{
		Category: AuthenticationError,
		Op:       op,
		Field:    field,
		Cause:    errors.WithStack(cause),
	}
}

func NewExecutionError(op, field string, cause error) *ActionError {
	return &ActionError{
		Category: ExecutionError,
		Op:       op,
		Field:    field,
		Cause:    errors.WithStack(cause),
	}
}

func NewNetworkError(op, field string, cause error) *ActionError {
	return &ActionError{
		Category: NetworkError,
		Op:       op,
		Field:    field,
		Cause:    errors.WithStack(cause),
	}
}

func NewReportError(op, field string, cause error) *ActionError {
	return &ActionError{
		Category: ReportError,
		Op:       op,
		Field:    field,
		Cause:    errors.WithStack(cause),
	}
}

// CategoryOf returns the category of the first ActionError in err's chain.
func CategoryOf(err error) (ErrorCategory, bool) {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae.Category, true
	}
	return "", false
}

// IsPolicyViolation reports whether err carries a PolicyViolationError.
func IsPolicyViolation(err error) (int, bool) {
	var pv *PolicyViolationError
	if errors.As(err, &pv) {
		return pv.Count, true
	}
	return 0, false
}
