package aaa

import (
	"errors"
	"fmt"
)

// ValidationErrorCode categorizes pipeline/schedule shape rejections.
type ValidationErrorCode string

const (
	// ErrCodePipelineTooLong: step count exceeds the class bound.
	ErrCodePipelineTooLong ValidationErrorCode = "PIPELINE_TOO_LONG"

	// ErrCodeTooManyConditions: a step's condition count exceeds
	// MaxConditionsPerStep.
	ErrCodeTooManyConditions ValidationErrorCode = "TOO_MANY_CONDITIONS"

	// ErrCodePrivilegedTaskForbidden: a user pipeline carries a
	// privileged task kind (Mint).
	ErrCodePrivilegedTaskForbidden ValidationErrorCode = "PRIVILEGED_TASK_FORBIDDEN"

	// ErrCodeMalformedTask: the task union's populated parameters do
	// not match its Kind tag, or required parameters are missing.
	ErrCodeMalformedTask ValidationErrorCode = "MALFORMED_TASK"

	// ErrCodeMalformedCondition: same, for the condition union.
	ErrCodeMalformedCondition ValidationErrorCode = "MALFORMED_CONDITION"

	// ErrCodeBadSchedule: unknown trigger kind.
	ErrCodeBadSchedule ValidationErrorCode = "BAD_SCHEDULE"

	// ErrCodeTooManyRefundAssets: refundable-asset list exceeds
	// MaxRefundableAssets.
	ErrCodeTooManyRefundAssets ValidationErrorCode = "TOO_MANY_REFUND_ASSETS"

	// ErrCodeBadIdentifier: an account or asset identifier is empty or
	// not normalizable.
	ErrCodeBadIdentifier ValidationErrorCode = "BAD_IDENTIFIER"
)

// ValidationError is returned synchronously by every mutating entry
// point when the submitted shape violates a bound. No state changes on
// a validation error.
type ValidationError struct {
	Code ValidationErrorCode
	// Step is the offending step index, or -1 when the error is not
	// step-scoped.
	Step    int
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Step >= 0 {
		return fmt.Sprintf("%s: step %d: %s", e.Code, e.Step, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ValidationCode extracts the code from a wrapped ValidationError, or
// "" when err is not one.
func ValidationCode(err error) ValidationErrorCode {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return ""
}

func newValidationError(code ValidationErrorCode, step int, format string, args ...any) *ValidationError {
	return &ValidationError{
		Code:    code,
		Step:    step,
		Message: fmt.Sprintf(format, args...),
	}
}
