package registry

import (
	"errors"
	"fmt"

	"github.com/cindergrid/automaton/internal/aaa"
)

// ErrorCode categorizes registry rejections. All registry errors are
// synchronous: the call fails and no state changes.
type ErrorCode string

const (
	// ErrCodeOwnedLimitExceeded: owner already holds MaxOwnedAAAs
	// instances.
	ErrCodeOwnedLimitExceeded ErrorCode = "OWNED_LIMIT_EXCEEDED"

	// ErrCodeSlotsExhausted: the bounded slot scan found no free slot.
	ErrCodeSlotsExhausted ErrorCode = "SLOTS_EXHAUSTED"

	// ErrCodeNotFound: no instance with the given ID.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeNotOwner: an owner-only call from a different account.
	ErrCodeNotOwner ErrorCode = "NOT_OWNER"

	// ErrCodeImmutable: an update_* call against an immutable instance.
	ErrCodeImmutable ErrorCode = "IMMUTABLE"

	// ErrCodeBadPolicy: an update_policy call with an unknown policy
	// value.
	ErrCodeBadPolicy ErrorCode = "BAD_POLICY"
)

// Error is the typed registry error with structured fields for
// diagnostics.
type Error struct {
	Code    ErrorCode
	ID      aaa.ID
	Owner   aaa.Account
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.ID != 0 && e.Owner != "":
		return fmt.Sprintf("%s: %s (id=%d, owner=%s)", e.Code, e.Message, e.ID, e.Owner)
	case e.ID != 0:
		return fmt.Sprintf("%s: %s (id=%d)", e.Code, e.Message, e.ID)
	case e.Owner != "":
		return fmt.Sprintf("%s: %s (owner=%s)", e.Code, e.Message, e.Owner)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Code extracts the registry error code from a wrapped error, or ""
// when err is not a registry error.
func Code(err error) ErrorCode {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsNotFound reports whether err is a NOT_FOUND registry error.
func IsNotFound(err error) bool {
	return Code(err) == ErrCodeNotFound
}
