package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrQuotaExceeded is the rate or usage limit condition. It is fatal for
	// the current email only.
	ErrQuotaExceeded = errors.New("text completion quota exceeded")
	// ErrService covers every other completion failure.
	ErrService = errors.New("text completion service error")
)

// Error carries the failure kind together with the underlying cause.
type Error struct {
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// QuotaError wraps err as ErrQuotaExceeded.
func QuotaError(err error) error {
	return &Error{Kind: ErrQuotaExceeded, Err: err}
}

// ServiceError wraps err as ErrService.
func ServiceError(err error) error {
	return &Error{Kind: ErrService, Err: err}
}

// IsQuota reports whether err is a quota condition.
func IsQuota(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}
