package models

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes routing-core errors so callers can branch on an
// explicit kind rather than string matching.
type ErrorKind string

const (
	KindNotFound           ErrorKind = "not_found"
	KindValidation         ErrorKind = "validation"
	KindNoCandidate        ErrorKind = "no_candidate"
	KindProvidersExhausted ErrorKind = "providers_exhausted"
	KindRateLimited        ErrorKind = "rate_limited"
)

// RouterError is a structured error with a kind and optional cause.
type RouterError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *RouterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *RouterError) Unwrap() error {
	return e.Err
}

// Is matches on kind so sentinel comparisons with errors.Is work.
func (e *RouterError) Is(target error) bool {
	t, ok := target.(*RouterError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewRouterError creates a RouterError with the given kind and message.
func NewRouterError(kind ErrorKind, message string, err error) *RouterError {
	return &RouterError{Kind: kind, Message: message, Err: err}
}

// NotFoundError reports an unknown model/provider/breaker/budget id.
func NotFoundError(format string, args ...any) *RouterError {
	return &RouterError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// ValidationError reports an unknown strategy, capability, or status value.
func ValidationError(format string, args ...any) *RouterError {
	return &RouterError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NoCandidateError reports an empty candidate pool.
func NoCandidateError(format string, args ...any) *RouterError {
	return &RouterError{Kind: KindNoCandidate, Message: fmt.Sprintf(format, args...)}
}

// ExhaustedError reports a fully walked fallback chain with no open path.
func ExhaustedError(format string, args ...any) *RouterError {
	return &RouterError{Kind: KindProvidersExhausted, Message: fmt.Sprintf(format, args...)}
}

// RateLimitedError is advisory: the recording succeeded but the provider is
// over its declared budget.
func RateLimitedError(format string, args ...any) *RouterError {
	return &RouterError{Kind: KindRateLimited, Message: fmt.Sprintf(format, args...)}
}

// Kind sentinels for errors.Is checks.
var (
	ErrNotFound           = &RouterError{Kind: KindNotFound}
	ErrValidation         = &RouterError{Kind: KindValidation}
	ErrNoCandidate        = &RouterError{Kind: KindNoCandidate}
	ErrProvidersExhausted = &RouterError{Kind: KindProvidersExhausted}
	ErrRateLimited        = &RouterError{Kind: KindRateLimited}
)

// IsNotFound reports whether err is a not-found routing error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidation reports whether err is a validation routing error.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsExhausted reports whether err signals a fully exhausted fallback chain.
func IsExhausted(err error) bool { return errors.Is(err, ErrProvidersExhausted) }

// IsRateLimited reports whether err is the advisory rate-limit signal.
func IsRateLimited(err error) bool { return errors.Is(err, ErrRateLimited) }
