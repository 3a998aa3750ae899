// Package errs provides structured error types and helpers for ObjectPool.
package errs

import (
	"errors"
	"strconv"
	"strings"
)

// Code identifies a pool-specific error category.
type Code string

const (
	// CodeDrained indicates that a static pool has no free slot left.
	CodeDrained Code = "pool_drained"
	// CodeNotInitialized indicates that the released instance is not tracked by the pool.
	CodeNotInitialized Code = "instance_not_initialized"
	// CodeNotAcquired indicates that the released instance is already free.
	CodeNotAcquired Code = "instance_not_acquired"
	// CodeInvalid indicates invalid configuration provided by the caller.
	CodeInvalid Code = "invalid_config"
	// CodeUnavailable indicates the component is shutting down and cannot service requests.
	CodeUnavailable Code = "unavailable"
)

// E captures structured error information produced across the ObjectPool stack.
type E struct {
	Pool        string
	Code        Code
	Message     string
	Remediation string

	cause error
}

// Option configures an error envelope.
type Option func(*E)

// New constructs an error envelope for the named pool and error code.
func New(pool string, code Code, opts ...Option) *E {
	e := &E{
		Pool:        strings.TrimSpace(pool),
		Code:        code,
		Message:     "",
		Remediation: "",
		cause:       nil,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// WithMessage attaches a human-readable message to the error.
func WithMessage(message string) Option {
	trimmed := strings.TrimSpace(message)
	return func(e *E) {
		e.Message = trimmed
	}
}

// WithRemediation attaches remediation guidance to the error.
func WithRemediation(remediation string) Option {
	trimmed := strings.TrimSpace(remediation)
	return func(e *E) {
		e.Remediation = trimmed
	}
}

// WithCause sets the underlying cause error.
func WithCause(err error) Option {
	return func(e *E) {
		e.cause = err
	}
}

func (e *E) Error() string {
	if e == nil {
		return "<nil>"
	}
	var parts []string

	pool := strings.TrimSpace(e.Pool)
	if pool == "" {
		pool = "unknown"
	}
	parts = append(parts, "pool="+pool)

	code := strings.TrimSpace(string(e.Code))
	if code == "" {
		code = "unknown"
	}
	parts = append(parts, "code="+code)

	if e.Message != "" {
		parts = append(parts, "message="+strconv.Quote(e.Message))
	}
	if e.Remediation != "" {
		parts = append(parts, "remediation="+strconv.Quote(e.Remediation))
	}
	if e.cause != nil {
		parts = append(parts, "cause="+strconv.Quote(e.cause.Error()))
	}

	return strings.Join(parts, " ")
}

func (e *E) Unwrap() error { return e.cause }

// CodeOf extracts the pool error code from err, walking the wrap chain.
// It returns an empty Code when err carries no envelope.
func CodeOf(err error) Code {
	var e *E
	if errors.As(err, &e) && e != nil {
		return e.Code
	}
	return ""
}

// IsDrained reports whether err signals an exhausted static pool.
func IsDrained(err error) bool { return CodeOf(err) == CodeDrained }

// IsNotInitialized reports whether err signals a release of an untracked instance.
func IsNotInitialized(err error) bool { return CodeOf(err) == CodeNotInitialized }

// IsNotAcquired reports whether err signals a double release.
func IsNotAcquired(err error) bool { return CodeOf(err) == CodeNotAcquired }
