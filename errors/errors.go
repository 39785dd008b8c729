// Package errors classifies pipeline errors into transient, invalid and
// fatal, and provides wrapping helpers that stamp errors with the
// "component.method: action failed" context convention used across the
// codebase.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorClass drives how a caller reacts to a failure: retry it, reject the
// input, or stop.
type ErrorClass int

const (
	ErrorTransient ErrorClass = iota
	ErrorInvalid
	ErrorFatal
)

func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	}
	return "unknown"
}

// Sentinel conditions shared across packages.
var (
	// Lifecycle
	ErrAlreadyStarted = errors.New("component already started")
	ErrNotStarted     = errors.New("component not started")
	ErrAlreadyStopped = errors.New("component already stopped")
	ErrShuttingDown   = errors.New("component is shutting down")

	// Connection and transport
	ErrNoConnection      = errors.New("no connection available")
	ErrConnectionLost    = errors.New("connection lost")
	ErrConnectionTimeout = errors.New("connection timeout")

	// Flow control
	ErrQueueFull  = errors.New("transfer queue full")
	ErrBufferFull = errors.New("transport buffer full")

	// Configuration
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingConfig = errors.New("missing required configuration")

	// Resources
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrRateLimited       = errors.New("rate limited")

	// Circuit breaking and retry
	ErrCircuitOpen        = errors.New("circuit breaker open")
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")
)

// transientSentinels are conditions that clear up on their own.
var transientSentinels = []error{
	ErrConnectionTimeout,
	ErrConnectionLost,
	ErrBufferFull,
	ErrRateLimited,
	ErrCircuitOpen,
	context.DeadlineExceeded,
}

// fatalSentinels are conditions no retry can fix.
var fatalSentinels = []error{
	ErrInvalidConfig,
	ErrMissingConfig,
	ErrResourceExhausted,
}

// transientHints catch transient errors from third-party code that arrive
// without classification.
var transientHints = []string{
	"timeout",
	"connection",
	"temporary",
	"unavailable",
	"busy",
}

// ClassifiedError carries an ErrorClass alongside the wrapped error.
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

func (ce *ClassifiedError) Unwrap() error { return ce.Err }

// IsTransient reports whether err is worth retrying. Unclassified errors
// are matched against known transient sentinels, then against message
// hints.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorTransient
	}

	for _, sentinel := range transientSentinels {
		if errors.Is(err, sentinel) {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, hint := range transientHints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

// IsFatal reports whether err should stop processing.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorFatal
	}

	for _, sentinel := range fatalSentinels {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// IsInvalid reports whether err was caused by bad input. Only explicitly
// classified errors qualify.
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}
	var ce *ClassifiedError
	return errors.As(err, &ce) && ce.Class == ErrorInvalid
}

// Classify maps err to its class. Unknown errors classify as transient so
// callers err on the side of retrying.
func Classify(err error) ErrorClass {
	switch {
	case IsTransient(err):
		return ErrorTransient
	case IsFatal(err):
		return ErrorFatal
	case IsInvalid(err):
		return ErrorInvalid
	}
	return ErrorTransient
}

// Wrap adds "component.method: action failed" context. A nil err returns
// nil, so call sites can wrap unconditionally.
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

func wrapClass(class ErrorClass, err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, component, method, action)
	return &ClassifiedError{
		Class:     class,
		Err:       wrapped,
		Message:   wrapped.Error(),
		Component: component,
		Operation: method,
	}
}

// WrapTransient wraps err with context and classifies it transient.
func WrapTransient(err error, component, method, action string) error {
	return wrapClass(ErrorTransient, err, component, method, action)
}

// WrapFatal wraps err with context and classifies it fatal.
func WrapFatal(err error, component, method, action string) error {
	return wrapClass(ErrorFatal, err, component, method, action)
}

// WrapInvalid wraps err with context and classifies it invalid.
func WrapInvalid(err error, component, method, action string) error {
	return wrapClass(ErrorInvalid, err, component, method, action)
}
