// Package errors provides standardized error handling patterns for datasynth components.
//
// # Overview
//
// The errors package implements a three-class error classification system for the
// streaming pipeline: Transient (temporary, retryable), Invalid (bad input,
// non-retryable), and Fatal (unrecoverable, stop processing).
//
// This classification lets components make informed decisions about retries,
// backpressure handling, and failure recovery without hardcoded error string
// matching.
//
// # Error Classification
//
// Errors are classified based on their type or content:
//
//   - Transient: Network timeouts, full buffers, rate limiting (retry recommended)
//   - Invalid: Malformed input, validation failures, bad configuration (do not retry)
//   - Fatal: Resource exhaustion, unrecoverable states (stop processing)
//
// The classification system integrates with Go's standard error handling,
// supporting errors.Is(), errors.As(), and error wrapping chains.
//
// # Quick Start
//
// Use standard error variables for common conditions:
//
//	if pending >= maxPending {
//	    return errors.ErrBufferFull
//	}
//
// Wrap errors with context:
//
//	if err := channel.Send(task); err != nil {
//	    return errors.Wrap(err, "Coordinator", "Submit", "task dispatch")
//	}
//
// Check classification for retry logic:
//
//	if errors.IsTransient(err) {
//	    return retry.Do(ctx, retry.DefaultConfig(), operation)
//	}
//
// # Error Wrapping Convention
//
// All wrapped errors follow the pattern "component.method: action failed: cause"
// so that log lines and metrics carry a consistent, greppable shape:
//
//	publish.Send: buffer drain failed: transport buffer full
//
// WrapTransient, WrapInvalid, and WrapFatal additionally attach the class so
// downstream callers can branch on it with IsTransient/IsInvalid/IsFatal.
package errors
