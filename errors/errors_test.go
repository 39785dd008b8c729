package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorClass_String(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected string
	}{
		{ErrorTransient, "transient"},
		{ErrorInvalid, "invalid"},
		{ErrorFatal, "fatal"},
		{ErrorClass(999), "unknown"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			result := test.class.String()
			if result != test.expected {
				t.Errorf("expected %s, got %s", test.expected, result)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection timeout", ErrConnectionTimeout, true},
		{"connection lost", ErrConnectionLost, true},
		{"buffer full", ErrBufferFull, true},
		{"rate limited", ErrRateLimited, true},
		{"circuit open", ErrCircuitOpen, true},
		{"context deadline exceeded", context.DeadlineExceeded, true},
		{"invalid config", ErrInvalidConfig, false},
		{"timeout in message", fmt.Errorf("operation timeout occurred"), true},
		{"network error", fmt.Errorf("network connection failed"), true},
		{"classified transient", &ClassifiedError{Class: ErrorTransient, Err: fmt.Errorf("test")}, true},
		{"classified fatal", &ClassifiedError{Class: ErrorFatal, Err: fmt.Errorf("test")}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsTransient(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"invalid config", ErrInvalidConfig, true},
		{"missing config", ErrMissingConfig, true},
		{"resource exhausted", ErrResourceExhausted, true},
		{"connection timeout", ErrConnectionTimeout, false},
		{"classified fatal", &ClassifiedError{Class: ErrorFatal, Err: fmt.Errorf("test")}, true},
		{"classified transient", &ClassifiedError{Class: ErrorTransient, Err: fmt.Errorf("test")}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsFatal(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"classified invalid", &ClassifiedError{Class: ErrorInvalid, Err: fmt.Errorf("test")}, true},
		{"classified transient", &ClassifiedError{Class: ErrorTransient, Err: fmt.Errorf("test")}, false},
		{"plain error", fmt.Errorf("something else"), false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsInvalid(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	base := errors.New("connection refused")

	wrapped := Wrap(base, "Transport", "Connect", "dial")
	if wrapped == nil {
		t.Fatal("expected non-nil error")
	}

	expected := "Transport.Connect: dial failed: connection refused"
	if wrapped.Error() != expected {
		t.Errorf("expected %q, got %q", expected, wrapped.Error())
	}

	if !errors.Is(wrapped, base) {
		t.Error("wrapped error should match base via errors.Is")
	}

	if Wrap(nil, "Transport", "Connect", "dial") != nil {
		t.Error("wrapping nil should return nil")
	}
}

func TestWrapTransient(t *testing.T) {
	base := errors.New("broker unavailable")

	wrapped := WrapTransient(base, "Channel", "Send", "publish")
	if !IsTransient(wrapped) {
		t.Error("expected transient classification")
	}

	var ce *ClassifiedError
	if !errors.As(wrapped, &ce) {
		t.Fatal("expected ClassifiedError in chain")
	}
	if ce.Component != "Channel" || ce.Operation != "Send" {
		t.Errorf("unexpected context: %s.%s", ce.Component, ce.Operation)
	}

	if !errors.Is(wrapped, base) {
		t.Error("classified error should unwrap to base")
	}

	if WrapTransient(nil, "Channel", "Send", "publish") != nil {
		t.Error("wrapping nil should return nil")
	}
}

func TestWrapInvalid(t *testing.T) {
	base := errors.New("capacity must be positive")

	wrapped := WrapInvalid(base, "Queue", "New", "validation")
	if !IsInvalid(wrapped) {
		t.Error("expected invalid classification")
	}
	if IsTransient(wrapped) {
		t.Error("invalid errors must not be transient")
	}
	if !strings.Contains(wrapped.Error(), "Queue.New: validation failed") {
		t.Errorf("unexpected message: %s", wrapped.Error())
	}
}

func TestWrapFatal(t *testing.T) {
	base := errors.New("out of memory")

	wrapped := WrapFatal(base, "Store", "Register", "allocation")
	if !IsFatal(wrapped) {
		t.Error("expected fatal classification")
	}
	if IsTransient(wrapped) {
		t.Error("fatal errors must not be transient")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{"transient sentinel", ErrConnectionLost, ErrorTransient},
		{"fatal sentinel", ErrResourceExhausted, ErrorFatal},
		{"classified invalid", WrapInvalid(errors.New("bad"), "C", "M", "check"), ErrorInvalid},
		{"unknown defaults transient", errors.New("mystery"), ErrorTransient},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Classify(test.err); got != test.expected {
				t.Errorf("expected %v, got %v", test.expected, got)
			}
		})
	}
}
