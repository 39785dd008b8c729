// Package retry runs operations under an exponential backoff policy.
//
// Errors wrapped with NonRetryable, and errors the errors package
// classifies as invalid or fatal, stop the loop immediately; everything
// else is treated as transient.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	cerrors "github.com/c360/datasynth/errors"
)

// NonRetryableError marks an error that must not be retried.
type NonRetryableError struct {
	Err error
}

func (e *NonRetryableError) Error() string { return fmt.Sprintf("non-retryable: %v", e.Err) }
func (e *NonRetryableError) Unwrap() error { return e.Err }

// NonRetryable marks err as terminal for the retry loop.
func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &NonRetryableError{Err: err}
}

// IsNonRetryable reports whether err should stop the retry loop.
func IsNonRetryable(err error) bool {
	var nre *NonRetryableError
	if errors.As(err, &nre) {
		return true
	}
	return cerrors.IsInvalid(err) || cerrors.IsFatal(err)
}

// Config is a backoff policy. The zero value of any field takes the
// corresponding default from DefaultConfig.
type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	AddJitter    bool
}

// DefaultConfig suits short operations against a usually-available peer.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		AddJitter:    true,
	}
}

// Quick retries fast with a low ceiling, for startup races.
func Quick() Config {
	return Config{
		MaxAttempts:  10,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   1.5,
		AddJitter:    true,
	}
}

// Broker suits broker connection establishment: the endpoint may take a
// while to come up, but callers should not wait forever.
func Broker() Config {
	return Config{
		MaxAttempts:  15,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		AddJitter:    true,
	}
}

func (c *Config) normalize() error {
	switch {
	case c.InitialDelay < 0:
		return errors.New("retry: InitialDelay cannot be negative")
	case c.MaxDelay < 0:
		return errors.New("retry: MaxDelay cannot be negative")
	case c.Multiplier < 0:
		return errors.New("retry: Multiplier cannot be negative")
	}

	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 1
	}
	if c.InitialDelay == 0 {
		c.InitialDelay = 100 * time.Millisecond
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = 5 * time.Second
	}
	if c.Multiplier == 0 {
		c.Multiplier = 2.0
	}
	if c.Multiplier > 1000 {
		c.Multiplier = 1000
	}

	if c.MaxDelay < c.InitialDelay {
		return errors.New("retry: MaxDelay must be >= InitialDelay")
	}
	return nil
}

// next computes the delay after the current one, capped at MaxDelay.
func (c *Config) next(current time.Duration) time.Duration {
	scaled := float64(current) * c.Multiplier
	if scaled >= float64(c.MaxDelay) {
		return c.MaxDelay
	}
	return time.Duration(scaled)
}

// sleep returns the backoff with up to 25% jitter applied.
func (c *Config) sleep(delay time.Duration) time.Duration {
	if !c.AddJitter {
		return delay
	}
	return delay + rand.N(delay/4+1)
}

// Do runs fn until it succeeds, exhausts cfg.MaxAttempts, hits a
// non-retryable error, or ctx is cancelled.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	if err := cfg.normalize(); err != nil {
		return err
	}

	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if IsNonRetryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return fmt.Errorf("retry cancelled before attempt %d: %w", attempt, ctx.Err())
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		timer := time.NewTimer(cfg.sleep(delay))
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry cancelled during backoff for attempt %d: %w", attempt+1, ctx.Err())
		case <-timer.C:
		}
		delay = cfg.next(delay)
	}

	return fmt.Errorf("retry failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}

// DoWithResult is Do for operations that return a value.
func DoWithResult[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var result T
	err := Do(ctx, cfg, func() error {
		var innerErr error
		result, innerErr = fn()
		return innerErr
	})
	return result, err
}
