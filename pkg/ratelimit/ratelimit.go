// Package ratelimit provides a token bucket limiter for pacing event emission.
//
// The limiter wraps golang.org/x/time/rate: tokens refill continuously at the
// configured rate up to the bucket capacity, and Acquire sleeps exactly the
// minimal time until the requested tokens are available. Requests larger than
// the bucket capacity can never succeed and are rejected immediately with
// ErrExceedsCapacity.
package ratelimit

import (
	"context"
	stderrors "errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/c360/datasynth/errors"
)

// ErrExceedsCapacity is returned when a single request asks for more tokens
// than the bucket can ever hold.
var ErrExceedsCapacity = stderrors.New("request exceeds bucket capacity")

// Limiter is a token bucket pacing emissions to a sustained rate with a
// bounded burst. Safe for concurrent use.
type Limiter struct {
	limiter  *rate.Limiter
	capacity int
}

// New creates a limiter refilling at perSecond tokens per second with the
// given bucket capacity.
func New(perSecond float64, capacity int) (*Limiter, error) {
	if perSecond <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Limiter", "New", "rate must be positive")
	}
	if capacity <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Limiter", "New", "capacity must be positive")
	}

	return &Limiter{
		limiter:  rate.NewLimiter(rate.Limit(perSecond), capacity),
		capacity: capacity,
	}, nil
}

// Acquire blocks until n tokens are available or ctx is done.
// The wait is the minimal refill time; there is no polling loop.
// Requests with n greater than the capacity fail fast with ErrExceedsCapacity.
func (l *Limiter) Acquire(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	if n > l.capacity {
		return ErrExceedsCapacity
	}

	if err := l.limiter.WaitN(ctx, n); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.WrapTransient(err, "Limiter", "Acquire", "token wait")
	}
	return nil
}

// TryAcquire reports whether n tokens were immediately available and consumed.
// It never blocks; n greater than the capacity always returns false.
func (l *Limiter) TryAcquire(n int) bool {
	if n <= 0 {
		return true
	}
	if n > l.capacity {
		return false
	}
	return l.limiter.AllowN(time.Now(), n)
}

// Rate returns the sustained refill rate in tokens per second.
func (l *Limiter) Rate() float64 {
	return float64(l.limiter.Limit())
}

// Capacity returns the bucket capacity.
func (l *Limiter) Capacity() int {
	return l.capacity
}
