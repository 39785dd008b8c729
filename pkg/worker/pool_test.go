package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPool_Defaults(t *testing.T) {
	pool := NewPool[int](0, 0, func(context.Context, int) error { return nil })

	stats := pool.Stats()
	assert.Equal(t, 4, stats.Workers)
	assert.Equal(t, 1000, stats.QueueSize)
}

func TestNewPool_NilProcessorPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewPool[int](1, 1, nil)
	})
}

func TestPool_SubmitBeforeStart(t *testing.T) {
	pool := NewPool[int](2, 10, func(context.Context, int) error { return nil })

	err := pool.Submit(1)
	assert.ErrorIs(t, err, ErrPoolNotStarted)
}

func TestPool_ProcessesWork(t *testing.T) {
	var processed int64
	pool := NewPool[int](4, 100, func(_ context.Context, _ int) error {
		atomic.AddInt64(&processed, 1)
		return nil
	})

	require.NoError(t, pool.Start(context.Background()))

	for i := 0; i < 50; i++ {
		require.NoError(t, pool.Submit(i))
	}

	require.NoError(t, pool.Stop(5*time.Second))
	assert.Equal(t, int64(50), atomic.LoadInt64(&processed))

	stats := pool.Stats()
	assert.Equal(t, int64(50), stats.Submitted)
	assert.Equal(t, int64(50), stats.Processed)
	assert.Equal(t, int64(0), stats.Failed)
}

func TestPool_TracksFailures(t *testing.T) {
	pool := NewPool[int](2, 10, func(_ context.Context, n int) error {
		if n%2 == 0 {
			return errors.New("even numbers fail")
		}
		return nil
	})

	require.NoError(t, pool.Start(context.Background()))

	for i := 0; i < 10; i++ {
		require.NoError(t, pool.Submit(i))
	}

	require.NoError(t, pool.Stop(5*time.Second))

	stats := pool.Stats()
	assert.Equal(t, int64(10), stats.Processed)
	assert.Equal(t, int64(5), stats.Failed)
}

func TestPool_SubmitDropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	pool := NewPool[int](1, 1, func(_ context.Context, _ int) error {
		<-block
		return nil
	})

	require.NoError(t, pool.Start(context.Background()))

	// First item occupies the worker, second fills the queue
	require.NoError(t, pool.Submit(1))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, pool.Submit(2))

	err := pool.Submit(3)
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, int64(1), pool.Stats().Dropped)

	close(block)
	require.NoError(t, pool.Stop(5*time.Second))
}

func TestPool_SubmitWaitBlocks(t *testing.T) {
	block := make(chan struct{})
	pool := NewPool[int](1, 1, func(_ context.Context, _ int) error {
		<-block
		return nil
	})

	require.NoError(t, pool.Start(context.Background()))

	require.NoError(t, pool.Submit(1))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, pool.Submit(2))

	done := make(chan error, 1)
	go func() {
		done <- pool.SubmitWait(context.Background(), 3)
	}()

	select {
	case <-done:
		t.Fatal("SubmitWait should block while queue is full")
	case <-time.After(50 * time.Millisecond):
	}

	close(block)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("SubmitWait should complete after space opens")
	}

	require.NoError(t, pool.Stop(5*time.Second))
}

func TestPool_SubmitWaitContextCancelled(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	pool := NewPool[int](1, 1, func(_ context.Context, _ int) error {
		<-block
		return nil
	})

	require.NoError(t, pool.Start(context.Background()))
	require.NoError(t, pool.Submit(1))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, pool.Submit(2))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := pool.SubmitWait(ctx, 3)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPool_DoubleStart(t *testing.T) {
	pool := NewPool[int](1, 1, func(context.Context, int) error { return nil })

	require.NoError(t, pool.Start(context.Background()))
	assert.ErrorIs(t, pool.Start(context.Background()), ErrPoolAlreadyStarted)
	require.NoError(t, pool.Stop(time.Second))
}

func TestPool_StopIdempotent(t *testing.T) {
	pool := NewPool[int](1, 1, func(context.Context, int) error { return nil })

	require.NoError(t, pool.Start(context.Background()))
	require.NoError(t, pool.Stop(time.Second))
	require.NoError(t, pool.Stop(time.Second))

	err := pool.Submit(1)
	assert.ErrorIs(t, err, ErrPoolStopped)
}
