package want

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool_RunsSubmittedWork(t *testing.T) {
	pool := newWorkerPool(2)

	var count atomic.Int32
	for i := 0; i < 10; i++ {
		require.NoError(t, pool.submit(func() { count.Add(1) }))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, pool.stop(ctx))
	assert.Equal(t, int32(10), count.Load())
}

func TestWorkerPool_SubmitAfterStop(t *testing.T) {
	pool := newWorkerPool(0)
	require.NoError(t, pool.stop(context.Background()))

	err := pool.submit(func() {})
	assert.ErrorIs(t, err, ErrControllerClosed)

	// Stopping twice is a no-op.
	assert.NoError(t, pool.stop(context.Background()))
}

func TestWorkerPool_StopHonoursContext(t *testing.T) {
	pool := newWorkerPool(1)
	release := make(chan struct{})
	defer close(release)

	require.NoError(t, pool.submit(func() { <-release }))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, pool.stop(ctx), context.DeadlineExceeded)
}

func TestWorkerPool_SubmitDoesNotBlockWhileWorkersAreBusy(t *testing.T) {
	pool := newWorkerPool(1)
	release := make(chan struct{})

	require.NoError(t, pool.submit(func() { <-release }))

	var count atomic.Int32
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			assert.NoError(t, pool.submit(func() { count.Add(1) }))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("submit blocked while the worker was busy")
	}

	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, pool.stop(ctx))
	assert.Equal(t, int32(100), count.Load())
}
