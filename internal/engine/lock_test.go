package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker_MutualExclusion(t *testing.T) {
	locker := NewLocalLocker()

	var holders, maxHolders int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Lock(context.Background(), "s1")
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			n := atomic.AddInt32(&holders, 1)
			for {
				m := atomic.LoadInt32(&maxHolders)
				if n <= m || atomic.CompareAndSwapInt32(&maxHolders, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&holders, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxHolders)
}

func TestLocalLocker_IndependentNames(t *testing.T) {
	locker := NewLocalLocker()

	releaseA, err := locker.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer releaseA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	releaseB, err := locker.Lock(ctx, "b")
	require.NoError(t, err)
	releaseB()
}

func TestLocalLocker_ContextDeadline(t *testing.T) {
	locker := NewLocalLocker()

	release, err := locker.Lock(context.Background(), "s1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "s1")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	// Releasing twice frees the slot once
	release()
	release()

	again, err := locker.Lock(context.Background(), "s1")
	require.NoError(t, err)
	again()
}

func TestCanTransition(t *testing.T) {
	happy := []RunState{
		StateIdle,
		StateFetchingCandidates,
		StateRanked,
		StateSellingPositions,
		StateBuyingEntrants,
		StateValuating,
		StateRecordingHistory,
		StateCompleted,
	}
	for i := 0; i < len(happy)-1; i++ {
		assert.True(t, CanTransition(happy[i], happy[i+1]), "%s -> %s", happy[i], happy[i+1])
	}

	// Aborts happen only before any mutation
	assert.True(t, CanTransition(StateFetchingCandidates, StateAborted))
	assert.False(t, CanTransition(StateSellingPositions, StateAborted))
	assert.False(t, CanTransition(StateCompleted, StateIdle))

	assert.True(t, StateCompleted.Terminal())
	assert.True(t, StateAborted.Terminal())
	assert.False(t, StateRanked.Terminal())
}
