// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package workers

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_BoundsConcurrency(t *testing.T) {
	p := New(2)

	var (
		running atomic.Int32
		peak    atomic.Int32
		done    atomic.Int32
	)
	for i := 0; i < 10; i++ {
		require.NoError(t, p.Go(context.Background(), func(context.Context) {
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			running.Add(-1)
			done.Add(1)
		}))
	}
	p.Close()

	assert.Equal(t, int32(10), done.Load())
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestPool_GoDoesNotBlock(t *testing.T) {
	p := New(1)
	release := make(chan struct{})

	require.NoError(t, p.Go(context.Background(), func(context.Context) { <-release }))

	start := time.Now()
	require.NoError(t, p.Go(context.Background(), func(context.Context) {}))
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	close(release)
	p.Close()
}

func TestPool_CancelledWaitStillRuns(t *testing.T) {
	p := New(1)
	release := make(chan struct{})
	require.NoError(t, p.Go(context.Background(), func(context.Context) { <-release }))

	ctx, cancel := context.WithCancel(context.Background())
	var (
		wg   sync.WaitGroup
		seen error
	)
	wg.Add(1)
	require.NoError(t, p.Go(ctx, func(ctx context.Context) {
		defer wg.Done()
		seen = ctx.Err()
	}))
	cancel()
	wg.Wait()

	assert.ErrorIs(t, seen, context.Canceled)

	close(release)
	p.Close()
}

func TestPool_ClosedRejects(t *testing.T) {
	p := New(0)
	assert.Equal(t, runtime.GOMAXPROCS(0), p.Size())

	p.Close()
	err := p.Go(context.Background(), func(context.Context) {})
	assert.ErrorIs(t, err, ErrClosed)
}
