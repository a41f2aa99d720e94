// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package workers provides the bounded pool that runs asynchronous calls.
package workers

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/apex/log"
	"golang.org/x/sync/semaphore"
)

var ErrClosed = errors.New("worker pool is closed")

// Pool runs submitted tasks on at most Size goroutines at a time.
type Pool struct {
	size int64
	sem  *semaphore.Weighted

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New returns a Pool of the given size. A size <= 0 uses GOMAXPROCS.
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	return &Pool{
		size: int64(size),
		sem:  semaphore.NewWeighted(int64(size)),
	}
}

func (p *Pool) Size() int {
	return int(p.size)
}

// Go schedules fn and returns immediately. If ctx ends before a slot frees
// up, fn still runs, with that ctx, so callers relying on fn for completion
// callbacks always hear back.
func (p *Pool) Go(ctx context.Context, fn func(context.Context)) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()

		// The bound holds for live contexts only. A task whose ctx ended while
		// queued runs outside the semaphore, and its call fails fast on ctx.
		if err := p.sem.Acquire(ctx, 1); err != nil {
			log.WithError(err).Debug("worker slot not acquired")
			fn(ctx)
			return
		}
		defer p.sem.Release(1)

		fn(ctx)
	}()

	return nil
}

// Close stops accepting work and waits for scheduled tasks to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.wg.Wait()
}
