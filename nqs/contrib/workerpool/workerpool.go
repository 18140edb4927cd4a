// Copyright 2026 go-nqs Authors. SPDX-License-Identifier: Apache-2.0

// Package workerpool provides the persistent worker pool behind the device
// backend. A Pool is created once per device and reused by every launch, so
// an estimation pass does not pay for goroutine spawning per configuration.
//
// Work is split into contiguous chunks and every chunk is told its index.
// Callers keep one partial result per chunk and combine the partials in chunk
// order afterwards, which keeps the floating-point reduction order independent
// of goroutine scheduling.
//
// Usage:
//
//	pool := workerpool.New(runtime.GOMAXPROCS(0))
//	defer pool.Close()
//
//	partials := make([]float64, pool.NumChunks(n))
//	err := pool.ParallelForChunks(n, func(chunk, start, end int) {
//	    for i := start; i < end; i++ {
//	        partials[chunk] += weight(i)
//	    }
//	})
package workerpool

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned when work is submitted to a closed pool. The pool
// does not fall back to running the work on the caller.
var ErrClosed = errors.New("workerpool: pool is closed")

// Pool is a persistent worker pool. Workers are spawned once at creation and
// live until Close.
type Pool struct {
	numWorkers int
	workC      chan workItem
	closeOnce  sync.Once
	closed     atomic.Bool

	// submitMu is read-held while work is queued and write-held by Close, so
	// workC is never closed under a pending send.
	submitMu sync.RWMutex
}

type workItem struct {
	fn      func()
	barrier *sync.WaitGroup
}

// New creates a pool with numWorkers workers. If numWorkers <= 0, uses
// GOMAXPROCS.
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		numWorkers: numWorkers,
		workC:      make(chan workItem, numWorkers*2),
	}
	for range numWorkers {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for item := range p.workC {
		item.fn()
		item.barrier.Done()
	}
}

// NumWorkers returns the number of workers in the pool.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Closed reports whether Close has been called.
func (p *Pool) Closed() bool {
	return p.closed.Load()
}

// Close shuts down the pool after pending work completes. Calling Close more
// than once is safe, and so is calling it concurrently with
// ParallelForChunks: a launch either completes or returns ErrClosed.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.submitMu.Lock()
		defer p.submitMu.Unlock()
		p.closed.Store(true)
		close(p.workC)
	})
}

// chunking returns the chunk size and number of chunks used for n items.
func (p *Pool) chunking(n int) (size, count int) {
	if n <= 0 {
		return 0, 0
	}
	workers := min(p.numWorkers, n)
	size = (n + workers - 1) / workers
	count = (n + size - 1) / size
	return size, count
}

// NumChunks returns how many chunks ParallelForChunks splits n items into.
func (p *Pool) NumChunks(n int) int {
	_, count := p.chunking(n)
	return count
}

// ParallelForChunks executes fn over [0, n) split into NumChunks(n)
// contiguous chunks, one per worker item. fn receives the chunk index and the
// half-open range [start, end). Blocks until all chunks complete.
func (p *Pool) ParallelForChunks(n int, fn func(chunk, start, end int)) error {
	if n <= 0 {
		return nil
	}
	size, count := p.chunking(n)
	if count == 1 {
		if p.closed.Load() {
			return ErrClosed
		}
		fn(0, 0, n)
		return nil
	}

	var wg sync.WaitGroup
	if err := p.submit(count, size, n, fn, &wg); err != nil {
		return err
	}
	wg.Wait()
	return nil
}

// submit queues every chunk, or none if the pool is closed.
func (p *Pool) submit(count, size, n int, fn func(chunk, start, end int), wg *sync.WaitGroup) error {
	p.submitMu.RLock()
	defer p.submitMu.RUnlock()
	if p.closed.Load() {
		return ErrClosed
	}
	wg.Add(count)
	for chunk := range count {
		start := chunk * size
		end := min(start+size, n)
		p.workC <- workItem{
			fn: func() {
				fn(chunk, start, end)
			},
			barrier: wg,
		}
	}
	return nil
}
