// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Package workerpool provides a persistent, reusable worker pool for parallel
// computation. A Pool is created once per inference run and reused by every
// layer, so no goroutines are spawned on the hot path.
//
// Two styles of parallelism are offered:
//
//   - ParallelFor / ParallelForAtomic split an index range across workers
//     and block until it is done;
//   - Run starts one task per worker that execute concurrently and may
//     synchronize with each other through a Barrier, in the style of an SPMD
//     parallel region.
//
// Usage:
//
//	pool := workerpool.New(runtime.GOMAXPROCS(0))
//	defer pool.Close()
//
//	barrier := workerpool.NewBarrier(pool.NumWorkers())
//	pool.Run(func(worker int) {
//	    start, end := workerpool.Partition(ncols, pool.NumWorkers(), worker)
//	    countColumns(start, end)
//	    barrier.Wait()
//	    fillColumns(start, end)
//	})
package workerpool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a persistent worker pool that can be reused across many parallel
// operations. Workers are spawned once at creation and reused.
type Pool struct {
	numWorkers int
	workC      chan workItem
	closeOnce  sync.Once
	closed     atomic.Bool
}

// workItem represents a single parallel operation to execute.
type workItem struct {
	fn      func()
	barrier *sync.WaitGroup
}

// New creates a new worker pool with the specified number of workers.
// Workers are spawned immediately and persist until Close is called.
// If numWorkers <= 0, uses GOMAXPROCS.
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

// worker is the main loop for each persistent worker goroutine.
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

// Close shuts down the worker pool. All pending work will complete.
// Calling Close multiple times is safe.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.workC)
	})
}

// Run executes fn(worker) once for every worker index in [0, NumWorkers())
// and blocks until all of them return. All invocations run concurrently, so
// they may wait on a Barrier sized NumWorkers().
//
// Run must not be called concurrently with other operations on the same
// pool: a barrier-synchronized task needs every worker to be free. After
// Close, Run falls back to fresh goroutines.
func (p *Pool) Run(fn func(worker int)) {
	n := p.numWorkers
	if n == 1 {
		fn(0)
		return
	}

	var wg sync.WaitGroup
	wg.Add(n)

	if p.closed.Load() {
		for w := range n {
			go func() {
				defer wg.Done()
				fn(w)
			}()
		}
		wg.Wait()
		return
	}

	for w := range n {
		p.workC <- workItem{
			fn: func() {
				fn(w)
			},
			barrier: &wg,
		}
	}

	wg.Wait()
}

// ParallelFor executes fn for each index in [0, n) using the worker pool.
// Each worker processes a contiguous range of indices.
// Blocks until all work completes.
//
// fn receives (start, end) indices where work should process [start, end).
func (p *Pool) ParallelFor(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}

	if p.closed.Load() {
		fn(0, n)
		return
	}

	// Don't use more workers than items
	workers := min(p.numWorkers, n)

	if workers == 1 {
		fn(0, n)
		return
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := range workers {
		start := i * chunkSize
		end := min(start+chunkSize, n)
		if start >= n {
			wg.Done()
			continue
		}

		p.workC <- workItem{
			fn: func() {
				fn(start, end)
			},
			barrier: &wg,
		}
	}

	wg.Wait()
}

// ParallelForAtomic executes fn for each index in [0, n), handing out
// indices one at a time. This balances items of very different cost, such
// as parsing layer files of different sizes.
// Blocks until all work completes.
func (p *Pool) ParallelForAtomic(n int, fn func(i int)) {
	if n <= 0 {
		return
	}

	if p.closed.Load() {
		for i := range n {
			fn(i)
		}
		return
	}

	workers := min(p.numWorkers, n)

	if workers == 1 {
		for i := range n {
			fn(i)
		}
		return
	}

	var nextIdx atomic.Int32
	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		p.workC <- workItem{
			fn: func() {
				for {
					idx := int(nextIdx.Add(1)) - 1
					if idx >= n {
						return
					}
					fn(idx)
				}
			},
			barrier: &wg,
		}
	}

	wg.Wait()
}
