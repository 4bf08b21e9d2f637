// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package workerpool

import "sync"

// Barrier blocks a fixed number of parties until all of them have arrived.
// It is cyclic: once released it can be waited on again.
type Barrier struct {
	parties    int
	mu         sync.Mutex
	cond       *sync.Cond
	waiting    int
	generation uint64
}

// NewBarrier returns a barrier for the given number of parties.
func NewBarrier(parties int) *Barrier {
	b := &Barrier{parties: max(parties, 1)}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Parties returns the number of goroutines the barrier waits for.
func (b *Barrier) Parties() int {
	return b.parties
}

// Wait blocks until Parties goroutines have called Wait. Memory writes made
// by any party before Wait are visible to every party after it returns.
func (b *Barrier) Wait() {
	b.mu.Lock()
	defer b.mu.Unlock()

	gen := b.generation
	b.waiting++
	if b.waiting == b.parties {
		b.waiting = 0
		b.generation++
		b.cond.Broadcast()
		return
	}
	for gen == b.generation {
		b.cond.Wait()
	}
}

// Partition returns the contiguous range [start, end) of n items owned by
// worker out of workers. Every worker gets n/workers items and the last one
// also takes the remainder, so the ranges cover [0, n) exactly once.
func Partition(n, workers, worker int) (start, end int) {
	chunk := n / workers
	start = chunk * worker
	end = start + chunk
	if worker == workers-1 {
		end = n
	}
	return start, end
}
