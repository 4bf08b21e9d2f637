// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package spmm

import (
	"github.com/samber/lo"
	"golang.org/x/sys/cpu"

	"github.com/ajroetker/go-spdnn/spdnn/contrib/workerpool"
)

// slot is the part of the partition table owned by one worker. Padding keeps
// neighbouring workers off each other's cache lines.
type slot struct {
	start int
	end   int
	nnz   int
	_     cpu.CacheLinePad
}

// Context is the per-multiplication partition and result table. Each worker
// writes only its own slot; the coordinator reads the whole table only after
// every worker has passed the barrier. A Context is created for one
// multiplication and discarded afterwards.
type Context struct {
	barrier *workerpool.Barrier
	slots   []slot
}

// NewContext returns a table for the given number of workers.
func NewContext(workers int) *Context {
	workers = max(workers, 1)
	return &Context{
		barrier: workerpool.NewBarrier(workers),
		slots:   make([]slot, workers),
	}
}

// Workers returns the number of workers.
func (c *Context) Workers() int {
	return len(c.slots)
}

// Barrier returns the barrier shared by the workers.
func (c *Context) Barrier() *workerpool.Barrier {
	return c.barrier
}

// Publish records the column range and nonzero count of worker.
func (c *Context) Publish(worker, start, end, nnz int) {
	s := &c.slots[worker]
	s.start, s.end, s.nnz = start, end, nnz
}

// Range returns the column range published by worker.
func (c *Context) Range(worker int) (start, end int) {
	s := &c.slots[worker]
	return s.start, s.end
}

// Count returns the nonzero count published by worker.
func (c *Context) Count(worker int) int {
	return c.slots[worker].nnz
}

// Total returns the sum of the published counts.
func (c *Context) Total() int {
	return lo.SumBy(c.slots, func(s slot) int { return s.nnz })
}

// Offsets returns, for every worker, the sum of the counts of the workers
// before it: the start of its output window.
func (c *Context) Offsets() []int {
	offsets := make([]int, len(c.slots))
	for w := 1; w < len(c.slots); w++ {
		offsets[w] = offsets[w-1] + c.slots[w-1].nnz
	}
	return offsets
}
