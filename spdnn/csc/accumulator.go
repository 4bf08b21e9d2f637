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

package csc

import (
	"github.com/ajroetker/go-spdnn/spdnn"
	"github.com/ajroetker/go-spdnn/spdnn/buffer"
)

// Accumulator is a dense scratch column (a sparse accumulator, or SPA).
//
// An output column is accumulated into it and then drained into a Matrix,
// which zeroes every slot it reads. Between columns the accumulator is all
// zero. An Accumulator must only be used by one goroutine at a time.
type Accumulator[T spdnn.Floats] struct {
	block *buffer.Block[T]
}

// NewAccumulator allocates a zeroed accumulator of length n.
func NewAccumulator[T spdnn.Floats](n int, opts ...Option) (*Accumulator[T], error) {
	o := gatherOptions(opts)
	b, err := buffer.Allocate[T](n, o.pageAligned)
	if err != nil {
		return nil, err
	}
	return &Accumulator[T]{block: b}, nil
}

// Len returns the accumulator length.
func (a *Accumulator[T]) Len() int {
	return a.block.Len()
}

// Values returns the live slots for inner loops.
func (a *Accumulator[T]) Values() []T {
	return a.block.Slice()
}

// Mark sets slot i to one.
func (a *Accumulator[T]) Mark(i int) {
	a.block.Slice()[i] = 1
}

// Add adds v into slot i.
func (a *Accumulator[T]) Add(i int, v T) {
	a.block.Slice()[i] += v
}

// CountAndReset returns the number of nonzero slots and zeroes them.
func (a *Accumulator[T]) CountAndReset() int {
	n := 0
	s := a.block.Slice()
	for i, v := range s {
		if v != 0 {
			n++
			s[i] = 0
		}
	}
	return n
}

// IsZero reports whether every slot is zero.
func (a *Accumulator[T]) IsZero() bool {
	for _, v := range a.block.Slice() {
		if v != 0 {
			return false
		}
	}
	return true
}

// Release frees the accumulator storage.
func (a *Accumulator[T]) Release() error {
	return a.block.Release()
}
