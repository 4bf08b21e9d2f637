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
	"github.com/cockroachdb/errors"

	"github.com/ajroetker/go-spdnn/spdnn"
)

// region is a window [base, base+limit) of the row and value buffers owned
// by one writer. written entries from base are valid.
type region struct {
	base    int
	limit   int
	written int
}

// ColumnWriter drains accumulators into a reserved window of a Matrix,
// for columns in [next, end) in strictly increasing order.
type ColumnWriter[T spdnn.Floats] struct {
	m    *Matrix[T]
	r    *region
	next int
	end  int
}

// Reserve hands out a writer for columns [startCol, endCol) whose entries
// go to the window [base, base+limit) of the buffers. Windows must be
// reserved in ascending column and base order and must not overlap. Writers
// of distinct windows may run concurrently.
func (m *Matrix[T]) Reserve(startCol, endCol, base, limit int) (*ColumnWriter[T], error) {
	if m.finalized || m.seq != nil {
		return nil, errors.AssertionFailedf("csc: reserve on a matrix that is not open for column writes")
	}
	if startCol < 0 || startCol > endCol || endCol > m.ncols || base < 0 || limit < 0 || base+limit > m.Capacity() {
		return nil, errors.Wrapf(spdnn.ErrOutOfRange,
			"csc: reserve columns [%d, %d) window [%d, %d) in [%d x %d] capacity %d",
			startCol, endCol, base, base+limit, m.nrows, m.ncols, m.Capacity())
	}
	if n := len(m.regions); n > 0 {
		prev := m.regions[n-1]
		if base < prev.base+prev.limit {
			return nil, errors.Wrapf(spdnn.ErrOutOfRange, "csc: window at %d overlaps window [%d, %d)",
				base, prev.base, prev.base+prev.limit)
		}
	}
	return m.reserve(startCol, endCol, base, limit), nil
}

func (m *Matrix[T]) reserve(startCol, endCol, base, limit int) *ColumnWriter[T] {
	r := &region{base: base, limit: limit}
	m.regions = append(m.regions, r)
	return &ColumnWriter[T]{m: m, r: r, next: startCol, end: endCol}
}

// sequential returns the writer covering every column and the whole buffer.
func (m *Matrix[T]) sequential() *ColumnWriter[T] {
	if m.seq == nil {
		if m.finalized || len(m.regions) > 0 {
			panic(errors.AssertionFailedf("csc: sequential write on a matrix that is not open for column writes"))
		}
		m.seq = m.reserve(0, m.ncols, 0, m.Capacity())
	}
	return m.seq
}

// AppendColumn drains acc into column col of m, storing every nonzero slot
// as-is. Columns must be appended in strictly increasing order.
func (m *Matrix[T]) AppendColumn(acc *Accumulator[T], col int) {
	m.sequential().drain(acc, col, 0, false)
}

// AppendColumnBiasReLU drains acc into column col of m, storing
// max(v+bias, 0) for every nonzero slot v. Results equal to zero are not
// stored.
func (m *Matrix[T]) AppendColumnBiasReLU(acc *Accumulator[T], col int, bias T) {
	m.sequential().drain(acc, col, bias, true)
}

// AppendColumn is Matrix.AppendColumn restricted to the writer's window.
func (w *ColumnWriter[T]) AppendColumn(acc *Accumulator[T], col int) {
	w.drain(acc, col, 0, false)
}

// AppendColumnBiasReLU is Matrix.AppendColumnBiasReLU restricted to the
// writer's window.
func (w *ColumnWriter[T]) AppendColumnBiasReLU(acc *Accumulator[T], col int, bias T) {
	w.drain(acc, col, bias, true)
}

func (w *ColumnWriter[T]) drain(acc *Accumulator[T], col int, bias T, relu bool) {
	if col < w.next || col >= w.end {
		panic(errors.AssertionFailedf("csc: column %d appended out of order (next %d, end %d)", col, w.next, w.end))
	}
	if acc.Len() != w.m.nrows {
		panic(errors.AssertionFailedf("csc: accumulator of %d slots drained into a matrix of %d rows", acc.Len(), w.m.nrows))
	}
	w.next = col + 1

	rows, vals := w.m.rowIdx.Slice(), w.m.values.Slice()
	pos := w.r.base + w.r.written
	limit := w.r.base + w.r.limit
	var n uint64
	s := acc.Values()
	for i, v := range s {
		if v == 0 {
			continue
		}
		s[i] = 0
		if relu {
			v += bias
			if v <= 0 {
				continue
			}
		}
		if pos == limit {
			panic(errors.AssertionFailedf("csc: column %d overflows a window of %d entries", col, w.r.limit))
		}
		rows[pos] = uint32(i)
		vals[pos] = v
		pos++
		n++
	}
	w.r.written = pos - w.r.base
	w.m.colPtr.Slice()[col+1] = n
}
