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
	"math"

	"github.com/cockroachdb/errors"

	"github.com/ajroetker/go-spdnn/spdnn"
	"github.com/ajroetker/go-spdnn/spdnn/buffer"
)

// Matrix is a sparse matrix in compressed sparse column form.
//
// A Matrix is not safe for concurrent use, except that distinct
// ColumnWriters obtained from Reserve may be used from distinct goroutines.
type Matrix[T spdnn.Floats] struct {
	nrows int
	ncols int
	nnz   int

	pageAligned bool
	finalized   bool

	rowIdx *buffer.Block[uint32]
	colPtr *buffer.Block[uint64]
	values *buffer.Block[T]

	// visited[i] is true when row i holds at least one stored entry.
	visited []bool

	// regions are the write windows handed out since the last Finalize, in
	// ascending base order.
	regions []*region
	seq     *ColumnWriter[T]
}

// New returns an empty nrows x ncols matrix able to hold capacity entries
// before any buffer has to grow.
func New[T spdnn.Floats](nrows, ncols, capacity int, opts ...Option) (*Matrix[T], error) {
	if nrows < 0 || ncols < 0 || capacity < 0 || nrows > math.MaxUint32 {
		return nil, errors.Wrapf(spdnn.ErrBadShape, "csc: [%d x %d] capacity %d", nrows, ncols, capacity)
	}
	o := gatherOptions(opts)
	m := &Matrix[T]{
		nrows:       nrows,
		ncols:       ncols,
		pageAligned: o.pageAligned,
		visited:     make([]bool, nrows),
	}
	var err error
	if m.rowIdx, err = buffer.Allocate[uint32](capacity, o.pageAligned); err != nil {
		return nil, err
	}
	if m.colPtr, err = buffer.Allocate[uint64](ncols+1, o.pageAligned); err != nil {
		_ = m.rowIdx.Release()
		return nil, err
	}
	if m.values, err = buffer.Allocate[T](capacity, o.pageAligned); err != nil {
		_ = m.rowIdx.Release()
		_ = m.colPtr.Release()
		return nil, err
	}
	return m, nil
}

// Rows returns the number of rows.
func (m *Matrix[T]) Rows() int { return m.nrows }

// Cols returns the number of columns.
func (m *Matrix[T]) Cols() int { return m.ncols }

// NNZ returns the number of stored entries. It is zero until Finalize.
func (m *Matrix[T]) NNZ() int { return m.nnz }

// Capacity returns how many entries fit before the buffers must grow.
func (m *Matrix[T]) Capacity() int { return m.rowIdx.Len() }

// Finalized reports whether Finalize has run since the last write.
func (m *Matrix[T]) Finalized() bool { return m.finalized }

// PageAligned reports whether the buffers are page aligned.
func (m *Matrix[T]) PageAligned() bool { return m.pageAligned }

// Bytes returns the total size of the three buffers.
func (m *Matrix[T]) Bytes() int {
	return m.rowIdx.Bytes() + m.colPtr.Bytes() + m.values.Bytes()
}

// Visited reports whether row i holds a stored entry.
func (m *Matrix[T]) Visited(i int) bool { return m.visited[i] }

// VisitedRows returns the number of rows holding a stored entry.
func (m *Matrix[T]) VisitedRows() int {
	n := 0
	for _, v := range m.visited {
		if v {
			n++
		}
	}
	return n
}

// ColumnPointers returns the ncols+1 column offsets.
func (m *Matrix[T]) ColumnPointers() []uint64 { return m.colPtr.Slice() }

// RowIndices returns the row index of every stored entry.
func (m *Matrix[T]) RowIndices() []uint32 { return m.rowIdx.Slice()[:m.nnz] }

// Values returns the value of every stored entry.
func (m *Matrix[T]) Values() []T { return m.values.Slice()[:m.nnz] }

// Column returns the row indices and values of column j.
func (m *Matrix[T]) Column(j int) ([]uint32, []T) {
	ptr := m.colPtr.Slice()
	lo, hi := ptr[j], ptr[j+1]
	return m.rowIdx.Slice()[lo:hi], m.values.Slice()[lo:hi]
}

// Finalize closes the current ingestion: written regions are compacted,
// per-column counts become offsets, visited rows are recomputed, and the row
// and value buffers shrink to exactly NNZ entries. Calling Finalize again
// without intervening writes changes nothing.
func (m *Matrix[T]) Finalize() error {
	if m.finalized {
		return nil
	}
	rows, vals := m.rowIdx.Slice(), m.values.Slice()
	head := 0
	for _, r := range m.regions {
		if r.base != head {
			copy(rows[head:], rows[r.base:r.base+r.written])
			copy(vals[head:], vals[r.base:r.base+r.written])
		}
		head += r.written
	}

	ptr := m.colPtr.Slice()
	ptr[0] = 0
	for j := 1; j <= m.ncols; j++ {
		ptr[j] += ptr[j-1]
	}
	if ptr[m.ncols] != uint64(head) {
		return errors.AssertionFailedf("csc: column counts sum to %d, %d entries written", ptr[m.ncols], head)
	}

	m.nnz = head
	if err := m.rowIdx.Reallocate(m.nnz); err != nil {
		return err
	}
	if err := m.values.Reallocate(m.nnz); err != nil {
		return err
	}

	clear(m.visited)
	for _, i := range m.rowIdx.Slice() {
		m.visited[i] = true
	}
	m.regions = m.regions[:0]
	m.seq = nil
	m.finalized = true
	return nil
}

// RebuildFrom replaces the contents of m with the entries of other whose
// value is nonzero. Both matrices must have the same shape and other must be
// finalized. The buffers of m grow first when they cannot hold other's
// entries. m is finalized on return.
func (m *Matrix[T]) RebuildFrom(other *Matrix[T]) error {
	if m == other {
		return errors.AssertionFailedf("csc: rebuild of a matrix from itself")
	}
	if m.ncols != other.ncols || m.nrows != other.nrows {
		return errors.Wrapf(spdnn.ErrDimensionMismatch,
			"csc: cannot rebuild [%d x %d] from [%d x %d]", m.nrows, m.ncols, other.nrows, other.ncols)
	}
	if !other.finalized {
		return errors.AssertionFailedf("csc: rebuild from a matrix that is not finalized")
	}

	if m.Capacity() < other.nnz {
		if err := m.rowIdx.Reallocate(other.nnz); err != nil {
			return err
		}
		if err := m.values.Reallocate(other.nnz); err != nil {
			return err
		}
	}
	m.reset()

	w := m.sequential()
	rows, vals, ptr := m.rowIdx.Slice(), m.values.Slice(), m.colPtr.Slice()
	oRows, oVals, oPtr := other.rowIdx.Slice(), other.values.Slice(), other.colPtr.Slice()
	pos := 0
	for j := range m.ncols {
		var n uint64
		for k := oPtr[j]; k < oPtr[j+1]; k++ {
			if oVals[k] == 0 {
				continue
			}
			rows[pos] = oRows[k]
			vals[pos] = oVals[k]
			pos++
			n++
		}
		ptr[j+1] = n
	}
	w.r.written = pos
	w.next = m.ncols
	return m.Finalize()
}

// reset clears the buffers and reopens the matrix for ingestion.
func (m *Matrix[T]) reset() {
	m.rowIdx.Clear()
	m.colPtr.Clear()
	m.values.Clear()
	clear(m.visited)
	m.nnz = 0
	m.regions = m.regions[:0]
	m.seq = nil
	m.finalized = false
}

// Release frees the matrix buffers. The matrix must not be used afterwards.
func (m *Matrix[T]) Release() error {
	err := errors.CombineErrors(m.rowIdx.Release(), m.colPtr.Release())
	err = errors.CombineErrors(err, m.values.Release())
	m.visited = nil
	m.regions = nil
	m.seq = nil
	m.nnz = 0
	return err
}
