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
	"cmp"
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/ajroetker/go-spdnn/spdnn"
)

// FromTriples builds a finalized nrows x ncols matrix from triples. See
// BuildFromTriples.
func FromTriples[T spdnn.Floats](nrows, ncols int, triples []spdnn.Triple[T], opts ...Option) (*Matrix[T], error) {
	m, err := New[T](nrows, ncols, len(triples), opts...)
	if err != nil {
		return nil, err
	}
	if err := m.BuildFromTriples(triples); err != nil {
		_ = m.Release()
		return nil, err
	}
	return m, nil
}

// BuildFromTriples populates an empty matrix from unordered triples and
// finalizes it. Triples sharing a (row, col) pair are summed into one entry.
// triples is sorted in place by column, then row.
func (m *Matrix[T]) BuildFromTriples(triples []spdnn.Triple[T]) error {
	if m.finalized || len(m.regions) > 0 {
		return errors.AssertionFailedf("csc: build from triples on a populated matrix")
	}
	for _, t := range triples {
		if int(t.Row) >= m.nrows || int(t.Col) >= m.ncols {
			return errors.Wrapf(spdnn.ErrOutOfRange, "csc: triple (%d, %d) in [%d x %d]", t.Row, t.Col, m.nrows, m.ncols)
		}
	}

	SortTriples(triples)
	merged := MergeDuplicates(triples)

	if len(merged) > m.Capacity() {
		if err := m.rowIdx.Reallocate(len(merged)); err != nil {
			return err
		}
		if err := m.values.Reallocate(len(merged)); err != nil {
			return err
		}
	}

	w := m.sequential()
	rows, vals, ptr := m.rowIdx.Slice(), m.values.Slice(), m.colPtr.Slice()
	for i, t := range merged {
		rows[i] = t.Row
		vals[i] = t.Weight
		ptr[t.Col+1]++
	}
	w.r.written = len(merged)
	w.next = m.ncols
	return m.Finalize()
}

// SortTriples orders triples by column, then row.
func SortTriples[T spdnn.Floats](triples []spdnn.Triple[T]) {
	slices.SortFunc(triples, func(a, b spdnn.Triple[T]) int {
		if c := cmp.Compare(a.Col, b.Col); c != 0 {
			return c
		}
		return cmp.Compare(a.Row, b.Row)
	})
}

// MergeDuplicates sums the weights of runs of triples sharing a (row, col)
// pair, in place. triples must be sorted; the merged prefix is returned.
func MergeDuplicates[T spdnn.Floats](triples []spdnn.Triple[T]) []spdnn.Triple[T] {
	if len(triples) == 0 {
		return triples
	}
	out := triples[:1]
	for _, t := range triples[1:] {
		last := &out[len(out)-1]
		if t.Row == last.Row && t.Col == last.Col {
			last.Weight += t.Weight
			continue
		}
		out = append(out, t)
	}
	return out
}
