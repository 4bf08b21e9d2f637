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

package inference

import (
	"slices"
	"sync"

	"github.com/ajroetker/go-spdnn/spdnn"
	"github.com/ajroetker/go-spdnn/spdnn/contrib/workerpool"
	"github.com/ajroetker/go-spdnn/spdnn/csc"
)

type partial[T spdnn.Floats] struct {
	start int
	sums  []T
}

// RowSums returns the sum of the stored values of every row of y. Column
// ranges are summed on the pool and merged in column order, so the result
// does not depend on the number of workers.
func RowSums[T spdnn.Floats](pool *workerpool.Pool, y *csc.Matrix[T]) []T {
	sums := make([]T, y.Rows())
	if pool == nil {
		addColumns(y, sums, 0, y.Cols())
		return sums
	}

	var (
		mu       sync.Mutex
		partials []partial[T]
	)
	pool.ParallelFor(y.Cols(), func(start, end int) {
		local := make([]T, y.Rows())
		addColumns(y, local, start, end)
		mu.Lock()
		partials = append(partials, partial[T]{start: start, sums: local})
		mu.Unlock()
	})

	slices.SortFunc(partials, func(a, b partial[T]) int { return a.start - b.start })
	for _, p := range partials {
		for i, v := range p.sums {
			sums[i] += v
		}
	}
	return sums
}

func addColumns[T spdnn.Floats](y *csc.Matrix[T], sums []T, start, end int) {
	ptr, rows, vals := y.ColumnPointers(), y.RowIndices(), y.Values()
	for k := ptr[start]; k < ptr[end]; k++ {
		sums[rows[k]] += vals[k]
	}
}

// Predict returns, in ascending order, the rows of y whose values sum to a
// nonzero value.
func Predict[T spdnn.Floats](pool *workerpool.Pool, y *csc.Matrix[T]) []int {
	predictions := []int{}
	for i, s := range RowSums(pool, y) {
		if s != 0 {
			predictions = append(predictions, i)
		}
	}
	return predictions
}

// Validate reports whether the predictions of y are exactly categories.
func Validate[T spdnn.Floats](pool *workerpool.Pool, y *csc.Matrix[T], categories []int) bool {
	return slices.Equal(Predict(pool, y), categories)
}
