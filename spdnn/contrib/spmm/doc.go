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

// Package spmm multiplies compressed sparse column matrices in parallel,
// fusing a per-column bias and a ReLU into the product.
//
// One multiplication C = ReLU(A*B + bias) runs as a small state machine over
// a fixed set of workers, each owning a static contiguous range of C's
// columns:
//
//	SYMBOLIC  each worker counts the nonzeros of its columns of A*B
//	BARRIER
//	ALLOCATE  one coordinator sums the counts and allocates C exactly
//	BARRIER
//	NUMERIC   each worker accumulates its columns and drains them into C
//	BARRIER
//	FINALIZE  C is compacted and, for Apply, copied back into A
//
// The counts are exact for the structure of A*B, so C never grows inside the
// numeric loop. Entries that ReLU maps to zero are not stored; Finalize
// closes the resulting gaps.
//
// Example:
//
//	pool := workerpool.New(0)
//	engine, _ := spmm.NewEngine[float32](pool, activations.Rows())
//	defer engine.Close()
//	for l := range weights {
//	    if err := engine.Apply(activations, weights[l], biases[l]); err != nil {
//	        return err
//	    }
//	}
package spmm
