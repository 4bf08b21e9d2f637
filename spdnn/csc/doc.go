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

// Package csc implements compressed sparse column (CSC) matrices.
//
// A Matrix stores its nonzeros grouped by column in three owned buffers: a
// row-index array, a value array and a column-offset array of length
// ncols+1. Column j occupies [offsets[j], offsets[j+1]) of the other two.
//
// A Matrix is populated through exactly one ingestion path:
//
//   - BuildFromTriples, from unordered (row, col, weight) records;
//   - column drains from an Accumulator, either sequentially through
//     AppendColumn / AppendColumnBiasReLU, or concurrently through
//     ColumnWriters handed out by Reserve;
//   - RebuildFrom, copying another matrix while dropping explicit zeros.
//
// While a matrix is being written, offsets[j+1] holds the entry count of
// column j. Finalize compacts the written regions, converts the counts into
// offsets and shrinks the row and value buffers to the exact entry count.
// Offsets, row indices and values are only meaningful after Finalize.
//
// Example:
//
//	m, err := csc.FromTriples(3, 2, []spdnn.Triple[float32]{
//		{Row: 2, Col: 1, Weight: 4},
//		{Row: 0, Col: 0, Weight: 1},
//	})
//	rows, vals := m.Column(1) // [2], [4]
package csc
