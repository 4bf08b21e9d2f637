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
	"fmt"
	"io"
)

// Walk writes every stored entry of m to w, column by column.
func (m *Matrix[T]) Walk(w io.Writer) error {
	for j := range m.ncols {
		if _, err := fmt.Fprintf(w, "j=%d\n", j); err != nil {
			return err
		}
		rows, vals := m.Column(j)
		for k, i := range rows {
			if _, err := fmt.Fprintf(w, "i=%d,j=%d,value=%v\n", i, j, vals[k]); err != nil {
				return err
			}
		}
	}
	return nil
}

// Dense expands m into a row-major nrows*ncols slice.
func (m *Matrix[T]) Dense() []T {
	out := make([]T, m.nrows*m.ncols)
	for j := range m.ncols {
		rows, vals := m.Column(j)
		for k, i := range rows {
			out[int(i)*m.ncols+j] = vals[k]
		}
	}
	return out
}

// String returns a short description of the matrix shape and size.
func (m *Matrix[T]) String() string {
	return fmt.Sprintf("csc[%d x %d] nnz=%d bytes=%d", m.nrows, m.ncols, m.nnz, m.Bytes())
}
