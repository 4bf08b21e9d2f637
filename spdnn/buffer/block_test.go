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

package buffer

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-spdnn/spdnn"
)

func TestAllocateZeroed(t *testing.T) {
	for _, aligned := range []bool{false, true} {
		b, err := Allocate[float32](1000, aligned)
		require.NoError(t, err)
		require.Equal(t, 1000, b.Len())
		require.Equal(t, 4000, b.Bytes())
		require.Equal(t, aligned, b.PageAligned())
		for i, v := range b.Slice() {
			require.Zerof(t, v, "element %d", i)
		}
		require.NoError(t, b.Release())
	}
}

func TestAllocatePageAligned(t *testing.T) {
	b, err := Allocate[uint64](17, true)
	require.NoError(t, err)
	defer b.Release()
	require.True(t, IsPageAligned(b.Slice()))
}

func TestAllocateNegative(t *testing.T) {
	_, err := Allocate[uint32](-1, false)
	require.True(t, errors.Is(err, spdnn.ErrBadShape))
}

func TestReallocateGrowPreservesPrefix(t *testing.T) {
	for _, aligned := range []bool{false, true} {
		b, err := Allocate[uint32](4, aligned)
		require.NoError(t, err)
		copy(b.Slice(), []uint32{1, 2, 3, 4})

		require.NoError(t, b.Reallocate(10))
		require.Equal(t, 10, b.Len())
		require.Equal(t, []uint32{1, 2, 3, 4}, b.Slice()[:4])
		if aligned {
			require.True(t, IsPageAligned(b.Slice()))
		}
		require.NoError(t, b.Release())
	}
}

func TestReallocateShrink(t *testing.T) {
	b, err := Allocate[float64](5, true)
	require.NoError(t, err)
	copy(b.Slice(), []float64{1, 2, 3, 4, 5})

	require.NoError(t, b.Reallocate(2))
	require.Equal(t, []float64{1, 2}, b.Slice())
	require.Equal(t, 16, b.Bytes())

	require.NoError(t, b.Reallocate(0))
	require.Equal(t, 0, b.Len())
	require.NoError(t, b.Release())
}

func TestClearKeepsLength(t *testing.T) {
	b, err := Allocate[int32](3, false)
	require.NoError(t, err)
	copy(b.Slice(), []int32{7, 8, 9})
	b.Clear()
	require.Equal(t, []int32{0, 0, 0}, b.Slice())
}

func TestRelease(t *testing.T) {
	b, err := Allocate[float32](8, true)
	require.NoError(t, err)
	require.NoError(t, b.Release())
	require.True(t, b.Released())
	require.Nil(t, b.Slice())
	require.NoError(t, b.Release())

	err = b.Reallocate(4)
	require.True(t, errors.Is(err, spdnn.ErrReleased))
}
