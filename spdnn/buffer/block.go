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

// Package buffer provides owned, resizable typed storage.
//
// A Block is the only owner of its backing array. Callers read and write
// elements through Slice, and change the storage only through Reallocate,
// Clear and Release. A slice obtained from Slice is invalidated by the next
// Reallocate or Release.
//
// Blocks may be page aligned. On Linux and the BSDs page-aligned storage is
// an anonymous private mapping; elsewhere it is carved out of an
// over-allocated Go slice.
package buffer

import (
	"unsafe"

	"github.com/cockroachdb/errors"

	"github.com/ajroetker/go-spdnn/spdnn"
)

// Numeric is a constraint for element types that may live in a Block.
// Elements never contain pointers, so mapped memory is safe for them.
type Numeric interface {
	~uint32 | ~uint64 | ~int32 | ~int64 | ~float32 | ~float64
}

// Block is one typed backing array with a tracked length.
type Block[T Numeric] struct {
	data        []T
	raw         []byte // page-aligned region backing data, nil when unaligned
	pageAligned bool
	released    bool
}

// Allocate reserves count zero-initialised elements.
func Allocate[T Numeric](count int, pageAligned bool) (*Block[T], error) {
	if count < 0 {
		return nil, errors.Wrapf(spdnn.ErrBadShape, "buffer: count %d", count)
	}
	b := &Block[T]{pageAligned: pageAligned}
	data, raw, err := allocate[T](count, pageAligned)
	if err != nil {
		return nil, err
	}
	b.data, b.raw = data, raw
	return b, nil
}

// Len returns the number of elements currently owned.
func (b *Block[T]) Len() int {
	return len(b.data)
}

// Bytes returns the size of the owned elements in bytes.
func (b *Block[T]) Bytes() int {
	return len(b.data) * elemSize[T]()
}

// PageAligned reports whether the block was allocated page aligned.
func (b *Block[T]) PageAligned() bool {
	return b.pageAligned
}

// Released reports whether Release has been called.
func (b *Block[T]) Released() bool {
	return b.released
}

// Slice returns the live view of the elements.
func (b *Block[T]) Slice() []T {
	return b.data
}

// Reallocate grows or shrinks the block to count elements. Elements below
// min(old, new) length are preserved; grown elements are zero.
func (b *Block[T]) Reallocate(count int) error {
	if b.released {
		return spdnn.ErrReleased
	}
	if count < 0 {
		return errors.Wrapf(spdnn.ErrBadShape, "buffer: count %d", count)
	}
	if count == len(b.data) {
		return nil
	}
	data, raw, err := allocate[T](count, b.pageAligned)
	if err != nil {
		return err
	}
	copy(data, b.data)
	if err := b.free(); err != nil {
		return err
	}
	b.data, b.raw = data, raw
	return nil
}

// Clear zero-fills the block without changing its length.
func (b *Block[T]) Clear() {
	clear(b.data)
}

// Release frees the storage. Calling Release again is a no-op.
func (b *Block[T]) Release() error {
	if b.released {
		return nil
	}
	b.released = true
	err := b.free()
	b.data, b.raw = nil, nil
	return err
}

func (b *Block[T]) free() error {
	if b.raw == nil {
		return nil
	}
	return unmapAligned(b.raw)
}

func allocate[T Numeric](count int, pageAligned bool) ([]T, []byte, error) {
	if !pageAligned || count == 0 {
		return make([]T, count), nil, nil
	}
	raw, err := mapAligned(count * elemSize[T]())
	if err != nil {
		return nil, nil, errors.Wrapf(err, "buffer: page-aligned allocation of %d elements", count)
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&raw[0])), count), raw, nil
}

func elemSize[T Numeric]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// IsPageAligned reports whether the first element of s starts on a page
// boundary. Empty slices are reported as aligned.
func IsPageAligned[T Numeric](s []T) bool {
	if len(s) == 0 {
		return true
	}
	return uintptr(unsafe.Pointer(&s[0]))%uintptr(pageSize()) == 0
}
