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

//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package buffer

import (
	"os"
	"unsafe"
)

// mapAligned over-allocates by one page and returns the first page-aligned
// window of nbytes. The garbage collector keeps the whole array alive through
// the window.
func mapAligned(nbytes int) ([]byte, error) {
	page := pageSize()
	buf := make([]byte, nbytes+page)
	off := 0
	if rem := int(uintptr(unsafe.Pointer(&buf[0])) % uintptr(page)); rem != 0 {
		off = page - rem
	}
	return buf[off : off+nbytes : off+nbytes], nil
}

func unmapAligned([]byte) error {
	return nil
}

func pageSize() int {
	return os.Getpagesize()
}
