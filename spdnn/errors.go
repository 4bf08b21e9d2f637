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


package spdnn

import "github.com/cockroachdb/errors"

// Sentinel errors shared by every sub-package. Callers match them with
// errors.Is; returned errors wrap them with the offending shapes.
var (
	// ErrDimensionMismatch is returned when two operands, or an operand and a
	// declared output shape, do not agree.
	ErrDimensionMismatch = errors.New("spdnn: dimension mismatch")

	// ErrUnsupportedFormat is returned for any matrix format selector other
	// than compressed sparse column.
	ErrUnsupportedFormat = errors.New("spdnn: unsupported matrix format")

	// ErrBadShape is returned for negative dimensions or capacities.
	ErrBadShape = errors.New("spdnn: invalid shape")

	// ErrOutOfRange is returned when a row or column index falls outside the
	// declared shape.
	ErrOutOfRange = errors.New("spdnn: index out of range")

	// ErrReleased is returned when storage is used after Release.
	ErrReleased = errors.New("spdnn: storage released")
)

// Format selects a sparse matrix layout.
type Format string

// FormatCSC is the only implemented layout.
const FormatCSC Format = "csc"

// ParseFormat validates a format selector.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSC, "":
		return FormatCSC, nil
	default:
		return "", errors.Wrapf(ErrUnsupportedFormat, "format %q", s)
	}
}
