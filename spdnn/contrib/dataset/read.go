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

package dataset

import (
	"bufio"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	"github.com/ajroetker/go-spdnn/spdnn"
)

const maxLine = 1 << 20

// ReadTriples parses "row<TAB>col<TAB>value" lines of an nrows x ncols
// matrix. Blank lines are skipped.
func ReadTriples[T spdnn.Floats](r io.Reader, nrows, ncols int, oneBased bool) ([]spdnn.Triple[T], error) {
	var triples []spdnn.Triple[T]
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	for line := 1; sc.Scan(); line++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 3 {
			return nil, errors.Newf("dataset: line %d: want 3 fields, got %d", line, len(fields))
		}
		row, err := parseIndex(fields[0], nrows, oneBased)
		if err != nil {
			return nil, errors.Wrapf(err, "dataset: line %d: row", line)
		}
		col, err := parseIndex(fields[1], ncols, oneBased)
		if err != nil {
			return nil, errors.Wrapf(err, "dataset: line %d: column", line)
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "dataset: line %d: value", line)
		}
		triples = append(triples, spdnn.Triple[T]{Row: row, Col: col, Weight: T(v)})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "dataset: reading triples")
	}
	return triples, nil
}

// ReadCategories parses one row index per line and returns the indices in
// ascending order. A row listed twice is an error.
func ReadCategories(r io.Reader, nrows int, oneBased bool) ([]int, error) {
	categories := []int{}
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		s := strings.TrimSpace(sc.Text())
		if s == "" {
			continue
		}
		row, err := parseIndex(s, nrows, oneBased)
		if err != nil {
			return nil, errors.Wrapf(err, "dataset: line %d", line)
		}
		categories = append(categories, int(row))
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "dataset: reading categories")
	}
	slices.Sort(categories)
	if dups := lo.FindDuplicates(categories); len(dups) > 0 {
		return nil, errors.Wrapf(spdnn.ErrOutOfRange, "dataset: category rows listed more than once: %v", dups)
	}
	return categories, nil
}

func parseIndex(s string, n int, oneBased bool) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	if oneBased {
		if v == 0 {
			return 0, errors.Wrapf(spdnn.ErrOutOfRange, "index 0 in a one-based file")
		}
		v--
	}
	if v >= uint64(n) {
		return 0, errors.Wrapf(spdnn.ErrOutOfRange, "index %s outside [0, %d)", s, n)
	}
	return uint32(v), nil
}
