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
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// FeaturesPath returns the uncompressed name of the feature file.
func (c Config) FeaturesPath() string {
	return filepath.Join(c.Dir, fmt.Sprintf("sparse-images-%d.tsv", c.Neurons))
}

// LayerPath returns the uncompressed name of the weights of layer k,
// counting from 1.
func (c Config) LayerPath(k int) string {
	return filepath.Join(c.Dir, fmt.Sprintf("neuron%d", c.Neurons), fmt.Sprintf("n%d-l%d.tsv", c.Neurons, k))
}

// CategoriesPath returns the uncompressed name of the category file.
func (c Config) CategoriesPath() string {
	return filepath.Join(c.Dir, fmt.Sprintf("neuron%d-l%d-categories.tsv", c.Neurons, c.Layers))
}

type readCloser struct {
	io.Reader
	closers []func() error
}

func (r *readCloser) Close() error {
	var err error
	for _, c := range r.closers {
		err = errors.CombineErrors(err, c())
	}
	return err
}

// Open opens path, or path.gz, or path.zst, whichever exists first, and
// returns a reader over the decompressed contents.
func Open(path string) (io.ReadCloser, error) {
	for _, name := range []string{path, path + ".gz", path + ".zst"} {
		f, err := os.Open(name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "dataset: opening %s", name)
		}

		switch filepath.Ext(name) {
		case ".gz":
			zr, err := gzip.NewReader(f)
			if err != nil {
				_ = f.Close()
				return nil, errors.Wrapf(err, "dataset: reading gzip header of %s", name)
			}
			return &readCloser{Reader: zr, closers: []func() error{zr.Close, f.Close}}, nil
		case ".zst":
			zr, err := zstd.NewReader(f)
			if err != nil {
				_ = f.Close()
				return nil, errors.Wrapf(err, "dataset: opening zstd stream %s", name)
			}
			return &readCloser{Reader: zr, closers: []func() error{
				func() error { zr.Close(); return nil },
				f.Close,
			}}, nil
		default:
			return f, nil
		}
	}
	return nil, errors.Wrapf(fs.ErrNotExist, "dataset: none of %s{,.gz,.zst}", path)
}
