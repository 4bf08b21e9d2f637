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
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	"github.com/ajroetker/go-spdnn/spdnn"
	"github.com/ajroetker/go-spdnn/spdnn/contrib/inference"
	"github.com/ajroetker/go-spdnn/spdnn/contrib/workerpool"
	"github.com/ajroetker/go-spdnn/spdnn/csc"
)

// Dataset is a loaded benchmark instance.
type Dataset[T spdnn.Floats] struct {
	Features   *csc.Matrix[T]
	Network    *inference.Network[T]
	Categories []int
}

// Release frees the feature and weight matrices.
func (d *Dataset[T]) Release() error {
	var err error
	if d.Features != nil {
		err = d.Features.Release()
	}
	if d.Network != nil {
		err = errors.CombineErrors(err, d.Network.Release())
	}
	return err
}

// Load reads the dataset described by cfg. Layer files are parsed
// concurrently on pool, one file per task; pool may be nil.
func Load[T spdnn.Floats](cfg Config, pool *workerpool.Pool) (*Dataset[T], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	bias, err := cfg.BiasValue()
	if err != nil {
		return nil, err
	}
	var opts []csc.Option
	if cfg.PageAligned {
		opts = append(opts, csc.WithPageAligned())
	}

	d := &Dataset[T]{Network: &inference.Network[T]{
		Layers: make([]*csc.Matrix[T], cfg.Layers),
		Biases: make([][]T, cfg.Layers),
	}}

	if d.Features, err = loadMatrix[T](cfg.FeaturesPath(), cfg.Images, cfg.Neurons, cfg.OneBased, opts); err != nil {
		return nil, err
	}

	errs := make([]error, cfg.Layers)
	load := func(k int) {
		d.Network.Layers[k], errs[k] = loadMatrix[T](cfg.LayerPath(k+1), cfg.Neurons, cfg.Neurons, cfg.OneBased, opts)
		d.Network.Biases[k] = lo.Times(cfg.Neurons, func(int) T { return T(bias) })
	}
	if pool == nil {
		for k := range cfg.Layers {
			load(k)
		}
	} else {
		pool.ParallelForAtomic(cfg.Layers, load)
	}
	for _, e := range errs {
		err = errors.CombineErrors(err, e)
	}
	if err != nil {
		d.Network.Layers = lo.Compact(d.Network.Layers)
		return nil, errors.CombineErrors(err, d.Release())
	}

	f, err := Open(cfg.CategoriesPath())
	if err != nil {
		return nil, errors.CombineErrors(err, d.Release())
	}
	defer f.Close()
	if d.Categories, err = ReadCategories(f, cfg.Images, cfg.OneBased); err != nil {
		return nil, errors.CombineErrors(errors.Wrapf(err, "%s", cfg.CategoriesPath()), d.Release())
	}
	return d, nil
}

func loadMatrix[T spdnn.Floats](path string, nrows, ncols int, oneBased bool, opts []csc.Option) (*csc.Matrix[T], error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	triples, err := ReadTriples[T](f, nrows, ncols, oneBased)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	m, err := csc.FromTriples(nrows, ncols, triples, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return m, nil
}
