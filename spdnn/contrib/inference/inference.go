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

// Package inference runs a sparse deep neural network forward pass.
//
// A Network is a sequence of square sparse weight matrices, each with one
// bias per output neuron. Infer applies every layer to the activation matrix
// in place:
//
//	Y <- ReLU(Y * W_k + b_k)
//
// reusing one spmm.Engine, and so one set of accumulators, for the whole
// run. Predict and Validate turn the final activations into category
// predictions.
package inference

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/ajroetker/go-spdnn/spdnn"
	"github.com/ajroetker/go-spdnn/spdnn/contrib/spmm"
	"github.com/ajroetker/go-spdnn/spdnn/contrib/workerpool"
	"github.com/ajroetker/go-spdnn/spdnn/csc"
)

// Network is an ordered list of layers. Biases[k][j] is added to output
// neuron j of layer k.
type Network[T spdnn.Floats] struct {
	Layers []*csc.Matrix[T]
	Biases [][]T
}

// Check reports whether the layers chain and every bias vector matches its
// layer width.
func (n *Network[T]) Check() error {
	if len(n.Layers) != len(n.Biases) {
		return errors.Wrapf(spdnn.ErrBadShape, "inference: %d layers with %d bias vectors", len(n.Layers), len(n.Biases))
	}
	for k, w := range n.Layers {
		if len(n.Biases[k]) != w.Cols() {
			return errors.Wrapf(spdnn.ErrDimensionMismatch,
				"inference: layer %d is [%d x %d] with %d biases", k, w.Rows(), w.Cols(), len(n.Biases[k]))
		}
		if k > 0 && n.Layers[k-1].Cols() != w.Rows() {
			return errors.Wrapf(spdnn.ErrDimensionMismatch,
				"inference: layer %d [%d x %d] does not follow [%d x %d]",
				k, w.Rows(), w.Cols(), n.Layers[k-1].Rows(), n.Layers[k-1].Cols())
		}
	}
	return nil
}

// Release frees every layer.
func (n *Network[T]) Release() error {
	var err error
	for _, w := range n.Layers {
		err = errors.CombineErrors(err, w.Release())
	}
	return err
}

// Option configures Infer.
type Option func(*options)

type options struct {
	logger  log.Logger
	metrics *Metrics
}

// WithLogger logs one line per layer to logger.
func WithLogger(logger log.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// WithMetrics records layer and phase timings in m.
func WithMetrics(m *Metrics) Option {
	return func(opts *options) {
		opts.metrics = m
	}
}

// Infer applies every layer of net to y in place. pool may be nil, in which
// case everything runs on the calling goroutine. y must be finalized and as
// wide as the first layer is tall.
func Infer[T spdnn.Floats](pool *workerpool.Pool, net *Network[T], y *csc.Matrix[T], opts ...Option) (err error) {
	o := options{logger: log.NewNopLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := net.Check(); err != nil {
		return err
	}

	var engineOpts []spmm.Option
	if o.metrics != nil {
		engineOpts = append(engineOpts, spmm.WithObserver(o.metrics))
	}
	if y.PageAligned() {
		engineOpts = append(engineOpts, spmm.WithPageAligned())
	}
	engine, err := spmm.NewEngine[T](pool, y.Rows(), engineOpts...)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.CombineErrors(err, engine.Close())
	}()

	runStart := time.Now()
	for k, w := range net.Layers {
		start := time.Now()
		if err := engine.Apply(y, w, net.Biases[k]); err != nil {
			return errors.Wrapf(err, "layer %d", k)
		}
		d := time.Since(start)
		if o.metrics != nil {
			o.metrics.observeLayer(y.NNZ(), d)
		}

		lvl := level.Debug
		if k == 0 {
			lvl = level.Info
		}
		lvl(o.logger).Log("msg", "layer done", "layer", k, "rows", y.Rows(), "cols", y.Cols(), "nnz", y.NNZ(), "duration", d)
	}
	level.Info(o.logger).Log("msg", "inference done", "layers", len(net.Layers), "workers", engine.Workers(), "nnz", y.NNZ(), "duration", time.Since(runStart))
	return nil
}
