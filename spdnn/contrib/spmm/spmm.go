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

package spmm

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/ajroetker/go-spdnn/spdnn"
	"github.com/ajroetker/go-spdnn/spdnn/contrib/workerpool"
	"github.com/ajroetker/go-spdnn/spdnn/csc"
)

// MinParallelColumns is the output width below which a multiplication runs
// on the calling goroutine. Narrow layers do not amortize the barriers.
const MinParallelColumns = 64

// Option configures an Engine.
type Option func(*options)

type options struct {
	observer    Observer
	pageAligned bool
}

// WithObserver reports phase durations to o.
func WithObserver(o Observer) Option {
	return func(opts *options) {
		opts.observer = o
	}
}

// WithPageAligned allocates accumulators and output matrices page aligned.
func WithPageAligned() Option {
	return func(opts *options) {
		opts.pageAligned = true
	}
}

// Engine multiplies matrices with nrows rows on a worker pool. It owns one
// accumulator per worker plus a scratch accumulator for single-threaded
// runs, allocated once and reused by every multiplication.
//
// An Engine is not safe for concurrent use.
type Engine[T spdnn.Floats] struct {
	pool    *workerpool.Pool
	nrows   int
	spas    []*csc.Accumulator[T]
	scratch *csc.Accumulator[T]
	opts    options
}

// NewEngine allocates the accumulators for left operands of nrows rows. A
// nil pool runs every multiplication on the calling goroutine.
func NewEngine[T spdnn.Floats](pool *workerpool.Pool, nrows int, opts ...Option) (*Engine[T], error) {
	e := &Engine[T]{pool: pool, nrows: nrows}
	for _, opt := range opts {
		opt(&e.opts)
	}

	var err error
	if e.scratch, err = csc.NewAccumulator[T](nrows, e.matrixOptions()...); err != nil {
		return nil, err
	}
	e.spas = make([]*csc.Accumulator[T], e.workers())
	for w := range e.spas {
		if e.spas[w], err = csc.NewAccumulator[T](nrows, e.matrixOptions()...); err != nil {
			_ = e.Close()
			return nil, err
		}
	}
	return e, nil
}

// Workers returns the number of workers used for wide multiplications.
func (e *Engine[T]) Workers() int {
	return e.workers()
}

func (e *Engine[T]) workers() int {
	if e.pool == nil {
		return 1
	}
	return e.pool.NumWorkers()
}

func (e *Engine[T]) matrixOptions() []csc.Option {
	if e.opts.pageAligned {
		return []csc.Option{csc.WithPageAligned()}
	}
	return nil
}

func (e *Engine[T]) observe(p Phase, start time.Time) {
	if e.opts.observer != nil {
		e.opts.observer.ObservePhase(p, time.Since(start))
	}
}

// Close releases the accumulators.
func (e *Engine[T]) Close() error {
	var err error
	if e.scratch != nil {
		err = e.scratch.Release()
	}
	for _, acc := range e.spas {
		if acc != nil {
			err = errors.CombineErrors(err, acc.Release())
		}
	}
	return err
}

// Multiply returns the finalized matrix ReLU(a*b + bias), where bias[j] is
// added to every stored entry of column j before clamping. Entries that end
// at zero are not stored.
func (e *Engine[T]) Multiply(a, b *csc.Matrix[T], bias []T) (*csc.Matrix[T], error) {
	if err := e.checkShapes(a, b, bias); err != nil {
		return nil, err
	}
	c, err := e.multiply(a, b, bias)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	if err := c.Finalize(); err != nil {
		_ = c.Release()
		return nil, err
	}
	e.observe(PhaseFinalize, start)
	return c, nil
}

// Apply replaces y with ReLU(y*w + bias). y keeps its identity; only its
// storage changes. w must be square in the sense that y's width is kept.
func (e *Engine[T]) Apply(y, w *csc.Matrix[T], bias []T) error {
	if err := e.checkShapes(y, w, bias); err != nil {
		return err
	}
	if w.Cols() != y.Cols() {
		return errors.Wrapf(spdnn.ErrDimensionMismatch,
			"spmm: output [%d x %d] does not fit activations [%d x %d]", y.Rows(), w.Cols(), y.Rows(), y.Cols())
	}
	z, err := e.multiply(y, w, bias)
	if err != nil {
		return err
	}
	start := time.Now()
	err = z.Finalize()
	if err == nil {
		err = y.RebuildFrom(z)
	}
	err = errors.CombineErrors(err, z.Release())
	e.observe(PhaseFinalize, start)
	return err
}

func (e *Engine[T]) checkShapes(a, b *csc.Matrix[T], bias []T) error {
	if a.Cols() != b.Rows() {
		return errors.Wrapf(spdnn.ErrDimensionMismatch,
			"spmm: A[%d x %d] B[%d x %d]", a.Rows(), a.Cols(), b.Rows(), b.Cols())
	}
	if a.Rows() != e.nrows {
		return errors.Wrapf(spdnn.ErrDimensionMismatch,
			"spmm: A[%d x %d] with accumulators of %d rows", a.Rows(), a.Cols(), e.nrows)
	}
	if len(bias) != b.Cols() {
		return errors.Wrapf(spdnn.ErrDimensionMismatch,
			"spmm: bias of %d entries for C[%d x %d]", len(bias), a.Rows(), b.Cols())
	}
	if !a.Finalized() || !b.Finalized() {
		return errors.AssertionFailedf("spmm: operands must be finalized")
	}
	return nil
}

// multiply runs the symbolic, allocate and numeric phases and returns the
// output before Finalize.
func (e *Engine[T]) multiply(a, b *csc.Matrix[T], bias []T) (*csc.Matrix[T], error) {
	accs := e.spas
	if b.Cols() < MinParallelColumns || len(accs) == 1 {
		accs = []*csc.Accumulator[T]{e.scratch}
	}
	workers := len(accs)
	ctx := NewContext(workers)
	writers := make([]*csc.ColumnWriter[T], workers)

	var (
		c            *csc.Matrix[T]
		allocErr     error
		numericStart time.Time
	)
	phaseStart := time.Now()

	run := func(worker int) {
		acc := accs[worker]
		start, end := workerpool.Partition(b.Cols(), workers, worker)
		ctx.Publish(worker, start, end, symbolic(a, b, acc, start, end))
		ctx.Barrier().Wait()

		if worker == 0 {
			e.observe(PhaseSymbolic, phaseStart)
			allocStart := time.Now()
			c, allocErr = e.allocate(a, b, ctx, writers)
			e.observe(PhaseAllocate, allocStart)
			numericStart = time.Now()
		}
		ctx.Barrier().Wait()

		if allocErr != nil {
			return
		}
		start, end = ctx.Range(worker)
		numeric(a, b, bias, acc, writers[worker], start, end)
	}

	if workers == 1 || e.pool == nil {
		run(0)
	} else {
		e.pool.Run(run)
	}
	if allocErr != nil {
		return nil, allocErr
	}
	e.observe(PhaseNumeric, numericStart)
	return c, nil
}

// allocate creates the output with exactly the counted capacity and reserves
// one window per worker, in worker order.
func (e *Engine[T]) allocate(a, b *csc.Matrix[T], ctx *Context, writers []*csc.ColumnWriter[T]) (*csc.Matrix[T], error) {
	c, err := csc.New[T](a.Rows(), b.Cols(), ctx.Total(), e.matrixOptions()...)
	if err != nil {
		return nil, err
	}
	bases := ctx.Offsets()
	for w := range writers {
		start, end := ctx.Range(w)
		if writers[w], err = c.Reserve(start, end, bases[w], ctx.Count(w)); err != nil {
			_ = c.Release()
			return nil, err
		}
	}
	return c, nil
}

// symbolic returns the number of distinct rows reached by columns
// [start, end) of a*b. Rows are marked, never summed, so cancellation
// cannot hide an entry.
func symbolic[T spdnn.Floats](a, b *csc.Matrix[T], acc *csc.Accumulator[T], start, end int) int {
	aPtr, aRows := a.ColumnPointers(), a.RowIndices()
	bPtr, bRows := b.ColumnPointers(), b.RowIndices()

	nnz := 0
	for j := start; j < end; j++ {
		for k := bPtr[j]; k < bPtr[j+1]; k++ {
			l := bRows[k]
			for m := aPtr[l]; m < aPtr[l+1]; m++ {
				acc.Mark(int(aRows[m]))
			}
		}
		nnz += acc.CountAndReset()
	}
	return nnz
}

// numeric accumulates columns [start, end) of a*b and drains each one
// through w with its bias and ReLU.
func numeric[T spdnn.Floats](a, b *csc.Matrix[T], bias []T, acc *csc.Accumulator[T], w *csc.ColumnWriter[T], start, end int) {
	aPtr, aRows, aVals := a.ColumnPointers(), a.RowIndices(), a.Values()
	bPtr, bRows, bVals := b.ColumnPointers(), b.RowIndices(), b.Values()

	for j := start; j < end; j++ {
		for k := bPtr[j]; k < bPtr[j+1]; k++ {
			l, v := bRows[k], bVals[k]
			for m := aPtr[l]; m < aPtr[l+1]; m++ {
				acc.Add(int(aRows[m]), aVals[m]*v)
			}
		}
		w.AppendColumnBiasReLU(acc, j, bias[j])
	}
}
