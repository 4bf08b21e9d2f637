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


// Package spdnn provides sparse deep neural network inference on the CPU.
//
// A network is a chain of sparse weight matrices, each paired with one bias
// per output neuron. Inference repeatedly multiplies the sparse activation
// matrix by the next layer's weights, adds the bias to every stored entry and
// clamps negative results to zero (ReLU). The rows still holding a nonzero
// after the last layer are the predicted categories.
//
// Sub-packages:
//
//	buffer               owned, resizable typed storage (optionally page aligned)
//	csc                  compressed sparse column matrices and dense accumulators
//	contrib/workerpool   persistent worker pool, barrier and static partitioning
//	contrib/spmm         two-phase parallel sparse matrix multiply
//	contrib/inference    layer driver, validation and metrics
//	contrib/dataset      Graph Challenge dataset and run configuration loading
//
// Basic usage:
//
//	features, _ := csc.FromTriples(nrows, ncols, featureTriples)
//	net := inference.Network[float32]{Layers: layers, Biases: biases}
//	_ = inference.Infer(pool, net, features)
//	ok := inference.Validate(features, categories)
package spdnn

// Floats is a constraint for floating-point weight types.
type Floats interface {
	~float32 | ~float64
}

// Triple is one raw sparse entry: weight at (Row, Col).
type Triple[T Floats] struct {
	Row    uint32
	Col    uint32
	Weight T
}
