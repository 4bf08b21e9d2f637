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

// Package dataset reads sparse DNN benchmark inputs laid out as in the
// Graph Challenge: a feature matrix, one weight matrix per layer and the list
// of expected categories, all as tab-separated triples.
//
//	<dir>/sparse-images-<N>.tsv
//	<dir>/neuron<N>/n<N>-l<k>.tsv          k = 1..L
//	<dir>/neuron<N>-l<L>-categories.tsv
//
// Every file may also be stored gzip (.gz) or zstd (.zst) compressed.
package dataset

import (
	"bytes"
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/ajroetker/go-spdnn/spdnn"
)

// Precisions accepted by Config.Precision.
const (
	Float32 = "float32"
	Float64 = "float64"
)

// Config describes one inference run.
type Config struct {
	// Dir is the dataset root.
	Dir string `yaml:"dir"`
	// Neurons is the width of every layer.
	Neurons int `yaml:"neurons"`
	// Layers is the number of layers to apply.
	Layers int `yaml:"layers"`
	// Images is the number of feature rows.
	Images int `yaml:"images"`
	// Bias overrides the per-neuron-count default bias.
	Bias *float64 `yaml:"bias,omitempty"`
	// OneBased marks row and column indices in the files as starting at 1.
	OneBased bool `yaml:"one_based"`
	// Workers is the pool size; 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`
	// Precision is float32 or float64.
	Precision string `yaml:"precision"`
	// Format selects the sparse format. Only csc is implemented.
	Format string `yaml:"format"`
	// PageAligned allocates matrix buffers on page boundaries.
	PageAligned bool `yaml:"page_aligned"`
	// MetricsAddr, when set, serves Prometheus metrics on this address.
	MetricsAddr string `yaml:"metrics_addr"`
}

// DefaultConfig returns the settings of the Graph Challenge MNIST runs.
func DefaultConfig() Config {
	return Config{
		Images:    60000,
		OneBased:  true,
		Precision: Float32,
		Format:    string(spdnn.FormatCSC),
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig. Unknown keys are
// rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "dataset: reading config")
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, errors.Wrapf(err, "dataset: parsing config %s", path)
	}
	return cfg, nil
}

// Validate checks that the configuration describes a runnable dataset.
func (c Config) Validate() error {
	if _, err := spdnn.ParseFormat(c.Format); err != nil {
		return err
	}
	if c.Dir == "" {
		return errors.New("dataset: no directory given")
	}
	if c.Neurons <= 0 || c.Layers <= 0 || c.Images <= 0 {
		return errors.Wrapf(spdnn.ErrBadShape,
			"dataset: neurons=%d layers=%d images=%d", c.Neurons, c.Layers, c.Images)
	}
	if c.Workers < 0 {
		return errors.Newf("dataset: workers=%d", c.Workers)
	}
	if c.Precision != Float32 && c.Precision != Float64 {
		return errors.Newf("dataset: unknown precision %q", c.Precision)
	}
	_, err := c.BiasValue()
	return err
}

// BiasValue returns the configured bias or the default for Neurons.
func (c Config) BiasValue() (float64, error) {
	if c.Bias != nil {
		return *c.Bias, nil
	}
	return DefaultBias(c.Neurons)
}

var defaultBias = map[int]float64{
	1024:  -0.30,
	4096:  -0.35,
	16384: -0.40,
	65536: -0.45,
}

// DefaultBias returns the bias the challenge uses for networks of the given
// width.
func DefaultBias(neurons int) (float64, error) {
	b, ok := defaultBias[neurons]
	if !ok {
		return 0, errors.Newf("dataset: no default bias for %d neurons, set one explicitly", neurons)
	}
	return b, nil
}
