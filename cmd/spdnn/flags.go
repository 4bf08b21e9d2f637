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

package main

import (
	"github.com/spf13/pflag"

	"github.com/ajroetker/go-spdnn/spdnn/contrib/dataset"
)

type inferFlags struct {
	config   string
	logLevel string
	bias     float64
	cfg      dataset.Config
}

func (f *inferFlags) register(fs *pflag.FlagSet) {
	def := dataset.DefaultConfig()
	fs.StringVarP(&f.config, "config", "c", "", "YAML run configuration; flags override its values")
	fs.StringVar(&f.logLevel, "log.level", "info", "Log level: debug, info, warn or error")
	fs.StringVar(&f.cfg.Dir, "dir", "", "Dataset directory")
	fs.IntVar(&f.cfg.Neurons, "neurons", 0, "Neurons per layer")
	fs.IntVar(&f.cfg.Layers, "layers", 0, "Number of layers")
	fs.IntVar(&f.cfg.Images, "images", def.Images, "Number of input images")
	fs.Float64Var(&f.bias, "bias", 0, "Bias of every neuron (default depends on --neurons)")
	fs.BoolVar(&f.cfg.OneBased, "one-based", def.OneBased, "Indices in the dataset files start at 1")
	fs.IntVarP(&f.cfg.Workers, "workers", "w", 0, "Worker goroutines (0 means GOMAXPROCS)")
	fs.StringVar(&f.cfg.Precision, "precision", def.Precision, "Weight precision: float32 or float64")
	fs.StringVar(&f.cfg.Format, "format", def.Format, "Sparse matrix format")
	fs.BoolVar(&f.cfg.PageAligned, "page-aligned", false, "Allocate matrix buffers on page boundaries")
	fs.StringVar(&f.cfg.MetricsAddr, "metrics.addr", "", "Serve Prometheus metrics on this address")
}

// resolve returns the configuration file, if any, with every flag set on the
// command line applied on top.
func (f *inferFlags) resolve(fs *pflag.FlagSet) (dataset.Config, error) {
	cfg := dataset.DefaultConfig()
	if f.config != "" {
		var err error
		if cfg, err = dataset.LoadConfig(f.config); err != nil {
			return cfg, err
		}
	}

	fs.Visit(func(fl *pflag.Flag) {
		switch fl.Name {
		case "dir":
			cfg.Dir = f.cfg.Dir
		case "neurons":
			cfg.Neurons = f.cfg.Neurons
		case "layers":
			cfg.Layers = f.cfg.Layers
		case "images":
			cfg.Images = f.cfg.Images
		case "bias":
			b := f.bias
			cfg.Bias = &b
		case "one-based":
			cfg.OneBased = f.cfg.OneBased
		case "workers":
			cfg.Workers = f.cfg.Workers
		case "precision":
			cfg.Precision = f.cfg.Precision
		case "format":
			cfg.Format = f.cfg.Format
		case "page-aligned":
			cfg.PageAligned = f.cfg.PageAligned
		case "metrics.addr":
			cfg.MetricsAddr = f.cfg.MetricsAddr
		}
	})
	return cfg, cfg.Validate()
}
