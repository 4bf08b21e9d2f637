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

package inference

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ajroetker/go-spdnn/spdnn/contrib/spmm"
)

// Metrics holds the Prometheus metrics of an inference run. It implements
// spmm.Observer so the engine can report phase durations directly.
type Metrics struct {
	LayerDuration prometheus.Histogram
	PhaseDuration *prometheus.HistogramVec
	ActivationNNZ prometheus.Gauge
	Layers        prometheus.Counter
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	layerDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "spdnn_layer_duration_seconds",
		Help:    "Wall time of one layer, from symbolic pass to rebuilt activations",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 16),
	})

	phaseDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "spdnn_spmm_phase_duration_seconds",
		Help:    "Wall time of each sparse multiplication phase",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 18),
	}, []string{"phase"})

	activationNNZ := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "spdnn_activation_nonzeros",
		Help: "Stored entries of the activation matrix after the latest layer",
	})

	layers := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "spdnn_layers_completed_total",
		Help: "Total layers applied",
	})

	reg.MustRegister(layerDuration, phaseDuration, activationNNZ, layers)

	return &Metrics{
		LayerDuration: layerDuration,
		PhaseDuration: phaseDuration,
		ActivationNNZ: activationNNZ,
		Layers:        layers,
	}
}

// ObservePhase records d under the phase label.
func (m *Metrics) ObservePhase(p spmm.Phase, d time.Duration) {
	m.PhaseDuration.WithLabelValues(p.String()).Observe(d.Seconds())
}

func (m *Metrics) observeLayer(nnz int, d time.Duration) {
	m.LayerDuration.Observe(d.Seconds())
	m.ActivationNNZ.Set(float64(nnz))
	m.Layers.Inc()
}
