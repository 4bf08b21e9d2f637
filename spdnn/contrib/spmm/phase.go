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

import "time"

// Phase identifies a step of one multiplication.
type Phase int

const (
	// PhaseSymbolic counts the output nonzeros.
	PhaseSymbolic Phase = iota

	// PhaseAllocate sizes the output matrix.
	PhaseAllocate

	// PhaseNumeric computes values, bias and ReLU.
	PhaseNumeric

	// PhaseFinalize compacts the output and swaps it into the activations.
	PhaseFinalize
)

// String returns the phase name used in logs and metric labels.
func (p Phase) String() string {
	switch p {
	case PhaseSymbolic:
		return "symbolic"
	case PhaseAllocate:
		return "allocate"
	case PhaseNumeric:
		return "numeric"
	case PhaseFinalize:
		return "finalize"
	default:
		return "unknown"
	}
}

// Phases lists every phase in execution order.
var Phases = []Phase{PhaseSymbolic, PhaseAllocate, PhaseNumeric, PhaseFinalize}

// Observer receives the wall time of every phase.
type Observer interface {
	ObservePhase(p Phase, d time.Duration)
}
