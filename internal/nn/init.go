// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/loom-ml/loom/internal/tensor"
)

// Initialization helpers used by the model-level init policy. All of them
// require materialized storage; initializing a meta placeholder is an
// orchestration error and panics through the tensor layer.

// InitNormal fills t with samples from N(0, std²) drawn from rng.
func InitNormal[B tensor.Backend](t *tensor.Tensor[float32, B], std float32, rng *rand.Rand) {
	data := t.Data()
	for i := range data {
		data[i] = float32(rng.NormFloat64()) * std
	}
}

// InitZeros fills t with zeros.
func InitZeros[B tensor.Backend](t *tensor.Tensor[float32, B]) {
	data := t.Data()
	for i := range data {
		data[i] = 0
	}
}

// InitOnes fills t with ones.
func InitOnes[B tensor.Backend](t *tensor.Tensor[float32, B]) {
	data := t.Data()
	for i := range data {
		data[i] = 1
	}
}
