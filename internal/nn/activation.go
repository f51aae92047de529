// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/loom-ml/loom/internal/tensor"
)

// GELUBackend is implemented by backends that provide the exact GELU kernel.
type GELUBackend interface {
	Gelu(*tensor.RawTensor) *tensor.RawTensor
}

// GELU applies the exact (erf-based) Gaussian Error Linear Unit:
//
//	GELU(x) = 0.5 * x * (1 + erf(x / sqrt(2)))
//
// The tanh approximation is intentionally not used; the feed-forward
// nonlinearity is specified as exact GELU.
type GELU[B tensor.Backend] struct{}

// NewGELU creates a GELU activation module.
func NewGELU[B tensor.Backend]() *GELU[B] {
	return &GELU[B]{}
}

// Forward applies GELU element-wise.
func (g *GELU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	gb, ok := any(backend).(GELUBackend)
	if !ok {
		panic("GELU: backend must implement the Gelu operation")
	}
	return tensor.New[float32, B](gb.Gelu(input.Raw()), backend)
}

// Parameters returns an empty slice: GELU has no trainable parameters.
func (g *GELU[B]) Parameters() []*Parameter[B] {
	return nil
}
