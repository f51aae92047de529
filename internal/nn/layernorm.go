// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/loom-ml/loom/internal/tensor"
)

// LayerNorm applies layer normalization along the last dimension:
//
//	Y = gamma * (X - mean(X)) / sqrt(var(X) + eps) + beta
//
// Gamma initializes to ones and beta to zeros under the model init policy
// (their parameter kinds carry that information).
type LayerNorm[B tensor.Backend] struct {
	Gamma   *Parameter[B] // learnable scale [d_model]
	Beta    *Parameter[B] // learnable shift [d_model]
	Epsilon float32
}

// NewLayerNorm creates a LayerNorm over the last dimension of size
// normalizedShape.
func NewLayerNorm[B tensor.Backend](normalizedShape int, epsilon float32, backend B, device tensor.Device) *LayerNorm[B] {
	return &LayerNorm[B]{
		Gamma: NewParameter(
			"gamma",
			tensor.Empty[float32](tensor.Shape{normalizedShape}, backend, device),
			KindNormScale,
		),
		Beta: NewParameter(
			"beta",
			tensor.Empty[float32](tensor.Shape{normalizedShape}, backend, device),
			KindNormShift,
		),
		Epsilon: epsilon,
	}
}

// Forward normalizes [..., d_model] along the last dimension.
func (l *LayerNorm[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	mean := x.MeanDim(-1, true)
	centered := x.Sub(mean)
	variance := centered.Mul(centered).MeanDim(-1, true)
	inv := variance.AddScalar(l.Epsilon).Rsqrt()
	normed := centered.Mul(inv)
	// gamma/beta broadcast right-aligned: [..., d] * [d] + [d].
	return normed.Mul(l.Gamma.Tensor()).Add(l.Beta.Tensor())
}

// Parameters returns gamma and beta.
func (l *LayerNorm[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.Gamma, l.Beta}
}
