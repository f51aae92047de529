// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math"

	"github.com/loom-ml/loom/internal/tensor"
)

// ScaledDotProductAttention computes
//
//	Attention(Q, K, V) = softmax(QK^T / sqrt(d_k) + mask) @ V
//
// over 4D tensors [batch, heads, seq, head_dim]. The mask, when non-nil,
// is additive: 0 for allowed positions, -inf for masked ones, broadcastable
// to [batch, heads, seq_q, seq_k]. Pass scale 0 to auto-compute
// 1/sqrt(head_dim). attnDrop, when non-nil, is applied to the attention
// probabilities (active in training mode only).
//
// Returns the attended values and the attention weights.
func ScaledDotProductAttention[B tensor.Backend](
	query, key, value *tensor.Tensor[float32, B],
	mask *tensor.Tensor[float32, B],
	scale float32,
	attnDrop *Dropout[B],
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	validateAttentionInputs(query, key, value)

	if scale == 0 {
		scale = float32(1.0 / math.Sqrt(float64(query.Shape()[3])))
	}

	// Q @ K^T over the last two axes.
	kT := key.Transpose(0, 1, 3, 2)
	scores := query.BatchMatMul(kT).MulScalar(scale)

	if mask != nil {
		scores = scores.Add(mask)
	}

	weights := scores.Softmax(-1)
	if attnDrop != nil {
		weights = attnDrop.Forward(weights)
	}

	return weights.BatchMatMul(value), weights
}

func validateAttentionInputs[B tensor.Backend](query, key, value *tensor.Tensor[float32, B]) {
	if len(query.Shape()) != 4 || len(key.Shape()) != 4 || len(value.Shape()) != 4 {
		panic("ScaledDotProductAttention: Q, K, V must be 4D [batch, heads, seq, head_dim]")
	}
	if query.Shape()[3] != key.Shape()[3] {
		panic("ScaledDotProductAttention: query and key must have the same head_dim")
	}
	if key.Shape()[2] != value.Shape()[2] {
		panic("ScaledDotProductAttention: key and value must have the same sequence length")
	}
}

// CausalMask builds the additive autoregressive mask of shape
// [1, 1, seqLen, seqLen]: zero on and below the diagonal, -inf above, so a
// position can only reference itself and earlier positions.
func CausalMask[B tensor.Backend](seqLen int, backend B) *tensor.Tensor[float32, B] {
	mask := tensor.Zeros[float32](tensor.Shape{1, 1, seqLen, seqLen}, backend)
	negInf := float32(math.Inf(-1))
	data := mask.Data()
	for i := 0; i < seqLen; i++ {
		for j := i + 1; j < seqLen; j++ {
			data[i*seqLen+j] = negInf
		}
	}
	return mask
}

// PaddingMask converts a boolean validity mask [batch, seq] (true = real
// token, false = padding) into an additive key mask [batch, 1, 1, seq]
// that broadcasts over query positions and heads.
func PaddingMask[B tensor.Backend](validity *tensor.Tensor[bool, B]) *tensor.Tensor[float32, B] {
	shape := validity.Shape()
	if len(shape) != 2 {
		panic("PaddingMask: validity mask must be 2D [batch, seq]")
	}
	batch, seq := shape[0], shape[1]
	mask := tensor.Zeros[float32](tensor.Shape{batch, 1, 1, seq}, validity.Backend())
	negInf := float32(math.Inf(-1))
	in, out := validity.Data(), mask.Data()
	for i, valid := range in {
		if !valid {
			out[i] = negInf
		}
	}
	return mask
}
