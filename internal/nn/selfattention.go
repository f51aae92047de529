// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"fmt"

	"github.com/loom-ml/loom/internal/tensor"
)

// SelfAttentionConfig configures a SelfAttention module.
type SelfAttentionConfig struct {
	EmbedDim    int     // model width (d_model)
	NumHeads    int     // number of attention heads; must divide EmbedDim
	AttnDropout float32 // dropout on attention probabilities
	Causal      bool    // restrict attention to earlier positions
	Fused       bool    // use the fused online-softmax kernel
}

// SelfAttention is multi-head self-attention over a sequence, causal or
// non-causal, with an optional per-token validity mask.
//
// Two implementations share the same projections and produce the same
// results:
//
//   - reference: materializes the [seq, seq] score matrix, applies the
//     additive causal/padding masks, softmax, then the value contraction;
//   - fused: streams keys through an online-softmax accumulator without
//     materializing the score matrix.
//
// The fused kernel computes attention probabilities implicitly, so it
// cannot drop them; when attention dropout is active (training mode,
// AttnDropout > 0) the module computes through the reference path.
//
// The output projection weight is tagged as a residual-branch parameter at
// construction, which the model init policy scales down by sqrt(2·n_layers).
type SelfAttention[B tensor.Backend] struct {
	WQ, WK, WV, WO *Linear[B]
	NumHeads       int
	HeadDim        int
	EmbedDim       int
	causal         bool
	fused          bool
	attnDrop       *Dropout[B]
	backend        B
}

// NewSelfAttention creates a self-attention module on the given device.
// Panics when NumHeads does not evenly divide EmbedDim; this is validated
// here rather than deferred to the attention kernel.
func NewSelfAttention[B tensor.Backend](cfg SelfAttentionConfig, backend B, device tensor.Device) *SelfAttention[B] {
	if cfg.NumHeads <= 0 || cfg.EmbedDim%cfg.NumHeads != 0 {
		panic(fmt.Sprintf("SelfAttention: embed_dim (%d) must be divisible by num_heads (%d)", cfg.EmbedDim, cfg.NumHeads))
	}
	sa := &SelfAttention[B]{
		WQ:       NewLinear[B](cfg.EmbedDim, cfg.EmbedDim, true, backend, device),
		WK:       NewLinear[B](cfg.EmbedDim, cfg.EmbedDim, true, backend, device),
		WV:       NewLinear[B](cfg.EmbedDim, cfg.EmbedDim, true, backend, device),
		WO:       NewLinear[B](cfg.EmbedDim, cfg.EmbedDim, true, backend, device),
		NumHeads: cfg.NumHeads,
		HeadDim:  cfg.EmbedDim / cfg.NumHeads,
		EmbedDim: cfg.EmbedDim,
		causal:   cfg.Causal,
		fused:    cfg.Fused,
		attnDrop: NewDropout[B](cfg.AttnDropout),
		backend:  backend,
	}
	sa.WO.Weight().MarkResidual()
	return sa
}

// Causal reports whether the module applies autoregressive masking.
func (sa *SelfAttention[B]) Causal() bool { return sa.causal }

// SetTraining toggles attention-probability dropout.
func (sa *SelfAttention[B]) SetTraining(training bool) {
	sa.attnDrop.SetTraining(training)
}

// Forward attends x [batch, seq, embed_dim] to itself, optionally masked
// by a per-token validity mask [batch, seq] (false = padding). The output
// has the same shape as x.
func (sa *SelfAttention[B]) Forward(
	x *tensor.Tensor[float32, B],
	validity *tensor.Tensor[bool, B],
) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 3 || shape[2] != sa.EmbedDim {
		panic(fmt.Sprintf("SelfAttention.Forward: expected input [batch, seq, %d], got shape %v", sa.EmbedDim, shape))
	}
	batch, seq := shape[0], shape[1]

	q := sa.project(x, sa.WQ, batch, seq)
	k := sa.project(x, sa.WK, batch, seq)
	v := sa.project(x, sa.WV, batch, seq)

	var attnOut *tensor.Tensor[float32, B]
	if sa.fused && !(sa.attnDrop.Training() && sa.attnDrop.P > 0) {
		attnOut = sa.forwardFused(q, k, v, validity, batch, seq)
	} else {
		attnOut = sa.forwardReference(q, k, v, validity, batch, seq)
	}

	out2D := sa.WO.Forward(attnOut.Reshape(batch*seq, sa.EmbedDim))
	return out2D.Reshape(batch, seq, sa.EmbedDim)
}

// project applies a QKV projection, producing [batch, seq, heads, head_dim].
func (sa *SelfAttention[B]) project(
	x *tensor.Tensor[float32, B],
	w *Linear[B],
	batch, seq int,
) *tensor.Tensor[float32, B] {
	projected := w.Forward(x.Reshape(batch*seq, sa.EmbedDim))
	return projected.Reshape(batch, seq, sa.NumHeads, sa.HeadDim)
}

// forwardReference materializes scores, masks, softmaxes, and contracts.
func (sa *SelfAttention[B]) forwardReference(
	q, k, v *tensor.Tensor[float32, B],
	validity *tensor.Tensor[bool, B],
	batch, seq int,
) *tensor.Tensor[float32, B] {
	// [batch, seq, heads, head_dim] -> [batch, heads, seq, head_dim]
	q = q.Transpose(0, 2, 1, 3)
	k = k.Transpose(0, 2, 1, 3)
	v = v.Transpose(0, 2, 1, 3)

	var mask *tensor.Tensor[float32, B]
	if sa.causal {
		mask = CausalMask[B](seq, sa.backend)
	}
	if validity != nil {
		pad := PaddingMask(validity)
		if mask != nil {
			mask = mask.Add(pad)
		} else {
			mask = pad
		}
	}

	attnOut, _ := ScaledDotProductAttention(q, k, v, mask, 0, sa.attnDrop)
	return attnOut.Transpose(0, 2, 1, 3).Reshape(batch, seq, sa.EmbedDim)
}

// forwardFused runs the online-softmax kernel directly on the
// [batch, seq, heads, head_dim] layout.
func (sa *SelfAttention[B]) forwardFused(
	q, k, v *tensor.Tensor[float32, B],
	validity *tensor.Tensor[bool, B],
	batch, seq int,
) *tensor.Tensor[float32, B] {
	var validityData []bool
	if validity != nil {
		validityData = validity.Data()
	}
	out := fusedAttention(
		q.Data(), k.Data(), v.Data(),
		batch, seq, sa.NumHeads, sa.HeadDim,
		0, sa.causal, validityData,
	)
	result, err := tensor.FromSlice[float32](out, tensor.Shape{batch, seq, sa.EmbedDim}, sa.backend)
	if err != nil {
		panic(fmt.Sprintf("SelfAttention: fused output: %v", err))
	}
	return result
}

// Parameters returns the four projection parameter sets.
func (sa *SelfAttention[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, 8)
	params = append(params, sa.WQ.Parameters()...)
	params = append(params, sa.WK.Parameters()...)
	params = append(params, sa.WV.Parameters()...)
	params = append(params, sa.WO.Parameters()...)
	return params
}
