// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the public API for the neural network building
// blocks: parameters, layers, attention, and the initialization helpers
// the model-level init policy is written with.
package nn

import (
	"math/rand"

	"github.com/loom-ml/loom/internal/nn"
	"github.com/loom-ml/loom/internal/tensor"
)

// Module is the common interface for all neural network modules.
type Module[B tensor.Backend] = nn.Module[B]

// ParamKind classifies a parameter for the initialization policy.
type ParamKind = nn.ParamKind

// Parameter kind constants.
const (
	KindProjection ParamKind = nn.KindProjection
	KindBias       ParamKind = nn.KindBias
	KindEmbedding  ParamKind = nn.KindEmbedding
	KindNormScale  ParamKind = nn.KindNormScale
	KindNormShift  ParamKind = nn.KindNormShift
)

// Parameter is a named, kinded trainable tensor.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a parameter with the given name and kind.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B], kind ParamKind) *Parameter[B] {
	return nn.NewParameter(name, t, kind)
}

// Linear is a fully connected layer, y = x W^T + b.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a linear layer with uninitialized weights; run the
// owning model's init policy before use.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, useBias bool, backend B, device tensor.Device) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, useBias, backend, device)
}

// Embedding is a lookup table from int32 ids to dense vectors.
type Embedding[B tensor.Backend] = nn.Embedding[B]

// NewEmbedding creates an embedding table with uninitialized weights.
func NewEmbedding[B tensor.Backend](numEmbeddings, embeddingDim int, backend B, device tensor.Device) *Embedding[B] {
	return nn.NewEmbedding(numEmbeddings, embeddingDim, backend, device)
}

// LayerNorm normalizes the last dimension with learned scale and shift.
type LayerNorm[B tensor.Backend] = nn.LayerNorm[B]

// NewLayerNorm creates a layer norm over the trailing dimension.
func NewLayerNorm[B tensor.Backend](normalizedShape int, epsilon float32, backend B, device tensor.Device) *LayerNorm[B] {
	return nn.NewLayerNorm(normalizedShape, epsilon, backend, device)
}

// Dropout zeroes elements with probability P during training, scaling the
// survivors by 1/(1-P).
type Dropout[B tensor.Backend] = nn.Dropout[B]

// NewDropout creates a dropout layer; p must be in [0, 1).
func NewDropout[B tensor.Backend](p float32) *Dropout[B] {
	return nn.NewDropout[B](p)
}

// SetDropoutSeed reseeds the shared dropout RNG for reproducible runs.
func SetDropoutSeed(seed int64) { nn.SetDropoutSeed(seed) }

// GELU is the exact (erf-based) Gaussian error linear unit.
type GELU[B tensor.Backend] = nn.GELU[B]

// NewGELU creates a GELU activation module.
func NewGELU[B tensor.Backend]() *GELU[B] {
	return nn.NewGELU[B]()
}

// SelfAttentionConfig configures a multi-head self-attention layer.
type SelfAttentionConfig = nn.SelfAttentionConfig

// SelfAttention is multi-head self-attention with optional causal masking
// and a fused streaming kernel.
type SelfAttention[B tensor.Backend] = nn.SelfAttention[B]

// NewSelfAttention creates a self-attention layer with uninitialized
// projections.
func NewSelfAttention[B tensor.Backend](cfg SelfAttentionConfig, backend B, device tensor.Device) *SelfAttention[B] {
	return nn.NewSelfAttention(cfg, backend, device)
}

// CausalMask builds the additive [1, 1, seq, seq] mask that blocks
// attention to future positions.
func CausalMask[B tensor.Backend](seqLen int, backend B) *tensor.Tensor[float32, B] {
	return nn.CausalMask(seqLen, backend)
}

// PaddingMask converts a [batch, seq] validity mask into an additive
// [batch, 1, 1, seq] attention mask.
func PaddingMask[B tensor.Backend](validity *tensor.Tensor[bool, B]) *tensor.Tensor[float32, B] {
	return nn.PaddingMask(validity)
}

// InitNormal fills t with N(0, std²) samples from rng.
func InitNormal[B tensor.Backend](t *tensor.Tensor[float32, B], std float32, rng *rand.Rand) {
	nn.InitNormal(t, std, rng)
}

// InitZeros fills t with zeros.
func InitZeros[B tensor.Backend](t *tensor.Tensor[float32, B]) { nn.InitZeros(t) }

// InitOnes fills t with ones.
func InitOnes[B tensor.Backend](t *tensor.Tensor[float32, B]) { nn.InitOnes(t) }
