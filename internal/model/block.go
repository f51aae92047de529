// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package model

import (
	"github.com/loom-ml/loom/internal/nn"
	"github.com/loom-ml/loom/internal/tensor"
)

// MLP is the position-wise feed-forward sublayer: expand d_model by the
// configured ratio, apply exact GELU, project back down. The
// down-projection weight is a residual-branch parameter.
type MLP[B tensor.Backend] struct {
	Up   *nn.Linear[B]
	Act  *nn.GELU[B]
	Down *nn.Linear[B]
}

func newMLP[B tensor.Backend](dModel, ratio int, backend B, device tensor.Device) *MLP[B] {
	mlp := &MLP[B]{
		Up:   nn.NewLinear[B](dModel, ratio*dModel, true, backend, device),
		Act:  nn.NewGELU[B](),
		Down: nn.NewLinear[B](ratio*dModel, dModel, true, backend, device),
	}
	mlp.Down.Weight().MarkResidual()
	return mlp
}

// Forward applies the feed-forward sublayer to [batch, seq, d_model].
func (m *MLP[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	batch, seq, dModel := shape[0], shape[1], shape[2]
	h := m.Up.Forward(x.Reshape(batch*seq, dModel))
	h = m.Act.Forward(h)
	h = m.Down.Forward(h)
	return h.Reshape(batch, seq, dModel)
}

// Parameters returns the up- and down-projection parameters.
func (m *MLP[B]) Parameters() []*nn.Parameter[B] {
	params := make([]*nn.Parameter[B], 0, 4)
	params = append(params, m.Up.Parameters()...)
	params = append(params, m.Down.Parameters()...)
	return params
}

// Block is one pre-norm transformer block:
//
//	x = x + drop(attn(ln1(x)))
//	x = x + drop(mlp(ln2(x)))
//
// It is a pure function of its input and parameters, except for dropout
// randomness in training mode.
type Block[B tensor.Backend] struct {
	LN1           *nn.LayerNorm[B]
	Attn          *nn.SelfAttention[B]
	LN2           *nn.LayerNorm[B]
	MLP           *MLP[B]
	ResidAttnDrop *nn.Dropout[B]
	ResidMLPDrop  *nn.Dropout[B]
}

func newBlock[B tensor.Backend](cfg Config, impl AttnImpl, causal bool, backend B, device tensor.Device) *Block[B] {
	return &Block[B]{
		LN1: nn.NewLayerNorm[B](cfg.DModel, 1e-5, backend, device),
		Attn: nn.NewSelfAttention[B](nn.SelfAttentionConfig{
			EmbedDim:    cfg.DModel,
			NumHeads:    cfg.NHeads,
			AttnDropout: cfg.AttnPDrop,
			Causal:      causal,
			Fused:       impl == AttnFused,
		}, backend, device),
		LN2:           nn.NewLayerNorm[B](cfg.DModel, 1e-5, backend, device),
		MLP:           newMLP[B](cfg.DModel, cfg.MLPRatio, backend, device),
		ResidAttnDrop: nn.NewDropout[B](cfg.ResidPDrop),
		ResidMLPDrop:  nn.NewDropout[B](cfg.ResidPDrop),
	}
}

// Forward applies the block to x [batch, seq, d_model] with an optional
// per-token validity mask [batch, seq].
func (b *Block[B]) Forward(
	x *tensor.Tensor[float32, B],
	validity *tensor.Tensor[bool, B],
) *tensor.Tensor[float32, B] {
	attnOut := b.Attn.Forward(b.LN1.Forward(x), validity)
	x = x.Add(b.ResidAttnDrop.Forward(attnOut))

	mlpOut := b.MLP.Forward(b.LN2.Forward(x))
	x = x.Add(b.ResidMLPDrop.Forward(mlpOut))
	return x
}

// SetTraining toggles the block's dropout layers.
func (b *Block[B]) SetTraining(training bool) {
	b.Attn.SetTraining(training)
	b.ResidAttnDrop.SetTraining(training)
	b.ResidMLPDrop.SetTraining(training)
}

// Checkpointable declares that this block can be activation-checkpointed
// independently by a distributed-training orchestrator.
func (b *Block[B]) Checkpointable() bool { return true }

// ShardAtomic declares that this block is the atomic unit of parameter
// sharding.
func (b *Block[B]) ShardAtomic() bool { return true }

// Parameters returns all block parameters.
func (b *Block[B]) Parameters() []*nn.Parameter[B] {
	params := make([]*nn.Parameter[B], 0, 16)
	params = append(params, b.LN1.Parameters()...)
	params = append(params, b.Attn.Parameters()...)
	params = append(params, b.LN2.Parameters()...)
	params = append(params, b.MLP.Parameters()...)
	return params
}
