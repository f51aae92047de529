// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package model

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/loom-ml/loom/internal/nn"
	"github.com/loom-ml/loom/internal/tensor"
)

// stack is the shared transformer body: token embedding + learned
// positional embedding + embedding dropout, N blocks, final layer norm,
// and a bias-less projection to vocabulary logits. GPT and BERT differ
// only in the masking and implementation constraints they construct the
// blocks with.
type stack[B tensor.Backend] struct {
	cfg     Config
	device  tensor.Device
	wte     *nn.Embedding[B] // token embedding [vocab_size, d_model]
	wpe     *nn.Embedding[B] // positional embedding [max_seq_len, d_model]
	embDrop *nn.Dropout[B]
	blocks  []*Block[B]
	lnF     *nn.LayerNorm[B]
	lmHead  *nn.Linear[B]
	backend B
}

func newStack[B tensor.Backend](cfg Config, impl AttnImpl, causal bool, backend B, device tensor.Device) stack[B] {
	blocks := make([]*Block[B], cfg.NLayers)
	for i := range blocks {
		blocks[i] = newBlock[B](cfg, impl, causal, backend, device)
	}
	return stack[B]{
		cfg:     cfg,
		device:  device,
		wte:     nn.NewEmbedding[B](cfg.VocabSize, cfg.DModel, backend, device),
		wpe:     nn.NewEmbedding[B](cfg.MaxSeqLen, cfg.DModel, backend, device),
		embDrop: nn.NewDropout[B](cfg.EmbPDrop),
		blocks:  blocks,
		lnF:     nn.NewLayerNorm[B](cfg.DModel, 1e-5, backend, device),
		lmHead:  nn.NewLinear[B](cfg.DModel, cfg.VocabSize, false, backend, device),
		backend: backend,
	}
}

// Forward maps token ids [batch, seq] and an optional validity mask
// [batch, seq] to logits [batch, seq, vocab_size]. Panics with a length
// error when seq exceeds the configured maximum; the caller must truncate
// or reject upstream.
func (s *stack[B]) Forward(
	inputIDs *tensor.Tensor[int32, B],
	validity *tensor.Tensor[bool, B],
) *tensor.Tensor[float32, B] {
	shape := inputIDs.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("model: expected token ids [batch, seq], got shape %v", shape))
	}
	batch, seq := shape[0], shape[1]
	if seq > s.cfg.MaxSeqLen {
		panic(fmt.Sprintf("model: cannot forward input with seq_len=%d: this model only supports seq_len<=%d", seq, s.cfg.MaxSeqLen))
	}

	pos := tensor.Arange(seq, s.backend).Reshape(1, seq)
	tokEmb := s.wte.Forward(inputIDs)  // [batch, seq, d_model]
	posEmb := s.wpe.Forward(pos)       // [1, seq, d_model]
	x := s.embDrop.Forward(tokEmb.Add(posEmb))

	for _, block := range s.blocks {
		x = block.Forward(x, validity)
	}
	x = s.lnF.Forward(x)

	logits := s.lmHead.Forward(x.Reshape(batch*seq, s.cfg.DModel))
	return logits.Reshape(batch, seq, s.cfg.VocabSize)
}

// InitParams runs the initialization policy over every parameter, keyed by
// parameter kind and residual tag:
//
//	projection weight     N(0, init_std²); residual-tagged weights use
//	                      init_std / sqrt(2·n_layers) instead
//	projection bias       zeros
//	embedding weight      N(0, init_std²)
//	norm scale / shift    ones / zeros
//
// Residual branches feed two additions per block into the trunk, so their
// output projections are scaled down to keep activation variance bounded
// across depth.
//
// Meta placeholders are materialized first. The policy must run exactly
// once, after allocation and before any optimizer step; sequencing that,
// including not re-running it, is the external orchestrator's job.
func (s *stack[B]) InitParams(rng *rand.Rand) {
	residStd := s.cfg.InitStd / float32(math.Sqrt(2*float64(s.cfg.NLayers)))
	for _, p := range s.Parameters() {
		t := p.Tensor()
		t.Materialize()
		switch p.Kind() {
		case nn.KindProjection:
			std := s.cfg.InitStd
			if p.Residual() {
				std = residStd
			}
			nn.InitNormal(t, std, rng)
		case nn.KindBias, nn.KindNormShift:
			nn.InitZeros(t)
		case nn.KindEmbedding:
			nn.InitNormal(t, s.cfg.InitStd, rng)
		case nn.KindNormScale:
			nn.InitOnes(t)
		}
	}
	s.device = tensor.CPU
}

// Parameters returns every parameter of the stack.
func (s *stack[B]) Parameters() []*nn.Parameter[B] {
	params := make([]*nn.Parameter[B], 0, 16*len(s.blocks)+8)
	params = append(params, s.wte.Parameters()...)
	params = append(params, s.wpe.Parameters()...)
	for _, block := range s.blocks {
		params = append(params, block.Parameters()...)
	}
	params = append(params, s.lnF.Parameters()...)
	params = append(params, s.lmHead.Parameters()...)
	return params
}

// NumParams returns the total element count across all parameters.
func (s *stack[B]) NumParams() int {
	total := 0
	for _, p := range s.Parameters() {
		total += p.Tensor().NumElements()
	}
	return total
}

// Train switches the stack into training mode (dropout active).
func (s *stack[B]) Train() { s.setTraining(true) }

// Eval switches the stack into evaluation mode (dropout disabled,
// deterministic forward).
func (s *stack[B]) Eval() { s.setTraining(false) }

func (s *stack[B]) setTraining(training bool) {
	s.embDrop.SetTraining(training)
	for _, block := range s.blocks {
		block.SetTraining(training)
	}
}

// Config returns the construction configuration.
func (s *stack[B]) Config() Config { return s.cfg }

// Device returns the current parameter placement.
func (s *stack[B]) Device() tensor.Device { return s.device }

// CheckpointUnits returns the submodules an orchestrator may
// activation-checkpoint independently: exactly the transformer blocks,
// uniformly.
func (s *stack[B]) CheckpointUnits() []*Block[B] { return s.blocks }

// ShardUnits returns the atomic units of parameter sharding: exactly the
// transformer blocks, uniformly.
func (s *stack[B]) ShardUnits() []*Block[B] { return s.blocks }
