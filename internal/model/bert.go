// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package model

import (
	"fmt"
	"math/rand"

	"github.com/loom-ml/loom/internal/tensor"
)

// BERT is a bidirectional encoder-only transformer. It shares the GPT
// body but builds its blocks without the causal mask: every position
// attends to every valid position in both directions, with padding
// excluded through the per-batch validity mask passed to Forward.
//
// The encoder only supports the fused attention implementation; the
// reference implementation exists for the decoder's numerical baseline
// and is rejected here at construction.
type BERT[B tensor.Backend] struct {
	stack[B]
}

// NewBERT builds a BERT encoder from cfg. Unset config fields take their
// defaults; an invalid config is reported as an error before any
// allocation.
func NewBERT[B tensor.Backend](cfg Config, backend B) (*BERT[B], error) {
	cfg = cfg.WithDefaults()
	impl, device, err := cfg.resolve()
	if err != nil {
		return nil, err
	}
	if impl != AttnFused {
		return nil, fmt.Errorf("bert: unsupported attn_impl %q: the encoder requires the fused implementation", cfg.AttnImpl)
	}
	b := &BERT[B]{stack: newStack(cfg, impl, false, backend, device)}
	if device != tensor.Meta {
		b.InitParams(rand.New(rand.NewSource(rand.Int63())))
	}
	return b, nil
}
