// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package model

import (
	"math/rand"

	"github.com/loom-ml/loom/internal/tensor"
)

// GPT is a causal decoder-only transformer language model.
//
// Every forward pass applies the causal mask, so logits at position i
// depend only on tokens at positions <= i. Construction on the cpu device
// allocates and initializes parameters immediately; construction on the
// meta device builds shape-only placeholders and defers both allocation
// and initialization to an explicit InitParams call.
type GPT[B tensor.Backend] struct {
	stack[B]
}

// NewGPT builds a GPT from cfg. Unset config fields take their defaults;
// an invalid config is reported as an error before any allocation.
func NewGPT[B tensor.Backend](cfg Config, backend B) (*GPT[B], error) {
	cfg = cfg.WithDefaults()
	impl, device, err := cfg.resolve()
	if err != nil {
		return nil, err
	}
	g := &GPT[B]{stack: newStack(cfg, impl, true, backend, device)}
	if device != tensor.Meta {
		g.InitParams(rand.New(rand.NewSource(rand.Int63())))
	}
	return g, nil
}
