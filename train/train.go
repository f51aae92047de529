// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package train provides the public API for the training adapters: the
// per-batch contract a training loop drives, and the causal and masked
// language-modeling implementations of it.
package train

import (
	"github.com/loom-ml/loom/internal/model"
	"github.com/loom-ml/loom/internal/tensor"
	"github.com/loom-ml/loom/internal/train"
)

// IgnoreIndex marks target positions excluded from loss and metrics.
const IgnoreIndex int32 = train.IgnoreIndex

// Batch is one step's worth of tokenized input.
type Batch[B tensor.Backend] = train.Batch[B]

// Model is the adapter interface a training loop drives.
type Model[B tensor.Backend] = train.Model[B]

// CausalLM adapts a GPT to next-token prediction.
type CausalLM[B tensor.Backend] = train.CausalLM[B]

// NewCausalLM wraps gpt for training.
func NewCausalLM[B tensor.Backend](gpt *model.GPT[B]) *CausalLM[B] {
	return train.NewCausalLM(gpt)
}

// MaskedLM adapts a BERT encoder to masked language modeling.
type MaskedLM[B tensor.Backend] = train.MaskedLM[B]

// NewMaskedLM wraps bert for training.
func NewMaskedLM[B tensor.Backend](bert *model.BERT[B]) *MaskedLM[B] {
	return train.NewMaskedLM(bert)
}
