// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package train defines the contract between a language model and an
// external training loop: forward passes, target derivation, loss, and
// streaming metrics. The loop owns scheduling (when to step, when to
// evaluate, when to initialize); this package owns the per-batch
// semantics.
package train

import (
	"github.com/loom-ml/loom/internal/metrics"
	"github.com/loom-ml/loom/internal/tensor"
)

// IgnoreIndex marks target positions excluded from loss and metrics.
const IgnoreIndex int32 = -100

// Batch is one step's worth of tokenized input.
//
// AttentionMask marks valid (non-padding) positions and may be nil when
// every position is valid. Labels carries per-position targets; for
// causal language modeling it is typically the input ids themselves, and
// GetTargets derives the shifted prediction targets from it.
type Batch[B tensor.Backend] struct {
	InputIDs      *tensor.Tensor[int32, B] // [batch, seq]
	AttentionMask *tensor.Tensor[bool, B]  // [batch, seq] or nil
	Labels        []int32                  // flattened [batch*seq]
}

// Model is the adapter a training loop drives. Forward and EvalForward
// return logits [batch, seq, vocab]; EvalForward reuses already-computed
// outputs when the loop passes them back, so evaluation never pays for a
// second forward.
type Model[B tensor.Backend] interface {
	Forward(batch Batch[B]) *tensor.Tensor[float32, B]
	EvalForward(batch Batch[B], outputs *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
	GetTargets(batch Batch[B]) []int32
	Loss(outputs *tensor.Tensor[float32, B], batch Batch[B]) float64
	GetMetrics(training bool) map[string]metrics.Metric
	UpdateMetric(batch Batch[B], outputs *tensor.Tensor[float32, B], metric metrics.Metric)
	Train()
	Eval()
}
