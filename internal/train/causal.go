// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package train

import (
	"fmt"

	"github.com/loom-ml/loom/internal/metrics"
	"github.com/loom-ml/loom/internal/model"
	"github.com/loom-ml/loom/internal/tensor"
)

// CausalLM adapts a GPT to the training contract: next-token prediction
// with targets derived by shifting the labels one position left and
// planting the ignore sentinel at the final position, where no next token
// exists.
type CausalLM[B tensor.Backend] struct {
	gpt          *model.GPT[B]
	trainMetrics map[string]metrics.Metric
	evalMetrics  map[string]metrics.Metric
}

// NewCausalLM wraps gpt for training.
func NewCausalLM[B tensor.Backend](gpt *model.GPT[B]) *CausalLM[B] {
	return &CausalLM[B]{
		gpt: gpt,
		trainMetrics: map[string]metrics.Metric{
			"LanguageCrossEntropy": metrics.NewLanguageCrossEntropy(),
			"Perplexity":           metrics.NewPerplexity(),
		},
		evalMetrics: map[string]metrics.Metric{
			"LanguageCrossEntropy": metrics.NewLanguageCrossEntropy(),
			"Perplexity":           metrics.NewPerplexity(),
		},
	}
}

// Model returns the wrapped GPT.
func (c *CausalLM[B]) Model() *model.GPT[B] { return c.gpt }

// Forward runs the decoder over the batch and returns logits
// [batch, seq, vocab].
func (c *CausalLM[B]) Forward(batch Batch[B]) *tensor.Tensor[float32, B] {
	return c.gpt.Forward(batch.InputIDs, batch.AttentionMask)
}

// EvalForward returns outputs unchanged when the loop already computed
// them, and runs a fresh forward otherwise.
func (c *CausalLM[B]) EvalForward(batch Batch[B], outputs *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if outputs != nil {
		return outputs
	}
	return c.Forward(batch)
}

// GetTargets shifts the labels one position left within each sequence and
// sets the final position of every sequence to IgnoreIndex: the target at
// position i is the token at position i+1.
func (c *CausalLM[B]) GetTargets(batch Batch[B]) []int32 {
	shape := batch.InputIDs.Shape()
	batchSize, seq := shape[0], shape[1]
	if len(batch.Labels) != batchSize*seq {
		panic(fmt.Sprintf("train: %d labels for input shape %v", len(batch.Labels), shape))
	}
	targets := make([]int32, batchSize*seq)
	for b := 0; b < batchSize; b++ {
		row := batch.Labels[b*seq : (b+1)*seq]
		out := targets[b*seq : (b+1)*seq]
		copy(out, row[1:])
		out[seq-1] = IgnoreIndex
	}
	return targets
}

// Loss is the mean cross-entropy between outputs and the shifted targets,
// skipping sentinel positions.
func (c *CausalLM[B]) Loss(outputs *tensor.Tensor[float32, B], batch Batch[B]) float64 {
	vocab := outputs.Shape()[2]
	return crossEntropyLoss(outputs.Data(), vocab, c.GetTargets(batch))
}

// GetMetrics returns the training or evaluation metric set.
func (c *CausalLM[B]) GetMetrics(training bool) map[string]metrics.Metric {
	if training {
		return c.trainMetrics
	}
	return c.evalMetrics
}

// UpdateMetric feeds one batch's outputs and targets into metric.
func (c *CausalLM[B]) UpdateMetric(batch Batch[B], outputs *tensor.Tensor[float32, B], metric metrics.Metric) {
	vocab := outputs.Shape()[2]
	metric.Update(outputs.Data(), vocab, c.GetTargets(batch))
}

// Train switches the model into training mode.
func (c *CausalLM[B]) Train() { c.gpt.Train() }

// Eval switches the model into evaluation mode.
func (c *CausalLM[B]) Eval() { c.gpt.Eval() }
