// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package train

import (
	"github.com/loom-ml/loom/internal/metrics"
	"github.com/loom-ml/loom/internal/model"
	"github.com/loom-ml/loom/internal/tensor"
)

// MaskedLM adapts a BERT encoder to the training contract: the data
// pipeline already replaced masked tokens in the input and set every
// unmasked label to IgnoreIndex, so the targets are the labels themselves
// with no shifting.
type MaskedLM[B tensor.Backend] struct {
	bert         *model.BERT[B]
	trainMetrics map[string]metrics.Metric
	evalMetrics  map[string]metrics.Metric
}

// NewMaskedLM wraps bert for training.
func NewMaskedLM[B tensor.Backend](bert *model.BERT[B]) *MaskedLM[B] {
	return &MaskedLM[B]{
		bert: bert,
		trainMetrics: map[string]metrics.Metric{
			"LanguageCrossEntropy": metrics.NewLanguageCrossEntropy(),
			"Perplexity":           metrics.NewPerplexity(),
			"MaskedAccuracy":       metrics.NewMaskedAccuracy(),
		},
		evalMetrics: map[string]metrics.Metric{
			"LanguageCrossEntropy": metrics.NewLanguageCrossEntropy(),
			"Perplexity":           metrics.NewPerplexity(),
			"MaskedAccuracy":       metrics.NewMaskedAccuracy(),
		},
	}
}

// Model returns the wrapped BERT.
func (m *MaskedLM[B]) Model() *model.BERT[B] { return m.bert }

// Forward runs the encoder over the batch and returns logits
// [batch, seq, vocab].
func (m *MaskedLM[B]) Forward(batch Batch[B]) *tensor.Tensor[float32, B] {
	return m.bert.Forward(batch.InputIDs, batch.AttentionMask)
}

// EvalForward returns outputs unchanged when the loop already computed
// them, and runs a fresh forward otherwise.
func (m *MaskedLM[B]) EvalForward(batch Batch[B], outputs *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if outputs != nil {
		return outputs
	}
	return m.Forward(batch)
}

// GetTargets returns the labels as-is: masked language modeling predicts
// in place.
func (m *MaskedLM[B]) GetTargets(batch Batch[B]) []int32 {
	return batch.Labels
}

// Loss is the mean cross-entropy over the masked positions.
func (m *MaskedLM[B]) Loss(outputs *tensor.Tensor[float32, B], batch Batch[B]) float64 {
	vocab := outputs.Shape()[2]
	return crossEntropyLoss(outputs.Data(), vocab, m.GetTargets(batch))
}

// GetMetrics returns the training or evaluation metric set.
func (m *MaskedLM[B]) GetMetrics(training bool) map[string]metrics.Metric {
	if training {
		return m.trainMetrics
	}
	return m.evalMetrics
}

// UpdateMetric feeds one batch's outputs and targets into metric.
func (m *MaskedLM[B]) UpdateMetric(batch Batch[B], outputs *tensor.Tensor[float32, B], metric metrics.Metric) {
	vocab := outputs.Shape()[2]
	metric.Update(outputs.Data(), vocab, m.GetTargets(batch))
}

// Train switches the model into training mode.
func (m *MaskedLM[B]) Train() { m.bert.Train() }

// Eval switches the model into evaluation mode.
func (m *MaskedLM[B]) Eval() { m.bert.Eval() }
