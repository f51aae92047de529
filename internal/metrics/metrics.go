// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package metrics provides streaming evaluation metrics for language
// models. A Metric accumulates statistics across Update calls and reports
// the aggregate on Compute; Reset clears it for the next evaluation pass.
//
// All metrics honor the ignore sentinel: target positions equal to
// IgnoreIndex contribute nothing to the accumulated statistics.
package metrics

import "math"

// IgnoreIndex marks target positions excluded from every metric.
const IgnoreIndex int32 = -100

// Metric is a streaming scalar statistic over (logits, targets) batches.
//
// Update receives flattened logits of shape [n, numClasses] (row-major)
// and n targets; rows whose target is IgnoreIndex are skipped.
type Metric interface {
	Update(logits []float32, numClasses int, targets []int32)
	Compute() float64
	Reset()
}

// crossEntropyState accumulates the summed negative log-likelihood and
// the count of contributing positions. Shared by the cross-entropy and
// perplexity metrics, which differ only in the final transform.
type crossEntropyState struct {
	sumLoss float64
	count   int
}

func (s *crossEntropyState) Update(logits []float32, numClasses int, targets []int32) {
	for i, target := range targets {
		if target == IgnoreIndex {
			continue
		}
		row := logits[i*numClasses : (i+1)*numClasses]
		s.sumLoss += -logSoftmaxAt(row, int(target))
		s.count++
	}
}

func (s *crossEntropyState) Reset() {
	s.sumLoss = 0
	s.count = 0
}

// logSoftmaxAt computes log(softmax(row))[idx] with the usual max-subtract
// stabilization.
func logSoftmaxAt(row []float32, idx int) float64 {
	maxVal := float64(row[0])
	for _, v := range row[1:] {
		if float64(v) > maxVal {
			maxVal = float64(v)
		}
	}
	sumExp := 0.0
	for _, v := range row {
		sumExp += math.Exp(float64(v) - maxVal)
	}
	return float64(row[idx]) - maxVal - math.Log(sumExp)
}

// LanguageCrossEntropy is the mean per-token negative log-likelihood over
// all non-ignored positions seen since the last Reset.
type LanguageCrossEntropy struct {
	crossEntropyState
}

// NewLanguageCrossEntropy returns a zeroed cross-entropy metric.
func NewLanguageCrossEntropy() *LanguageCrossEntropy { return &LanguageCrossEntropy{} }

func (m *LanguageCrossEntropy) Compute() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sumLoss / float64(m.count)
}

// Perplexity is exp of the mean cross-entropy: the effective branching
// factor of the model's next-token distribution.
type Perplexity struct {
	crossEntropyState
}

// NewPerplexity returns a zeroed perplexity metric.
func NewPerplexity() *Perplexity { return &Perplexity{} }

func (m *Perplexity) Compute() float64 {
	if m.count == 0 {
		return 1
	}
	return math.Exp(m.sumLoss / float64(m.count))
}

// MaskedAccuracy is the fraction of non-ignored positions where the
// argmax of the logits equals the target. Used for masked language
// modeling, where only the masked positions carry real targets.
type MaskedAccuracy struct {
	correct int
	count   int
}

// NewMaskedAccuracy returns a zeroed accuracy metric.
func NewMaskedAccuracy() *MaskedAccuracy { return &MaskedAccuracy{} }

func (m *MaskedAccuracy) Update(logits []float32, numClasses int, targets []int32) {
	for i, target := range targets {
		if target == IgnoreIndex {
			continue
		}
		row := logits[i*numClasses : (i+1)*numClasses]
		argmax := 0
		for j, v := range row[1:] {
			if v > row[argmax] {
				argmax = j + 1
			}
		}
		if int32(argmax) == target {
			m.correct++
		}
		m.count++
	}
}

func (m *MaskedAccuracy) Compute() float64 {
	if m.count == 0 {
		return 0
	}
	return float64(m.correct) / float64(m.count)
}

func (m *MaskedAccuracy) Reset() {
	m.correct = 0
	m.count = 0
}
