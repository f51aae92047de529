// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package metrics provides the public API for the streaming language
// model evaluation metrics.
package metrics

import "github.com/loom-ml/loom/internal/metrics"

// IgnoreIndex marks target positions excluded from every metric.
const IgnoreIndex int32 = metrics.IgnoreIndex

// Metric is a streaming scalar statistic over (logits, targets) batches.
type Metric = metrics.Metric

// LanguageCrossEntropy is the mean per-token negative log-likelihood.
type LanguageCrossEntropy = metrics.LanguageCrossEntropy

// NewLanguageCrossEntropy returns a zeroed cross-entropy metric.
func NewLanguageCrossEntropy() *LanguageCrossEntropy { return metrics.NewLanguageCrossEntropy() }

// Perplexity is exp of the mean cross-entropy.
type Perplexity = metrics.Perplexity

// NewPerplexity returns a zeroed perplexity metric.
func NewPerplexity() *Perplexity { return metrics.NewPerplexity() }

// MaskedAccuracy is argmax accuracy over non-ignored positions.
type MaskedAccuracy = metrics.MaskedAccuracy

// NewMaskedAccuracy returns a zeroed accuracy metric.
func NewMaskedAccuracy() *MaskedAccuracy { return metrics.NewMaskedAccuracy() }
