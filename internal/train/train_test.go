// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package train

import (
	"math"
	"testing"

	"github.com/loom-ml/loom/internal/backend/cpu"
	"github.com/loom-ml/loom/internal/model"
	"github.com/loom-ml/loom/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() model.Config {
	return model.Config{
		VocabSize: 100,
		DModel:    32,
		NHeads:    4,
		NLayers:   2,
		MaxSeqLen: 8,
	}
}

func newCausalLM(t *testing.T) *CausalLM[*cpu.CPUBackend] {
	t.Helper()
	gpt, err := model.NewGPT(testConfig(), cpu.New())
	require.NoError(t, err)
	return NewCausalLM(gpt)
}

func batchOf(t *testing.T, ids []int32, shape tensor.Shape) Batch[*cpu.CPUBackend] {
	t.Helper()
	inputIDs, err := tensor.FromSlice(ids, shape, cpu.New())
	require.NoError(t, err)
	return Batch[*cpu.CPUBackend]{InputIDs: inputIDs, Labels: ids}
}

func TestCausalLM_GetTargets_ShiftsLeft(t *testing.T) {
	lm := newCausalLM(t)
	batch := batchOf(t, []int32{10, 20, 30, 40}, tensor.Shape{1, 4})
	assert.Equal(t, []int32{20, 30, 40, IgnoreIndex}, lm.GetTargets(batch))
}

func TestCausalLM_GetTargets_PerSequence(t *testing.T) {
	lm := newCausalLM(t)
	batch := batchOf(t, []int32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	assert.Equal(t, []int32{2, 3, IgnoreIndex, 5, 6, IgnoreIndex}, lm.GetTargets(batch))
}

func TestCausalLM_GetTargets_LabelMismatchPanics(t *testing.T) {
	lm := newCausalLM(t)
	batch := batchOf(t, []int32{1, 2, 3, 4}, tensor.Shape{1, 4})
	batch.Labels = batch.Labels[:2]
	assert.Panics(t, func() { lm.GetTargets(batch) })
}

func TestCrossEntropyLoss_UniformLogits(t *testing.T) {
	// All-zero logits over 4 classes: loss is exactly log(4).
	logits := make([]float32, 3*4)
	loss := crossEntropyLoss(logits, 4, []int32{0, 1, 2})
	assert.InDelta(t, math.Log(4), loss, 1e-6)
}

func TestCrossEntropyLoss_IgnoresSentinelPositions(t *testing.T) {
	logits := []float32{
		1, 2, 3, 4,
		100, -100, 50, 0, // sentinel position, must not contribute
		4, 3, 2, 1,
	}
	targets := []int32{3, IgnoreIndex, 0}
	base := crossEntropyLoss(logits, 4, targets)

	// Arbitrarily change logits at the ignored position; the loss must not move.
	modified := append([]float32(nil), logits...)
	modified[4], modified[5], modified[6], modified[7] = -7, 77, 0.5, 1e10
	assert.Equal(t, base, crossEntropyLoss(modified, 4, targets))
}

func TestCrossEntropyLoss_AllIgnored(t *testing.T) {
	logits := []float32{1, 2, 3, 4}
	assert.Equal(t, 0.0, crossEntropyLoss(logits, 4, []int32{IgnoreIndex}))
}

func TestCrossEntropyLoss_LargeLogitsStable(t *testing.T) {
	logits := []float32{10000, 9999, 9998}
	loss := crossEntropyLoss(logits, 3, []int32{0})
	require.False(t, math.IsNaN(loss) || math.IsInf(loss, 0))
	assert.Greater(t, loss, 0.0)
}

func TestCausalLM_EndToEnd(t *testing.T) {
	lm := newCausalLM(t)
	lm.Eval()

	ids := make([]int32, 2*8)
	for i := range ids {
		ids[i] = int32(i % 100)
	}
	batch := batchOf(t, ids, tensor.Shape{2, 8})

	logits := lm.EvalForward(batch, nil)
	assert.Equal(t, tensor.Shape{2, 8, 100}, logits.Shape())
	for _, v := range logits.Data() {
		require.False(t, math.IsNaN(float64(v)) || math.IsInf(float64(v), 0))
	}

	loss := lm.Loss(logits, batch)
	require.False(t, math.IsNaN(loss) || math.IsInf(loss, 0))
	// An untrained model over 100 classes sits near log(100).
	assert.InDelta(t, math.Log(100), loss, 1.5)
}

func TestCausalLM_EvalForwardReusesOutputs(t *testing.T) {
	lm := newCausalLM(t)
	lm.Eval()
	batch := batchOf(t, []int32{1, 2, 3, 4}, tensor.Shape{1, 4})

	logits := lm.Forward(batch)
	assert.Same(t, logits, lm.EvalForward(batch, logits))
}

func TestCausalLM_Metrics(t *testing.T) {
	lm := newCausalLM(t)
	lm.Eval()
	batch := batchOf(t, []int32{1, 2, 3, 4}, tensor.Shape{1, 4})
	logits := lm.Forward(batch)

	trainMetrics := lm.GetMetrics(true)
	evalMetrics := lm.GetMetrics(false)
	require.Contains(t, trainMetrics, "LanguageCrossEntropy")
	require.Contains(t, trainMetrics, "Perplexity")
	require.Contains(t, evalMetrics, "LanguageCrossEntropy")
	require.Contains(t, evalMetrics, "Perplexity")

	ce := evalMetrics["LanguageCrossEntropy"]
	ppl := evalMetrics["Perplexity"]
	lm.UpdateMetric(batch, logits, ce)
	lm.UpdateMetric(batch, logits, ppl)

	ceVal := ce.Compute()
	assert.InDelta(t, lm.Loss(logits, batch), ceVal, 1e-6)
	assert.InDelta(t, math.Exp(ceVal), ppl.Compute(), 1e-6)

	ce.Reset()
	assert.Equal(t, 0.0, ce.Compute())
}

func TestCausalLM_TrainEvalDeterminism(t *testing.T) {
	lm := newCausalLM(t)
	batch := batchOf(t, []int32{1, 2, 3, 4}, tensor.Shape{1, 4})

	lm.Eval()
	a := lm.Forward(batch).Data()
	b := lm.Forward(batch).Data()
	assert.Equal(t, a, b, "eval forward must be deterministic")
}

func newMaskedLM(t *testing.T) *MaskedLM[*cpu.CPUBackend] {
	t.Helper()
	bert, err := model.NewBERT(testConfig(), cpu.New())
	require.NoError(t, err)
	return NewMaskedLM(bert)
}

func TestMaskedLM_GetTargets_Passthrough(t *testing.T) {
	lm := newMaskedLM(t)
	labels := []int32{IgnoreIndex, 7, IgnoreIndex, 3}
	batch := batchOf(t, []int32{1, 2, 3, 4}, tensor.Shape{1, 4})
	batch.Labels = labels
	assert.Equal(t, labels, lm.GetTargets(batch))
}

func TestMaskedLM_LossOnlyOnMaskedPositions(t *testing.T) {
	lm := newMaskedLM(t)
	lm.Eval()

	batch := batchOf(t, []int32{1, 2, 3, 4}, tensor.Shape{1, 4})
	batch.Labels = []int32{IgnoreIndex, 42, IgnoreIndex, IgnoreIndex}

	logits := lm.Forward(batch)
	loss := lm.Loss(logits, batch)
	require.False(t, math.IsNaN(loss))

	// Doctoring logits at unmasked positions must leave the loss unchanged.
	data := logits.Data()
	for i := 0; i < 100; i++ {
		data[i] += 1000 // position 0
		data[2*100+i] -= 1000
	}
	assert.Equal(t, loss, lm.Loss(logits, batch))
}

func TestMaskedLM_MetricSets(t *testing.T) {
	lm := newMaskedLM(t)
	for _, training := range []bool{true, false} {
		set := lm.GetMetrics(training)
		assert.Len(t, set, 3)
		assert.Contains(t, set, "LanguageCrossEntropy")
		assert.Contains(t, set, "Perplexity")
		assert.Contains(t, set, "MaskedAccuracy")
	}
}

func TestMaskedLM_EvalMetricsIncludeAccuracy(t *testing.T) {
	lm := newMaskedLM(t)
	evalMetrics := lm.GetMetrics(false)
	require.Contains(t, evalMetrics, "MaskedAccuracy")

	batch := batchOf(t, []int32{1, 2}, tensor.Shape{1, 2})
	batch.Labels = []int32{IgnoreIndex, 9}
	lm.Eval()
	logits := lm.Forward(batch)

	// Force the masked position's argmax onto the target.
	data := logits.Data()
	data[1*100+9] = 1000

	acc := evalMetrics["MaskedAccuracy"]
	lm.UpdateMetric(batch, logits, acc)
	assert.Equal(t, 1.0, acc.Compute())
}

func TestBatch_WithPadding(t *testing.T) {
	lm := newCausalLM(t)
	lm.Eval()
	backend := cpu.New()

	ids := []int32{1, 2, 3, 0}
	inputIDs, err := tensor.FromSlice(ids, tensor.Shape{1, 4}, backend)
	require.NoError(t, err)
	validity, err := tensor.FromSlice([]bool{true, true, true, false}, tensor.Shape{1, 4}, backend)
	require.NoError(t, err)

	batch := Batch[*cpu.CPUBackend]{InputIDs: inputIDs, AttentionMask: validity, Labels: ids}
	logits := lm.Forward(batch)
	assert.Equal(t, tensor.Shape{1, 4, 100}, logits.Shape())
	for _, v := range logits.Data() {
		require.False(t, math.IsNaN(float64(v)))
	}
}
