// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package model

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/loom-ml/loom/internal/backend/cpu"
	"github.com/loom-ml/loom/internal/nn"
	"github.com/loom-ml/loom/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		VocabSize: 100,
		DModel:    32,
		NHeads:    4,
		NLayers:   2,
		MaxSeqLen: 8,
	}
}

func newTestGPT(t *testing.T, cfg Config) *GPT[*cpu.CPUBackend] {
	t.Helper()
	gpt, err := NewGPT(cfg, cpu.New())
	require.NoError(t, err)
	return gpt
}

func inputIDs(t *testing.T, ids []int32, shape tensor.Shape) *tensor.Tensor[int32, *cpu.CPUBackend] {
	t.Helper()
	x, err := tensor.FromSlice(ids, shape, cpu.New())
	require.NoError(t, err)
	return x
}

func TestGPT_ForwardShape(t *testing.T) {
	gpt := newTestGPT(t, testConfig())
	gpt.Eval()

	ids := make([]int32, 2*8)
	for i := range ids {
		ids[i] = int32(i % 100)
	}
	logits := gpt.Forward(inputIDs(t, ids, tensor.Shape{2, 8}), nil)
	assert.Equal(t, tensor.Shape{2, 8, 100}, logits.Shape())

	for _, v := range logits.Data() {
		require.False(t, math.IsNaN(float64(v)) || math.IsInf(float64(v), 0), "logits must be finite")
	}
}

func TestGPT_ForwardShortSequence(t *testing.T) {
	gpt := newTestGPT(t, testConfig())
	gpt.Eval()
	logits := gpt.Forward(inputIDs(t, []int32{1, 2, 3}, tensor.Shape{1, 3}), nil)
	assert.Equal(t, tensor.Shape{1, 3, 100}, logits.Shape())
}

func TestGPT_ForwardTooLongPanics(t *testing.T) {
	gpt := newTestGPT(t, testConfig())
	ids := make([]int32, 9) // max_seq_len is 8
	assert.PanicsWithValue(t,
		"model: cannot forward input with seq_len=9: this model only supports seq_len<=8",
		func() { gpt.Forward(inputIDs(t, ids, tensor.Shape{1, 9}), nil) })
}

func TestGPT_CausalInvariance(t *testing.T) {
	gpt := newTestGPT(t, testConfig())
	gpt.Eval()

	a := inputIDs(t, []int32{5, 6, 7, 8}, tensor.Shape{1, 4})
	b := inputIDs(t, []int32{5, 6, 7, 99}, tensor.Shape{1, 4})

	la := gpt.Forward(a, nil).Data()
	lb := gpt.Forward(b, nil).Data()

	// Logits for the first three positions must not depend on the final token.
	for i := 0; i < 3*100; i++ {
		assert.InDelta(t, float64(la[i]), float64(lb[i]), 1e-5)
	}
}

func TestBERT_SeesFutureTokens(t *testing.T) {
	bert, err := NewBERT(testConfig(), cpu.New())
	require.NoError(t, err)
	bert.Eval()

	a := inputIDs(t, []int32{5, 6, 7, 8}, tensor.Shape{1, 4})
	b := inputIDs(t, []int32{5, 6, 7, 99}, tensor.Shape{1, 4})

	la := bert.Forward(a, nil).Data()
	lb := bert.Forward(b, nil).Data()

	moved := false
	for i := 0; i < 3*100; i++ {
		if math.Abs(float64(la[i])-float64(lb[i])) > 1e-4 {
			moved = true
			break
		}
	}
	assert.True(t, moved, "encoder logits at earlier positions should react to later tokens")
}

func TestBERT_RejectsReferenceImpl(t *testing.T) {
	cfg := testConfig()
	cfg.AttnImpl = "reference"
	_, err := NewBERT(cfg, cpu.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported attn_impl")
}

func sampleStd(data []float32) float64 {
	mean := 0.0
	for _, v := range data {
		mean += float64(v)
	}
	mean /= float64(len(data))
	variance := 0.0
	for _, v := range data {
		d := float64(v) - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(data)))
}

func TestGPT_InitPolicy(t *testing.T) {
	cfg := testConfig()
	cfg.DModel = 64
	cfg.MaxSeqLen = 64
	gpt := newTestGPT(t, cfg)

	residStd := 0.02 / math.Sqrt(2*float64(cfg.NLayers))
	sawResidual := false
	for _, p := range gpt.Parameters() {
		data := p.Tensor().Data()
		switch p.Kind() {
		case nn.KindProjection:
			want := 0.02
			if p.Residual() {
				want = residStd
				sawResidual = true
			}
			assert.InDelta(t, want, sampleStd(data), want*0.25, "parameter %s", p.Name())
		case nn.KindEmbedding:
			assert.InDelta(t, 0.02, sampleStd(data), 0.005, "parameter %s", p.Name())
		case nn.KindBias, nn.KindNormShift:
			for _, v := range data {
				require.Equal(t, float32(0), v, "parameter %s must init to zeros", p.Name())
			}
		case nn.KindNormScale:
			for _, v := range data {
				require.Equal(t, float32(1), v, "parameter %s must init to ones", p.Name())
			}
		}
	}
	assert.True(t, sawResidual, "attention and MLP output projections should carry the residual tag")
}

func TestGPT_ResidualTagging(t *testing.T) {
	gpt := newTestGPT(t, testConfig())
	residual := 0
	for _, p := range gpt.Parameters() {
		if p.Residual() {
			residual++
		}
	}
	// One attention output projection and one MLP down projection per block.
	assert.Equal(t, 2*gpt.Config().NLayers, residual)
}

func TestGPT_MetaTwoPhase(t *testing.T) {
	cfg := testConfig()
	cfg.Device = "meta"
	gpt, err := NewGPT(cfg, cpu.New())
	require.NoError(t, err)

	assert.Equal(t, tensor.Meta, gpt.Device())
	for _, p := range gpt.Parameters() {
		require.True(t, p.Tensor().IsMeta(), "parameter %s should be a placeholder before init", p.Name())
	}

	// Forward before materialization hits placeholder storage.
	assert.Panics(t, func() { gpt.Forward(inputIDs(t, []int32{1}, tensor.Shape{1, 1}), nil) })

	gpt.InitParams(rand.New(rand.NewSource(42)))
	assert.Equal(t, tensor.CPU, gpt.Device())
	for _, p := range gpt.Parameters() {
		require.False(t, p.Tensor().IsMeta())
	}

	gpt.Eval()
	logits := gpt.Forward(inputIDs(t, []int32{1, 2}, tensor.Shape{1, 2}), nil)
	assert.Equal(t, tensor.Shape{1, 2, 100}, logits.Shape())
}

func TestGPT_MetaInitIsDeterministic(t *testing.T) {
	build := func() *GPT[*cpu.CPUBackend] {
		cfg := testConfig()
		cfg.Device = "meta"
		gpt, err := NewGPT(cfg, cpu.New())
		require.NoError(t, err)
		gpt.InitParams(rand.New(rand.NewSource(42)))
		gpt.Eval()
		return gpt
	}

	la := build().Forward(inputIDs(t, []int32{1, 2, 3}, tensor.Shape{1, 3}), nil).Data()
	lb := build().Forward(inputIDs(t, []int32{1, 2, 3}, tensor.Shape{1, 3}), nil).Data()
	assert.Equal(t, la, lb)
}

func TestGPT_Units(t *testing.T) {
	gpt := newTestGPT(t, testConfig())
	assert.Len(t, gpt.ShardUnits(), 2)
	assert.Len(t, gpt.CheckpointUnits(), 2)
	for _, block := range gpt.ShardUnits() {
		assert.True(t, block.ShardAtomic())
		assert.True(t, block.Checkpointable())
	}
}

func TestGPT_NumParams(t *testing.T) {
	cfg := testConfig()
	gpt := newTestGPT(t, cfg)

	perBlock := 4*(32*32+32) + // QKVO projections
		2*(32*2) + // two layer norms
		(32*128 + 128) + (128*32 + 32) // MLP up and down
	want := 100*32 + 8*32 + // token + positional embeddings
		cfg.NLayers*perBlock +
		32*2 + // final layer norm
		32*100 // untied bias-less head
	assert.Equal(t, want, gpt.NumParams())
}

func TestConfig_Validate(t *testing.T) {
	valid := testConfig().WithDefaults()
	require.NoError(t, valid.Validate())

	bad := valid
	bad.NHeads = 5 // does not divide 32
	assert.Error(t, bad.Validate())

	bad = valid
	bad.VocabSize = 0
	assert.Error(t, bad.Validate())

	bad = valid
	bad.AttnPDrop = 1.0
	assert.Error(t, bad.Validate())

	bad = valid
	bad.AttnImpl = "flash3"
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown attn_impl "flash3"`)

	bad = valid
	bad.Device = "tpu"
	assert.Error(t, bad.Validate())
}

func TestParseAttnImpl(t *testing.T) {
	impl, err := ParseAttnImpl("reference")
	require.NoError(t, err)
	assert.Equal(t, AttnReference, impl)

	impl, err = ParseAttnImpl("fused")
	require.NoError(t, err)
	assert.Equal(t, AttnFused, impl)

	impl, err = ParseAttnImpl("")
	require.NoError(t, err)
	assert.Equal(t, AttnFused, impl)

	_, err = ParseAttnImpl("triton")
	assert.Error(t, err)
}

func TestNewGPT_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.AttnImpl = "flash"
	_, err := NewGPT(cfg, cpu.New())
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
vocab_size: 50257
d_model: 768
n_heads: 12
n_layers: 12
max_seq_len: 1024
attn_impl: reference
resid_pdrop: 0.1
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 50257, cfg.VocabSize)
	assert.Equal(t, 768, cfg.DModel)
	assert.Equal(t, "reference", cfg.AttnImpl)
	assert.Equal(t, float32(0.1), cfg.ResidPDrop)
	// Defaults fill in.
	assert.Equal(t, 4, cfg.MLPRatio)
	assert.Equal(t, float32(0.02), cfg.InitStd)
	assert.Equal(t, "cpu", cfg.Device)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vocab_size: -1\n"), 0o644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestFromPretrained(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"vocab_size": 50257,
		"n_embd": 768,
		"n_head": 12,
		"n_layer": 12,
		"n_positions": 1024,
		"embd_pdrop": 0.1,
		"resid_pdrop": 0.1,
		"attn_pdrop": 0.1,
		"initializer_range": 0.02
	}`), 0o644))

	cfg, err := FromPretrained(path)
	require.NoError(t, err)
	assert.Equal(t, 50257, cfg.VocabSize)
	assert.Equal(t, 768, cfg.DModel)
	assert.Equal(t, 1024, cfg.MaxSeqLen)
	assert.Equal(t, float32(0.1), cfg.EmbPDrop)
	require.NoError(t, cfg.Validate())
}

func TestFromPretrained_Missing(t *testing.T) {
	_, err := FromPretrained(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
