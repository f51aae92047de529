// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package model defines the transformer language-model architectures: a
// GPT-style causal decoder and a BERT-style encoder, both built as token +
// positional embeddings feeding a stack of pre-norm blocks, a final layer
// norm, and a bias-less projection to vocabulary logits.
package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/loom-ml/loom/internal/tensor"
)

// AttnImpl selects the attention implementation. The selector string from
// the configuration is resolved to this tagged variant once, at
// construction; there is no per-call string dispatch.
type AttnImpl int

// Attention implementations.
const (
	// AttnReference materializes the full score matrix with additive masks.
	AttnReference AttnImpl = iota
	// AttnFused streams keys through an online-softmax accumulator.
	AttnFused
)

// String returns the configuration spelling of the selector.
func (a AttnImpl) String() string {
	switch a {
	case AttnReference:
		return "reference"
	case AttnFused:
		return "fused"
	default:
		return "unknown"
	}
}

// ParseAttnImpl resolves an attention-implementation selector. Unknown
// selectors are a configuration error surfaced at construction time.
func ParseAttnImpl(s string) (AttnImpl, error) {
	switch s {
	case "reference":
		return AttnReference, nil
	case "fused", "":
		return AttnFused, nil
	default:
		return AttnReference, fmt.Errorf("unknown attn_impl %q (want \"reference\" or \"fused\")", s)
	}
}

// Config holds the architecture hyperparameters. It is immutable once a
// model has been constructed from it.
type Config struct {
	VocabSize  int     `yaml:"vocab_size"`
	DModel     int     `yaml:"d_model"`
	NHeads     int     `yaml:"n_heads"`
	NLayers    int     `yaml:"n_layers"`
	MaxSeqLen  int     `yaml:"max_seq_len"`
	MLPRatio   int     `yaml:"mlp_ratio"`   // feed-forward expansion, default 4
	InitStd    float32 `yaml:"init_std"`    // base init standard deviation, default 0.02
	EmbPDrop   float32 `yaml:"emb_pdrop"`   // embedding dropout
	ResidPDrop float32 `yaml:"resid_pdrop"` // residual-branch dropout
	AttnPDrop  float32 `yaml:"attn_pdrop"`  // attention-probability dropout
	AttnImpl   string  `yaml:"attn_impl"`   // "reference" or "fused" (default)
	Device     string  `yaml:"device"`      // "cpu" (default) or "meta"
}

// WithDefaults returns a copy of the config with unset optional fields
// filled in.
func (c Config) WithDefaults() Config {
	if c.MLPRatio == 0 {
		c.MLPRatio = 4
	}
	if c.InitStd == 0 {
		c.InitStd = 0.02
	}
	if c.AttnImpl == "" {
		c.AttnImpl = "fused"
	}
	if c.Device == "" {
		c.Device = "cpu"
	}
	return c
}

// Validate checks the configuration. The heads-divide-width constraint is
// enforced here explicitly instead of being left to the attention kernel.
func (c Config) Validate() error {
	if c.VocabSize <= 0 {
		return fmt.Errorf("vocab_size must be positive, got %d", c.VocabSize)
	}
	if c.DModel <= 0 {
		return fmt.Errorf("d_model must be positive, got %d", c.DModel)
	}
	if c.NHeads <= 0 {
		return fmt.Errorf("n_heads must be positive, got %d", c.NHeads)
	}
	if c.DModel%c.NHeads != 0 {
		return fmt.Errorf("n_heads (%d) must evenly divide d_model (%d)", c.NHeads, c.DModel)
	}
	if c.NLayers <= 0 {
		return fmt.Errorf("n_layers must be positive, got %d", c.NLayers)
	}
	if c.MaxSeqLen <= 0 {
		return fmt.Errorf("max_seq_len must be positive, got %d", c.MaxSeqLen)
	}
	if c.MLPRatio <= 0 {
		return fmt.Errorf("mlp_ratio must be positive, got %d", c.MLPRatio)
	}
	if c.InitStd <= 0 {
		return fmt.Errorf("init_std must be positive, got %v", c.InitStd)
	}
	for _, p := range []struct {
		name  string
		value float32
	}{
		{"emb_pdrop", c.EmbPDrop},
		{"resid_pdrop", c.ResidPDrop},
		{"attn_pdrop", c.AttnPDrop},
	} {
		if p.value < 0 || p.value >= 1 {
			return fmt.Errorf("%s must be in [0, 1), got %v", p.name, p.value)
		}
	}
	if _, err := ParseAttnImpl(c.AttnImpl); err != nil {
		return err
	}
	if _, err := tensor.ParseDevice(c.Device); err != nil {
		return err
	}
	return nil
}

// resolve parses the selector and device placement strings after
// validation has passed.
func (c Config) resolve() (AttnImpl, tensor.Device, error) {
	if err := c.Validate(); err != nil {
		return AttnReference, tensor.CPU, err
	}
	impl, err := ParseAttnImpl(c.AttnImpl)
	if err != nil {
		return AttnReference, tensor.CPU, err
	}
	device, err := tensor.ParseDevice(c.Device)
	if err != nil {
		return AttnReference, tensor.CPU, err
	}
	return impl, device, nil
}

// LoadConfig reads a YAML run configuration, applies defaults, and
// validates it.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}
