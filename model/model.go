// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package model provides the public API for the transformer model
// definitions: the causal GPT decoder and the bidirectional BERT encoder,
// plus their shared configuration.
//
// Example:
//
//	backend := cpu.New()
//	cfg := model.Config{VocabSize: 50257, DModel: 768, NHeads: 12, NLayers: 12, MaxSeqLen: 1024}
//	gpt, err := model.NewGPT(cfg, backend)
package model

import (
	"github.com/loom-ml/loom/internal/model"
	"github.com/loom-ml/loom/internal/tensor"
)

// Config holds the hyperparameters shared by both architectures.
type Config = model.Config

// AttnImpl selects the attention implementation.
type AttnImpl = model.AttnImpl

// Attention implementation constants.
const (
	AttnReference AttnImpl = model.AttnReference
	AttnFused     AttnImpl = model.AttnFused
)

// ParseAttnImpl maps a selector string ("reference", "fused") to an
// AttnImpl, rejecting unknown names.
func ParseAttnImpl(name string) (AttnImpl, error) { return model.ParseAttnImpl(name) }

// LoadConfig reads a YAML config file, applies defaults, and validates.
func LoadConfig(path string) (Config, error) { return model.LoadConfig(path) }

// FromPretrained reads a GPT-2-style pretrained config JSON into a Config.
func FromPretrained(path string) (Config, error) { return model.FromPretrained(path) }

// GPT is a causal decoder-only transformer language model.
type GPT[B tensor.Backend] = model.GPT[B]

// NewGPT builds a GPT from cfg.
func NewGPT[B tensor.Backend](cfg Config, backend B) (*GPT[B], error) {
	return model.NewGPT(cfg, backend)
}

// BERT is a bidirectional encoder-only transformer.
type BERT[B tensor.Backend] = model.BERT[B]

// NewBERT builds a BERT encoder from cfg.
func NewBERT[B tensor.Backend](cfg Config, backend B) (*BERT[B], error) {
	return model.NewBERT(cfg, backend)
}

// Block is one pre-norm transformer block.
type Block[B tensor.Backend] = model.Block[B]
