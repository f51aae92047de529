// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package model

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// pretrainedConfig mirrors the GPT-2-style model configuration JSON that
// pretrained checkpoints ship with.
type pretrainedConfig struct {
	VocabSize        int     `json:"vocab_size"`
	NEmbd            int     `json:"n_embd"`
	NHead            int     `json:"n_head"`
	NLayer           int     `json:"n_layer"`
	NPositions       int     `json:"n_positions"`
	EmbdPDrop        float32 `json:"embd_pdrop"`
	ResidPDrop       float32 `json:"resid_pdrop"`
	AttnPDrop        float32 `json:"attn_pdrop"`
	InitializerRange float32 `json:"initializer_range"`
}

// FromPretrained derives a Config from a pretrained model-configuration
// JSON file. Parse and validation errors propagate unmasked.
func FromPretrained(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read pretrained config %s: %w", path, err)
	}
	var pc pretrainedConfig
	if err := json.Unmarshal(data, &pc); err != nil {
		return Config{}, fmt.Errorf("parse pretrained config %s: %w", path, err)
	}

	cfg := Config{
		VocabSize:  pc.VocabSize,
		DModel:     pc.NEmbd,
		NHeads:     pc.NHead,
		NLayers:    pc.NLayer,
		MaxSeqLen:  pc.NPositions,
		EmbPDrop:   pc.EmbdPDrop,
		ResidPDrop: pc.ResidPDrop,
		AttnPDrop:  pc.AttnPDrop,
		InitStd:    pc.InitializerRange,
	}.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("pretrained config %s: %w", path, err)
	}
	return cfg, nil
}
