// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tokenizer provides the public API for text tokenization.
package tokenizer

import "github.com/loom-ml/loom/internal/tokenizer"

// Supported encoding names.
const (
	EncodingR50kBase   = tokenizer.EncodingR50kBase
	EncodingP50kBase   = tokenizer.EncodingP50kBase
	EncodingCL100kBase = tokenizer.EncodingCL100kBase
)

// Tokenizer wraps a tiktoken BPE encoding.
type Tokenizer = tokenizer.Tokenizer

// New loads the named encoding.
func New(encodingName string) (*Tokenizer, error) {
	return tokenizer.New(encodingName)
}

// ForModel loads the encoding for an OpenAI model name.
func ForModel(modelName string) (*Tokenizer, error) {
	return tokenizer.ForModel(modelName)
}
