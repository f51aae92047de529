// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tokenizer wraps the tiktoken BPE encodings used to turn text
// into the int32 token ids the models consume.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// EncodingR50kBase is the GPT-2 encoding, matching the pretrained
	// configs the model loader reads.
	EncodingR50kBase = "r50k_base"
	// EncodingP50kBase is the GPT-3 encoding.
	EncodingP50kBase = "p50k_base"
	// EncodingCL100kBase is the GPT-4 / GPT-3.5-turbo encoding.
	EncodingCL100kBase = "cl100k_base"
)

// Tokenizer wraps a tiktoken BPE encoding.
type Tokenizer struct {
	encoding *tiktoken.Tiktoken
	name     string
}

// New loads the named encoding. The first load of an encoding fetches its
// ranks file and caches it.
func New(encodingName string) (*Tokenizer, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("load tiktoken encoding %q: %w", encodingName, err)
	}
	return &Tokenizer{encoding: encoding, name: encodingName}, nil
}

// ForModel loads the encoding associated with an OpenAI model name, e.g.
// "gpt2" or "gpt-4".
func ForModel(modelName string) (*Tokenizer, error) {
	encoding, err := tiktoken.EncodingForModel(modelName)
	if err != nil {
		return nil, fmt.Errorf("load tiktoken for model %q: %w", modelName, err)
	}
	return &Tokenizer{encoding: encoding, name: modelName}, nil
}

// Encode converts text to token ids.
func (t *Tokenizer) Encode(text string) []int32 {
	tokens := t.encoding.Encode(text, nil, nil)
	result := make([]int32, len(tokens))
	for i, tok := range tokens {
		result[i] = int32(tok) // vocab sizes are far below 2^31
	}
	return result
}

// Decode converts token ids back to text.
func (t *Tokenizer) Decode(tokens []int32) string {
	intTokens := make([]int, len(tokens))
	for i, tok := range tokens {
		intTokens[i] = int(tok)
	}
	return t.encoding.Decode(intTokens)
}

// VocabSize returns the vocabulary size of the encoding, including its
// special tokens. tiktoken-go does not expose this directly, so the known
// sizes are tabled here.
func (t *Tokenizer) VocabSize() int {
	switch t.name {
	case EncodingCL100kBase:
		return 100277
	case EncodingP50kBase, EncodingR50kBase:
		return 50257
	default:
		return 100277
	}
}

// EOSToken returns the <|endoftext|> id for the encoding, or -1 when
// unknown.
func (t *Tokenizer) EOSToken() int32 {
	switch t.name {
	case EncodingCL100kBase:
		return 100257
	case EncodingP50kBase, EncodingR50kBase:
		return 50256
	default:
		return -1
	}
}

// Name returns the encoding name.
func (t *Tokenizer) Name() string { return t.name }
