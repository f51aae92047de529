// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/loom-ml/loom/internal/tensor"
)

// Embedding maps discrete int32 indices to dense vectors via a learnable
// lookup table of shape [NumEmbed, EmbedDim].
//
// Like Linear, construction allocates but does not initialize the table;
// the model initialization policy fills it.
type Embedding[B tensor.Backend] struct {
	Weight   *Parameter[B]
	NumEmbed int
	EmbedDim int
}

// NewEmbedding creates an Embedding layer on the given device.
func NewEmbedding[B tensor.Backend](numEmbeddings, embeddingDim int, backend B, device tensor.Device) *Embedding[B] {
	weight := NewParameter(
		"weight",
		tensor.Empty[float32](tensor.Shape{numEmbeddings, embeddingDim}, backend, device),
		KindEmbedding,
	)
	return &Embedding[B]{
		Weight:   weight,
		NumEmbed: numEmbeddings,
		EmbedDim: embeddingDim,
	}
}

// Forward looks up embeddings for indices of any shape, producing
// [..., EmbedDim]. Panics if an index is outside [0, NumEmbed).
func (e *Embedding[B]) Forward(indices *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	return e.Weight.Tensor().Embedding(indices)
}

// Parameters returns the embedding table.
func (e *Embedding[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{e.Weight}
}
