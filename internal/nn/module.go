// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the neural-network building blocks the transformer
// architectures are assembled from: parameters, linear/embedding/norm
// layers, dropout, and multi-head self-attention with reference and fused
// implementations.
package nn

import (
	"github.com/loom-ml/loom/internal/tensor"
)

// Module is the base interface for neural network components.
//
// Every module computes an output from an input tensor and exposes its
// trainable parameters. Type parameter B must satisfy tensor.Backend.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module,
	// including nested module parameters. Modules without trainable
	// parameters return an empty slice.
	Parameters() []*Parameter[B]
}
