// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"fmt"

	"github.com/loom-ml/loom/internal/tensor"
)

// Linear implements a fully connected layer: y = x @ W^T + b.
//
// The weight has shape [out_features, in_features]; the optional bias has
// shape [out_features]. Construction allocates the parameters (as meta
// placeholders when device is tensor.Meta) but does not assign values:
// the model-level initialization policy owns that, so that residual-branch
// scaling can be applied uniformly and exactly once.
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[B]
	bias        *Parameter[B] // nil when constructed without bias
	backend     B
}

// NewLinear creates a Linear layer on the given device.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, useBias bool, backend B, device tensor.Device) *Linear[B] {
	weight := NewParameter(
		"weight",
		tensor.Empty[float32](tensor.Shape{outFeatures, inFeatures}, backend, device),
		KindProjection,
	)
	var bias *Parameter[B]
	if useBias {
		bias = NewParameter(
			"bias",
			tensor.Empty[float32](tensor.Shape{outFeatures}, backend, device),
			KindBias,
		)
	}
	return &Linear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      weight,
		bias:        bias,
		backend:     backend,
	}
}

// Forward computes y = x @ W^T + b for input [batch, in_features].
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	inputShape := input.Shape()
	if len(inputShape) != 2 {
		panic(fmt.Sprintf("Linear.Forward: expected 2D input [batch, features], got shape %v", inputShape))
	}
	if inputShape[1] != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected input with %d features, got %d", l.inFeatures, inputShape[1]))
	}

	output := input.MatMul(l.weight.Tensor().Transpose())
	if l.bias != nil {
		output = output.Add(l.bias.Tensor().Reshape(1, l.outFeatures))
	}
	return output
}

// Parameters returns [weight, bias] or [weight] when bias-less.
func (l *Linear[B]) Parameters() []*Parameter[B] {
	if l.bias != nil {
		return []*Parameter[B]{l.weight, l.bias}
	}
	return []*Parameter[B]{l.weight}
}

// Weight returns the weight parameter.
func (l *Linear[B]) Weight() *Parameter[B] { return l.weight }

// Bias returns the bias parameter, or nil.
func (l *Linear[B]) Bias() *Parameter[B] { return l.bias }

// InFeatures returns the input feature count.
func (l *Linear[B]) InFeatures() int { return l.inFeatures }

// OutFeatures returns the output feature count.
func (l *Linear[B]) OutFeatures() int { return l.outFeatures }
