// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"fmt"

	"github.com/loom-ml/loom/internal/tensor"
)

// Reshape returns a view of t with a new shape and the same element count.
func (c *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	return t.WithShape(newShape)
}

// Transpose permutes the axes of t. With no axes a 2D tensor is transposed;
// otherwise axes must be a full permutation of the dimensions.
func (c *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	nd := len(shape)
	if len(axes) == 0 {
		if nd != 2 {
			panic(fmt.Sprintf("cpu: transpose without axes requires a 2D tensor, got %v", shape))
		}
		axes = []int{1, 0}
	}
	if len(axes) != nd {
		panic(fmt.Sprintf("cpu: transpose axes %v do not match %d-dimensional tensor", axes, nd))
	}
	seen := make([]bool, nd)
	outShape := make(tensor.Shape, nd)
	for i, ax := range axes {
		if ax < 0 || ax >= nd || seen[ax] {
			panic(fmt.Sprintf("cpu: transpose axes %v are not a permutation of 0..%d", axes, nd-1))
		}
		seen[ax] = true
		outShape[i] = shape[ax]
	}

	result, err := tensor.NewRaw(outShape, t.DType(), c.device)
	if err != nil {
		panic(fmt.Sprintf("cpu: transpose: %v", err))
	}

	inStrides := shape.ComputeStrides()
	outStrides := outShape.ComputeStrides()
	n := t.NumElements()

	switch t.DType() {
	case tensor.Float32:
		in, out := t.AsFloat32(), result.AsFloat32()
		for i := 0; i < n; i++ {
			out[i] = in[transposedIndex(i, outStrides, inStrides, axes)]
		}
	case tensor.Int32:
		in, out := t.AsInt32(), result.AsInt32()
		for i := 0; i < n; i++ {
			out[i] = in[transposedIndex(i, outStrides, inStrides, axes)]
		}
	default:
		panic(fmt.Sprintf("cpu: transpose unsupported for %s tensors", t.DType()))
	}
	return result
}

// transposedIndex maps a flat output index to the flat input index under
// the axes permutation.
func transposedIndex(outIdx int, outStrides, inStrides []int, axes []int) int {
	flat := 0
	for i := range outStrides {
		coord := outIdx / outStrides[i]
		outIdx %= outStrides[i]
		flat += coord * inStrides[axes[i]]
	}
	return flat
}

// Embedding gathers rows of weight [num, dim] by int32 indices, producing
// a tensor shaped indices.Shape() + [dim]. Out-of-range indices panic.
func (c *CPUBackend) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	if weight.DType() != tensor.Float32 {
		panic(fmt.Sprintf("cpu: embedding weight must be float32, got %s", weight.DType()))
	}
	if indices.DType() != tensor.Int32 {
		panic(fmt.Sprintf("cpu: embedding indices must be int32, got %s", indices.DType()))
	}
	wShape := weight.Shape()
	if len(wShape) != 2 {
		panic(fmt.Sprintf("cpu: embedding weight must be 2D [num, dim], got %v", wShape))
	}
	num, dim := wShape[0], wShape[1]

	outShape := append(indices.Shape().Clone(), dim)
	result, err := tensor.NewRaw(outShape, tensor.Float32, c.device)
	if err != nil {
		panic(fmt.Sprintf("cpu: embedding: %v", err))
	}

	w, out := weight.AsFloat32(), result.AsFloat32()
	for i, idx := range indices.AsInt32() {
		if idx < 0 || int(idx) >= num {
			panic(fmt.Sprintf("cpu: embedding index %d out of range [0, %d)", idx, num))
		}
		copy(out[i*dim:(i+1)*dim], w[int(idx)*dim:(int(idx)+1)*dim])
	}
	return result
}
