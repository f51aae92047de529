// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"fmt"
	"math"

	"github.com/loom-ml/loom/internal/tensor"
)

// normalizeDim resolves a possibly negative dimension index.
func normalizeDim(dim, ndim int) int {
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("cpu: dimension %d out of range for %d-dimensional tensor", dim, ndim))
	}
	return dim
}

// reducedShape computes the output shape of a reduction along dim.
func reducedShape(shape tensor.Shape, dim int, keepDim bool) tensor.Shape {
	if keepDim {
		out := shape.Clone()
		out[dim] = 1
		return out
	}
	out := make(tensor.Shape, 0, len(shape)-1)
	for i, d := range shape {
		if i != dim {
			out = append(out, d)
		}
	}
	return out
}

// splitDim decomposes a shape around dim into (outer, size, inner) extents
// so a reduction can walk the flat buffer with simple strides.
func splitDim(shape tensor.Shape, dim int) (outer, size, inner int) {
	outer, size, inner = 1, shape[dim], 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	return outer, size, inner
}

// SumDim sums along dim, optionally keeping the reduced dimension.
func (c *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("cpu: sum requires a float32 operand, got %s", x.DType()))
	}
	dim = normalizeDim(dim, len(x.Shape()))
	outer, size, inner := splitDim(x.Shape(), dim)

	result, err := tensor.NewRaw(reducedShape(x.Shape(), dim, keepDim), tensor.Float32, c.device)
	if err != nil {
		panic(fmt.Sprintf("cpu: sum: %v", err))
	}
	in, out := x.AsFloat32(), result.AsFloat32()
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			sum := float32(0)
			for s := 0; s < size; s++ {
				sum += in[(o*size+s)*inner+i]
			}
			out[o*inner+i] = sum
		}
	}
	return result
}

// MeanDim averages along dim, optionally keeping the reduced dimension.
func (c *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	dim = normalizeDim(dim, len(x.Shape()))
	size := x.Shape()[dim]
	sum := c.SumDim(x, dim, keepDim)
	return c.MulScalar(sum, 1.0/float32(size))
}

// Softmax computes softmax along dim with the max-subtraction trick.
//
// A slice whose entries are all -inf (a fully masked attention row, e.g. a
// padded query position under a causal+padding mask) produces zeros rather
// than NaN; such positions carry no information and are excluded from the
// loss by the ignore sentinel.
func (c *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("cpu: softmax requires a float32 operand, got %s", x.DType()))
	}
	dim = normalizeDim(dim, len(x.Shape()))
	outer, size, inner := splitDim(x.Shape(), dim)

	result, err := tensor.NewRaw(x.Shape(), tensor.Float32, c.device)
	if err != nil {
		panic(fmt.Sprintf("cpu: softmax: %v", err))
	}
	in, out := x.AsFloat32(), result.AsFloat32()

	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := o * size * inner
			maxVal := float32(math.Inf(-1))
			for s := 0; s < size; s++ {
				if v := in[base+s*inner+i]; v > maxVal {
					maxVal = v
				}
			}
			if math.IsInf(float64(maxVal), -1) {
				for s := 0; s < size; s++ {
					out[base+s*inner+i] = 0
				}
				continue
			}
			sum := float32(0)
			for s := 0; s < size; s++ {
				e := float32(math.Exp(float64(in[base+s*inner+i] - maxVal)))
				out[base+s*inner+i] = e
				sum += e
			}
			for s := 0; s < size; s++ {
				out[base+s*inner+i] /= sum
			}
		}
	}
	return result
}
