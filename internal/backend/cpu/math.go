// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"fmt"
	"math"

	"github.com/loom-ml/loom/internal/tensor"
)

// unary applies an element-wise float32 function.
func (c *CPUBackend) unary(name string, x *tensor.RawTensor, op func(v float32) float32) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("cpu: %s requires a float32 operand, got %s", name, x.DType()))
	}
	result, err := tensor.NewRaw(x.Shape(), tensor.Float32, c.device)
	if err != nil {
		panic(fmt.Sprintf("cpu: %s: %v", name, err))
	}
	in, out := x.AsFloat32(), result.AsFloat32()
	for i := range in {
		out[i] = op(in[i])
	}
	return result
}

// Exp applies the element-wise exponential.
func (c *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unary("exp", x, func(v float32) float32 {
		return float32(math.Exp(float64(v)))
	})
}

// Log applies the element-wise natural logarithm.
func (c *CPUBackend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unary("log", x, func(v float32) float32 {
		return float32(math.Log(float64(v)))
	})
}

// Rsqrt applies the element-wise reciprocal square root.
func (c *CPUBackend) Rsqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unary("rsqrt", x, func(v float32) float32 {
		return float32(1.0 / math.Sqrt(float64(v)))
	})
}

// Gelu applies the exact (erf-based) GELU activation:
//
//	GELU(x) = 0.5 * x * (1 + erf(x / sqrt(2)))
//
// The tanh approximation is deliberately not used.
func (c *CPUBackend) Gelu(x *tensor.RawTensor) *tensor.RawTensor {
	invSqrt2 := 1.0 / math.Sqrt2
	return c.unary("gelu", x, func(v float32) float32 {
		return float32(0.5 * float64(v) * (1.0 + math.Erf(float64(v)*invSqrt2)))
	})
}
