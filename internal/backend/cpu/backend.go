// Copyright 2026 Loom ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu implements the tensor.Backend interface in pure Go.
//
// This is the only compute device in the repository: the model layer is a
// thin architecture definition, and anything heavier (GPU dispatch,
// distributed execution) belongs to an external training framework.
package cpu

import (
	"fmt"

	"github.com/loom-ml/loom/internal/tensor"
)

// CPUBackend implements tensor operations on the host CPU.
type CPUBackend struct {
	device tensor.Device
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{device: tensor.CPU}
}

// Name returns the backend name.
func (c *CPUBackend) Name() string {
	return "cpu"
}

// Device returns the compute device.
func (c *CPUBackend) Device() tensor.Device {
	return c.device
}

// Add performs element-wise addition with broadcasting.
func (c *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binary("add", a, b, func(x, y float32) float32 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (c *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binary("sub", a, b, func(x, y float32) float32 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (c *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binary("mul", a, b, func(x, y float32) float32 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (c *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binary("div", a, b, func(x, y float32) float32 { return x / y })
}

// binary dispatches an element-wise binary op, broadcasting shapes as
// needed. Float32 only: the model's arithmetic never mixes dtypes.
func (c *CPUBackend) binary(name string, a, b *tensor.RawTensor, op func(x, y float32) float32) *tensor.RawTensor {
	if a.DType() != tensor.Float32 || b.DType() != tensor.Float32 {
		panic(fmt.Sprintf("cpu: %s requires float32 operands, got %s and %s", name, a.DType(), b.DType()))
	}
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("cpu: %s: %v", name, err))
	}
	result, err := tensor.NewRaw(outShape, tensor.Float32, c.device)
	if err != nil {
		panic(fmt.Sprintf("cpu: %s: %v", name, err))
	}

	out := result.AsFloat32()
	av := a.AsFloat32()
	bv := b.AsFloat32()

	if !needsBroadcast && a.Shape().Equal(b.Shape()) {
		for i := range out {
			out[i] = op(av[i], bv[i])
		}
		return result
	}

	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(a.Shape(), outShape)
	bStrides := broadcastStrides(b.Shape(), outShape)
	for i := range out {
		out[i] = op(av[flatIndex(i, outStrides, aStrides)], bv[flatIndex(i, outStrides, bStrides)])
	}
	return result
}

// MulScalar multiplies every element by a scalar.
func (c *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s := toFloat32(scalar)
	return c.unary("mul_scalar", x, func(v float32) float32 { return v * s })
}

// AddScalar adds a scalar to every element.
func (c *CPUBackend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s := toFloat32(scalar)
	return c.unary("add_scalar", x, func(v float32) float32 { return v + s })
}

func toFloat32(scalar any) float32 {
	switch v := scalar.(type) {
	case float32:
		return v
	case float64:
		return float32(v)
	case int:
		return float32(v)
	default:
		panic(fmt.Sprintf("cpu: unsupported scalar type %T", scalar))
	}
}
